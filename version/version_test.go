package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag     string
		want    Version
		wantErr bool
	}{
		{"v1.2.3", Version{Major: 1, Minor: 2, Patch: 3, Prefix: "v"}, false},
		{"1.2.3", Version{Major: 1, Minor: 2, Patch: 3}, false},
		{"v10.0.7rc1", Version{Major: 10, Minor: 0, Patch: 7, Prefix: "v"}, false},
		{"v2.3.4-5-gabcde", Version{Major: 2, Minor: 3, Patch: 4, Prefix: "v"}, false},
		{"v1.2", Version{}, true},
		{"release", Version{}, true},
		{"v1..3", Version{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			t.Parallel()

			v, err := Parse(tt.tag)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidVersion)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestBump(t *testing.T) {
	t.Parallel()

	base := Version{Major: 1, Minor: 2, Patch: 3, Special: "rc1", Prefix: "v"}

	tests := []struct {
		level Level
		want  string
	}{
		{Patch, "v1.2.4"},
		{Minor, "v1.3.0"},
		{Major, "v2.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			t.Parallel()

			v, err := Bump(base, tt.level)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Tag())
		})
	}

	_, err := Bump(base, Level(7))
	require.ErrorIs(t, err, ErrUnknownLevel)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Level{"patch": Patch, "Minor": Minor, " MAJOR ": Major} {
		l, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, l)
	}

	_, err := ParseLevel("micro")
	require.ErrorIs(t, err, ErrUnknownLevel)
}

func TestValidateSpecial(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"", "rc1", "beta_2", "aLPHA"} {
		assert.NoError(t, ValidateSpecial(ok), ok)
	}

	for _, bad := range []string{"1rc", "Rc1", "_rc", "rc-1", "rc 1"} {
		assert.ErrorIs(t, ValidateSpecial(bad), ErrInvalidSpecial, bad)
	}
}

func TestRewriteDescribe(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"v1.2.3":              "1.2.3",
		"1.2.3":               "1.2.3",
		"v1.2.3-4-gabcde":     "1.2.3+4-abcde",
		"v1.2.3rc1-12-g0f3a9": "1.2.3rc1+12-0f3a9",
		"v1.2.3-rc1-2-gdead1": "1.2.3-rc1+2-dead1",
		"version-1":           "version-1",
		"v1.2.3\n":            "1.2.3",
	}

	for in, want := range tests {
		assert.Equal(t, want, RewriteDescribe(in), in)
	}
}
