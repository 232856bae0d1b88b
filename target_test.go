package hostkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Target
		wantErr bool
	}{
		{in: "web1", want: Target{Host: "web1"}},
		{in: "web1:2222", want: Target{Host: "web1", Port: 2222}},
		{in: "deploy@web1:22", want: Target{User: "deploy", Host: "web1", Port: 22}},
		{in: "deploy@10.0.0.5", want: Target{User: "deploy", Host: "10.0.0.5"}},
		{in: "[::1]:2200", want: Target{Host: "::1", Port: 2200}},
		{in: "web1:http", wantErr: true},
		{in: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseTarget(tt.in)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTarget_Strings(t *testing.T) {
	t.Parallel()

	tgt := Target{User: "deploy", Host: "web1", Port: 2222}
	assert.Equal(t, "web1:2222", tgt.String())
	assert.Equal(t, "deploy@web1", tgt.Address())

	bare := Target{Host: "web1"}
	assert.Equal(t, "web1", bare.String())
	assert.Equal(t, "web1", bare.Address())
}

func TestNewSession(t *testing.T) {
	t.Parallel()

	env := new(MockEnv)
	s := NewSession(env, WithFull(true), WithTarget(Target{Host: "db1", Port: 22}), WithLogger(nil))

	assert.True(t, s.Full)
	assert.Equal(t, "db1:22", s.Target.String())
	assert.Same(t, env, s.Exec.Environment())
	require.NotNil(t, s.Logger)
	assert.NotNil(t, s.Log())
}
