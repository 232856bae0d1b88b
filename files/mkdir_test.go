package files

import (
	"context"
	"testing"

	"github.com/ruffel/hostkit"
	"github.com/ruffel/hostkit/providers/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMkdir_SkipsExisting(t *testing.T) {
	t.Parallel()

	env := mock.New()
	env.OnShell("test -e '/srv/a'")
	env.OnShell("test -e '/srv/b'").Exit(1)
	env.OnShell("test -e '/srv/c d'").Exit(1)
	env.OnSudo("mkdir -v -p -m 750 /srv/b '/srv/c d'").Once()
	env.OnSudo("chown app:app /srv/b '/srv/c d'").Once()

	changed, err := Mkdir(context.Background(), newSession(env), MkdirOptions{User: "app", Group: "app", Mode: 0o750}, "/srv/a", "/srv/b", "/srv/c d")
	require.NoError(t, err)
	assert.True(t, changed)

	env.AssertExpectations(t)
}

func TestMkdir_AllExist(t *testing.T) {
	t.Parallel()

	env := mock.New()
	env.OnShell("test -e '/srv/a'")

	changed, err := Mkdir(context.Background(), newSession(env), MkdirOptions{User: "app"}, "/srv/a")
	require.NoError(t, err)
	assert.False(t, changed)

	env.AssertNumberOfCalls(t, "Run", 1)
}

func TestMkdir_Full(t *testing.T) {
	t.Parallel()

	env := mock.New()
	env.OnShell("mkdir -v -p /srv/a").Once()
	env.OnSudo("chown app /srv/a").Once()

	s := newSession(env, hostkit.WithFull(true))

	changed, err := Mkdir(context.Background(), s, MkdirOptions{User: "app", NoSudo: true}, "/srv/a")
	require.NoError(t, err)
	assert.True(t, changed)

	env.AssertExpectations(t)
}

func TestMkdir_ExistsError(t *testing.T) {
	t.Parallel()

	env := mock.New()
	env.OnShell("test -e '/srv/a'").Exit(2)

	_, err := Mkdir(context.Background(), newSession(env), MkdirOptions{}, "/srv/a")
	require.Error(t, err)
}
