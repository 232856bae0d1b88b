package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruffel/hostkit"
	"github.com/ruffel/hostkit/roles"
	"github.com/ruffel/hostkit/splunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	m, err := parseMode("0644")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), m)

	m, err = parseMode("")
	require.NoError(t, err)
	assert.Zero(t, m)

	m, err = parseMode("2775")
	require.NoError(t, err)
	assert.Equal(t, os.ModeSetgid|0o775, m)

	_, err = parseMode("rw-r--r--")
	require.Error(t, err)

	_, err = parseMode("17777")
	require.Error(t, err)
}

func TestParseEnv(t *testing.T) {
	t.Parallel()

	env, err := parseEnv([]string{"PATH=/usr/bin:/bin", "MAILTO="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"PATH": "/usr/bin:/bin", "MAILTO": ""}, env)

	env, err = parseEnv(nil)
	require.NoError(t, err)
	assert.Nil(t, env)

	_, err = parseEnv([]string{"=x"})
	require.Error(t, err)
}

func TestParseMonitors(t *testing.T) {
	t.Parallel()

	got, err := parseMonitors([]string{"/var/log/app.log:app", "C:/logs/x:y"})
	require.NoError(t, err)
	assert.Equal(t, []splunk.Monitor{
		{Path: "/var/log/app.log", SourceType: "app"},
		{Path: "C:/logs/x", SourceType: "y"},
	}, got)

	for _, bad := range []string{"/var/log/app.log", ":app", "/var/log/app.log:"} {
		_, err := parseMonitors([]string{bad})
		require.Error(t, err, bad)
	}
}

func TestRolesCommand(t *testing.T) {
	t.Parallel()

	inv := filepath.Join(t.TempDir(), "hosts.yaml")
	require.NoError(t, os.WriteFile(inv, []byte(`
user: deploy
roles:
  web: [web1, web2]
  db: [web2]
`), 0o600))

	out, err := execute(t, "roles", "-i", inv)
	require.NoError(t, err)
	assert.Contains(t, out, "deploy@web1")
	assert.Contains(t, out, "deploy@web2")
	assert.Contains(t, out, "db, web")

	out, err = execute(t, "roles", "-i", inv, "-R", "db")
	require.NoError(t, err)
	assert.NotContains(t, out, "web1")
	assert.Contains(t, out, "deploy@web2")
}

func TestRolesCommand_PickRole(t *testing.T) {
	t.Parallel()

	inv := filepath.Join(t.TempDir(), "hosts.yaml")
	require.NoError(t, os.WriteFile(inv, []byte(`
roles:
  web: [web1, web2]
  db: [web2]
`), 0o600))

	out, err := execute(t, "roles", "-i", inv, "--pick-role", "db")
	require.NoError(t, err)
	assert.NotContains(t, out, "web1")
	assert.Contains(t, out, "web2")

	_, err = execute(t, "roles", "-i", inv, "--pick-role", "db", "--strict-role")
	require.ErrorIs(t, err, roles.ErrNoRole)
}

func TestPick(t *testing.T) {
	t.Parallel()

	inv := &roles.Inventory{Roles: map[string][]string{"web": {"web1", "web2"}, "db": {"web2"}}}
	web2 := hostkit.Target{Host: "web2"}

	g := &globalOptions{}
	_, ok, err := g.pick(g.selector(inv, roles.Dispatch{}, web2))
	require.NoError(t, err)
	assert.True(t, ok)

	g.pickRoles = []string{"db", "cache"}
	role, ok, err := g.pick(g.selector(inv, roles.Dispatch{Hosts: []string{"web2"}}, web2))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "db", role)

	g.pickRoles = []string{"web", "db"}
	g.strictRole = true
	_, _, err = g.pick(g.selector(inv, roles.Dispatch{}, web2))
	require.ErrorIs(t, err, roles.ErrMultipleRoles)
}

func TestTaskName(t *testing.T) {
	t.Parallel()

	root := newRootCmd()

	ensure, _, err := root.Find([]string{"apt", "ensure"})
	require.NoError(t, err)
	assert.Equal(t, "apt ensure", taskName(ensure))
}

func TestRolesCommand_UnknownRole(t *testing.T) {
	t.Parallel()

	inv := filepath.Join(t.TempDir(), "hosts.toml")
	require.NoError(t, os.WriteFile(inv, []byte("[roles]\nweb = [\"web1\"]\n"), 0o600))

	_, err := execute(t, "roles", "-i", inv, "-R", "cache")
	require.Error(t, err)
}

func TestPutCommand_Local(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "app.conf")
	dst := filepath.Join(dir, "deployed.conf")
	require.NoError(t, os.WriteFile(src, []byte("listen 80\n"), 0o600))

	out, err := execute(t, "put", "--local", "--no-sudo", src, dst)
	require.NoError(t, err)
	assert.Contains(t, out, "changed: "+dst)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "listen 80\n", string(got))

	out, err = execute(t, "put", "--local", "--no-sudo", src, dst)
	require.NoError(t, err)
	assert.Contains(t, out, "ok: "+dst)
}

func TestPutCommand_BadMode(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "put", "--local", "--mode", "abc", "a", "b")
	require.Error(t, err)
}

func TestNoHostsSelected(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "mkdir", "/srv/app")
	require.ErrorContains(t, err, "no hosts selected")
}

func TestSyncCommand_RejectsLocal(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "sync", "--local", "a", "b")
	require.Error(t, err)
}

func TestCronCommand_Invalid(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "cron", "bad.name", "--local", "--schedule", "@daily", "--command", "true")
	require.Error(t, err)
}
