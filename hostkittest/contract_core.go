package hostkittest

import (
	"path"
	"strings"

	"github.com/ruffel/hostkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coreContracts() []TestCase {
	return []TestCase{
		{
			Category: CategoryCore,
			Name:     "simple-echo",
			Run: func(t T, env hostkit.Environment) {
				exec := hostkit.NewExecutor(env)
				result, err := exec.RunBuffered(t.Context(), hostkit.NewCommand("echo", "hello"))
				require.NoError(t, err)
				require.NotNil(t, result)

				assert.Equal(t, "hello", strings.TrimSpace(string(result.Stdout)))
				assert.Equal(t, 0, result.ExitCode)
			},
		},
		{
			Category:    CategoryCore,
			Name:        "stderr-separate",
			Description: "Stdout and stderr are captured independently",
			Run: func(t T, env hostkit.Environment) {
				res, err := hostkit.NewExecutor(env).RunShell(t.Context(), "echo out; echo err >&2")
				require.NoError(t, err)

				assert.Equal(t, "out", strings.TrimSpace(string(res.Stdout)))
				assert.Equal(t, "err", strings.TrimSpace(string(res.Stderr)))
			},
		},
		{
			Category:    CategoryCore,
			Name:        "literal-arguments",
			Description: "Arguments reach the program verbatim, without shell expansion",
			Run: func(t T, env hostkit.Environment) {
				literal := "${Status} $HOME 'quoted' *"

				res, err := hostkit.NewExecutor(env).RunBuffered(t.Context(), hostkit.NewCommand("printf", "%s", literal))
				require.NoError(t, err)
				assert.Equal(t, literal, string(res.Stdout))
			},
		},
		{
			Category:    CategoryCore,
			Name:        "quoted-script",
			Description: "A Quote'd word survives a shell script unchanged",
			Run: func(t T, env hostkit.Environment) {
				out, err := hostkit.NewExecutor(env).Output(t.Context(), "printf %s "+hostkit.Quote("it's ${HOME}"))
				require.NoError(t, err)
				assert.Equal(t, "it's ${HOME}", out)
			},
		},
		{
			Category:    CategoryCore,
			Name:        "exists",
			Description: "Exists distinguishes present and absent paths",
			Run: func(t T, env hostkit.Environment) {
				exec := hostkit.NewExecutor(env)

				ok, err := exec.Exists(t.Context(), "/")
				require.NoError(t, err)
				assert.True(t, ok)

				ok, err = exec.Exists(t.Context(), path.Join(remoteDir(t), "absent"))
				require.NoError(t, err)
				assert.False(t, ok)
			},
		},
		{
			Category:    CategoryCore,
			Name:        "env-and-dir",
			Description: "Command environment and working directory are applied",
			Run: func(t T, env hostkit.Environment) {
				cmd := env.TargetOS().ShellCommand(`printf '%s:%s' "$HOSTKIT_VAR" "$(pwd)"`)
				cmd.Env = []string{"HOSTKIT_VAR=set"}
				cmd.Dir = "/"

				res, err := hostkit.NewExecutor(env).RunBuffered(t.Context(), cmd)
				require.NoError(t, err)
				assert.Equal(t, "set:/", string(res.Stdout))
			},
		},
	}
}
