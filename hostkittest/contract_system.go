package hostkittest

import (
	"strings"

	"github.com/ruffel/hostkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func systemContracts() []TestCase {
	return []TestCase{
		{
			Category: CategorySystem,
			Name:     "lookpath",
			Run: func(t T, env hostkit.Environment) {
				exec := hostkit.NewExecutor(env)

				path, err := exec.LookPath(t.Context(), "sh")

				require.NoError(t, err)
				assert.NotEmpty(t, path)
			},
		},
		{
			Category:    CategorySystem,
			Name:        "lookpath-missing-fails",
			Description: "LookPath of an unknown binary is an error",
			Run: func(t T, env hostkit.Environment) {
				_, err := env.LookPath(t.Context(), "hostkit-no-such-binary")
				require.Error(t, err)
			},
		},
		{
			Category:    CategorySystem,
			Name:        "md5sum",
			Description: "md5sum prints the digest first, as change detection expects",
			Prereq: func(t T, env hostkit.Environment) (bool, string) {
				if _, err := env.LookPath(t.Context(), "md5sum"); err != nil {
					return false, "md5sum not installed"
				}

				return true, ""
			},
			Run: func(t T, env hostkit.Environment) {
				exec := hostkit.NewExecutor(env)

				out, err := exec.Output(t.Context(), "printf hello | md5sum")
				require.NoError(t, err)

				fields := strings.Fields(out)
				require.NotEmpty(t, fields)
				assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", fields[0])
			},
		},
		{
			Category:    CategorySystem,
			Name:        "target-os-known",
			Description: "TargetOS reports a POSIX system",
			Run: func(t T, env hostkit.Environment) {
				assert.Contains(t, []hostkit.TargetOS{hostkit.OSLinux, hostkit.OSDarwin}, env.TargetOS())
			},
		},
	}
}
