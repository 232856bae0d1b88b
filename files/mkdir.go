package files

import (
	"context"
	"fmt"
	"os"

	"github.com/ruffel/hostkit"
)

// MkdirOptions controls Mkdir.
type MkdirOptions struct {
	User   string
	Group  string
	Mode   os.FileMode // passed as mkdir -m when non-zero
	NoSudo bool
}

// Mkdir creates the directories that do not exist yet in one mkdir -p call
// and applies ownership to them. Full mode creates every path. It reports
// whether anything was created.
func Mkdir(ctx context.Context, s *hostkit.Session, opts MkdirOptions, dirs ...string) (bool, error) {
	missing := dirs

	if !s.Full {
		missing = make([]string, 0, len(dirs))

		for _, d := range dirs {
			ok, err := s.Exec.Exists(ctx, d)
			if err != nil {
				return false, fmt.Errorf("check %s: %w", d, err)
			}

			if !ok {
				missing = append(missing, d)
			}
		}
	}

	if len(missing) == 0 {
		return false, nil
	}

	cmd := hostkit.Cmd("mkdir").
		Args("-v", "-p").
		ArgsIf(opts.Mode != 0, "-m", modeArg(opts.Mode)).
		Args(missing...).
		Build()

	if _, err := s.Exec.RunBuffered(ctx, cmd, hostkit.SudoIf(!opts.NoSudo)); err != nil {
		return false, fmt.Errorf("mkdir: %w", err)
	}

	if err := Chown(ctx, s, opts.User, opts.Group, missing...); err != nil {
		return true, err
	}

	s.Log().Info("directories created", "paths", missing)

	return true, nil
}
