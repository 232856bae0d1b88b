package files

import (
	"context"
	"errors"
	"fmt"

	"github.com/ruffel/hostkit"
)

// TempPut uploads src to remote, runs fn with the remote path and removes the
// file afterwards, whatever fn returns. An empty remote uses a mktemp path.
// A failed upload only removes the path when it came from mktemp.
// Cleanup runs even when ctx is cancelled; its error is joined with fn's.
func TempPut(ctx context.Context, s *hostkit.Session, src Source, remote string, fn func(ctx context.Context, remotePath string) error) error {
	created := remote == ""
	if created {
		tmp, err := s.Exec.Output(ctx, "mktemp")
		if err != nil {
			return fmt.Errorf("mktemp: %w", err)
		}

		remote = tmp
	}

	staged, cleanup, err := src.stage()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := s.Exec.Upload(ctx, staged, remote); err != nil {
		err = fmt.Errorf("upload %s: %w", remote, err)

		// A caller-supplied path may hold a file that predates this call.
		if !created {
			return err
		}

		return errors.Join(err, remove(context.WithoutCancel(ctx), s, remote, false))
	}

	s.Log().Debug("temporary file placed", "path", remote)

	runErr := fn(ctx, remote)

	return errors.Join(runErr, remove(context.WithoutCancel(ctx), s, remote, false))
}
