package files

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ruffel/hostkit"
	"github.com/ruffel/hostkit/fileutil"
)

// PutOptions controls how Put writes the remote file.
type PutOptions struct {
	User  string      // chown after copy
	Group string      // chgrp after copy
	Mode  os.FileMode // 0 keeps the transport default

	// NoSudo uploads straight to the destination as the login user.
	// By default the file is staged in a mktemp path and moved with sudo.
	NoSudo bool

	// NoCheck copies without comparing content first.
	NoCheck bool
}

// Put copies src to remote when the contents differ, then applies ownership.
// It reports whether a copy happened. Full mode and NoCheck always copy.
func Put(ctx context.Context, s *hostkit.Session, src Source, remote string, opts PutOptions) (bool, error) {
	data, err := src.Read()
	if err != nil {
		return false, err
	}

	if !s.Full && !opts.NoCheck {
		differs, err := diffContent(ctx, s, data, remote)
		if err != nil {
			return false, err
		}

		if !differs {
			s.Log().Debug("unchanged, skipping put", "path", remote)

			return false, nil
		}
	}

	staged, cleanup, err := src.stage()
	if err != nil {
		return false, err
	}
	defer cleanup()

	if err := upload(ctx, s, staged, remote, opts); err != nil {
		return false, fmt.Errorf("put %s: %w", remote, err)
	}

	if err := Chown(ctx, s, opts.User, opts.Group, remote); err != nil {
		return true, err
	}

	s.Log().Info("file updated", "path", remote, "source", src.String())

	return true, nil
}

func upload(ctx context.Context, s *hostkit.Session, local, remote string, opts PutOptions) error {
	var fileOpts []hostkit.FileOption
	if opts.Mode != 0 {
		fileOpts = append(fileOpts, hostkit.WithPermissions(opts.Mode))
	}

	if opts.NoSudo {
		return s.Exec.Upload(ctx, local, remote, fileOpts...)
	}

	tmp, err := s.Exec.Output(ctx, "mktemp")
	if err != nil {
		return fmt.Errorf("mktemp: %w", err)
	}

	if err := s.Exec.Upload(ctx, local, tmp); err != nil {
		return errors.Join(err, remove(ctx, s, tmp, false))
	}

	if _, err := s.Exec.RunBuffered(ctx, hostkit.NewCommand("mv", tmp, remote), hostkit.WithSudo()); err != nil {
		return errors.Join(err, remove(ctx, s, tmp, false))
	}

	if opts.Mode != 0 {
		mode := modeArg(opts.Mode)
		if _, err := s.Exec.RunBuffered(ctx, hostkit.NewCommand("chmod", mode, remote), hostkit.WithSudo()); err != nil {
			return err
		}
	}

	return nil
}

// Diff reports whether src and the remote file differ once surrounding
// whitespace is ignored. A missing or unreadable remote file differs.
func Diff(ctx context.Context, s *hostkit.Session, src Source, remote string) (bool, error) {
	data, err := src.Read()
	if err != nil {
		return false, err
	}

	return diffContent(ctx, s, data, remote)
}

func diffContent(ctx context.Context, s *hostkit.Session, data []byte, remote string) (bool, error) {
	dir, err := os.MkdirTemp("", "hostkit-diff-*")
	if err != nil {
		return false, fmt.Errorf("create diff dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	local := filepath.Join(dir, "remote")
	if err := s.Exec.Download(ctx, remote, local); err != nil {
		s.Log().Debug("remote unreadable, treating as changed", "path", remote, "error", err)

		return true, nil
	}

	current, err := fileutil.ReadLocal(local)
	if err != nil {
		return false, err
	}

	return !fileutil.SameContent(data, current), nil
}

// remove deletes a remote file, ignoring a missing one.
func remove(ctx context.Context, s *hostkit.Session, path string, sudo bool) error {
	_, err := s.Exec.RunBuffered(ctx, hostkit.NewCommand("rm", "-f", path), hostkit.SudoIf(sudo))
	if err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}

	return nil
}
