package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ruffel/hostkit"
	"github.com/ruffel/hostkit/fileutil"
)

func (e *Environment) copyDir(ctx context.Context, src, dst string, cfg hostkit.FileConfig) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)
		if err := fileutil.CheckPathTraversal(dst, target); err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		if d.IsDir() {
			if err := os.MkdirAll(target, info.Mode().Perm()); err != nil {
				return err
			}

			return chown(target, cfg)
		}

		mode := info.Mode().Perm()
		if cfg.Permissions != 0 {
			mode = cfg.Permissions
		}

		return e.replaceFile(ctx, path, target, mode, cfg)
	})
}

// replaceFile writes src into a temporary sibling of dst and renames it over
// dst once mode and ownership are set.
func (e *Environment) replaceFile(ctx context.Context, src, dst string, mode os.FileMode, cfg hostkit.FileConfig) (err error) {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}

	defer func() { _ = in.Close() }()

	var size int64
	if info, statErr := in.Stat(); statErr == nil {
		size = info.Size()
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(out.Name())
		}
	}()

	var reader io.Reader = &fileutil.ContextReader{Ctx: ctx, Reader: in}
	if cfg.Progress != nil {
		reader = &fileutil.ProgressReader{Reader: reader, Total: size, Fn: cfg.Progress}
	}

	if _, err = io.Copy(out, reader); err != nil {
		return err
	}

	if err = out.Chmod(mode); err != nil {
		return err
	}

	if err = out.Sync(); err != nil {
		return err
	}

	if err = out.Close(); err != nil {
		return err
	}

	if err = chown(out.Name(), cfg); err != nil {
		return err
	}

	return os.Rename(out.Name(), dst)
}

// chown applies the configured owner. Zero IDs leave the current value.
func chown(path string, cfg hostkit.FileConfig) error {
	if cfg.UID == 0 && cfg.GID == 0 {
		return nil
	}

	uid, gid := cfg.UID, cfg.GID
	if uid == 0 {
		uid = -1
	}

	if gid == 0 {
		gid = -1
	}

	if err := os.Lchown(path, uid, gid); err != nil {
		if errors.Is(err, errors.ErrUnsupported) {
			return fmt.Errorf("chown %s: %w", path, hostkit.ErrNotSupported)
		}

		return fmt.Errorf("chown %s: %w", path, err)
	}

	return nil
}
