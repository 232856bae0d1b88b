package local

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ruffel/hostkit"
)

// Upload copies a local file or directory to another local path. Files are
// replaced atomically so readers never see a partial config file.
func (e *Environment) Upload(ctx context.Context, localPath, remotePath string, opts ...hostkit.FileOption) error {
	if e.isClosed() {
		return fmt.Errorf("cannot upload files: %w", hostkit.ErrEnvironmentClosed)
	}

	cfg := hostkit.DefaultFileConfig()
	for _, o := range opts {
		o(&cfg)
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return err
	}

	if info.IsDir() {
		if !cfg.Recursive {
			return errors.New("recursive directory upload is disabled by configuration")
		}

		return e.copyDir(ctx, localPath, remotePath, cfg)
	}

	mode := info.Mode().Perm()
	if cfg.Permissions != 0 {
		mode = cfg.Permissions
	}

	return e.replaceFile(ctx, localPath, remotePath, mode, cfg)
}

// Download copies a path on this machine to another local path.
func (e *Environment) Download(ctx context.Context, remotePath, localPath string, opts ...hostkit.FileOption) error {
	if e.isClosed() {
		return fmt.Errorf("cannot download files: %w", hostkit.ErrEnvironmentClosed)
	}

	return e.Upload(ctx, remotePath, localPath, opts...)
}
