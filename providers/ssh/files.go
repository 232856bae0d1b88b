package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	pathpkg "path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"github.com/ruffel/hostkit"
	"github.com/ruffel/hostkit/fileutil"
)

// Upload copies a local file/dir to the remote path using SFTP. Files are
// written to a temporary sibling and renamed into place.
func (e *Environment) Upload(ctx context.Context, localPath, remotePath string, opts ...hostkit.FileOption) error {
	cfg := hostkit.DefaultFileConfig()
	for _, o := range opts {
		o(&cfg)
	}

	sftpClient, err := e.sftpClient()
	if err != nil {
		return err
	}

	defer func() { _ = sftpClient.Close() }()

	info, err := os.Stat(localPath)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return e.uploadDir(ctx, sftpClient, localPath, remotePath, cfg)
	}

	mode := info.Mode().Perm()
	if cfg.Permissions != 0 {
		mode = cfg.Permissions
	}

	return e.uploadFile(ctx, sftpClient, localPath, remotePath, mode, cfg)
}

func (e *Environment) sftpClient() (*sftp.Client, error) {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()

		return nil, hostkit.ErrEnvironmentClosed
	}

	client := e.client
	e.mu.Unlock()

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create sftp client: %w", err)
	}

	return sftpClient, nil
}

func (e *Environment) uploadDir(ctx context.Context, client *sftp.Client, localBase, remoteBase string, cfg hostkit.FileConfig) error {
	return filepath.WalkDir(localBase, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(localBase, path)
		if err != nil {
			return err
		}

		remotePath := pathpkg.Join(remoteBase, filepath.ToSlash(relPath))

		if d.IsDir() {
			if err := client.MkdirAll(remotePath); err != nil {
				return err
			}

			if cfg.Permissions != 0 {
				_ = client.Chmod(remotePath, cfg.Permissions)
			}

			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		mode := info.Mode().Perm()
		if cfg.Permissions != 0 {
			mode = cfg.Permissions
		}

		return e.uploadFile(ctx, client, path, remotePath, mode, cfg)
	})
}

func (e *Environment) uploadFile(ctx context.Context, client *sftp.Client, localPath, remotePath string, mode os.FileMode, cfg hostkit.FileConfig) (err error) {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	src, err := os.Open(localPath)
	if err != nil {
		return err
	}

	defer func() { _ = src.Close() }()

	var size int64
	if info, statErr := src.Stat(); statErr == nil {
		size = info.Size()
	}

	if err := client.MkdirAll(pathpkg.Dir(remotePath)); err != nil {
		return fmt.Errorf("failed to create remote directory for %q: %w", remotePath, remoteErr(err))
	}

	tmpPath := pathpkg.Join(pathpkg.Dir(remotePath), fmt.Sprintf(".%s.%d.tmp", pathpkg.Base(remotePath), time.Now().UnixNano()))

	dst, err := client.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL)
	if err != nil {
		return fmt.Errorf("failed to create remote file %q: %w", remotePath, remoteErr(err))
	}

	defer func() {
		_ = dst.Close()

		if err != nil {
			_ = client.Remove(tmpPath)
		}
	}()

	var reader io.Reader = &fileutil.ContextReader{Ctx: ctx, Reader: src}
	if cfg.Progress != nil {
		reader = &fileutil.ProgressReader{Reader: reader, Total: size, Fn: cfg.Progress}
	}

	if _, err = io.Copy(dst, reader); err != nil {
		return err
	}

	if err = dst.Chmod(mode); err != nil {
		return fmt.Errorf("failed to chmod remote file: %w", remoteErr(err))
	}

	if cfg.UID != 0 || cfg.GID != 0 {
		if err = dst.Chown(cfg.UID, cfg.GID); err != nil {
			return fmt.Errorf("failed to chown remote file %q: %w", remotePath, remoteErr(err))
		}
	}

	if err = dst.Close(); err != nil {
		return err
	}

	if err = client.PosixRename(tmpPath, remotePath); err != nil {
		return fmt.Errorf("failed to move %q into place: %w", remotePath, remoteErr(err))
	}

	return nil
}

// remoteErr maps SFTP status codes onto the os sentinel errors.
func remoteErr(err error) error {
	var status *sftp.StatusError
	if !errors.As(err, &status) {
		return err
	}

	switch status.FxCode() {
	case sftp.ErrSSHFxPermissionDenied:
		return fmt.Errorf("%w: %w", os.ErrPermission, err)
	case sftp.ErrSSHFxNoSuchFile:
		return fmt.Errorf("%w: %w", os.ErrNotExist, err)
	case sftp.ErrSSHFxOpUnsupported:
		return fmt.Errorf("%w: %w", hostkit.ErrNotSupported, err)
	default:
		return err
	}
}

// Download copies a remote file/dir to the local path using SFTP.
func (e *Environment) Download(ctx context.Context, remotePath, localPath string, opts ...hostkit.FileOption) error {
	cfg := hostkit.DefaultFileConfig()
	for _, o := range opts {
		o(&cfg)
	}

	sftpClient, err := e.sftpClient()
	if err != nil {
		return err
	}

	defer func() { _ = sftpClient.Close() }()

	info, err := sftpClient.Stat(remotePath)
	if err != nil {
		return fmt.Errorf("stat remote %q: %w", remotePath, remoteErr(err))
	}

	if info.IsDir() {
		return e.downloadDir(ctx, sftpClient, remotePath, localPath, cfg.Progress)
	}

	return e.downloadFile(ctx, sftpClient, remotePath, localPath, info.Mode(), cfg.Progress)
}

func (e *Environment) downloadDir(ctx context.Context, client *sftp.Client, remoteBase, localBase string, progress hostkit.ProgressFunc) error {
	walker := client.Walk(remoteBase)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return err
		}

		path := walker.Path()

		if err := fileutil.CheckRemotePathTraversal(remoteBase, path); err != nil {
			return err
		}

		relPath := strings.TrimPrefix(strings.TrimPrefix(path, pathpkg.Clean(remoteBase)), "/")

		localPath := filepath.Join(localBase, relPath)
		info := walker.Stat()

		if info.IsDir() {
			err := os.MkdirAll(localPath, info.Mode())
			if err != nil {
				return err
			}

			continue
		}

		if err := e.downloadFile(ctx, client, path, localPath, info.Mode(), progress); err != nil {
			return err
		}
	}
	return nil
}

func (e *Environment) downloadFile(ctx context.Context, client *sftp.Client, remotePath, localPath string, mode os.FileMode, progress hostkit.ProgressFunc) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	src, err := client.Open(remotePath)
	if err != nil {
		return err
	}

	defer func() { _ = src.Close() }()

	var size int64
	if info, err := src.Stat(); err == nil {
		size = info.Size()
	}

	// Ensure parent exists
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}

	dst, err := os.Create(localPath)
	if err != nil {
		return err
	}

	defer func() { _ = dst.Close() }()

	if err := os.Chmod(localPath, mode); err != nil {
		return fmt.Errorf("failed to chmod local file: %w", err)
	}

	var reader io.Reader = &fileutil.ContextReader{Ctx: ctx, Reader: src}
	if progress != nil {
		reader = &fileutil.ProgressReader{Reader: reader, Total: size, Fn: progress}
	}

	_, err = io.Copy(dst, reader)

	return err
}
