package files

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruffel/hostkit"
)

// Chown sets the owner and group of paths with sudo. With only a group it
// runs chgrp. Without either it does nothing.
func Chown(ctx context.Context, s *hostkit.Session, user, group string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	var b *hostkit.Builder

	switch {
	case user != "" && group != "":
		b = hostkit.Cmd("chown").Arg(user + ":" + group)
	case user != "":
		b = hostkit.Cmd("chown").Arg(user)
	case group != "":
		b = hostkit.Cmd("chgrp").Arg(group)
	default:
		return nil
	}

	cmd := b.Args(paths...).Build()
	s.Log().Debug("setting ownership", "cmd", cmd.String())

	if _, err := s.Exec.RunBuffered(ctx, cmd, hostkit.WithSudo()); err != nil {
		return fmt.Errorf("chown %s: %w", strings.Join(paths, " "), err)
	}

	return nil
}

// MD5Sum returns the md5 checksum of a remote file.
func MD5Sum(ctx context.Context, s *hostkit.Session, path string, sudo bool) (string, error) {
	res, err := s.Exec.RunBuffered(ctx, hostkit.NewCommand("md5sum", path), hostkit.SudoIf(sudo))
	if err != nil {
		return "", fmt.Errorf("md5sum %s: %w", path, err)
	}

	fields := strings.Fields(res.Output())
	if len(fields) == 0 {
		return "", fmt.Errorf("md5sum %s: empty output", path)
	}

	return fields[0], nil
}
