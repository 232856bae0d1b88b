package files

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ruffel/hostkit"
	"github.com/ruffel/hostkit/providers/local"
)

// DefaultExcludes are always passed to rsync by Sync.
var DefaultExcludes = []string{
	"*.egg-info", "*.pyc", ".git", ".gitignore", ".gitmodules", "/build/", "/dist/",
}

// SyncOptions controls Sync.
type SyncOptions struct {
	// Exclude adds rsync exclude patterns to DefaultExcludes.
	Exclude []string

	// Local runs rsync. Nil means the local machine.
	Local hostkit.Environment
}

// Sync mirrors the local directory localDir onto remoteDir with rsync,
// deleting remote files that no longer exist locally. The remote directory
// is created first. Host key checking is disabled for the rsync transport.
func Sync(ctx context.Context, s *hostkit.Session, localDir, remoteDir string, opts SyncOptions) error {
	if s.Target.Host == "" {
		return errors.New("sync: session has no target host")
	}

	if _, err := s.Exec.RunBuffered(ctx, hostkit.NewCommand("mkdir", "-p", remoteDir)); err != nil {
		return fmt.Errorf("sync: create %s: %w", remoteDir, err)
	}

	env := opts.Local
	if env == nil {
		localEnv, err := local.New()
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		defer func() { _ = localEnv.Close() }()

		env = localEnv
	}

	cmd := rsyncCommand(s.Target, localDir, remoteDir, opts.Exclude)
	s.Log().Debug("running rsync", "cmd", cmd.String())

	res, err := hostkit.NewExecutor(env).RunBuffered(ctx, cmd)
	if err != nil {
		return fmt.Errorf("sync %s: %w", localDir, err)
	}

	s.Log().Info("synced", "local", localDir, "remote", remoteDir, "changes", countChanges(res.Output()))

	return nil
}

func rsyncCommand(t hostkit.Target, localDir, remoteDir string, exclude []string) *hostkit.Command {
	if !strings.HasSuffix(localDir, "/") {
		localDir += "/"
	}

	port := t.Port
	if port == 0 {
		port = 22
	}

	rsh := hostkit.Cmd("ssh").
		Args("-p", strconv.Itoa(port), "-o", "StrictHostKeyChecking=no").
		ArgsIf(t.KeyPath != "", "-i", t.KeyPath).
		Script()

	b := hostkit.Cmd("rsync").Args("-pthrvz", "-i", "--omit-dir-times", "-FF", "--delete")

	for _, pattern := range append(append([]string{}, exclude...), DefaultExcludes...) {
		b.Arg("--exclude=" + pattern)
	}

	return b.Arg("--rsh=" + rsh).
		Arg(localDir).
		Arg(t.Address() + ":" + remoteDir).
		Build()
}

// countChanges counts itemized rsync lines, which start with a change code
// such as ">f" or "cd" or "*deleting".
func countChanges(out string) int {
	n := 0

	for line := range strings.Lines(out) {
		if len(line) > 1 && strings.ContainsRune("<>ch.*", rune(line[0])) && line[1] != ' ' {
			n++
		}
	}

	return n
}
