// Package hostkit provides idempotent deployment helpers on top of a small
// command execution and file transfer core.
//
// # Core Interfaces
//
// - Environment: the connection to a target (local machine or SSH host).
// - Process: a running command handle (Wait, Signal, Close).
// - Session: an Executor bound to one target plus the per-run settings
// (full mode, logger) that every helper consumes.
//
// # Helpers
//
// The helpers live in sub-packages grouped by topic: files (transfer,
// ownership, directories, cron, scoped temp files, change watches), apt
// (Debian packages), version (git tag based semantic versions), splunk
// (forwarder monitors) and roles (host/role selection).
//
// # Sudo
//
// Privilege escalation is supported via WithSudo(). This uses `sudo -n` for
// non-interactive execution, so the remote account needs passwordless sudo.
package hostkit

import (
	"context"
	"io"
	"os"
)

// Environment abstracts the system where commands are executed (local or SSH).
type Environment interface {
	io.Closer

	// Run executes a command synchronously.
	// Output is not captured by default; use Command.Stdout/Stderr.
	Run(ctx context.Context, cmd *Command) (*Result, error)

	// Start initiates a command asynchronously.
	// The caller must release the returned Process via Wait() or Close().
	Start(ctx context.Context, cmd *Command) (Process, error)

	// TargetOS returns the operating system of the target environment.
	TargetOS() TargetOS

	// Upload copies a local file or directory to the remote destination.
	//
	// It creates any missing parent directories at the destination.
	Upload(ctx context.Context, localPath, remotePath string, opts ...FileOption) error

	// Download copies a remote file or directory to the local destination.
	//
	// A missing remote path is an error.
	Download(ctx context.Context, remotePath, localPath string, opts ...FileOption) error

	// LookPath searches for an executable in the target's PATH.
	LookPath(ctx context.Context, file string) (string, error)
}

// Process represents a command that has been started but not yet completed.
type Process interface {
	io.Closer

	// Wait blocks until the process exits.
	// Returns an error if the exit code is non-zero.
	Wait() error

	// Result returns exit metadata (only valid after Wait).
	Result() *Result

	// Signal sends an OS signal to the process.
	Signal(sig os.Signal) error
}
