package hostkit

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Executor handles command execution with retry logic, sudo support, and output buffering.
type Executor struct {
	env Environment
}

// NewExecutor creates a new Executor with the given environment.
func NewExecutor(env Environment) *Executor {
	return &Executor{env: env}
}

// Environment returns the underlying environment.
func (e *Executor) Environment() Environment {
	return e.env
}

// Run executes a command, respecting context cancellation and configured retry policies.
func (e *Executor) Run(ctx context.Context, cmd *Command, opts ...ExecOption) (*Result, error) {
	cfg := ExecConfig{RetryAttempts: 1}

	for _, o := range opts {
		o(&cfg)
	}

	if cfg.SudoConfig != nil {
		cmd = applySudo(cmd, cfg.SudoConfig)
	}

	var (
		lastRes *Result
		lastErr error
	)

	for i := range cfg.RetryAttempts {
		if i > 0 {
			err := e.wait(ctx, cfg.RetryDelay)
			if err != nil {
				return nil, err
			}
		}

		lastRes, lastErr = e.env.Run(ctx, cmd)

		if lastErr == nil && (lastRes == nil || lastRes.ExitCode == 0) {
			return lastRes, nil
		}
	}

	if lastErr != nil {
		var exitErr *ExitError
		if errors.As(lastErr, &exitErr) || cfg.RetryAttempts == 1 {
			return lastRes, lastErr
		}

		return lastRes, fmt.Errorf("command execution failed after %d attempts: %w", cfg.RetryAttempts, lastErr)
	}

	// Check if the final execution had a non-zero exit code
	if lastRes != nil && lastRes.ExitCode != 0 {
		return lastRes, &ExitError{
			Command:  cmd,
			ExitCode: lastRes.ExitCode,
		}
	}

	return lastRes, nil
}

// RunBuffered executes a command and captures both Stdout and Stderr.
func (e *Executor) RunBuffered(ctx context.Context, cmd *Command, opts ...ExecOption) (*BufferedResult, error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	cmdCopy := *cmd
	cmdCopy.Stdout = &stdoutBuf
	cmdCopy.Stderr = &stderrBuf

	result, err := e.Run(ctx, &cmdCopy, opts...)

	bufResult := &BufferedResult{
		Stdout: stdoutBuf.Bytes(),
		Stderr: stderrBuf.Bytes(),
	}
	if result != nil {
		bufResult.Result = *result
	}

	// Attach stderr to ExitError for context
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			exitErr.Stderr = bufResult.Stderr
			bufResult.ExitCode = exitErr.ExitCode
		}
	}

	return bufResult, err
}

// RunShell executes a shell command string using the target OS's default shell.
func (e *Executor) RunShell(ctx context.Context, script string, opts ...ExecOption) (*BufferedResult, error) {
	cmd := e.env.TargetOS().ShellCommand(script)

	return e.RunBuffered(ctx, cmd, opts...)
}

// Output runs a shell script and returns its trimmed stdout.
func (e *Executor) Output(ctx context.Context, script string, opts ...ExecOption) (string, error) {
	res, err := e.RunShell(ctx, script, opts...)
	if err != nil {
		return "", err
	}

	return res.Output(), nil
}

// Exists reports whether path exists on the target.
// Only an exit status of 1 from test(1) means "absent"; anything else is an error.
func (e *Executor) Exists(ctx context.Context, path string, opts ...ExecOption) (bool, error) {
	_, err := e.RunShell(ctx, "test -e "+Quote(path), opts...)
	if err == nil {
		return true, nil
	}

	if IsExitCode(err, 1) {
		return false, nil
	}

	return false, err
}

// LookPath resolves an executable path using the underlying environment's LookPath strategy.
func (e *Executor) LookPath(ctx context.Context, file string) (string, error) {
	return e.env.LookPath(ctx, file)
}

// Start initiates a command asynchronously.
// Caller is responsible for Process.Wait().
func (e *Executor) Start(ctx context.Context, cmd *Command) (Process, error) {
	return e.env.Start(ctx, cmd)
}

// RunLineStream streams stdout line-by-line to onLine.
// Overrides Command.Stdout.
func (e *Executor) RunLineStream(ctx context.Context, cmd *Command, onLine func(string), opts ...ExecOption) error {
	pr, pw := io.Pipe()

	cfg := ExecConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	cmdCopy := *cmd
	if cfg.SudoConfig != nil {
		cmdCopy = *applySudo(cmd, cfg.SudoConfig)
	}

	cmdCopy.Stdout = pw
	cmd = &cmdCopy

	proc, err := e.Start(ctx, cmd)
	if err != nil {
		return err
	}

	defer func() { _ = proc.Close() }()

	scanErrCh := make(chan error, 1)

	go func() {
		defer func() { _ = pr.Close() }()

		scanner := bufio.NewScanner(pr)
		for scanner.Scan() {
			onLine(scanner.Text())
		}

		scanErrCh <- scanner.Err()
	}()

	if err := proc.Wait(); err != nil {
		_ = pw.CloseWithError(err)

		return err
	}

	_ = pw.Close()

	scanErr := <-scanErrCh
	if scanErr != nil {
		return fmt.Errorf("scan error: %w", scanErr)
	}

	return nil
}

// TargetOS returns the operating system of the underlying environment.
func (e *Executor) TargetOS() TargetOS {
	return e.env.TargetOS()
}

// Upload copies a local file or directory to the remote destination.
func (e *Executor) Upload(ctx context.Context, localPath, remotePath string, opts ...FileOption) error {
	return e.env.Upload(ctx, localPath, remotePath, opts...)
}

// Download copies a remote file or directory to the local destination.
func (e *Executor) Download(ctx context.Context, remotePath, localPath string, opts ...FileOption) error {
	return e.env.Download(ctx, remotePath, localPath, opts...)
}

func applySudo(cmd *Command, cfg *SudoConfig) *Command {
	args := []string{"-n"}

	if cfg.User != "" {
		args = append(args, "-u", cfg.User)
	}

	if cfg.Group != "" {
		args = append(args, "-g", cfg.Group)
	}

	if cfg.PreserveEnv {
		args = append(args, "-E")
	}

	args = append(args, cfg.CustomFlags...)
	args = append(args, "--", cmd.Cmd)
	args = append(args, cmd.Args...)

	newCmd := *cmd
	newCmd.Cmd = "sudo"
	newCmd.Args = args

	return &newCmd
}

func (e *Executor) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
