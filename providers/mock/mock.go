package mock

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/ruffel/hostkit"
	"github.com/stretchr/testify/mock"
)

// Environment implements a mock hostkit.Environment using testify/mock.
type Environment struct {
	mock.Mock
}

var _ hostkit.Environment = (*Environment)(nil)

// New creates a new mock environment reporting Linux as its target OS.
func New() *Environment {
	m := &Environment{}
	m.On("TargetOS").Return(hostkit.OSLinux).Maybe()

	return m
}

// Upload mocks uploading a file to the remote environment.
func (m *Environment) Upload(ctx context.Context, localPath, remotePath string, opts ...hostkit.FileOption) error {
	// Variadic capture fix for testify
	args := m.Called(ctx, localPath, remotePath, opts)

	return args.Error(0)
}

// Download mocks downloading a file from the remote environment.
func (m *Environment) Download(ctx context.Context, remotePath, localPath string, opts ...hostkit.FileOption) error {
	args := m.Called(ctx, remotePath, localPath, opts)

	return args.Error(0)
}

// Run mocks running a command to completion.
func (m *Environment) Run(ctx context.Context, cmd *hostkit.Command) (*hostkit.Result, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*hostkit.Result), args.Error(1)
}

// Start mocks starting a command asynchronously.
func (m *Environment) Start(ctx context.Context, cmd *hostkit.Command) (hostkit.Process, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(hostkit.Process), args.Error(1)
}

// LookPath mocks resolving an executable.
func (m *Environment) LookPath(ctx context.Context, file string) (string, error) {
	args := m.Called(ctx, file)

	return args.String(0), args.Error(1)
}

// TargetOS mocks returning the target operating system.
func (m *Environment) TargetOS() hostkit.TargetOS {
	args := m.Called()

	return args.Get(0).(hostkit.TargetOS)
}

// Close mocks closing the environment.
func (m *Environment) Close() error {
	args := m.Called()

	return args.Error(0)
}

// Script returns the shell script cmd carries and whether it runs under sudo.
// Commands that are not "sh -c" invocations are rendered with Command.String.
func Script(cmd *hostkit.Command) (string, bool) {
	sudo := false
	name, args := cmd.Cmd, cmd.Args

	if name == "sudo" {
		sudo = true

		for i, a := range args {
			if a == "--" && i+1 < len(args) {
				name, args = args[i+1], args[i+2:]

				break
			}
		}
	}

	if name == "sh" && len(args) == 2 && args[0] == "-c" {
		return args[1], sudo
	}

	return (&hostkit.Command{Cmd: name, Args: args}).String(), sudo
}

// Reply is a scripted response to a shell expectation.
type Reply struct {
	call   *mock.Call
	stdout string
	stderr string
	code   int
}

// OnShell expects script to run without sudo.
func (m *Environment) OnShell(script string) *Reply {
	return m.onScript(func(s string, sudo bool) bool { return !sudo && s == script })
}

// OnSudo expects script to run under sudo.
func (m *Environment) OnSudo(script string) *Reply {
	return m.onScript(func(s string, sudo bool) bool { return sudo && s == script })
}

// OnShellFunc expects any script accepted by match, with or without sudo.
func (m *Environment) OnShellFunc(match func(script string, sudo bool) bool) *Reply {
	return m.onScript(match)
}

// OnShellPrefix expects a script starting with prefix, with or without sudo.
func (m *Environment) OnShellPrefix(prefix string) *Reply {
	return m.onScript(func(s string, _ bool) bool { return strings.HasPrefix(s, prefix) })
}

func (m *Environment) onScript(match func(string, bool) bool) *Reply {
	r := &Reply{}

	matcher := mock.MatchedBy(func(cmd *hostkit.Command) bool {
		return match(Script(cmd))
	})

	r.call = m.On("Run", mock.Anything, matcher).
		Run(func(args mock.Arguments) {
			cmd := args.Get(1).(*hostkit.Command)
			if cmd.Stdout != nil {
				_, _ = io.WriteString(cmd.Stdout, r.stdout)
			}

			if cmd.Stderr != nil {
				_, _ = io.WriteString(cmd.Stderr, r.stderr)
			}
		}).
		Return(&hostkit.Result{}, nil)

	return r
}

// Stdout sets the output written to the command's stdout.
func (r *Reply) Stdout(s string) *Reply {
	r.stdout = s

	return r
}

// Stderr sets the output written to the command's stderr.
func (r *Reply) Stderr(s string) *Reply {
	r.stderr = s

	return r
}

// Exit sets the exit code reported for the command.
func (r *Reply) Exit(code int) *Reply {
	r.code = code
	r.call.Return(&hostkit.Result{ExitCode: code}, nil)

	return r
}

// Fail makes the command fail at the transport level.
func (r *Reply) Fail(err error) *Reply {
	r.call.Return(nil, err)

	return r
}

// Once limits the expectation to a single call.
func (r *Reply) Once() *Reply {
	r.call.Once()

	return r
}

// Times limits the expectation to n calls.
func (r *Reply) Times(n int) *Reply {
	r.call.Times(n)

	return r
}

// Transfer is a scripted response to an upload or download expectation.
type Transfer struct {
	call *mock.Call
	data []byte
}

// OnDownload expects a download of remotePath and writes content to the
// requested local path.
func (m *Environment) OnDownload(remotePath, content string) *Transfer {
	t := &Transfer{data: []byte(content)}

	t.call = m.On("Download", mock.Anything, remotePath, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			_ = os.WriteFile(args.String(2), t.data, 0o600)
		}).
		Return(nil)

	return t
}

// OnMissingDownload expects a download of remotePath that fails with err.
func (m *Environment) OnMissingDownload(remotePath string, err error) *Transfer {
	return &Transfer{
		call: m.On("Download", mock.Anything, remotePath, mock.Anything, mock.Anything).Return(err),
	}
}

// OnUpload expects an upload to remotePath and records the uploaded bytes.
// An empty remotePath matches any destination.
func (m *Environment) OnUpload(remotePath string) *Transfer {
	t := &Transfer{}

	var dst any = remotePath
	if remotePath == "" {
		dst = mock.Anything
	}

	t.call = m.On("Upload", mock.Anything, mock.Anything, dst, mock.Anything).
		Run(func(args mock.Arguments) {
			t.data, _ = os.ReadFile(args.String(1))
		}).
		Return(nil)

	return t
}

// Data returns the bytes captured by the last matching upload.
func (t *Transfer) Data() []byte {
	return t.data
}

// Fail makes the transfer return err.
func (t *Transfer) Fail(err error) *Transfer {
	t.call.Return(err)

	return t
}

// Once limits the expectation to a single call.
func (t *Transfer) Once() *Transfer {
	t.call.Once()

	return t
}

// Process implements a mock hostkit.Process using testify/mock.
type Process struct {
	mock.Mock
}

var _ hostkit.Process = (*Process)(nil)

// Wait mocks waiting for the process to complete.
func (m *Process) Wait() error {
	args := m.Called()

	return args.Error(0)
}

// Result mocks returning the process result.
func (m *Process) Result() *hostkit.Result {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).(*hostkit.Result)
}

// Signal mocks sending a signal to the process.
func (m *Process) Signal(sig os.Signal) error {
	args := m.Called(sig)

	return args.Error(0)
}

// Close mocks closing the process.
func (m *Process) Close() error {
	args := m.Called()

	return args.Error(0)
}

// WriteOutput is a helper to simulate output writing for mocked processes.
// Usage: mockProcess.On("Wait").Run(WriteOutput(cmd.Stdout, "output")).Return(nil).
func WriteOutput(w io.Writer, content string) func(mock.Arguments) {
	return func(_ mock.Arguments) {
		if w != nil {
			_, _ = io.WriteString(w, content)
		}
	}
}
