package hostkit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result Result
		want   bool
	}{
		{
			name:   "success",
			result: Result{ExitCode: 0},
			want:   true,
		},
		{
			name:   "non-zero exit",
			result: Result{ExitCode: 1},
			want:   false,
		},
		{
			name:   "transport error",
			result: Result{ExitCode: 0, Error: errors.New("connection reset")},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.result.Success())
			assert.Equal(t, !tt.want, tt.result.Failed())
		})
	}
}

func TestBufferedResult_Output(t *testing.T) {
	t.Parallel()

	res := &BufferedResult{Stdout: []byte("  1.2.3\n"), Stderr: []byte("warning\n")}
	assert.Equal(t, "1.2.3", res.Output())
	assert.Equal(t, "  1.2.3\nwarning\n", res.Combined())

	var nilRes *BufferedResult
	assert.Empty(t, nilRes.Output())
	assert.Empty(t, nilRes.Combined())
}

func TestTargetOS_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "linux", OSLinux.String())
	assert.Equal(t, "darwin", OSDarwin.String())
	assert.Equal(t, "unknown", OSUnknown.String())
	assert.Equal(t, "unknown", TargetOS(42).String())
}

func TestTargetOS_ShellCommand(t *testing.T) {
	t.Parallel()

	for _, os := range []TargetOS{OSLinux, OSDarwin, OSUnknown} {
		assert.Equal(t, &Command{Cmd: "sh", Args: []string{"-c", "echo hello"}}, os.ShellCommand("echo hello"))
	}
}

func TestParseTargetOS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		osStr string
		want  TargetOS
	}{
		{"linux", OSLinux},
		{" Linux ", OSLinux},
		{"darwin", OSDarwin},
		{"macos", OSDarwin},
		{"plan9", OSUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.osStr, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseTargetOS(tt.osStr))
		})
	}
}

func TestCommand_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			name: "command only",
			cmd:  Command{Cmd: "ls"},
			want: "ls",
		},
		{
			name: "command with args",
			cmd:  Command{Cmd: "ls", Args: []string{"-la", "/tmp"}},
			want: "ls -la /tmp",
		},
		{
			name: "args with spaces",
			cmd:  Command{Cmd: "echo", Args: []string{"hello world", "foo"}},
			want: "echo 'hello world' foo",
		},
		{
			name: "shell script argument",
			cmd:  Command{Cmd: "sh", Args: []string{"-c", "dpkg-query -W -f='${Status}' git"}},
			want: `sh -c 'dpkg-query -W -f='\''${Status}'\'' git'`,
		},
		{
			name: "empty argument",
			cmd:  Command{Cmd: "git", Args: []string{"describe", ""}},
			want: "git describe ''",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cmd.String())
		})
	}
}

func TestQuote(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "'/var/log/app.log'", Quote("/var/log/app.log"))
	assert.Equal(t, `'don'\''t'`, Quote("don't"))
	assert.Equal(t, "/etc/cron.d/backup", QuoteIfNeeded("/etc/cron.d/backup"))
	assert.Equal(t, "'a b'", QuoteIfNeeded("a b"))
	assert.Equal(t, "'$HOME'", QuoteIfNeeded("$HOME"))
}

func TestCommand_ParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cmdStr  string
		want    Command
		wantErr bool
	}{
		{
			name:   "simple command",
			cmdStr: "ls",
			want:   Command{Cmd: "ls", Args: []string{}},
		},
		{
			name:   "quoted args",
			cmdStr: `echo "hello world" foo`,
			want:   Command{Cmd: "echo", Args: []string{"hello world", "foo"}},
		},
		{
			name:   "extra spaces",
			cmdStr: "  ls   -la   /tmp  ",
			want:   Command{Cmd: "ls", Args: []string{"-la", "/tmp"}},
		},
		{
			name:    "empty command",
			cmdStr:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseCommand(tt.cmdStr)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, &tt.want, got)
			}
		})
	}
}

func TestCommand_StringRoundTrip(t *testing.T) {
	t.Parallel()

	orig := NewCommand("sh", "-c", "touch '/var/log/a b.log'; true")

	parsed, err := ParseCommand(orig.String())
	require.NoError(t, err)
	assert.Equal(t, orig.Cmd, parsed.Cmd)
	assert.Equal(t, orig.Args, parsed.Args)
}

func TestExitError_Error(t *testing.T) {
	t.Parallel()

	t.Run("with command", func(t *testing.T) {
		t.Parallel()

		e := &ExitError{
			Command:  &Command{Cmd: "ls", Args: []string{"-la"}},
			ExitCode: 1,
		}
		assert.Equal(t, "command \"ls -la\" exited with code 1", e.Error())
	})

	t.Run("with stderr", func(t *testing.T) {
		t.Parallel()

		e := &ExitError{
			Command:  &Command{Cmd: "md5sum", Args: []string{"/nope"}},
			ExitCode: 1,
			Stderr:   []byte("md5sum: /nope: No such file or directory\n"),
		}
		assert.Equal(t, "command \"md5sum /nope\" exited with code 1: md5sum: /nope: No such file or directory", e.Error())
	})

	t.Run("without command", func(t *testing.T) {
		t.Parallel()

		e := &ExitError{ExitCode: 1}

		assert.NotPanics(t, func() {
			assert.Equal(t, "command exited with code 1", e.Error())
		})
	})
}
