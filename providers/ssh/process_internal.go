package ssh

import (
	"fmt"
	"strings"

	"github.com/ruffel/hostkit"
	"golang.org/x/crypto/ssh"
)

// buildEnvPrefix constructs the environment variable prefix for SSH commands.
// OpenSSH defaults to PermitUserEnvironment=no, so session.Setenv() is
// usually rejected; variables are exported in the command string instead.
func buildEnvPrefix(envVars []string) string {
	var envPrefix strings.Builder

	for _, env := range envVars {
		k, v, found := strings.Cut(env, "=")
		if !found {
			continue // Skip malformed env
		}

		fmt.Fprintf(&envPrefix, "export %s=%s; ", k, hostkit.Quote(v))
	}

	return envPrefix.String()
}

// buildDirPrefix constructs the directory change prefix for SSH commands.
func buildDirPrefix(dir string) string {
	if dir == "" {
		return ""
	}

	return fmt.Sprintf("cd %s && ", hostkit.Quote(dir))
}

// buildTerminalModes returns the default terminal modes for a PTY.
func buildTerminalModes() ssh.TerminalModes {
	return ssh.TerminalModes{
		ssh.ECHO:          1,     // enable echoing
		ssh.TTY_OP_ISPEED: 14400, // input speed = 14.4kbaud
		ssh.TTY_OP_OSPEED: 14400, // output speed = 14.4kbaud
	}
}

// buildFullCommand renders the command line executed by the remote shell:
// exported variables, a directory change, then the quoted command.
func buildFullCommand(cmd *hostkit.Command) string {
	return buildEnvPrefix(cmd.Env) + buildDirPrefix(cmd.Dir) + cmd.String()
}
