// Package ssh provides an implementation of the hostkit.Environment interface
// for remote servers via the SSH protocol.
//
// Commands run in a fresh session each, rendered as a single POSIX shell
// command line. File transfers use SFTP. Connection settings can be resolved
// from ~/.ssh/config so inventory files only need to name hosts.
//
// Usage:
//
//	cfg, _ := ssh.ConfigForTarget(hostkit.Target{Host: "web1"}, "")
//	cfg.UseAgent = true
//	env, err := ssh.New(ssh.WithConfig(cfg))
package ssh
