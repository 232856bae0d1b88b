// Package local provides an implementation of the hostkit.Environment
// interface for the machine hostkit runs on.
//
// Deployment helpers use it for the steps that happen on the operator side:
// git describe/tag for version management and the rsync client that pushes a
// project tree to a remote host. It is also a convenient target for tests.
//
// Usage:
//
//	env, _ := local.New()
//	s := hostkit.NewSession(env)
//	out, _ := s.Exec.Output(ctx, "git describe --tags")
package local
