// Package mock provides a controllable implementation of hostkit.Environment
// for testing purposes.
//
// Expectations are regular testify/mock calls. OnShell and OnSudo match on the
// shell script a helper sends, after unwrapping "sudo -n ... --" and "sh -c",
// so tests read like the commands they assert.
//
// Usage:
//
//	env := mock.New()
//	env.OnShell("stat /var/cache/apt -c %Y").Stdout("1700000000\n")
//	env.OnSudo("apt-get update").Once()
//	s := hostkit.NewSession(env)
//	// exercise s, then env.AssertExpectations(t)
package mock
