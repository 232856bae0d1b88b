// Package splunk registers file monitors with a Splunk universal forwarder
// through its authenticated CLI.
package splunk

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/ruffel/hostkit"
)

// Forwarder defaults.
const (
	DefaultHome     = "/opt/splunkforwarder"
	DefaultUser     = "admin"
	DefaultPassword = "changeme"
)

const redacted = "***"

// Monitor is a file to forward with its Splunk source type.
type Monitor struct {
	Path       string
	SourceType string
}

// Forwarder talks to the forwarder CLI. Empty fields take the package
// defaults. The set of monitored paths is fetched once per target host and
// cached for the lifetime of the Forwarder.
type Forwarder struct {
	Home     string
	User     string
	Password string

	mu       sync.Mutex
	monitors map[string]map[string]struct{} // target -> monitored paths
}

func (f *Forwarder) home() string {
	if f.Home == "" {
		return DefaultHome
	}

	return f.Home
}

func (f *Forwarder) auth() string {
	user, pass := f.User, f.Password
	if user == "" {
		user = DefaultUser
	}

	if pass == "" {
		pass = DefaultPassword
	}

	return user + ":" + pass
}

// Command runs "splunk <args> -auth user:pass" with sudo and returns its
// output. Credentials never appear in logs or returned errors.
func (f *Forwarder) Command(ctx context.Context, s *hostkit.Session, args ...string) (string, error) {
	bin := path.Join(f.home(), "bin", "splunk")

	cmd := hostkit.Cmd(bin).Args(args...).Args("-auth", f.auth()).Build()
	shown := hostkit.Cmd(bin).Args(args...).Args("-auth", redacted).Build()

	s.Log().Debug("running splunk", "cmd", shown.String())

	res, err := s.Exec.RunBuffered(ctx, cmd, hostkit.WithSudo())
	if err != nil {
		var (
			exitErr      *hostkit.ExitError
			transportErr *hostkit.TransportError
		)

		if errors.As(err, &exitErr) {
			exitErr.Command = shown
		}

		if errors.As(err, &transportErr) {
			transportErr.Command = shown
		}

		if secret := f.auth(); strings.Contains(err.Error(), secret) {
			err = &redactedError{msg: strings.ReplaceAll(err.Error(), secret, redacted), err: err}
		}

		return "", fmt.Errorf("splunk %s: %w", strings.Join(args, " "), err)
	}

	return res.Output(), nil
}

// redactedError keeps the error chain of err while hiding credentials from
// its message.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }

// Monitor registers each monitor whose path the forwarder does not watch
// yet, creating the file first so Splunk accepts it. Hosts without the
// forwarder installed are skipped. It returns the number of monitors added.
func (f *Forwarder) Monitor(ctx context.Context, s *hostkit.Session, monitors ...Monitor) (int, error) {
	installed, err := s.Exec.Exists(ctx, f.home())
	if err != nil {
		return 0, fmt.Errorf("check %s: %w", f.home(), err)
	}

	if !installed {
		s.Log().Debug("splunk forwarder not installed", "home", f.home())

		return 0, nil
	}

	known, err := f.known(ctx, s)
	if err != nil {
		return 0, err
	}

	added := 0

	for _, m := range monitors {
		if f.has(known, m.Path) {
			continue
		}

		if _, err := s.Exec.RunShell(ctx, "touch "+hostkit.Quote(m.Path)+"; true"); err != nil {
			return added, fmt.Errorf("touch %s: %w", m.Path, err)
		}

		if _, err := f.Command(ctx, s, "add", "monitor", m.Path, "-sourcetype", m.SourceType); err != nil {
			return added, err
		}

		f.mu.Lock()
		known[m.Path] = struct{}{}
		f.mu.Unlock()

		added++

		s.Log().Info("splunk monitor added", "path", m.Path, "sourcetype", m.SourceType)
	}

	return added, nil
}

func (f *Forwarder) has(known map[string]struct{}, p string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := known[p]

	return ok
}

// known returns the cached monitor set for the session's host, listing it
// from the forwarder on first use.
func (f *Forwarder) known(ctx context.Context, s *hostkit.Session) (map[string]struct{}, error) {
	key := s.Target.String()

	f.mu.Lock()
	set, ok := f.monitors[key]
	f.mu.Unlock()

	if ok {
		return set, nil
	}

	out, err := f.Command(ctx, s, "list", "monitor")
	if err != nil {
		return nil, err
	}

	set = ParseMonitors(out)

	f.mu.Lock()
	if f.monitors == nil {
		f.monitors = make(map[string]map[string]struct{})
	}

	f.monitors[key] = set
	f.mu.Unlock()

	return set, nil
}

// ParseMonitors extracts the monitored paths from "splunk list monitor"
// output: every indented line is a path, headings end in ':'.
func ParseMonitors(out string) map[string]struct{} {
	set := make(map[string]struct{})

	for line := range strings.Lines(out) {
		p := strings.TrimSpace(line)
		if p == "" || strings.HasSuffix(p, ":") {
			continue
		}

		set[p] = struct{}{}
	}

	return set
}
