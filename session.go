package hostkit

import (
	"log/slog"
)

// Session binds an Executor to a single target together with the settings
// every helper consults. It replaces ambient per-process state: create one
// Session per host and pass it explicitly.
type Session struct {
	Exec   *Executor
	Target Target

	// Full forces idempotent helpers to re-apply unconditionally, skipping
	// existence and content checks.
	Full bool

	Logger *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// NewSession creates a Session over env. The logger defaults to discarding output.
func NewSession(env Environment, opts ...SessionOption) *Session {
	s := &Session{
		Exec:   NewExecutor(env),
		Logger: slog.New(slog.DiscardHandler),
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

// WithFull enables or disables full mode.
func WithFull(full bool) SessionOption {
	return func(s *Session) {
		s.Full = full
	}
}

// WithTarget records the host the session talks to.
func WithTarget(t Target) SessionOption {
	return func(s *Session) {
		s.Target = t
	}
}

// WithLogger sets the session logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.Logger = l
		}
	}
}

// Log returns the session logger annotated with the target host.
func (s *Session) Log() *slog.Logger {
	if s.Target.Host == "" {
		return s.Logger
	}

	return s.Logger.With("host", s.Target.String())
}
