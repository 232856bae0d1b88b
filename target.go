package hostkit

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Target identifies the host a Session operates on.
type Target struct {
	User    string // Login user; empty means the transport default
	Host    string // Bare hostname or address
	Port    int    // SSH port; 0 means the transport default
	KeyPath string // Optional private key path, used by tools that shell out to ssh
}

// ParseTarget parses "[user@]host[:port]".
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Target{}, errors.New("invalid target: empty host string")
	}

	var t Target

	if user, rest, ok := strings.Cut(s, "@"); ok {
		t.User = user
		s = rest
	}

	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// No port present.
		t.Host = strings.Trim(s, "[]")

		return t, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Target{}, fmt.Errorf("invalid target %q: bad port %q", s, portStr)
	}

	t.Host = host
	t.Port = port

	return t, nil
}

// String returns "host:port", or just the host when no port is set.
func (t Target) String() string {
	if t.Port == 0 {
		return t.Host
	}

	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// Address returns "user@host" (or "host" without a user), the form rsync and
// ssh expect on the command line.
func (t Target) Address() string {
	if t.User == "" {
		return t.Host
	}

	return t.User + "@" + t.Host
}
