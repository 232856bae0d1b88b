package roles

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/ruffel/hostkit"
)

var (
	// ErrNoRole is returned by a strict PickRole when the host has none of the roles.
	ErrNoRole = errors.New("no role found for host")

	// ErrMultipleRoles is returned by a strict PickRole when the host has several roles.
	ErrMultipleRoles = errors.New("multiple roles found for host")
)

// Selector answers role questions for one host within a run.
type Selector struct {
	Inventory *Inventory
	Active    []string // roles selected for this run
	Target    hostkit.Target
}

// HasRole reports whether the target is listed under role. Entries match
// case-insensitively against the bare host or "host:port"; an entry with a
// port only matches that port.
func (sel Selector) HasRole(role string) bool {
	if sel.Inventory == nil {
		return false
	}

	host := strings.ToLower(sel.Target.Host)
	hostPort := strings.ToLower(sel.Target.String())

	for _, entry := range sel.Inventory.Roles[role] {
		e := strings.ToLower(strings.TrimSpace(entry))
		if e == host || e == hostPort {
			return true
		}

		t, err := hostkit.ParseTarget(e)
		if err != nil || t.Host != host {
			continue
		}

		if t.Port == 0 || t.Port == sel.Target.Port {
			return true
		}
	}

	return false
}

// HostRoles yields the active roles the target has, limited to restrict
// when it is non-empty.
func (sel Selector) HostRoles(restrict ...string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, role := range sel.Active {
			if len(restrict) > 0 && !slices.Contains(restrict, role) {
				continue
			}

			if sel.HasRole(role) && !yield(role) {
				return
			}
		}
	}
}

// PickRole returns the first of candidates (or of the active roles when
// candidates is empty) that the target has. Candidates outside the active
// roles are ignored. When strict, exactly one role must match; otherwise an
// empty result is not an error.
func (sel Selector) PickRole(candidates []string, strict bool) (string, error) {
	pool := sel.Active
	if len(candidates) > 0 {
		pool = make([]string, 0, len(candidates))

		for _, c := range candidates {
			if slices.Contains(sel.Active, c) {
				pool = append(pool, c)
			}
		}
	}

	var matched []string

	for _, role := range pool {
		if sel.HasRole(role) {
			matched = append(matched, role)
		}
	}

	if strict {
		switch len(matched) {
		case 0:
			return "", fmt.Errorf("%w: %s", ErrNoRole, sel.Target.Host)
		case 1:
		default:
			return "", fmt.Errorf("%w: %s has %s", ErrMultipleRoles, sel.Target.Host, strings.Join(matched, ", "))
		}
	}

	if len(matched) == 0 {
		return "", nil
	}

	return matched[0], nil
}
