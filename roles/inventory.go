// Package roles maps named roles to hosts and answers which roles the
// current host plays. It replaces decorator-style role attachment with
// explicit values: a Dispatch says what to run against, a Selector answers
// questions about one host.
package roles

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ruffel/hostkit"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownFormat is returned for inventory files that are neither YAML nor TOML.
	ErrUnknownFormat = errors.New("unknown inventory format")

	// ErrUnknownRole is returned when a dispatch names a role the inventory lacks.
	ErrUnknownRole = errors.New("unknown role")
)

// Inventory is the role definition file.
type Inventory struct {
	// Roles maps a role name to its hosts, each "[user@]host[:port]".
	Roles map[string][]string `yaml:"roles" toml:"roles"`

	// Tasks maps a task name to the roles it runs against when neither
	// roles nor hosts are given on the command line.
	Tasks map[string][]string `yaml:"tasks" toml:"tasks"`

	// Defaults applied to hosts that do not set them.
	User    string `yaml:"user" toml:"user"`
	Port    int    `yaml:"port" toml:"port"`
	KeyPath string `yaml:"key" toml:"key"`
}

// Load reads an inventory, choosing the format from the file extension
// (.yaml, .yml or .toml).
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}

	inv, err := Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return inv, nil
}

// Parse decodes an inventory in the given format: "yaml", "yml" or "toml".
func Parse(data []byte, format string) (*Inventory, error) {
	var inv Inventory

	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)

		if err := dec.Decode(&inv); err != nil {
			return nil, fmt.Errorf("parse yaml inventory: %w", err)
		}
	case "toml":
		md, err := toml.Decode(string(data), &inv)
		if err != nil {
			return nil, fmt.Errorf("parse toml inventory: %w", err)
		}

		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parse toml inventory: unknown keys %v", undecoded)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if inv.Roles == nil {
		inv.Roles = map[string][]string{}
	}

	return &inv, nil
}

// RoleNames returns the defined roles in sorted order.
func (inv *Inventory) RoleNames() []string {
	names := make([]string, 0, len(inv.Roles))
	for name := range inv.Roles {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// TaskRoles returns the default roles for task. A task such as "apt ensure"
// falls back to the entry for its first word.
func (inv *Inventory) TaskRoles(task string) []string {
	if r, ok := inv.Tasks[task]; ok {
		return r
	}

	if first, _, ok := strings.Cut(task, " "); ok {
		return inv.Tasks[first]
	}

	return nil
}

// Dispatch is the set of roles and hosts a run targets.
type Dispatch struct {
	Roles []string
	Hosts []string
}

// DefaultRoles returns the dispatch for a task that normally runs on
// defaults. Roles or hosts given on the command line replace the defaults
// entirely.
func DefaultRoles(defaults, cliRoles, cliHosts []string) Dispatch {
	if len(cliRoles) == 0 && len(cliHosts) == 0 {
		return Dispatch{Roles: slices.Clone(defaults)}
	}

	return Dispatch{Roles: slices.Clone(cliRoles), Hosts: slices.Clone(cliHosts)}
}

// Targets resolves d to hosts: members of each role in order, then explicit
// hosts, without duplicates. Inventory defaults fill missing user, port and key.
func (inv *Inventory) Targets(d Dispatch) ([]hostkit.Target, error) {
	var (
		targets []hostkit.Target
		seen    = map[string]bool{}
	)

	add := func(entry string) error {
		t, err := hostkit.ParseTarget(entry)
		if err != nil {
			return err
		}

		t = inv.withDefaults(t)

		key := strings.ToLower(t.Address() + ":" + t.String())
		if seen[key] {
			return nil
		}

		seen[key] = true
		targets = append(targets, t)

		return nil
	}

	for _, role := range d.Roles {
		hosts, ok := inv.Roles[role]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRole, role)
		}

		for _, h := range hosts {
			if err := add(h); err != nil {
				return nil, fmt.Errorf("role %s: %w", role, err)
			}
		}
	}

	for _, h := range d.Hosts {
		if err := add(h); err != nil {
			return nil, err
		}
	}

	return targets, nil
}

func (inv *Inventory) withDefaults(t hostkit.Target) hostkit.Target {
	if t.User == "" {
		t.User = inv.User
	}

	if t.Port == 0 {
		t.Port = inv.Port
	}

	if t.KeyPath == "" {
		t.KeyPath = inv.KeyPath
	}

	return t
}
