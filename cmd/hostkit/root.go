package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ruffel/hostkit"
	"github.com/ruffel/hostkit/providers/local"
	"github.com/ruffel/hostkit/providers/ssh"
	"github.com/ruffel/hostkit/roles"
	"github.com/spf13/cobra"
)

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	inventory string
	roles     []string
	hosts     []string
	user      string
	port      int
	key       string
	sshConfig string
	insecure  bool
	local     bool
	full      bool
	verbose   bool

	pickRoles  []string
	strictRole bool
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:           "hostkit",
		Short:         "Idempotent deployment helpers for SSH hosts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVarP(&g.inventory, "inventory", "i", "", "Inventory file (.yaml, .yml or .toml)")
	f.StringSliceVarP(&g.roles, "roles", "R", nil, "Roles to run against")
	f.StringSliceVarP(&g.hosts, "hosts", "H", nil, "Hosts to run against ([user@]host[:port])")
	f.StringVarP(&g.user, "user", "u", "", "SSH user overriding the inventory")
	f.IntVarP(&g.port, "port", "p", 0, "SSH port overriding the inventory")
	f.StringVar(&g.key, "key", "", "Private key path overriding the inventory")
	f.StringVar(&g.sshConfig, "ssh-config", "", "ssh_config file (default ~/.ssh/config)")
	f.BoolVar(&g.insecure, "insecure", false, "Skip host key verification")
	f.BoolVar(&g.local, "local", false, "Run against the local machine")
	f.BoolVar(&g.full, "full", false, "Re-apply every change, skipping existence and content checks")
	f.BoolVarP(&g.verbose, "verbose", "v", false, "Log every remote command")
	f.StringSliceVar(&g.pickRoles, "pick-role", nil, "Only run on hosts that have one of these roles")
	f.BoolVar(&g.strictRole, "strict-role", false, "With --pick-role, fail unless each host has exactly one of the roles")

	root.AddCommand(
		newRolesCmd(g),
		newPutCmd(g),
		newMkdirCmd(g),
		newSyncCmd(g),
		newCronCmd(g),
		newAptCmd(g),
		newSplunkCmd(g),
		newVersionCmd(g),
	)

	return root
}

func (g *globalOptions) logger() *slog.Logger {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (g *globalOptions) loadInventory() (*roles.Inventory, error) {
	inv := &roles.Inventory{Roles: map[string][]string{}}

	if g.inventory != "" {
		loaded, err := roles.Load(g.inventory)
		if err != nil {
			return nil, err
		}

		inv = loaded
	}

	if g.user != "" {
		inv.User = g.user
	}

	if g.port != 0 {
		inv.Port = g.port
	}

	if g.key != "" {
		inv.KeyPath = g.key
	}

	return inv, nil
}

// targets resolves the hosts a command runs against. Without --roles or
// --hosts the inventory's default roles for task apply.
func (g *globalOptions) targets(task string) (*roles.Inventory, roles.Dispatch, []hostkit.Target, error) {
	inv, err := g.loadInventory()
	if err != nil {
		return nil, roles.Dispatch{}, nil, err
	}

	d := roles.DefaultRoles(inv.TaskRoles(task), g.roles, g.hosts)

	targets, err := inv.Targets(d)
	if err != nil {
		return nil, roles.Dispatch{}, nil, err
	}

	return inv, d, targets, nil
}

// selector answers role questions for t. Hosts selected by name are checked
// against every inventory role.
func (g *globalOptions) selector(inv *roles.Inventory, d roles.Dispatch, t hostkit.Target) roles.Selector {
	active := d.Roles
	if len(active) == 0 {
		active = inv.RoleNames()
	}

	return roles.Selector{Inventory: inv, Active: active, Target: t}
}

// pick applies --pick-role. It reports the matched role and whether the host
// should run.
func (g *globalOptions) pick(sel roles.Selector) (string, bool, error) {
	if len(g.pickRoles) == 0 {
		return "", true, nil
	}

	role, err := sel.PickRole(g.pickRoles, g.strictRole)
	if err != nil {
		return "", false, err
	}

	return role, role != "", nil
}

func (g *globalOptions) openEnv(t hostkit.Target) (hostkit.Environment, error) {
	cfg, err := ssh.ConfigForTarget(t, g.sshConfig)
	if err != nil {
		return nil, err
	}

	cfg.UseAgent = true

	if g.insecure {
		cfg.InsecureSkipVerify = true
	} else if !cfg.InsecureSkipVerify {
		cfg.HostKeyCheck, err = ssh.DefaultKnownHosts()
		if err != nil {
			return nil, fmt.Errorf("load known_hosts: %w", err)
		}
	}

	return ssh.New(ssh.WithConfig(cfg))
}

// hostFunc is run once per host with a session bound to it.
type hostFunc func(ctx context.Context, s *hostkit.Session) error

// taskName is the command path below the root, e.g. "apt ensure".
func taskName(cmd *cobra.Command) string {
	return strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name()+" ")
}

// forEachHost runs fn against every target in turn, stopping at the first
// failure. With --local it runs once against the local machine.
func (g *globalOptions) forEachHost(cmd *cobra.Command, fn hostFunc) error {
	ctx := cmd.Context()
	logger := g.logger()

	if g.local {
		env, err := local.New()
		if err != nil {
			return err
		}
		defer func() { _ = env.Close() }()

		cmd.Println(titleStyle.Render("local"))

		s := hostkit.NewSession(env, hostkit.WithFull(g.full), hostkit.WithLogger(logger))

		return fn(ctx, s)
	}

	inv, d, targets, err := g.targets(taskName(cmd))
	if err != nil {
		return err
	}

	if len(targets) == 0 {
		return errors.New("no hosts selected: use --hosts, --roles or --local")
	}

	for _, t := range targets {
		role, ok, err := g.pick(g.selector(inv, d, t))
		if err != nil {
			return err
		}

		if !ok {
			logger.Debug("skipping host without picked role", "host", t.String())

			continue
		}

		cmd.Println(titleStyle.Render(t.Address()) + " " + infoStyle.Render(role))

		if err := g.runHost(ctx, t, logger, fn); err != nil {
			return fmt.Errorf("%s: %w", t.String(), err)
		}
	}

	return nil
}

func (g *globalOptions) runHost(ctx context.Context, t hostkit.Target, logger *slog.Logger, fn hostFunc) error {
	env, err := g.openEnv(t)
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	s := hostkit.NewSession(env,
		hostkit.WithTarget(t),
		hostkit.WithFull(g.full),
		hostkit.WithLogger(logger),
	)

	return fn(ctx, s)
}

// localSession returns a session on the local machine, for git based commands.
func (g *globalOptions) localSession() (*hostkit.Session, func(), error) {
	env, err := local.New()
	if err != nil {
		return nil, nil, err
	}

	s := hostkit.NewSession(env, hostkit.WithFull(g.full), hostkit.WithLogger(g.logger()))

	return s, func() { _ = env.Close() }, nil
}
