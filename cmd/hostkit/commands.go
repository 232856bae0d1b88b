package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ruffel/hostkit"
	"github.com/ruffel/hostkit/apt"
	"github.com/ruffel/hostkit/files"
	"github.com/ruffel/hostkit/splunk"
	"github.com/ruffel/hostkit/version"
	"github.com/spf13/cobra"
)

func newRolesCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "Show the hosts selected by --roles/--hosts and the roles each plays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, d, targets, err := g.targets("")
			if err != nil {
				return err
			}

			if len(d.Roles) == 0 && len(d.Hosts) == 0 {
				d.Roles = inv.RoleNames()

				if targets, err = inv.Targets(d); err != nil {
					return err
				}
			}

			for _, t := range targets {
				sel := g.selector(inv, d, t)

				if _, ok, err := g.pick(sel); err != nil {
					return err
				} else if !ok {
					continue
				}

				cmd.Println(titleStyle.Render(t.Address()) + " " + infoStyle.Render(strings.Join(slices.Collect(sel.HostRoles()), ", ")))
			}

			return nil
		},
	}
}

func parseMode(s string) (os.FileMode, error) {
	if s == "" {
		return 0, nil
	}

	return files.ParseMode(s)
}

func newPutCmd(g *globalOptions) *cobra.Command {
	var (
		opts    files.PutOptions
		mode    string
		notify  string
		noCheck bool
	)

	cmd := &cobra.Command{
		Use:   "put LOCAL REMOTE",
		Short: "Copy a file when its content differs, then set ownership",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseMode(mode)
			if err != nil {
				return err
			}

			opts.Mode = m
			opts.NoCheck = noCheck

			return g.forEachHost(cmd, func(ctx context.Context, s *hostkit.Session) error {
				if notify == "" {
					changed, err := files.Put(ctx, s, files.Path(args[0]), args[1], opts)
					if err != nil {
						return err
					}

					report(cmd, changed, args[1])

					return nil
				}

				notified, err := files.Watch(ctx, s, []string{args[1]}, files.WatchOptions{
					Sudo: !opts.NoSudo,
					OnChange: func(ctx context.Context) error {
						_, err := s.Exec.RunShell(ctx, notify, hostkit.SudoIf(!opts.NoSudo))

						return err
					},
				}, func(ctx context.Context) error {
					_, err := files.Put(ctx, s, files.Path(args[0]), args[1], opts)

					return err
				})
				if err != nil {
					return err
				}

				report(cmd, notified, args[1])

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.User, "owner", "", "Owner to chown to")
	cmd.Flags().StringVar(&opts.Group, "group", "", "Group to chgrp to")
	cmd.Flags().StringVar(&mode, "mode", "", "Octal file mode")
	cmd.Flags().BoolVar(&opts.NoSudo, "no-sudo", false, "Upload as the login user instead of moving into place with sudo")
	cmd.Flags().BoolVar(&noCheck, "no-check", false, "Copy without comparing content")
	cmd.Flags().StringVar(&notify, "notify", "", "Shell command to run when the file changed, e.g. 'systemctl reload nginx'")

	return cmd
}

func newMkdirCmd(g *globalOptions) *cobra.Command {
	var (
		opts files.MkdirOptions
		mode string
	)

	cmd := &cobra.Command{
		Use:   "mkdir DIR...",
		Short: "Create missing directories and set their ownership",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseMode(mode)
			if err != nil {
				return err
			}

			opts.Mode = m

			return g.forEachHost(cmd, func(ctx context.Context, s *hostkit.Session) error {
				changed, err := files.Mkdir(ctx, s, opts, args...)
				if err != nil {
					return err
				}

				report(cmd, changed, strings.Join(args, " "))

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.User, "owner", "", "Owner to chown to")
	cmd.Flags().StringVar(&opts.Group, "group", "", "Group to chgrp to")
	cmd.Flags().StringVar(&mode, "mode", "", "Octal directory mode")
	cmd.Flags().BoolVar(&opts.NoSudo, "no-sudo", false, "Create as the login user")

	return cmd
}

func newSyncCmd(g *globalOptions) *cobra.Command {
	var opts files.SyncOptions

	cmd := &cobra.Command{
		Use:   "sync LOCAL_DIR REMOTE_DIR",
		Short: "Mirror a local directory to the hosts with rsync",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.local {
				return fmt.Errorf("sync needs remote hosts, not --local")
			}

			return g.forEachHost(cmd, func(ctx context.Context, s *hostkit.Session) error {
				if err := files.Sync(ctx, s, args[0], args[1], opts); err != nil {
					return err
				}

				report(cmd, true, args[1])

				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "Additional rsync exclude patterns")

	return cmd
}

func parseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil //nolint:nilnil // no variables
	}

	env := make(map[string]string, len(pairs))

	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid env %q: want KEY=VALUE", p)
		}

		env[k] = v
	}

	return env, nil
}

func newCronCmd(g *globalOptions) *cobra.Command {
	var (
		job cronFlags
		env []string
	)

	cmd := &cobra.Command{
		Use:   "cron NAME",
		Short: "Write or remove an /etc/cron.d entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := parseEnv(env)
			if err != nil {
				return err
			}

			cj := files.CronJob{
				Name:     args[0],
				Schedule: job.schedule,
				User:     job.user,
				Command:  job.command,
				Env:      vars,
				Disabled: job.disable,
			}

			if err := cj.Validate(); err != nil {
				return err
			}

			return g.forEachHost(cmd, func(ctx context.Context, s *hostkit.Session) error {
				changed, err := files.Cron(ctx, s, cj)
				if err != nil {
					return err
				}

				report(cmd, changed, cj.Path())

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&job.schedule, "schedule", "", "Cron schedule, e.g. '*/5 * * * *'")
	cmd.Flags().StringVar(&job.user, "run-as", "root", "User the job runs as")
	cmd.Flags().StringVar(&job.command, "command", "", "Command to run")
	cmd.Flags().StringSliceVar(&env, "env", nil, "KEY=VALUE lines placed before the entry")
	cmd.Flags().BoolVar(&job.disable, "disable", false, "Remove the entry")

	return cmd
}

type cronFlags struct {
	schedule string
	user     string
	command  string
	disable  bool
}

func newAptCmd(g *globalOptions) *cobra.Command {
	aptCmd := &cobra.Command{
		Use:   "apt",
		Short: "Debian package helpers",
	}

	var ensureOpts apt.EnsureOptions

	ensure := &cobra.Command{
		Use:   "ensure PACKAGE...",
		Short: "Install packages that are missing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.forEachHost(cmd, func(ctx context.Context, s *hostkit.Session) error {
				installed, err := apt.Ensure(ctx, s, ensureOpts, args...)
				if err != nil {
					return err
				}

				report(cmd, installed, strings.Join(args, " "))

				return nil
			})
		},
	}
	ensure.Flags().BoolVar(&ensureOpts.Update, "update", false, "Upgrade the packages when already installed")

	var (
		maxAge  time.Duration
		upgrade bool
	)

	update := &cobra.Command{
		Use:   "update",
		Short: "Refresh the package index when it is stale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.forEachHost(cmd, func(ctx context.Context, s *hostkit.Session) error {
				refreshed, err := apt.UpdateIndex(ctx, s, apt.UpdateOptions{MaxAge: maxAge, Upgrade: upgrade})
				if err != nil {
					return err
				}

				report(cmd, refreshed, "package index")

				return nil
			})
		},
	}
	update.Flags().DurationVar(&maxAge, "max-age", 0, "Maximum index age (default 336h, 72h with --full)")
	update.Flags().BoolVar(&upgrade, "upgrade", false, "Upgrade all packages after refreshing")

	deb := &cobra.Command{
		Use:   "deb PACKAGE URL",
		Short: "Install a package from a .deb URL unless already installed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.forEachHost(cmd, func(ctx context.Context, s *hostkit.Session) error {
				installed, err := apt.InstallDeb(ctx, s, args[0], args[1])
				if err != nil {
					return err
				}

				report(cmd, installed, args[0])

				return nil
			})
		},
	}

	aptCmd.AddCommand(ensure, update, deb)

	return aptCmd
}

func parseMonitors(args []string) ([]splunk.Monitor, error) {
	monitors := make([]splunk.Monitor, 0, len(args))

	for _, a := range args {
		i := strings.LastIndex(a, ":")
		if i <= 0 || i == len(a)-1 {
			return nil, fmt.Errorf("invalid monitor %q: want PATH:SOURCETYPE", a)
		}

		monitors = append(monitors, splunk.Monitor{Path: a[:i], SourceType: a[i+1:]})
	}

	return monitors, nil
}

func newSplunkCmd(g *globalOptions) *cobra.Command {
	splunkCmd := &cobra.Command{
		Use:   "splunk",
		Short: "Splunk forwarder helpers",
	}

	fwd := &splunk.Forwarder{}

	monitor := &cobra.Command{
		Use:   "monitor PATH:SOURCETYPE...",
		Short: "Register files with the forwarder unless already monitored",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			monitors, err := parseMonitors(args)
			if err != nil {
				return err
			}

			if fwd.Password == "" {
				fwd.Password = os.Getenv("SPLUNK_PASSWORD")
			}

			return g.forEachHost(cmd, func(ctx context.Context, s *hostkit.Session) error {
				added, err := fwd.Monitor(ctx, s, monitors...)
				if err != nil {
					return err
				}

				report(cmd, added > 0, fmt.Sprintf("%d monitor(s) added", added))

				return nil
			})
		},
	}

	monitor.Flags().StringVar(&fwd.Home, "home", splunk.DefaultHome, "Forwarder install directory")
	monitor.Flags().StringVar(&fwd.User, "auth-user", splunk.DefaultUser, "Forwarder admin user")
	monitor.Flags().StringVar(&fwd.Password, "auth-password", "", "Forwarder admin password (default $SPLUNK_PASSWORD or changeme)")

	splunkCmd.AddCommand(monitor)

	return splunkCmd
}

func newVersionCmd(g *globalOptions) *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Git tag based semantic versions (runs locally)",
	}

	var (
		dir    string
		abbrev int
	)

	describe := &cobra.Command{
		Use:   "describe [REF]",
		Short: "Print the describe version of a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := g.localSession()
			if err != nil {
				return err
			}
			defer done()

			v, err := version.Describe(cmd.Context(), s, dir, firstArg(args), version.WithAbbrev(abbrev))
			if err != nil {
				return err
			}

			cmd.Println(v)

			return nil
		},
	}
	describe.Flags().StringVar(&dir, "dir", ".", "Repository directory")
	describe.Flags().IntVar(&abbrev, "abbrev", version.DefaultAbbrev, "Abbreviated hash length")

	var (
		level   string
		special string
	)

	tag := &cobra.Command{
		Use:   "tag REPO",
		Short: "Bump the latest tag and create a signed tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := version.ParseLevel(level)
			if err != nil {
				return err
			}

			s, done, err := g.localSession()
			if err != nil {
				return err
			}
			defer done()

			created, err := version.Tag(cmd.Context(), s, args[0], l, special)
			if err != nil {
				return err
			}

			cmd.Println(okStyle.Render("tagged " + created))

			return nil
		},
	}
	tag.Flags().StringVar(&level, "level", "patch", "Component to bump: major, minor or patch")
	tag.Flags().StringVar(&special, "special", "", "Pre-release suffix such as rc1")

	write := &cobra.Command{
		Use:   "write PATH [REF]",
		Short: "Write the describe version of PATH's repository to PATH",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := g.localSession()
			if err != nil {
				return err
			}
			defer done()

			v, err := version.WriteFile(cmd.Context(), s, args[0], firstArg(args[1:]))
			if err != nil {
				return err
			}

			cmd.Println(v)

			return nil
		},
	}

	versionCmd.AddCommand(describe, tag, write)

	return versionCmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}

	return args[0]
}
