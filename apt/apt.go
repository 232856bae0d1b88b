// Package apt manages Debian packages on a hostkit.Session: status queries,
// ensure-installed, throttled index refreshes, debconf preseeding and
// installing standalone .deb files.
package apt

import (
	"context"
	"fmt"
	"maps"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ruffel/hostkit"
)

const (
	// DefaultMaxAge is how stale the package index may get before UpdateIndex refreshes it.
	DefaultMaxAge = 14 * 24 * time.Hour

	// FullMaxAge replaces DefaultMaxAge in full mode.
	FullMaxAge = 3 * 24 * time.Hour

	cacheDir = "/var/cache/apt"
	debDir   = "/tmp"
)

// Status runs dpkg-query for pkgs and returns its combined output. Unknown
// packages are reported in the output rather than as an error.
func Status(ctx context.Context, s *hostkit.Session, pkgs ...string) (string, error) {
	script := hostkit.Cmd("dpkg-query").Args("-W", "-f", "${Status} ").Args(pkgs...).Script() + " ; true"

	res, err := s.Exec.RunShell(ctx, script)
	if err != nil {
		return "", fmt.Errorf("dpkg-query %s: %w", strings.Join(pkgs, " "), err)
	}

	return res.Combined(), nil
}

// missing reports whether dpkg-query output shows an absent package.
func missing(status string) bool {
	return strings.Contains(status, "No packages found") || strings.Contains(status, "not-installed")
}

// EnsureOptions controls Ensure.
type EnsureOptions struct {
	// Update upgrades the packages when they are already installed.
	Update bool
}

// Ensure installs pkgs when any of them is missing. It reports whether this
// call installed them.
func Ensure(ctx context.Context, s *hostkit.Session, opts EnsureOptions, pkgs ...string) (bool, error) {
	if len(pkgs) == 0 {
		return false, nil
	}

	status, err := Status(ctx, s, pkgs...)
	if err != nil {
		return false, err
	}

	if missing(status) {
		if err := Install(ctx, s, pkgs...); err != nil {
			return false, err
		}

		return true, nil
	}

	s.Log().Debug("packages already installed", "packages", pkgs)

	if opts.Update {
		return false, Update(ctx, s, pkgs...)
	}

	return false, nil
}

// Install runs apt-get install for pkgs.
func Install(ctx context.Context, s *hostkit.Session, pkgs ...string) error {
	if err := aptGet(ctx, s, append([]string{"install"}, pkgs...)...); err != nil {
		return err
	}

	s.Log().Info("packages installed", "packages", pkgs)

	return nil
}

// Update upgrades pkgs to their latest version. Without packages it refreshes
// the package index.
func Update(ctx context.Context, s *hostkit.Session, pkgs ...string) error {
	if len(pkgs) == 0 {
		return aptGet(ctx, s, "update")
	}

	return aptGet(ctx, s, append([]string{"install", "--only-upgrade"}, pkgs...)...)
}

// Upgrade upgrades every installed package.
func Upgrade(ctx context.Context, s *hostkit.Session) error {
	return aptGet(ctx, s, "upgrade")
}

func aptGet(ctx context.Context, s *hostkit.Session, args ...string) error {
	cmd := hostkit.Cmd("env").
		Args("DEBIAN_FRONTEND=noninteractive", "apt-get", "--yes").
		Args(args...).
		Build()
	s.Log().Debug("running apt-get", "cmd", cmd.String())

	if _, err := s.Exec.RunBuffered(ctx, cmd, hostkit.WithSudo()); err != nil {
		return fmt.Errorf("apt-get %s: %w", strings.Join(args, " "), err)
	}

	return nil
}

// UpdateOptions controls UpdateIndex.
type UpdateOptions struct {
	// MaxAge overrides DefaultMaxAge (and FullMaxAge in full mode).
	MaxAge time.Duration

	// Upgrade runs apt-get upgrade after a refresh.
	Upgrade bool

	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// UpdateIndex refreshes the package index when /var/cache/apt is older than
// the allowed age. It reports whether a refresh happened.
func UpdateIndex(ctx context.Context, s *hostkit.Session, opts UpdateOptions) (bool, error) {
	maxAge := opts.MaxAge
	if maxAge == 0 {
		maxAge = DefaultMaxAge
		if s.Full {
			maxAge = FullMaxAge
		}
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	res, err := s.Exec.RunBuffered(ctx, hostkit.NewCommand("stat", cacheDir, "-c", "%Y"))
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", cacheDir, err)
	}

	mtime, err := strconv.ParseInt(res.Output(), 10, 64)
	if err != nil {
		return false, fmt.Errorf("parse mtime of %s: %w", cacheDir, err)
	}

	age := now().Sub(time.Unix(mtime, 0))
	if age <= maxAge {
		s.Log().Debug("package index fresh", "age", age.Round(time.Second), "max_age", maxAge)

		return false, nil
	}

	if err := Update(ctx, s); err != nil {
		return false, err
	}

	s.Log().Info("package index refreshed", "age", age.Round(time.Second))

	if opts.Upgrade {
		if err := Upgrade(ctx, s); err != nil {
			return true, err
		}
	}

	return true, nil
}

// Selection is one debconf answer.
type Selection struct {
	Type  string // boolean, string, select, password...
	Value string
}

// DebconfSetSelections preseeds debconf answers for pkg, one line per key in
// key order.
func DebconfSetSelections(ctx context.Context, s *hostkit.Session, pkg string, selections map[string]Selection) error {
	if len(selections) == 0 {
		return nil
	}

	lines := make([]string, 0, len(selections))
	for _, k := range slices.Sorted(maps.Keys(selections)) {
		sel := selections[k]
		lines = append(lines, strings.Join([]string{pkg, k, sel.Type, sel.Value}, " "))
	}

	script := "debconf-set-selections <<-HEREDOC\n" + strings.Join(lines, "\n") + "\nHEREDOC"

	if _, err := s.Exec.RunShell(ctx, script, hostkit.WithSudo()); err != nil {
		return fmt.Errorf("debconf-set-selections %s: %w", pkg, err)
	}

	s.Log().Info("debconf selections set", "package", pkg, "keys", len(lines))

	return nil
}

// InstallDeb downloads and installs the .deb at url when pkg is not
// installed. It reports whether it installed the package.
func InstallDeb(ctx context.Context, s *hostkit.Session, pkg, url string) (bool, error) {
	status, err := Status(ctx, s, pkg)
	if err != nil {
		return false, err
	}

	if strings.Contains(status, "installed") && !missing(status) {
		s.Log().Debug("package already installed", "package", pkg)

		return false, nil
	}

	name := path.Base(url)
	if name == "" || name == "/" || name == "." {
		return false, fmt.Errorf("install %s: no file name in %q", pkg, url)
	}

	deb := path.Join(debDir, name)

	wget := hostkit.Cmd("wget").Args("--no-check-certificate", "-qc", "-O", deb, url).Build()
	if _, err := s.Exec.RunBuffered(ctx, wget); err != nil {
		return false, fmt.Errorf("download %s: %w", url, err)
	}

	script := "dpkg -i " + hostkit.Quote(deb) + " && rm -f " + hostkit.Quote(deb)
	if _, err := s.Exec.RunShell(ctx, script, hostkit.WithSudo()); err != nil {
		return false, fmt.Errorf("install %s: %w", deb, err)
	}

	s.Log().Info("package installed from deb", "package", pkg, "url", url)

	return true, nil
}
