package version

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ruffel/hostkit"
	"github.com/ruffel/hostkit/files"
)

// DefaultAbbrev is the commit hash length Describe asks git for.
const DefaultAbbrev = 5

func git(ctx context.Context, s *hostkit.Session, dir string, args ...string) (string, error) {
	cmd := hostkit.Cmd("git").Args(args...).Dir(dir).Build()

	res, err := s.Exec.RunBuffered(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("git %s in %s: %w", strings.Join(args, " "), dir, err)
	}

	return res.Output(), nil
}

// Current returns the most recent tag reachable in repo.
func Current(ctx context.Context, s *hostkit.Session, repo string) (Version, error) {
	tag, err := git(ctx, s, repo, "describe", "--abbrev=0", "--tags")
	if err != nil {
		return Version{}, err
	}

	return Parse(tag)
}

// Tag bumps the latest tag of repo by level, appends special and creates
// the new signed tag, replacing an existing tag of the same name. It returns
// the tag created.
func Tag(ctx context.Context, s *hostkit.Session, repo string, level Level, special string) (string, error) {
	if err := ValidateSpecial(special); err != nil {
		return "", err
	}

	current, err := Current(ctx, s, repo)
	if err != nil {
		return "", err
	}

	next, err := Bump(current, level)
	if err != nil {
		return "", err
	}

	next.Special = special
	tag := next.Tag()

	if _, err := git(ctx, s, repo, "tag", "-s", "--force", tag); err != nil {
		return "", err
	}

	s.Log().Info("tagged release", "repo", repo, "from", current.Tag(), "tag", tag)

	return tag, nil
}

type describeConfig struct {
	abbrev int
}

// DescribeOption configures Describe.
type DescribeOption func(*describeConfig)

// WithAbbrev sets the abbreviated commit hash length.
func WithAbbrev(n int) DescribeOption {
	return func(c *describeConfig) {
		c.abbrev = n
	}
}

// Describe runs "git describe --tags" for ref (HEAD when empty) in dir and
// returns the result rewritten by RewriteDescribe.
func Describe(ctx context.Context, s *hostkit.Session, dir, ref string, opts ...DescribeOption) (string, error) {
	cfg := describeConfig{abbrev: DefaultAbbrev}
	for _, o := range opts {
		o(&cfg)
	}

	args := []string{"describe", "--tags", "--abbrev=" + strconv.Itoa(cfg.abbrev)}
	if ref != "" {
		args = append(args, ref)
	}

	out, err := git(ctx, s, dir, args...)
	if err != nil {
		return "", err
	}

	return RewriteDescribe(out), nil
}

// WriteFile stores the describe version of the repository containing path
// in path, followed by a newline. The file is only written in full mode, when
// it is missing or when its content differs; otherwise the stored value is
// returned.
func WriteFile(ctx context.Context, s *hostkit.Session, path, ref string) (string, error) {
	v, err := Describe(ctx, s, filepath.Dir(path), ref)
	if err != nil {
		return "", err
	}

	if !s.Full {
		stored, err := s.Exec.Output(ctx, "cat "+hostkit.Quote(path))

		switch {
		case err == nil && stored == v:
			s.Log().Debug("version file current", "path", path, "version", v)

			return stored, nil
		case err != nil && !hostkit.IsExitCode(err, 1):
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}

	if _, err := files.Put(ctx, s, files.String(v+"\n"), path, files.PutOptions{NoSudo: true, NoCheck: true}); err != nil {
		return "", err
	}

	return v, nil
}
