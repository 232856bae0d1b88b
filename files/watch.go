package files

import (
	"context"

	"github.com/ruffel/hostkit"
)

// WatchOptions controls Watch.
type WatchOptions struct {
	// Sudo runs md5sum with sudo, for files the login user cannot read.
	Sudo bool

	// OnChange runs once when any watched file changed.
	OnChange func(ctx context.Context) error
}

// Watch checksums paths, runs body, and calls opts.OnChange once if any file
// changed. A file that does not exist has an empty checksum, so creating it
// counts as a change. It reports whether OnChange ran. When body fails its
// error is returned and nothing is compared.
func Watch(ctx context.Context, s *hostkit.Session, paths []string, opts WatchOptions, body func(ctx context.Context) error) (bool, error) {
	before := make(map[string]string, len(paths))

	for _, p := range paths {
		sum, err := checksum(ctx, s, p, opts.Sudo)
		if err != nil {
			return false, err
		}

		before[p] = sum
	}

	if err := body(ctx); err != nil {
		return false, err
	}

	for _, p := range paths {
		sum, err := checksum(ctx, s, p, opts.Sudo)
		if err != nil {
			return false, err
		}

		if sum == before[p] {
			continue
		}

		s.Log().Info("watched file changed", "path", p)

		if opts.OnChange == nil {
			return true, nil
		}

		return true, opts.OnChange(ctx)
	}

	return false, nil
}

func checksum(ctx context.Context, s *hostkit.Session, path string, sudo bool) (string, error) {
	sum, err := MD5Sum(ctx, s, path, sudo)
	if hostkit.IsExitCode(err, 1) {
		return "", nil
	}

	return sum, err
}
