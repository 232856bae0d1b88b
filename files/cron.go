package files

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/ruffel/hostkit"
)

// CronDir is where Cron writes its drop-in files.
const CronDir = "/etc/cron.d"

// ErrInvalidCronJob is returned for a job that cannot be written.
var ErrInvalidCronJob = errors.New("invalid cron job")

// CronJob is a single /etc/cron.d entry.
type CronJob struct {
	Name     string // file name under CronDir
	Schedule string // e.g. "*/5 * * * *" or "@daily"
	User     string
	Command  string
	Env      map[string]string

	// Disabled removes the file instead of writing it.
	Disabled bool
}

// Validate checks the job can be rendered to a cron file.
func (j CronJob) Validate() error {
	if j.Name == "" || strings.ContainsAny(j.Name, "/.") {
		return fmt.Errorf("%w: name %q must be non-empty without '/' or '.'", ErrInvalidCronJob, j.Name)
	}

	if j.Disabled {
		return nil
	}

	if j.Schedule == "" || j.User == "" || j.Command == "" {
		return fmt.Errorf("%w: %s needs schedule, user and command", ErrInvalidCronJob, j.Name)
	}

	if strings.ContainsAny(j.Schedule+j.User+j.Command, "\n") {
		return fmt.Errorf("%w: %s contains a newline", ErrInvalidCronJob, j.Name)
	}

	return nil
}

// Path returns the file the job lives in.
func (j CronJob) Path() string {
	return path.Join(CronDir, j.Name)
}

// Render returns the file content: sorted KEY=VALUE lines followed by
// "schedule\tuser\tcommand\n".
func (j CronJob) Render() string {
	var b strings.Builder

	for _, k := range slices.Sorted(maps.Keys(j.Env)) {
		fmt.Fprintf(&b, "%s=%s\n", k, j.Env[k])
	}

	fmt.Fprintf(&b, "%s\t%s\t%s\n", j.Schedule, j.User, j.Command)

	return b.String()
}

// Cron writes the job to CronDir, mode 0644 owned by root, when its content
// changed. A disabled job's file is removed unconditionally. It reports
// whether the file was written; removal always reports true.
func Cron(ctx context.Context, s *hostkit.Session, job CronJob) (bool, error) {
	if err := job.Validate(); err != nil {
		return false, err
	}

	if job.Disabled {
		if err := remove(ctx, s, job.Path(), true); err != nil {
			return false, err
		}

		s.Log().Info("cron job removed", "name", job.Name)

		return true, nil
	}

	return Put(ctx, s, String(job.Render()), job.Path(), PutOptions{
		User:  "root",
		Group: "root",
		Mode:  0o644,
	})
}
