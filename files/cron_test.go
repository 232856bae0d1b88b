package files

import (
	"context"
	"os"
	"testing"

	"github.com/ruffel/hostkit/providers/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJob_Render(t *testing.T) {
	t.Parallel()

	job := CronJob{
		Name:     "backup",
		Schedule: "0 3 * * *",
		User:     "root",
		Command:  "/usr/local/bin/backup",
		Env:      map[string]string{"PATH": "/usr/bin:/bin", "MAILTO": "ops@example.com"},
	}

	assert.Equal(t, "MAILTO=ops@example.com\nPATH=/usr/bin:/bin\n0 3 * * *\troot\t/usr/local/bin/backup\n", job.Render())
	assert.Equal(t, "/etc/cron.d/backup", job.Path())

	job.Env = nil
	assert.Equal(t, "0 3 * * *\troot\t/usr/local/bin/backup\n", job.Render())
}

func TestCronJob_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		job     CronJob
		wantErr bool
	}{
		{"valid", CronJob{Name: "backup", Schedule: "@daily", User: "root", Command: "true"}, false},
		{"disabled needs only name", CronJob{Name: "backup", Disabled: true}, false},
		{"empty name", CronJob{Schedule: "@daily", User: "root", Command: "true"}, true},
		{"slash", CronJob{Name: "../passwd", Disabled: true}, true},
		{"dot", CronJob{Name: "backup.sh", Schedule: "@daily", User: "root", Command: "true"}, true},
		{"missing user", CronJob{Name: "backup", Schedule: "@daily", Command: "true"}, true},
		{"newline", CronJob{Name: "backup", Schedule: "@daily", User: "root", Command: "true\n* * * * * root evil"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.job.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCronJob)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCron_Write(t *testing.T) {
	t.Parallel()

	env := mock.New()
	env.OnMissingDownload("/etc/cron.d/backup", os.ErrNotExist)
	up := expectSudoPut(env, "/tmp/tmp.C1", "/etc/cron.d/backup")
	env.OnSudo("chmod 644 /etc/cron.d/backup").Once()
	env.OnSudo("chown root:root /etc/cron.d/backup").Once()

	changed, err := Cron(context.Background(), newSession(env), CronJob{
		Name:     "backup",
		Schedule: "0 3 * * *",
		User:     "root",
		Command:  "/usr/local/bin/backup",
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "0 3 * * *\troot\t/usr/local/bin/backup\n", string(up.Data()))

	env.AssertExpectations(t)
}

func TestCron_Unchanged(t *testing.T) {
	t.Parallel()

	env := mock.New()
	env.OnDownload("/etc/cron.d/backup", "@daily\troot\t/usr/local/bin/backup\n")

	changed, err := Cron(context.Background(), newSession(env), CronJob{
		Name:     "backup",
		Schedule: "@daily",
		User:     "root",
		Command:  "/usr/local/bin/backup",
	})
	require.NoError(t, err)
	assert.False(t, changed)

	env.AssertNumberOfCalls(t, "Run", 0)
}

func TestCron_Disabled(t *testing.T) {
	t.Parallel()

	env := mock.New()
	env.OnSudo("rm -f /etc/cron.d/backup").Once()

	changed, err := Cron(context.Background(), newSession(env), CronJob{Name: "backup", Disabled: true})
	require.NoError(t, err)
	assert.True(t, changed)

	env.AssertExpectations(t)
}
