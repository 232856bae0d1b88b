package local_test

import (
	"context"
	"testing"
	"time"

	"github.com/ruffel/hostkit"
	"github.com/ruffel/hostkit/providers/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunShell(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := local.RunShell(ctx, "echo hello world")
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "hello world", res.Output())
}

func TestRunCommand_NonZero(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := local.RunCommand(ctx, hostkit.NewCommand("sh", "-c", "echo foo >&2; exit 1"))
	require.Error(t, err)

	var exitErr *hostkit.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode)
	assert.Equal(t, "foo\n", string(exitErr.Stderr))
	assert.Equal(t, "foo\n", string(res.Stderr))
}
