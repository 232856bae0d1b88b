package local

import (
	"context"

	"github.com/ruffel/hostkit"
)

// RunCommand executes a fully configured command locally using a new environment.
func RunCommand(ctx context.Context, cmd *hostkit.Command, opts ...hostkit.ExecOption) (*hostkit.BufferedResult, error) {
	env, err := New()
	if err != nil {
		return nil, err
	}

	defer func() { _ = env.Close() }()

	exec := hostkit.NewExecutor(env)

	return exec.RunBuffered(ctx, cmd, opts...)
}

// RunShell executes a shell command string locally using a new environment.
func RunShell(ctx context.Context, script string, opts ...hostkit.ExecOption) (*hostkit.BufferedResult, error) {
	env, err := New()
	if err != nil {
		return nil, err
	}

	defer func() { _ = env.Close() }()

	exec := hostkit.NewExecutor(env)

	return exec.RunShell(ctx, script, opts...)
}
