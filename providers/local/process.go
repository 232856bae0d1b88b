package local

import (
	"os/exec"
	"sync"

	"github.com/ruffel/hostkit"
)

// Process implements hostkit.Process for local command execution.
// It wraps `*exec.Cmd` to provide a uniform interface for waiting, signaling, and result retrieval.
type Process struct {
	env     *Environment
	cmd     *hostkit.Command
	execCmd *exec.Cmd

	// Result related fields
	result *hostkit.Result
	mu     sync.RWMutex
	done   chan struct{}
	closed bool
}
