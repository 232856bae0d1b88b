package local

import "github.com/ruffel/hostkit"

// Config holds configuration for the local environment.
type Config struct {
	targetOS hostkit.TargetOS
}

// Option defines a functional option for the local provider.
type Option func(*Config)

// WithTargetOS overrides the detected operating system.
func WithTargetOS(os hostkit.TargetOS) Option {
	return func(c *Config) {
		c.targetOS = os
	}
}
