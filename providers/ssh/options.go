package ssh

import "github.com/ruffel/hostkit"

// Option defines a functional option for the SSH provider.
type Option func(*Config)

// WithConfig returns an Option that sets multiple fields from a Config struct.
// Useful when the config was resolved from ssh_config.
func WithConfig(c Config) Option {
	return func(cfg *Config) {
		*cfg = c
	}
}

// WithHost sets the target hostname.
func WithHost(host string) Option {
	return func(c *Config) {
		c.Host = host
	}
}

// WithUser sets the SSH user.
func WithUser(user string) Option {
	return func(c *Config) {
		c.User = user
	}
}

// WithPort sets the SSH port.
func WithPort(port int) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithPassword sets the SSH password.
func WithPassword(password string) Option {
	return func(c *Config) {
		c.Password = password
	}
}

// WithKeyPath sets the path to the private key file.
func WithKeyPath(path string) Option {
	return func(c *Config) {
		c.PrivateKeyPath = path
	}
}

// WithInsecureSkipVerify enables/disables strict host key checking.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Config) {
		c.InsecureSkipVerify = skip
	}
}

// WithAgent enables authentication through the SSH agent at SSH_AUTH_SOCK.
func WithAgent(use bool) Option {
	return func(c *Config) {
		c.UseAgent = use
	}
}

// WithTarget applies the user, host, port and key of a hostkit.Target.
// Zero-valued fields leave the current configuration untouched.
func WithTarget(t hostkit.Target) Option {
	return func(c *Config) {
		if t.Host != "" {
			c.Host = t.Host
		}

		if t.User != "" {
			c.User = t.User
		}

		if t.Port != 0 {
			c.Port = t.Port
		}

		if t.KeyPath != "" {
			c.PrivateKeyPath = t.KeyPath
		}
	}
}
