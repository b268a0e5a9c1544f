package pool

import "time"

// Config defines configuration for a resource pool. It is immutable after
// construction; New copies it and fills defaults.
type Config struct {
	// Name labels the pool in logs, metrics and the admin API.
	Name string

	MaxConnections      int
	MinConnections      int
	IdleTimeout         time.Duration
	HealthCheckInterval time.Duration
	AcquireTimeout      time.Duration

	// Retry configuration for Query
	MaxRetries     int
	RetryBaseDelay time.Duration

	EnableHealthCheck bool
	EnableMetrics     bool

	// MonitorInterval controls how often the monitor samples the stats
	// snapshot when EnableMetrics is set.
	MonitorInterval time.Duration
}

// withDefaults returns a copy of the config with missing values filled in
func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 10
	}
	if c.MinConnections < 0 {
		c.MinConnections = 0
	}
	if c.MinConnections > c.MaxConnections {
		c.MinConnections = c.MaxConnections
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 30 * time.Minute
	}
	if c.HealthCheckInterval <= 0 {
		c.HealthCheckInterval = 1 * time.Minute
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 100 * time.Millisecond
	}
	if c.MonitorInterval <= 0 {
		c.MonitorInterval = 5 * time.Second
	}
	return c
}
