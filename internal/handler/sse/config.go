package sse

import "time"

const defaultKeepAlive = 10 * time.Second

// Config controls revision streams
type Config struct {
	// KeepAliveInterval is the gap between comment pings while the generator
	// is still thinking; proxies drop idle streams long before a page finishes.
	KeepAliveInterval time.Duration
}

// DefaultConfig pings every 10 seconds
func DefaultConfig() *Config {
	return NewConfig(0)
}

// NewConfig falls back to the default interval when keepAlive is not positive
func NewConfig(keepAlive time.Duration) *Config {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return &Config{KeepAliveInterval: keepAlive}
}
