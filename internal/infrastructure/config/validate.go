package config

import (
	"fmt"
	"strings"
)

// Validate checks the settings every binary depends on.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unsupported value %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format: unsupported value %q", c.Log.Format)
	}

	if c.Scoring.FinePerKO < 0 {
		return fmt.Errorf("scoring.fine_per_ko must be >= 0 (got %v)", c.Scoring.FinePerKO)
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be > 0 (got %s)", c.Client.Timeout)
	}
	if c.Client.ShortWindow <= 0 || c.Client.LongWindow < c.Client.ShortWindow {
		return fmt.Errorf("client windows: need 0 < short (%s) <= long (%s)", c.Client.ShortWindow, c.Client.LongWindow)
	}
	return nil
}

// Validate checks the settings the API server needs to issue tokens.
func (a AuthConfig) Validate() error {
	if len(a.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(a.JWTSecret))
	}
	if a.JWTTTL <= 0 {
		return fmt.Errorf("auth.jwt_ttl must be > 0 (got %s)", a.JWTTTL)
	}
	return nil
}

// Origins splits the comma separated CORS origin list.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
