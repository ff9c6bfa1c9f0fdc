package config

import (
	"fmt"
	"strings"
)

var supportedIndexDrivers = map[string]bool{
	"sqlite":   true,
	"postgres": true,
}

// Validate rejects configurations the node cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir is required")
	}
	if _, err := c.FeeSchedule(); err != nil {
		return err
	}
	programID, err := c.EscrowProgramID()
	if err != nil {
		return err
	}
	metadataID, err := c.MetadataProgramID()
	if err != nil {
		return err
	}
	if programID.Equals(metadataID) {
		return fmt.Errorf("config: escrow and metadata programs share address %s", programID)
	}
	if c.Escrow.AuthoritySeed == "" || len(c.Escrow.AuthoritySeed) > 32 {
		return fmt.Errorf("config: Escrow.AuthoritySeed must be 1-32 bytes")
	}
	if c.Rent.LamportsPerByteYear == 0 || c.Rent.ExemptionYears == 0 {
		return fmt.Errorf("config: rent parameters must be positive")
	}
	if !supportedIndexDrivers[c.IndexDriver] {
		return fmt.Errorf("config: unsupported IndexDriver %q", c.IndexDriver)
	}
	if c.IndexDriver == "postgres" && strings.TrimSpace(c.IndexDSN) == "" {
		return fmt.Errorf("config: IndexDSN is required for postgres")
	}
	if c.RPC.RateLimit < 0 || c.RPC.Burst < 0 {
		return fmt.Errorf("rpc: rate limit must not be negative")
	}
	if c.RPC.RateLimit > 0 && c.RPC.Burst == 0 {
		return fmt.Errorf("rpc: Burst must be positive when RateLimit is set")
	}
	if c.RPC.JWTSecret != "" && len(c.RPC.JWTSecret) < 16 {
		return fmt.Errorf("rpc: JWTSecret must be at least 16 bytes")
	}
	switch c.Logging.Env {
	case "", "dev", "prod":
	default:
		return fmt.Errorf("logging: unknown Env %q", c.Logging.Env)
	}
	return nil
}
