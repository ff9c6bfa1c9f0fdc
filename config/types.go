package config

import "github.com/StorkBison/escrow-sell-SC/native/system"

// Escrow selects the program deployment the node hosts.
type Escrow struct {
	ProgramID         string `toml:"ProgramID"`
	AuthoritySeed     string `toml:"AuthoritySeed"`
	MetadataProgramID string `toml:"MetadataProgramID"`
}

// Fees is the escrow fee schedule. Rates are basis points.
type Fees struct {
	Recipient   string `toml:"Recipient"`
	ListingFee  uint64 `toml:"ListingFee"`
	SalesTaxBps uint32 `toml:"SalesTaxBps"`
}

// Rent is the retention policy applied to new accounts.
type Rent = system.Rent

// RPC controls the JSON-RPC listener.
type RPC struct {
	JWTSecret       string  `toml:"JWTSecret"`
	RateLimit       float64 `toml:"RateLimit"`
	Burst           int     `toml:"Burst"`
	ReadTimeoutSecs int     `toml:"ReadTimeoutSecs"`
	MaxBodyBytes    int64   `toml:"MaxBodyBytes"`
}

// Telemetry configures OTLP export. An empty endpoint disables export.
type Telemetry struct {
	Endpoint    string            `toml:"Endpoint"`
	Insecure    bool              `toml:"Insecure"`
	Traces      bool              `toml:"Traces"`
	Metrics     bool              `toml:"Metrics"`
	SampleRatio float64           `toml:"SampleRatio"`
	Headers     map[string]string `toml:"Headers"`
}

// Logging configures the process logger.
type Logging struct {
	Env   string `toml:"Env"`
	Level string `toml:"Level"`
	File  string `toml:"File"`
}
