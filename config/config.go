package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/native/escrow"
	"github.com/StorkBison/escrow-sell-SC/native/fees"
	"github.com/StorkBison/escrow-sell-SC/native/metadata"
	"github.com/StorkBison/escrow-sell-SC/native/system"
)

const (
	defaultRPCAddress   = "127.0.0.1:8899"
	defaultDataDir      = "./escrow-data"
	defaultIndexDriver  = "sqlite"
	defaultRateLimit    = 20
	defaultBurst        = 40
	defaultReadTimeout  = 15
	defaultMaxBodyBytes = 1 << 20
)

type Config struct {
	RPCAddress  string `toml:"RPCAddress"`
	DataDir     string `toml:"DataDir"`
	GenesisFile string `toml:"GenesisFile"`
	IndexDriver string `toml:"IndexDriver"`
	IndexDSN    string `toml:"IndexDSN"`

	Escrow    Escrow    `toml:"Escrow"`
	Fees      Fees      `toml:"Fees"`
	Rent      Rent      `toml:"Rent"`
	RPC       RPC       `toml:"RPC"`
	Telemetry Telemetry `toml:"Telemetry"`
	Logging   Logging   `toml:"Logging"`
}

// Default returns the configuration written for a fresh node.
func Default() *Config {
	schedule := fees.DefaultSchedule()
	return &Config{
		RPCAddress:  defaultRPCAddress,
		DataDir:     defaultDataDir,
		IndexDriver: defaultIndexDriver,
		Escrow: Escrow{
			ProgramID:         escrow.DefaultProgramID.String(),
			AuthoritySeed:     escrow.DefaultSeed,
			MetadataProgramID: metadata.DefaultProgramID.String(),
		},
		Fees: Fees{
			Recipient:   schedule.Recipient.String(),
			ListingFee:  schedule.ListingFee,
			SalesTaxBps: uint32(schedule.SalesTaxBps),
		},
		Rent: system.DefaultRent(),
		RPC: RPC{
			RateLimit:       defaultRateLimit,
			Burst:           defaultBurst,
			ReadTimeoutSecs: defaultReadTimeout,
			MaxBodyBytes:    defaultMaxBodyBytes,
		},
		Logging: Logging{Env: "dev", Level: "info"},
	}
}

// Load loads the configuration from the given path, writing the defaults
// there first when the file does not exist.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if strings.TrimSpace(cfg.IndexDriver) == "" {
		cfg.IndexDriver = defaultIndexDriver
	}
	if cfg.GenesisFile != "" && !filepath.IsAbs(cfg.GenesisFile) {
		cfg.GenesisFile = filepath.Join(filepath.Dir(path), cfg.GenesisFile)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// FeeSchedule converts the [Fees] section.
func (c *Config) FeeSchedule() (fees.Schedule, error) {
	recipient, err := solana.PublicKeyFromBase58(c.Fees.Recipient)
	if err != nil {
		return fees.Schedule{}, fmt.Errorf("fees: invalid Recipient: %w", err)
	}
	if c.Fees.SalesTaxBps > fees.BasisPoints {
		return fees.Schedule{}, fmt.Errorf("%w: SalesTaxBps %d", fees.ErrRateOutOfRange, c.Fees.SalesTaxBps)
	}
	schedule := fees.Schedule{
		Recipient:   recipient,
		ListingFee:  c.Fees.ListingFee,
		SalesTaxBps: uint16(c.Fees.SalesTaxBps),
	}
	return schedule, schedule.Validate()
}

// EscrowProgramID parses Escrow.ProgramID.
func (c *Config) EscrowProgramID() (solana.PublicKey, error) {
	return parseKey("Escrow.ProgramID", c.Escrow.ProgramID)
}

// MetadataProgramID parses Escrow.MetadataProgramID.
func (c *Config) MetadataProgramID() (solana.PublicKey, error) {
	return parseKey("Escrow.MetadataProgramID", c.Escrow.MetadataProgramID)
}

func parseKey(field, value string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(strings.TrimSpace(value))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%s: %w", field, err)
	}
	return key, nil
}
