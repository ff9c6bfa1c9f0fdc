package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/StorkBison/escrow-sell-SC/native/escrow"
	"github.com/StorkBison/escrow-sell-SC/native/fees"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, defaultRPCAddress, cfg.RPCAddress)

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Fees, again.Fees)
	require.Equal(t, cfg.Escrow, again.Escrow)
	require.Equal(t, cfg.Rent, again.Rent)

	schedule, err := again.FeeSchedule()
	require.NoError(t, err)
	require.Equal(t, fees.DefaultSchedule(), schedule)
	programID, err := again.EscrowProgramID()
	require.NoError(t, err)
	require.Equal(t, escrow.DefaultProgramID, programID)
}

func TestLoadParsesSections(t *testing.T) {
	dir := t.TempDir()
	recipient := solana.NewWallet().PublicKey()
	path := writeFile(t, dir, "config.toml", `RPCAddress = "0.0.0.0:9000"
DataDir = "/var/lib/escrow"
GenesisFile = "genesis.yaml"
IndexDriver = "sqlite"
IndexDSN = "file:index.db"

[Escrow]
ProgramID = "`+solana.NewWallet().PublicKey().String()+`"
AuthoritySeed = "vault"
MetadataProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

[Fees]
Recipient = "`+recipient.String()+`"
ListingFee = 5
SalesTaxBps = 300

[Rent]
LamportsPerByteYear = 10
ExemptionYears = 1

[RPC]
JWTSecret = "0123456789abcdef0123"
RateLimit = 2.5
Burst = 5

[Telemetry]
Endpoint = "collector:4318"
Traces = true

[Logging]
Env = "prod"
File = "/var/log/escrowd.log"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.RPCAddress)
	require.Equal(t, filepath.Join(dir, "genesis.yaml"), cfg.GenesisFile)
	require.Equal(t, "vault", cfg.Escrow.AuthoritySeed)
	require.Equal(t, uint64(10), cfg.Rent.LamportsPerByteYear)
	require.Equal(t, 2.5, cfg.RPC.RateLimit)
	require.True(t, cfg.Telemetry.Traces)
	require.Equal(t, "prod", cfg.Logging.Env)
	require.Equal(t, defaultMaxBodyBytes, int(cfg.RPC.MaxBodyBytes))

	schedule, err := cfg.FeeSchedule()
	require.NoError(t, err)
	require.Equal(t, fees.Schedule{Recipient: recipient, ListingFee: 5, SalesTaxBps: 300}, schedule)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", `DataDir = "./data"
ListenAddress = ":6001"
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "ListenAddress")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"sales tax above 100%", func(c *Config) { c.Fees.SalesTaxBps = 10_001 }, "basis points"},
		{"bad recipient", func(c *Config) { c.Fees.Recipient = "not-a-key" }, "Recipient"},
		{"bad program id", func(c *Config) { c.Escrow.ProgramID = "xyz" }, "Escrow.ProgramID"},
		{"shared program ids", func(c *Config) { c.Escrow.ProgramID = c.Escrow.MetadataProgramID }, "share address"},
		{"empty seed", func(c *Config) { c.Escrow.AuthoritySeed = "" }, "AuthoritySeed"},
		{"zero rent", func(c *Config) { c.Rent.ExemptionYears = 0 }, "rent"},
		{"unknown driver", func(c *Config) { c.IndexDriver = "mysql" }, "IndexDriver"},
		{"postgres without dsn", func(c *Config) { c.IndexDriver = "postgres" }, "IndexDSN"},
		{"burst missing", func(c *Config) { c.RPC.Burst = 0 }, "Burst"},
		{"short secret", func(c *Config) { c.RPC.JWTSecret = "short" }, "JWTSecret"},
		{"unknown env", func(c *Config) { c.Logging.Env = "staging" }, "Env"},
	}
	require.NoError(t, Default().Validate())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.ErrorContains(t, cfg.Validate(), tc.errMsg)
		})
	}
}

func TestLoadGenesis(t *testing.T) {
	dir := t.TempDir()
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()
	path := writeFile(t, dir, "genesis.yaml", "accounts:\n  - address: "+a.String()+"\n    lamports: 500\n  - address: "+b.String()+"\n    lamports: 7\n")

	g, err := LoadGenesis(path)
	require.NoError(t, err)
	alloc, err := g.Allocations()
	require.NoError(t, err)
	require.Equal(t, []Allocation{{Address: a, Lamports: 500}, {Address: b, Lamports: 7}}, alloc)

	empty, err := LoadGenesis("")
	require.NoError(t, err)
	alloc, err = empty.Allocations()
	require.NoError(t, err)
	require.Empty(t, alloc)
}

func TestGenesisRejectsDuplicates(t *testing.T) {
	a := solana.NewWallet().PublicKey().String()
	g := &Genesis{Accounts: []GenesisAccount{{Address: a, Lamports: 1}, {Address: a, Lamports: 2}}}
	_, err := g.Allocations()
	require.ErrorContains(t, err, "duplicate")

	g = &Genesis{Accounts: []GenesisAccount{{Address: a}}}
	_, err = g.Allocations()
	require.ErrorContains(t, err, "zero balance")
}
