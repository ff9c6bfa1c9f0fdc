package config

import (
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"
)

// GenesisAccount is one initial balance in the genesis file.
type GenesisAccount struct {
	Address  string `yaml:"address"`
	Lamports uint64 `yaml:"lamports"`
}

// Genesis lists the balances credited when a ledger is first created.
type Genesis struct {
	Accounts []GenesisAccount `yaml:"accounts"`
}

// Allocation is a parsed genesis balance.
type Allocation struct {
	Address  solana.PublicKey
	Lamports uint64
}

// LoadGenesis reads a YAML genesis file. An empty path yields an empty
// genesis.
func LoadGenesis(path string) (*Genesis, error) {
	if path == "" {
		return &Genesis{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g := new(Genesis)
	if err := yaml.Unmarshal(raw, g); err != nil {
		return nil, fmt.Errorf("genesis %s: %w", path, err)
	}
	return g, nil
}

// Allocations validates and parses the genesis balances.
func (g *Genesis) Allocations() ([]Allocation, error) {
	seen := make(map[solana.PublicKey]bool, len(g.Accounts))
	out := make([]Allocation, 0, len(g.Accounts))
	for i, acc := range g.Accounts {
		key, err := solana.PublicKeyFromBase58(acc.Address)
		if err != nil {
			return nil, fmt.Errorf("genesis account %d: %w", i, err)
		}
		if seen[key] {
			return nil, fmt.Errorf("genesis account %d: duplicate address %s", i, key)
		}
		if acc.Lamports == 0 {
			return nil, fmt.Errorf("genesis account %d: zero balance", i)
		}
		seen[key] = true
		out = append(out, Allocation{Address: key, Lamports: acc.Lamports})
	}
	return out, nil
}
