package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/StorkBison/escrow-sell-SC/core"
	"github.com/StorkBison/escrow-sell-SC/core/events"
	"github.com/StorkBison/escrow-sell-SC/crypto"
	"github.com/StorkBison/escrow-sell-SC/indexer"
	"github.com/StorkBison/escrow-sell-SC/rpc"
	"github.com/StorkBison/escrow-sell-SC/storage"
)

func execute(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.Bytes(), err
}

func run(t *testing.T, args ...string) map[string]interface{} {
	t.Helper()
	out, err := execute(t, args...)
	require.NoError(t, err, "escrow-cli %s", strings.Join(args, " "))
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	return decoded
}

// startNode serves a fresh node and returns it with its RPC endpoint.
func startNode(t *testing.T, funded ...solana.PublicKey) (*core.Node, string) {
	t.Helper()
	opts := core.DefaultOptions()
	for _, key := range funded {
		opts.Genesis = append(opts.Genesis, core.GenesisAccount{Address: key, Lamports: 50_000_000_000})
	}
	node, err := core.NewNode(storage.NewMemDB(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = node.Close() })

	index, err := indexer.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	node.SetEmitter(events.Multi{index})

	srv := rpc.NewServer(node, index, nil, rpc.ServerConfig{}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return node, ts.URL
}

func keygen(t *testing.T, path string) solana.PublicKey {
	t.Helper()
	out := run(t, "keygen", "--keypair", path)
	require.Equal(t, path, out["path"])
	key, err := solana.PublicKeyFromBase58(out["address"].(string))
	require.NoError(t, err)
	return key
}

func TestKeygenRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.json")
	keygen(t, path)
	_, err := execute(t, "keygen", "--keypair", path)
	require.ErrorContains(t, err, "already exists")

	t.Setenv(passphraseEnv, "correct horse")
	out := run(t, "keygen", "--keypair", path, "--encrypt", "--force")
	key, err := crypto.LoadKey(path, "correct horse")
	require.NoError(t, err)
	require.Equal(t, out["address"], key.PublicKey().String())
}

func TestListAndBuyThroughCLI(t *testing.T) {
	dir := t.TempDir()
	sellerPath := filepath.Join(dir, "seller.json")
	buyerPath := filepath.Join(dir, "buyer.json")
	seller := keygen(t, sellerPath)
	buyer := keygen(t, buyerPath)
	node, url := startNode(t, seller, buyer)
	asSeller := func(args ...string) map[string]interface{} {
		return run(t, append(args, "--rpc", url, "--keypair", sellerPath)...)
	}
	asBuyer := func(args ...string) map[string]interface{} {
		return run(t, append(args, "--rpc", url, "--keypair", buyerPath)...)
	}

	mint := asSeller("token", "create-mint")["mint"].(string)
	held := asSeller("token", "create-account", "--mint", mint)["account"].(string)
	asSeller("token", "mint-to", "--mint", mint, "--to", held, "--amount", "1")

	proven := asSeller("account", held, "--prove")
	require.Equal(t, true, proven["exists"])
	require.Equal(t, solana.TokenProgramID.String(), proven["owner"])
	asSeller("metadata", "create", "--mint", mint, "--name", "Sunrise", "--symbol", "SUN",
		"--uri", "https://example.com/sun.json", "--seller-fee-bps", "500",
		"--creator", seller.String(), "--share", "100")

	listed := asSeller("escrow", "init", "--held", held, "--mint", mint, "--price", "1000000000")
	address := listed["escrow"].(string)
	escrowKey := solana.MustPublicKeyFromBase58(address)

	record, err := node.Escrow(escrowKey)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), record.ExpectedAmount)
	require.True(t, record.Initializer.Equals(seller))

	out, err := execute(t, "escrow", "list", "--status", "open", "--rpc", url)
	require.NoError(t, err)
	var rows []indexer.EscrowRow
	require.NoError(t, json.Unmarshal(out, &rows))
	require.Len(t, rows, 1)
	require.Equal(t, address, rows[0].Address)

	dest := asBuyer("token", "create-account", "--mint", mint)["account"].(string)
	receipt := asBuyer("escrow", "exchange", "--escrow", address, "--dest", dest)
	require.Equal(t, "success", receipt["status"])

	_, err = node.Escrow(escrowKey)
	require.Error(t, err)

	shown := asBuyer("escrow", "show", address)
	require.Nil(t, shown["escrow"])
	listing := shown["listing"].(map[string]interface{})
	require.Equal(t, string(indexer.StatusSettled), listing["status"])
	require.Equal(t, buyer.String(), listing["taker"])
}

func TestCancelRequiresSeller(t *testing.T) {
	dir := t.TempDir()
	sellerPath := filepath.Join(dir, "seller.json")
	otherPath := filepath.Join(dir, "other.json")
	seller := keygen(t, sellerPath)
	other := keygen(t, otherPath)
	_, url := startNode(t, seller, other)

	asSeller := func(args ...string) map[string]interface{} {
		return run(t, append(args, "--rpc", url, "--keypair", sellerPath)...)
	}
	mint := asSeller("token", "create-mint")["mint"].(string)
	held := asSeller("token", "create-account", "--mint", mint)["account"].(string)
	asSeller("token", "mint-to", "--mint", mint, "--to", held)
	address := asSeller("escrow", "init", "--held", held, "--mint", mint, "--price", "5000")["escrow"].(string)

	back := asSeller("token", "create-account", "--mint", mint)["account"].(string)

	_, err := execute(t, "escrow", "cancel", "--escrow", address, "--dest", back, "--rpc", url, "--keypair", otherPath)
	require.ErrorContains(t, err, "belongs to")

	receipt := asSeller("escrow", "cancel", "--escrow", address, "--dest", back)
	require.Equal(t, "success", receipt["status"])

	out, err := execute(t, "escrow", "list", "--status", "cancelled", "--rpc", url)
	require.NoError(t, err)
	var rows []indexer.EscrowRow
	require.NoError(t, json.Unmarshal(out, &rows))
	require.Len(t, rows, 1)
}
