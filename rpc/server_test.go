package rpc

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/StorkBison/escrow-sell-SC/core"
	"github.com/StorkBison/escrow-sell-SC/core/events"
	"github.com/StorkBison/escrow-sell-SC/core/types"
	"github.com/StorkBison/escrow-sell-SC/indexer"
	"github.com/StorkBison/escrow-sell-SC/native/escrow"
	"github.com/StorkBison/escrow-sell-SC/native/fees"
	"github.com/StorkBison/escrow-sell-SC/native/system"
	"github.com/StorkBison/escrow-sell-SC/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	node   *core.Node
	index  *indexer.Indexer
	hub    *Hub
	server *httptest.Server
	client *Client
	payer  solana.PrivateKey
}

func newTestEnv(t *testing.T, cfg ServerConfig) *testEnv {
	t.Helper()
	payer := solana.NewWallet().PrivateKey
	opts := core.DefaultOptions()
	opts.Genesis = []core.GenesisAccount{{Address: payer.PublicKey(), Lamports: 10_000_000_000}}
	node, err := core.NewNode(storage.NewMemDB(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = node.Close() })

	index, err := indexer.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	hub := NewHub(nil)
	node.SetEmitter(events.Multi{index, hub})

	srv := NewServer(node, index, hub, cfg, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{
		node:   node,
		index:  index,
		hub:    hub,
		server: ts,
		client: NewClient(ts.URL),
		payer:  payer,
	}
}

func (e *testEnv) transfer(t *testing.T, nonce uint64, to solana.PublicKey, lamports uint64) *types.Transaction {
	t.Helper()
	tx := types.NewTransaction(nonce, system.NewTransferInstruction(e.payer.PublicKey(), to, lamports))
	require.NoError(t, tx.Sign(e.payer))
	return tx
}

func postRaw(t *testing.T, url, body string) (int, RPCResponse) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded RPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestSendTransactionAndQuery(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	ctx := context.Background()
	dest := solana.NewWallet().PublicKey()

	tx := env.transfer(t, 1, dest, 1_500)
	receipt, err := env.client.SendTransaction(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, types.TxStatusSuccess, receipt.Status)
	require.Equal(t, tx.ID(), receipt.ID)
	require.Equal(t, uint64(1), receipt.Slot)

	acc, err := env.client.Account(ctx, dest)
	require.NoError(t, err)
	require.Equal(t, uint64(1_500), acc.Lamports)
	require.Equal(t, solana.SystemProgramID.String(), acc.Owner)

	stored, err := env.client.Transaction(ctx, tx.ID())
	require.NoError(t, err)
	require.Equal(t, receipt.Status, stored.Status)

	head, err := env.client.Slot(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), head.Slot)
	require.Equal(t, env.node.Root().Hex(), head.Root)

	_, err = env.client.SendTransaction(ctx, tx)
	require.True(t, IsCode(err, CodeDuplicateTx), "got %v", err)
}

func TestSendTransactionReturnsFailedReceipt(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	ctx := context.Background()

	receipt, err := env.client.SendTransaction(ctx, env.transfer(t, 1, solana.NewWallet().PublicKey(), 20_000_000_000))
	require.NoError(t, err)
	require.Equal(t, types.TxStatusFailed, receipt.Status)
	require.Equal(t, "InsufficientFunds", receipt.Error.Code)
}

func TestSendTransactionRejectsTampering(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	tx := env.transfer(t, 1, solana.NewWallet().PublicKey(), 10)
	tx.Message.Nonce = 2

	_, err := env.client.SendTransaction(context.Background(), tx)
	require.True(t, IsCode(err, codeTxRejected), "got %v", err)
	require.Equal(t, uint64(0), env.node.Slot())
}

func TestGetAccountNotFound(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	_, err := env.client.Account(context.Background(), solana.NewWallet().PublicKey())
	require.True(t, IsCode(err, CodeNotFound), "got %v", err)

	_, err = env.client.Escrow(context.Background(), env.payer.PublicKey())
	require.True(t, IsCode(err, codeInvalidParams), "got %v", err)
}

func TestAccountProofVerifies(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	ctx := context.Background()
	dest := solana.NewWallet().PublicKey()
	_, err := env.client.SendTransaction(ctx, env.transfer(t, 1, dest, 2_000))
	require.NoError(t, err)

	proof, err := env.client.AccountProof(ctx, dest)
	require.NoError(t, err)
	require.Equal(t, uint64(1), proof.Slot)
	require.Equal(t, env.node.Root(), proof.Root)
	acc, err := proof.Verify()
	require.NoError(t, err)
	require.Equal(t, uint64(2_000), acc.Lamports)

	proof, err = env.client.AccountProof(ctx, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	acc, err = proof.Verify()
	require.NoError(t, err)
	require.Nil(t, acc)

	// Tampering with the claimed root breaks verification.
	proof, err = env.client.AccountProof(ctx, dest)
	require.NoError(t, err)
	proof.Root[0] ^= 0xff
	_, err = proof.Verify()
	require.Error(t, err)
}

func TestMalformedRequests(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})

	status, resp := postRaw(t, env.server.URL, `{"jsonrpc":"2.0","id":1,`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeParseError, resp.Error.Code)

	status, resp = postRaw(t, env.server.URL, `{"jsonrpc":"1.0","id":1,"method":"getSlot"}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)

	status, resp = postRaw(t, env.server.URL, `{"jsonrpc":"2.0","id":1,"method":"mintLamports"}`)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)

	status, resp = postRaw(t, env.server.URL, `{"jsonrpc":"2.0","id":7,"method":"sendTransaction","params":[{"transaction":"!!"}]}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
	require.EqualValues(t, 7, resp.ID)

	status, resp = postRaw(t, env.server.URL, `{"jsonrpc":"2.0","id":1,"method":"getAccount","params":[{"address":"nope"}]}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestSendTransactionRequiresToken(t *testing.T) {
	env := newTestEnv(t, ServerConfig{JWTSecret: testSecret})
	ctx := context.Background()

	_, err := env.client.SendTransaction(ctx, env.transfer(t, 1, solana.NewWallet().PublicKey(), 10))
	require.True(t, IsCode(err, codeUnauthorized), "got %v", err)

	forged, err := IssueToken("another-secret-entirely", "ops", time.Minute)
	require.NoError(t, err)
	_, err = env.client.WithToken(forged).SendTransaction(ctx, env.transfer(t, 2, solana.NewWallet().PublicKey(), 10))
	require.True(t, IsCode(err, codeUnauthorized), "got %v", err)

	token, err := IssueToken(testSecret, "ops", time.Minute)
	require.NoError(t, err)
	receipt, err := env.client.WithToken(token).SendTransaction(ctx, env.transfer(t, 3, solana.NewWallet().PublicKey(), 10))
	require.NoError(t, err)
	require.Equal(t, types.TxStatusSuccess, receipt.Status)

	// Reads stay open.
	_, err = NewClient(env.server.URL).Slot(ctx)
	require.NoError(t, err)
}

func TestRateLimitedClient(t *testing.T) {
	env := newTestEnv(t, ServerConfig{RateLimit: 0.001, Burst: 1})
	ctx := context.Background()

	_, err := env.client.Slot(ctx)
	require.NoError(t, err)
	_, err = env.client.Slot(ctx)
	require.True(t, IsCode(err, CodeRateLimited), "got %v", err)
}

func TestFeeSchedule(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	schedule, err := env.client.FeeSchedule(context.Background())
	require.NoError(t, err)

	expected := fees.DefaultSchedule()
	require.Equal(t, expected.Recipient.String(), schedule.Recipient)
	require.Equal(t, expected.ListingFee, schedule.ListingFee)
	require.Equal(t, expected.SalesTaxBps, schedule.SalesTaxBps)
	require.Equal(t, escrow.DefaultProgramID.String(), schedule.ProgramID)
	authority, err := env.node.EscrowAuthority()
	require.NoError(t, err)
	require.Equal(t, authority.String(), schedule.Authority)

	mint := solana.NewWallet().PublicKey()
	addr, err := env.client.MetadataAddress(context.Background(), mint)
	require.NoError(t, err)
	expectedAddr, err := env.node.MetadataAddress(mint)
	require.NoError(t, err)
	require.Equal(t, expectedAddr, addr)

	minimum, err := env.client.MinimumBalance(context.Background(), escrow.RecordLen)
	require.NoError(t, err)
	require.Equal(t, system.DefaultRent().MinimumBalance(escrow.RecordLen), minimum)
}

func TestListEscrowsFromIndex(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	ctx := context.Background()
	record := &escrow.Record{
		Initialized:    true,
		Initializer:    solana.NewWallet().PublicKey(),
		Mint:           solana.NewWallet().PublicKey(),
		HeldAccount:    solana.NewWallet().PublicKey(),
		ExpectedAmount: 1_000,
	}
	addr := solana.NewWallet().PublicKey()
	evt := escrow.NewInitializedEvent(addr, record, fees.DefaultListingFee)
	env.index.Emit(events.Committed{TxID: "init", Slot: 3, Event: *evt})

	rows, err := env.client.ListEscrows(ctx, indexer.Filter{Status: indexer.StatusOpen})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, addr.String(), rows[0].Address)
	require.Equal(t, uint64(1_000), rows[0].Price)

	rows, err = env.client.ListEscrows(ctx, indexer.Filter{Status: indexer.StatusSettled})
	require.NoError(t, err)
	require.Empty(t, rows)

	row, err := env.client.Listing(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, record.Mint.String(), row.Mint)

	_, err = env.client.ListEscrows(ctx, indexer.Filter{Status: "pending"})
	require.True(t, IsCode(err, codeInvalidParams), "got %v", err)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})

	resp, err := http.Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = uuid.Parse(resp.Header.Get(requestIDHeader))
	require.NoError(t, err)

	_, err = env.client.Slot(context.Background())
	require.NoError(t, err)
	resp, err = http.Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServeAndShutdown(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	srv := NewServer(env.node, nil, nil, ServerConfig{}, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	client := NewClient("http://" + ln.Addr().String())
	require.Eventually(t, func() bool {
		_, err := client.Slot(context.Background())
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	_, err = client.ListEscrows(context.Background(), indexer.Filter{})
	require.True(t, IsCode(err, codeServerError), "got %v", err)

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, <-serveErr)
}

func TestShutdownBeforeServe(t *testing.T) {
	srv := NewServer(nil, nil, nil, ServerConfig{}, nil)
	require.NoError(t, srv.Shutdown(context.Background()))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, srv.Serve(ln))
}
