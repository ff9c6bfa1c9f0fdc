package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/StorkBison/escrow-sell-SC/core/types"
	"github.com/StorkBison/escrow-sell-SC/indexer"
)

const clientTimeout = 30 * time.Second

// Client calls a node's JSON-RPC endpoint.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	nextID   atomic.Int64
}

// NewClient targets endpoint, e.g. "http://127.0.0.1:8899".
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/") + "/",
		http: &http.Client{
			Timeout:   clientTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// WithToken attaches a bearer token to every call.
func (c *Client) WithToken(token string) *Client {
	c.token = strings.TrimSpace(token)
	return c
}

// Call invokes method with a single parameter object and decodes the result
// into out. JSON-RPC failures are returned as *RPCError.
func (c *Client) Call(ctx context.Context, method string, params interface{}, out interface{}) error {
	req := RPCRequest{JSONRPC: jsonRPCVersion, Method: method, ID: c.nextID.Add(1)}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return err
		}
		req.Params = []json.RawMessage{raw}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("rpc: %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, defaultMaxRequestBytes*8))
	if err != nil {
		return err
	}
	var decoded RPCResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("rpc: %s: unexpected response (%s): %w", method, resp.Status, err)
	}
	if decoded.Error != nil {
		return decoded.Error
	}
	if out == nil {
		return nil
	}
	if len(decoded.Result) == 0 {
		return errors.New("rpc: empty result")
	}
	return json.Unmarshal(decoded.Result, out)
}

// SendTransaction submits a signed transaction and returns its receipt.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	raw, err := tx.Encode()
	if err != nil {
		return nil, err
	}
	receipt := new(types.Receipt)
	params := sendTransactionParams{Transaction: base64.StdEncoding.EncodeToString(raw)}
	if err := c.Call(ctx, "sendTransaction", params, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// Account fetches a ledger account.
func (c *Client) Account(ctx context.Context, key solana.PublicKey) (*AccountResult, error) {
	out := new(AccountResult)
	if err := c.Call(ctx, "getAccount", addressParams{Address: key.String()}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// AccountProof fetches a Merkle proof of key's account. Callers check it
// with Verify.
func (c *Client) AccountProof(ctx context.Context, key solana.PublicKey) (*AccountProofResult, error) {
	out := new(AccountProofResult)
	if err := c.Call(ctx, "getAccountProof", addressParams{Address: key.String()}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Escrow fetches an open escrow record.
func (c *Client) Escrow(ctx context.Context, key solana.PublicKey) (*EscrowResult, error) {
	out := new(EscrowResult)
	if err := c.Call(ctx, "getEscrow", addressParams{Address: key.String()}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Transaction fetches the receipt of a processed transaction.
func (c *Client) Transaction(ctx context.Context, id string) (*types.Receipt, error) {
	out := new(types.Receipt)
	if err := c.Call(ctx, "getTransaction", txIDParams{ID: id}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEscrows queries the escrow index.
func (c *Client) ListEscrows(ctx context.Context, f indexer.Filter) ([]indexer.EscrowRow, error) {
	var out []indexer.EscrowRow
	params := listEscrowsParams{
		Status:      string(f.Status),
		Initializer: f.Initializer,
		Mint:        f.Mint,
		Limit:       f.Limit,
		Offset:      f.Offset,
	}
	if err := c.Call(ctx, "listEscrows", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Listing fetches the indexed history of one escrow.
func (c *Client) Listing(ctx context.Context, key solana.PublicKey) (*indexer.EscrowRow, error) {
	out := new(indexer.EscrowRow)
	if err := c.Call(ctx, "getListing", addressParams{Address: key.String()}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// MetadataAddress derives the metadata account of mint on the node.
func (c *Client) MetadataAddress(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error) {
	var out MetadataAddressResult
	if err := c.Call(ctx, "getMetadataAddress", mintParams{Mint: mint.String()}, &out); err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBase58(out.Address)
}

// FeeSchedule returns the node's escrow deployment.
func (c *Client) FeeSchedule(ctx context.Context) (*FeeScheduleResult, error) {
	out := new(FeeScheduleResult)
	if err := c.Call(ctx, "getFeeSchedule", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// MinimumBalance returns the rent-exempt balance for dataLen bytes.
func (c *Client) MinimumBalance(ctx context.Context, dataLen int) (uint64, error) {
	var out MinimumBalanceResult
	if err := c.Call(ctx, "getMinimumBalance", dataLenParams{DataLen: dataLen}, &out); err != nil {
		return 0, err
	}
	return out.Lamports, nil
}

// Slot returns the ledger head.
func (c *Client) Slot(ctx context.Context) (*SlotResult, error) {
	out := new(SlotResult)
	if err := c.Call(ctx, "getSlot", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// IsCode reports whether err is an RPC error with the given code.
func IsCode(err error, code int) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}

// Exported error codes for callers.
const (
	CodeNotFound    = codeNotFound
	CodeDuplicateTx = codeDuplicateTx
	CodeRateLimited = codeRateLimited
)
