package rpc

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core"
	"github.com/StorkBison/escrow-sell-SC/core/state"
	"github.com/StorkBison/escrow-sell-SC/core/types"
	"github.com/StorkBison/escrow-sell-SC/native/escrow"
	"github.com/StorkBison/escrow-sell-SC/native/fees"
)

const jsonRPCVersion = "2.0"

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeNotFound       = -32004
	codeDuplicateTx    = -32010
	codeTxRejected     = -32011
	codeRateLimited    = -32020
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("rpc error %d: %s (%v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ProgramErrorData is attached to errors caused by a program failure.
type ProgramErrorData struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

func programErrorData(err error) interface{} {
	if pe, ok := types.AsProgramError(err); ok {
		return ProgramErrorData{Code: pe.Label(), Name: pe.Name}
	}
	return err.Error()
}

type addressParams struct {
	Address string `json:"address"`
}

type mintParams struct {
	Mint string `json:"mint"`
}

type dataLenParams struct {
	DataLen int `json:"dataLen"`
}

type txIDParams struct {
	ID string `json:"id"`
}

type sendTransactionParams struct {
	Transaction string `json:"transaction"`
}

type listEscrowsParams struct {
	Status      string `json:"status,omitempty"`
	Initializer string `json:"initializer,omitempty"`
	Mint        string `json:"mint,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Offset      int    `json:"offset,omitempty"`
}

// AccountResult is the JSON form of a ledger account.
type AccountResult struct {
	Address    string `json:"address"`
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"`
	Executable bool   `json:"executable"`
}

func accountResult(address string, acc *types.Account) AccountResult {
	return AccountResult{
		Address:    address,
		Lamports:   acc.Lamports,
		Owner:      acc.Owner.String(),
		Data:       base64.StdEncoding.EncodeToString(acc.Data),
		Executable: acc.Executable,
	}
}

// AccountProofResult proves an account, or its absence, against the state
// root of a slot.
type AccountProofResult struct {
	Address string          `json:"address"`
	Slot    uint64          `json:"slot"`
	Root    common.Hash     `json:"root"`
	Proof   []hexutil.Bytes `json:"proof"`
}

func accountProofResult(address string, p *core.AccountProof) AccountProofResult {
	out := AccountProofResult{Address: address, Slot: p.Slot, Root: p.Root}
	out.Proof = make([]hexutil.Bytes, len(p.Proof))
	for i, node := range p.Proof {
		out.Proof[i] = node
	}
	return out
}

// Verify checks the proof against Root without trusting the node. A nil
// account means the proof shows none exists.
func (r *AccountProofResult) Verify() (*types.Account, error) {
	key, err := solana.PublicKeyFromBase58(r.Address)
	if err != nil {
		return nil, err
	}
	nodes := make([][]byte, len(r.Proof))
	for i, node := range r.Proof {
		nodes[i] = node
	}
	return state.VerifyAccount(r.Root, key, nodes)
}

// EscrowResult is the decoded state of an open listing.
type EscrowResult struct {
	Address        string `json:"address"`
	Initializer    string `json:"initializer"`
	Mint           string `json:"mint"`
	HeldAccount    string `json:"heldAccount"`
	ExpectedAmount uint64 `json:"expectedAmount"`
}

func escrowResult(address string, r *escrow.Record) EscrowResult {
	return EscrowResult{
		Address:        address,
		Initializer:    r.Initializer.String(),
		Mint:           r.Mint.String(),
		HeldAccount:    r.HeldAccount.String(),
		ExpectedAmount: r.ExpectedAmount,
	}
}

// FeeScheduleResult describes the escrow deployment a node hosts.
type FeeScheduleResult struct {
	Recipient         string `json:"recipient"`
	ListingFee        uint64 `json:"listingFee"`
	SalesTaxBps       uint16 `json:"salesTaxBps"`
	ProgramID         string `json:"programId"`
	Authority         string `json:"authority"`
	MetadataProgramID string `json:"metadataProgramId"`
}

func feeScheduleResult(s fees.Schedule) FeeScheduleResult {
	return FeeScheduleResult{
		Recipient:   s.Recipient.String(),
		ListingFee:  s.ListingFee,
		SalesTaxBps: s.SalesTaxBps,
	}
}

// MinimumBalanceResult is the rent-exempt balance for an account size.
type MinimumBalanceResult struct {
	DataLen  int    `json:"dataLen"`
	Lamports uint64 `json:"lamports"`
}

// SlotResult reports the ledger head.
type SlotResult struct {
	Slot uint64 `json:"slot"`
	Root string `json:"root"`
}

// MetadataAddressResult is the metadata account derived for a mint.
type MetadataAddressResult struct {
	Mint    string `json:"mint"`
	Address string `json:"address"`
}
