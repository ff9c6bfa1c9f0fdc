package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core"
	"github.com/StorkBison/escrow-sell-SC/core/types"
	"github.com/StorkBison/escrow-sell-SC/indexer"
	"github.com/StorkBison/escrow-sell-SC/observability"
)

func decodeParams(params []json.RawMessage, out interface{}) *RPCError {
	if len(params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "expected a single parameter object"}
	}
	if err := json.Unmarshal(params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	return nil
}

func parseKeyParam(field, value string) (solana.PublicKey, *RPCError) {
	key, err := solana.PublicKeyFromBase58(strings.TrimSpace(value))
	if err != nil {
		return solana.PublicKey{}, &RPCError{Code: codeInvalidParams, Message: "invalid " + field, Data: err.Error()}
	}
	return key, nil
}

func (s *Server) handleSendTransaction(ctx context.Context, r *http.Request, params []json.RawMessage) (interface{}, *RPCError) {
	if authErr := s.auth.authorize(r); authErr != nil {
		observability.ModuleMetrics().RecordThrottle("auth")
		return nil, authErr
	}
	var p sendTransactionParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(p.Transaction))
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: "transaction must be base64", Data: err.Error()}
	}
	tx, err := types.DecodeTransaction(raw)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: "failed to decode transaction", Data: err.Error()}
	}
	receipt, err := s.node.SubmitTransaction(ctx, tx)
	switch {
	case err == nil:
		return receipt, nil
	case errors.Is(err, core.ErrDuplicateTransaction):
		return nil, &RPCError{Code: codeDuplicateTx, Message: "transaction already processed", Data: tx.ID()}
	case isRejection(err):
		return nil, &RPCError{Code: codeTxRejected, Message: err.Error()}
	default:
		return nil, &RPCError{Code: codeServerError, Message: "failed to execute transaction", Data: programErrorData(err)}
	}
}

func isRejection(err error) bool {
	for _, target := range []error{
		types.ErrNoInstructions,
		types.ErrNoSigners,
		types.ErrSignatureCount,
		types.ErrInvalidSignature,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *Server) handleGetAccount(_ context.Context, _ *http.Request, params []json.RawMessage) (interface{}, *RPCError) {
	var p addressParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	key, rpcErr := parseKeyParam("address", p.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	acc, err := s.node.Account(key)
	if errors.Is(err, core.ErrAccountNotFound) {
		return nil, &RPCError{Code: codeNotFound, Message: "account not found", Data: key.String()}
	}
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: "failed to load account", Data: err.Error()}
	}
	return accountResult(key.String(), acc), nil
}

func (s *Server) handleGetAccountProof(_ context.Context, _ *http.Request, params []json.RawMessage) (interface{}, *RPCError) {
	var p addressParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	key, rpcErr := parseKeyParam("address", p.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	proof, err := s.node.AccountProof(key)
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: "failed to prove account", Data: err.Error()}
	}
	return accountProofResult(key.String(), proof), nil
}

func (s *Server) handleGetEscrow(_ context.Context, _ *http.Request, params []json.RawMessage) (interface{}, *RPCError) {
	var p addressParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	key, rpcErr := parseKeyParam("address", p.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	record, err := s.node.Escrow(key)
	switch {
	case err == nil:
		return escrowResult(key.String(), record), nil
	case errors.Is(err, core.ErrAccountNotFound):
		return nil, &RPCError{Code: codeNotFound, Message: "escrow not found", Data: key.String()}
	case errors.Is(err, core.ErrNotEscrow):
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error(), Data: key.String()}
	case errors.Is(err, types.ErrUninitializedAccount):
		return nil, &RPCError{Code: codeNotFound, Message: "escrow is closed", Data: programErrorData(err)}
	default:
		return nil, &RPCError{Code: codeServerError, Message: "failed to decode escrow", Data: programErrorData(err)}
	}
}

func (s *Server) handleGetTransaction(_ context.Context, _ *http.Request, params []json.RawMessage) (interface{}, *RPCError) {
	var p txIDParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return nil, &RPCError{Code: codeInvalidParams, Message: "id is required"}
	}
	receipt, err := s.node.Receipt(id)
	if errors.Is(err, core.ErrReceiptNotFound) {
		return nil, &RPCError{Code: codeNotFound, Message: "transaction not found", Data: id}
	}
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: "failed to load receipt", Data: err.Error()}
	}
	return receipt, nil
}

func (s *Server) handleListEscrows(_ context.Context, _ *http.Request, params []json.RawMessage) (interface{}, *RPCError) {
	if s.index == nil {
		return nil, &RPCError{Code: codeServerError, Message: "escrow index unavailable"}
	}
	var p listEscrowsParams
	if len(params) > 0 {
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
	}
	switch indexer.Status(p.Status) {
	case "", indexer.StatusOpen, indexer.StatusSettled, indexer.StatusCancelled:
	default:
		return nil, &RPCError{Code: codeInvalidParams, Message: "unknown status", Data: p.Status}
	}
	if p.Limit < 0 || p.Offset < 0 {
		return nil, &RPCError{Code: codeInvalidParams, Message: "limit and offset must not be negative"}
	}
	rows, err := s.index.List(indexer.Filter{
		Status:      indexer.Status(p.Status),
		Initializer: p.Initializer,
		Mint:        p.Mint,
		Limit:       p.Limit,
		Offset:      p.Offset,
	})
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: "failed to query index", Data: err.Error()}
	}
	return rows, nil
}

func (s *Server) handleGetListing(_ context.Context, _ *http.Request, params []json.RawMessage) (interface{}, *RPCError) {
	if s.index == nil {
		return nil, &RPCError{Code: codeServerError, Message: "escrow index unavailable"}
	}
	var p addressParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	key, rpcErr := parseKeyParam("address", p.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	row, err := s.index.Get(key.String())
	if errors.Is(err, indexer.ErrNotFound) {
		return nil, &RPCError{Code: codeNotFound, Message: "listing not indexed", Data: key.String()}
	}
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: "failed to query index", Data: err.Error()}
	}
	return row, nil
}

func (s *Server) handleGetMetadataAddress(_ context.Context, _ *http.Request, params []json.RawMessage) (interface{}, *RPCError) {
	var p mintParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	mint, rpcErr := parseKeyParam("mint", p.Mint)
	if rpcErr != nil {
		return nil, rpcErr
	}
	addr, err := s.node.MetadataAddress(mint)
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: "failed to derive metadata address", Data: err.Error()}
	}
	return MetadataAddressResult{Mint: mint.String(), Address: addr.String()}, nil
}

func (s *Server) handleGetFeeSchedule(_ context.Context, _ *http.Request, _ []json.RawMessage) (interface{}, *RPCError) {
	result := feeScheduleResult(s.node.Fees())
	result.ProgramID = s.node.EscrowProgramID().String()
	result.MetadataProgramID = s.node.MetadataProgramID().String()
	authority, err := s.node.EscrowAuthority()
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: "failed to derive escrow authority", Data: err.Error()}
	}
	result.Authority = authority.String()
	return result, nil
}

func (s *Server) handleGetSlot(_ context.Context, _ *http.Request, _ []json.RawMessage) (interface{}, *RPCError) {
	return SlotResult{Slot: s.node.Slot(), Root: s.node.Root().Hex()}, nil
}

func (s *Server) handleGetMinimumBalance(_ context.Context, _ *http.Request, params []json.RawMessage) (interface{}, *RPCError) {
	var p dataLenParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.DataLen < 0 || p.DataLen > types.MaxTransactionSize {
		return nil, &RPCError{Code: codeInvalidParams, Message: "dataLen out of range", Data: p.DataLen}
	}
	return MinimumBalanceResult{DataLen: p.DataLen, Lamports: s.node.MinimumBalance(p.DataLen)}, nil
}
