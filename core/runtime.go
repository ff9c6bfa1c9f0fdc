package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/StorkBison/escrow-sell-SC/core/program"
	"github.com/StorkBison/escrow-sell-SC/core/state"
	"github.com/StorkBison/escrow-sell-SC/core/types"
	"github.com/StorkBison/escrow-sell-SC/observability"
)

var errDuplicateProgram = errors.New("runtime: program already registered")

// Runtime executes transactions against the account state. A transaction
// either applies every instruction or none of them.
type Runtime struct {
	mu       sync.Mutex
	state    *state.Manager
	programs map[solana.PublicKey]program.Program
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewRuntime binds a runtime to the provided state.
func NewRuntime(st *state.Manager, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{
		state:    st,
		programs: make(map[solana.PublicKey]program.Program),
		logger:   logger,
		tracer:   otel.Tracer("core/runtime"),
	}
}

// Register makes p reachable at p.ID().
func (r *Runtime) Register(p program.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.programs[p.ID()]; ok {
		return fmt.Errorf("%w: %s", errDuplicateProgram, p.ID())
	}
	r.programs[p.ID()] = p
	return nil
}

// loaded is the working set of one transaction.
type loaded struct {
	order  []solana.PublicKey
	views  map[solana.PublicKey]*types.AccountInfo
	before map[solana.PublicKey]*types.Account
}

// Execute verifies and runs tx at slot. Program failures produce a failed
// receipt and leave state untouched; the returned error is reserved for
// rejected transactions and storage faults. The caller commits the state.
func (r *Runtime) Execute(ctx context.Context, tx *types.Transaction, slot uint64) (*types.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, span := r.tracer.Start(ctx, "runtime.execute", trace.WithAttributes(
		attribute.Int("tx.instructions", len(tx.Message.Instructions)),
		attribute.Int64("tx.slot", int64(slot)),
	))
	defer span.End()
	start := time.Now()

	if err := tx.Verify(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verify")
		return nil, err
	}
	id := tx.ID()
	span.SetAttributes(attribute.String("tx.id", id))

	set, err := r.load(&tx.Message)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	receipt := &types.Receipt{ID: id, Slot: slot, Status: types.TxStatusSuccess}
	journal := &program.Journal{}
	failedAt, execErr := r.run(ctx, tx, set, journal)
	if execErr == nil {
		failedAt = -1
		execErr = r.checkInvariants(set)
	}
	receipt.Logs = journal.Logs
	if receipt.Logs == nil {
		receipt.Logs = []string{}
	}

	if execErr != nil {
		receipt.Status = types.TxStatusFailed
		receipt.Error = types.NewReceiptError(execErr, failedAt)
		span.SetStatus(codes.Error, receipt.Error.Code)
		r.logger.Info("transaction failed",
			slog.String("tx", id),
			slog.Uint64("slot", slot),
			slog.String("code", receipt.Error.Code),
			slog.String("error", execErr.Error()))
		observability.Runtime().ObserveTransaction(string(receipt.Status), time.Since(start))
		return receipt, nil
	}

	for _, key := range set.order {
		view := set.views[key]
		if !view.IsWritable || view.Matches(set.before[key]) {
			continue
		}
		if err := r.state.PutAccount(key, view.Account()); err != nil {
			if discardErr := r.state.Discard(); discardErr != nil {
				r.logger.Error("discard state", slog.String("tx", id), slog.Any("error", discardErr))
			}
			span.RecordError(err)
			return nil, fmt.Errorf("runtime: write %s: %w", key, err)
		}
	}
	receipt.Events = journal.Events
	r.logger.Debug("transaction executed",
		slog.String("tx", id),
		slog.Uint64("slot", slot),
		slog.Int("events", len(receipt.Events)))
	observability.Runtime().ObserveTransaction(string(receipt.Status), time.Since(start))
	return receipt, nil
}

func (r *Runtime) load(msg *types.Message) (*loaded, error) {
	order, writable := msg.Keys()
	signers := make(map[solana.PublicKey]bool)
	for _, key := range msg.Signers() {
		signers[key] = true
	}
	set := &loaded{
		order:  order,
		views:  make(map[solana.PublicKey]*types.AccountInfo, len(order)),
		before: make(map[solana.PublicKey]*types.Account, len(order)),
	}
	for _, key := range order {
		acc, err := r.state.GetAccount(key)
		if err != nil {
			return nil, fmt.Errorf("runtime: load %s: %w", key, err)
		}
		view := types.NewAccountInfo(key, acc)
		view.IsSigner = signers[key]
		view.IsWritable = writable[key]
		set.views[key] = view
		set.before[key] = acc
	}
	return set, nil
}

func (r *Runtime) run(ctx context.Context, tx *types.Transaction, set *loaded, journal *program.Journal) (int, error) {
	for i, ix := range tx.Message.Instructions {
		prog, ok := r.programs[ix.ProgramID]
		if !ok {
			return i, fmt.Errorf("%w: unknown program %s", types.ErrIncorrectProgramID, ix.ProgramID)
		}
		accounts := make([]*types.AccountInfo, len(ix.Accounts))
		for j, meta := range ix.Accounts {
			accounts[j] = set.views[meta.PublicKey]
		}
		if err := r.invoke(ctx, prog, accounts, ix.Data, journal); err != nil {
			return i, err
		}
	}
	return -1, nil
}

func (r *Runtime) invoke(ctx context.Context, prog program.Program, accounts []*types.AccountInfo, data []byte, journal *program.Journal) (err error) {
	_, span := r.tracer.Start(ctx, "runtime.invoke", trace.WithAttributes(
		attribute.String("program", prog.ID().String()),
	))
	defer span.End()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("program panicked", slog.String("program", prog.ID().String()), slog.Any("panic", rec))
			err = fmt.Errorf("runtime: program %s panicked: %v", prog.ID(), rec)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "program error")
		}
	}()
	pctx := program.NewContext(prog.ID(), journal, r.logger)
	pctx.Logf("invoke")
	if err = prog.Process(pctx, accounts, data); err != nil {
		pctx.Logf("failed: %v", err)
		return err
	}
	pctx.Logf("success")
	return nil
}

// checkInvariants enforces that read-only accounts are untouched and that no
// lamports were created or destroyed.
func (r *Runtime) checkInvariants(set *loaded) error {
	before := new(uint256.Int)
	after := new(uint256.Int)
	for _, key := range set.order {
		view := set.views[key]
		prev := set.before[key]
		if !view.IsWritable && !view.Matches(prev) {
			return fmt.Errorf("%w: %s", types.ErrReadonlyModified, key)
		}
		if prev != nil {
			before.Add(before, uint256.NewInt(prev.Lamports))
		}
		after.Add(after, uint256.NewInt(view.Lamports))
	}
	if !before.Eq(after) {
		return fmt.Errorf("%w: before %s after %s", types.ErrUnbalancedTransaction, before.Dec(), after.Dec())
	}
	return nil
}
