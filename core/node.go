package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core/events"
	"github.com/StorkBison/escrow-sell-SC/core/state"
	"github.com/StorkBison/escrow-sell-SC/core/types"
	"github.com/StorkBison/escrow-sell-SC/native/escrow"
	"github.com/StorkBison/escrow-sell-SC/native/fees"
	"github.com/StorkBison/escrow-sell-SC/native/metadata"
	"github.com/StorkBison/escrow-sell-SC/native/system"
	"github.com/StorkBison/escrow-sell-SC/native/token"
	"github.com/StorkBison/escrow-sell-SC/observability"
	"github.com/StorkBison/escrow-sell-SC/storage"
	"github.com/StorkBison/escrow-sell-SC/storage/trie"
)

var (
	ErrDuplicateTransaction = errors.New("node: transaction already processed")
	ErrReceiptNotFound      = errors.New("node: receipt not found")
	ErrAccountNotFound      = errors.New("node: account not found")
	ErrNotEscrow            = errors.New("node: account is not an escrow record")
)

var (
	headKey       = []byte("head")
	receiptPrefix = []byte("receipt:")
)

// GenesisAccount funds an address when the ledger is first created.
type GenesisAccount struct {
	Address  solana.PublicKey
	Lamports uint64
}

// Options configures the programs hosted by a node.
type Options struct {
	EscrowProgramID   solana.PublicKey
	AuthoritySeed     string
	MetadataProgramID solana.PublicKey
	Fees              fees.Schedule
	Rent              system.Rent
	Genesis           []GenesisAccount
	Logger            *slog.Logger
}

// DefaultOptions returns the stock deployment.
func DefaultOptions() Options {
	return Options{
		EscrowProgramID:   escrow.DefaultProgramID,
		AuthoritySeed:     escrow.DefaultSeed,
		MetadataProgramID: metadata.DefaultProgramID,
		Fees:              fees.DefaultSchedule(),
		Rent:              system.DefaultRent(),
	}
}

type head struct {
	Root common.Hash
	Slot uint64
}

// Node is the central controller, wiring storage, state, the runtime and the
// native programs together.
type Node struct {
	mu       sync.RWMutex
	db       *storage.Database
	state    *state.Manager
	runtime  *Runtime
	escrow   *escrow.Engine
	metadata *metadata.Provider
	emitter  events.Emitter
	rent     system.Rent
	logger   *slog.Logger
	slot     uint64
}

// NewNode opens the ledger stored in db, creating it from opts.Genesis when
// db is empty.
func NewNode(db *storage.Database, opts Options) (*Node, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := opts.Fees.Validate(); err != nil {
		return nil, err
	}
	if opts.AuthoritySeed == "" {
		opts.AuthoritySeed = escrow.DefaultSeed
	}

	current, found, err := loadHead(db)
	if err != nil {
		return nil, err
	}
	var root []byte
	if found {
		root = current.Root.Bytes()
	}
	stateTrie, err := trie.NewTrie(db, root)
	if err != nil {
		return nil, err
	}
	manager := state.NewManager(stateTrie)

	n := &Node{
		db:       db,
		state:    manager,
		runtime:  NewRuntime(manager, logger.With("component", "runtime")),
		metadata: metadata.NewProvider(opts.MetadataProgramID),
		emitter:  events.NoopEmitter{},
		rent:     opts.Rent,
		logger:   logger,
	}

	systemProgram := system.New()
	tokenProgram := token.New(opts.Rent)
	engine := escrow.NewEngine(opts.EscrowProgramID, opts.Fees)
	engine.SetAuthority(escrow.NewPDAAuthority(opts.AuthoritySeed))
	engine.SetTokenService(tokenProgram)
	engine.SetValueTransfer(systemProgram)
	engine.SetRentPolicy(opts.Rent)
	engine.SetMetadataProvider(n.metadata)
	engine.SetLogger(logger.With("component", "escrow"))
	n.escrow = engine

	if err := n.runtime.Register(systemProgram); err != nil {
		return nil, err
	}
	if err := n.runtime.Register(tokenProgram); err != nil {
		return nil, err
	}
	if err := n.runtime.Register(metadata.New(n.metadata, opts.Rent, systemProgram)); err != nil {
		return nil, err
	}
	if err := n.runtime.Register(engine); err != nil {
		return nil, err
	}

	if found {
		n.slot = current.Slot
	} else if err := n.applyGenesis(opts.Genesis); err != nil {
		return nil, err
	}
	observability.Runtime().SetSlot(n.slot)
	logger.Info("node opened",
		slog.Uint64("slot", n.slot),
		slog.String("root", manager.Root().Hex()),
		slog.String("escrowProgram", engine.ID().String()))
	return n, nil
}

func loadHead(db *storage.Database) (head, bool, error) {
	var h head
	raw, err := db.Get(headKey)
	if errors.Is(err, storage.ErrNotFound) {
		return h, false, nil
	}
	if err != nil {
		return h, false, err
	}
	if err := rlp.DecodeBytes(raw, &h); err != nil {
		return h, false, fmt.Errorf("node: decode head: %w", err)
	}
	return h, true, nil
}

func (n *Node) storeHead(root common.Hash, slot uint64) error {
	raw, err := rlp.EncodeToBytes(head{Root: root, Slot: slot})
	if err != nil {
		return err
	}
	return n.db.Put(headKey, raw)
}

func (n *Node) applyGenesis(alloc []GenesisAccount) error {
	for _, acc := range alloc {
		if err := n.state.Credit(acc.Address, acc.Lamports); err != nil {
			return fmt.Errorf("node: genesis %s: %w", acc.Address, err)
		}
	}
	root, err := n.state.Commit(0)
	if err != nil {
		return err
	}
	n.logger.Info("genesis applied", slog.Int("accounts", len(alloc)), slog.String("root", root.Hex()))
	return n.storeHead(root, 0)
}

// SetEmitter configures the sink for committed program events.
func (n *Node) SetEmitter(e events.Emitter) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if e == nil {
		e = events.NoopEmitter{}
	}
	n.emitter = e
}

// SubmitTransaction executes tx in the next slot and returns its receipt.
// Failed transactions still consume a slot and keep their receipt; rejected
// ones (bad signatures, replays) do not.
func (n *Node) SubmitTransaction(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := tx.Verify(); err != nil {
		return nil, err
	}
	id := tx.ID()
	seen, err := n.db.Has(receiptKey(id))
	if err != nil {
		return nil, err
	}
	if seen {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTransaction, id)
	}

	slot := n.slot + 1
	receipt, err := n.runtime.Execute(ctx, tx, slot)
	if err != nil {
		return nil, err
	}
	root, err := n.state.Commit(slot)
	if err != nil {
		return nil, fmt.Errorf("node: commit slot %d: %w", slot, err)
	}
	raw, err := json.Marshal(receipt)
	if err != nil {
		return nil, err
	}
	if err := n.db.Put(receiptKey(id), raw); err != nil {
		return nil, err
	}
	if err := n.storeHead(root, slot); err != nil {
		return nil, err
	}
	n.slot = slot
	observability.Runtime().SetSlot(slot)

	for _, evt := range receipt.Events {
		observability.Events().RecordEvent(evt.Type, slot)
		n.emitter.Emit(events.Committed{TxID: id, Slot: slot, Event: evt})
	}
	return receipt, nil
}

func receiptKey(id string) []byte {
	return append(append([]byte(nil), receiptPrefix...), id...)
}

// Receipt returns the stored receipt of a processed transaction.
func (n *Node) Receipt(id string) (*types.Receipt, error) {
	raw, err := n.db.Get(receiptKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, err
	}
	receipt := new(types.Receipt)
	if err := json.Unmarshal(raw, receipt); err != nil {
		return nil, fmt.Errorf("node: decode receipt %s: %w", id, err)
	}
	return receipt, nil
}

// Account returns the committed account at key.
func (n *Node) Account(key solana.PublicKey) (*types.Account, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	acc, err := n.state.GetAccount(key)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrAccountNotFound
	}
	return acc, nil
}

// AccountProof is a Merkle proof of one account against the state root of a
// slot.
type AccountProof struct {
	Slot  uint64
	Root  common.Hash
	Proof trie.Proof
}

// AccountProof proves the account at key, or its absence, against the head.
func (n *Node) AccountProof(key solana.PublicKey) (*AccountProof, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	proof, err := n.state.ProveAccount(key)
	if err != nil {
		return nil, fmt.Errorf("node: prove %s: %w", key, err)
	}
	return &AccountProof{Slot: n.slot, Root: n.state.Root(), Proof: proof}, nil
}

// Escrow decodes the escrow record stored at key.
func (n *Node) Escrow(key solana.PublicKey) (*escrow.Record, error) {
	acc, err := n.Account(key)
	if err != nil {
		return nil, err
	}
	if !acc.Owner.Equals(n.escrow.ID()) {
		return nil, ErrNotEscrow
	}
	return escrow.UnpackRecord(acc.Data)
}

// Slot returns the last executed slot.
func (n *Node) Slot() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.slot
}

// Root returns the committed state root.
func (n *Node) Root() common.Hash {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state.Root()
}

// Fees returns the escrow fee schedule.
func (n *Node) Fees() fees.Schedule { return n.escrow.Fees() }

// MinimumBalance returns the rent-exempt balance for dataLen bytes.
func (n *Node) MinimumBalance(dataLen int) uint64 { return n.rent.MinimumBalance(dataLen) }

// EscrowProgramID returns the escrow program address.
func (n *Node) EscrowProgramID() solana.PublicKey { return n.escrow.ID() }

// EscrowAuthority returns the address that holds escrowed token accounts.
func (n *Node) EscrowAuthority() (solana.PublicKey, error) { return n.escrow.AuthorityAddress() }

// MetadataProgramID returns the token-metadata program address.
func (n *Node) MetadataProgramID() solana.PublicKey { return n.metadata.ProgramID() }

// MetadataAddress returns the metadata account of mint.
func (n *Node) MetadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	return n.metadata.Address(mint)
}

// Close releases the underlying database.
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.db.Close()
}
