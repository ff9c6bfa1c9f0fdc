package escrow

import (
	"errors"
	"fmt"
	"log/slog"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core/program"
	"github.com/StorkBison/escrow-sell-SC/core/types"
	"github.com/StorkBison/escrow-sell-SC/native/fees"
	"github.com/StorkBison/escrow-sell-SC/observability"
)

var (
	errNilTokens    = errors.New("escrow engine: token service not configured")
	errNilValue     = errors.New("escrow engine: value transfer not configured")
	errNilRent      = errors.New("escrow engine: rent policy not configured")
	errNilMetadata  = errors.New("escrow engine: metadata provider not configured")
	errNilAuthority = errors.New("escrow engine: authority not configured")
)

// DefaultProgramID is the address the escrow program is deployed at unless
// configured otherwise.
var DefaultProgramID = solana.PublicKeyFromBytes(ethcrypto.Keccak256([]byte("escrow-sell/program")))

// Engine is the escrow program: it lists single-unit token accounts for sale
// and settles them against lamports with sales tax and creator royalties.
type Engine struct {
	programID solana.PublicKey
	fees      fees.Schedule
	authority Authority
	tokens    TokenService
	value     ValueTransfer
	rent      RentPolicy
	metadata  MetadataProvider
	logger    *slog.Logger
}

// NewEngine creates the escrow program served at programID. Collaborators are
// wired with the Set* methods before the first instruction.
func NewEngine(programID solana.PublicKey, schedule fees.Schedule) *Engine {
	return &Engine{
		programID: programID,
		fees:      schedule,
		authority: NewPDAAuthority(DefaultSeed),
		logger:    slog.Default(),
	}
}

// SetAuthority overrides the delegated authority derivation.
func (e *Engine) SetAuthority(a Authority) { e.authority = a }

// SetTokenService configures the asset transfer service.
func (e *Engine) SetTokenService(t TokenService) { e.tokens = t }

// SetValueTransfer configures the native value transfer service.
func (e *Engine) SetValueTransfer(v ValueTransfer) { e.value = v }

// SetRentPolicy configures the retention check applied to new records.
func (e *Engine) SetRentPolicy(r RentPolicy) { e.rent = r }

// SetMetadataProvider configures royalty metadata lookups.
func (e *Engine) SetMetadataProvider(m MetadataProvider) { e.metadata = m }

// SetLogger configures the logger. Passing nil resets to slog.Default.
func (e *Engine) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	e.logger = l
}

// ID implements program.Program.
func (e *Engine) ID() solana.PublicKey { return e.programID }

// Fees returns the configured fee schedule.
func (e *Engine) Fees() fees.Schedule { return e.fees }

// AuthorityAddress returns the delegated authority of this deployment.
func (e *Engine) AuthorityAddress() (solana.PublicKey, error) {
	if e.authority == nil {
		return solana.PublicKey{}, errNilAuthority
	}
	addr, _, err := e.authority.Derive(e.programID)
	return addr, err
}

func (e *Engine) configured() error {
	switch {
	case e.authority == nil:
		return errNilAuthority
	case e.tokens == nil:
		return errNilTokens
	case e.value == nil:
		return errNilValue
	case e.rent == nil:
		return errNilRent
	case e.metadata == nil:
		return errNilMetadata
	}
	return nil
}

// Process implements program.Program.
func (e *Engine) Process(ctx *program.Context, accounts []*types.AccountInfo, data []byte) error {
	if err := e.configured(); err != nil {
		return err
	}
	ix, err := UnpackInstruction(data)
	if err != nil {
		observability.Escrow().ObserveInstruction("invalid", outcomeLabel(err))
		return err
	}
	switch ix.Kind {
	case KindInitEscrow:
		ctx.Logf("Instruction: InitEscrow")
		err = e.initEscrow(ctx, accounts, ix.Amount)
	case KindExchange:
		ctx.Logf("Instruction: Exchange")
		err = e.exchange(ctx, accounts, ix.Amount)
	}
	observability.Escrow().ObserveInstruction(ix.Kind.String(), outcomeLabel(err))
	if err != nil {
		e.logger.Debug("escrow instruction failed",
			"kind", ix.Kind.String(),
			"error", err)
	}
	return err
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if pe, ok := types.AsProgramError(err); ok {
		if pe.Name != "" {
			return pe.Name
		}
		return pe.Label()
	}
	return "internal"
}

func (e *Engine) deriveAuthority() (solana.PublicKey, *types.Seal, error) {
	addr, seal, err := e.authority.Derive(e.programID)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("escrow engine: derive authority: %w", err)
	}
	return addr, seal, nil
}
