// Package program defines the contract between the runtime and the native
// programs it dispatches to.
package program

import (
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/StorkBison/escrow-sell-SC/core/types"
)

// Program is a native on-ledger program.
type Program interface {
	ID() solana.PublicKey
	Process(ctx *Context, accounts []*types.AccountInfo, data []byte) error
}

// Journal accumulates the logs and events of one transaction.
type Journal struct {
	Logs   []string
	Events []types.Event
}

// Context carries per-instruction execution state.
type Context struct {
	ProgramID solana.PublicKey
	journal   *Journal
	logger    *slog.Logger
}

// NewContext binds an instruction to the transaction journal. A nil journal
// or logger is replaced with a private one.
func NewContext(programID solana.PublicKey, journal *Journal, logger *slog.Logger) *Context {
	if journal == nil {
		journal = &Journal{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{ProgramID: programID, journal: journal, logger: logger}
}

// Logf appends a program log line to the transaction receipt.
func (c *Context) Logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	c.journal.Logs = append(c.journal.Logs, fmt.Sprintf("Program %s: %s", c.ProgramID, line))
	c.logger.Debug("program log", "program", c.ProgramID.String(), "message", line)
}

// Emit records an event for subscribers of the committed transaction.
func (c *Context) Emit(evt *types.Event) {
	if evt == nil {
		return
	}
	c.journal.Events = append(c.journal.Events, *evt)
}

// Logs returns every log line recorded so far in the transaction.
func (c *Context) Logs() []string {
	return c.journal.Logs
}

// Events returns every event recorded so far in the transaction.
func (c *Context) Events() []types.Event {
	return c.journal.Events
}
