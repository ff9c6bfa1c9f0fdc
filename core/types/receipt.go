package types

import "errors"

// Event represents a typed event emitted during state transitions.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// TxStatus is the outcome of an executed transaction.
type TxStatus string

const (
	TxStatusSuccess TxStatus = "success"
	TxStatusFailed  TxStatus = "failed"
)

// ReceiptError describes why a transaction failed.
type ReceiptError struct {
	Instruction int    `json:"instruction"`
	Code        string `json:"code"`
	Name        string `json:"name,omitempty"`
	Message     string `json:"message"`
}

// Receipt records the outcome of one executed transaction.
type Receipt struct {
	ID     string        `json:"id"`
	Slot   uint64        `json:"slot"`
	Status TxStatus      `json:"status"`
	Error  *ReceiptError `json:"error,omitempty"`
	Logs   []string      `json:"logs"`
	Events []Event       `json:"events,omitempty"`
}

// NewReceiptError classifies err. Instruction is -1 when the failure was not
// attributable to a single instruction.
func NewReceiptError(err error, instruction int) *ReceiptError {
	out := &ReceiptError{Instruction: instruction, Message: err.Error()}
	if pe, ok := AsProgramError(err); ok {
		out.Code = pe.Label()
		out.Name = pe.Name
		return out
	}
	out.Code = "Internal"
	if errors.Is(err, ErrInvalidSignature) {
		out.Code = "SignatureFailure"
	}
	return out
}
