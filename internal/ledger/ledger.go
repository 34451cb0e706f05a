// Package ledger records bot activity and executed trades. Recording is
// best-effort: a failed write never interrupts scanning or execution.
package ledger

import "context"

// EventKind classifies an activity row.
type EventKind string

const (
	EventScan          EventKind = "scan"
	EventOpportunity   EventKind = "opportunity"
	EventExecuting     EventKind = "executing"
	EventTradeComplete EventKind = "trade_complete"
	EventError         EventKind = "error"
	EventHeartbeat     EventKind = "heartbeat"
)

// Trade is one executed (or failed) swap leg.
type Trade struct {
	Signature      string
	InputMint      string
	OutputMint     string
	InputAmount    string
	OutputAmount   string
	ProfitLamports string
	ProfitBps      int64
	Strategy       string
	Status         string
	ErrorMessage   string
}

// Recorder persists activity events and trades.
type Recorder interface {
	Activity(ctx context.Context, kind EventKind, message string, data map[string]any, txSignature string)
	Trade(ctx context.Context, t Trade)
}

// Nop discards everything. Used when no ledger path is configured.
type Nop struct{}

func (Nop) Activity(context.Context, EventKind, string, map[string]any, string) {}
func (Nop) Trade(context.Context, Trade)                                       {}
