package arbitrage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"vertex/internal/config"
	"vertex/internal/infra/log"
	"vertex/internal/infra/metrics"
	"vertex/internal/jupiter"
	"vertex/internal/ledger"
	"vertex/internal/notify"
	"vertex/internal/solana"
)

// State tracks progress through the three-leg sequence.
type State int

const (
	StatePending State = iota
	StateLeg1Sent
	StateLeg2Sent
	StateLeg3Sent
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateLeg1Sent:
		return "LEG1_SENT"
	case StateLeg2Sent:
		return "LEG2_SENT"
	case StateLeg3Sent:
		return "LEG3_SENT"
	case StateComplete:
		return "COMPLETE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// LegError reports which leg of the sequence failed.
type LegError struct {
	Leg int
	Err error
}

func (e *LegError) Error() string { return fmt.Sprintf("leg %d/3 failed: %v", e.Leg, e.Err) }
func (e *LegError) Unwrap() error { return e.Err }

// Swapper executes one leg and returns its transaction signature.
type Swapper interface {
	Swap(ctx context.Context, q *jupiter.Quote) (string, error)
}

// ExecResult is the outcome of a sequence attempt. Signatures holds one
// entry per confirmed leg, in order.
type ExecResult struct {
	State      State
	Signatures []string
}

// Sequencer runs the legs of an opportunity strictly in order. The first
// leg failure aborts the sequence; there is no unwind, whatever the
// confirmed legs bought stays in the wallet.
type Sequencer struct {
	cfg      config.Config
	swapper  Swapper
	rec      ledger.Recorder
	notifier notify.Notifier
	logger   log.Logger
}

func NewSequencer(cfg config.Config, swapper Swapper, rec ledger.Recorder, notifier notify.Notifier, logger log.Logger) *Sequencer {
	if rec == nil {
		rec = ledger.Nop{}
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Sequencer{cfg: cfg, swapper: swapper, rec: rec, notifier: notifier, logger: logger}
}

var legStates = [3]State{StateLeg1Sent, StateLeg2Sent, StateLeg3Sent}

// Execute runs the three legs. On a leg failure it returns the partial
// result together with a *LegError naming the failed leg.
func (s *Sequencer) Execute(ctx context.Context, opp *Opportunity) (*ExecResult, error) {
	res := &ExecResult{State: StatePending, Signatures: make([]string, 0, 3)}
	for i, q := range opp.Quotes {
		s.logger.Info().Str("path", opp.PathName).Int("leg", i+1).
			Str("input_mint", q.InputMint).Str("output_mint", q.OutputMint).
			Str("amount", q.InAmount).Msg("executing leg")
		sig, err := s.swapper.Swap(ctx, q)
		if err != nil {
			res.State = StateFailed
			metrics.PartialFailures.WithLabelValues(strconv.Itoa(i + 1)).Inc()
			legErr := &LegError{Leg: i + 1, Err: err}
			s.logger.Error().Err(err).Str("path", opp.PathName).Int("leg", i+1).
				Int("legs_confirmed", len(res.Signatures)).Msg("leg failed, aborting sequence")
			s.rec.Trade(ctx, ledger.Trade{
				InputMint:    q.InputMint,
				OutputMint:   q.OutputMint,
				InputAmount:  q.InAmount,
				OutputAmount: q.OutAmount,
				Strategy:     "triangular_arb",
				Status:       "failed",
				ErrorMessage: legErr.Error(),
			})
			return res, legErr
		}
		res.Signatures = append(res.Signatures, sig)
		res.State = legStates[i]
		metrics.LegsExecutedTotal.Inc()
		s.logger.Info().Str("path", opp.PathName).Int("leg", i+1).Str("signature", sig).Msg("leg confirmed")
		trade := ledger.Trade{
			Signature:    sig,
			InputMint:    q.InputMint,
			OutputMint:   q.OutputMint,
			InputAmount:  q.InAmount,
			OutputAmount: q.OutAmount,
			Strategy:     "triangular_arb",
			Status:       "success",
		}
		if i == len(opp.Quotes)-1 {
			trade.ProfitLamports = opp.Profit.String()
			trade.ProfitBps = opp.ProfitBps
		}
		s.rec.Trade(ctx, trade)

		if i < len(opp.Quotes)-1 {
			select {
			case <-ctx.Done():
				res.State = StateFailed
				return res, &LegError{Leg: i + 2, Err: ctx.Err()}
			case <-time.After(s.cfg.InterLegDelay()):
			}
		}
	}
	res.State = StateComplete
	metrics.TrianglesExecuted.Inc()
	s.notifyComplete(ctx, opp, res)
	return res, nil
}

func (s *Sequencer) notifyComplete(ctx context.Context, opp *Opportunity, res *ExecResult) {
	lastSig := res.Signatures[len(res.Signatures)-1]
	text := fmt.Sprintf(
		"✅ <b>Triangle complete</b>\nPath: %s\nProfit: %s SOL (+%d bps)\n<a href=\"https://solscan.io/tx/%s\">final leg</a>",
		opp.PathName, solana.LamportsToSOL(opp.Profit).String(), opp.ProfitBps, lastSig)
	if err := s.notifier.Send(ctx, text); err != nil {
		s.logger.Warn().Err(err).Msg("trade alert not delivered")
	}
}
