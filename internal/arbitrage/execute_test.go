package arbitrage

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"vertex/internal/config"
	"vertex/internal/jupiter"
	"vertex/internal/ledger"
)

type fakeSwapper struct {
	calls  int
	failAt int // 1-based leg that fails; 0 = all succeed
	onSwap func()
}

func (f *fakeSwapper) Swap(_ context.Context, q *jupiter.Quote) (string, error) {
	f.calls++
	if f.onSwap != nil {
		f.onSwap()
	}
	if f.failAt == f.calls {
		return "", errors.New("blockhash expired")
	}
	return fmt.Sprintf("sig-%d", f.calls), nil
}

type recordingLedger struct {
	trades     []ledger.Trade
	activities []ledger.EventKind
}

func (r *recordingLedger) Activity(_ context.Context, kind ledger.EventKind, _ string, _ map[string]any, _ string) {
	r.activities = append(r.activities, kind)
}

func (r *recordingLedger) Trade(_ context.Context, t ledger.Trade) {
	r.trades = append(r.trades, t)
}

type recordingNotifier struct {
	sent []string
	err  error
}

func (r *recordingNotifier) Send(_ context.Context, text string) error {
	r.sent = append(r.sent, text)
	return r.err
}

func testOpportunity() *Opportunity {
	opp := &Opportunity{
		PathName:  "SOL-USDC-USDT",
		Input:     big.NewInt(10_000_000),
		Output:    big.NewInt(10_062_000),
		Profit:    big.NewInt(52_000),
		ProfitBps: 52,
	}
	mints := []string{"sol", "usdc", "usdt", "sol"}
	for i := 0; i < 3; i++ {
		opp.Quotes[i] = &jupiter.Quote{
			InputMint:  mints[i],
			OutputMint: mints[i+1],
			InAmount:   "10000000",
			OutAmount:  "10000000",
		}
	}
	return opp
}

func newTestSequencer(sw Swapper, rec ledger.Recorder, n *recordingNotifier) *Sequencer {
	var cfg config.Config
	cfg.Arbitrage.InterLegDelayMs = 1
	if n == nil {
		n = &recordingNotifier{}
	}
	return NewSequencer(cfg, sw, rec, n, zerolog.Nop())
}

func TestExecuteAllLegsSucceed(t *testing.T) {
	sw := &fakeSwapper{}
	rec := &recordingLedger{}
	n := &recordingNotifier{}
	seq := newTestSequencer(sw, rec, n)

	res, err := seq.Execute(context.Background(), testOpportunity())
	require.NoError(t, err)
	require.Equal(t, StateComplete, res.State)
	require.Equal(t, []string{"sig-1", "sig-2", "sig-3"}, res.Signatures)
	require.Equal(t, 3, sw.calls)

	require.Len(t, rec.trades, 3)
	// only the final leg carries the realized profit
	require.Empty(t, rec.trades[0].ProfitLamports)
	require.Equal(t, "52000", rec.trades[2].ProfitLamports)
	require.EqualValues(t, 52, rec.trades[2].ProfitBps)
	for _, tr := range rec.trades {
		require.Equal(t, "success", tr.Status)
		require.Equal(t, "triangular_arb", tr.Strategy)
	}

	require.Len(t, n.sent, 1)
	require.Contains(t, n.sent[0], "SOL-USDC-USDT")
	require.Contains(t, n.sent[0], "sig-3")
}

func TestExecuteAbortsOnLegFailure(t *testing.T) {
	sw := &fakeSwapper{failAt: 2}
	rec := &recordingLedger{}
	n := &recordingNotifier{}
	seq := newTestSequencer(sw, rec, n)

	res, err := seq.Execute(context.Background(), testOpportunity())
	require.Error(t, err)

	var legErr *LegError
	require.ErrorAs(t, err, &legErr)
	require.Equal(t, 2, legErr.Leg)

	require.Equal(t, StateFailed, res.State)
	require.Equal(t, []string{"sig-1"}, res.Signatures)
	require.Equal(t, 2, sw.calls, "leg 3 must never be attempted")

	require.Len(t, rec.trades, 2)
	require.Equal(t, "success", rec.trades[0].Status)
	require.Equal(t, "failed", rec.trades[1].Status)
	require.Contains(t, rec.trades[1].ErrorMessage, "leg 2/3")
	require.Empty(t, n.sent, "no alert for a failed triangle")
}

func TestExecuteFirstLegFailureLeavesNothingSent(t *testing.T) {
	sw := &fakeSwapper{failAt: 1}
	seq := newTestSequencer(sw, &recordingLedger{}, nil)

	res, err := seq.Execute(context.Background(), testOpportunity())
	var legErr *LegError
	require.ErrorAs(t, err, &legErr)
	require.Equal(t, 1, legErr.Leg)
	require.Empty(t, res.Signatures)
	require.Equal(t, 1, sw.calls)
}

func TestExecuteStopsWhenCancelledBetweenLegs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sw := &fakeSwapper{onSwap: cancel}
	var cfg config.Config
	cfg.Arbitrage.InterLegDelayMs = 50
	seq := NewSequencer(cfg, sw, &recordingLedger{}, &recordingNotifier{}, zerolog.Nop())

	res, err := seq.Execute(ctx, testOpportunity())
	var legErr *LegError
	require.ErrorAs(t, err, &legErr)
	require.Equal(t, 2, legErr.Leg)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, sw.calls)
	require.Equal(t, StateFailed, res.State)
}

func TestExecuteNotifierFailureIsNotFatal(t *testing.T) {
	n := &recordingNotifier{err: errors.New("telegram down")}
	seq := newTestSequencer(&fakeSwapper{}, &recordingLedger{}, n)

	res, err := seq.Execute(context.Background(), testOpportunity())
	require.NoError(t, err)
	require.Equal(t, StateComplete, res.State)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "PENDING", StatePending.String())
	require.Equal(t, "LEG2_SENT", StateLeg2Sent.String())
	require.Equal(t, "COMPLETE", StateComplete.String())
	require.Equal(t, "FAILED", StateFailed.String())
}
