// Package arbitrage implements triangular arbitrage over Jupiter quotes:
// evaluating candidate paths, picking the best opportunity per cycle, and
// sequencing the three swap legs when one clears the profit threshold.
package arbitrage

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sync"
	"time"

	"vertex/internal/config"
	"vertex/internal/infra/log"
	"vertex/internal/infra/metrics"
	"vertex/internal/jupiter"
	"vertex/internal/ledger"
	"vertex/internal/solana"
)

// Quoter fetches a single swap quote. A nil quote with a nil error means
// no route is currently available for the pair.
type Quoter interface {
	Quote(ctx context.Context, inputMint, outputMint string, amount *big.Int, slippageBps int) (*jupiter.Quote, error)
}

// Executor runs all three legs of a confirmed opportunity.
type Executor interface {
	Execute(ctx context.Context, opp *Opportunity) (*ExecResult, error)
}

// Opportunity is a fully evaluated, above-threshold path with the quotes
// that produced it.
type Opportunity struct {
	PathName  string
	Input     *big.Int
	Output    *big.Int
	Profit    *big.Int
	ProfitBps int64
	Quotes    [3]*jupiter.Quote
}

// Engine owns the scan loop. It evaluates every catalog path each cycle,
// re-quotes the winner, and hands it to the executor. At most one
// execution runs at a time.
type Engine struct {
	cfg      config.Config
	quoter   Quoter
	executor Executor
	rec      ledger.Recorder
	logger   log.Logger
	catalog  []Path

	execMu sync.Mutex
}

func New(cfg config.Config, quoter Quoter, executor Executor, rec ledger.Recorder, logger log.Logger) (*Engine, error) {
	catalog, err := CatalogFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build path catalog: %w", err)
	}
	if rec == nil {
		rec = ledger.Nop{}
	}
	return &Engine{
		cfg:      cfg,
		quoter:   quoter,
		executor: executor,
		rec:      rec,
		logger:   logger,
		catalog:  catalog,
	}, nil
}

// Catalog returns the validated paths the engine scans.
func (e *Engine) Catalog() []Path { return e.catalog }

// Evaluate chains quotes through the three legs of path for the given
// input amount. It returns nil without error when the path is rejected:
// a leg has no route, a leg's price impact exceeds the cap, or the net
// profit after fees falls below the threshold. Quote transport failures
// propagate as errors.
func (e *Engine) Evaluate(ctx context.Context, path Path, input *big.Int) (*Opportunity, error) {
	var quotes [3]*jupiter.Quote
	amount := new(big.Int).Set(input)
	for i, leg := range path.Legs {
		q, err := e.quoter.Quote(ctx, leg.From, leg.To, amount, e.cfg.Arbitrage.SlippageBps)
		if err != nil {
			return nil, fmt.Errorf("path %s leg %d: %w", path.Name, i+1, err)
		}
		if q == nil {
			metrics.PathsRejectedTotal.WithLabelValues("no_route").Inc()
			return nil, nil
		}
		if impact := q.PriceImpact(); math.Abs(impact) > e.cfg.Arbitrage.MaxPriceImpactPct {
			metrics.PathsRejectedTotal.WithLabelValues("price_impact").Inc()
			e.logger.Debug().Str("path", path.Name).Int("leg", i+1).
				Float64("impact_pct", impact).Msg("price impact over cap")
			return nil, nil
		}
		out, ok := new(big.Int).SetString(q.OutAmount, 10)
		if !ok {
			return nil, fmt.Errorf("path %s leg %d: malformed output amount %q", path.Name, i+1, q.OutAmount)
		}
		quotes[i] = q
		amount = out
	}

	output := amount
	fees := new(big.Int).SetUint64(e.cfg.Arbitrage.EstimatedFeePerLeg)
	fees.Mul(fees, big.NewInt(3))
	profit := new(big.Int).Sub(output, input)
	profit.Sub(profit, fees)
	if profit.Sign() <= 0 {
		metrics.PathsRejectedTotal.WithLabelValues("unprofitable").Inc()
		return nil, nil
	}
	bps := profitBps(profit, input)
	threshold := int64(e.cfg.Arbitrage.MinProfitBps + e.cfg.Arbitrage.SafetyBufferBps)
	if bps < threshold {
		metrics.PathsRejectedTotal.WithLabelValues("below_threshold").Inc()
		return nil, nil
	}
	return &Opportunity{
		PathName:  path.Name,
		Input:     new(big.Int).Set(input),
		Output:    output,
		Profit:    profit,
		ProfitBps: bps,
		Quotes:    quotes,
	}, nil
}

// profitBps computes floor(profit * 10000 / input). Quo truncates toward
// zero, which equals floor here because callers only pass positive profit.
func profitBps(profit, input *big.Int) int64 {
	n := new(big.Int).Mul(profit, big.NewInt(10_000))
	n.Quo(n, input)
	return n.Int64()
}

// ScanAll evaluates every catalog path and returns the single best
// opportunity, or nil when none clears the threshold. Ties keep the
// earlier path in catalog order.
func (e *Engine) ScanAll(ctx context.Context) (*Opportunity, error) {
	input := new(big.Int).SetUint64(e.cfg.Arbitrage.TradeSizeLamports)
	var best *Opportunity
	for _, p := range e.catalog {
		metrics.PathsEvaluatedTotal.Inc()
		opp, err := e.Evaluate(ctx, p, input)
		if err != nil {
			return nil, err
		}
		if opp == nil {
			continue
		}
		if best == nil || opp.ProfitBps > best.ProfitBps {
			best = opp
		}
	}
	return best, nil
}

// Confirm re-validates opp immediately before execution. When the
// re-quote guard is disabled it returns opp unchanged without touching
// the network. Otherwise it re-evaluates the path with fresh quotes and
// returns nil if the opportunity has evaporated.
func (e *Engine) Confirm(ctx context.Context, opp *Opportunity) (*Opportunity, error) {
	if !e.cfg.Arbitrage.ReQuoteBeforeExecute {
		return opp, nil
	}
	path, ok := e.pathByName(opp.PathName)
	if !ok {
		return nil, nil
	}
	return e.Evaluate(ctx, path, opp.Input)
}

func (e *Engine) pathByName(name string) (Path, bool) {
	for _, p := range e.catalog {
		if p.Name == name {
			return p, true
		}
	}
	return Path{}, false
}

// Run drives the scan loop until ctx is cancelled. A failed cycle is
// logged and recorded but never stops the loop.
func (e *Engine) Run(ctx context.Context) error {
	e.logStartup()
	ticker := time.NewTicker(e.cfg.PollInterval())
	defer ticker.Stop()
	var cycle uint64
	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("scan loop stopped")
			return nil
		case <-ticker.C:
			cycle++
			metrics.ScanCyclesTotal.Inc()
			if err := e.runCycle(ctx, cycle); err != nil {
				if ctx.Err() != nil {
					e.logger.Info().Msg("scan loop stopped")
					return nil
				}
				metrics.CycleErrorsTotal.Inc()
				e.logger.Error().Err(err).Uint64("cycle", cycle).Msg("scan cycle failed")
				e.rec.Activity(ctx, ledger.EventError, err.Error(), nil, "")
			}
		}
	}
}

func (e *Engine) runCycle(ctx context.Context, cycle uint64) error {
	opp, err := e.ScanAll(ctx)
	if err != nil {
		return err
	}
	if opp == nil {
		n := e.cfg.Arbitrage.HeartbeatEveryCycles
		if n > 0 && cycle%uint64(n) == 0 {
			metrics.HeartbeatsTotal.Inc()
			e.logger.Info().Uint64("cycle", cycle).Int("paths", len(e.catalog)).Msg("scanning, no opportunity")
			e.rec.Activity(ctx, ledger.EventHeartbeat,
				fmt.Sprintf("cycle %d: %d paths scanned, no opportunity", cycle, len(e.catalog)), nil, "")
		}
		return nil
	}

	metrics.OpportunitiesFound.Inc()
	metrics.OpportunityProfitBps.Observe(float64(opp.ProfitBps))
	e.logger.Info().Str("path", opp.PathName).
		Int64("profit_bps", opp.ProfitBps).
		Str("profit_lamports", opp.Profit.String()).
		Str("profit_sol", solana.LamportsToSOL(opp.Profit).String()).
		Msg("opportunity found")
	e.rec.Activity(ctx, ledger.EventOpportunity,
		fmt.Sprintf("%s: +%d bps", opp.PathName, opp.ProfitBps),
		map[string]any{
			"path":            opp.PathName,
			"profit_bps":      opp.ProfitBps,
			"profit_lamports": opp.Profit.String(),
		}, "")

	fresh, err := e.Confirm(ctx, opp)
	if err != nil {
		return err
	}
	if fresh == nil {
		metrics.RequoteRejections.Inc()
		e.logger.Info().Str("path", opp.PathName).Msg("opportunity gone after re-quote")
		e.rec.Activity(ctx, ledger.EventScan, opp.PathName+": gone after re-quote", nil, "")
		return nil
	}

	e.rec.Activity(ctx, ledger.EventExecuting,
		fmt.Sprintf("executing %s for +%d bps", fresh.PathName, fresh.ProfitBps), nil, "")
	e.execMu.Lock()
	defer e.execMu.Unlock()
	res, err := e.executor.Execute(ctx, fresh)
	if err != nil {
		return fmt.Errorf("execute %s: %w", fresh.PathName, err)
	}
	e.logger.Info().Str("path", fresh.PathName).
		Strs("signatures", res.Signatures).
		Str("profit_lamports", fresh.Profit.String()).
		Msg("triangle complete")
	e.rec.Activity(ctx, ledger.EventTradeComplete,
		fmt.Sprintf("%s complete, +%s lamports", fresh.PathName, fresh.Profit.String()),
		map[string]any{"signatures": res.Signatures}, "")
	return nil
}

func (e *Engine) logStartup() {
	a := e.cfg.Arbitrage
	e.logger.Info().
		Uint64("trade_size_lamports", a.TradeSizeLamports).
		Int("min_profit_bps", a.MinProfitBps).
		Int("safety_buffer_bps", a.SafetyBufferBps).
		Float64("max_price_impact_pct", a.MaxPriceImpactPct).
		Int("slippage_bps", a.SlippageBps).
		Bool("requote_before_execute", a.ReQuoteBeforeExecute).
		Dur("poll_interval", e.cfg.PollInterval()).
		Int("paths", len(e.catalog)).
		Msg("scan loop starting")
}
