package main

import (
	"context"
	"flag"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vertex/internal/arbitrage"
	"vertex/internal/config"
	"vertex/internal/infra/health"
	"vertex/internal/infra/http/middleware"
	"vertex/internal/infra/log"
	"vertex/internal/infra/metrics"
	"vertex/internal/infra/netutil"
	"vertex/internal/infra/runner"
	"vertex/internal/infra/version"
	"vertex/internal/jupiter"
	"vertex/internal/ledger"
	"vertex/internal/notify"
	"vertex/internal/solana"
)

func main() {
	_ = godotenv.Load() // .env is optional
	scanOnly := flag.Bool("scan", false, "run a single scan cycle and exit without executing")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	logger := log.NewLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	registry := metrics.Init(logger)

	wallet, err := solana.LoadWallet(cfg.Solana.PrivateKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("wallet load failed")
	}
	rpcClient := solana.NewClient(cfg.Solana.RPCURL, logger)
	jup := jupiter.New(cfg, logger)

	var rec ledger.Recorder = ledger.Nop{}
	if cfg.Ledger.Path != "" {
		store, err := ledger.Open(cfg.Ledger.Path, logger)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.Ledger.Path).Msg("ledger open failed")
		}
		defer store.Close()
		rec = store
	}

	notifier := notify.New(cfg, logger)
	swapper := solana.NewSwapper(jup, rpcClient, wallet, logger)
	seq := arbitrage.NewSequencer(cfg, swapper, rec, notifier, logger)
	eng, err := arbitrage.New(cfg, jup, seq, rec, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("engine init failed")
	}

	logger.Info().Str("wallet", wallet.Address()).Int("paths", len(eng.Catalog())).Msg("vertex starting")

	if *scanOnly {
		runScanOnce(ctx, eng, logger)
		return
	}

	if balance, err := rpcClient.Balance(ctx, wallet.PublicKey()); err != nil {
		logger.Warn().Err(err).Msg("balance check failed")
	} else {
		logger.Info().Uint64("lamports", balance).Msg("wallet balance")
	}

	mux := http.NewServeMux()
	// admin endpoints (metrics, pprof) behind IP allowlist gate
	adminCIDRs := netutil.MustParseCIDRs(cfg.Server.AdminAllowCIDRs)
	mux.Handle("/metrics", middleware.AdminGate(adminCIDRs, metrics.Handler(registry)))
	mux.HandleFunc("/healthz", health.Healthz)
	mux.HandleFunc("/readyz", health.Readyz)
	mux.HandleFunc("/version", version.Handler)
	if cfg.Server.Pprof {
		mux.Handle("/debug/pprof/", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Index)))
		mux.Handle("/debug/pprof/cmdline", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Cmdline)))
		mux.Handle("/debug/pprof/profile", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Profile)))
		mux.Handle("/debug/pprof/symbol", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Symbol)))
		mux.Handle("/debug/pprof/trace", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Trace)))
	}
	handler := middleware.RequestID(middleware.Logger(logger)(mux))

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	g := &runner.Group{}
	workerErrCh := g.Go(ctx, eng.Run)

	health.SetReady(true)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	case s := <-sigCh:
		logger.Info().Str("signal", s.String()).Msg("shutdown signal received")
	case err := <-workerErrCh:
		if err != nil {
			logger.Error().Err(err).Msg("worker error")
			health.SetReady(false)
		}
	}

	health.SetReady(false)
	cancel()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("shutdown complete")
}

// runScanOnce evaluates every catalog path a single time and logs the
// outcome without executing anything.
func runScanOnce(ctx context.Context, eng *arbitrage.Engine, logger log.Logger) {
	opp, err := eng.ScanAll(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("scan failed")
	}
	if opp == nil {
		logger.Info().Msg("no opportunity above threshold")
		return
	}
	logger.Info().Str("path", opp.PathName).
		Int64("profit_bps", opp.ProfitBps).
		Str("profit_lamports", opp.Profit.String()).
		Str("profit_sol", solana.LamportsToSOL(opp.Profit).String()).
		Msg("opportunity")
}
