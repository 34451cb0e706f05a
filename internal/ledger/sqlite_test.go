package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreActivity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Activity(ctx, EventOpportunity, "SOL-USDC-USDT: 41 bps", map[string]any{"profit_bps": 41}, "")
	s.Activity(ctx, EventHeartbeat, "cycle 12", nil, "")

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM activity_log`).Scan(&n))
	require.Equal(t, 2, n)

	var kind, message string
	var data *string
	require.NoError(t, s.db.QueryRow(
		`SELECT event_type, message, data FROM activity_log ORDER BY id LIMIT 1`,
	).Scan(&kind, &message, &data))
	require.Equal(t, string(EventOpportunity), kind)
	require.Equal(t, "SOL-USDC-USDT: 41 bps", message)
	require.NotNil(t, data)
	require.JSONEq(t, `{"profit_bps":41}`, *data)
}

func TestStoreTrade(t *testing.T) {
	s := openTestStore(t)

	s.Trade(context.Background(), Trade{
		Signature:      "5KtP9sig",
		InputMint:      "So11111111111111111111111111111111111111112",
		OutputMint:     "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		InputAmount:    "10000000",
		OutputAmount:   "1530000",
		ProfitLamports: "52000",
		ProfitBps:      52,
		Strategy:       "triangular_arb",
		Status:         "success",
	})

	var sig, status string
	var bps int64
	require.NoError(t, s.db.QueryRow(
		`SELECT tx_signature, status, profit_bps FROM trades`,
	).Scan(&sig, &status, &bps))
	require.Equal(t, "5KtP9sig", sig)
	require.Equal(t, "success", status)
	require.EqualValues(t, 52, bps)
}

func TestStoreFailedLegKeepsError(t *testing.T) {
	s := openTestStore(t)

	s.Trade(context.Background(), Trade{
		InputMint:    "a",
		OutputMint:   "b",
		InputAmount:  "1",
		OutputAmount: "0",
		Strategy:     "triangular_arb",
		Status:       "failed",
		ErrorMessage: "leg 2/3 failed: blockhash expired",
	})

	var errMsg string
	require.NoError(t, s.db.QueryRow(`SELECT error_message FROM trades`).Scan(&errMsg))
	require.Contains(t, errMsg, "leg 2/3")
}
