package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"vertex/internal/infra/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS activity_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	event_type   TEXT NOT NULL,
	message      TEXT NOT NULL,
	data         TEXT,
	tx_signature TEXT
);
CREATE TABLE IF NOT EXISTS trades (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	tx_signature    TEXT NOT NULL,
	input_mint      TEXT NOT NULL,
	output_mint     TEXT NOT NULL,
	input_amount    TEXT NOT NULL,
	output_amount   TEXT NOT NULL,
	profit_lamports TEXT,
	profit_bps      INTEGER,
	strategy        TEXT NOT NULL,
	status          TEXT NOT NULL,
	error_message   TEXT
);
`

// Store is a SQLite-backed Recorder.
type Store struct {
	db     *sql.DB
	logger log.Logger
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string, logger log.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Activity(ctx context.Context, kind EventKind, message string, data map[string]any, txSignature string) {
	var payload any
	if len(data) > 0 {
		b, err := json.Marshal(data)
		if err != nil {
			s.logger.Warn().Err(err).Str("event", string(kind)).Msg("activity data not serializable")
		} else {
			payload = string(b)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_log (event_type, message, data, tx_signature) VALUES (?, ?, ?, ?)`,
		string(kind), message, payload, nullable(txSignature))
	if err != nil {
		s.logger.Error().Err(err).Str("event", string(kind)).Msg("activity write failed")
	}
}

func (s *Store) Trade(ctx context.Context, t Trade) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trades (tx_signature, input_mint, output_mint, input_amount, output_amount,
			profit_lamports, profit_bps, strategy, status, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Signature, t.InputMint, t.OutputMint, t.InputAmount, t.OutputAmount,
		nullable(t.ProfitLamports), t.ProfitBps, t.Strategy, t.Status, nullable(t.ErrorMessage))
	if err != nil {
		s.logger.Error().Err(err).Str("signature", t.Signature).Msg("trade write failed")
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
