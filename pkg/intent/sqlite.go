package intent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/streamfund/donorpay/pkg/currency"
)

// SQLiteStore persists donation intents in a local SQLite database so an
// in-flight intent survives the host process being destroyed by an external
// wallet hand-off.
type SQLiteStore struct {
	sqlDB *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const createIntentsTable = `
CREATE TABLE IF NOT EXISTS donation_intents (
	correlation_id TEXT PRIMARY KEY,
	campaign_id    INTEGER NOT NULL,
	amount         TEXT NOT NULL,
	currency       TEXT NOT NULL,
	donor_name     TEXT NOT NULL DEFAULT '',
	donor_message  TEXT NOT NULL DEFAULT '',
	route          TEXT NOT NULL,
	wallet_app     TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	tx_hash        TEXT NOT NULL DEFAULT '',
	created_at     INTEGER NOT NULL,
	expires_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_donation_intents_status ON donation_intents(status);`

// OpenSQLiteStore opens (creating if needed) the intent database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(createIntentsTable); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create intents table: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func (s *SQLiteStore) Save(ctx context.Context, i *DonationIntent) error {
	if i.CorrelationID == "" {
		return fmt.Errorf("correlation id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO donation_intents
			(correlation_id, campaign_id, amount, currency, donor_name, donor_message,
			 route, wallet_app, status, tx_hash, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(correlation_id) DO UPDATE SET
			status = excluded.status,
			tx_hash = excluded.tx_hash,
			route = excluded.route,
			wallet_app = excluded.wallet_app`,
		i.CorrelationID, i.CampaignID, i.Amount, string(i.Currency), i.DonorName,
		i.DonorMessage, string(i.Route), i.WalletApp, string(i.Status), i.TxHash,
		toMillis(i.CreatedAt), toMillis(i.ExpiresAt))
	if err != nil {
		return fmt.Errorf("save intent %s: %w", i.CorrelationID, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, correlationID string) (*DonationIntent, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT correlation_id, campaign_id, amount, currency, donor_name, donor_message,
		        route, wallet_app, status, tx_hash, created_at, expires_at
		   FROM donation_intents WHERE correlation_id = ?`, correlationID)
	return scanIntent(row)
}

func (s *SQLiteStore) LoadAwaitingReturn(ctx context.Context) (*DonationIntent, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT correlation_id, campaign_id, amount, currency, donor_name, donor_message,
		        route, wallet_app, status, tx_hash, created_at, expires_at
		   FROM donation_intents WHERE status = ? ORDER BY created_at DESC LIMIT 1`,
		string(StatusAwaitingRedirectReturn))
	return scanIntent(row)
}

func (s *SQLiteStore) LoadActive(ctx context.Context) (*DonationIntent, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT correlation_id, campaign_id, amount, currency, donor_name, donor_message,
		        route, wallet_app, status, tx_hash, created_at, expires_at
		   FROM donation_intents WHERE status IN (?, ?, ?) ORDER BY created_at DESC LIMIT 1`,
		string(StatusAwaitingSignature), string(StatusAwaitingRedirectReturn), string(StatusSubmitted))
	return scanIntent(row)
}

func (s *SQLiteStore) Delete(ctx context.Context, correlationID string) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM donation_intents WHERE correlation_id = ?`, correlationID); err != nil {
		return fmt.Errorf("delete intent %s: %w", correlationID, err)
	}
	return nil
}

func scanIntent(row *sql.Row) (*DonationIntent, error) {
	var (
		i                    DonationIntent
		currencyCode         string
		route, status        string
		createdAt, expiresAt int64
	)
	err := row.Scan(&i.CorrelationID, &i.CampaignID, &i.Amount, &currencyCode,
		&i.DonorName, &i.DonorMessage, &route, &i.WalletApp, &status, &i.TxHash,
		&createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan intent: %w", err)
	}
	i.Currency = currency.Currency(currencyCode)
	i.Route = Route(route)
	i.Status = Status(status)
	i.CreatedAt = fromMillis(createdAt)
	i.ExpiresAt = fromMillis(expiresAt)
	return &i, nil
}
