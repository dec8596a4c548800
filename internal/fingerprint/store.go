package fingerprint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fraudshield/docintake/internal/common"
)

// Store persists submission fingerprints in an embedded sqlite database.
// Each concurrent unit of work should open its own Store; sqlite in WAL
// mode tolerates concurrent readers with a single writer.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS fingerprints (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path    TEXT NOT NULL UNIQUE,
	exact_fp     TEXT,
	fuzzy_fp     TEXT,
	merchant     TEXT DEFAULT '',
	receipt_date TEXT DEFAULT '',
	total_amount REAL,
	currency     TEXT DEFAULT '',
	geo          TEXT DEFAULT '',
	created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_fingerprints_exact ON fingerprints(exact_fp);
CREATE INDEX IF NOT EXISTS idx_fingerprints_fuzzy ON fingerprints(fuzzy_fp);
`

// Open creates/opens the store at path and ensures the schema exists.
// An unwritable path is a configuration error and is returned as fatal;
// everything after a successful Open degrades instead of failing.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, common.WrapError(err, "create store dir")
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, common.WrapError(err, "open fingerprint store")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, common.NewAppError("STORE_ERROR", "init fingerprint schema", err)
	}

	logger.Debug("fingerprint store open", "path", path)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CheckRequest identifies one submission by file id plus its resolved
// entity fields. Merchant/date/amount may be missing.
type CheckRequest struct {
	FileID   string
	Merchant string
	Date     string
	Amount   *float64
	Currency string
	Geo      string
}

// Verdict is the advisory duplicate-detection outcome.
type Verdict struct {
	IsDuplicate     bool         `json:"is_duplicate"`
	MatchType       string       `json:"match_type,omitempty"` // "exact" | "fuzzy"
	MatchedFile     string       `json:"matched_file,omitempty"`
	MatchedMerchant string       `json:"matched_merchant,omitempty"`
	MatchedDate     string       `json:"matched_date,omitempty"`
	MatchedTotal    *float64     `json:"matched_total,omitempty"`
	Fingerprints    Fingerprints `json:"fingerprints"`
	Details         string       `json:"details,omitempty"`
}

// CheckDuplicate looks the submission's fingerprints up against prior
// submissions; exact match (same file excluded) wins over fuzzy. On a
// miss the submission is registered, keyed on file id and idempotent on
// repeat calls. Storage failures are logged and reported as "no
// duplicate, check failed": duplicate detection is advisory, never a
// hard gate.
func (s *Store) CheckDuplicate(ctx context.Context, req CheckRequest) Verdict {
	fps := Compute(req.Merchant, req.Date, req.Amount)
	v := Verdict{Fingerprints: fps}

	if req.FileID == "" {
		v.Details = "missing file id"
		return v
	}

	// Check-then-insert inside one transaction. Two concurrent callers on
	// separate connections can still both miss and both register; the
	// store is advisory, so the worst case is one undetected duplicate.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.failed(v, "begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if fps.Exact != nil {
		if m, err := s.lookup(ctx, tx, "exact_fp", *fps.Exact, req.FileID); err != nil {
			return s.failed(v, "exact lookup", err)
		} else if m != nil {
			v.IsDuplicate = true
			v.MatchType = "exact"
			v.MatchedFile = m.file
			v.MatchedMerchant = m.merchant
			v.MatchedDate = m.date
			v.MatchedTotal = m.total
			_ = tx.Commit()
			return v
		}
	}
	if fps.Fuzzy != nil {
		if m, err := s.lookup(ctx, tx, "fuzzy_fp", *fps.Fuzzy, req.FileID); err != nil {
			return s.failed(v, "fuzzy lookup", err)
		} else if m != nil {
			v.IsDuplicate = true
			v.MatchType = "fuzzy"
			v.MatchedFile = m.file
			v.MatchedMerchant = m.merchant
			v.MatchedDate = m.date
			v.MatchedTotal = m.total
			_ = tx.Commit()
			return v
		}
	}

	if err := s.register(ctx, tx, req, fps); err != nil {
		return s.failed(v, "register", err)
	}
	if err := tx.Commit(); err != nil {
		return s.failed(v, "commit", err)
	}

	if fps.Exact == nil {
		v.Details = "insufficient signal, registered without fingerprints"
	} else {
		v.Details = "registered"
	}
	return v
}

type match struct {
	file     string
	merchant string
	date     string
	total    *float64
}

func (s *Store) lookup(ctx context.Context, tx *sql.Tx, column, fp, excludeFile string) (*match, error) {
	q := fmt.Sprintf(
		`SELECT file_path, merchant, receipt_date, total_amount
		 FROM fingerprints WHERE %s = ? AND file_path != ?
		 ORDER BY created_at LIMIT 1`, column)

	var m match
	var total sql.NullFloat64
	err := tx.QueryRowContext(ctx, q, fp, excludeFile).Scan(&m.file, &m.merchant, &m.date, &total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if total.Valid {
		m.total = &total.Float64
	}
	return &m, nil
}

func (s *Store) register(ctx context.Context, tx *sql.Tx, req CheckRequest, fps Fingerprints) error {
	var total any
	if req.Amount != nil {
		total = *req.Amount
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO fingerprints (file_path, exact_fp, fuzzy_fp, merchant, receipt_date, total_amount, currency, geo, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(file_path) DO UPDATE SET
			exact_fp = excluded.exact_fp,
			fuzzy_fp = excluded.fuzzy_fp,
			merchant = excluded.merchant,
			receipt_date = excluded.receipt_date,
			total_amount = excluded.total_amount,
			currency = excluded.currency,
			geo = excluded.geo`,
		req.FileID, nullable(fps.Exact), nullable(fps.Fuzzy),
		fps.Components.Merchant, fps.Components.Date, total,
		req.Currency, req.Geo, time.Now().UTC(),
	)
	return err
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func (s *Store) failed(v Verdict, op string, err error) Verdict {
	s.logger.Error("fingerprint check failed", "op", op, "error", err)
	v.IsDuplicate = false
	v.MatchType = ""
	v.Details = fmt.Sprintf("check failed: %s: %v", op, err)
	return v
}

// Count returns the number of registered submissions.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fingerprints`).Scan(&n)
	return n, err
}

// Clear removes every registered fingerprint and returns how many were
// deleted. The only destructive operation on the store.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fingerprints`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
