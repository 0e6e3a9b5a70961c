package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/sells-group/solar-viability/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Timestamps are stored as RFC 3339 text so ordering and round-trips are exact.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS tariff_rates (
	uf             TEXT NOT NULL,
	concessionaria TEXT NOT NULL,
	name           TEXT NOT NULL,
	base_rate      TEXT NOT NULL,
	reference_date TEXT NOT NULL,
	is_default     INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (uf, concessionaria)
);

CREATE TABLE IF NOT EXISTS financing_proposals (
	id              TEXT PRIMARY KEY,
	report_id       TEXT,
	status          TEXT NOT NULL DEFAULT 'pending',
	financing       TEXT NOT NULL,
	monthly_savings TEXT NOT NULL DEFAULT '0',
	cancel_reason   TEXT,
	expires_at      TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_financing_proposals_status ON financing_proposals(status);
`

// Migrate creates the tables if they do not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListTariffRates returns the utilities of a UF, default first.
func (s *SQLiteStore) ListTariffRates(ctx context.Context, uf model.UF) ([]model.TariffRate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uf, concessionaria, name, base_rate, reference_date, is_default FROM tariff_rates WHERE uf = ? ORDER BY is_default DESC, concessionaria`,
		string(uf),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tariff rates")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.TariffRate
	for rows.Next() {
		var (
			r        model.TariffRate
			ufStr    string
			baseRate string
		)
		if err := rows.Scan(&ufStr, &r.Concessionaria, &r.Name, &baseRate, &r.ReferenceDate, &r.IsDefault); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tariff rate")
		}
		r.UF = model.UF(ufStr)
		if r.BaseRate, err = decimal.NewFromString(baseRate); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse base rate %q", baseRate)
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate tariff rates")
}

// UpsertTariffRates inserts or replaces rates in one transaction.
func (s *SQLiteStore) UpsertTariffRates(ctx context.Context, rates []model.TariffRate) error {
	if len(rates) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: upsert tariff rates: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, r := range rates {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tariff_rates (uf, concessionaria, name, base_rate, reference_date, is_default) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (uf, concessionaria) DO UPDATE SET name = excluded.name, base_rate = excluded.base_rate, reference_date = excluded.reference_date, is_default = excluded.is_default`,
			string(r.UF), r.Concessionaria, r.Name, r.BaseRate.String(), r.ReferenceDate, r.IsDefault,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert tariff rate %s/%s", r.UF, r.Concessionaria)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: upsert tariff rates: commit")
}

// CreateProposal inserts a new proposal.
func (s *SQLiteStore) CreateProposal(ctx context.Context, p *model.FinancingProposal) error {
	financing, err := json.Marshal(p.Financing)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal financing")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO financing_proposals (id, report_id, status, financing, monthly_savings, cancel_reason, expires_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ReportID, string(p.Status), string(financing), p.MonthlySavings.String(), p.CancelReason,
		formatTime(p.ExpiresAt), formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	return eris.Wrap(err, "sqlite: create proposal")
}

// GetProposal returns a proposal by ID or ErrNotFound.
func (s *SQLiteStore) GetProposal(ctx context.Context, id string) (*model.FinancingProposal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, report_id, status, financing, monthly_savings, cancel_reason, expires_at, created_at, updated_at FROM financing_proposals WHERE id = ?`,
		id,
	)
	p, err := scanSQLiteProposal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get proposal %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get proposal")
	}
	return p, nil
}

// UpdateProposal persists a proposal's status fields.
func (s *SQLiteStore) UpdateProposal(ctx context.Context, p *model.FinancingProposal) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE financing_proposals SET status = ?, cancel_reason = ?, updated_at = ? WHERE id = ?`,
		string(p.Status), p.CancelReason, formatTime(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update proposal")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: update proposal rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: update proposal %s", p.ID)
	}
	return nil
}

// ListProposals returns proposals newest first.
func (s *SQLiteStore) ListProposals(ctx context.Context, filter ProposalFilter) ([]model.FinancingProposal, error) {
	query := `SELECT id, report_id, status, financing, monthly_savings, cancel_reason, expires_at, created_at, updated_at FROM financing_proposals`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limitOrDefault(filter.Limit), max(filter.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list proposals")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.FinancingProposal
	for rows.Next() {
		p, err := scanSQLiteProposal(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan proposal")
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate proposals")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteProposal(row rowScanner) (*model.FinancingProposal, error) {
	var (
		p                               model.FinancingProposal
		reportID, reason                sql.NullString
		status, financing, savings      string
		expiresAt, createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &reportID, &status, &financing, &savings, &reason, &expiresAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.ReportID = reportID.String
	p.CancelReason = reason.String
	p.Status = model.ProposalStatus(status)
	if err := json.Unmarshal([]byte(financing), &p.Financing); err != nil {
		return nil, eris.Wrap(err, "unmarshal financing")
	}
	var err error
	if p.MonthlySavings, err = decimal.NewFromString(savings); err != nil {
		return nil, eris.Wrapf(err, "parse monthly savings %q", savings)
	}
	for _, f := range []struct {
		src string
		dst *time.Time
	}{{expiresAt, &p.ExpiresAt}, {createdAt, &p.CreatedAt}, {updatedAt, &p.UpdatedAt}} {
		if *f.dst, err = time.Parse(time.RFC3339Nano, f.src); err != nil {
			return nil, eris.Wrapf(err, "parse time %q", f.src)
		}
	}
	return &p, nil
}

// timeLayout has fixed-width fractions so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
