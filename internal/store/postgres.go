package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/solar-viability/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS tariff_rates (
	uf             TEXT NOT NULL,
	concessionaria TEXT NOT NULL,
	name           TEXT NOT NULL,
	base_rate      NUMERIC(10,5) NOT NULL,
	reference_date TEXT NOT NULL,
	is_default     BOOLEAN NOT NULL DEFAULT false,
	PRIMARY KEY (uf, concessionaria)
);

CREATE TABLE IF NOT EXISTS financing_proposals (
	id              TEXT PRIMARY KEY,
	report_id       TEXT,
	status          TEXT NOT NULL DEFAULT 'pending',
	financing       JSONB NOT NULL,
	monthly_savings NUMERIC(14,2) NOT NULL DEFAULT 0,
	cancel_reason   TEXT,
	expires_at      TIMESTAMPTZ NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_financing_proposals_status ON financing_proposals(status);
`

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// ListTariffRates returns the utilities of a UF, default first.
func (s *PostgresStore) ListTariffRates(ctx context.Context, uf model.UF) ([]model.TariffRate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT uf, concessionaria, name, base_rate::text, reference_date, is_default FROM tariff_rates WHERE uf = $1 ORDER BY is_default DESC, concessionaria`,
		string(uf),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tariff rates")
	}
	defer rows.Close()

	var out []model.TariffRate
	for rows.Next() {
		var (
			r        model.TariffRate
			ufStr    string
			baseRate string
		)
		if err := rows.Scan(&ufStr, &r.Concessionaria, &r.Name, &baseRate, &r.ReferenceDate, &r.IsDefault); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tariff rate")
		}
		r.UF = model.UF(ufStr)
		if r.BaseRate, err = decimal.NewFromString(baseRate); err != nil {
			return nil, eris.Wrapf(err, "postgres: parse base rate %q", baseRate)
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate tariff rates")
}

// UpsertTariffRates inserts or replaces rates in one transaction.
func (s *PostgresStore) UpsertTariffRates(ctx context.Context, rates []model.TariffRate) error {
	if len(rates) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: upsert tariff rates: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, r := range rates {
		_, err := tx.Exec(ctx,
			`INSERT INTO tariff_rates (uf, concessionaria, name, base_rate, reference_date, is_default) VALUES ($1, $2, $3, $4::numeric, $5, $6)
			ON CONFLICT (uf, concessionaria) DO UPDATE SET name = EXCLUDED.name, base_rate = EXCLUDED.base_rate, reference_date = EXCLUDED.reference_date, is_default = EXCLUDED.is_default`,
			string(r.UF), r.Concessionaria, r.Name, r.BaseRate.String(), r.ReferenceDate, r.IsDefault,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: upsert tariff rate %s/%s", r.UF, r.Concessionaria)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: upsert tariff rates: commit")
}

// CreateProposal inserts a new proposal.
func (s *PostgresStore) CreateProposal(ctx context.Context, p *model.FinancingProposal) error {
	financing, err := json.Marshal(p.Financing)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal financing")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO financing_proposals (id, report_id, status, financing, monthly_savings, cancel_reason, expires_at, created_at, updated_at) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)`,
		p.ID, p.ReportID, string(p.Status), financing, p.MonthlySavings.String(), p.CancelReason, p.ExpiresAt, p.CreatedAt, p.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: create proposal")
}

// GetProposal returns a proposal by ID or ErrNotFound.
func (s *PostgresStore) GetProposal(ctx context.Context, id string) (*model.FinancingProposal, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, report_id, status, financing, monthly_savings::text, cancel_reason, expires_at, created_at, updated_at FROM financing_proposals WHERE id = $1`,
		id,
	)
	p, err := scanProposal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get proposal %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get proposal")
	}
	return p, nil
}

// UpdateProposal persists a proposal's status fields.
func (s *PostgresStore) UpdateProposal(ctx context.Context, p *model.FinancingProposal) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE financing_proposals SET status = $1, cancel_reason = $2, updated_at = $3 WHERE id = $4`,
		string(p.Status), p.CancelReason, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update proposal")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: update proposal %s", p.ID)
	}
	return nil
}

// ListProposals returns proposals newest first.
func (s *PostgresStore) ListProposals(ctx context.Context, filter ProposalFilter) ([]model.FinancingProposal, error) {
	query := `SELECT id, report_id, status, financing, monthly_savings::text, cancel_reason, expires_at, created_at, updated_at FROM financing_proposals`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC LIMIT ` + strconv.Itoa(limitOrDefault(filter.Limit)) + ` OFFSET ` + strconv.Itoa(max(filter.Offset, 0))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list proposals")
	}
	defer rows.Close()

	var out []model.FinancingProposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan proposal")
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate proposals")
}

func scanProposal(row pgx.Row) (*model.FinancingProposal, error) {
	var (
		p         model.FinancingProposal
		reportID  *string
		status    string
		financing []byte
		savings   string
		reason    *string
	)
	if err := row.Scan(&p.ID, &reportID, &status, &financing, &savings, &reason, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if reportID != nil {
		p.ReportID = *reportID
	}
	if reason != nil {
		p.CancelReason = *reason
	}
	p.Status = model.ProposalStatus(status)
	if err := json.Unmarshal(financing, &p.Financing); err != nil {
		return nil, eris.Wrap(err, "unmarshal financing")
	}
	var err error
	if p.MonthlySavings, err = decimal.NewFromString(savings); err != nil {
		return nil, eris.Wrapf(err, "parse monthly savings %q", savings)
	}
	return &p, nil
}
