package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/reportaway/reportaway/internal/core/domain"
)

type CaseRepository struct {
	db *sql.DB
}

func NewCaseRepository(db *sql.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CaseRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS cases (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	status TEXT NOT NULL,
	analysis_log JSONB NOT NULL DEFAULT '[]'::jsonb,
	structured_data JSONB NOT NULL DEFAULT '{}'::jsonb,
	analysis TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS tickets (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	file_ref TEXT NOT NULL,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status);
CREATE INDEX IF NOT EXISTS idx_cases_created_at ON cases(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_tickets_case_id ON tickets(case_id, created_at);
CREATE INDEX IF NOT EXISTS idx_chat_messages_case_id ON chat_messages(case_id, created_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *CaseRepository) Create(ctx context.Context, c *domain.Case) error {
	logJSON, err := json.Marshal(c.AnalysisLog)
	if err != nil {
		return fmt.Errorf("marshal analysis log: %w", err)
	}
	factsJSON, err := json.Marshal(c.StructuredData)
	if err != nil {
		return fmt.Errorf("marshal structured data: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO cases (id, title, status, analysis_log, structured_data, analysis, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		c.ID, c.Title, string(c.Status), logJSON, factsJSON, c.Analysis, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (r *CaseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, status, analysis_log, structured_data, COALESCE(analysis, ''), created_at, updated_at
FROM cases
WHERE id = $1
`, id)

	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrCaseNotFound, "fetch case", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan case: %w", err)
	}
	return c, nil
}

func (r *CaseRepository) List(ctx context.Context) ([]domain.Case, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, status, analysis_log, structured_data, COALESCE(analysis, ''), created_at, updated_at
FROM cases
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	var cases []domain.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return cases, nil
}

// Delete removes the case row; tickets and chat messages go with it via
// the FK cascade.
func (r *CaseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	return requireRow(result, "delete case", id)
}

// BeginAnalysis is the pipeline's first checkpoint: the status flips and
// the log is replaced wholesale in one statement, so a crash cannot leave
// a fresh status over a stale log.
func (r *CaseRepository) BeginAnalysis(ctx context.Context, id string, status domain.CaseStatus, log []string) error {
	logJSON, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshal analysis log: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE cases
SET status = $2, analysis_log = $3, updated_at = $4
WHERE id = $1
`, id, string(status), logJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("begin analysis: %w", err)
	}
	return requireRow(result, "begin analysis", id)
}

func (r *CaseRepository) AppendLog(ctx context.Context, id string, line string) error {
	lineJSON, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("marshal log line: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE cases
SET analysis_log = analysis_log || $2::jsonb, updated_at = $3
WHERE id = $1
`, id, lineJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return requireRow(result, "append log", id)
}

func (r *CaseRepository) SaveFacts(ctx context.Context, id string, facts map[string]string) error {
	factsJSON, err := json.Marshal(facts)
	if err != nil {
		return fmt.Errorf("marshal structured data: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE cases
SET structured_data = $2, updated_at = $3
WHERE id = $1
`, id, factsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save facts: %w", err)
	}
	return requireRow(result, "save facts", id)
}

func (r *CaseRepository) SaveStrategy(ctx context.Context, id string, analysis string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE cases
SET analysis = $2, updated_at = $3
WHERE id = $1
`, id, analysis, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save strategy: %w", err)
	}
	return requireRow(result, "save strategy", id)
}

func (r *CaseRepository) SetStatus(ctx context.Context, id string, status domain.CaseStatus) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE cases
SET status = $2, updated_at = $3
WHERE id = $1
`, id, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set case status: %w", err)
	}
	return requireRow(result, "set case status", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*domain.Case, error) {
	var c domain.Case
	var logRaw, factsRaw []byte
	var status string

	err := row.Scan(&c.ID, &c.Title, &status, &logRaw, &factsRaw, &c.Analysis, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(logRaw, &c.AnalysisLog); err != nil {
		return nil, fmt.Errorf("unmarshal analysis log: %w", err)
	}
	if err := json.Unmarshal(factsRaw, &c.StructuredData); err != nil {
		return nil, fmt.Errorf("unmarshal structured data: %w", err)
	}
	c.Status = domain.CaseStatus(status)
	return &c, nil
}

func requireRow(result sql.Result, operation, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrCaseNotFound, operation, fmt.Errorf("id %s", id))
	}
	return nil
}
