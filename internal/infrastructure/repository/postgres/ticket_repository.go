package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/reportaway/reportaway/internal/core/domain"
)

type TicketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO tickets (id, case_id, file_ref, filename, mime_type, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, t.ID, t.CaseID, t.FileRef, t.Filename, t.MimeType, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// ListByCase returns tickets in upload order. The extraction request's
// content parts follow this order, which keeps model input stable across
// reruns.
func (r *TicketRepository) ListByCase(ctx context.Context, caseID string) ([]domain.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, case_id, file_ref, filename, mime_type, created_at
FROM tickets
WHERE case_id = $1
ORDER BY created_at, id
`, caseID)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.CaseID, &t.FileRef, &t.Filename, &t.MimeType, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	return tickets, nil
}
