package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/reportaway/reportaway/internal/core/domain"
)

type ChatRepository struct {
	db *sql.DB
}

func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Append(ctx context.Context, m *domain.ChatMessage) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO chat_messages (id, case_id, role, content, created_at)
VALUES ($1,$2,$3,$4,$5)
`, m.ID, m.CaseID, m.Role, m.Content, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (r *ChatRepository) ListByCase(ctx context.Context, caseID string) ([]domain.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, case_id, role, content, created_at
FROM chat_messages
WHERE case_id = $1
ORDER BY created_at, id
`, caseID)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.CaseID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return messages, nil
}
