package ports

import (
	"context"
	"io"

	"github.com/reportaway/reportaway/internal/core/domain"
)

// CaseAnalyzer is the inbound contract for running the analysis pipeline.
type CaseAnalyzer interface {
	RunByID(ctx context.Context, caseID string) error
}

// CaseService is the inbound contract for case CRUD.
type CaseService interface {
	Create(ctx context.Context, title string) (*domain.Case, error)
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	List(ctx context.Context) ([]domain.Case, error)
	Delete(ctx context.Context, id string) error
	ReplaceFacts(ctx context.Context, id string, facts map[string]string) error
	RequestAnalysis(ctx context.Context, id string) error
}

// TicketUploader is the inbound contract for document upload.
type TicketUploader interface {
	Upload(ctx context.Context, caseID, filename, mimeType string, size int64, body io.Reader) (*domain.Ticket, error)
}

// CaseChat is the inbound contract for the follow-up chat.
type CaseChat interface {
	Send(ctx context.Context, caseID, content string) (*domain.ChatMessage, error)
}
