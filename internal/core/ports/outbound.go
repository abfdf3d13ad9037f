package ports

import (
	"context"
	"io"

	"github.com/reportaway/reportaway/internal/core/domain"
)

// CaseRepository persists case state. The analysis pipeline leans on the
// partial-update methods as its per-stage checkpoints; each one is a single
// atomic write.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	List(ctx context.Context) ([]domain.Case, error)
	Delete(ctx context.Context, id string) error

	// BeginAnalysis sets the status and replaces the whole analysis log in
	// one statement.
	BeginAnalysis(ctx context.Context, id string, status domain.CaseStatus, log []string) error
	AppendLog(ctx context.Context, id string, line string) error
	SaveFacts(ctx context.Context, id string, facts map[string]string) error
	SaveStrategy(ctx context.Context, id string, analysis string) error
	SetStatus(ctx context.Context, id string, status domain.CaseStatus) error
}

// TicketRepository persists uploaded documents. ListByCase returns tickets
// in upload order; the extraction request's content parts follow it.
type TicketRepository interface {
	Create(ctx context.Context, t *domain.Ticket) error
	ListByCase(ctx context.Context, caseID string) ([]domain.Ticket, error)
}

// ChatRepository persists the per-case chat transcript.
type ChatRepository interface {
	Append(ctx context.Context, msg *domain.ChatMessage) error
	ListByCase(ctx context.Context, caseID string) ([]domain.ChatMessage, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// PublicURL returns a URL the model provider can fetch directly, or ""
	// when the object is only privately reachable.
	PublicURL(key string) string
}

// MessageQueue publishes/consumes analysis requests.
type MessageQueue interface {
	PublishAnalysisRequested(ctx context.Context, caseID string) error
	SubscribeAnalysisRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// DocumentEncoder turns one ticket into the content part the extraction
// model consumes. Implementations absorb per-document failures into text
// placeholders instead of returning errors.
type DocumentEncoder interface {
	Encode(ctx context.Context, t domain.Ticket) domain.ContentPart
}

// FactExtractor runs the vision extraction request and returns the flat
// fact mapping.
type FactExtractor interface {
	ExtractFacts(ctx context.Context, parts []domain.ContentPart) (map[string]string, error)
}

// StrategyGenerator turns extracted facts into the narrative defense
// strategy.
type StrategyGenerator interface {
	GenerateStrategy(ctx context.Context, facts map[string]string) (string, error)
}

// ChatCompleter answers a follow-up question with the case record as
// context.
type ChatCompleter interface {
	CompleteChat(ctx context.Context, c *domain.Case, history []domain.ChatMessage) (string, error)
}

// ModelFileStore uploads raw document bytes to the model provider's file
// storage and returns the handle to reference in a request.
type ModelFileStore interface {
	UploadFile(ctx context.Context, filename string, data []byte) (string, error)
}
