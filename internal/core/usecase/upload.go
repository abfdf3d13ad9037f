package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reportaway/reportaway/internal/core/domain"
	"github.com/reportaway/reportaway/internal/core/ports"
)

// UploadTicketUseCase stores one citation document and records it against
// its case. Tickets are immutable inputs to the pipeline after this.
type UploadTicketUseCase struct {
	cases   ports.CaseRepository
	tickets ports.TicketRepository
	storage ports.ObjectStorage
}

func NewUploadTicketUseCase(
	cases ports.CaseRepository,
	tickets ports.TicketRepository,
	storage ports.ObjectStorage,
) *UploadTicketUseCase {
	return &UploadTicketUseCase{
		cases:   cases,
		tickets: tickets,
		storage: storage,
	}
}

func (uc *UploadTicketUseCase) Upload(
	ctx context.Context,
	caseID, filename, mimeType string,
	size int64,
	body io.Reader,
) (*domain.Ticket, error) {
	if _, err := uc.cases.GetByID(ctx, caseID); err != nil {
		return nil, fmt.Errorf("load case: %w", err)
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))

	if err := uc.storage.Save(ctx, storageKey, body, size, mimeType); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	t := &domain.Ticket{
		ID:        id,
		CaseID:    caseID,
		FileRef:   storageKey,
		Filename:  filename,
		MimeType:  mimeType,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.tickets.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create ticket record: %w", err)
	}
	return t, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
