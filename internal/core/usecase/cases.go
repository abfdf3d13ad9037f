package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reportaway/reportaway/internal/core/domain"
	"github.com/reportaway/reportaway/internal/core/ports"
)

// CaseUseCase covers the single-step case record operations.
type CaseUseCase struct {
	cases   ports.CaseRepository
	tickets ports.TicketRepository
	queue   ports.MessageQueue
}

func NewCaseUseCase(cases ports.CaseRepository, tickets ports.TicketRepository, queue ports.MessageQueue) *CaseUseCase {
	return &CaseUseCase{
		cases:   cases,
		tickets: tickets,
		queue:   queue,
	}
}

func (uc *CaseUseCase) Create(ctx context.Context, title string) (*domain.Case, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create case", errors.New("title is required"))
	}

	now := time.Now().UTC()
	c := &domain.Case{
		ID:             uuid.NewString(),
		Title:          title,
		Status:         domain.StatusOpen,
		AnalysisLog:    []string{},
		StructuredData: map[string]string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.cases.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create case record: %w", err)
	}
	return c, nil
}

func (uc *CaseUseCase) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	return uc.cases.GetByID(ctx, id)
}

func (uc *CaseUseCase) List(ctx context.Context) ([]domain.Case, error) {
	return uc.cases.List(ctx)
}

// Delete removes the case; tickets and chat messages cascade with it.
func (uc *CaseUseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.cases.GetByID(ctx, id); err != nil {
		return fmt.Errorf("load case: %w", err)
	}
	if err := uc.cases.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete case record: %w", err)
	}
	return nil
}

// ReplaceFacts overwrites the structured fact mapping wholesale. Used by
// the manual facts editor; the pipeline never goes through here.
func (uc *CaseUseCase) ReplaceFacts(ctx context.Context, id string, facts map[string]string) error {
	if facts == nil {
		return domain.WrapError(domain.ErrInvalidInput, "replace facts", errors.New("facts mapping is required"))
	}
	if _, err := uc.cases.GetByID(ctx, id); err != nil {
		return fmt.Errorf("load case: %w", err)
	}
	if err := uc.cases.SaveFacts(ctx, id, facts); err != nil {
		return fmt.Errorf("save facts: %w", err)
	}
	return nil
}

// RequestAnalysis validates the case and hands the run off to the worker
// via the queue. The worker enforces the full entry contract again.
func (uc *CaseUseCase) RequestAnalysis(ctx context.Context, id string) error {
	if _, err := uc.cases.GetByID(ctx, id); err != nil {
		return fmt.Errorf("load case: %w", err)
	}
	ticketDocs, err := uc.tickets.ListByCase(ctx, id)
	if err != nil {
		return fmt.Errorf("list tickets: %w", err)
	}
	if len(ticketDocs) == 0 {
		return domain.WrapError(domain.ErrNoDocuments, "request analysis", errors.New("zero tickets uploaded"))
	}
	if err := uc.queue.PublishAnalysisRequested(ctx, id); err != nil {
		return fmt.Errorf("publish analysis request: %w", err)
	}
	return nil
}
