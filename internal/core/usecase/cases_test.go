package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/reportaway/reportaway/internal/core/domain"
)

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishAnalysisRequested(_ context.Context, caseID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, caseID)
	return nil
}

func (f *queueFake) SubscribeAnalysisRequested(context.Context, func(context.Context, string) error) error {
	return nil
}

func TestCreateCaseRequiresTitle(t *testing.T) {
	uc := NewCaseUseCase(&caseRepoFake{c: openCase()}, &ticketRepoFake{}, &queueFake{})

	_, err := uc.Create(context.Background(), "   ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateCaseStartsOpen(t *testing.T) {
	uc := NewCaseUseCase(&caseRepoFake{c: openCase()}, &ticketRepoFake{}, &queueFake{})

	c, err := uc.Create(context.Background(), "Red light on 5th Ave")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.Status != domain.StatusOpen {
		t.Fatalf("new case status = %s", c.Status)
	}
	if c.ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestRequestAnalysisFailsWithoutTickets(t *testing.T) {
	queue := &queueFake{}
	uc := NewCaseUseCase(&caseRepoFake{c: openCase()}, &ticketRepoFake{}, queue)

	err := uc.RequestAnalysis(context.Background(), "case-1")
	if !domain.IsKind(err, domain.ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
	if len(queue.published) != 0 {
		t.Fatalf("nothing should be published, got %+v", queue.published)
	}
}

func TestRequestAnalysisPublishesCaseID(t *testing.T) {
	queue := &queueFake{}
	uc := NewCaseUseCase(
		&caseRepoFake{c: openCase()},
		&ticketRepoFake{tickets: []domain.Ticket{jpegTicket()}},
		queue,
	)

	if err := uc.RequestAnalysis(context.Background(), "case-1"); err != nil {
		t.Fatalf("RequestAnalysis() error = %v", err)
	}
	if len(queue.published) != 1 || queue.published[0] != "case-1" {
		t.Fatalf("unexpected publishes: %+v", queue.published)
	}
}

func TestReplaceFactsRejectsNilMapping(t *testing.T) {
	uc := NewCaseUseCase(&caseRepoFake{c: openCase()}, &ticketRepoFake{}, &queueFake{})

	err := uc.ReplaceFacts(context.Background(), "case-1", nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDeleteCaseRequiresExistingCase(t *testing.T) {
	repo := &caseRepoFake{
		c:      openCase(),
		getErr: domain.WrapError(domain.ErrCaseNotFound, "fetch case", errors.New("missing")),
	}
	uc := NewCaseUseCase(repo, &ticketRepoFake{}, &queueFake{})

	err := uc.Delete(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound, got %v", err)
	}
}
