package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reportaway/reportaway/internal/core/domain"
	"github.com/reportaway/reportaway/internal/core/ports"
)

const defaultEncodeConcurrency = 4

// AnalyzeCaseUseCase owns the case analysis state machine:
// Open -> Analysis In Progress -> Ready, or back to Open on failure so the
// run stays retriable. Every stage persists before the next one starts, so
// a poller sees live progress in the analysis log.
type AnalyzeCaseUseCase struct {
	cases      ports.CaseRepository
	tickets    ports.TicketRepository
	encoder    ports.DocumentEncoder
	extractor  ports.FactExtractor
	strategist ports.StrategyGenerator

	encodeConcurrency int
	guard             *runGuard
}

func NewAnalyzeCaseUseCase(
	cases ports.CaseRepository,
	tickets ports.TicketRepository,
	encoder ports.DocumentEncoder,
	extractor ports.FactExtractor,
	strategist ports.StrategyGenerator,
	encodeConcurrency int,
) *AnalyzeCaseUseCase {
	if encodeConcurrency <= 0 {
		encodeConcurrency = defaultEncodeConcurrency
	}
	return &AnalyzeCaseUseCase{
		cases:             cases,
		tickets:           tickets,
		encoder:           encoder,
		extractor:         extractor,
		strategist:        strategist,
		encodeConcurrency: encodeConcurrency,
		guard:             newRunGuard(),
	}
}

// RunByID executes the full pipeline for one case. Re-invocation after a
// failure restarts from scratch and overwrites prior log, facts and
// strategy. A second invocation while one is running for the same case id
// is rejected with ErrAnalysisActive before any state mutation.
func (uc *AnalyzeCaseUseCase) RunByID(ctx context.Context, caseID string) error {
	if !uc.guard.tryAcquire(caseID) {
		return domain.WrapError(domain.ErrAnalysisActive, "run analysis", fmt.Errorf("case %s", caseID))
	}
	defer uc.guard.release(caseID)

	ticketDocs, err := uc.preflight(ctx, caseID)
	if err != nil {
		return err
	}

	if err := uc.cases.BeginAnalysis(ctx, caseID, domain.StatusInProgress, []string{
		logLine("Analysis started"),
	}); err != nil {
		return fmt.Errorf("begin analysis: %w", err)
	}

	if err := uc.runStages(ctx, caseID, ticketDocs); err != nil {
		return uc.rollback(ctx, caseID, err)
	}

	return nil
}

// preflight validates the entry contract without mutating the record.
func (uc *AnalyzeCaseUseCase) preflight(ctx context.Context, caseID string) ([]domain.Ticket, error) {
	if _, err := uc.cases.GetByID(ctx, caseID); err != nil {
		return nil, fmt.Errorf("load case: %w", err)
	}

	ticketDocs, err := uc.tickets.ListByCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	if len(ticketDocs) == 0 {
		return nil, domain.WrapError(domain.ErrNoDocuments, "collect documents", errors.New("zero tickets uploaded"))
	}
	return ticketDocs, nil
}

func (uc *AnalyzeCaseUseCase) runStages(ctx context.Context, caseID string, ticketDocs []domain.Ticket) error {
	parts, err := uc.collectDocuments(ctx, ticketDocs)
	if err != nil {
		return err
	}
	if err := uc.cases.AppendLog(ctx, caseID, logLine(fmt.Sprintf("Collected %d document(s) for extraction", len(parts)))); err != nil {
		return fmt.Errorf("log collect stage: %w", err)
	}

	facts, err := uc.extractFacts(ctx, caseID, parts)
	if err != nil {
		return err
	}

	if err := uc.generateStrategy(ctx, caseID, facts); err != nil {
		return err
	}

	if err := uc.cases.AppendLog(ctx, caseID, logLine("Analysis complete")); err != nil {
		return fmt.Errorf("log finalize stage: %w", err)
	}
	if err := uc.cases.SetStatus(ctx, caseID, domain.StatusReady); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

// collectDocuments encodes every ticket into a model content part. Order
// follows ticket upload order regardless of encoding concurrency; the
// encoder absorbs per-document failures into placeholders, so one bad
// document never aborts the run.
func (uc *AnalyzeCaseUseCase) collectDocuments(ctx context.Context, ticketDocs []domain.Ticket) ([]domain.ContentPart, error) {
	parts := make([]domain.ContentPart, len(ticketDocs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.encodeConcurrency)
	for i, t := range ticketDocs {
		g.Go(func() error {
			parts[i] = uc.encoder.Encode(gctx, t)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("encode documents: %w", err)
	}
	return parts, nil
}

func (uc *AnalyzeCaseUseCase) extractFacts(ctx context.Context, caseID string, parts []domain.ContentPart) (map[string]string, error) {
	facts, err := uc.extractor.ExtractFacts(ctx, parts)
	if err != nil {
		return nil, fmt.Errorf("extract facts: %w", err)
	}

	if err := uc.cases.SaveFacts(ctx, caseID, facts); err != nil {
		return nil, fmt.Errorf("save facts: %w", err)
	}
	if err := uc.cases.AppendLog(ctx, caseID, logLine(fmt.Sprintf("Extraction complete: %d fact field(s)", len(facts)))); err != nil {
		return nil, fmt.Errorf("log extract stage: %w", err)
	}
	return facts, nil
}

func (uc *AnalyzeCaseUseCase) generateStrategy(ctx context.Context, caseID string, facts map[string]string) error {
	strategy, err := uc.strategist.GenerateStrategy(ctx, facts)
	if err != nil {
		return fmt.Errorf("generate strategy: %w", err)
	}

	if err := uc.cases.SaveStrategy(ctx, caseID, strategy); err != nil {
		return fmt.Errorf("save strategy: %w", err)
	}
	if err := uc.cases.AppendLog(ctx, caseID, logLine("Strategy generation complete")); err != nil {
		return fmt.Errorf("log strategy stage: %w", err)
	}
	return nil
}

// rollback returns the case to Open after a failed stage so the action is
// safely retriable. Facts already committed by an earlier stage of this
// run stay in place. A persistence failure during the rollback itself is
// unrecoverable here and propagates instead of the stage error.
func (uc *AnalyzeCaseUseCase) rollback(ctx context.Context, caseID string, runErr error) error {
	if err := uc.cases.AppendLog(ctx, caseID, logLine(fmt.Sprintf("Analysis failed: %v", runErr))); err != nil {
		return fmt.Errorf("rollback after %v: %w", runErr, err)
	}
	if err := uc.cases.SetStatus(ctx, caseID, domain.StatusOpen); err != nil {
		return fmt.Errorf("rollback after %v: %w", runErr, err)
	}
	return runErr
}

func logLine(msg string) string {
	return fmt.Sprintf("[%s] %s", time.Now().UTC().Format(time.RFC3339), msg)
}
