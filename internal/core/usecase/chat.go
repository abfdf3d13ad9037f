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

// ChatUseCase handles follow-up questions about a finished analysis. It is
// a downstream consumer of the pipeline's output and never mutates the
// status, log, facts or strategy.
type ChatUseCase struct {
	cases     ports.CaseRepository
	chat      ports.ChatRepository
	completer ports.ChatCompleter
}

func NewChatUseCase(cases ports.CaseRepository, chat ports.ChatRepository, completer ports.ChatCompleter) *ChatUseCase {
	return &ChatUseCase{
		cases:     cases,
		chat:      chat,
		completer: completer,
	}
}

func (uc *ChatUseCase) Send(ctx context.Context, caseID, content string) (*domain.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat", errors.New("message content is required"))
	}

	c, err := uc.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("load case: %w", err)
	}

	userMsg := &domain.ChatMessage{
		ID:        uuid.NewString(),
		CaseID:    caseID,
		Role:      domain.RoleUser,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.chat.Append(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	history, err := uc.chat.ListByCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}

	reply, err := uc.completer.CompleteChat(ctx, c, history)
	if err != nil {
		return nil, fmt.Errorf("complete chat: %w", err)
	}

	assistantMsg := &domain.ChatMessage{
		ID:        uuid.NewString(),
		CaseID:    caseID,
		Role:      domain.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.chat.Append(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("append assistant message: %w", err)
	}
	return assistantMsg, nil
}
