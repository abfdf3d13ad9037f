package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/reportaway/reportaway/internal/core/domain"
	"github.com/reportaway/reportaway/internal/infrastructure/resilience"
)

// Client talks to an OpenAI-compatible chat completions API. One instance
// is shared by the extraction, strategy and chat roles; each role is a
// separate struct so use cases depend only on the capability they need.
type Client struct {
	baseURL     string
	apiKey      string
	visionModel string
	textModel   string
	httpClient  *http.Client
	executor    *resilience.Executor
}

type Options struct {
	ResilienceExecutor *resilience.Executor
	Timeout            time.Duration
}

func New(baseURL, apiKey, visionModel, textModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		visionModel: visionModel,
		textModel:   textModel,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    options.ResilienceExecutor,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Extractor runs the vision extraction request.
type Extractor struct {
	client *Client
}

func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

func (e *Extractor) ExtractFacts(ctx context.Context, parts []domain.ContentPart) (map[string]string, error) {
	content := make([]any, 0, len(parts)+1)
	content = append(content, map[string]any{"type": "text", "text": extractionInstruction})
	for _, part := range parts {
		content = append(content, wirePart(part))
	}

	request := map[string]any{
		"model": e.client.visionModel,
		"messages": []chatMessage{
			{Role: "system", Content: extractionSystemPrompt},
			{Role: "user", Content: content},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	var response chatCompletionResponse
	if err := e.client.complete(ctx, "extract", request, &response); err != nil {
		return nil, err
	}
	return validateExtraction(response)
}

// validateExtraction decides between refusal, empty and ok. No schema is
// enforced on the mapping's keys; the field set varies per citation type
// and is rendered generically downstream.
func validateExtraction(response chatCompletionResponse) (map[string]string, error) {
	if len(response.Choices) == 0 {
		return nil, domain.WrapError(domain.ErrExtractionFailed, "extract facts", errors.New("response has no choices"))
	}

	choice := response.Choices[0]
	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		return nil, domain.WrapError(domain.ErrModelRefusal, "extract facts", errors.New(refusal))
	}

	raw := strings.TrimSpace(choice.Message.Content)
	if raw == "" {
		return nil, domain.WrapError(
			domain.ErrExtractionFailed,
			"extract facts",
			fmt.Errorf("empty response, finish reason %q", choice.FinishReason),
		)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &fields); err != nil {
		return nil, domain.WrapError(domain.ErrExtractionFailed, "parse extraction json", err)
	}

	facts := make(map[string]string, len(fields))
	for key, value := range fields {
		switch v := value.(type) {
		case string:
			facts[key] = v
		case nil:
			facts[key] = ""
		default:
			facts[key] = fmt.Sprintf("%v", v)
		}
	}
	return facts, nil
}

func wirePart(part domain.ContentPart) map[string]any {
	switch part.Kind {
	case domain.PartImageURL:
		return map[string]any{"type": "image_url", "image_url": map[string]string{"url": part.ImageURL}}
	case domain.PartFileID:
		return map[string]any{"type": "file", "file": map[string]string{"file_id": part.FileID}}
	default:
		return map[string]any{"type": "text", "text": part.Text}
	}
}

// Strategist turns the extracted fact sheet into the defense strategy.
type Strategist struct {
	client *Client
}

func NewStrategist(client *Client) *Strategist {
	return &Strategist{client: client}
}

func (s *Strategist) GenerateStrategy(ctx context.Context, facts map[string]string) (string, error) {
	request := map[string]any{
		"model": s.client.textModel,
		"messages": []chatMessage{
			{Role: "system", Content: strategySystemPrompt},
			{Role: "user", Content: buildStrategyPrompt(facts)},
		},
	}

	var response chatCompletionResponse
	if err := s.client.complete(ctx, "strategy", request, &response); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("strategy response has no choices")
	}
	text := strings.TrimSpace(response.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("strategy response is empty, finish reason %q", response.Choices[0].FinishReason)
	}
	return text, nil
}

// ChatModel answers follow-up questions with the case record as context.
type ChatModel struct {
	client *Client
}

func NewChatModel(client *Client) *ChatModel {
	return &ChatModel{client: client}
}

func (m *ChatModel) CompleteChat(ctx context.Context, c *domain.Case, history []domain.ChatMessage) (string, error) {
	messages := make([]chatMessage, 0, len(history)+1)
	messages = append(messages, chatMessage{Role: "system", Content: buildChatSystemPrompt(c)})
	for _, msg := range history {
		messages = append(messages, chatMessage{Role: string(msg.Role), Content: msg.Content})
	}

	request := map[string]any{
		"model":    m.client.textModel,
		"messages": messages,
	}

	var response chatCompletionResponse
	if err := m.client.complete(ctx, "chat", request, &response); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func (c *Client) complete(ctx context.Context, operation string, request map[string]any, out *chatCompletionResponse) error {
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/v1/chat/completions", request, out, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openai."+operation, call, classifyModelError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}

// extractJSONObject trims any prose the model wraps around the JSON body.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
