package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/reportaway/reportaway/internal/core/domain"
)

func completionBody(content, refusal, finishReason string) string {
	payload := map[string]any{
		"choices": []map[string]any{{
			"message": map[string]any{
				"content": content,
				"refusal": refusal,
			},
			"finish_reason": finishReason,
		}},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestExtractFactsParsesFlatMapping(t *testing.T) {
	var capturedRequest map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&capturedRequest); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(completionBody(`{"citationDate":"2024-01-02","violationCode":"22350","fineAmount":238}`, "", "stop")))
	}))
	defer server.Close()

	extractor := NewExtractor(New(server.URL, "key", "gpt-4o", "gpt-4o", Options{}))
	facts, err := extractor.ExtractFacts(context.Background(), []domain.ContentPart{
		domain.ImagePart("data:image/jpeg;base64,Zg=="),
	})
	if err != nil {
		t.Fatalf("ExtractFacts() error = %v", err)
	}
	if facts["citationDate"] != "2024-01-02" || facts["violationCode"] != "22350" {
		t.Fatalf("unexpected facts: %+v", facts)
	}
	if facts["fineAmount"] != "238" {
		t.Fatalf("non-string scalars should be stringified, got %q", facts["fineAmount"])
	}

	if format, _ := capturedRequest["response_format"].(map[string]any); format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %+v", capturedRequest["response_format"])
	}
}

func TestExtractFactsRefusalIsDistinctKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(completionBody("", "I can't analyze this document.", "stop")))
	}))
	defer server.Close()

	extractor := NewExtractor(New(server.URL, "key", "gpt-4o", "gpt-4o", Options{}))
	_, err := extractor.ExtractFacts(context.Background(), nil)
	if !domain.IsKind(err, domain.ErrModelRefusal) {
		t.Fatalf("expected ErrModelRefusal, got %v", err)
	}
	if !strings.Contains(err.Error(), "I can't analyze this document.") {
		t.Fatalf("refusal reason missing from error: %v", err)
	}
}

func TestExtractFactsEmptyResponseCarriesFinishReason(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(completionBody("", "", "length")))
	}))
	defer server.Close()

	extractor := NewExtractor(New(server.URL, "key", "gpt-4o", "gpt-4o", Options{}))
	_, err := extractor.ExtractFacts(context.Background(), nil)
	if !domain.IsKind(err, domain.ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), `"length"`) {
		t.Fatalf("finish reason missing from error: %v", err)
	}
}

func TestExtractFactsUnparseableResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(completionBody("not json at all", "", "stop")))
	}))
	defer server.Close()

	extractor := NewExtractor(New(server.URL, "key", "gpt-4o", "gpt-4o", Options{}))
	_, err := extractor.ExtractFacts(context.Background(), nil)
	if !domain.IsKind(err, domain.ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestExtractFactsTrimsSurroundingProse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(completionBody("Here you go:\n{\"location\":\"Main St\"}", "", "stop")))
	}))
	defer server.Close()

	extractor := NewExtractor(New(server.URL, "key", "gpt-4o", "gpt-4o", Options{}))
	facts, err := extractor.ExtractFacts(context.Background(), nil)
	if err != nil {
		t.Fatalf("ExtractFacts() error = %v", err)
	}
	if facts["location"] != "Main St" {
		t.Fatalf("unexpected facts: %+v", facts)
	}
}

func TestServerErrorIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	extractor := NewExtractor(New(server.URL, "key", "gpt-4o", "gpt-4o", Options{}))
	_, err := extractor.ExtractFacts(context.Background(), nil)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	if !strings.Contains(err.Error(), "overloaded") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestGenerateStrategyEmbedsFactsAndCoveragePoints(t *testing.T) {
	var capturedRequest struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&capturedRequest); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(completionBody("## Strategy\nFile for discovery.", "", "stop")))
	}))
	defer server.Close()

	strategist := NewStrategist(New(server.URL, "key", "gpt-4o", "gpt-4o", Options{}))
	text, err := strategist.GenerateStrategy(context.Background(), map[string]string{"violationCode": "22350"})
	if err != nil {
		t.Fatalf("GenerateStrategy() error = %v", err)
	}
	if !strings.HasPrefix(text, "## Strategy") {
		t.Fatalf("unexpected strategy text: %q", text)
	}

	if len(capturedRequest.Messages) != 2 || capturedRequest.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", capturedRequest.Messages)
	}
	prompt := capturedRequest.Messages[1].Content
	for _, want := range []string{"22350", "Discovery requests", "Defenses", "probability of success"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestCompleteChatSendsCaseContextAndHistory(t *testing.T) {
	var capturedRequest struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&capturedRequest); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(completionBody("Ask for the calibration records.", "", "stop")))
	}))
	defer server.Close()

	chat := NewChatModel(New(server.URL, "key", "gpt-4o", "gpt-4o", Options{}))
	reply, err := chat.CompleteChat(context.Background(), &domain.Case{
		Title:          "Speeding on Main St",
		Status:         domain.StatusReady,
		StructuredData: map[string]string{"violationCode": "22350"},
		Analysis:       "## Strategy",
	}, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "What should I ask for?"},
	})
	if err != nil {
		t.Fatalf("CompleteChat() error = %v", err)
	}
	if reply == "" {
		t.Fatalf("expected reply")
	}

	if len(capturedRequest.Messages) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(capturedRequest.Messages))
	}
	system := capturedRequest.Messages[0].Content
	if !strings.Contains(system, "Speeding on Main St") || !strings.Contains(system, "22350") {
		t.Fatalf("case context missing from system prompt:\n%s", system)
	}
}

func TestUploadFileReturnsHandle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/files" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if purpose := r.FormValue("purpose"); purpose != "user_data" {
			t.Fatalf("purpose = %q", purpose)
		}
		_, _ = w.Write([]byte(`{"id":"file-abc123"}`))
	}))
	defer server.Close()

	store := NewFileStore(New(server.URL, "key", "gpt-4o", "gpt-4o", Options{}))
	id, err := store.UploadFile(context.Background(), "citation.pdf", []byte("%PDF-1.7"))
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if id != "file-abc123" {
		t.Fatalf("unexpected file id %q", id)
	}
}
