// Package encoder turns stored citation documents into the content parts
// the extraction model consumes. Failures are per-document: a document
// that cannot be encoded still appears in the request as a text
// placeholder, so the model (and the audit trail) always sees every
// uploaded document.
package encoder

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/reportaway/reportaway/internal/core/domain"
	"github.com/reportaway/reportaway/internal/core/ports"
)

const maxPDFTextChars = 8000

type Encoder struct {
	storage ports.ObjectStorage
	files   ports.ModelFileStore
}

func New(storage ports.ObjectStorage, files ports.ModelFileStore) *Encoder {
	return &Encoder{
		storage: storage,
		files:   files,
	}
}

func (e *Encoder) Encode(ctx context.Context, t domain.Ticket) domain.ContentPart {
	switch t.Kind() {
	case domain.KindImage:
		return e.encodeImage(ctx, t)
	case domain.KindPDF:
		return e.encodePDF(ctx, t)
	default:
		return placeholder(t, "has an unsupported format")
	}
}

func (e *Encoder) encodeImage(ctx context.Context, t domain.Ticket) domain.ContentPart {
	// A publicly fetchable object can be referenced directly; anything
	// else is inlined so the model never has to reach our storage.
	if url := e.storage.PublicURL(t.FileRef); url != "" {
		return domain.ImagePart(url)
	}

	raw, err := e.readObject(ctx, t.FileRef)
	if err != nil {
		slog.Warn("image_encode_failed", "ticket_id", t.ID, "file_ref", t.FileRef, "error", err)
		return placeholder(t, "could not be read from storage")
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", t.ImageMime(), base64.StdEncoding.EncodeToString(raw))
	return domain.ImagePart(dataURL)
}

func (e *Encoder) encodePDF(ctx context.Context, t domain.Ticket) domain.ContentPart {
	raw, err := e.readObject(ctx, t.FileRef)
	if err != nil {
		slog.Warn("pdf_read_failed", "ticket_id", t.ID, "file_ref", t.FileRef, "error", err)
		return placeholder(t, "could not be read from storage")
	}

	fileID, err := e.files.UploadFile(ctx, t.Filename, raw)
	if err == nil {
		return domain.FilePart(fileID)
	}
	slog.Warn("pdf_model_upload_failed", "ticket_id", t.ID, "error", err)

	if text, textErr := pdfPlainText(raw); textErr == nil && text != "" {
		return domain.TextPart(fmt.Sprintf("Text extracted locally from PDF document %s:\n%s", t.Filename, text))
	}

	return placeholder(t, "is a PDF that could not be attached or read")
}

func (e *Encoder) readObject(ctx context.Context, key string) ([]byte, error) {
	reader, err := e.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return raw, nil
}

func pdfPlainText(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}
	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var builder strings.Builder
	if _, err := io.Copy(&builder, textReader); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	text := strings.TrimSpace(builder.String())
	if len(text) > maxPDFTextChars {
		text = text[:maxPDFTextChars]
	}
	return text, nil
}

func placeholder(t domain.Ticket, reason string) domain.ContentPart {
	return domain.TextPart(fmt.Sprintf("Document %s %s and could not be provided for analysis.", t.Filename, reason))
}
