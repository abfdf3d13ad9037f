package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Ticket is one uploaded citation document. Immutable after upload; the
// pipeline only ever reads it.
type Ticket struct {
	ID        string    `json:"id"`
	CaseID    string    `json:"case_id"`
	FileRef   string    `json:"file_ref"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mime_type"`
	CreatedAt time.Time `json:"created_at"`
}

type DocumentKind string

const (
	KindImage       DocumentKind = "image"
	KindPDF         DocumentKind = "pdf"
	KindUnsupported DocumentKind = "unsupported"
)

var imageMimeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Kind classifies the ticket by file extension of its stored object.
func (t Ticket) Kind() DocumentKind {
	ext := strings.ToLower(filepath.Ext(t.FileRef))
	if _, ok := imageMimeByExt[ext]; ok {
		return KindImage
	}
	if ext == ".pdf" {
		return KindPDF
	}
	return KindUnsupported
}

// ImageMime returns the best-effort mime type inferred from the extension.
func (t Ticket) ImageMime() string {
	ext := strings.ToLower(filepath.Ext(t.FileRef))
	if mime, ok := imageMimeByExt[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

type PartKind string

const (
	PartText     PartKind = "text"
	PartImageURL PartKind = "image_url"
	PartFileID   PartKind = "file"
)

// ContentPart is one entry of the extraction request's user content.
// Exactly one of Text, ImageURL or FileID is set depending on Kind.
type ContentPart struct {
	Kind     PartKind
	Text     string
	ImageURL string
	FileID   string
}

func TextPart(text string) ContentPart   { return ContentPart{Kind: PartText, Text: text} }
func ImagePart(url string) ContentPart   { return ContentPart{Kind: PartImageURL, ImageURL: url} }
func FilePart(fileID string) ContentPart { return ContentPart{Kind: PartFileID, FileID: fileID} }
