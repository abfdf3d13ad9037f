package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
)

// FileStore uploads document bytes to the provider's auxiliary file
// storage so a request can reference them by handle instead of inlining
// the content.
type FileStore struct {
	client *Client
}

func NewFileStore(client *Client) *FileStore {
	return &FileStore{client: client}
}

func (s *FileStore) UploadFile(ctx context.Context, filename string, data []byte) (string, error) {
	var response struct {
		ID string `json:"id"`
	}

	err := s.client.postMultipart(ctx, "/v1/files", func(w *multipart.Writer) error {
		if err := w.WriteField("purpose", "user_data"); err != nil {
			return err
		}
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, bytes.NewReader(data))
		return err
	}, &response, "upload file")
	if err != nil {
		return "", wrapTemporaryIfNeeded("upload file", err)
	}
	if response.ID == "" {
		return "", fmt.Errorf("file upload returned no id")
	}
	return response.ID, nil
}
