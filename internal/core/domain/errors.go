package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCaseNotFound     = errors.New("case not found")
	ErrNoDocuments      = errors.New("case has no documents")
	ErrModelRefusal     = errors.New("model refused extraction")
	ErrExtractionFailed = errors.New("extraction produced no usable output")
	ErrAnalysisActive   = errors.New("analysis already running for case")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
