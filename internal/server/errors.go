// Package server provides the HTTP API for competitor analysis.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/competitor-analyzer/internal/analysis"
	"github.com/jonathan/competitor-analyzer/internal/discovery"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		invalidInput  *discovery.InvalidInputError
		notFound      *analysis.NoCompetitorsFoundError
		noData        *analysis.NoCompetitorDataError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &invalidInput):
		return http.StatusBadRequest
	case errors.As(err, &notFound), errors.As(err, &noData):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage is the client-facing message for err.
func ErrorMessage(err error) string {
	var (
		validationErr *ErrValidation
		invalidInput  *discovery.InvalidInputError
	)
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		if errors.As(err, &validationErr) {
			return validationErr.Message
		}
		if errors.As(err, &invalidInput) && invalidInput.Message != "" {
			return capitalize(invalidInput.Message)
		}
		return "Company URL is required"
	case http.StatusNotFound:
		return "Could not find competitors"
	default:
		return fmt.Sprintf("Analysis failed: %v", err)
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
