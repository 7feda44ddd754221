package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/competitor-analyzer/internal/analysis"
	"github.com/jonathan/competitor-analyzer/internal/discovery"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusAndMessage(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "validation",
			err:         &ErrValidation{Field: "company_url", Message: "Company URL is required"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Company URL is required",
		},
		{
			name:        "invalid input from discovery",
			err:         &discovery.InvalidInputError{Input: "  ", Message: "company URL is required"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Company URL is required",
		},
		{
			name:        "input without a company name",
			err:         &discovery.InvalidInputError{Input: "www.", Message: "could not derive a company name"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Could not derive a company name",
		},
		{
			name:        "invalid input without message",
			err:         &discovery.InvalidInputError{Input: "x"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Company URL is required",
		},
		{
			name:        "no competitors",
			err:         &analysis.NoCompetitorsFoundError{CompanyURL: "x.io"},
			wantStatus:  http.StatusNotFound,
			wantMessage: "Could not find competitors",
		},
		{
			name:        "wrapped no competitor data",
			err:         fmt.Errorf("synthesis: %w", &analysis.NoCompetitorDataError{CompanyURL: "x.io"}),
			wantStatus:  http.StatusNotFound,
			wantMessage: "Could not find competitors",
		},
		{
			name:        "deadline",
			err:         context.DeadlineExceeded,
			wantStatus:  http.StatusGatewayTimeout,
			wantMessage: "Analysis failed: context deadline exceeded",
		},
		{
			name:        "llm failure",
			err:         &analysis.SynthesisError{Model: "m", Cause: errors.New("quota")},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Analysis failed: analysis with m failed: quota",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, HTTPStatus(tt.err))
			assert.Equal(t, tt.wantMessage, ErrorMessage(tt.err))
		})
	}
}

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "company_url", Message: "required"}
	assert.Equal(t, "validation error: company_url - required", err.Error())
}
