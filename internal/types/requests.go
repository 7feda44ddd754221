// Package types holds the request and response bodies of the HTTP API.
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// AnalyzeRequest is the body of POST /analyze, /analyze/stream and /competitors.
type AnalyzeRequest struct {
	CompanyURL string `json:"company_url" validate:"required,max=2048"`
}

// Normalize trims surrounding whitespace from the company URL.
func (r *AnalyzeRequest) Normalize() {
	r.CompanyURL = strings.TrimSpace(r.CompanyURL)
}

// Validate validates the AnalyzeRequest using the validator.
func (r *AnalyzeRequest) Validate() error {
	return validate.Struct(r)
}

// TokenResponse carries a signed API token.
type TokenResponse struct {
	ClientID  string `json:"client_id"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Search   string `json:"search"`
	LLM      string `json:"llm"`
	Database string `json:"database,omitempty"`
}
