package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/competitor-analyzer/internal/analysis"
	"github.com/jonathan/competitor-analyzer/internal/types"
)

const maxRequestBody = 64 << 10

// decodeAnalyzeRequest reads and validates an AnalyzeRequest body.
func decodeAnalyzeRequest(r *http.Request) (*types.AnalyzeRequest, error) {
	var req types.AnalyzeRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ErrValidation{Field: "body", Message: "Invalid JSON body"}
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "max" {
			return nil, &ErrValidation{Field: "company_url", Message: "Company URL is too long"}
		}
		return nil, &ErrValidation{Field: "company_url", Message: "Company URL is required"}
	}
	return &req, nil
}

// writeError maps err to a status and JSON error body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[SERVER] Request failed: %v", err)
	}
	s.errorResponse(w, status, ErrorMessage(err))
}

// handleAnalyze runs discovery, extraction and synthesis and returns the full result.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAnalyzeRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), req.CompanyURL, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleAnalyzeStream is handleAnalyze with progress reported as Server-Sent Events.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAnalyzeRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), req.CompanyURL, func(event analysis.ProgressEvent) {
		if err := sse.WriteEvent(eventStep, event); err != nil {
			log.Printf("[SERVER] Error writing SSE event: %v", err)
		}
	})
	if err != nil {
		log.Printf("[SERVER] Streaming analysis failed: %v", err)
		sse.WriteError(HTTPStatus(err), ErrorMessage(err))
		return
	}
	sse.WriteComplete(result)
}

// handleCompetitors runs discovery only.
func (s *Server) handleCompetitors(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAnalyzeRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.analyzer.Discover(r.Context(), req.CompanyURL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(result.Competitors) == 0 {
		s.writeError(w, &analysis.NoCompetitorsFoundError{CompanyURL: req.CompanyURL})
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleHealth reports configured providers and database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := types.HealthResponse{
		Status: "ok",
		Search: s.searchName,
		LLM:    s.llmModel,
	}
	if resp.Search == "" {
		resp.Search = "catalog-only"
	}

	if s.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.database.Ping(ctx); err != nil {
			log.Printf("[SERVER] Database ping failed: %v", err)
			resp.Database = "unavailable"
			resp.Status = "degraded"
		} else {
			resp.Database = "ok"
		}
	}

	s.jsonResponse(w, http.StatusOK, resp)
}
