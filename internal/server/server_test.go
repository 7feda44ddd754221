package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/competitor-analyzer/internal/analysis"
	"github.com/jonathan/competitor-analyzer/internal/config"
	"github.com/jonathan/competitor-analyzer/internal/discovery"
	"github.com/jonathan/competitor-analyzer/internal/llm"
	"github.com/jonathan/competitor-analyzer/internal/server/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	result    *analysis.Result
	discover  *discovery.Result
	err       error
	lastInput string
}

func (f *fakeAnalyzer) Discover(_ context.Context, companyURL string) (*discovery.Result, error) {
	f.lastInput = companyURL
	return f.discover, f.err
}

func (f *fakeAnalyzer) Analyze(_ context.Context, companyURL string, onProgress analysis.ProgressCallback) (*analysis.Result, error) {
	f.lastInput = companyURL
	if onProgress != nil {
		onProgress(analysis.ProgressEvent{Step: analysis.StepDiscovering, Message: "finding"})
		onProgress(analysis.ProgressEvent{Step: analysis.StepAnalyzing, Message: "writing"})
	}
	return f.result, f.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func sampleResult() *analysis.Result {
	return &analysis.Result{
		CompanyURL: "apple.com",
		Competitors: []analysis.CompetitorContent{
			{Name: "Samsung", URL: "https://www.samsung.com", Content: "Galaxy AI"},
		},
		Recommendations: &analysis.Report{Analysis: "report", GeneratedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Model: "m"},
	}
}

func newTestServer(t *testing.T, a Analyzer, mutate func(*Config)) *Server {
	t.Helper()
	cfg := Config{
		Analyzer:  a,
		RateLimit: &ratelimit.Config{Enabled: false},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	msg, _ := body["error"].(string)
	return msg
}

func TestNew_RequiresAnalyzer(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestAnalyzeEndpoint_Success(t *testing.T) {
	fake := &fakeAnalyzer{result: sampleResult()}
	s := newTestServer(t, fake, nil)

	w := do(t, s.Handler(), http.MethodPost, "/analyze", `{"company_url": "  apple.com  "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "apple.com", fake.lastInput)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "apple.com", body["company_url"])
	competitors := body["competitors"].([]any)
	require.Len(t, competitors, 1)
	first := competitors[0].(map[string]any)
	assert.Equal(t, "Samsung", first["name"])
	assert.Equal(t, "https://www.samsung.com", first["url"])
	assert.Equal(t, "Galaxy AI", first["content"])
	recs := body["recommendations"].(map[string]any)
	assert.Equal(t, "report", recs["analysis"])
}

func TestAnalyzeEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{name: "empty url", body: `{"company_url": ""}`, wantStatus: http.StatusBadRequest, wantMessage: "Company URL is required"},
		{name: "whitespace url", body: `{"company_url": "   "}`, wantStatus: http.StatusBadRequest, wantMessage: "Company URL is required"},
		{name: "missing field", body: `{}`, wantStatus: http.StatusBadRequest, wantMessage: "Company URL is required"},
		{name: "empty body", body: ``, wantStatus: http.StatusBadRequest, wantMessage: "Company URL is required"},
		{
			name:        "no company name in url",
			body:        `{"company_url": "https://.com"}`,
			err:         &discovery.InvalidInputError{Input: "https://.com", Message: "could not derive a company name"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Could not derive a company name",
		},
		{name: "invalid json", body: `{not json`, wantStatus: http.StatusBadRequest, wantMessage: "Invalid JSON body"},
		{name: "too long", body: `{"company_url": "` + strings.Repeat("a", 3000) + `"}`, wantStatus: http.StatusBadRequest, wantMessage: "Company URL is too long"},
		{
			name:        "no competitors",
			body:        `{"company_url": "nothing.io"}`,
			err:         &analysis.NoCompetitorsFoundError{CompanyURL: "nothing.io"},
			wantStatus:  http.StatusNotFound,
			wantMessage: "Could not find competitors",
		},
		{
			name:        "unexpected failure",
			body:        `{"company_url": "apple.com"}`,
			err:         errors.New("llm down"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Analysis failed: llm down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeAnalyzer{err: tt.err}, nil)
			w := do(t, s.Handler(), http.MethodPost, "/analyze", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantMessage, decodeError(t, w))
		})
	}
}

func TestAnalyzeEndpoint_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{}, nil)
	w := do(t, s.Handler(), http.MethodGet, "/analyze", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCompetitorsEndpoint(t *testing.T) {
	fake := &fakeAnalyzer{discover: &discovery.Result{
		Company:     discovery.CompanyIdentifier{RawInput: "apple.com", CanonicalURL: "https://apple.com", RootLabel: "apple"},
		Competitors: []discovery.CompetitorRecord{{Name: "Samsung", URL: "https://www.samsung.com"}},
		Tier:        discovery.TierCatalog,
	}}
	s := newTestServer(t, fake, nil)

	w := do(t, s.Handler(), http.MethodPost, "/competitors", `{"company_url": "apple.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tier":"catalog"`)
	assert.Contains(t, w.Body.String(), `"name":"Samsung"`)

	fake.discover = &discovery.Result{Competitors: []discovery.CompetitorRecord{}, Tier: discovery.TierNone}
	w = do(t, s.Handler(), http.MethodPost, "/competitors", `{"company_url": "nothing.io"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzeStreamEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{result: sampleResult()}, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/analyze/stream", "application/json", strings.NewReader(`{"company_url": "apple.com"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var events []string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for scanner.Scan() {
		if name, ok := strings.CutPrefix(scanner.Text(), "event: "); ok {
			events = append(events, name)
		}
	}
	assert.Equal(t, []string{"step", "step", "complete"}, events)
}

func TestAnalyzeStreamEndpoint_Error(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{err: &analysis.NoCompetitorsFoundError{CompanyURL: "x.io"}}, nil)

	w := do(t, s.Handler(), http.MethodPost, "/analyze/stream", `{"company_url": "x.io"}`)
	body := w.Body.String()
	assert.Contains(t, body, "event: error")
	assert.Contains(t, body, `"status":404`)
	assert.Contains(t, body, "Could not find competitors")
}

func TestAnalyzeStreamEndpoint_ValidationBeforeStream(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{}, nil)
	w := do(t, s.Handler(), http.MethodPost, "/analyze/stream", `{"company_url": ""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		db       Pinger
		search   string
		wantBody map[string]any
	}{
		{
			name:     "catalog only, no database",
			wantBody: map[string]any{"status": "ok", "search": "catalog-only", "llm": "gemini-2.5-flash"},
		},
		{
			name:     "healthy database",
			db:       fakePinger{},
			search:   "serpapi",
			wantBody: map[string]any{"status": "ok", "search": "serpapi", "llm": "gemini-2.5-flash", "database": "ok"},
		},
		{
			name:     "database down",
			db:       fakePinger{err: errors.New("refused")},
			wantBody: map[string]any{"status": "degraded", "search": "catalog-only", "llm": "gemini-2.5-flash", "database": "unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeAnalyzer{}, func(c *Config) {
				c.Database = tt.db
				c.SearchProvider = tt.search
				c.LLMModel = "gemini-2.5-flash"
			})
			w := do(t, s.Handler(), http.MethodGet, "/health", "")
			require.Equal(t, http.StatusOK, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestAuth(t *testing.T) {
	jwtCfg := &config.JWTConfig{Secret: testSecret, ExpirationHours: 1, Issuer: config.DefaultTokenIssuer}
	s := newTestServer(t, &fakeAnalyzer{result: sampleResult()}, func(c *Config) { c.JWT = jwtCfg })

	token, err := NewJWTService(jwtCfg).GenerateToken("dashboard")
	require.NoError(t, err)

	w := do(t, s.Handler(), http.MethodPost, "/analyze", `{"company_url": "apple.com"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, s.Handler(), http.MethodPost, "/analyze", `{"company_url": "apple.com"}`, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code, "health stays open")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{result: sampleResult()}, func(c *Config) {
		c.RateLimit = &ratelimit.Config{
			Enabled:         true,
			DefaultLimit:    100,
			DefaultWindow:   time.Minute,
			EndpointConfigs: []ratelimit.EndpointConfig{{Path: "/analyze", Method: "POST", Limit: 2, Window: time.Hour, Burst: 2}},
		}
	})

	for i := 0; i < 2; i++ {
		w := do(t, s.Handler(), http.MethodPost, "/analyze", `{"company_url": "apple.com"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := do(t, s.Handler(), http.MethodPost, "/analyze", `{"company_url": "apple.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decodeError(t, w))
}

func TestCORSMiddleware(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{}, nil)

	w := do(t, s.Handler(), http.MethodOptions, "/analyze", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Zero(t, w.Body.Len(), "OPTIONS response should have empty body")
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{}, nil)

	w := do(t, s.Handler(), http.MethodGet, "/health", "")
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	w = do(t, s.Handler(), http.MethodGet, "/health", "", "X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestSSEWriter(t *testing.T) {
	w := httptest.NewRecorder()

	sse, err := NewSSEWriter(w)
	require.NoError(t, err)
	require.NoError(t, sse.WriteEvent("step", map[string]string{"step": "discovering"}))

	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("event: step\ndata: {\"step\":\"discovering\"}\n\n")))
}

type analysisLLM struct{}

func (analysisLLM) GenerateContent(context.Context, string, llm.ModelTier) (string, error) {
	return "**Samsung:**\n- Use Case 1: Galaxy AI", nil
}
func (analysisLLM) GetModel(llm.ModelTier) string { return "test-model" }
func (analysisLLM) Close() error                  { return nil }

type staticFetcher struct{}

func (staticFetcher) FetchAndClean(_ context.Context, url string) string { return "text from " + url }

func TestAnalyzeEndpoint_EndToEndCatalog(t *testing.T) {
	svc := analysis.NewService(discovery.New(discovery.Options{}), staticFetcher{}, analysis.NewSynthesizer(analysisLLM{}))
	s := newTestServer(t, svc, nil)

	w := do(t, s.Handler(), http.MethodPost, "/analyze", `{"company_url": "apple.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result analysis.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	names := make([]string, 0, len(result.Competitors))
	for _, c := range result.Competitors {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Samsung", "OnePlus", "Google"}, names)
	assert.Equal(t, "text from https://www.samsung.com", result.Competitors[0].Content)
	assert.Equal(t, "test-model", result.Recommendations.Model)

	w = do(t, s.Handler(), http.MethodPost, "/analyze", `{"company_url": "unknownbrand123.io"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Competitor A")
}
