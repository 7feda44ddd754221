// Package analysis turns a company URL into a competitive-analysis report: discovery, then
// content extraction for each competitor, then LLM synthesis.
package analysis

import "time"

// CompetitorContent is a discovered competitor with the cleaned text of its site.
type CompetitorContent struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Report is the synthesized analysis.
type Report struct {
	Analysis    string    `json:"analysis"`
	GeneratedAt time.Time `json:"generated_at"`
	Model       string    `json:"model"`
}

// Result is the outcome of a full analysis request.
type Result struct {
	CompanyURL      string              `json:"company_url"`
	Competitors     []CompetitorContent `json:"competitors"`
	Recommendations *Report             `json:"recommendations"`
	Tier            string              `json:"tier,omitempty"`
}

// Progress steps reported through ProgressCallback.
const (
	StepDiscovering = "discovering"
	StepExtracting  = "extracting"
	StepAnalyzing   = "analyzing"
)

// ProgressEvent represents a progress update during an analysis run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called as an analysis run advances
type ProgressCallback func(event ProgressEvent)

func emit(cb ProgressCallback, step, message string, content any) {
	if cb != nil {
		cb(ProgressEvent{Step: step, Message: message, Content: content})
	}
}
