package analysis

import "fmt"

// NoCompetitorDataError is returned by Synthesize when there is nothing to analyze.
type NoCompetitorDataError struct {
	CompanyURL string
}

func (e *NoCompetitorDataError) Error() string {
	return fmt.Sprintf("no competitor data available for analysis of %s", e.CompanyURL)
}

// NoCompetitorsFoundError is returned by Analyze when discovery produced an empty set.
type NoCompetitorsFoundError struct {
	CompanyURL string
}

func (e *NoCompetitorsFoundError) Error() string {
	return fmt.Sprintf("could not find competitors for %s", e.CompanyURL)
}

// SynthesisError wraps a failed LLM call.
type SynthesisError struct {
	Model string
	Cause error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("analysis with %s failed: %v", e.Model, e.Cause)
}

func (e *SynthesisError) Unwrap() error {
	return e.Cause
}
