package analysis

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/jonathan/competitor-analyzer/internal/fetch"
	"github.com/jonathan/competitor-analyzer/internal/llm"
	"github.com/jonathan/competitor-analyzer/internal/prompts"
)

// MaxPromptContentChars caps how much of each competitor's text goes into the prompt.
const MaxPromptContentChars = 2000

const promptFile = "analysis.json"

// Synthesizer writes the analysis report with an LLM.
type Synthesizer struct {
	client llm.Client
	tier   llm.ModelTier
	now    func() time.Time
}

// NewSynthesizer creates a Synthesizer using the standard model tier.
func NewSynthesizer(client llm.Client) *Synthesizer {
	return &Synthesizer{client: client, tier: llm.TierStandard, now: time.Now}
}

// BuildPrompt renders the analysis prompt for a company and its competitors.
func BuildPrompt(companyURL string, competitors []CompetitorContent) (string, error) {
	if len(competitors) == 0 {
		return "", &NoCompetitorDataError{CompanyURL: companyURL}
	}

	names := make([]string, 0, len(competitors))
	blocks := make([]string, 0, len(competitors))
	templates := make([]string, 0, len(competitors))
	blockTmpl := prompts.MustGet(promptFile, "competitor-block")
	useCaseTmpl := prompts.MustGet(promptFile, "use-case-template")

	for _, c := range competitors {
		names = append(names, c.Name)
		blocks = append(blocks, prompts.Format(blockTmpl, map[string]string{
			"Name":    c.Name,
			"URL":     c.URL,
			"Content": fetch.Truncate(c.Content, MaxPromptContentChars),
		}))
		templates = append(templates, prompts.Format(useCaseTmpl, map[string]string{"Name": c.Name}))
	}

	return prompts.Format(prompts.MustGet(promptFile, "competitive-analysis"), map[string]string{
		"CompanyURL":        companyURL,
		"CompetitorNames":   strings.Join(names, ", "),
		"CompetitorContent": strings.Join(blocks, "\n\n"),
		"UseCaseTemplate":   strings.Join(templates, "\n\n"),
	}), nil
}

// Synthesize asks the LLM for the competitive analysis of companyURL.
func (s *Synthesizer) Synthesize(ctx context.Context, companyURL string, competitors []CompetitorContent) (*Report, error) {
	prompt, err := BuildPrompt(companyURL, competitors)
	if err != nil {
		return nil, err
	}

	model := s.client.GetModel(s.tier)
	log.Printf("[ANALYSIS] Calling %s for %d competitors", model, len(competitors))

	text, err := s.client.GenerateContent(ctx, prompt, s.tier)
	if err != nil {
		log.Printf("[ANALYSIS] LLM call failed: %v", err)
		return nil, &SynthesisError{Model: model, Cause: err}
	}

	log.Printf("[ANALYSIS] Received %d characters of analysis", len(text))
	return &Report{
		Analysis:    strings.TrimSpace(text),
		GeneratedAt: s.now().UTC(),
		Model:       model,
	}, nil
}
