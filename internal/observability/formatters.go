// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/competitor-analyzer/internal/analysis"
	"github.com/jonathan/competitor-analyzer/internal/discovery"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// previewChars is how much of each competitor's content is shown
	previewChars = 160
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintDiscovery outputs the discovered competitors, the tier that produced them and the
// outcome of each search query.
func (p *Printer) PrintDiscovery(result *discovery.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:  %s (%s)\n", result.Company.RootLabel, result.Company.CanonicalURL))
	if result.Keyword != "" {
		sb.WriteString(fmt.Sprintf("Industry: %s\n", result.Keyword))
	}
	sb.WriteString(fmt.Sprintf("Source:   %s\n\n", result.Tier))

	if len(result.Competitors) == 0 {
		sb.WriteString("No competitors found\n")
	}
	for i, c := range result.Competitors {
		sb.WriteString(fmt.Sprintf("%d. %s\n   %s\n", i+1, c.Name, c.URL))
	}

	if len(result.Outcomes) > 0 {
		sb.WriteString("\nQueries:\n")
		for _, o := range result.Outcomes {
			var line string
			if o.Kind == discovery.OutcomeOK {
				line = fmt.Sprintf("• %d candidates, %d admitted: %q", o.Candidates, o.Admitted, o.Query.Text)
			} else {
				line = fmt.Sprintf("✗ %s: %q", o.Kind, o.Query.Text)
			}
			// continuation lines are indented under the text, not the marker
			for i, l := range wrap(line, boxWidth-8) {
				if i == 0 {
					sb.WriteString("  " + l + "\n")
				} else {
					sb.WriteString("    " + l + "\n")
				}
			}
		}
	}

	p.printBox("COMPETITORS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCompetitorContent outputs a short preview of each competitor's extracted text.
func (p *Printer) PrintCompetitorContent(contents []analysis.CompetitorContent) {
	if len(contents) == 0 {
		return
	}

	var sb strings.Builder
	for i, c := range contents {
		sb.WriteString(fmt.Sprintf("%s (%d chars)\n", c.Name, len([]rune(c.Content))))
		for _, line := range wrap(clip(c.Content, previewChars), boxWidth-6) {
			sb.WriteString("  " + line + "\n")
		}
		if i < len(contents)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("EXTRACTED CONTENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReport outputs the report header in a box followed by the full analysis text.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintReport(report *analysis.Report) {
	if report == nil {
		return
	}

	header := fmt.Sprintf("Model:     %s\nGenerated: %s", report.Model, report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	p.printBox("COMPETITIVE ANALYSIS", header)
	fmt.Fprintf(p.out, "\n%s\n", report.Analysis)
}

// wrap splits text into lines of at most width runes on word boundaries.
func wrap(text string, width int) []string {
	var lines []string
	var line []rune
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		if len(line) > 0 && len(line)+1+len(w) > width {
			lines = append(lines, string(line))
			line = line[:0]
		}
		if len(line) > 0 {
			line = append(line, ' ')
		}
		line = append(line, w...)
	}
	if len(line) > 0 {
		lines = append(lines, string(line))
	}
	return lines
}
