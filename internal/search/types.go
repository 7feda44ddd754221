// Package search provides web search providers that return a normalized result page.
package search

import "context"

// Provider executes a single search query against an external search API.
type Provider interface {
	// Name returns the provider's identifier (used in logs and errors)
	Name() string
	// Search issues exactly one request for query and returns the decoded result page
	Search(ctx context.Context, query string) (*Response, error)
}

// OrganicOnly is implemented by providers whose pages never carry featured answers or
// knowledge panels. Discovery extracts candidates from their snippets instead.
type OrganicOnly interface {
	OrganicOnly() bool
}

// Response is one search result page. The shape mirrors the SerpAPI Google engine;
// other providers fill only the fields they support.
type Response struct {
	OrganicResults   []OrganicResult   `json:"organic_results,omitempty"`
	RelatedQuestions []RelatedQuestion `json:"related_questions,omitempty"`
	KnowledgeGraph   *KnowledgeGraph   `json:"knowledge_graph,omitempty"`
	AnswerBox        *AnswerBox        `json:"answer_box,omitempty"`
	Error            string            `json:"error,omitempty"`
}

// OrganicResult is a regular (non-ad) search hit
type OrganicResult struct {
	Position int    `json:"position,omitempty"`
	Title    string `json:"title,omitempty"`
	Link     string `json:"link,omitempty"`
	Snippet  string `json:"snippet,omitempty"`
}

// RelatedQuestionFeaturedSnippet is the RelatedQuestion.Type value for list-style featured answers.
const RelatedQuestionFeaturedSnippet = "featured_snippet"

// RelatedQuestion is a "people also ask" entry. Featured-snippet entries may carry a List.
type RelatedQuestion struct {
	Question string   `json:"question,omitempty"`
	Snippet  string   `json:"snippet,omitempty"`
	Type     string   `json:"type,omitempty"`
	List     []string `json:"list,omitempty"`
	Link     string   `json:"link,omitempty"`
}

// AnswerBox is the direct answer shown above organic results
type AnswerBox struct {
	Type    string   `json:"type,omitempty"`
	Title   string   `json:"title,omitempty"`
	Snippet string   `json:"snippet,omitempty"`
	List    []string `json:"list,omitempty"`
}

// KnowledgeGraph is the entity panel for the queried subject
type KnowledgeGraph struct {
	Title               string   `json:"title,omitempty"`
	Type                string   `json:"type,omitempty"`
	Description         string   `json:"description,omitempty"`
	Website             string   `json:"website,omitempty"`
	PeopleAlsoSearchFor []Entity `json:"people_also_search_for,omitempty"`
}

// Entity is a named item inside a knowledge panel
type Entity struct {
	Name string `json:"name"`
	Link string `json:"link,omitempty"`
}

// HasListAnswer reports whether the response contains any list-type featured answer.
func (r *Response) HasListAnswer() bool {
	if r == nil {
		return false
	}
	if r.AnswerBox != nil && len(r.AnswerBox.List) > 0 {
		return true
	}
	for _, q := range r.RelatedQuestions {
		if q.Type == RelatedQuestionFeaturedSnippet && len(q.List) > 0 {
			return true
		}
	}
	return false
}
