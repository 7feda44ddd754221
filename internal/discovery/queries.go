package discovery

import "fmt"

// SearchQuery is one planned search. Lower ranks are issued first.
type SearchQuery struct {
	Text string `json:"text"`
	Rank int    `json:"rank"`
}

// PlanQueries returns the ordered queries for a company label. Industry-qualified queries come
// first when a keyword is known; the generic queries are always present.
func PlanQueries(label, keyword string) []SearchQuery {
	var texts []string
	if keyword != "" {
		texts = append(texts,
			fmt.Sprintf("%s competitors %s", label, keyword),
			fmt.Sprintf("top %s companies", keyword),
		)
	}
	texts = append(texts,
		fmt.Sprintf("%s competitors", label),
		fmt.Sprintf("%s vs", label),
		fmt.Sprintf("companies like %s", label),
	)

	queries := make([]SearchQuery, len(texts))
	for i, text := range texts {
		queries[i] = SearchQuery{Text: text, Rank: i}
	}
	return queries
}
