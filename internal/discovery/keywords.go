package discovery

import (
	"regexp"
	"strings"
)

// industryCategory pairs the keyword used in search queries with the pattern that detects it.
type industryCategory struct {
	Keyword string
	Pattern *regexp.Regexp
}

// Order matters: the first matching category wins, so "electronics marketplace" is a marketplace.
var industryCategories = []industryCategory{
	{"e-commerce", regexp.MustCompile(`\b(e-?commerce|online (store|shop|shopping)|online retail)\b`)},
	{"streaming", regexp.MustCompile(`\b(streaming|stream movies|video on demand)\b`)},
	{"social media", regexp.MustCompile(`\b(social (media|network|networking)|messaging app)\b`)},
	{"cloud software", regexp.MustCompile(`\b(saas|cloud|software as a service|enterprise software)\b`)},
	{"fintech", regexp.MustCompile(`\b(fintech|payments?|banking|financial services|neobank)\b`)},
	{"gaming", regexp.MustCompile(`\b(gaming|video games?|esports)\b`)},
	{"retail", regexp.MustCompile(`\b(retail|retailer|department stores?|supermarkets?)\b`)},
	{"travel", regexp.MustCompile(`\b(travel|hotels?|flights?|vacation rentals?)\b`)},
	{"food delivery", regexp.MustCompile(`\b(food delivery|meal delivery|restaurant delivery)\b`)},
	{"transportation", regexp.MustCompile(`\b(ride-?sharing|ride-?hailing|transportation|logistics|airlines?)\b`)},
	{"healthcare", regexp.MustCompile(`\b(health ?care|medical|pharmaceuticals?|telehealth)\b`)},
	{"education", regexp.MustCompile(`\b(education|e-?learning|online courses?|edtech)\b`)},
	{"content platform", regexp.MustCompile(`\b(content platform|publishing|blogging|podcasts?)\b`)},
	{"marketplace", regexp.MustCompile(`\b(marketplace|buy and sell)\b`)},
	{"electronics", regexp.MustCompile(`\b(electronics|smartphones?|laptops?|consumer tech)\b`)},
	{"fashion", regexp.MustCompile(`\b(fashion|apparel|clothing|footwear|shoes|sportswear)\b`)},
	{"automotive", regexp.MustCompile(`\b(automotive|automobiles?|cars|electric vehicles?)\b`)},
	{"real estate", regexp.MustCompile(`\b(real estate|property listings|homes for sale|realty)\b`)},
}

// ExtractIndustryKeyword returns the first industry category matched in text, or "".
func ExtractIndustryKeyword(text string) string {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return ""
	}
	for _, category := range industryCategories {
		if category.Pattern.MatchString(lower) {
			return category.Keyword
		}
	}
	return ""
}

// IndustryKeywords lists the category keywords in match order.
func IndustryKeywords() []string {
	out := make([]string, 0, len(industryCategories))
	for _, category := range industryCategories {
		out = append(out, category.Keyword)
	}
	return out
}
