package rag

import (
	"regexp"
	"strconv"
	"strings"
)

// Mode is the retrieval path chosen for a question.
type Mode string

const (
	ModePage     Mode = "page"
	ModeSemantic Mode = "semantic"
)

var pageRefPattern = regexp.MustCompile(`(?i)\b(?:page|p\.?)\s*(\d+)\b`)

// Query is the classified form of a question.
type Query struct {
	Question string
	Mode     Mode
	// TargetPages holds every referenced page, deduplicated, in order of appearance.
	TargetPages []int
	// Summary is set for overview requests in semantic mode.
	Summary bool
	// RetrievalQuery is the text sent to the retriever in semantic mode.
	RetrievalQuery string
}

// Classify is a rule-based heuristic, not a learned model: any "page N" or "p. N"
// reference selects page mode, otherwise overview keywords mark a summary query
// whose retrieval text is padded with the configured enhancement terms.
func Classify(question string, h Heuristics) Query {
	q := Query{
		Question:       question,
		Mode:           ModeSemantic,
		RetrievalQuery: question,
	}

	seen := make(map[int]struct{})
	for _, m := range pageRefPattern.FindAllStringSubmatch(question, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			// Digits too long for int cannot name a real page.
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		q.TargetPages = append(q.TargetPages, n)
	}
	if len(q.TargetPages) > 0 {
		q.Mode = ModePage
		return q
	}

	lower := strings.ToLower(question)
	for _, kw := range h.SummaryKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			q.Summary = true
			break
		}
	}
	if q.Summary && h.EnhancementTerms != "" {
		q.RetrievalQuery = question + " " + h.EnhancementTerms
	}
	return q
}
