package rag

import (
	"strconv"
	"strings"
)

// IsCitationHeavy reports whether text reads like a bibliography rather than content.
// It depends on nothing but the text and the thresholds.
func IsCitationHeavy(text string, h Heuristics) bool {
	lower := strings.ToLower(text)

	markers := 0
	for i := 1; i <= h.MaxCitationMarker; i++ {
		markers += strings.Count(lower, "["+strconv.Itoa(i)+"]")
	}
	if markers > h.MaxBracketCitations {
		return true
	}

	if len(h.CoOccurrenceTerms) > 0 {
		all := true
		for _, term := range h.CoOccurrenceTerms {
			if !strings.Contains(lower, strings.ToLower(term)) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}

	return strings.Count(lower, "et al") > h.MaxEtAl
}

// PartitionCitations splits candidates into content and citation-heavy lists,
// preserving relative order in both. Citation entries are re-tagged OriginCitation.
func PartitionCitations(candidates []Candidate, h Heuristics) (content, citation []Candidate) {
	for _, c := range candidates {
		if IsCitationHeavy(c.Chunk.Text, h) {
			c.Origin = OriginCitation
			citation = append(citation, c)
			continue
		}
		c.Origin = OriginSemantic
		content = append(content, c)
	}
	return content, citation
}
