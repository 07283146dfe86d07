package rag

import (
	"strings"
	"unicode"
)

const (
	overlapLengthScale  = float32(10.0)
	maxOverlapScore     = float32(0.4)
	firstLineMatchBonus = float32(0.1)
)

var overlapStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "page": {}, "the": {}, "this": {}, "to": {}, "was": {}, "were": {}, "what": {}, "with": {},
}

// lexicalOverlap scores how many question terms occur in a passage, bounded to
// [0, maxOverlapScore]. It is a debugging aid only and never changes the selection.
func lexicalOverlap(question, text, firstLine string) float32 {
	queryTokens := dropStopwords(tokenize(question))
	if len(queryTokens) == 0 {
		return 0
	}
	textTokens := tokenize(text)
	if len(textTokens) == 0 {
		return 0
	}

	freq := make(map[string]int, len(textTokens))
	for _, tok := range textTokens {
		freq[tok]++
	}
	var matches int
	for _, tok := range queryTokens {
		matches += freq[tok]
	}
	score := float32(matches) / (1 + float32(len(textTokens))) * overlapLengthScale

	if lineTokens := tokenize(firstLine); len(lineTokens) > 0 {
		line := make(map[string]struct{}, len(lineTokens))
		for _, tok := range lineTokens {
			line[tok] = struct{}{}
		}
		for _, tok := range queryTokens {
			if _, ok := line[tok]; ok {
				score += firstLineMatchBonus
			}
		}
	}

	if score > maxOverlapScore {
		return maxOverlapScore
	}
	return score
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func dropStopwords(tokens []string) []string {
	out := tokens[:0:0]
	for _, tok := range tokens {
		if _, stop := overlapStopwords[tok]; !stop {
			out = append(out, tok)
		}
	}
	return out
}
