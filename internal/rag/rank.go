package rag

// RankCandidates composes the final semantic selection.
//
// Summary questions with surviving content take up to EarlyCap passages from
// pages <= EarlyPageLimit, then OtherCap from later pages, then CitationCap
// citation-heavy passages, capped at TotalCap. Other questions with content take
// ContentCap content passages plus CitationCap citation passages. When filtering
// left no content at all, the raw retrieval order is kept, capped at TotalCap.
func RankCandidates(content, citation, raw []Candidate, summary bool, h Heuristics) []Candidate {
	if len(content) == 0 {
		return head(raw, h.TotalCap)
	}

	if summary {
		var early, other []Candidate
		for _, c := range content {
			if c.Chunk.Page <= h.EarlyPageLimit {
				early = append(early, c)
			} else {
				other = append(other, c)
			}
		}
		out := make([]Candidate, 0, h.TotalCap)
		out = append(out, head(early, h.EarlyCap)...)
		out = append(out, head(other, h.OtherCap)...)
		out = append(out, head(citation, h.CitationCap)...)
		return head(out, h.TotalCap)
	}

	out := make([]Candidate, 0, h.ContentCap+h.CitationCap)
	out = append(out, head(content, h.ContentCap)...)
	out = append(out, head(citation, h.CitationCap)...)
	return out
}

func head(c []Candidate, n int) []Candidate {
	if n < len(c) {
		return c[:n]
	}
	return c
}
