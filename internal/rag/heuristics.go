package rag

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Heuristics holds every tuning constant of the selection rules. The values were
// chosen empirically against one research paper; DefaultHeuristics reproduces them
// exactly and a YAML file can override individual fields for recalibration.
type Heuristics struct {
	// SummaryKeywords mark a question as an overview request (lowercase substring match).
	// One list drives both query enhancement and summary ranking; the ranking
	// trigger used to be a separate, broader list that also matched "what is".
	SummaryKeywords []string `yaml:"summary_keywords"`
	// EnhancementTerms are appended to summary questions before retrieval.
	EnhancementTerms string `yaml:"enhancement_terms"`

	// A passage is citation-heavy when it has more than MaxBracketCitations
	// markers [1]..[MaxCitationMarker], or more than MaxEtAl "et al" mentions,
	// or contains every CoOccurrenceTerms entry.
	MaxBracketCitations int      `yaml:"max_bracket_citations"`
	MaxCitationMarker   int      `yaml:"max_citation_marker"`
	MaxEtAl             int      `yaml:"max_et_al"`
	CoOccurrenceTerms   []string `yaml:"co_occurrence_terms"`

	// EarlyPageLimit is the last page considered "early" for summaries.
	EarlyPageLimit int `yaml:"early_page_limit"`
	EarlyCap       int `yaml:"early_cap"`
	OtherCap       int `yaml:"other_cap"`
	CitationCap    int `yaml:"citation_cap"`
	ContentCap     int `yaml:"content_cap"`
	TotalCap       int `yaml:"total_cap"`
}

// DefaultHeuristics returns the stock rule constants.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		SummaryKeywords: []string{
			"what is this paper",
			"what is this document",
			"paper about",
			"document about",
			"abstract",
			"summary",
			"summarize",
		},
		EnhancementTerms:    "transformer attention mechanism neural network architecture model",
		MaxBracketCitations: 3,
		MaxCitationMarker:   49,
		MaxEtAl:             2,
		CoOccurrenceTerms:   []string{"arxiv", "proceedings"},
		EarlyPageLimit:      3,
		EarlyCap:            5,
		OtherCap:            3,
		CitationCap:         2,
		ContentCap:          8,
		TotalCap:            10,
	}
}

// LoadHeuristics reads overrides from a YAML file on top of DefaultHeuristics.
// An empty path returns the defaults.
func LoadHeuristics(path string) (Heuristics, error) {
	h := DefaultHeuristics()
	if path == "" {
		return h, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Heuristics{}, fmt.Errorf("failed to read heuristics file: %w", err)
	}
	if err := yaml.Unmarshal(data, &h); err != nil {
		return Heuristics{}, fmt.Errorf("failed to parse heuristics file: %w", err)
	}
	if err := h.Validate(); err != nil {
		return Heuristics{}, fmt.Errorf("invalid heuristics file %s: %w", path, err)
	}
	return h, nil
}

// Validate rejects constants that would make the rules meaningless.
func (h Heuristics) Validate() error {
	if h.MaxCitationMarker < 1 {
		return fmt.Errorf("max_citation_marker must be at least 1")
	}
	if h.MaxBracketCitations < 0 || h.MaxEtAl < 0 {
		return fmt.Errorf("citation thresholds must not be negative")
	}
	if h.EarlyPageLimit < 1 {
		return fmt.Errorf("early_page_limit must be at least 1")
	}
	for name, v := range map[string]int{
		"early_cap":    h.EarlyCap,
		"other_cap":    h.OtherCap,
		"citation_cap": h.CitationCap,
		"content_cap":  h.ContentCap,
		"total_cap":    h.TotalCap,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if h.TotalCap == 0 {
		return fmt.Errorf("total_cap must be greater than 0")
	}
	return nil
}
