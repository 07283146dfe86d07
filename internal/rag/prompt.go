package rag

import (
	"fmt"
	"strings"
)

const answerTemplate = `You are an expert research assistant analyzing an uploaded document. Your goal is to provide clear, accurate, and comprehensive answers based solely on the provided context.

INSTRUCTIONS:
- Answer the question directly and provide comprehensive details
- Use only information from the provided context
- Always cite page numbers using the format (p. X) when referencing information
- Provide specific details, technical terms, and examples when available
- If the question asks about a specific page, focus primarily on that page's content
- For questions about the document in general, provide a thorough overview including key contributions
- If you cannot find relevant information, say "I don't have enough information in the provided context to answer this question"

Context from document:
%s

Previous session notes (if any):
%s

Question: %s

Detailed Answer:`

const summarizeTemplate = `
Please provide a comprehensive summary of the following text from the uploaded document, preserving all key technical information, concepts, and details:

%s

Comprehensive Summary:
`

const refineTemplate = `
Given the following question and initial answer, please refine the answer using the additional context provided.
Make the answer more comprehensive while maintaining accuracy.

Question: %s

Initial Answer: %s

Additional Context: %s

Refined Answer:
`

// FormatContext renders passages as numbered blocks labelled with their page.
func FormatContext(passages []Candidate) string {
	var b strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&b, "[Document %d - Page %d]\n%s\n\n", i+1, p.Chunk.Page, strings.TrimSpace(p.Chunk.Text))
	}
	return b.String()
}

// FormatNotes renders session notes one per line.
func FormatNotes(notes []SessionNote) string {
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		page := "unknown"
		if n.Page != nil {
			page = fmt.Sprintf("%d", *n.Page)
		}
		lines = append(lines, fmt.Sprintf("Note on page %s: %s", page, n.Content))
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt fills the answer template. No truncation happens here.
func BuildPrompt(context, notes, question string) string {
	return fmt.Sprintf(answerTemplate, context, notes, question)
}
