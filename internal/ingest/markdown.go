package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.Table))

// LoadMarkdown parses markdown and treats each thematic break (---) as a page boundary.
// Block structure is kept as blank-line separated paragraphs.
func LoadMarkdown(content []byte) []Page {
	doc := markdownParser.Parser().Parse(text.NewReader(content))

	var pages []Page
	var blocks []string
	flush := func() {
		pages = append(pages, Page{Number: len(pages) + 1, Text: strings.Join(blocks, "\n\n")})
		blocks = nil
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() == ast.KindThematicBreak {
			flush()
			continue
		}
		if s := blockText(n, content); s != "" {
			blocks = append(blocks, s)
		}
	}
	flush()

	return pages
}

// blockText renders a block node as plain text. Code keeps its raw lines;
// container blocks put each child on its own line.
func blockText(n ast.Node, content []byte) string {
	switch n.Kind() {
	case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock:
		var b strings.Builder
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(content))
		}
		return strings.TrimSpace(b.String())
	case ast.KindThematicBreak:
		return ""
	}

	if n.HasChildren() && n.FirstChild().Type() == ast.TypeBlock {
		var parts []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if s := blockText(c, content); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	}

	return extractTextFromNode(n, content)
}

// extractTextFromNode collects inline text, keeping line breaks.
func extractTextFromNode(n ast.Node, content []byte) string {
	var textBuilder strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := node.(type) {
		case *ast.Text:
			textBuilder.Write(v.Segment.Value(content))
			if v.SoftLineBreak() || v.HardLineBreak() {
				textBuilder.WriteByte('\n')
			}
		case *ast.String:
			textBuilder.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(textBuilder.String())
}
