package assemble

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// markdown is the shared inline parser. Paragraph text reaching the
// assembler still carries inline markdown (emphasis, code spans, links);
// PPTX has no notion of markdown, so the AST is flattened into styled runs.
var markdown = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))

// flattenRuns parses a paragraph's markdown and flattens its inline nodes
// into styled text runs. Block structure inside the text (rare after
// extraction) degrades gracefully: every text node is visited in order.
func flattenRuns(source string) []TextRun {
	src := []byte(source)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var runs []TextRun
	var walk func(n ast.Node, style TextRun)
	walk = func(n ast.Node, style TextRun) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.Text:
				seg := node.Segment
				r := style
				r.Text = string(seg.Value(src))
				if r.Text != "" {
					runs = append(runs, r)
				}
				if node.SoftLineBreak() || node.HardLineBreak() {
					runs = append(runs, TextRun{Text: " "})
				}
			case *ast.Emphasis:
				s := style
				if node.Level >= 2 {
					s.Bold = true
				} else {
					s.Italic = true
				}
				walk(node, s)
			case *ast.CodeSpan:
				s := style
				s.Code = true
				walk(node, s)
			case *ast.Link:
				s := style
				s.Link = string(node.Destination)
				walk(node, s)
			case *ast.AutoLink:
				url := string(node.URL(src))
				runs = append(runs, TextRun{Text: url, Link: url})
			case *ast.Image:
				// Inline images in prose carry no file on slides; keep the
				// alt text so nothing is silently lost.
				walk(node, style)
			default:
				walk(node, style)
			}
		}
	}
	walk(doc, TextRun{})

	if len(runs) == 0 {
		return plainRun(source)
	}
	return mergeAdjacent(runs)
}

// mergeAdjacent joins neighbouring runs with identical styling so the
// serializer emits fewer, cleaner XML runs.
func mergeAdjacent(runs []TextRun) []TextRun {
	out := runs[:0]
	for _, r := range runs {
		if n := len(out); n > 0 && sameStyle(out[n-1], r) {
			out[n-1].Text += r.Text
			continue
		}
		out = append(out, r)
	}
	return out
}

func sameStyle(a, b TextRun) bool {
	return a.Bold == b.Bold && a.Italic == b.Italic && a.Code == b.Code && a.Link == b.Link
}
