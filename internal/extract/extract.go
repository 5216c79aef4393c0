// Package extract parses chapter documents into ordered content blocks.
//
// The scanner is line-oriented and single-pass: each line (or fenced run of
// lines) is classified by its marker prefix into a typed Block. Block order
// matches source order and is preserved through assembly, where it defines
// final slide order. Malformed input (unterminated math or code fences)
// degrades to Diagnostic blocks instead of aborting the document.
package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies the variant of a Block.
type Kind int

const (
	KindHeading Kind = iota
	KindParagraph
	KindMath
	KindFigure
	KindCode
	KindEmbed
	KindCallout
	KindDiagnostic
)

// String returns a short name for the kind, used in diagnostics and reports.
func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindParagraph:
		return "paragraph"
	case KindMath:
		return "math"
	case KindFigure:
		return "figure"
	case KindCode:
		return "code"
	case KindEmbed:
		return "embed"
	case KindCallout:
		return "callout"
	case KindDiagnostic:
		return "diagnostic"
	}
	return "unknown"
}

// Block is one typed content block. Fields are populated per Kind:
// Heading uses Level+Text; Paragraph uses Text; Math uses Raw+Display;
// Figure uses Label+Code+Caption; Code uses Language+Code; Embed uses
// URL+Caption; Callout uses Title+Text; Diagnostic uses Reason.
// Line is the 1-based source line where the block starts.
type Block struct {
	Kind Kind
	Line int

	Level    int    // heading depth, 1-6
	Text     string // heading, paragraph, callout body
	Raw      string // math expression without delimiters
	Display  bool   // block math vs inline math
	Label    string // figure label (fig-*)
	Code     string // figure or code block source, verbatim
	Language string // fenced code language
	Caption  string // figure or embed caption
	URL      string // embed target
	Title    string // callout type
	Reason   string // diagnostic description
}

// MalformedInputError describes a recoverable markup defect at a source line.
// The extractor emits it as a Diagnostic block and continues scanning.
type MalformedInputError struct {
	Line   int
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input at line %d: %s", e.Line, e.Reason)
}

// Precompiled patterns for line classification.
var (
	headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*(?:\{[^}]*\})?\s*$`)
	fenceOpen      = regexp.MustCompile("^```+\\s*(?:\\{?([a-zA-Z0-9_+-]*)[^}]*\\}?)?\\s*$")
	fenceClose     = regexp.MustCompile("^```+\\s*$")
	calloutFence   = regexp.MustCompile(`^:::+\s*\{?\.?([\w-]*)\}?\s*$`)
	listItem       = regexp.MustCompile(`^\s*(?:[-*+]|[0-9]+\.)\s+(.*)$`)
	iframeTag      = regexp.MustCompile(`<iframe[^>]*\ssrc="([^"]+)"[^>]*>`)
	figLabelDir    = regexp.MustCompile(`(?m)^#\|\s*label:\s*(fig-\S+)\s*$`)
	figCapDir      = regexp.MustCompile(`(?m)^#\|\s*fig-cap:\s*"?(.+?)"?\s*$`)
	crlfOrCR       = regexp.MustCompile(`\r\n?`)
)

// Blocks scans a chapter body (front matter already split off) and returns
// its ordered content blocks. The scan never fails: defects surface as
// Diagnostic blocks in place.
func Blocks(content string) []Block {
	s := &scanner{lines: strings.Split(crlfOrCR.ReplaceAllString(content, "\n"), "\n")}
	for s.pos < len(s.lines) {
		s.step()
	}
	s.flushParagraph()
	return s.blocks
}

type scanner struct {
	lines  []string
	pos    int // index of the next line to consume
	blocks []Block

	para      []string // accumulated paragraph lines
	paraStart int
}

// step consumes one line or one fenced run.
func (s *scanner) step() {
	line := s.lines[s.pos]
	trimmed := strings.TrimSpace(line)

	switch {
	case trimmed == "":
		s.flushParagraph()
		s.pos++

	case headingPattern.MatchString(trimmed):
		s.flushParagraph()
		m := headingPattern.FindStringSubmatch(trimmed)
		s.emit(Block{Kind: KindHeading, Line: s.pos + 1, Level: len(m[1]), Text: m[2]})
		s.pos++

	case strings.HasPrefix(trimmed, "```"):
		s.flushParagraph()
		s.scanFence()

	case strings.HasPrefix(trimmed, ":::"):
		s.flushParagraph()
		s.scanCallout()

	case strings.HasPrefix(trimmed, "$$"):
		s.flushParagraph()
		s.scanDisplayMath()

	case iframeTag.MatchString(line):
		s.flushParagraph()
		m := iframeTag.FindStringSubmatch(line)
		s.emit(Block{Kind: KindEmbed, Line: s.pos + 1, URL: m[1], Caption: s.nearbyFigLabel()})
		s.skipPastIframe()

	case listItem.MatchString(line):
		s.flushParagraph()
		m := listItem.FindStringSubmatch(line)
		s.para = []string{m[1]}
		s.paraStart = s.pos + 1
		s.pos++
		s.flushParagraph()

	default:
		if len(s.para) == 0 {
			s.paraStart = s.pos + 1
		}
		s.para = append(s.para, trimmed)
		s.pos++
	}
}

func (s *scanner) emit(b Block) {
	s.blocks = append(s.blocks, b)
}

// flushParagraph emits the accumulated paragraph, followed by one Math block
// per inline expression found in it. Paragraph text keeps the raw $...$
// notation so nothing is silently dropped; the rendered images follow on the
// same slide. An unbalanced dollar sign degrades to a Diagnostic block.
func (s *scanner) flushParagraph() {
	if len(s.para) == 0 {
		return
	}
	text := strings.Join(s.para, " ")
	s.para = nil

	exprs, err := inlineMath(text)
	s.emit(Block{Kind: KindParagraph, Line: s.paraStart, Text: text})
	if err != nil {
		err.Line = s.paraStart
		s.emit(Block{Kind: KindDiagnostic, Line: s.paraStart, Reason: err.Reason})
		return
	}
	for _, e := range exprs {
		s.emit(Block{Kind: KindMath, Line: s.paraStart, Raw: e, Display: false})
	}
}

// scanFence consumes a fenced code block. Blocks tagged {python} with a
// "#| label: fig-*" directive become FigureSpec blocks; the source is kept
// verbatim, directives included, for later execution. An unterminated fence
// consumes the rest of the document and yields a Diagnostic.
func (s *scanner) scanFence() {
	openLine := s.pos + 1
	lang := ""
	if m := fenceOpen.FindStringSubmatch(strings.TrimSpace(s.lines[s.pos])); m != nil {
		lang = strings.ToLower(m[1])
	}
	s.pos++

	var body []string
	closed := false
	for s.pos < len(s.lines) {
		if fenceClose.MatchString(strings.TrimSpace(s.lines[s.pos])) {
			closed = true
			s.pos++
			break
		}
		body = append(body, s.lines[s.pos])
		s.pos++
	}

	code := strings.Join(body, "\n")
	if !closed {
		s.emit(Block{Kind: KindDiagnostic, Line: openLine, Reason: "unterminated code fence"})
		return
	}

	if lang == "python" {
		if m := figLabelDir.FindStringSubmatch(code); m != nil {
			caption := ""
			if c := figCapDir.FindStringSubmatch(code); c != nil {
				caption = c[1]
			}
			s.emit(Block{Kind: KindFigure, Line: openLine, Label: m[1], Code: code, Caption: caption})
			return
		}
	}
	s.emit(Block{Kind: KindCode, Line: openLine, Language: lang, Code: code})
}

// scanCallout consumes a ::: callout fence and folds its content into a
// single Callout block titled by the callout type.
func (s *scanner) scanCallout() {
	openLine := s.pos + 1
	title := ""
	if m := calloutFence.FindStringSubmatch(strings.TrimSpace(s.lines[s.pos])); m != nil {
		title = m[1]
	}
	s.pos++

	var body []string
	closed := false
	for s.pos < len(s.lines) {
		t := strings.TrimSpace(s.lines[s.pos])
		if t == ":::" {
			closed = true
			s.pos++
			break
		}
		body = append(body, t)
		s.pos++
	}

	if !closed {
		s.emit(Block{Kind: KindDiagnostic, Line: openLine, Reason: "unterminated callout fence"})
		return
	}
	s.emit(Block{Kind: KindCallout, Line: openLine, Title: title, Text: strings.TrimSpace(strings.Join(body, " "))})
}

// scanDisplayMath consumes a $$...$$ block, one-line or multiline.
func (s *scanner) scanDisplayMath() {
	openLine := s.pos + 1
	line := strings.TrimSpace(s.lines[s.pos])

	// One-line form: $$ expr $$
	if inner, ok := strings.CutPrefix(line, "$$"); ok {
		if expr, ok := strings.CutSuffix(inner, "$$"); ok && strings.TrimSpace(expr) != "" {
			s.emit(Block{Kind: KindMath, Line: openLine, Raw: strings.TrimSpace(expr), Display: true})
			s.pos++
			return
		}
	}

	// Multiline form: opening $$ until a line ending with $$.
	s.pos++
	var body []string
	if rest := strings.TrimSpace(strings.TrimPrefix(line, "$$")); rest != "" {
		body = append(body, rest)
	}
	for s.pos < len(s.lines) {
		t := strings.TrimSpace(s.lines[s.pos])
		s.pos++
		if expr, ok := strings.CutSuffix(t, "$$"); ok {
			if strings.TrimSpace(expr) != "" {
				body = append(body, strings.TrimSpace(expr))
			}
			s.emit(Block{Kind: KindMath, Line: openLine, Raw: strings.Join(body, "\n"), Display: true})
			return
		}
		body = append(body, t)
	}

	s.emit(Block{Kind: KindDiagnostic, Line: openLine, Reason: "unterminated display math"})
}

// nearbyFigLabel looks a few lines around an iframe for a {#fig-*} anchor,
// mirroring how chapter sources caption their embeds.
func (s *scanner) nearbyFigLabel() string {
	lo := s.pos - 3
	if lo < 0 {
		lo = 0
	}
	hi := s.pos + 4
	if hi > len(s.lines) {
		hi = len(s.lines)
	}
	anchor := regexp.MustCompile(`\{#(fig-[\w-]+)\}`)
	for _, l := range s.lines[lo:hi] {
		if m := anchor.FindStringSubmatch(l); m != nil {
			return m[1]
		}
	}
	return ""
}

// skipPastIframe advances past the current iframe element, which may span
// multiple lines until its closing tag.
func (s *scanner) skipPastIframe() {
	for s.pos < len(s.lines) {
		if strings.Contains(s.lines[s.pos], "</iframe>") || strings.Contains(s.lines[s.pos], "/>") {
			s.pos++
			return
		}
		s.pos++
	}
}

// inlineMath extracts $...$ expressions from a paragraph. Doubled delimiters
// belong to display math and never appear here (display blocks are consumed
// before paragraph accumulation). Escaped \$ is ignored. An odd number of
// delimiters is a malformed-input condition.
func inlineMath(text string) ([]string, *MalformedInputError) {
	var exprs []string
	var inExpr bool
	var cur strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\\' && i+1 < len(runes) && runes[i+1] == '$' {
			if inExpr {
				cur.WriteRune('\\')
				cur.WriteRune('$')
			}
			i++
			continue
		}
		if r != '$' {
			if inExpr {
				cur.WriteRune(r)
			}
			continue
		}
		if inExpr {
			expr := strings.TrimSpace(cur.String())
			cur.Reset()
			inExpr = false
			if expr != "" {
				exprs = append(exprs, expr)
			}
			continue
		}
		inExpr = true
	}

	if inExpr {
		return exprs, &MalformedInputError{Reason: "unterminated inline math delimiter"}
	}
	return exprs, nil
}
