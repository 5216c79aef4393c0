package extract

import (
	"regexp"
	"strings"

	"github.com/alnah/go-qmd2pptx/internal/yamlutil"
)

// Metadata holds the chapter front matter fields this tool cares about.
// Quarto chapters carry many more keys; they are ignored.
type Metadata struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
	Author   string `yaml:"author"`
	Date     string `yaml:"date"`
}

// SplitFrontMatter separates a leading YAML front matter block (--- ... ---)
// from the document body. Documents without front matter return zero
// Metadata and the full content. A front matter block that fails to parse is
// treated as absent rather than fatal; the H1 title fallback still applies.
func SplitFrontMatter(content string) (Metadata, string) {
	var meta Metadata

	normalized := crlfOrCR.ReplaceAllString(content, "\n")
	if !strings.HasPrefix(normalized, "---\n") {
		return meta, content
	}

	rest := normalized[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return meta, content
	}
	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")

	if err := yamlutil.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return Metadata{}, content
	}
	return meta, body
}

// Title resolves the document title: front matter first, then the first H1,
// then the given fallback (typically the file stem).
func Title(meta Metadata, blocks []Block, fallback string) string {
	if meta.Title != "" {
		return meta.Title
	}
	for _, b := range blocks {
		if b.Kind == KindHeading && b.Level == 1 {
			return b.Text
		}
	}
	return fallback
}

var newcommandPattern = regexp.MustCompile(`\\newcommand\{[^}]+\}(?:\[[0-9]+\])?\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)

// Macros extracts \newcommand definitions from a shared macro file's
// content. The result is passed to the equation renderer as a preamble so
// chapter-local notation renders the same way it does in the book.
func Macros(content string) string {
	defs := newcommandPattern.FindAllString(content, -1)
	return strings.Join(defs, "\n")
}
