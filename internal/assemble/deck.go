// Package assemble maps ordered content blocks and their rendered assets
// onto slide records. It owns the deck data model consumed by the PPTX
// serializer; rendering concerns stay in eqrender and figure.
package assemble

// SlideKind selects the slide layout.
type SlideKind int

const (
	SlideTitle   SlideKind = iota // deck opener: title, subtitle, author
	SlideSection                  // divider for headings above the slide level
	SlideContent                  // title plus body items
)

// ItemKind identifies the variant of a BodyItem.
type ItemKind int

const (
	ItemText  ItemKind = iota // styled text runs, one bullet
	ItemImage                 // reference to a rendered asset on disk
	ItemLink                  // external reference shown as clickable text
)

// TextRun is a contiguous span of identically styled text.
type TextRun struct {
	Text   string
	Bold   bool
	Italic bool
	Code   bool
	Link   string // non-empty makes the run a hyperlink
}

// BodyItem is one ordered element of a slide body.
type BodyItem struct {
	Kind      ItemKind
	Runs      []TextRun // ItemText
	ImagePath string    // ItemImage: absolute path to a PNG
	URL       string    // ItemLink
	Caption   string    // ItemLink and ItemImage
}

// Slide is one output slide.
type Slide struct {
	Kind     SlideKind
	Title    string
	Subtitle string // title slide only
	Body     []BodyItem
	Notes    []string // speaker notes, one paragraph each
}

// Deck is the ordered slide sequence for one chapter, write-once.
type Deck struct {
	Title  string
	Slides []Slide

	// Warnings counts recovered degradations that left a visible
	// placeholder (failed renders, malformed source blocks).
	Warnings int
}

// plainRun wraps unstyled text in a single run.
func plainRun(text string) []TextRun {
	return []TextRun{{Text: text}}
}
