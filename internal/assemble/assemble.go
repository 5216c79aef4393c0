package assemble

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-qmd2pptx/internal/extract"
)

// ErrAssetMismatch reports a renderable block with neither an asset nor a
// recorded failure. It means the render phase and the assembler disagree
// about the document, which is fatal to that document only.
var ErrAssetMismatch = errors.New("rendered asset missing for block")

// maxBodyItems caps one slide's body. A section with more content rolls
// onto continuation slides instead of walking off the slide bottom.
const maxBodyItems = 6

const continuationSuffix = " (cont.)"

// AssetResult is the render outcome for one block, keyed by block index.
// Path points at a PNG on disk. Failure carries the recovered failure
// reason; a result may have both (a code snapshot standing in for a failed
// figure). A zero AssetResult is invalid for Math and Figure blocks.
type AssetResult struct {
	Path    string
	Failure string
}

// Options configures assembly policy.
type Options struct {
	// SlideLevel is the heading depth that opens a new slide (default 2).
	SlideLevel int

	// Title is the resolved chapter title, used for the optional title
	// slide and as the degenerate single-slide title.
	Title    string
	Subtitle string
	Author   string
	Date     string

	// TitleSlide prepends a title slide when true.
	TitleSlide bool
}

// Assemble maps blocks plus render results onto a Deck. Body-item order
// within each slide matches source order; the content-slide count equals
// the number of slide-level headings, or one when there are none.
func Assemble(blocks []extract.Block, assets map[int]AssetResult, opts Options) (*Deck, error) {
	slideLevel := opts.SlideLevel
	if slideLevel <= 0 {
		slideLevel = 2
	}

	deck := &Deck{Title: opts.Title}
	if opts.TitleSlide {
		deck.Slides = append(deck.Slides, Slide{
			Kind:     SlideTitle,
			Title:    opts.Title,
			Subtitle: titleSubtitle(opts),
		})
	}

	a := &assembler{deck: deck, slideLevel: slideLevel, fallbackTitle: opts.Title}
	for i, b := range blocks {
		if err := a.place(i, b, assets); err != nil {
			return nil, err
		}
	}
	a.flush()

	// Degenerate document: no slide-level heading still yields exactly one
	// content slide holding everything (possibly empty), never zero.
	if a.contentSlides == 0 {
		deck.Slides = append(deck.Slides, Slide{Kind: SlideContent, Title: opts.Title})
	}

	return deck, nil
}

type assembler struct {
	deck          *Deck
	slideLevel    int
	fallbackTitle string

	current       *Slide
	contentSlides int
	seenTitleH1   bool
}

// open starts a new content slide, flushing the previous one.
func (a *assembler) open(title string) {
	a.flush()
	a.current = &Slide{Kind: SlideContent, Title: title}
	a.contentSlides++
}

// ensure returns the currently open slide, opening the degenerate
// whole-document slide when no slide-level heading has appeared yet.
func (a *assembler) ensure() *Slide {
	if a.current == nil {
		a.open(a.fallbackTitle)
	}
	return a.current
}

func (a *assembler) flush() {
	if a.current != nil {
		a.deck.Slides = append(a.deck.Slides, *a.current)
		a.current = nil
	}
}

// appendBody adds one body item to the open slide, rolling onto a
// continuation slide when the slide is full.
func (a *assembler) appendBody(item BodyItem) *Slide {
	s := a.ensure()
	if len(s.Body) >= maxBodyItems {
		a.open(continuationTitle(s.Title))
		s = a.current
	}
	s.Body = append(s.Body, item)
	return s
}

func continuationTitle(title string) string {
	if strings.HasSuffix(title, continuationSuffix) {
		return title
	}
	return title + continuationSuffix
}

func (a *assembler) place(idx int, b extract.Block, assets map[int]AssetResult) error {
	switch b.Kind {
	case extract.KindHeading:
		switch {
		case b.Level < a.slideLevel:
			// The first H1 restates the chapter title already shown on the
			// title slide; further shallow headings become section dividers.
			if b.Level == 1 && !a.seenTitleH1 {
				a.seenTitleH1 = true
				if b.Text == a.fallbackTitle {
					return nil
				}
			}
			a.flush()
			a.deck.Slides = append(a.deck.Slides, Slide{Kind: SlideSection, Title: b.Text})
		case b.Level == a.slideLevel:
			a.open(b.Text)
		default:
			// Deeper headings become emphasized bullets on the open slide.
			a.appendBody(BodyItem{Kind: ItemText, Runs: []TextRun{{Text: b.Text, Bold: true}}})
		}

	case extract.KindParagraph:
		a.appendBody(BodyItem{Kind: ItemText, Runs: flattenRuns(b.Text)})

	case extract.KindCallout:
		runs := []TextRun{{Text: calloutTitle(b.Title) + ": ", Bold: true}}
		runs = append(runs, flattenRuns(b.Text)...)
		a.appendBody(BodyItem{Kind: ItemText, Runs: runs})

	case extract.KindMath:
		res, ok := assets[idx]
		if !ok {
			return fmt.Errorf("%w: math block at line %d (index %d)", ErrAssetMismatch, b.Line, idx)
		}
		a.placeRendered(res, fmt.Sprintf("equation could not be rendered (line %d)", b.Line), "")

	case extract.KindFigure:
		res, ok := assets[idx]
		if !ok {
			return fmt.Errorf("%w: figure %s at line %d (index %d)", ErrAssetMismatch, b.Label, b.Line, idx)
		}
		a.placeRendered(res, fmt.Sprintf("figure %s could not be rendered", b.Label), b.Caption)

	case extract.KindCode:
		// Setup cells never show on slides; mirror them into speaker notes
		// so the presenter can see what the figures depend on.
		s := a.ensure()
		s.Notes = append(s.Notes, "Setup code:\n"+b.Code)

	case extract.KindEmbed:
		caption := b.Caption
		if caption == "" {
			caption = "Interactive content"
		}
		s := a.appendBody(BodyItem{Kind: ItemLink, URL: b.URL, Caption: caption})
		s.Notes = append(s.Notes, fmt.Sprintf("Embedded content: %s (%s). Open in a browser during the talk.", caption, b.URL))

	case extract.KindDiagnostic:
		// Malformed source leaves a visible trace instead of vanishing.
		a.deck.Warnings++
		a.appendBody(BodyItem{Kind: ItemText, Runs: []TextRun{
			{Text: fmt.Sprintf("[source issue at line %d: %s]", b.Line, b.Reason), Italic: true},
		}})
	}
	return nil
}

// placeRendered adds an image item for a successful render, a visible
// placeholder for a failure, or both when a stand-in image exists.
func (a *assembler) placeRendered(res AssetResult, placeholder, caption string) {
	if res.Failure != "" {
		a.deck.Warnings++
		s := a.appendBody(BodyItem{Kind: ItemText, Runs: []TextRun{
			{Text: "⚠ " + placeholder + ": " + res.Failure, Italic: true},
		}})
		s.Notes = append(s.Notes, placeholder+": "+res.Failure)
	}
	if res.Path != "" {
		a.appendBody(BodyItem{Kind: ItemImage, ImagePath: res.Path, Caption: caption})
	}
}

// calloutTitle maps a callout fence type to a display title.
func calloutTitle(t string) string {
	// "callout-note" style fences keep only the suffix.
	t = strings.TrimPrefix(t, "callout-")
	if t == "" {
		return "Note"
	}
	return strings.ToUpper(t[:1]) + t[1:]
}

// titleSubtitle composes the title slide's subtitle line.
func titleSubtitle(opts Options) string {
	switch {
	case opts.Subtitle != "" && opts.Author != "":
		return opts.Subtitle + " — " + opts.Author
	case opts.Subtitle != "":
		return opts.Subtitle
	case opts.Author != "" && opts.Date != "":
		return opts.Author + ", " + opts.Date
	case opts.Author != "":
		return opts.Author
	default:
		return opts.Date
	}
}
