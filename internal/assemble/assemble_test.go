package assemble

import (
	"errors"
	"testing"

	"github.com/alnah/go-qmd2pptx/internal/extract"
)

func contentSlides(deck *Deck) []Slide {
	var out []Slide
	for _, s := range deck.Slides {
		if s.Kind == SlideContent {
			out = append(out, s)
		}
	}
	return out
}

func TestAssemble_SlidePerHeading(t *testing.T) {
	blocks := []extract.Block{
		{Kind: extract.KindHeading, Level: 1, Text: "Derivatives"},
		{Kind: extract.KindHeading, Level: 2, Text: "Forwards"},
		{Kind: extract.KindParagraph, Text: "A forward fixes the price today."},
		{Kind: extract.KindHeading, Level: 2, Text: "Futures"},
		{Kind: extract.KindParagraph, Text: "Futures are exchange traded."},
		{Kind: extract.KindParagraph, Text: "They settle daily."},
	}

	deck, err := Assemble(blocks, nil, Options{Title: "Derivatives"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The lone H1 restates the deck title, so no section slide appears.
	got := contentSlides(deck)
	if len(got) != 2 {
		t.Fatalf("got %d content slides, want 2", len(got))
	}
	if got[0].Title != "Forwards" || got[1].Title != "Futures" {
		t.Errorf("titles = %q, %q", got[0].Title, got[1].Title)
	}
	if len(got[0].Body) != 1 {
		t.Errorf("first slide has %d items, want 1", len(got[0].Body))
	}
	if len(got[1].Body) != 2 {
		t.Errorf("second slide has %d items, want 2", len(got[1].Body))
	}
}

func TestAssemble_TitleSlide(t *testing.T) {
	deck, err := Assemble(nil, nil, Options{
		Title:      "Options",
		Subtitle:   "Chapter 9",
		Author:     "Jane Quant",
		TitleSlide: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deck.Slides) != 2 {
		t.Fatalf("got %d slides, want title slide plus degenerate content slide", len(deck.Slides))
	}
	first := deck.Slides[0]
	if first.Kind != SlideTitle {
		t.Fatalf("first slide kind = %v, want title", first.Kind)
	}
	if first.Title != "Options" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Subtitle != "Chapter 9 — Jane Quant" {
		t.Errorf("Subtitle = %q", first.Subtitle)
	}
}

func TestAssemble_SectionSlides(t *testing.T) {
	blocks := []extract.Block{
		{Kind: extract.KindHeading, Level: 1, Text: "Risk"},
		{Kind: extract.KindHeading, Level: 1, Text: "Part Two"},
		{Kind: extract.KindHeading, Level: 2, Text: "Volatility"},
	}
	deck, err := Assemble(blocks, nil, Options{Title: "Risk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// First H1 matches the deck title and is dropped; the second becomes a
	// section divider.
	if len(deck.Slides) != 2 {
		t.Fatalf("got %d slides, want 2", len(deck.Slides))
	}
	if deck.Slides[0].Kind != SlideSection || deck.Slides[0].Title != "Part Two" {
		t.Errorf("slide 0 = %v %q, want section Part Two", deck.Slides[0].Kind, deck.Slides[0].Title)
	}
	if deck.Slides[1].Kind != SlideContent || deck.Slides[1].Title != "Volatility" {
		t.Errorf("slide 1 = %v %q, want content Volatility", deck.Slides[1].Kind, deck.Slides[1].Title)
	}
}

func TestAssemble_SlideLevel(t *testing.T) {
	blocks := []extract.Block{
		{Kind: extract.KindHeading, Level: 1, Text: "Part One"},
		{Kind: extract.KindParagraph, Text: "intro"},
		{Kind: extract.KindHeading, Level: 1, Text: "Part Two"},
	}
	deck, err := Assemble(blocks, nil, Options{SlideLevel: 1, Title: "Book"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := contentSlides(deck)
	if len(got) != 2 {
		t.Fatalf("got %d content slides, want 2", len(got))
	}
	if got[0].Title != "Part One" || got[1].Title != "Part Two" {
		t.Errorf("titles = %q, %q", got[0].Title, got[1].Title)
	}
}

func TestAssemble_DeeperHeadingsBecomeBullets(t *testing.T) {
	blocks := []extract.Block{
		{Kind: extract.KindHeading, Level: 2, Text: "Greeks"},
		{Kind: extract.KindHeading, Level: 3, Text: "Delta"},
		{Kind: extract.KindParagraph, Text: "first derivative of price"},
	}
	deck, err := Assemble(blocks, nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := contentSlides(deck)
	if len(got) != 1 {
		t.Fatalf("got %d content slides, want 1", len(got))
	}
	body := got[0].Body
	if len(body) != 2 {
		t.Fatalf("got %d body items, want 2", len(body))
	}
	if !body[0].Runs[0].Bold || body[0].Runs[0].Text != "Delta" {
		t.Errorf("H3 bullet = %+v, want bold Delta", body[0].Runs[0])
	}
}

func TestAssemble_ContinuationSlides(t *testing.T) {
	t.Run("overfull section rolls onto a continuation slide", func(t *testing.T) {
		blocks := []extract.Block{
			{Kind: extract.KindHeading, Level: 2, Text: "Yield Curves"},
		}
		for i := 0; i < maxBodyItems+2; i++ {
			blocks = append(blocks, extract.Block{Kind: extract.KindParagraph, Text: "point"})
		}

		deck, err := Assemble(blocks, nil, Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := contentSlides(deck)
		if len(got) != 2 {
			t.Fatalf("got %d content slides, want 2", len(got))
		}
		if len(got[0].Body) != maxBodyItems {
			t.Errorf("first slide has %d items, want %d", len(got[0].Body), maxBodyItems)
		}
		if len(got[1].Body) != 2 {
			t.Errorf("continuation slide has %d items, want 2", len(got[1].Body))
		}
		if got[1].Title != "Yield Curves (cont.)" {
			t.Errorf("continuation title = %q", got[1].Title)
		}
	})

	t.Run("second continuation keeps the same title", func(t *testing.T) {
		blocks := []extract.Block{
			{Kind: extract.KindHeading, Level: 2, Text: "Duration"},
		}
		for i := 0; i < 2*maxBodyItems+1; i++ {
			blocks = append(blocks, extract.Block{Kind: extract.KindParagraph, Text: "point"})
		}

		deck, err := Assemble(blocks, nil, Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := contentSlides(deck)
		if len(got) != 3 {
			t.Fatalf("got %d content slides, want 3", len(got))
		}
		if got[1].Title != "Duration (cont.)" || got[2].Title != "Duration (cont.)" {
			t.Errorf("continuation titles = %q, %q", got[1].Title, got[2].Title)
		}
	})

	t.Run("rendered assets roll over too", func(t *testing.T) {
		blocks := []extract.Block{
			{Kind: extract.KindHeading, Level: 2, Text: "Proofs"},
		}
		assets := map[int]AssetResult{}
		for i := 1; i <= maxBodyItems+1; i++ {
			blocks = append(blocks, extract.Block{Kind: extract.KindMath, Raw: "x", Display: true, Line: i})
			assets[i] = AssetResult{Path: "/tmp/eq.png"}
		}

		deck, err := Assemble(blocks, assets, Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := contentSlides(deck)
		if len(got) != 2 {
			t.Fatalf("got %d content slides, want 2", len(got))
		}
		if len(got[1].Body) != 1 || got[1].Body[0].Kind != ItemImage {
			t.Errorf("continuation body = %+v, want one image", got[1].Body)
		}
	})
}

func TestAssemble_RenderedAssets(t *testing.T) {
	t.Run("successful render becomes image item", func(t *testing.T) {
		blocks := []extract.Block{
			{Kind: extract.KindHeading, Level: 2, Text: "Pricing"},
			{Kind: extract.KindMath, Raw: "e = mc^2", Display: true, Line: 5},
		}
		assets := map[int]AssetResult{1: {Path: "/tmp/eq-001-abc.png"}}
		deck, err := Assemble(blocks, assets, Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		body := contentSlides(deck)[0].Body
		if len(body) != 1 || body[0].Kind != ItemImage {
			t.Fatalf("body = %+v, want one image item", body)
		}
		if body[0].ImagePath != "/tmp/eq-001-abc.png" {
			t.Errorf("ImagePath = %q", body[0].ImagePath)
		}
		if deck.Warnings != 0 {
			t.Errorf("Warnings = %d, want 0", deck.Warnings)
		}
	})

	t.Run("failed render becomes placeholder and warning", func(t *testing.T) {
		blocks := []extract.Block{
			{Kind: extract.KindHeading, Level: 2, Text: "Pricing"},
			{Kind: extract.KindMath, Raw: `\badcmd`, Line: 7},
		}
		assets := map[int]AssetResult{1: {Failure: "KaTeX: Undefined control sequence"}}
		deck, err := Assemble(blocks, assets, Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s := contentSlides(deck)[0]
		if len(s.Body) != 1 || s.Body[0].Kind != ItemText {
			t.Fatalf("body = %+v, want one placeholder text item", s.Body)
		}
		if !s.Body[0].Runs[0].Italic {
			t.Error("placeholder run not italic")
		}
		if deck.Warnings != 1 {
			t.Errorf("Warnings = %d, want 1", deck.Warnings)
		}
		if len(s.Notes) != 1 {
			t.Errorf("Notes = %v, want one failure note", s.Notes)
		}
	})

	t.Run("failed figure with snapshot gets placeholder and image", func(t *testing.T) {
		blocks := []extract.Block{
			{Kind: extract.KindFigure, Label: "fig-payoff", Caption: "Payoff", Line: 3},
		}
		assets := map[int]AssetResult{0: {
			Path:    "/tmp/fig-payoff-code.png",
			Failure: "execution timed out",
		}}
		deck, err := Assemble(blocks, assets, Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		body := contentSlides(deck)[0].Body
		if len(body) != 2 {
			t.Fatalf("got %d body items, want placeholder plus snapshot", len(body))
		}
		if body[0].Kind != ItemText || body[1].Kind != ItemImage {
			t.Errorf("kinds = %v, %v, want text then image", body[0].Kind, body[1].Kind)
		}
		if body[1].Caption != "Payoff" {
			t.Errorf("Caption = %q", body[1].Caption)
		}
	})

	t.Run("missing asset is fatal", func(t *testing.T) {
		blocks := []extract.Block{
			{Kind: extract.KindMath, Raw: "x", Line: 2},
		}
		_, err := Assemble(blocks, nil, Options{})
		if !errors.Is(err, ErrAssetMismatch) {
			t.Fatalf("error = %v, want ErrAssetMismatch", err)
		}
	})
}

func TestAssemble_Embeds(t *testing.T) {
	blocks := []extract.Block{
		{Kind: extract.KindHeading, Level: 2, Text: "Demo"},
		{Kind: extract.KindEmbed, URL: "https://example.com/sim", Caption: "fig-sim"},
		{Kind: extract.KindEmbed, URL: "https://example.com/other"},
	}
	deck, err := Assemble(blocks, nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := contentSlides(deck)[0]
	if len(s.Body) != 2 {
		t.Fatalf("got %d body items, want 2", len(s.Body))
	}
	if s.Body[0].Kind != ItemLink || s.Body[0].URL != "https://example.com/sim" {
		t.Errorf("item 0 = %+v", s.Body[0])
	}
	if s.Body[1].Caption != "Interactive content" {
		t.Errorf("uncaptioned embed caption = %q", s.Body[1].Caption)
	}
	if len(s.Notes) != 2 {
		t.Errorf("got %d notes, want one per embed", len(s.Notes))
	}
}

func TestAssemble_CodeGoesToNotes(t *testing.T) {
	blocks := []extract.Block{
		{Kind: extract.KindHeading, Level: 2, Text: "Setup"},
		{Kind: extract.KindCode, Language: "python", Code: "import numpy as np"},
	}
	deck, err := Assemble(blocks, nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := contentSlides(deck)[0]
	if len(s.Body) != 0 {
		t.Errorf("code leaked into body: %+v", s.Body)
	}
	if len(s.Notes) != 1 {
		t.Fatalf("got %d notes, want 1", len(s.Notes))
	}
}

func TestAssemble_Callout(t *testing.T) {
	blocks := []extract.Block{
		{Kind: extract.KindHeading, Level: 2, Text: "Caveats"},
		{Kind: extract.KindCallout, Title: "callout-warning", Text: "Past returns mislead."},
	}
	deck, err := Assemble(blocks, nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runs := contentSlides(deck)[0].Body[0].Runs
	if runs[0].Text != "Warning: " || !runs[0].Bold {
		t.Errorf("lead run = %+v, want bold Warning prefix", runs[0])
	}
}

func TestAssemble_DiagnosticLeavesTrace(t *testing.T) {
	blocks := []extract.Block{
		{Kind: extract.KindDiagnostic, Line: 9, Reason: "unterminated code fence"},
	}
	deck, err := Assemble(blocks, nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deck.Warnings != 1 {
		t.Errorf("Warnings = %d, want 1", deck.Warnings)
	}
	s := contentSlides(deck)[0]
	if len(s.Body) != 1 || !s.Body[0].Runs[0].Italic {
		t.Fatalf("body = %+v, want one italic trace", s.Body)
	}
}

func TestAssemble_DegenerateDocument(t *testing.T) {
	t.Run("no blocks yields one content slide", func(t *testing.T) {
		deck, err := Assemble(nil, nil, Options{Title: "Empty"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(deck.Slides) != 1 {
			t.Fatalf("got %d slides, want 1", len(deck.Slides))
		}
		if deck.Slides[0].Kind != SlideContent || deck.Slides[0].Title != "Empty" {
			t.Errorf("slide = %+v", deck.Slides[0])
		}
	})

	t.Run("content before any heading lands on fallback slide", func(t *testing.T) {
		blocks := []extract.Block{
			{Kind: extract.KindParagraph, Text: "orphan text"},
		}
		deck, err := Assemble(blocks, nil, Options{Title: "Chapter"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := contentSlides(deck)
		if len(got) != 1 || got[0].Title != "Chapter" {
			t.Fatalf("slides = %+v", got)
		}
		if len(got[0].Body) != 1 {
			t.Errorf("body = %+v", got[0].Body)
		}
	})
}

func TestTitleSubtitle(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"subtitle and author", Options{Subtitle: "Ch 1", Author: "A"}, "Ch 1 — A"},
		{"subtitle only", Options{Subtitle: "Ch 1"}, "Ch 1"},
		{"author and date", Options{Author: "A", Date: "2026-01-01"}, "A, 2026-01-01"},
		{"author only", Options{Author: "A"}, "A"},
		{"date only", Options{Date: "2026-01-01"}, "2026-01-01"},
		{"nothing", Options{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titleSubtitle(tt.opts); got != tt.want {
				t.Errorf("titleSubtitle() = %q, want %q", got, tt.want)
			}
		})
	}
}
