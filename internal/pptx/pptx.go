// Package pptx writes presentation decks as ECMA-376 PresentationML
// packages. It covers exactly the feature set the assembler produces:
// explicit-geometry text boxes, pictures, hyperlinks and speaker notes
// on a blank layout, with a small selectable color theme.
package pptx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"

	"github.com/alnah/go-qmd2pptx/internal/assemble"
)

var (
	ErrNilDeck   = errors.New("nil deck")
	ErrEmptyDeck = errors.New("deck has no slides")
	ErrWritePart = errors.New("failed to write package part")
)

// Write serializes deck as a complete .pptx package to w. Image paths
// referenced by the deck are read from disk and embedded as media parts.
func Write(w io.Writer, deck *assemble.Deck, theme Theme) error {
	if deck == nil {
		return ErrNilDeck
	}
	if len(deck.Slides) == 0 {
		return ErrEmptyDeck
	}

	var media []slideImage
	seen := map[string]string{}
	mediaName := func(path string) string {
		if name, ok := seen[path]; ok {
			return name
		}
		name := fmt.Sprintf("image%d.png", len(seen)+1)
		seen[path] = name
		media = append(media, slideImage{path: path, name: name})
		return name
	}

	builders := make([]*slideBuilder, len(deck.Slides))
	notesRelIDs := make([]string, len(deck.Slides))
	hasNotes := make([]bool, len(deck.Slides))
	for i, s := range deck.Slides {
		sb := newSlideBuilder(theme, pngSize)
		sb.build(s, mediaName)
		if len(s.Notes) > 0 {
			notesRelIDs[i] = sb.relID()
			hasNotes[i] = true
		}
		builders[i] = sb
	}

	zw := zip.NewWriter(w)

	put := func(name, content string) error {
		f, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWritePart, name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWritePart, name, err)
		}
		return nil
	}

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypes(len(deck.Slides), hasNotes)},
		{"_rels/.rels", rootRels},
		{"ppt/presentation.xml", presentationPart(len(deck.Slides))},
		{"ppt/_rels/presentation.xml.rels", presentationRels(len(deck.Slides))},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterPart()},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRels},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayoutPart()},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRels},
		{"ppt/notesMasters/notesMaster1.xml", notesMasterPart()},
		{"ppt/notesMasters/_rels/notesMaster1.xml.rels", notesMasterRels},
		{"ppt/theme/theme1.xml", themePart(theme)},
	}
	for _, p := range parts {
		if err := put(p.name, p.content); err != nil {
			return err
		}
	}

	for i, sb := range builders {
		if err := put(fmt.Sprintf("ppt/slides/slide%d.xml", i+1), sb.slidePart()); err != nil {
			return err
		}
		if err := put(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), sb.slideRels(i, notesRelIDs[i])); err != nil {
			return err
		}
	}

	for i, s := range deck.Slides {
		if !hasNotes[i] {
			continue
		}
		if err := put(fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", i+1), notesPart(s.Notes)); err != nil {
			return err
		}
		if err := put(fmt.Sprintf("ppt/notesSlides/_rels/notesSlide%d.xml.rels", i+1), notesRels(i)); err != nil {
			return err
		}
	}

	for _, m := range media {
		data, err := os.ReadFile(m.path)
		if err != nil {
			return fmt.Errorf("%w: media %s: %v", ErrWritePart, m.name, err)
		}
		f, err := zw.Create("ppt/media/" + m.name)
		if err != nil {
			return fmt.Errorf("%w: media %s: %v", ErrWritePart, m.name, err)
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("%w: media %s: %v", ErrWritePart, m.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWritePart, err)
	}
	return nil
}

// WriteFile is a convenience wrapper around Write targeting a path.
func WriteFile(path string, deck *assemble.Deck, theme Theme) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(f, deck, theme); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// pngSize reads a PNG's pixel dimensions without decoding the image data.
func pngSize(path string) (int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
