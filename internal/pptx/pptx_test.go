package pptx

import (
	"archive/zip"
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-qmd2pptx/internal/assemble"
)

func mustTheme(t *testing.T) Theme {
	t.Helper()
	theme, err := LookupTheme("")
	if err != nil {
		t.Fatalf("default theme: %v", err)
	}
	return theme
}

// writeTestPNG creates a small real PNG so media embedding and size probing
// work against actual image data.
func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "img.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeDeck(t *testing.T, deck *assemble.Deck) map[string]string {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, deck, mustTheme(t)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("output is not a zip: %v", err)
	}
	parts := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		var b bytes.Buffer
		if _, err := b.ReadFrom(rc); err != nil {
			t.Fatal(err)
		}
		rc.Close()
		parts[f.Name] = b.String()
	}
	return parts
}

func TestWrite_Validation(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, mustTheme(t)); !errors.Is(err, ErrNilDeck) {
		t.Errorf("nil deck: error = %v, want ErrNilDeck", err)
	}
	if err := Write(&buf, &assemble.Deck{}, mustTheme(t)); !errors.Is(err, ErrEmptyDeck) {
		t.Errorf("empty deck: error = %v, want ErrEmptyDeck", err)
	}
}

func TestWrite_PartInventory(t *testing.T) {
	deck := &assemble.Deck{
		Title: "Test",
		Slides: []assemble.Slide{
			{Kind: assemble.SlideTitle, Title: "Test", Subtitle: "Sub"},
			{Kind: assemble.SlideContent, Title: "One", Body: []assemble.BodyItem{
				{Kind: assemble.ItemText, Runs: []assemble.TextRun{{Text: "hello"}}},
			}},
		},
	}
	parts := writeDeck(t, deck)

	required := []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"ppt/presentation.xml",
		"ppt/_rels/presentation.xml.rels",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/notesMasters/notesMaster1.xml",
		"ppt/theme/theme1.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/slide2.xml",
		"ppt/slides/_rels/slide1.xml.rels",
		"ppt/slides/_rels/slide2.xml.rels",
	}
	for _, name := range required {
		if _, ok := parts[name]; !ok {
			t.Errorf("missing part %s", name)
		}
	}
	if _, ok := parts["ppt/slides/slide3.xml"]; ok {
		t.Error("extra slide part emitted")
	}

	if !strings.Contains(parts["ppt/slides/slide1.xml"], "Test") {
		t.Error("title slide missing its title text")
	}
	if !strings.Contains(parts["ppt/slides/slide2.xml"], "hello") {
		t.Error("content slide missing its body text")
	}
}

func TestWrite_MediaDeduplication(t *testing.T) {
	img := writeTestPNG(t, 100, 50)
	deck := &assemble.Deck{
		Slides: []assemble.Slide{
			{Kind: assemble.SlideContent, Title: "A", Body: []assemble.BodyItem{
				{Kind: assemble.ItemImage, ImagePath: img},
				{Kind: assemble.ItemImage, ImagePath: img},
			}},
		},
	}
	parts := writeDeck(t, deck)

	if _, ok := parts["ppt/media/image1.png"]; !ok {
		t.Fatal("missing embedded media")
	}
	if _, ok := parts["ppt/media/image2.png"]; ok {
		t.Error("same source image embedded twice")
	}
	rels := parts["ppt/slides/_rels/slide1.xml.rels"]
	if !strings.Contains(rels, "../media/image1.png") {
		t.Errorf("slide rels missing media target: %s", rels)
	}
}

func TestWrite_Hyperlinks(t *testing.T) {
	deck := &assemble.Deck{
		Slides: []assemble.Slide{
			{Kind: assemble.SlideContent, Title: "Links", Body: []assemble.BodyItem{
				{Kind: assemble.ItemLink, URL: "https://example.com/sim", Caption: "Simulator"},
			}},
		},
	}
	parts := writeDeck(t, deck)

	rels := parts["ppt/slides/_rels/slide1.xml.rels"]
	if !strings.Contains(rels, `Target="https://example.com/sim"`) {
		t.Errorf("rels missing hyperlink target: %s", rels)
	}
	if !strings.Contains(rels, `TargetMode="External"`) {
		t.Errorf("hyperlink not marked external: %s", rels)
	}
	if !strings.Contains(parts["ppt/slides/slide1.xml"], "Simulator") {
		t.Error("slide missing link caption")
	}
}

func TestWrite_InlineLinks(t *testing.T) {
	deck := &assemble.Deck{
		Slides: []assemble.Slide{
			{Kind: assemble.SlideContent, Title: "Reading", Body: []assemble.BodyItem{
				{Kind: assemble.ItemText, Runs: []assemble.TextRun{
					{Text: "See "},
					{Text: "the docs", Link: "https://example.com/docs"},
					{Text: " and "},
					{Text: "the docs again", Link: "https://example.com/docs"},
				}},
			}},
		},
	}
	parts := writeDeck(t, deck)

	slide := parts["ppt/slides/slide1.xml"]
	if got := strings.Count(slide, "<a:hlinkClick"); got != 2 {
		t.Errorf("slide has %d hlinkClick elements, want 2", got)
	}

	rels := parts["ppt/slides/_rels/slide1.xml.rels"]
	if got := strings.Count(rels, `Target="https://example.com/docs"`); got != 1 {
		t.Errorf("rels has %d entries for the shared URL, want 1", got)
	}
	if !strings.Contains(rels, `TargetMode="External"`) {
		t.Errorf("inline link not marked external: %s", rels)
	}
}

func TestWrite_SpeakerNotes(t *testing.T) {
	deck := &assemble.Deck{
		Slides: []assemble.Slide{
			{Kind: assemble.SlideContent, Title: "A", Notes: []string{"remember the caveat"}},
			{Kind: assemble.SlideContent, Title: "B"},
		},
	}
	parts := writeDeck(t, deck)

	notes, ok := parts["ppt/notesSlides/notesSlide1.xml"]
	if !ok {
		t.Fatal("missing notes slide for slide with notes")
	}
	if !strings.Contains(notes, "remember the caveat") {
		t.Error("notes slide missing its text")
	}
	if _, ok := parts["ppt/notesSlides/notesSlide2.xml"]; ok {
		t.Error("notes slide emitted for slide without notes")
	}
	if !strings.Contains(parts["ppt/slides/_rels/slide1.xml.rels"], "notesSlide1.xml") {
		t.Error("slide rels missing notes relationship")
	}
	if !strings.Contains(parts["[Content_Types].xml"], "notesSlide1.xml") {
		t.Error("content types missing notes override")
	}
}

func TestWrite_MissingMediaFails(t *testing.T) {
	deck := &assemble.Deck{
		Slides: []assemble.Slide{
			{Kind: assemble.SlideContent, Title: "A", Body: []assemble.BodyItem{
				{Kind: assemble.ItemImage, ImagePath: "/nonexistent/file.png"},
			}},
		},
	}
	var buf bytes.Buffer
	err := Write(&buf, deck, mustTheme(t))
	if !errors.Is(err, ErrWritePart) {
		t.Fatalf("error = %v, want ErrWritePart", err)
	}
}

func TestWriteFile(t *testing.T) {
	t.Run("writes deck to disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.pptx")
		deck := &assemble.Deck{Slides: []assemble.Slide{{Kind: assemble.SlideContent, Title: "A"}}}
		if err := WriteFile(path, deck, mustTheme(t)); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if info.Size() == 0 {
			t.Error("output file is empty")
		}
	})

	t.Run("removes file on write failure", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.pptx")
		deck := &assemble.Deck{Slides: []assemble.Slide{
			{Kind: assemble.SlideContent, Body: []assemble.BodyItem{
				{Kind: assemble.ItemImage, ImagePath: "/nonexistent.png"},
			}},
		}}
		if err := WriteFile(path, deck, mustTheme(t)); err == nil {
			t.Fatal("expected error")
		}
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Error("partial output file left behind")
		}
	})
}

func TestLookupTheme(t *testing.T) {
	t.Run("empty name resolves to default", func(t *testing.T) {
		theme, err := LookupTheme("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if theme.Name != DefaultThemeName {
			t.Errorf("Name = %q, want %q", theme.Name, DefaultThemeName)
		}
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		if _, err := LookupTheme("Slate"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unknown theme lists available names", func(t *testing.T) {
		_, err := LookupTheme("neon")
		if !errors.Is(err, ErrThemeNotFound) {
			t.Fatalf("error = %v, want ErrThemeNotFound", err)
		}
		for _, name := range ThemeNames() {
			if !strings.Contains(err.Error(), name) {
				t.Errorf("error %q missing theme %q", err, name)
			}
		}
	})
}

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) < 3 {
		t.Fatalf("got %d themes, want at least 3", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}

func TestPngSize(t *testing.T) {
	path := writeTestPNG(t, 640, 480)
	w, h, err := pngSize(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 640 || h != 480 {
		t.Errorf("size = %dx%d, want 640x480", w, h)
	}

	if _, _, err := pngSize(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
