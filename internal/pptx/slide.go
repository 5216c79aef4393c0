package pptx

import (
	"fmt"
	"strings"

	"github.com/alnah/go-qmd2pptx/internal/assemble"
)

// Geometry constants in EMU.
const (
	marginX      = 457200  // 0.5in side margin
	titleY       = 274638  // title box top
	titleHeight  = 831850  // title box height
	bodyTop      = 1280160 // first body item top
	itemSpacing  = 91440   // 0.1in between body items
	lineHeight   = 320040  // estimated height of one wrapped text line
	maxImageW    = 7315200 // 8in
	maxImageH    = 2926080 // 3.2in
	displayDPI   = 150     // effective DPI when placing hi-res renders
	charsPerLine = 90      // wrap estimate for body text
)

// Font sizes in hundredths of a point.
const (
	titleFontSize    = 3200
	sectionFontSize  = 4000
	deckTitleSize    = 4400
	subtitleFontSize = 2000
	bodyFontSize     = 1800
	captionFontSize  = 1400
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func esc(s string) string { return xmlEscaper.Replace(s) }

// slideImage is one picture placed on a slide, resolved to a media part.
type slideImage struct {
	relID string
	path  string // source file on disk
	name  string // media part name, e.g. image3.png
}

// slideHyperlink is one external hyperlink relationship.
type slideHyperlink struct {
	relID string
	url   string
}

// slideBuilder accumulates one slide's shapes and relationship entries.
// Relationship IDs: rId1 is always the layout; images and hyperlinks
// follow; the notes slide (if any) takes the last ID.
type slideBuilder struct {
	theme     Theme
	shapes    strings.Builder
	images    []slideImage
	links     []slideHyperlink
	nextShape int
	nextRel   int
	cursorY   int64

	// imageSize reports pixel dimensions for an image file; injected so
	// the builder itself stays free of file I/O.
	imageSize func(path string) (w, h int, err error)
}

func newSlideBuilder(theme Theme, imageSize func(string) (int, int, error)) *slideBuilder {
	return &slideBuilder{
		theme:     theme,
		nextShape: 2,
		nextRel:   2, // rId1 = layout
		cursorY:   bodyTop,
		imageSize: imageSize,
	}
}

func (sb *slideBuilder) shapeID() int {
	id := sb.nextShape
	sb.nextShape++
	return id
}

func (sb *slideBuilder) relID() string {
	id := fmt.Sprintf("rId%d", sb.nextRel)
	sb.nextRel++
	return id
}

// linkRelFor returns the hyperlink relationship for url, allocating one
// on first use so repeated links share a single rel entry.
func (sb *slideBuilder) linkRelFor(url string) string {
	for _, l := range sb.links {
		if l.url == url {
			return l.relID
		}
	}
	rel := sb.relID()
	sb.links = append(sb.links, slideHyperlink{relID: rel, url: url})
	return rel
}

// build renders one assemble.Slide into shape XML.
func (sb *slideBuilder) build(s assemble.Slide, mediaName func(string) string) {
	switch s.Kind {
	case assemble.SlideTitle:
		sb.addTextBox(marginX, 2286000, slideWidth-2*marginX, 914400,
			[]paragraph{{runs: []assemble.TextRun{{Text: s.Title, Bold: true}}, size: deckTitleSize, color: sb.theme.Heading, center: true}})
		if s.Subtitle != "" {
			sb.addTextBox(marginX, 3429000, slideWidth-2*marginX, 548640,
				[]paragraph{{runs: []assemble.TextRun{{Text: s.Subtitle}}, size: subtitleFontSize, color: sb.theme.Text, center: true}})
		}

	case assemble.SlideSection:
		sb.addTextBox(marginX, 2743200, slideWidth-2*marginX, 914400,
			[]paragraph{{runs: []assemble.TextRun{{Text: s.Title, Bold: true}}, size: sectionFontSize, color: sb.theme.Heading, center: true}})

	case assemble.SlideContent:
		if s.Title != "" {
			sb.addTextBox(marginX, titleY, slideWidth-2*marginX, titleHeight,
				[]paragraph{{runs: []assemble.TextRun{{Text: s.Title, Bold: true}}, size: titleFontSize, color: sb.theme.Heading}})
		}
		for _, item := range s.Body {
			sb.addBodyItem(item, mediaName)
		}
	}
}

// addBodyItem places one body item at the layout cursor.
func (sb *slideBuilder) addBodyItem(item assemble.BodyItem, mediaName func(string) string) {
	switch item.Kind {
	case assemble.ItemText:
		h := textHeight(item.Runs)
		sb.addTextBox(marginX, sb.cursorY, slideWidth-2*marginX, h,
			[]paragraph{{runs: item.Runs, size: bodyFontSize, color: sb.theme.Text, bullet: true}})
		sb.cursorY += h + itemSpacing

	case assemble.ItemLink:
		runs := []assemble.TextRun{{Text: item.Caption + " — " + item.URL, Link: item.URL}}
		sb.addTextBox(marginX, sb.cursorY, slideWidth-2*marginX, lineHeight,
			[]paragraph{{runs: runs, size: bodyFontSize, color: sb.theme.Accent, bullet: true}})
		sb.cursorY += lineHeight + itemSpacing

	case assemble.ItemImage:
		rel := sb.relID()
		img := slideImage{relID: rel, path: item.ImagePath, name: mediaName(item.ImagePath)}
		sb.images = append(sb.images, img)

		w, h := sb.placedSize(item.ImagePath)
		x := (int64(slideWidth) - w) / 2
		sb.addPicture(rel, x, sb.cursorY, w, h)
		sb.cursorY += h + itemSpacing

		if item.Caption != "" {
			ch := int64(lineHeight)
			sb.addTextBox(marginX, sb.cursorY, slideWidth-2*marginX, ch,
				[]paragraph{{runs: []assemble.TextRun{{Text: item.Caption, Italic: true}}, size: captionFontSize, color: sb.theme.Text, center: true}})
			sb.cursorY += ch + itemSpacing
		}
	}
}

// placedSize scales an image's pixel dimensions into EMU, treating renders
// as displayDPI for on-slide size and clamping to the maximum box.
func (sb *slideBuilder) placedSize(path string) (int64, int64) {
	pxW, pxH, err := sb.imageSize(path)
	if err != nil || pxW <= 0 || pxH <= 0 {
		return maxImageW / 2, maxImageH / 2
	}
	w := int64(pxW) * emuPerInch / displayDPI
	h := int64(pxH) * emuPerInch / displayDPI
	if w > maxImageW {
		h = h * maxImageW / w
		w = maxImageW
	}
	if h > maxImageH {
		w = w * maxImageH / h
		h = maxImageH
	}
	return w, h
}

// paragraph is one rendered <a:p> with uniform sizing.
type paragraph struct {
	runs   []assemble.TextRun
	size   int
	color  string
	bullet bool
	center bool
}

func (sb *slideBuilder) addTextBox(x, y, w, h int64, paras []paragraph) {
	id := sb.shapeID()
	fmt.Fprintf(&sb.shapes, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, id)
	fmt.Fprintf(&sb.shapes, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`, x, y, w, h)
	sb.shapes.WriteString(`<p:txBody><a:bodyPr wrap="square"><a:normAutofit/></a:bodyPr><a:lstStyle/>`)
	for _, p := range paras {
		sb.writeParagraph(p)
	}
	sb.shapes.WriteString(`</p:txBody></p:sp>`)
}

func (sb *slideBuilder) writeParagraph(p paragraph) {
	sb.shapes.WriteString(`<a:p><a:pPr`)
	if p.center {
		sb.shapes.WriteString(` algn="ctr"`)
	}
	sb.shapes.WriteString(`>`)
	if p.bullet {
		sb.shapes.WriteString(`<a:buChar char="&#8226;"/>`)
	} else {
		sb.shapes.WriteString(`<a:buNone/>`)
	}
	sb.shapes.WriteString(`</a:pPr>`)

	for _, r := range p.runs {
		sb.shapes.WriteString(`<a:r><a:rPr lang="en-US"`)
		fmt.Fprintf(&sb.shapes, ` sz="%d"`, p.size)
		if r.Bold {
			sb.shapes.WriteString(` b="1"`)
		}
		if r.Italic {
			sb.shapes.WriteString(` i="1"`)
		}
		sb.shapes.WriteString(` dirty="0">`)
		fmt.Fprintf(&sb.shapes, `<a:solidFill><a:srgbClr val="%s"/></a:solidFill>`, p.color)
		if r.Code {
			sb.shapes.WriteString(`<a:latin typeface="Consolas"/>`)
		}
		if r.Link != "" {
			fmt.Fprintf(&sb.shapes, `<a:hlinkClick xmlns:r=%q r:id="%s"/>`, nsR, sb.linkRelFor(r.Link))
		}
		sb.shapes.WriteString(`</a:rPr>`)
		fmt.Fprintf(&sb.shapes, `<a:t>%s</a:t></a:r>`, esc(r.Text))
	}
	sb.shapes.WriteString(`</a:p>`)
}

func (sb *slideBuilder) addPicture(relID string, x, y, w, h int64) {
	id := sb.shapeID()
	fmt.Fprintf(&sb.shapes, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`, id, id)
	fmt.Fprintf(&sb.shapes, `<p:blipFill><a:blip xmlns:r=%q r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`, nsR, relID)
	fmt.Fprintf(&sb.shapes, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`, x, y, w, h)
}

// slidePart wraps the accumulated shapes in the slide document.
func (sb *slideBuilder) slidePart() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<p:sld xmlns:a=%q xmlns:r=%q xmlns:p=%q>`, nsA, nsR, nsP)
	b.WriteString(`<p:cSld><p:spTree>`)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`)
	b.WriteString(`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`)
	b.WriteString(sb.shapes.String())
	b.WriteString(`</p:spTree></p:cSld>`)
	b.WriteString(`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>`)
	b.WriteString(`</p:sld>`)
	return b.String()
}

// slideRels builds the slide's relationship part. notesRel is empty when
// the slide has no notes.
func (sb *slideBuilder) slideRels(slideIndex int, notesRel string) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>`)
	for _, img := range sb.images {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/%s"/>`, img.relID, img.name)
	}
	for _, l := range sb.links {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="%s" TargetMode="External"/>`, l.relID, esc(l.url))
	}
	if notesRel != "" {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide" Target="../notesSlides/notesSlide%d.xml"/>`, notesRel, slideIndex+1)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

// textHeight estimates a text item's box height from its wrapped length.
func textHeight(runs []assemble.TextRun) int64 {
	total := 0
	for _, r := range runs {
		total += len(r.Text)
	}
	lines := int64(total/charsPerLine) + 1
	return lines * lineHeight
}

// notesPart builds a notes slide holding the speaker notes paragraphs.
func notesPart(notes []string) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<p:notes xmlns:a=%q xmlns:r=%q xmlns:p=%q>`, nsA, nsR, nsP)
	b.WriteString(`<p:cSld><p:spTree>`)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`)
	b.WriteString(`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`)
	b.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Notes Placeholder"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr>`)
	b.WriteString(`<p:spPr/>`)
	b.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/>`)
	for _, n := range notes {
		for _, line := range strings.Split(n, "\n") {
			fmt.Fprintf(&b, `<a:p><a:r><a:rPr lang="en-US" dirty="0"/><a:t>%s</a:t></a:r></a:p>`, esc(line))
		}
	}
	b.WriteString(`</a:txBody></p:sp>`)
	b.WriteString(`</p:spTree></p:cSld>`)
	b.WriteString(`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>`)
	b.WriteString(`</p:notes>`)
	return b.String()
}

// notesRels builds a notes slide's relationship part.
func notesRels(slideIndex int) string {
	return xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesMaster" Target="../notesMasters/notesMaster1.xml"/>` +
		fmt.Sprintf(`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="../slides/slide%d.xml"/>`, slideIndex+1) +
		`</Relationships>`
}
