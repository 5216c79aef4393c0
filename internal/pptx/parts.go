package pptx

import (
	"fmt"
	"strings"
)

// Static and templated OOXML parts. The package layout follows ECMA-376:
// one presentation part referencing a slide master, a blank layout, a theme,
// a notes master, and per-slide parts with their relationships. Shapes use
// explicit geometry rather than layout placeholders, so the master and
// layout stay minimal.

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const (
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"
)

// Slide dimensions in EMU: 13.333 x 7.5 inches (16:9).
const (
	emuPerInch  = 914400
	slideWidth  = 12192000
	slideHeight = 6858000
)

// contentTypes builds [Content_Types].xml for the given part counts.
func contentTypes(slideCount int, notes []bool) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	b.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	b.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/notesMasters/notesMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.notesMaster+xml"/>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&b, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
	}
	for i, hasNotes := range notes {
		if hasNotes {
			fmt.Fprintf(&b, `<Override PartName="/ppt/notesSlides/notesSlide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"/>`, i+1)
		}
	}
	b.WriteString(`</Types>`)
	return b.String()
}

// rootRels is the package-level relationship part.
const rootRels = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>` +
	`</Relationships>`

// presentationPart builds ppt/presentation.xml. Slide rIds start at rId3
// (rId1 = master, rId2 = notes master).
func presentationPart(slideCount int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<p:presentation xmlns:a=%q xmlns:r=%q xmlns:p=%q>`, nsA, nsR, nsP)
	b.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	b.WriteString(`<p:notesMasterIdLst><p:notesMasterId r:id="rId2"/></p:notesMasterIdLst>`)
	b.WriteString(`<p:sldIdLst>`)
	for i := 0; i < slideCount; i++ {
		fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, 3+i)
	}
	b.WriteString(`</p:sldIdLst>`)
	fmt.Fprintf(&b, `<p:sldSz cx="%d" cy="%d"/>`, slideWidth, slideHeight)
	fmt.Fprintf(&b, `<p:notesSz cx="%d" cy="%d"/>`, 6858000, 9144000)
	b.WriteString(`</p:presentation>`)
	return b.String()
}

// presentationRels builds ppt/_rels/presentation.xml.rels.
func presentationRels(slideCount int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	b.WriteString(`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesMaster" Target="notesMasters/notesMaster1.xml"/>`)
	for i := 0; i < slideCount; i++ {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, 3+i, i+1)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

// emptySpTree is the boilerplate opening of an empty shape tree.
const emptySpTree = `<p:spTree>` +
	`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>` +
	`</p:spTree>`

// slideMasterPart builds the minimal slide master.
func slideMasterPart() string {
	return xmlHeader + fmt.Sprintf(`<p:sldMaster xmlns:a=%q xmlns:r=%q xmlns:p=%q>`, nsA, nsR, nsP) +
		`<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg>` + emptySpTree + `</p:cSld>` +
		`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
		`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>` +
		`</p:sldMaster>`
}

const slideMasterRels = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/>` +
	`</Relationships>`

// slideLayoutPart builds the blank layout every slide references.
func slideLayoutPart() string {
	return xmlHeader + fmt.Sprintf(`<p:sldLayout xmlns:a=%q xmlns:r=%q xmlns:p=%q type="blank" preserve="1">`, nsA, nsR, nsP) +
		`<p:cSld name="Blank">` + emptySpTree + `</p:cSld>` +
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>` +
		`</p:sldLayout>`
}

const slideLayoutRels = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/>` +
	`</Relationships>`

// notesMasterPart builds the minimal notes master.
func notesMasterPart() string {
	return xmlHeader + fmt.Sprintf(`<p:notesMaster xmlns:a=%q xmlns:r=%q xmlns:p=%q>`, nsA, nsR, nsP) +
		`<p:cSld>` + emptySpTree + `</p:cSld>` +
		`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
		`</p:notesMaster>`
}

const notesMasterRels = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/>` +
	`</Relationships>`

// themePart builds ppt/theme/theme1.xml with the theme's palette. The
// format scheme carries the mandatory minimum of fill, line, effect and
// background styles.
func themePart(t Theme) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<a:theme xmlns:a=%q name="qmd2pptx %s">`, nsA, t.Name)
	b.WriteString(`<a:themeElements>`)

	b.WriteString(`<a:clrScheme name="` + t.Name + `">`)
	b.WriteString(`<a:dk1><a:srgbClr val="` + t.Text + `"/></a:dk1>`)
	b.WriteString(`<a:lt1><a:srgbClr val="FFFFFF"/></a:lt1>`)
	b.WriteString(`<a:dk2><a:srgbClr val="` + t.Heading + `"/></a:dk2>`)
	b.WriteString(`<a:lt2><a:srgbClr val="F2F2F2"/></a:lt2>`)
	b.WriteString(`<a:accent1><a:srgbClr val="` + t.Accent + `"/></a:accent1>`)
	b.WriteString(`<a:accent2><a:srgbClr val="` + t.Heading + `"/></a:accent2>`)
	b.WriteString(`<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3>`)
	b.WriteString(`<a:accent4><a:srgbClr val="FFC000"/></a:accent4>`)
	b.WriteString(`<a:accent5><a:srgbClr val="4472C4"/></a:accent5>`)
	b.WriteString(`<a:accent6><a:srgbClr val="70AD47"/></a:accent6>`)
	b.WriteString(`<a:hlink><a:srgbClr val="` + t.Accent + `"/></a:hlink>`)
	b.WriteString(`<a:folHlink><a:srgbClr val="954F72"/></a:folHlink>`)
	b.WriteString(`</a:clrScheme>`)

	b.WriteString(`<a:fontScheme name="` + t.Name + `">`)
	b.WriteString(`<a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>`)
	b.WriteString(`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>`)
	b.WriteString(`</a:fontScheme>`)

	b.WriteString(`<a:fmtScheme name="` + t.Name + `">`)
	b.WriteString(`<a:fillStyleLst>` + strings.Repeat(`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`, 3) + `</a:fillStyleLst>`)
	b.WriteString(`<a:lnStyleLst>` + strings.Repeat(`<a:ln w="6350" cap="flat" cmpd="sng" algn="ctr"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:prstDash val="solid"/></a:ln>`, 3) + `</a:lnStyleLst>`)
	b.WriteString(`<a:effectStyleLst>` + strings.Repeat(`<a:effectStyle><a:effectLst/></a:effectStyle>`, 3) + `</a:effectStyleLst>`)
	b.WriteString(`<a:bgFillStyleLst>` + strings.Repeat(`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`, 3) + `</a:bgFillStyleLst>`)
	b.WriteString(`</a:fmtScheme>`)

	b.WriteString(`</a:themeElements>`)
	b.WriteString(`</a:theme>`)
	return b.String()
}
