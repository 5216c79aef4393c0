// Package qmd2pptx converts Quarto chapter documents to PowerPoint decks.
//
// # Quick Start
//
// Create a service, convert a chapter, and close when done:
//
//	svc := qmd2pptx.New()
//	defer svc.Close()
//
//	result, err := svc.Convert(ctx, qmd2pptx.Input{
//	    Source: chapterContent,
//	    Name:   "chapter_3_bonds",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("Slides_chapter_3_bonds.pptx", result.PPTX, 0644)
//
// The result carries the deck bytes plus a warning count and the list of
// render issues that were absorbed as slide placeholders.
//
// # Conversion Pipeline
//
// The conversion process follows these stages:
//
//  1. Front matter split and block extraction (headings, paragraphs,
//     math, figure code, embeds, callouts)
//  2. Equation rendering via KaTeX in headless Chrome (go-rod),
//     cached by content hash
//  3. Figure execution in isolated Python processes, one per figure
//  4. Slide assembly (one slide per slide-level heading, source order
//     preserved) and PPTX serialization
//
// Equation and figure failures never abort a document: the slide is
// emitted with a visible placeholder and the run is reported as
// degraded.
//
// # Configuration
//
// Use functional options to customize the service:
//
//	svc := qmd2pptx.New(
//	    qmd2pptx.WithTimeout(10 * time.Minute),
//	    qmd2pptx.WithTheme("slate"),
//	    qmd2pptx.WithMacros(macroPreamble),
//	)
//
// # Parallel Processing
//
// For batch conversion, use ServicePool to manage multiple browser
// instances:
//
//	pool := qmd2pptx.NewServicePool(4)
//	defer pool.Close()
//
//	svc := pool.Acquire()
//	defer pool.Release(svc)
//	result, err := svc.Convert(ctx, input)
//
// # Requirements
//
// Equation rendering requires Chrome/Chromium. The go-rod library
// automatically downloads a managed Chromium instance on first run
// (~/.cache/rod/browser/). Figure execution requires a Python
// interpreter with matplotlib.
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable
// the Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome
// binary.
package qmd2pptx
