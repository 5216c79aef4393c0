package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// deckFlags holds deck structure and appearance flags.
type deckFlags struct {
	slideLevel   int
	theme        string
	title        string
	subtitle     string
	author       string
	date         string
	noTitleSlide bool
}

// renderFlags holds equation and figure rendering flags.
type renderFlags struct {
	dpi           int
	macros        string
	interpreter   string
	figureTimeout string
	codeSnapshots bool
}

// batchFlags holds multi-document processing flags.
type batchFlags struct {
	workers    int
	timeout    string
	report     string
	keepAssets bool
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common commonFlags
	output string
	deck   deckFlags
	render renderFlags
	batch  batchFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
}

// addDeckFlags adds deck structure flags to a FlagSet.
func addDeckFlags(fs *flag.FlagSet, f *deckFlags) {
	fs.IntVar(&f.slideLevel, "slide-level", 0, "heading level that opens a slide (1-6, default: 2)")
	fs.StringVar(&f.theme, "theme", "", "color theme: finance, plain, slate")
	fs.StringVar(&f.title, "title", "", "deck title (\"\" = auto from front matter or H1)")
	fs.StringVar(&f.subtitle, "subtitle", "", "deck subtitle")
	fs.StringVar(&f.author, "author", "", "author shown on the title slide")
	fs.StringVar(&f.date, "date", "", "date shown on the title slide")
	fs.BoolVar(&f.noTitleSlide, "no-title-slide", false, "skip the leading title slide")
}

// addRenderFlags adds rendering flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.IntVar(&f.dpi, "dpi", 0, "equation raster resolution (default: 300)")
	fs.StringVar(&f.macros, "macros", "", "LaTeX macros file shared across chapters")
	fs.StringVar(&f.interpreter, "interpreter", "", "Python executable for figures (default: python3)")
	fs.StringVar(&f.figureTimeout, "figure-timeout", "", "per-figure execution timeout (e.g., 30s, 2m)")
	fs.BoolVar(&f.codeSnapshots, "code-snapshots", false, "show highlighted figure source instead of executing it")
}

// addBatchFlags adds batch processing flags to a FlagSet.
func addBatchFlags(fs *flag.FlagSet, f *batchFlags) {
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-document timeout (e.g., 2m, 10m)")
	fs.StringVar(&f.report, "report", "", "write YAML run report to path (\"-\" = stdout)")
	fs.BoolVar(&f.keepAssets, "keep-assets", false, "keep rendered equation/figure PNGs next to the deck")
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	f := &convertFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")

	addCommonFlags(fs, &f.common)
	addDeckFlags(fs, &f.deck)
	addRenderFlags(fs, &f.render)
	addBatchFlags(fs, &f.batch)

	fs.Usage = func() { printConvertUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}

// buildConvertFlagSet creates a FlagSet with all convert command flags.
// Used by completion generation as the single source of flag names.
func buildConvertFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	f := &convertFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	addCommonFlags(fs, &f.common)
	addDeckFlags(fs, &f.deck)
	addRenderFlags(fs, &f.render)
	addBatchFlags(fs, &f.batch)

	return fs
}
