package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: qmd2pptx <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert     Convert QMD chapters to PowerPoint decks")
	fmt.Fprintln(w, "  doctor      Check Chrome, Python, and environment readiness")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'qmd2pptx help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: qmd2pptx convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert QMD chapter documents to PowerPoint decks.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Chapter file or directory (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --report <path>       Write YAML run report (\"-\" = stdout)")
	fmt.Fprintln(w, "      --keep-assets         Keep rendered PNGs next to the deck")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Deck:")
	fmt.Fprintln(w, "      --slide-level <n>     Heading level that opens a slide (1-6)")
	fmt.Fprintln(w, "      --theme <s>           Color theme: finance, plain, slate")
	fmt.Fprintln(w, "      --title <s>           Deck title (\"\" = auto from front matter or H1)")
	fmt.Fprintln(w, "      --subtitle <s>        Deck subtitle")
	fmt.Fprintln(w, "      --author <s>          Author shown on the title slide")
	fmt.Fprintln(w, "      --date <s>            Date shown on the title slide")
	fmt.Fprintln(w, "      --no-title-slide      Skip the leading title slide")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "      --dpi <n>             Equation raster resolution (default: 300)")
	fmt.Fprintln(w, "      --macros <path>       LaTeX macros file shared across chapters")
	fmt.Fprintln(w, "      --interpreter <s>     Python executable for figures")
	fmt.Fprintln(w, "      --figure-timeout <d>  Per-figure timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --code-snapshots      Show highlighted figure source instead of executing it")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-document timeout (e.g., 2m, 10m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: qmd2pptx doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check Chrome, Python, and environment readiness.")
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: qmd2pptx version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: qmd2pptx help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
