// Package figure executes figure-generating code blocks and captures their
// visual output as raster images.
//
// Each figure runs in a fresh interpreter process inside its own temp
// directory, seeded only with the chapter's setup code that precedes it.
// Nothing carries over between figures, so execution order cannot change a
// figure's output.
package figure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/alnah/go-qmd2pptx/internal/extract"
	"github.com/alnah/go-qmd2pptx/internal/fileutil"
)

// DefaultTimeout bounds one figure's execution.
const DefaultTimeout = 60 * time.Second

// outputName is the image the harness writes inside the figure's temp dir.
const outputName = "figure.png"

// RenderFailure is the typed, recovered outcome of a failed figure
// execution. The slide is still emitted with the reason as visible text.
type RenderFailure struct {
	Label   string
	Reason  string
	Timeout bool // execution hit the per-figure time limit
}

func (f *RenderFailure) Error() string {
	return fmt.Sprintf("figure %s failed: %s", f.Label, f.Reason)
}

// Spec is one executable figure plus the setup code it depends on.
type Spec struct {
	Index   int // position of the source block in the document's block list
	Label   string
	Code    string
	Caption string
	Prereq  string // accumulated earlier setup blocks, already directive-free
}

// Materializer runs figure specs through a Runner and collects their output.
type Materializer struct {
	runner  Runner
	timeout time.Duration
	dpi     int
}

// New creates a Materializer. A zero timeout uses DefaultTimeout.
func New(runner Runner, timeout time.Duration, dpi int) *Materializer {
	if runner == nil {
		runner = NewPythonRunner("")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Materializer{runner: runner, timeout: timeout, dpi: dpi}
}

// Render executes one figure spec and returns its PNG bytes. It returns the
// context error on cancellation and a *RenderFailure for anything the
// pipeline can absorb: runtime exceptions, missing dependencies, timeouts,
// or code that produces no image.
func (m *Materializer) Render(ctx context.Context, spec Spec) ([]byte, error) {
	dir, cleanup, err := fileutil.TempDir()
	if err != nil {
		return nil, &RenderFailure{Label: spec.Label, Reason: err.Error()}
	}
	defer cleanup()

	script := buildScript(spec, m.dpi)
	scriptPath := filepath.Join(dir, "figure.py")
	if err := os.WriteFile(scriptPath, []byte(script), 0o600); err != nil {
		return nil, &RenderFailure{Label: spec.Label, Reason: err.Error()}
	}

	runCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	stderr, err := m.runner.Run(runCtx, dir, scriptPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, &RenderFailure{Label: spec.Label, Reason: fmt.Sprintf("timed out after %s", m.timeout), Timeout: true}
		}
		return nil, &RenderFailure{Label: spec.Label, Reason: failureReason(stderr, err)}
	}

	png, err := os.ReadFile(filepath.Join(dir, outputName)) // #nosec G304 -- private temp dir
	if err != nil {
		return nil, &RenderFailure{Label: spec.Label, Reason: "execution produced no image"}
	}
	return png, nil
}

var directiveLine = regexp.MustCompile(`(?m)^#\|.*$\n?`)

// StripDirectives removes Quarto "#|" option lines from a code block,
// leaving plain executable source.
func StripDirectives(code string) string {
	return strings.TrimSpace(directiveLine.ReplaceAllString(code, ""))
}

// CollectSpecs folds a document's blocks into executable figure specs.
// Untagged python code blocks are setup cells: each figure is seeded with
// every setup cell that precedes it in source order, and nothing else.
func CollectSpecs(blocks []extract.Block) []Spec {
	var specs []Spec
	var setup []string

	for i, b := range blocks {
		switch b.Kind {
		case extract.KindCode:
			if b.Language == "python" {
				setup = append(setup, StripDirectives(b.Code))
			}
		case extract.KindFigure:
			specs = append(specs, Spec{
				Index:   i,
				Label:   b.Label,
				Code:    StripDirectives(b.Code),
				Caption: b.Caption,
				Prereq:  strings.Join(setup, "\n\n"),
			})
		}
	}
	return specs
}

// buildScript wraps a figure spec in the execution harness: force the
// non-interactive backend before any user import, run setup then figure
// code, and save whatever figure is current when the script ends.
func buildScript(spec Spec, dpi int) string {
	if dpi <= 0 {
		dpi = 150
	}
	var b strings.Builder
	b.WriteString("import matplotlib\n")
	b.WriteString("matplotlib.use(\"Agg\")\n\n")
	if spec.Prereq != "" {
		b.WriteString(spec.Prereq)
		b.WriteString("\n\n")
	}
	b.WriteString(spec.Code)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "import matplotlib.pyplot as _plt\n_plt.savefig(%q, dpi=%d, bbox_inches=\"tight\", transparent=True)\n", outputName, dpi)
	return b.String()
}

// failureReason prefers the interpreter's last stderr lines over the bare
// exec error, which is usually just an exit status.
func failureReason(stderr string, err error) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return err.Error()
	}
	lines := strings.Split(stderr, "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " | ")
}
