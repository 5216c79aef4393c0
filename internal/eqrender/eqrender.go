// Package eqrender converts LaTeX math expressions into raster images.
//
// Expressions are typeset with KaTeX inside a headless-Chrome page and the
// resulting element is screenshotted at the requested resolution. Identical
// (expression, preamble, resolution, mode) inputs produce identical output,
// so results are cached by a hash of that tuple for the lifetime of one
// renderer, which is scoped to one batch run.
package eqrender

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	gocache "github.com/patrickmn/go-cache"

	"github.com/alnah/go-qmd2pptx/internal/render"
)

// DefaultDPI is the target output resolution. Chrome renders at 96 CSS
// pixels per inch; the device scale factor bridges the difference.
const DefaultDPI = 300

const baseDPI = 96.0

// RenderFailure is the typed, recovered outcome of a failed equation render.
// The assembler substitutes a visible placeholder; the document continues.
type RenderFailure struct {
	Expression string
	Reason     string
}

func (f *RenderFailure) Error() string {
	return fmt.Sprintf("equation render failed: %s (expression %q)", f.Reason, truncate(f.Expression, 60))
}

// Renderer typesets math expressions to PNG via a shared Rasterizer.
type Renderer struct {
	ras      render.Rasterizer
	cache    *gocache.Cache
	dpi      int
	preamble string
}

// New creates a Renderer. The preamble holds \newcommand macro definitions
// shared by every expression in the chapter; KaTeX accepts them inline, so
// the preamble is simply prepended to each expression.
func New(ras render.Rasterizer, dpi int, preamble string) *Renderer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Renderer{
		ras:      ras,
		cache:    gocache.New(gocache.NoExpiration, 0),
		dpi:      dpi,
		preamble: preamble,
	}
}

// Render typesets one expression. It returns PNG bytes on success, the
// context error on cancellation, or a *RenderFailure for anything the
// pipeline can absorb (bad expression, engine crash). Transient capture
// errors are retried once after page cleanup; page-reported typesetting
// errors are persistent and fail immediately.
func (r *Renderer) Render(ctx context.Context, expression string, display bool) ([]byte, error) {
	key := r.cacheKey(expression, display)
	if cached, ok := r.cache.Get(key); ok {
		return cached.([]byte), nil
	}

	req := render.Request{
		HTML:            buildKatexPage(r.preamble, expression, display),
		WaitSelector:    "#eq .katex",
		ErrorSelector:   "#err.active",
		CaptureSelector: "#eq",
		Scale:           float64(r.dpi) / baseDPI,
		Transparent:     true,
	}

	png, err := r.ras.Capture(ctx, req)
	if err != nil && !errors.Is(err, render.ErrPageReported) && ctx.Err() == nil {
		// One bounded retry for transient browser failures.
		png, err = r.ras.Capture(ctx, req)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &RenderFailure{Expression: expression, Reason: err.Error()}
	}

	r.cache.Set(key, png, gocache.NoExpiration)
	return png, nil
}

// DPI returns the configured output resolution.
func (r *Renderer) DPI() int { return r.dpi }

// cacheKey hashes the full determinism tuple.
func (r *Renderer) cacheKey(expression string, display bool) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%t", expression, r.preamble, r.dpi, display)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns a short content hash for an expression, used in asset
// filenames so concurrent renders never collide.
func (r *Renderer) Hash(expression string, display bool) string {
	return r.cacheKey(expression, display)[:8]
}

// KaTeX version is pinned so output stays stable across runs.
const katexPageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/katex@0.16.11/dist/katex.min.css">
<script src="https://cdn.jsdelivr.net/npm/katex@0.16.11/dist/katex.min.js"></script>
<style>
  body { margin: 0; padding: 8px; background: transparent; }
  #eq { display: inline-block; font-size: %s; }
  #err { display: none; font-family: monospace; color: #b00; }
  #err.active { display: block; }
</style>
</head>
<body>
<div id="eq"></div>
<div id="err"></div>
<script>
  try {
    katex.render(%s, document.getElementById("eq"), {
      displayMode: %t,
      throwOnError: true,
      strict: "ignore"
    });
  } catch (e) {
    var el = document.getElementById("err");
    el.textContent = e.message || String(e);
    el.className = "active";
  }
</script>
</body>
</html>`

// Font sizes mirror the book's slide styling: display equations larger than
// inline notation.
const (
	displayFontSize = "32px"
	inlineFontSize  = "24px"
)

// buildKatexPage produces a self-contained HTML page typesetting one
// expression. The expression (preamble included) is JSON-encoded to embed it
// safely in the script.
func buildKatexPage(preamble, expression string, display bool) string {
	src := expression
	if preamble != "" {
		src = preamble + "\n" + expression
	}
	encoded, err := json.Marshal(src)
	if err != nil {
		// json.Marshal of a string cannot fail; keep the page valid anyway.
		encoded = []byte(`""`)
	}

	fontSize := inlineFontSize
	if display {
		fontSize = displayFontSize
	}
	return fmt.Sprintf(katexPageTemplate, fontSize, encoded, display)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
