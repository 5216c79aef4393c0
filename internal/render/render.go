// Package render rasterizes self-contained HTML snippets to PNG images
// using headless Chrome. Both equation rendering (KaTeX pages) and figure
// code snapshots (chroma pages) go through the same capture path.
//
// Rod automatically downloads a managed Chromium on first run. Set
// ROD_NO_SANDBOX=1 for Docker/CI and ROD_BROWSER_BIN for a custom binary.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-qmd2pptx/internal/fileutil"
)

// Sentinel errors for capture operations.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrCapture        = errors.New("element capture failed")
	ErrPageReported   = errors.New("page reported a render error")
)

// Request describes one HTML-to-PNG capture.
type Request struct {
	HTML            string  // complete HTML document
	WaitSelector    string  // element whose appearance signals success
	ErrorSelector   string  // optional element signalling failure; its text is the reason
	CaptureSelector string  // element to screenshot; defaults to WaitSelector
	Scale           float64 // device scale factor; 1.0 = 96 DPI equivalent
	Transparent     bool    // transparent page background
}

// Rasterizer captures rendered HTML elements as PNG bytes.
type Rasterizer interface {
	Capture(ctx context.Context, req Request) ([]byte, error)
	Close() error
}

// Viewport dimensions for capture pages. Wide enough for long display
// equations; the screenshot is cropped to the element's bounds anyway.
const (
	viewportWidth  = 1600
	viewportHeight = 1200
)

// RodRasterizer implements Rasterizer with a lazily connected browser.
// One RodRasterizer owns one browser; concurrent captures each get their own
// page and temp file, so no working state is shared between renders.
type RodRasterizer struct {
	browser *rod.Browser
	timeout time.Duration
}

var _ Rasterizer = (*RodRasterizer)(nil)

// NewRodRasterizer creates a rasterizer with the given per-capture timeout.
func NewRodRasterizer(timeout time.Duration) *RodRasterizer {
	return &RodRasterizer{timeout: timeout}
}

// ensureBrowser lazily connects to the browser.
func (r *RodRasterizer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browser = rod.New().ControlURL(u)
	if err := r.browser.Connect(); err != nil {
		r.browser = nil
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return nil
}

// Close releases browser resources.
func (r *RodRasterizer) Close() error {
	if r.browser != nil {
		err := r.browser.Close()
		r.browser = nil
		return err
	}
	return nil
}

// Capture loads req.HTML in a fresh page, waits for the success or error
// selector, and screenshots the capture element. A reported page error
// returns ErrPageReported with the element's text.
func (r *RodRasterizer) Capture(ctx context.Context, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(req.HTML, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + tmpPath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	p := page.Timeout(timeout)

	scale := req.Scale
	if scale <= 0 {
		scale = 1.0
	}
	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: scale,
	}); err != nil {
		return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageCreate, err)
	}

	if req.Transparent {
		_ = proto.EmulationSetDefaultBackgroundColorOverride{
			Color: transparentColor(),
		}.Call(p)
	}

	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := r.waitReady(p, req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	captureSel := req.CaptureSelector
	if captureSel == "" {
		captureSel = req.WaitSelector
	}
	el, err := p.Element(captureSel)
	if err != nil {
		return nil, fmt.Errorf("%w: locating %q: %v", ErrCapture, captureSel, err)
	}

	bin, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	return bin, nil
}

// transparentColor is the fully transparent page background override.
// DOMRGBA's alpha is a pointer, where nil means opaque.
func transparentColor() *proto.DOMRGBA {
	alpha := 0.0
	return &proto.DOMRGBA{R: 0, G: 0, B: 0, A: &alpha}
}

// waitReady blocks until either the success or the error selector appears.
func (r *RodRasterizer) waitReady(p *rod.Page, req Request) error {
	if req.ErrorSelector == "" {
		if _, err := p.Element(req.WaitSelector); err != nil {
			return fmt.Errorf("%w: waiting for %q: %v", ErrPageLoad, req.WaitSelector, err)
		}
		return nil
	}

	var reported string
	race := p.Race().
		Element(req.WaitSelector).Handle(func(*rod.Element) error { return nil }).
		Element(req.ErrorSelector).Handle(func(el *rod.Element) error {
		text, terr := el.Text()
		if terr != nil {
			text = "unknown page error"
		}
		reported = strings.TrimSpace(text)
		return ErrPageReported
	})

	if _, err := race.Do(); err != nil {
		if errors.Is(err, ErrPageReported) {
			return fmt.Errorf("%w: %s", ErrPageReported, reported)
		}
		return fmt.Errorf("%w: waiting for %q: %v", ErrPageLoad, req.WaitSelector, err)
	}
	return nil
}
