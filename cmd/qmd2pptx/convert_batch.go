package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	qmd2pptx "github.com/alnah/go-qmd2pptx"
	"github.com/alnah/go-qmd2pptx/internal/hints"
	"github.com/alnah/go-qmd2pptx/internal/report"
)

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	SlideCount int
	Warnings   int
	Issues     []qmd2pptx.RenderIssue
	Err        error
	Duration   time.Duration
}

// toReport maps a CLI result onto a report entry.
func (r ConversionResult) toReport() report.DocumentResult {
	doc := report.DocumentResult{
		Document: r.InputPath,
		Duration: r.Duration.Round(time.Millisecond).String(),
	}
	switch {
	case r.Err != nil:
		doc.Status = report.StatusFailed
		doc.Errors = []string{r.Err.Error()}
	case r.Warnings > 0:
		doc.Status = report.StatusDegraded
		doc.Output = r.OutputPath
		doc.Warnings = r.Warnings
		for _, issue := range r.Issues {
			doc.Errors = append(doc.Errors, issue.String())
		}
	default:
		doc.Status = report.StatusOK
		doc.Output = r.OutputPath
	}
	return doc
}

// convertBatch processes files concurrently using the service pool.
// A failed document never stops the batch: its error lands in the
// result slot and the remaining documents keep converting.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, keepAssets bool) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := pool.Size()
	if concurrency > len(files) {
		concurrency = len(files)
	}

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			svc := pool.Acquire()
			defer pool.Release(svc)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, svc, files[idx], keepAssets)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile processes a single chapter and returns the result.
func convertFile(ctx context.Context, service Converter, f FileToConvert, keepAssets bool) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrReadChapter, err)
		result.Duration = time.Since(start)
		return result
	}

	outDir := filepath.Dir(f.OutputPath)
	if err := os.MkdirAll(outDir, dirPermissions); err != nil {
		result.Err = fmt.Errorf("creating output directory: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	input := qmd2pptx.Input{
		Source: string(content),
		Name:   chapterName(f.InputPath),
	}
	if keepAssets {
		input.EquationDir = equationDirFor(f.OutputPath)
		input.FigureDir = figureDirFor(f.OutputPath)
	}

	res, err := service.Convert(ctx, input)
	if err != nil {
		// The per-document budget, not the caller, ran out.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w%s", err, hints.ForDocumentTimeout())
		}
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	// #nosec G306 -- decks are meant to be readable
	if err := os.WriteFile(f.OutputPath, res.PPTX, filePermissions); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrWriteDeck, err)
		result.Duration = time.Since(start)
		return result
	}

	result.SlideCount = res.SlideCount
	result.Warnings = res.Warnings
	result.Issues = res.Issues
	result.Duration = time.Since(start)
	return result
}
