// Package report builds the YAML run report summarizing a batch
// conversion: one entry per document with its outcome, degradations,
// and timing.
package report

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/alnah/go-qmd2pptx/internal/yamlutil"
)

// DocumentResult records the outcome of converting one document.
type DocumentResult struct {
	Document string   `yaml:"document"`           // input path
	Output   string   `yaml:"output,omitempty"`   // deck path, empty on failure
	Status   string   `yaml:"status"`             // "ok", "degraded", or "failed"
	Warnings int      `yaml:"warnings,omitempty"` // placeholders and source diagnostics
	Errors   []string `yaml:"errors,omitempty"`   // failure messages, empty on success
	Duration string   `yaml:"duration"`           // human-readable elapsed time
}

// Statuses for DocumentResult.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
)

// Report is the complete batch summary.
type Report struct {
	StartedAt time.Time        `yaml:"startedAt"`
	Elapsed   string           `yaml:"elapsed"`
	Total     int              `yaml:"total"`
	Succeeded int              `yaml:"succeeded"`
	Degraded  int              `yaml:"degraded"`
	Failed    int              `yaml:"failed"`
	Documents []DocumentResult `yaml:"documents"`
}

// Build assembles a Report from per-document results. Documents are
// sorted by input path so reruns produce identical reports.
func Build(startedAt time.Time, results []DocumentResult) *Report {
	sorted := make([]DocumentResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Document < sorted[j].Document })

	r := &Report{
		StartedAt: startedAt,
		Elapsed:   time.Since(startedAt).Round(time.Millisecond).String(),
		Total:     len(sorted),
		Documents: sorted,
	}
	for _, d := range sorted {
		switch d.Status {
		case StatusOK:
			r.Succeeded++
		case StatusDegraded:
			r.Degraded++
		case StatusFailed:
			r.Failed++
		}
	}
	return r
}

// Marshal renders the report as YAML.
func (r *Report) Marshal() ([]byte, error) {
	data, err := yamlutil.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

// WriteFile writes the report to path, or to stdout when path is empty.
func (r *Report) WriteFile(path string) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
