package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// deckPrefix is prepended to every output deck name, so a chapter file
// chapter_3_bonds.qmd becomes Slides_chapter_3_bonds.pptx.
const deckPrefix = "Slides_"

// FileToConvert represents a single chapter to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// discoverFiles finds all chapter files to convert.
func discoverFiles(inputPath, outputDir string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateChapterExtension(inputPath); err != nil {
			return nil, err
		}
		outPath := resolveOutputPath(inputPath, outputDir, "")
		return []FileToConvert{{InputPath: inputPath, OutputPath: outPath}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".qmd" && ext != ".md" {
			return nil
		}
		outPath := resolveOutputPath(path, outputDir, inputPath)
		files = append(files, FileToConvert{InputPath: path, OutputPath: outPath})
		return nil
	})

	return files, err
}

// resolveOutputPath determines the deck output path for a chapter file.
func resolveOutputPath(inputPath, outputDir, baseInputDir string) string {
	base := chapterName(inputPath)
	deckName := deckPrefix + base + ".pptx"

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), deckName)
	}

	if strings.HasSuffix(outputDir, ".pptx") {
		return outputDir
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			relDir := filepath.Dir(relPath)
			return filepath.Join(outputDir, relDir, deckName)
		}
	}

	return filepath.Join(outputDir, deckName)
}

// chapterName returns the chapter's base name without extension.
func chapterName(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(filepath.Base(inputPath), ext)
}

// equationDirFor returns the equation-image directory kept next to a deck,
// e.g. Slides_ch1_equations for Slides_ch1.pptx.
func equationDirFor(outputPath string) string {
	return strings.TrimSuffix(outputPath, ".pptx") + "_equations"
}

// figureDirFor returns the figure-image directory kept next to a deck.
func figureDirFor(outputPath string) string {
	return strings.TrimSuffix(outputPath, ".pptx") + "_figures"
}

// validateChapterExtension checks that the file has a .qmd or .md extension.
func validateChapterExtension(path string) error {
	ext := filepath.Ext(path)
	if ext != ".qmd" && ext != ".md" {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, ext)
	}
	return nil
}
