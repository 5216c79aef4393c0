package qmd2pptx

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptySource = errors.New("chapter source cannot be empty")
	ErrAssembly    = errors.New("slide assembly failed")
	ErrDeckWrite   = errors.New("deck serialization failed")
	ErrAssetDir    = errors.New("failed to prepare asset directory")

	// Option validation errors.
	ErrInvalidSlideLevel = errors.New("invalid slide level")
	ErrInvalidDPI        = errors.New("invalid DPI")
)
