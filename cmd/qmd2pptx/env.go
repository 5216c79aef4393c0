package main

import (
	"io"
	"os"
	"time"

	"github.com/alnah/go-qmd2pptx/internal/config"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer
	Config *config.Config // Loaded once, shared across pipeline
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Config: config.DefaultConfig(),
	}
}
