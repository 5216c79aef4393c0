package figure

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/alnah/go-qmd2pptx/internal/process"
)

// Runner abstracts interpreter execution so tests can inject fakes.
type Runner interface {
	// Run executes the script with the given working directory and returns
	// captured stderr alongside any execution error.
	Run(ctx context.Context, dir, scriptPath string) (stderr string, err error)
}

// DefaultInterpreter is the interpreter binary looked up on PATH.
const DefaultInterpreter = "python3"

// PythonRunner executes figure scripts with a Python interpreter.
type PythonRunner struct {
	bin string
}

var _ Runner = (*PythonRunner)(nil)

// NewPythonRunner creates a runner for the given interpreter binary.
// An empty bin uses DefaultInterpreter.
func NewPythonRunner(bin string) *PythonRunner {
	if bin == "" {
		bin = DefaultInterpreter
	}
	return &PythonRunner{bin: bin}
}

// Available reports whether the interpreter exists on PATH.
func (r *PythonRunner) Available() bool {
	_, err := exec.LookPath(r.bin)
	return err == nil
}

// Bin returns the interpreter binary name.
func (r *PythonRunner) Bin() string { return r.bin }

// Run executes the script in its own process group so that a timeout kills
// interpreter children too, not just the interpreter.
func (r *PythonRunner) Run(ctx context.Context, dir, scriptPath string) (string, error) {
	cmd := exec.CommandContext(ctx, r.bin, scriptPath) // #nosec G204 -- fixed interpreter, generated script
	cmd.Dir = dir
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			process.KillProcessGroup(cmd.Process.Pid)
		}
		return cmd.Process.Kill()
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}
