package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-qmd2pptx/internal/figure"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo `json:"chrome"`
	Python   pythonInfo `json:"python"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// pythonInfo holds Python interpreter detection results.
type pythonInfo struct {
	Found      bool   `json:"found"`
	Path       string `json:"path,omitempty"`
	Version    string `json:"version,omitempty"`
	Matplotlib bool   `json:"matplotlib"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	jsonOutput := false
	interpreter := figure.DefaultInterpreter
	for i, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		}
		if arg == "--interpreter" && i+1 < len(args) {
			interpreter = args[i+1]
		}
	}

	result := runDoctor(interpreter)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(interpreter string) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result)
	checkPython(result, interpreter)
	checkEnvironment(result)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		// Use rod's launcher to locate Chrome
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	// Verify it exists
	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	// Get version by running chrome --version
	cmd := exec.Command(chromePath, "--version")
	out, err := cmd.Output()
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	// Sandbox status: disabled if ROD_NO_SANDBOX=1
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkPython detects the figure interpreter and its matplotlib install.
// A missing interpreter is a warning, not an error: chapters without
// figures convert fine without one.
func checkPython(result *doctorResult, interpreter string) {
	path, err := exec.LookPath(interpreter)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s not found; figure blocks will render as placeholders", interpreter))
		return
	}

	result.Python.Found = true
	result.Python.Path = path

	cmd := exec.Command(path, "--version")
	out, err := cmd.CombinedOutput()
	if err == nil {
		result.Python.Version = strings.TrimSpace(string(out))
	}

	// Probe matplotlib without executing user code
	probe := exec.Command(path, "-c", "import matplotlib")
	if err := probe.Run(); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("matplotlib not importable by %s; figure blocks will fail", interpreter))
		return
	}
	result.Python.Matplotlib = true
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	// Detect container (multi-signal approach)
	result.Env.Container, result.Env.ContainerHint = isContainer()

	// Detect CI environments
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	// Warn if container/CI without sandbox disabled
	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	// Explicit override (highest priority)
	if os.Getenv("QMD2PPTX_CONTAINER") == "1" {
		return true, "QMD2PPTX_CONTAINER=1"
	}
	// Docker
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	// Kubernetes
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies system requirements.
func checkSystem(result *doctorResult) {
	// Check temp directory is writable
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "qmd2pptx-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "qmd2pptx doctor")
	fmt.Fprintln(w)

	// Chrome section
	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	// Python section
	fmt.Fprintln(w, "Python")
	if r.Python.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Python.Path)
		if r.Python.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Python.Version)
		}
		if r.Python.Matplotlib {
			fmt.Fprintln(w, "  [OK] matplotlib: importable")
		} else {
			fmt.Fprintln(w, "  [WARN] matplotlib: not importable")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found (figures will render as placeholders)")
	}
	fmt.Fprintln(w)

	// Environment section
	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	// System section
	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	// Warnings
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	// Errors
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	// Final status
	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
