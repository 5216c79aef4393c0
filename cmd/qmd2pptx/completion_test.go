package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestGenerateCompletion(t *testing.T) {
	shells := []Shell{ShellBash, ShellZsh, ShellFish, ShellPowerShell}
	for _, shell := range shells {
		t.Run(string(shell), func(t *testing.T) {
			var buf bytes.Buffer
			if err := GenerateCompletion(&buf, shell); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			out := buf.String()
			if out == "" {
				t.Fatal("empty completion script")
			}
			// Every script must know the commands and the convert flags.
			for _, want := range []string{"convert", "doctor", "completion", "theme", "workers"} {
				if !strings.Contains(out, want) {
					t.Errorf("%s script missing %q", shell, want)
				}
			}
		})
	}

	t.Run("unsupported shell", func(t *testing.T) {
		var buf bytes.Buffer
		err := GenerateCompletion(&buf, Shell("tcsh"))
		if !errors.Is(err, ErrUnsupportedShell) {
			t.Errorf("error = %v, want ErrUnsupportedShell", err)
		}
	})
}

func TestGetCommands(t *testing.T) {
	cmds := getCommands()

	names := commandNames(cmds)
	for _, want := range []string{"convert", "doctor", "completion", "version", "help"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing command %q in %v", want, names)
		}
	}

	// Convert flags come from the FlagSet, not a hand-kept list.
	var convert commandDef
	for _, c := range cmds {
		if c.Name == "convert" {
			convert = c
		}
	}
	words := flagWords(convert)
	for _, want := range []string{"--output", "--theme", "--dpi", "--figure-timeout", "--keep-assets", "--report"} {
		found := false
		for _, w := range words {
			if w == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing flag %q in %v", want, words)
		}
	}
}

func TestThemeEnumValues(t *testing.T) {
	cmds := getCommands()
	for _, c := range cmds {
		if c.Name != "convert" {
			continue
		}
		for _, f := range c.Flags {
			if f.Long == "theme" {
				if len(f.Values) == 0 {
					t.Fatal("theme flag has no enum values")
				}
				return
			}
		}
	}
	t.Fatal("theme flag not found")
}

func TestRunCompletion(t *testing.T) {
	t.Run("no args prints usage", func(t *testing.T) {
		env, stdout, _ := testEnv()
		if err := runCompletion(nil, env); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout.String(), "Usage: qmd2pptx completion") {
			t.Errorf("stdout = %q", stdout.String())
		}
	})

	t.Run("generates for named shell", func(t *testing.T) {
		env, stdout, _ := testEnv()
		if err := runCompletion([]string{"bash"}, env); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stdout.Len() == 0 {
			t.Error("no script written")
		}
	})
}
