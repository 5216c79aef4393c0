package main

import (
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = fmt.Errorf("unsupported shell")

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long   string   // --output
	Short  string   // -o (empty if none)
	Desc   string   // help text
	Values []string // for enum flags
}

// commandDef describes a command for completion.
type commandDef struct {
	Name  string
	Desc  string
	Flags []flagDef
}

// flagEnumValues maps flag names to their enum completions.
// This is the only place completion hints are defined; flag names and
// descriptions come from the FlagSet.
var flagEnumValues = map[string][]string{
	"theme": {"finance", "plain", "slate"},
}

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
		}
		if values, ok := flagEnumValues[f.Name]; ok {
			fd.Values = values
		}
		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion.
func getCommands() []commandDef {
	return []commandDef{
		{Name: "convert", Desc: "Convert QMD chapters to PowerPoint decks",
			Flags: extractFlagsFromFlagSet(buildConvertFlagSet())},
		{Name: "doctor", Desc: "Check Chrome, Python, and environment readiness"},
		{Name: "completion", Desc: "Generate shell completion script"},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command"},
	}
}

// GenerateCompletion writes a shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	switch shell {
	case ShellBash:
		return generateBash(w)
	case ShellZsh:
		return generateZsh(w)
	case ShellFish:
		return generateFish(w)
	case ShellPowerShell:
		return generatePowerShell(w)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish, powershell)", ErrUnsupportedShell, shell)
	}
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}

	shell := Shell(args[0])
	return GenerateCompletion(env.Stdout, shell)
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: qmd2pptx completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w, "  powershell  PowerShell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(qmd2pptx completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (before compinit):")
	fmt.Fprintln(w, "    eval \"$(qmd2pptx completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    qmd2pptx completion fish > ~/.config/fish/completions/qmd2pptx.fish")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  PowerShell:")
	fmt.Fprintln(w, "    # Add to $PROFILE:")
	fmt.Fprintln(w, "    qmd2pptx completion powershell | Out-String | Invoke-Expression")
}

// flagWords returns all --long flag spellings for a command.
func flagWords(cmd commandDef) []string {
	words := make([]string, 0, len(cmd.Flags))
	for _, f := range cmd.Flags {
		words = append(words, "--"+f.Long)
	}
	return words
}

// commandNames returns all top-level command names.
func commandNames(cmds []commandDef) []string {
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name)
	}
	return names
}

func generateBash(w io.Writer) error {
	cmds := getCommands()

	var b strings.Builder
	b.WriteString("# bash completion for qmd2pptx\n")
	b.WriteString("_qmd2pptx() {\n")
	b.WriteString("  local cur prev words cword\n")
	b.WriteString("  cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("  prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("  local commands=\"" + strings.Join(commandNames(cmds), " ") + "\"\n")
	b.WriteString("  if [[ $COMP_CWORD -eq 1 ]]; then\n")
	b.WriteString("    COMPREPLY=($(compgen -W \"$commands\" -- \"$cur\"))\n")
	b.WriteString("    return\n")
	b.WriteString("  fi\n")
	b.WriteString("  case \"${COMP_WORDS[1]}\" in\n")
	for _, cmd := range cmds {
		b.WriteString("    " + cmd.Name + ")\n")
		switch cmd.Name {
		case "completion":
			b.WriteString("      COMPREPLY=($(compgen -W \"bash zsh fish powershell\" -- \"$cur\"))\n")
		case "help":
			b.WriteString("      COMPREPLY=($(compgen -W \"$commands\" -- \"$cur\"))\n")
		default:
			for _, f := range cmd.Flags {
				if len(f.Values) > 0 {
					b.WriteString("      if [[ \"$prev\" == \"--" + f.Long + "\" ]]; then\n")
					b.WriteString("        COMPREPLY=($(compgen -W \"" + strings.Join(f.Values, " ") + "\" -- \"$cur\"))\n")
					b.WriteString("        return\n")
					b.WriteString("      fi\n")
				}
			}
			if len(cmd.Flags) > 0 {
				b.WriteString("      if [[ \"$cur\" == -* ]]; then\n")
				b.WriteString("        COMPREPLY=($(compgen -W \"" + strings.Join(flagWords(cmd), " ") + "\" -- \"$cur\"))\n")
				b.WriteString("        return\n")
				b.WriteString("      fi\n")
			}
			b.WriteString("      COMPREPLY=($(compgen -f -- \"$cur\"))\n")
		}
		b.WriteString("      ;;\n")
	}
	b.WriteString("  esac\n")
	b.WriteString("}\n")
	b.WriteString("complete -F _qmd2pptx qmd2pptx\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func generateZsh(w io.Writer) error {
	cmds := getCommands()

	var b strings.Builder
	b.WriteString("#compdef qmd2pptx\n")
	b.WriteString("_qmd2pptx() {\n")
	b.WriteString("  local -a commands\n")
	b.WriteString("  commands=(\n")
	for _, cmd := range cmds {
		b.WriteString("    '" + cmd.Name + ":" + cmd.Desc + "'\n")
	}
	b.WriteString("  )\n")
	b.WriteString("  if (( CURRENT == 2 )); then\n")
	b.WriteString("    _describe 'command' commands\n")
	b.WriteString("    return\n")
	b.WriteString("  fi\n")
	b.WriteString("  case $words[2] in\n")
	for _, cmd := range cmds {
		if len(cmd.Flags) == 0 {
			continue
		}
		b.WriteString("    " + cmd.Name + ")\n")
		b.WriteString("      _arguments \\\n")
		for _, f := range cmd.Flags {
			spec := "--" + f.Long
			desc := strings.ReplaceAll(f.Desc, "'", "")
			if len(f.Values) > 0 {
				b.WriteString("        '" + spec + "[" + desc + "]:value:(" + strings.Join(f.Values, " ") + ")' \\\n")
			} else {
				b.WriteString("        '" + spec + "[" + desc + "]' \\\n")
			}
		}
		b.WriteString("        '*:file:_files'\n")
		b.WriteString("      ;;\n")
	}
	b.WriteString("    completion)\n")
	b.WriteString("      _values 'shell' bash zsh fish powershell\n")
	b.WriteString("      ;;\n")
	b.WriteString("  esac\n")
	b.WriteString("}\n")
	b.WriteString("_qmd2pptx \"$@\"\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func generateFish(w io.Writer) error {
	cmds := getCommands()

	var b strings.Builder
	b.WriteString("# fish completion for qmd2pptx\n")
	for _, cmd := range cmds {
		desc := strings.ReplaceAll(cmd.Desc, "'", "")
		b.WriteString("complete -c qmd2pptx -n '__fish_use_subcommand' -a " + cmd.Name + " -d '" + desc + "'\n")
	}
	for _, cmd := range cmds {
		cond := "__fish_seen_subcommand_from " + cmd.Name
		for _, f := range cmd.Flags {
			desc := strings.ReplaceAll(f.Desc, "'", "")
			line := "complete -c qmd2pptx -n '" + cond + "' -l " + f.Long
			if f.Short != "" {
				line += " -s " + f.Short
			}
			if len(f.Values) > 0 {
				line += " -xa '" + strings.Join(f.Values, " ") + "'"
			}
			line += " -d '" + desc + "'\n"
			b.WriteString(line)
		}
	}
	b.WriteString("complete -c qmd2pptx -n '__fish_seen_subcommand_from completion' -xa 'bash zsh fish powershell'\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func generatePowerShell(w io.Writer) error {
	cmds := getCommands()

	var b strings.Builder
	b.WriteString("Register-ArgumentCompleter -Native -CommandName qmd2pptx -ScriptBlock {\n")
	b.WriteString("  param($wordToComplete, $commandAst, $cursorPosition)\n")
	b.WriteString("  $commands = @(" + quoteJoin(commandNames(cmds)) + ")\n")
	b.WriteString("  $tokens = $commandAst.CommandElements | ForEach-Object { $_.ToString() }\n")
	b.WriteString("  if ($tokens.Count -le 2) {\n")
	b.WriteString("    $commands | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("      [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)\n")
	b.WriteString("    }\n")
	b.WriteString("    return\n")
	b.WriteString("  }\n")
	b.WriteString("  switch ($tokens[1]) {\n")
	for _, cmd := range cmds {
		if len(cmd.Flags) == 0 {
			continue
		}
		b.WriteString("    '" + cmd.Name + "' {\n")
		b.WriteString("      $flags = @(" + quoteJoin(flagWords(cmd)) + ")\n")
		b.WriteString("      $flags | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
		b.WriteString("        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterName', $_)\n")
		b.WriteString("      }\n")
		b.WriteString("    }\n")
	}
	b.WriteString("  }\n")
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// quoteJoin renders a PowerShell string array body.
func quoteJoin(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return strings.Join(quoted, ", ")
}
