package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(realMain(os.Args[1:], DefaultEnv()))
}

// realMain dispatches commands and returns the process exit code.
func realMain(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	switch args[0] {
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "qmd2pptx %s\n", Version)
		return ExitSuccess
	case "help", "--help", "-h":
		runHelp(args[1:], env)
		return ExitSuccess
	case "completion":
		if err := runCompletion(args[1:], env); err != nil {
			fmt.Fprintln(env.Stderr, err)
			return exitCodeFor(err)
		}
		return ExitSuccess
	case "doctor":
		return runDoctorCmd(args[1:], env)
	case "convert":
		return runConvertCmd(args[1:], env)
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
}

// runConvertCmd parses convert flags, configures the runtime, and runs
// the conversion with signal-aware cancellation.
func runConvertCmd(args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags(args)
	if err != nil {
		return ExitUsage
	}

	// Configure GOMAXPROCS with conditional logging.
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if flags.common.verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, a ...interface{}) {
			fmt.Fprintf(env.Stderr, format+"\n", a...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := runConvert(ctx, positional, flags, newServicePool, env); err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}
