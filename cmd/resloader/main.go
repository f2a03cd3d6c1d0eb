package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Command names.
const (
	cmdLoad    = "load"
	cmdCheck   = "check"
	cmdDoctor  = "doctor"
	cmdVersion = "version"
	cmdHelp    = "help"
)

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if slices.Contains(os.Args, "-v") || slices.Contains(os.Args, "--verbose") {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	ctx, stop := notifyContext(context.Background())
	code := runMain(ctx, os.Args, DefaultEnv())
	stop()
	os.Exit(code)
}

// runMain dispatches a command and returns the process exit code.
// args includes the program name.
func runMain(ctx context.Context, args []string, env *Environment) int {
	cmd, rest := splitCommand(args[1:])

	var err error
	switch cmd {
	case cmdVersion:
		fmt.Fprintf(env.Stdout, "resloader %s\n", Version)
		return ExitSuccess
	case cmdHelp:
		return runHelp(rest, env)
	case cmdDoctor:
		return runDoctorCmd(rest, env)
	case cmdCheck:
		err = runCheck(ctx, rest, env)
	default:
		err = runLoad(ctx, rest, env)
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
	}
	return exitCodeFor(err)
}

// splitCommand returns the command and its arguments.
// load is the default, so "resloader site.yaml" and "resloader -c site"
// both load.
func splitCommand(args []string) (string, []string) {
	if len(args) == 0 {
		return cmdLoad, nil
	}
	switch args[0] {
	case cmdLoad, cmdCheck, cmdDoctor, cmdVersion, cmdHelp:
		return args[0], args[1:]
	case "-h", "--help":
		return cmdHelp, args[1:]
	case "--version":
		return cmdVersion, nil
	}
	return cmdLoad, args
}
