package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/ironsheep/plate-detect/internal/detection"
	"github.com/ironsheep/plate-detect/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitNoPlate = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitFailure
	}

	switch args[0] {
	case "--version", "-v", "version":
		fmt.Fprintf(stdout, "plate-detect %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return exitOK
	case "--help", "-h", "help":
		printUsage(stdout)
		return exitOK
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "plate-detect: unknown command %q\n\n", args[0])
		printUsage(stderr)
		return exitFailure
	}

	server.Version = Version
	env := &cmdEnv{stdin: stdin, stdout: stdout, stderr: stderr}
	return exitCode(cmd(env, args[1:]), stderr)
}

// exitCode reports err on one line and maps it to the process exit status.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage):
		return exitFailure
	case errors.Is(err, detection.ErrNoPlateDetected):
		fmt.Fprintf(stderr, "plate-detect: %v\n", err)
		return exitNoPlate
	default:
		fmt.Fprintf(stderr, "plate-detect: %v\n", err)
		return exitFailure
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "plate-detect - find license-plate regions in images")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: plate-detect <command> [options] <image>...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  detect    Print detected plate boxes as JSON")
	fmt.Fprintln(w, "  annotate  Outline plates and save under DETECTED_AND_CROPPED_FILES")
	fmt.Fprintln(w, "  crop      Save one selected plate cropped from the original")
	fmt.Fprintln(w, "  edges     Save the Canny edge map for threshold tuning")
	fmt.Fprintln(w, "  batch     Annotate many images concurrently")
	fmt.Fprintln(w, "  serve     Run the MCP tool server on stdin/stdout")
	fmt.Fprintln(w, "  version   Print version information")
	fmt.Fprintln(w, "  help      Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'plate-detect <command> -h' for command options.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  PLATE_DETECT_LOG_LEVEL=debug    Override the configured log level")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit status is 2 when no plate is detected and 1 on any other error.")
}
