package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/cmsfinger/internal/config"
	"github.com/nao1215/cmsfinger/internal/report"
)

// Process exit codes.
const (
	exitOK      = 0
	exitUsage   = 1
	exitIOError = 2

	// exitInterrupted follows the shell convention 128+SIGINT.
	exitInterrupted = 130
)

// NewRootCmd creates the root command for cmsfinger.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cmsfinger",
		Short: "Identify the CMS behind web sites",
		Long: `cmsfinger fetches web pages and matches them against a registry of
CMS fingerprints (PhpCMS, WordPress, Joomla, Drupal, DedeCMS, Discuz!, EmpireCMS).

Targets come from a single --custom-url, a --url-file or both. Matches are
printed to the terminal and optionally written to an output file as
"<url>, <cms>, <cms>" lines. Additional fingerprints can be loaded from
YAML rule files.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with its status code.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitOK
}

// exitCode maps an error to a process exit code. A scan stopped by
// SIGINT or SIGTERM exits with exitInterrupted after its partial output
// was flushed. Failures to open or write the input, output or rule files
// are I/O errors; everything else is a usage error.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, context.Canceled) {
		return exitInterrupted
	}

	var inErr *config.InputFileError
	var outErr *report.OutputFileError
	var pathErr *fs.PathError
	switch {
	case errors.As(err, &inErr),
		errors.As(err, &outErr),
		errors.Is(err, report.ErrSinkDisabled),
		errors.As(err, &pathErr):
		return exitIOError
	default:
		return exitUsage
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
