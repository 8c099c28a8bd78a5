package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nebula-lang/nebula/internal/ffi"
	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/pkg/nebula"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run a Nebula source file",
	Long: `Execute a Nebula program from a file.

Examples:
  # Run a script file
  nebula run script.fn

  # Equivalent shorthand
  nebula script.fn`,
	Args: cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return runFile(args[0])
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runFile(path string) error {
	applyConfig(loadConfig())

	sink, err := ffi.NewWASISink(context.Background(), os.ReadFile)
	if err != nil {
		return fmt.Errorf("ffi sink: %w", err)
	}
	defer sink.Close(context.Background())

	engine := nebula.New(
		nebula.WithBaseDir(filepath.Dir(path)),
		nebula.WithArgs(os.Args),
		nebula.WithFFISink(sink),
	)
	if _, err := engine.RunFile(path); err != nil {
		color := isatty.IsTerminal(os.Stderr.Fd())
		if ne, ok := err.(*nebulaerrors.Error); ok {
			fmt.Fprintln(os.Stderr, ne.Format(color))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}
	return nil
}
