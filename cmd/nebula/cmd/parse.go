package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nebula-lang/nebula/internal/lexer"
	"github.com/nebula-lang/nebula/internal/parser"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a Nebula source file and dump the AST",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}

		l := lexer.New(string(data))
		p := parser.New(l).WithFile(args[0])
		program := p.ParseProgram()

		if errs := p.Errors(); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, e.Format(false))
			}
			return fmt.Errorf("parsing failed with %d error(s)", len(errs))
		}

		fmt.Print(program.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
