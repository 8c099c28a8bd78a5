package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nebula-lang/nebula/internal/lexer"
	"github.com/nebula-lang/nebula/pkg/token"
)

var lexCmd = &cobra.Command{
	Use:   "lex <file>",
	Short: "Tokenize a Nebula source file and dump the token stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}

		l := lexer.New(string(data), lexer.WithTrace(true))
		for _, t := range l.Tokenize() {
			if t.Kind == token.EOF {
				break
			}
			fmt.Printf("%4d:%-3d %-10s %q\n", t.Pos.Line, t.Pos.Column, t.Kind, t.Literal)
		}

		if errs := l.Errors(); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, e.Format(false))
			}
			return fmt.Errorf("lexing failed with %d error(s)", len(errs))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lexCmd)
}
