package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/pkg/nebula"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive REPL",
	Long: `Read-evaluate-print loop. Submissions continue across lines while
braces, parens, brackets, or quotes remain open. Commands:

  quit, exit, :q   leave the REPL
  :reset           reinitialize the interpreter`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		return runREPL()
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runREPL() error {
	applyConfig(loadConfig())

	interactive := isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
	engine := nebula.New(nebula.WithArgs(os.Args))
	in := bufio.NewReader(os.Stdin)

	prompt := func(cont bool) {
		if !interactive {
			return
		}
		if cont {
			fmt.Print("... ")
		} else {
			fmt.Print(">>> ")
		}
	}

	var buf strings.Builder
	for {
		prompt(buf.Len() > 0)
		line, err := in.ReadString('\n')
		if err == io.EOF && line == "" {
			return nil
		}
		if err != nil && line == "" {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if buf.Len() == 0 {
			switch trimmed {
			case "quit", "exit", ":q":
				return nil
			case ":reset":
				engine.Reset()
				buf.Reset()
				continue
			case "":
				continue
			}
		}

		buf.WriteString(line)
		if nebula.IsIncomplete(buf.String()) {
			continue
		}

		src := buf.String()
		buf.Reset()

		result, err := engine.Run(src)
		if err != nil {
			// Any error resets the input buffer and the loop continues.
			if ne, ok := err.(*nebulaerrors.Error); ok {
				fmt.Fprintln(os.Stderr, ne.Format(interactive))
			} else {
				fmt.Fprintln(os.Stderr, err)
			}
			continue
		}
		if !result.IsNull() {
			fmt.Println(result.String())
		}
	}
}
