package command

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/j-veylop/token-overlay-tui/internal/tokenizer"
)

// NewCountCmd creates the count command.
func NewCountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count [file]",
		Short: "Count the tokens of a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			encoding, _ := cmd.Flags().GetString("encoding")
			raw, _ := cmd.Flags().GetBool("raw")

			counter, err := tokenizer.New(encoding)
			if err != nil {
				return err
			}

			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			n, err := counter.Count(string(text))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if raw {
				_, err = fmt.Fprintln(out, n)
				return err
			}
			_, err = fmt.Fprintf(out, "%s tokens (%s)\n", humanize.Comma(int64(n)), counter.Encoding())
			return err
		},
	}

	cmd.Flags().String("encoding", tokenizer.DefaultEncoding,
		"tokenizer encoding ("+strings.Join(tokenizer.Encodings(), ", ")+")")
	cmd.Flags().Bool("raw", false, "print only the number")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}
