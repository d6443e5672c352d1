package command

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/j-veylop/token-overlay-tui/internal/capture"
	"github.com/j-veylop/token-overlay-tui/internal/config"
	"github.com/j-veylop/token-overlay-tui/internal/session"
	"github.com/j-veylop/token-overlay-tui/internal/tokenizer"
	"github.com/j-veylop/token-overlay-tui/internal/tracker"
)

type inspectResult struct {
	Page         string `json:"page"`
	Model        string `json:"model"`
	Prompt       string `json:"prompt"`
	Messages     int    `json:"messages"`
	CurrentInput int    `json:"current_input_tokens"`
	Output       int    `json:"output_tokens"`
	Encoding     string `json:"encoding"`
}

// NewInspectCmd creates the inspect command. It reads a page snapshot once
// and prints what the overlay would show for it.
func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [page.html]",
		Short: "Print the token reading of a page snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selectorsPath, _ := cmd.Flags().GetString("selectors")
			encoding, _ := cmd.Flags().GetString("encoding")
			asJSON, _ := cmd.Flags().GetBool("json")

			path := filepath.Join(".", config.PageFileName)
			if len(args) == 1 {
				path = args[0]
			}

			selectors, err := config.LoadSelectors(selectorsPath)
			if err != nil {
				return fmt.Errorf("failed to load selector profile: %w", err)
			}

			counter, err := tokenizer.New(encoding)
			if err != nil {
				return err
			}

			doc, err := capture.LoadPage(path)
			if err != nil {
				return err
			}

			t := tracker.New(counter, selectors, session.New())
			reading, err := t.Refresh(doc)
			if err != nil {
				return err
			}

			res := inspectResult{
				Page:         path,
				Model:        reading.Model,
				Prompt:       t.PromptText(doc),
				Messages:     t.MessageCount(doc),
				CurrentInput: reading.CurrentInputTokens,
				Output:       reading.OutputTokens,
				Encoding:     counter.Encoding(),
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			_, err = fmt.Fprintf(out,
				"Page:     %s\nModel:    %s\nMessages: %d\nInput:    %s\nOutput:   %s\nEncoding: %s\n",
				res.Page, res.Model, res.Messages,
				humanize.Comma(int64(res.CurrentInput)), humanize.Comma(int64(res.Output)), res.Encoding)
			return err
		},
	}

	cmd.Flags().String("selectors", "", "selector profile YAML")
	cmd.Flags().String("encoding", tokenizer.DefaultEncoding, "tokenizer encoding")
	cmd.Flags().Bool("json", false, "output in JSON format")
	return cmd
}
