package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salescoach/backend/internal/domain"
)

var urlCmd = &cobra.Command{
	Use:   "url <url>",
	Short: "Extract a vehicle record from a dealer or manufacturer webpage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := extraction{File: args[0]}

		result, err := current.upload.ExtractFile(ctx, domain.RawDocument{
			Path:      args[0],
			Name:      args[0],
			MediaType: domain.MediaWebpage,
		})
		if err != nil {
			out.Error = err.Error()
			if perr := current.print([]extraction{out}); perr != nil {
				return perr
			}
			return fmt.Errorf("extract %s: %w", args[0], err)
		}
		out.Result = &result
		out.Missing = result.Record.Missing()

		if save {
			entry, err := current.catalog.Create(ctx, result.Record, "")
			if err != nil {
				return fmt.Errorf("save: %w", err)
			}
			out.Saved = &entry
		}
		return current.print([]extraction{out})
	},
}

func init() {
	rootCmd.AddCommand(urlCmd)
}
