package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/salescoach/backend/internal/domain"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a catalog entry in the flat extraction record layout",
	Long: `show prints a stored catalog entry the way an extraction would have produced it,
which makes it easy to diff a saved vehicle against a fresh extraction.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		entry, err := current.catalog.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		return current.print(domain.RecordFromEntry(entry))
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
