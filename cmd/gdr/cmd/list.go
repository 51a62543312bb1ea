package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// newListCmd creates the list command
func newListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored replays",
		Long: `List stored replays oldest first.

Example:
  gdr list --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := sessionFrom(cmd)
			if err != nil {
				return err
			}

			limit, _ := cmd.Flags().GetInt("limit")

			archive, err := rt.openArchive()
			if err != nil {
				return err
			}
			defer archive.Close()

			entries, err := archive.List(limit)
			if err != nil {
				return fmt.Errorf("failed to list replays: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSIZE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", e.ID, e.CreatedAt.UTC().Format(time.RFC3339), e.Size)
			}
			return tw.Flush()
		},
	}

	listCmd.Flags().Int("limit", 0, "Maximum number of replays to list (0 for all)")
	return listCmd
}
