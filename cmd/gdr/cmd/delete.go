package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/gdr/pkg/storage"
)

// newDeleteCmd creates the delete command
func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a replay from the archive",
		Long: `Delete a stored replay.

Example:
  gdr delete 2Fz8aFq1pMmrd4xQ9x3o4K9lWbW`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := sessionFrom(cmd)
			if err != nil {
				return err
			}

			id, err := storage.ParseID(args[0])
			if err != nil {
				return err
			}

			archive, err := rt.openArchive()
			if err != nil {
				return err
			}
			defer archive.Close()

			if err := archive.Delete(id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Successfully deleted replay '%s'\n", id)
			return nil
		},
	}
}
