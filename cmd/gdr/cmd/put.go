package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newPutCmd creates the put command
func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <file>",
		Short: "Store a replay in the archive",
		Long: `Validate a replay file in either encoding and store it in the archive.
The new replay id is printed on success.

Example:
  gdr put run.gdr.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := sessionFrom(cmd)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			r, err := rt.codec.Decode(data)
			if err != nil {
				return fmt.Errorf("invalid replay %s: %w", args[0], err)
			}

			archive, err := rt.openArchive()
			if err != nil {
				return err
			}
			defer archive.Close()

			id, err := archive.Create(r)
			if err != nil {
				return fmt.Errorf("failed to store replay: %w", err)
			}

			rt.log.WithField("id", id.String()).Debug("stored replay")
			fmt.Fprintln(cmd.OutOrStdout(), id.String())
			return nil
		},
	}
}
