package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/gdr/pkg/codec"
	"github.com/ssargent/gdr/pkg/storage"
)

// newGetCmd creates the get command
func newGetCmd() *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a replay from the archive",
		Long: `Fetch a stored replay, encoded as --format (default: the configured
default format). Without --out the payload is written to standard output.

Examples:
  gdr get 2Fz8aFq1pMmrd4xQ9x3o4K9lWbW --format json
  gdr get 2Fz8aFq1pMmrd4xQ9x3o4K9lWbW --out run.gdr`,
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

			format := rt.cfg.DefaultFormat()
			if name, _ := cmd.Flags().GetString("format"); name != "" {
				if format, err = codec.ParseFormat(name); err != nil {
					return err
				}
			}

			archive, err := rt.openArchive()
			if err != nil {
				return err
			}
			defer archive.Close()

			data, err := archive.Read(id)
			if err != nil {
				return err
			}
			if format != codec.FormatBinary {
				if data, err = rt.codec.Convert(data, format); err != nil {
					return fmt.Errorf("failed to convert replay %s: %w", id, err)
				}
			}

			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%s, %d bytes)\n", out, format, len(data))
			return nil
		},
	}

	getCmd.Flags().String("format", "", "Output encoding (json or msgpack)")
	getCmd.Flags().StringP("out", "o", "", "Write the replay to this file")
	return getCmd
}
