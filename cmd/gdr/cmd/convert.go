package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssargent/gdr/pkg/codec"
)

// newConvertCmd creates the convert command
func newConvertCmd() *cobra.Command {
	convertCmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a replay between MessagePack and JSON",
		Long: `Convert a replay file from either encoding to the requested one.

The input encoding is detected automatically. Without --to the output encoding
follows the output file name: a name ending in .json gets JSON, anything else
the configured default format.

Examples:
  gdr convert run.gdr run.gdr.json
  gdr convert run.gdr.json run.gdr --to msgpack`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := sessionFrom(cmd)
			if err != nil {
				return err
			}

			to, _ := cmd.Flags().GetString("to")
			target, err := targetFormat(to, args[1], rt.cfg.DefaultFormat())
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			r, source, err := rt.codec.DecodeWithFormat(data)
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", args[0], err)
			}

			out, err := rt.codec.Encode(r, target)
			if err != nil {
				return fmt.Errorf("failed to encode replay: %w", err)
			}

			if err := os.WriteFile(args[1], out, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[1], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Converted %s (%s) -> %s (%s), %d inputs\n",
				args[0], source, args[1], target, len(r.Inputs))
			return nil
		},
	}

	convertCmd.Flags().String("to", "", "Output encoding (json or msgpack)")
	return convertCmd
}

// targetFormat picks the output encoding from an explicit name, then the
// output file name, then the fallback
func targetFormat(name, path string, fallback codec.Format) (codec.Format, error) {
	if name != "" {
		return codec.ParseFormat(name)
	}
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return codec.FormatText, nil
	}
	return fallback, nil
}
