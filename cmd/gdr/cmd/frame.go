package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ssargent/gdr/pkg/replay"
)

// newFrameCmd creates the frame command
func newFrameCmd() *cobra.Command {
	frameCmd := &cobra.Command{
		Use:   "frame <seconds>",
		Short: "Convert a timestamp to a frame index",
		Long: `Print the frame index a timestamp falls on at the given frame rate.

Example:
  gdr frame 0.5 --framerate 240`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid timestamp %q: %w", args[0], err)
			}

			frameRate, _ := cmd.Flags().GetFloat64("framerate")
			if frameRate <= 0 {
				return fmt.Errorf("frame rate must be positive, got %g", frameRate)
			}

			r := replay.New("", "")
			r.FrameRate = frameRate
			fmt.Fprintln(cmd.OutOrStdout(), r.FrameForTime(seconds))
			return nil
		},
	}

	frameCmd.Flags().Float64("framerate", replay.DefaultFrameRate, "Frames per second")
	return frameCmd
}
