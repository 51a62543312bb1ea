package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/gdr/pkg/codec"
	"github.com/ssargent/gdr/pkg/replay"
)

// newInspectCmd creates the inspect command
func newInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Validate a replay and print its metadata",
		Long: `Decode a replay file in either encoding, validate every field and print
a summary. With --inputs every input is listed as well.

Example:
  gdr inspect run.gdr --inputs`,
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

			r, format, err := rt.codec.DecodeWithFormat(data)
			if err != nil {
				return fmt.Errorf("invalid replay %s: %w", args[0], err)
			}

			printSummary(cmd.OutOrStdout(), r, format)

			if showInputs, _ := cmd.Flags().GetBool("inputs"); showInputs {
				printInputs(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}

	inspectCmd.Flags().Bool("inputs", false, "List every input")
	return inspectCmd
}

func printSummary(out io.Writer, r *replay.Replay, format codec.Format) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Format:\t%s\n", format)
	fmt.Fprintf(tw, "Author:\t%s\n", r.Author)
	fmt.Fprintf(tw, "Description:\t%s\n", r.Description)
	fmt.Fprintf(tw, "Bot:\t%s %s\n", r.Bot.Name, r.Bot.Version)
	fmt.Fprintf(tw, "Level:\t%s (%d)\n", r.Level.Name, r.Level.ID)
	fmt.Fprintf(tw, "Game version:\t%g\n", r.GameVersion)
	fmt.Fprintf(tw, "Format version:\t%g\n", r.Version)
	fmt.Fprintf(tw, "Duration:\t%gs\n", r.Duration)
	fmt.Fprintf(tw, "Frame rate:\t%g\n", r.FrameRate)
	fmt.Fprintf(tw, "Seed:\t%d\n", r.Seed)
	fmt.Fprintf(tw, "Coins:\t%d\n", r.Coins)
	fmt.Fprintf(tw, "Low detail:\t%t\n", r.LowDetailMode)
	fmt.Fprintf(tw, "Inputs:\t%d\n", len(r.Inputs))
	if len(r.Inputs) > 0 {
		fmt.Fprintf(tw, "Last frame:\t%d\n", r.LastFrame())
	}
	tw.Flush()
}

func printInputs(out io.Writer, r *replay.Replay) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FRAME\tPLAYER\tBUTTON\tACTION")
	for _, in := range r.Inputs {
		player := 1
		if in.Player2 {
			player = 2
		}
		action := "release"
		if in.Down {
			action = "hold"
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", in.Frame, player, in.Button, action)
	}
	tw.Flush()
}
