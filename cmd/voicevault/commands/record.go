package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/petems/voicevault/internal/audio"
	"github.com/petems/voicevault/internal/permissions"
)

var recordSeconds float64

var recordCmd = &cobra.Command{
	Use:   "record PATH",
	Short: "Record a clip to a WAV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := permissions.EnsureMicrophone(); err != nil {
			return err
		}

		d := cfg.RecordDuration()
		if cmd.Flags().Changed("seconds") {
			d = time.Duration(recordSeconds * float64(time.Second))
		}

		rec := audio.NewRecorder(cfg.StreamParams(), audio.PortAudio, log)
		clip, err := rec.Record(cmd.Context(), d, args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d channel(s), %d-bit, %d Hz, %d frames (%s)\n",
			clip.Path, clip.Channels, clip.SampleWidth*8, clip.Rate, clip.Frames, clip.Duration())
		return nil
	},
}

func init() {
	recordCmd.Flags().Float64Var(&recordSeconds, "seconds", 0, "recording length in seconds (default from config)")
}
