package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/petems/voicevault/internal/audio"
	"github.com/petems/voicevault/internal/features"
	"github.com/petems/voicevault/internal/identify"
	"github.com/petems/voicevault/internal/permissions"
)

var (
	identifySeconds float64
	identifyClip    string
	identifyModels  []string
)

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Record a clip and report the most likely speaker",
	Long: `Record a clip from the configured input device, extract its MFCC
features and let every frame vote for the best scoring speaker model.

Model order matters: on equal scores or equal votes the model listed
first wins.

Examples:
  voicevault identify
  voicevault identify --seconds 3 --model alice.yaml --model bob.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := permissions.EnsureMicrophone(); err != nil {
			return err
		}

		d := cfg.RecordDuration()
		if cmd.Flags().Changed("seconds") {
			d = time.Duration(identifySeconds * float64(time.Second))
		}
		models := cfg.Models
		if len(identifyModels) > 0 {
			models = identifyModels
		}
		clipPath := identifyClip
		if clipPath == "" {
			clipPath = cfg.ClipDestination()
			if cfg.ClipPath == "" {
				defer os.Remove(clipPath)
			}
		}

		p := identify.New(identify.Config{
			Recorder:      audio.NewRecorder(cfg.StreamParams(), audio.PortAudio, log),
			Extractor:     features.New(cfg.FeatureConfig(), log),
			Loader:        modelLoader(),
			HistoryPath:   cfg.HistoryPath,
			Logger:        log,
			StatusUpdater: statusLine{w: cmd.ErrOrStderr()},
		})

		res, err := p.Identify(cmd.Context(), identify.Request{
			Duration:   d,
			ClipPath:   clipPath,
			ModelPaths: models,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, res.Speaker)
		for _, label := range res.Tally.Labels() {
			fmt.Fprintf(out, "  %-20s %d\n", label, res.Tally.Count(label))
		}
		return nil
	},
}

func init() {
	identifyCmd.Flags().Float64Var(&identifySeconds, "seconds", 0, "recording length in seconds (default from config)")
	identifyCmd.Flags().StringVar(&identifyClip, "clip", "", "keep the recorded clip at this path")
	identifyCmd.Flags().StringArrayVar(&identifyModels, "model", nil, "speaker model artifact path or URL, repeatable, in priority order")
}
