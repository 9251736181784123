package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petems/voicevault/internal/audio"
	"github.com/petems/voicevault/internal/features"
	"github.com/petems/voicevault/internal/history"
	"github.com/petems/voicevault/internal/speaker"
)

var featuresCmd = &cobra.Command{
	Use:   "features PATH",
	Short: "Print the feature matrix shape of a WAV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := features.New(cfg.FeatureConfig(), log).Extract(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d frames x %d coefficients\n", m.Rows(), m.Cols())
		return nil
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models [PATH...]",
	Short: "Describe speaker model artifacts (default: configured models)",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		if len(paths) == 0 {
			paths = cfg.Models
		}
		set, err := modelLoader().Load(cmd.Context(), paths)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tLABEL\tCOVARIANCE\tCOMPONENTS\tDIMENSION")
		for i := 0; i < set.Len(); i++ {
			m := set.Model(i)
			cov, comps := "-", "-"
			if g, ok := m.(*speaker.GMM); ok {
				cov = string(g.CovarianceType())
				comps = fmt.Sprint(g.NumComponents())
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", i, m.Label(), cov, comps, m.Dimension())
		}
		return w.Flush()
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := audio.ListInputDevices()
		if err != nil {
			return err
		}
		for _, d := range devices {
			marker := " "
			if d.Default {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, d.Name)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print past identifications, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		labels, err := history.Read(cfg.HistoryPath)
		if err != nil {
			return err
		}
		for _, l := range labels {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
		return nil
	},
}
