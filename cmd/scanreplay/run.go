package main

import (
	"os"

	"github.com/aukilabs/boxscan/featureflag"
	"github.com/aukilabs/boxscan/replay"
	"github.com/aukilabs/boxscan/scan"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	runFeatureFlags []string
	runTilesPerSide int
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Replay a recorded session",
	Long:  "Play every message of a recorded session on a new scan and print the resulting progress.",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	runCmd.Flags().StringSliceVar(&runFeatureFlags, "feature-flags", nil, "Comma separated feature flags")
	runCmd.Flags().IntVar(&runTilesPerSide, "tiles-per-side", scan.DefaultConfig().TilesPerSide, "The number of tile rows and columns on each box side")
	rootCmd.AddCommand(runCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return errors.New("opening recorded session failed").
			WithTag("file_name", args[0]).
			Wrap(err)
	}
	defer f.Close()

	c := scan.DefaultConfig()
	c.TilesPerSide = runTilesPerSide
	c = featureflag.New(runFeatureFlags).ScanConfig(c)

	res, err := replay.NewPlayer(c).PlayFrom(cmd.Context(), f)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), res)
}
