package main

import (
	"os"

	"github.com/aukilabs/boxscan/messages"
	"github.com/aukilabs/boxscan/replay"
	"github.com/aukilabs/boxscan/scan"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"
)

var (
	orbitSize          float64
	orbitRadius        float64
	orbitElevations    []float64
	orbitFramesPerRing int
	orbitOutput        string
)

var orbitCmd = &cobra.Command{
	Use:   "orbit",
	Short: "Scan a box with a synthetic orbit",
	Long: `Generate a session where a camera circles a box at several elevations,
play it and print the resulting progress. With --output, the generated
session is also recorded to a file that the run command can replay.`,
	Args: cobra.NoArgs,
	RunE: runOrbit,
}

func init() {
	d := replay.DefaultOrbit()

	orbitCmd.Flags().Float64Var(&orbitSize, "size", d.Extent.X(), "The size of the scanned cube, in meters")
	orbitCmd.Flags().Float64Var(&orbitRadius, "radius", d.Radius, "The distance between the camera and the box center, in meters")
	orbitCmd.Flags().Float64SliceVar(&orbitElevations, "elevations", d.Elevations, "The camera elevations above the horizon, in radians")
	orbitCmd.Flags().IntVar(&orbitFramesPerRing, "frames-per-ring", d.FramesPerRing, "The number of frames of each circle")
	orbitCmd.Flags().StringVarP(&orbitOutput, "output", "o", "", "Record the generated session to this file")
	rootCmd.AddCommand(orbitCmd)
}

func runOrbit(cmd *cobra.Command, args []string) error {
	orbit := replay.DefaultOrbit()
	orbit.Extent = mgl64.Vec3{orbitSize, orbitSize, orbitSize}
	orbit.Center = mgl64.Vec3{0, orbitSize / 2, 0}
	orbit.Radius = orbitRadius
	orbit.Elevations = orbitElevations
	orbit.FramesPerRing = orbitFramesPerRing

	if orbit.Radius <= orbitSize {
		return errors.New("the camera would be inside the box").
			WithTag("radius", orbit.Radius).
			WithTag("size", orbitSize)
	}

	msgs, err := orbit.Messages()
	if err != nil {
		return err
	}

	if orbitOutput != "" {
		if err := record(orbitOutput, msgs); err != nil {
			return err
		}
	}

	res, err := replay.NewPlayer(orbit.ScanConfig(scan.DefaultConfig())).PlayAll(cmd.Context(), msgs)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), res)
}

func record(filename string, msgs []messages.Msg) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.New("creating recorded session failed").
			WithTag("file_name", filename).
			Wrap(err)
	}
	defer f.Close()

	if err := replay.NewWriter(f).WriteAll(msgs); err != nil {
		return err
	}
	return f.Close()
}
