package featureflag

import (
	"testing"

	"github.com/aukilabs/boxscan/scan"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlag(t *testing.T) {
	f := New([]string{"feature1"})

	t.Run("run if enabled", func(t *testing.T) {
		var runFeature1 bool
		f.IfSet("feature1", func() {
			runFeature1 = true
		})
		require.True(t, runFeature1)

		var runFeature2 bool
		f.IfSet("feature2", func() {
			runFeature2 = true
		})
		require.False(t, runFeature2)
	})

	t.Run("run if disabled", func(t *testing.T) {
		var runFeature1 bool
		f.IfNotSet("feature1", func() {
			runFeature1 = true
		})
		require.False(t, runFeature1)

		var runFeature2 bool
		f.IfNotSet("feature2", func() {
			runFeature2 = true
		})
		require.True(t, runFeature2)
	})
}

func TestFeatureFlagNew(t *testing.T) {
	f := New([]string{" DISABLE_TILE_HIGHLIGHT", "", "DISABLE_HAPTIC_FEEDBACK ", "DISABLE_TILE_HIGHLIGHT"})

	require.True(t, f.IsSet(FlagDisableTileHighlight))
	require.True(t, f.IsSet(FlagDisableHapticFeedback))
	require.False(t, f.IsSet(FlagDisableScanSnapshot))
	require.Equal(t, []string{"DISABLE_HAPTIC_FEEDBACK", "DISABLE_TILE_HIGHLIGHT"}, f.Flags())

	t.Run("no flags", func(t *testing.T) {
		require.Empty(t, New(nil).Flags())
	})
}

func TestFeatureFlagScanConfig(t *testing.T) {
	t.Run("no flags", func(t *testing.T) {
		c := New(nil).ScanConfig(scan.DefaultConfig())
		require.Equal(t, scan.DefaultConfig(), c)
	})

	t.Run("scan behaviours are disabled", func(t *testing.T) {
		f := New([]string{
			string(FlagDisablePlaneAlignment),
			string(FlagDisableHorizontalPlaneSnap),
			string(FlagDisableTileHighlight),
			string(FlagDisableHapticFeedback),
			string(FlagDisablePointCloudFit),
		})

		c := f.ScanConfig(scan.DefaultConfig())
		require.True(t, c.DisablePlaneAlignment)
		require.True(t, c.DisableHorizontalPlaneSnap)
		require.True(t, c.DisableTileHighlight)
		require.True(t, c.DisableHapticFeedback)
		require.True(t, c.DisablePointCloudFit)
		require.Equal(t, scan.DefaultConfig().TilesPerSide, c.TilesPerSide)
	})

	t.Run("unrelated flags are ignored", func(t *testing.T) {
		f := New([]string{string(FlagDisableScanSnapshot)})
		require.Equal(t, scan.DefaultConfig(), f.ScanConfig(scan.DefaultConfig()))
	})
}
