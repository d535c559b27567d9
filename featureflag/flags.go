package featureflag

import "github.com/aukilabs/boxscan/scan"

type Flag string

const (
	FlagDisablePlaneAlignment            Flag = "DISABLE_PLANE_ALIGNMENT"
	FlagDisableHorizontalPlaneSnap       Flag = "DISABLE_HORIZONTAL_PLANE_SNAP"
	FlagDisableTileHighlight             Flag = "DISABLE_TILE_HIGHLIGHT"
	FlagDisableHapticFeedback            Flag = "DISABLE_HAPTIC_FEEDBACK"
	FlagDisablePointCloudFit             Flag = "DISABLE_POINT_CLOUD_FIT"
	FlagDisableScanSnapshot              Flag = "DISABLE_SCAN_SNAPSHOT"
	FlagDisableParticipantJoinBroadcast  Flag = "DISABLE_PARTICIPANT_JOIN_BROADCAST"
	FlagDisableParticipantLeaveBroadcast Flag = "DISABLE_PARTICIPANT_LEAVE_BROADCAST"
)

// ScanConfig returns c with the scan behaviours disabled by the flags turned
// off.
func (f FeatureFlag) ScanConfig(c scan.Config) scan.Config {
	f.IfSet(FlagDisablePlaneAlignment, func() {
		c.DisablePlaneAlignment = true
	})
	f.IfSet(FlagDisableHorizontalPlaneSnap, func() {
		c.DisableHorizontalPlaneSnap = true
	})
	f.IfSet(FlagDisableTileHighlight, func() {
		c.DisableTileHighlight = true
	})
	f.IfSet(FlagDisableHapticFeedback, func() {
		c.DisableHapticFeedback = true
	})
	f.IfSet(FlagDisablePointCloudFit, func() {
		c.DisablePointCloudFit = true
	})
	return c
}
