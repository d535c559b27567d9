package boxscan

import (
	"github.com/aukilabs/boxscan/messages"
	"github.com/aukilabs/boxscan/scan"
	"github.com/go-gl/mathgl/mgl64"
)

func snapshot(s *scan.Scan) messages.ScanSnapshot {
	snap := messages.ScanSnapshot{
		State:      s.State(),
		PointCount: s.PointCloud().Count(),
	}

	box := s.BoundingBox()
	if box == nil {
		return snap
	}
	snap.Box = boxSnapshot(box)

	if origin := s.Origin(); origin != nil {
		snap.Origin = &messages.OriginSnapshot{
			Pose:                messages.PoseFrom(origin.Pose()),
			Yaw:                 origin.Yaw(),
			SnappedToSide:       origin.IsSnappedToSide,
			SnappedToCenter:     origin.IsSnappedToBottomCenter,
			SnappedToRightAngle: origin.IsSnappedTo90DegreeRotation,
		}
	}
	return snap
}

func boxSnapshot(box *scan.BoundingBox) *messages.BoxSnapshot {
	snap := &messages.BoxSnapshot{
		Pose:           messages.PoseFrom(box.Pose()),
		Extent:         box.Extent(),
		Progress:       box.ProgressPercentage(),
		AdjustedByUser: box.HasBeenAdjustedByUser,
		SnappedToPlane: box.IsSnappedToHorizontalPlane,
	}

	for _, side := range box.Sides() {
		sideSnap := messages.SideSnapshot{
			Position:   side.Position,
			Hidden:     side.IsHidden,
			Hints:      side.Hints,
			Completion: side.Completion(),
			Tiles:      make([]messages.TileSnapshot, len(side.Tiles)),
		}

		for i, t := range side.Tiles {
			sideSnap.Tiles[i] = messages.TileSnapshot{
				Captured:    t.IsCaptured,
				Highlighted: t.IsHighlighted,
				Opacity:     t.Opacity(),
			}
		}
		snap.Sides = append(snap.Sides, sideSnap)
	}

	pose := box.Pose()
	edges := box.Wireframe().Edges
	snap.Edges = make([][2]mgl64.Vec3, len(edges))
	for i, e := range edges {
		snap.Edges[i] = [2]mgl64.Vec3{
			pose.ToWorld(e.From),
			pose.ToWorld(e.To),
		}
	}
	return snap
}
