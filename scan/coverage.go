package scan

import (
	"math"
	"time"

	"github.com/aukilabs/boxscan/geometry"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/stat"
)

type rayHit struct {
	ray         geometry.Ray
	hitLocation mgl64.Vec3
}

// ResetCapturingProgress forgets every sampled ray and clears the tile flags.
func (b *BoundingBox) ResetCapturingProgress() {
	b.cameraRaysAndHitLocations = nil

	for _, s := range b.sides {
		s.resetTiles()
	}

	if b.progressPercentage != 0 {
		b.progressPercentage = 0
		b.scanPercentageChanged.notify(0)
	}
}

// SampledRayCount returns the number of camera rays kept so far.
func (b *BoundingBox) SampledRayCount() int {
	return len(b.cameraRaysAndHitLocations)
}

// HighlightCurrentTile highlights the tile the camera looks at. It does
// nothing when the camera is inside the box.
func (b *BoundingBox) HighlightCurrentTile(camera *geometry.Camera) {
	if camera == nil || b.Contains(camera.Position()) {
		return
	}

	ray := geometry.ForwardRay(camera.Pose, b.config.RayLength)

	for _, s := range b.sides {
		for _, t := range s.Tiles {
			t.IsHighlighted = false
		}
	}

	if tile, _, ok := b.tileHitBy(ray); ok {
		tile.IsHighlighted = true
	}

	for _, s := range b.sides {
		s.updateTilesVisualization()
	}
}

// UpdateCapturingProgress samples camera rays and recomputes the captured
// tiles and the scan percentage. Sampling and recomputing only happen every
// configured number of frames.
func (b *BoundingBox) UpdateCapturingProgress(camera *geometry.Camera) {
	if camera == nil || b.Contains(camera.Position()) {
		return
	}

	b.frameCounter++

	if b.frameCounter%b.config.SampleInterval == 0 {
		b.frameCounter = 0
		b.sampleCameraRay(camera)
	}

	if b.frameCounter%b.config.RecomputeInterval != 0 || b.isUpdatingCapturingProgress {
		return
	}

	b.isUpdatingCapturingProgress = true
	defer func() {
		b.isUpdatingCapturingProgress = false
	}()

	start := time.Now()
	b.recomputeCapturedTiles()
	instrumentCapturedTilesRecompute(time.Since(start))
}

func (b *BoundingBox) sampleCameraRay(camera *geometry.Camera) {
	ray := geometry.ForwardRay(camera.Pose, b.config.RayLength)

	_, hitLocation, ok := b.tileHitBy(ray)
	if !ok {
		instrumentRaySample(raySampleMissed)
		return
	}

	if !b.IsHitLocationDifferentFromPreviousRayHitTests(hitLocation) {
		instrumentRaySample(raySampleDuplicate)
		return
	}

	b.cameraRaysAndHitLocations = append(b.cameraRaysAndHitLocations, rayHit{
		ray:         ray,
		hitLocation: hitLocation,
	})
	instrumentRaySample(raySampleAccepted)
}

// IsHitLocationDifferentFromPreviousRayHitTests reports whether a location is
// at least the deduplication distance away from every kept hit. Most recent
// hits are checked first.
func (b *BoundingBox) IsHitLocationDifferentFromPreviousRayHitTests(location mgl64.Vec3) bool {
	for i := len(b.cameraRaysAndHitLocations) - 1; i >= 0; i-- {
		hit := b.cameraRaysAndHitLocations[i]
		if hit.hitLocation.Sub(location).Len() < b.config.HitDeduplicationDistance {
			return false
		}
	}
	return true
}

func (b *BoundingBox) recomputeCapturedTiles() {
	captured := make(map[*Tile]struct{})

	for _, h := range b.cameraRaysAndHitLocations {
		if tile, _, ok := b.tileHitBy(h.ray); ok {
			tile.IsCaptured = true
			captured[tile] = struct{}{}
		}
	}

	for _, s := range b.sides {
		// Tiles waiting for a relayout are not hit tested and keep their
		// flags.
		if s.IsBusyUpdatingTiles() {
			continue
		}

		for _, t := range s.Tiles {
			if _, ok := captured[t]; !ok {
				t.IsCaptured = false
			}
		}
		s.updateTilesVisualization()
	}

	percentage := b.computeScanPercentage()
	if percentage == b.progressPercentage {
		return
	}

	b.progressPercentage = percentage
	logs.WithTag("percentage", percentage).
		WithTag("rays", len(b.cameraRaysAndHitLocations)).
		Debug("scan percentage changed")

	if percentage == 100 {
		instrumentScanCompleted()
	}
	b.scanPercentageChanged.notify(percentage)
}

// computeScanPercentage averages the completion of every side but the bottom
// one, which can rarely be seen.
func (b *BoundingBox) computeScanPercentage() int {
	completions := make([]float64, 0, len(b.sides)-1)
	for _, s := range b.sides {
		if s.Position == SideBottom {
			continue
		}
		completions = append(completions, s.Completion())
	}
	return ScanPercentage(completions)
}

// ScanPercentage returns the mean of the given side completions as a floored
// percentage in [0, 100].
func ScanPercentage(completions []float64) int {
	if len(completions) == 0 {
		return 0
	}

	// The epsilon absorbs float noise such as 0.92 * 100 = 91.99999999999999.
	percentage := int(math.Floor(stat.Mean(completions, nil)*100 + 1e-9))
	switch {
	case percentage < 0:
		return 0
	case percentage > 100:
		return 100
	default:
		return percentage
	}
}
