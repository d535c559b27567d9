package scan

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultLabel = "result"
	kindLabel   = "kind"
	reasonLabel = "reason"
	fromLabel   = "from"
	toLabel     = "to"

	raySampleAccepted  = "accepted"
	raySampleDuplicate = "duplicate"
	raySampleMissed    = "missed"
)

var (
	raySampleCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_ray_sample_count",
		Help: "The number of camera rays sampled to track the scan coverage.",
	}, []string{resultLabel})

	capturedTilesRecomputeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scan_captured_tiles_recompute_latency_seconds",
		Help:    "The time it takes to recompute the captured tiles of a bounding box.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	})

	scanCompletedCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scan_completed_count",
		Help: "The number of scans that reached 100 percent.",
	})

	dragCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_drag_count",
		Help: "The number of bounding box drags.",
	}, []string{kindLabel})

	hapticFeedbackCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_haptic_feedback_count",
		Help: "The number of haptic pulses triggered by snapping.",
	}, []string{reasonLabel})

	planeAlignmentCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scan_plane_alignment_count",
		Help: "The number of times a bounding box was aligned with a plane.",
	})

	stateTransitionCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_state_transition_count",
		Help: "The number of scan state transitions.",
	}, []string{fromLabel, toLabel})
)

func instrumentRaySample(result string) {
	raySampleCount.
		With(prometheus.Labels{resultLabel: result}).
		Inc()
}

func instrumentCapturedTilesRecompute(d time.Duration) {
	capturedTilesRecomputeLatency.Observe(d.Seconds())
}

func instrumentScanCompleted() {
	scanCompletedCount.Inc()
}

func instrumentDrag(kind DragKind) {
	dragCount.
		With(prometheus.Labels{kindLabel: string(kind)}).
		Inc()
}

func instrumentHapticFeedback(reason HapticReason) {
	hapticFeedbackCount.
		With(prometheus.Labels{reasonLabel: string(reason)}).
		Inc()
}

func instrumentPlaneAlignment() {
	planeAlignmentCount.Inc()
}

func instrumentStateTransition(from, to State) {
	stateTransitionCount.
		With(prometheus.Labels{
			fromLabel: from.String(),
			toLabel:   to.String(),
		}).
		Inc()
}
