package scan

import (
	"fmt"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultNoDetectionTimeout is the time without detection after which a
	// test run reports that the object can't be detected.
	DefaultNoDetectionTimeout = 5 * time.Second

	resultDisplayBuffer = 200 * time.Millisecond
)

// TestRunStatistics summarizes the detections of a test run.
type TestRunStatistics struct {
	Detections            int
	LastDetectionDelay    time.Duration
	AverageDetectionDelay time.Duration
	ResultDisplayDuration time.Duration
}

func (s TestRunStatistics) String() string {
	return fmt.Sprintf("Detected after: %.0f ms. Avg: %.0f ms",
		float64(s.LastDetectionDelay)/float64(time.Millisecond),
		float64(s.AverageDetectionDelay)/float64(time.Millisecond),
	)
}

// TestRun measures how long it takes to detect a scanned object.
type TestRun struct {
	// The time without detection after which OnNoDetection is called.
	NoDetectionTimeout time.Duration

	// Called from its own goroutine when nothing was detected for
	// NoDetectionTimeout.
	OnNoDetection func()

	mutex              sync.Mutex
	detections         int
	delays             []float64
	lastDelay          time.Duration
	lastDetectionStart time.Time
	noDetectionTimer   *time.Timer
	now                func() time.Time
}

// Start resets the statistics and starts waiting for a detection.
func (r *TestRun) Start() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.detections = 0
	r.delays = nil
	r.lastDelay = 0
	r.lastDetectionStart = r.clock()
	r.startNoDetectionTimer()
}

// SuccessfulDetection records a detection and starts waiting for the next one.
func (r *TestRun) SuccessfulDetection() TestRunStatistics {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.clock()
	if r.lastDetectionStart.IsZero() {
		r.lastDetectionStart = now
	}

	r.lastDelay = now.Sub(r.lastDetectionStart)
	r.detections++
	r.delays = append(r.delays, r.lastDelay.Seconds())
	r.lastDetectionStart = now
	r.startNoDetectionTimer()

	stats := r.statistics()
	logs.WithTag("detections", stats.Detections).
		WithTag("delay", stats.LastDetectionDelay).
		Debug("object detected")
	return stats
}

// Statistics returns the current detection statistics.
func (r *TestRun) Statistics() TestRunStatistics {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.statistics()
}

func (r *TestRun) statistics() TestRunStatistics {
	var average time.Duration
	if len(r.delays) != 0 {
		average = time.Duration(stat.Mean(r.delays, nil) * float64(time.Second))
	}

	return TestRunStatistics{
		Detections:            r.detections,
		LastDetectionDelay:    r.lastDelay,
		AverageDetectionDelay: average,
		ResultDisplayDuration: average + resultDisplayBuffer,
	}
}

// Close stops waiting for detections.
func (r *TestRun) Close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.cancelNoDetectionTimer()
}

func (r *TestRun) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *TestRun) startNoDetectionTimer() {
	r.cancelNoDetectionTimer()

	timeout := r.NoDetectionTimeout
	if timeout <= 0 {
		timeout = DefaultNoDetectionTimeout
	}

	var timer *time.Timer
	timer = time.AfterFunc(timeout, func() {
		r.mutex.Lock()
		if r.noDetectionTimer != timer {
			r.mutex.Unlock()
			return
		}
		r.noDetectionTimer = nil
		onNoDetection := r.OnNoDetection
		r.mutex.Unlock()

		if onNoDetection != nil {
			onNoDetection()
		}
	})
	r.noDetectionTimer = timer
}

func (r *TestRun) cancelNoDetectionTimer() {
	if r.noDetectionTimer != nil {
		r.noDetectionTimer.Stop()
		r.noDetectionTimer = nil
	}
}
