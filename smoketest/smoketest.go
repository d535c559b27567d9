// Package smoketest serves an endpoint that runs a synthetic orbit scan on
// the server engine.
package smoketest

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/aukilabs/boxscan/replay"
	"github.com/aukilabs/boxscan/scan"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/segmentio/encoding/json"
)

const (
	defaultTimeout       = time.Second * 10
	defaultMinPercentage = 50
	maxFrames            = 20000
)

type Options struct {
	// The engine configuration used for the scan.
	ScanConfig scan.Config

	// The orbit used when a request does not describe one.
	Orbit replay.Orbit
}

// Request configures a smoke test. Zero values use the server defaults.
type Request struct {
	Extent        *mgl64.Vec3   `json:"extent,omitempty"`
	Radius        float64       `json:"radius,omitempty"`
	Elevations    []float64     `json:"elevations,omitempty"`
	FramesPerRing int           `json:"frames_per_ring,omitempty"`
	MinPercentage int           `json:"min_percentage,omitempty"`
	Timeout       time.Duration `json:"timeout,omitempty"`
}

// Result is the outcome of a smoke test.
type Result struct {
	Passed bool          `json:"passed"`
	Replay replay.Result `json:"replay"`
}

func (r Request) orbit(o replay.Orbit) replay.Orbit {
	if r.Extent != nil {
		o.Extent = *r.Extent
		o.Center = mgl64.Vec3{0, r.Extent.Y() / 2, 0}
	}
	if r.Radius > 0 {
		o.Radius = r.Radius
	}
	if len(r.Elevations) != 0 {
		o.Elevations = r.Elevations
	}
	if r.FramesPerRing > 0 {
		o.FramesPerRing = r.FramesPerRing
	}
	return o
}

// HandleSmokeTest runs the orbit described by the request body and responds
// with the replay result.
func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	if opts.Orbit.FramesPerRing == 0 {
		opts.Orbit = replay.DefaultOrbit()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			httpcmn.InternalServerError(w, errors.New("reading body failed").Wrap(err))
			return
		}

		var req Request
		if len(b) != 0 {
			if err := json.Unmarshal(b, &req); err != nil {
				httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
				return
			}
		}

		orbit := req.orbit(opts.Orbit)
		if orbit.FrameCount() > maxFrames || orbit.Radius <= 0 {
			httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
			return
		}

		timeout := req.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		minPercentage := req.MinPercentage
		if minPercentage <= 0 {
			minPercentage = defaultMinPercentage
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		res, err := Run(ctx, opts.ScanConfig, orbit)
		if err != nil {
			logs.WithTag("frames", orbit.FrameCount()).
				Warn(errors.New("smoke test failed").Wrap(err))
			httpcmn.InternalServerError(w, err)
			return
		}

		result := Result{
			Passed: res.Percentage >= minPercentage,
			Replay: res,
		}

		logs.WithTag("passed", result.Passed).
			WithTag("percentage", res.Percentage).
			WithTag("frames", res.Frames).
			WithTag("duration", res.Duration).
			Info("smoke test completed")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(result)
	}
}

// Run plays the given orbit on a new scan.
func Run(ctx context.Context, c scan.Config, orbit replay.Orbit) (replay.Result, error) {
	msgs, err := orbit.Messages()
	if err != nil {
		return replay.Result{}, errors.New("generating orbit failed").Wrap(err)
	}

	player := replay.NewPlayer(orbit.ScanConfig(c))
	return player.PlayAll(ctx, msgs)
}
