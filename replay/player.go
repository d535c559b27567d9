package replay

import (
	"context"
	"io"
	"time"

	"github.com/aukilabs/boxscan/messages"
	"github.com/aukilabs/boxscan/scan"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Result summarizes a replayed session.
type Result struct {
	Messages      int           `json:"messages"`
	Frames        int           `json:"frames"`
	Skipped       int           `json:"skipped"`
	Rejected      int           `json:"rejected"`
	Haptics       int           `json:"haptics"`
	State         scan.State    `json:"state"`
	BoxPlaced     bool          `json:"box_placed"`
	Percentage    int           `json:"percentage"`
	SampledRays   int           `json:"sampled_rays"`
	CapturedTiles int           `json:"captured_tiles"`
	PointCount    int           `json:"point_count"`
	Progress      []Progress    `json:"progress,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// Progress is a scan percentage change and the frame that caused it.
type Progress struct {
	Frame      int `json:"frame"`
	Percentage int `json:"percentage"`
}

// Player applies recorded messages to a scan the way the boxscan module
// does, without a session.
//
// A Player is not safe for concurrent use.
type Player struct {
	scan           *scan.Scan
	result         Result
	playing        time.Duration
	cancelProgress func()
}

// NewPlayer creates a player with a new scan using the given configuration.
func NewPlayer(c scan.Config) *Player {
	p := &Player{}

	p.scan = scan.New(c, scan.HapticFunc(func(scan.HapticReason) {
		p.result.Haptics++
	}))

	p.scan.OnBoundingBoxPlaced(func(b *scan.BoundingBox) {
		p.stopProgress()
		p.cancelProgress = b.OnScanPercentageChanged(func(v int) {
			p.result.Progress = append(p.result.Progress, Progress{
				Frame:      p.result.Frames,
				Percentage: v,
			})
		})
	})
	p.scan.OnBoundingBoxRemoved(p.stopProgress)
	return p
}

func (p *Player) stopProgress() {
	if p.cancelProgress != nil {
		p.cancelProgress()
		p.cancelProgress = nil
	}
}

// Scan returns the replayed scan.
func (p *Player) Scan() *scan.Scan {
	return p.scan
}

// Play applies a recorded message. Messages that are valid but refused by
// the scan, such as invalid state transitions, are counted as rejected.
func (p *Player) Play(msg messages.Msg) error {
	start := time.Now()
	defer func() {
		p.playing += time.Since(start)
	}()

	p.result.Messages++

	switch msg.Type {
	case messages.MsgTypeFrame:
		var frame messages.Frame
		if err := decode(msg, &frame); err != nil {
			return err
		}
		p.result.Frames++
		p.scan.UpdateOnEveryFrame(frame.ToScan())

	case messages.MsgTypeBoxPlaceRequest:
		var req messages.BoxPlaceRequest
		if err := decode(msg, &req); err != nil {
			return err
		}
		p.scan.PlaceBoundingBox(req.Pose.ToGeometry())

	case messages.MsgTypeScanStateRequest:
		var req messages.ScanStateRequest
		if err := decode(msg, &req); err != nil {
			return err
		}
		if err := p.scan.SetState(req.State); err != nil {
			p.reject(msg, err)
		}

	case messages.MsgTypeScanDiscardRequest:
		p.scan.Discard()

	case messages.MsgTypeGesture:
		var req messages.Gesture
		if err := decode(msg, &req); err != nil {
			return err
		}
		p.playGesture(msg, req)

	case messages.MsgTypeOriginRequest:
		var req messages.OriginRequest
		if err := decode(msg, &req); err != nil {
			return err
		}
		p.playOrigin(msg, req)

	default:
		p.result.Skipped++
	}

	return nil
}

func (p *Player) playGesture(msg messages.Msg, req messages.Gesture) {
	switch req.Phase {
	case messages.GestureBegin:
		if !p.scan.StartDrag(req.Kind, req.Point) {
			p.reject(msg, errors.New("drag did not start").WithTag("kind", req.Kind))
		}

	case messages.GestureMove:
		p.scan.UpdateDrag(req.Kind, req.Point)

	case messages.GestureEnd:
		p.scan.EndDrag(req.Kind)

	default:
		p.reject(msg, errors.New("unknown gesture phase").WithTag("phase", req.Phase))
	}
}

func (p *Player) playOrigin(msg messages.Msg, req messages.OriginRequest) {
	origin := p.scan.Origin()
	if origin == nil {
		p.reject(msg, errors.New("no bounding box placed").WithType(scan.ErrTypeBoundingBoxMissing))
		return
	}

	switch req.Action {
	case messages.OriginMove:
		origin.SetPosition(req.Position)
	case messages.OriginSnapSide:
		origin.SnapToBoundingBoxSide()
	case messages.OriginSnapCenter:
		origin.SnapToBoundingBoxCenter()
	case messages.OriginRotate:
		origin.RotateWithSnappingOnYAxis(req.Angle)
	default:
		p.reject(msg, errors.New("unknown origin action").WithTag("action", req.Action))
	}
}

func (p *Player) reject(msg messages.Msg, err error) {
	p.result.Rejected++
	logs.WithTag("msg_type", msg.Type).
		WithTag("record", p.result.Messages).
		Debug(err)
}

func decode(msg messages.Msg, v any) error {
	if err := msg.DataTo(v); err != nil {
		return errors.New("playing record failed").
			WithType(ErrTypeInvalidRecord).
			Wrap(err)
	}
	return nil
}

// PlayAll plays the given messages. It stops when a message can't be
// decoded or when the context is canceled.
func (p *Player) PlayAll(ctx context.Context, msgs []messages.Msg) (Result, error) {
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return p.Result(), err
		}

		if err := p.Play(msg); err != nil {
			return p.Result(), err
		}
	}
	return p.Result(), nil
}

// PlayFrom plays the messages read from a recorded session.
func (p *Player) PlayFrom(ctx context.Context, r io.Reader) (Result, error) {
	reader := NewReader(r)

	for ctx.Err() == nil {
		msg, err := reader.Next()
		if err == io.EOF {
			return p.Result(), nil
		}
		if err != nil {
			return p.Result(), err
		}

		if err := p.Play(msg); err != nil {
			return p.Result(), err
		}
	}
	return p.Result(), ctx.Err()
}

// Result returns the summary of what has been played so far.
func (p *Player) Result() Result {
	res := p.result
	res.Progress = append([]Progress(nil), p.result.Progress...)
	res.State = p.scan.State()
	res.Duration = p.playing
	res.PointCount = p.scan.PointCloud().Count()

	if box := p.scan.BoundingBox(); box != nil {
		res.BoxPlaced = true
		res.Percentage = box.ProgressPercentage()
		res.SampledRays = box.SampledRayCount()

		for _, t := range box.Tiles() {
			if t.IsCaptured {
				res.CapturedTiles++
			}
		}
	}
	return res
}
