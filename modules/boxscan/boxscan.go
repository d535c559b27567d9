package boxscan

import (
	"context"

	"github.com/aukilabs/boxscan/featureflag"
	"github.com/aukilabs/boxscan/messages"
	"github.com/aukilabs/boxscan/models"
	"github.com/aukilabs/boxscan/scan"
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Module drives the object scan of a session: bounding box placement, frames,
// gestures, the object origin and box queries.
type Module struct {
	// The engine configuration used by the sessions created from this
	// module. Zero values are replaced by their defaults.
	ScanConfig scan.Config

	FeatureFlags featureflag.FeatureFlag

	currentSession     *models.Session
	currentParticipant *models.Participant
	state              *State
}

func (m *Module) Name() string {
	return "boxscan"
}

func (m *Module) Init(s *models.Session, p *models.Participant) {
	m.currentSession = s
	m.currentParticipant = p

	state := s.LoadOrStoreModuleState(m.Name(), func() any {
		return newState(s,
			m.FeatureFlags.ScanConfig(m.ScanConfig),
			m.FeatureFlags.IsSet(featureflag.FlagDisableScanSnapshot),
		)
	})
	m.state = state.(*State)
}

func (m *Module) HandleMsg(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	if msg.Type != messages.MsgTypeSessionJoinRequest && m.state == nil {
		return errors.New("session not joined").
			WithType(messages.ErrTypeSessionNotJoined).
			WithTag("msg_type", msg.Type)
	}

	var err error

	switch msg.Type {
	case messages.MsgTypeSessionJoinRequest:
		err = m.handleSessionJoin(ctx, respond, msg)

	case messages.MsgTypeScanStateRequest:
		err = m.handleScanState(ctx, respond, msg)

	case messages.MsgTypeScanDiscardRequest:
		m.state.Do(func(s *scan.Scan) {
			s.Discard()
		})

	case messages.MsgTypeBoxPlaceRequest:
		err = m.handleBoxPlace(ctx, respond, msg)

	case messages.MsgTypeFrame:
		err = m.handleFrame(ctx, respond, msg)

	case messages.MsgTypeGesture:
		err = m.handleGesture(ctx, respond, msg)

	case messages.MsgTypeOriginRequest:
		err = m.handleOrigin(ctx, respond, msg)

	case messages.MsgTypeBoxQueryRequest:
		err = m.handleBoxQuery(ctx, respond, msg)

	case messages.MsgTypeSnapshotRequest:
		respond.Send(messages.MsgTypeScanSnapshot, msg.RequestID, m.state.Snapshot())

	default:
		err = messages.ErrModuleMsgSkip
	}

	return err
}

func (m *Module) HandleDisconnect() {
	session := m.currentSession
	if session != nil && m.state != nil && session.ParticipantCount() <= 1 {
		m.state.Close()
	}

	m.currentSession = nil
	m.currentParticipant = nil
	m.state = nil
}

func (m *Module) handleSessionJoin(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	if m.state == nil {
		return nil
	}
	respond.Send(messages.MsgTypeScanSnapshot, 0, m.state.Snapshot())
	return nil
}

func (m *Module) handleScanState(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.ScanStateRequest
	if err := msg.DataTo(&req); err != nil {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodeBadRequest, err)
		return nil
	}

	var err error
	m.state.Do(func(s *scan.Scan) {
		err = s.SetState(req.State)
	})

	if err == nil {
		return nil
	}

	code := messages.ErrorCodeInvalidStateTransition
	if errors.IsType(err, scan.ErrTypeBoundingBoxMissing) {
		code = messages.ErrorCodeBoundingBoxMissing
	}
	messages.RespondError(respond, msg.RequestID, code, err)
	return nil
}

func (m *Module) handleBoxPlace(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.BoxPlaceRequest
	if err := msg.DataTo(&req); err != nil {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodeBadRequest, err)
		return nil
	}

	m.state.Do(func(s *scan.Scan) {
		s.PlaceBoundingBox(req.Pose.ToGeometry())
	})
	return nil
}

func (m *Module) handleFrame(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var frame messages.Frame
	if err := msg.DataTo(&frame); err != nil {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodeBadRequest, err)
		return nil
	}

	m.state.Do(func(s *scan.Scan) {
		s.UpdateOnEveryFrame(frame.ToScan())
	})
	return nil
}

func (m *Module) handleGesture(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.Gesture
	if err := msg.DataTo(&req); err != nil {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodeBadRequest, err)
		return nil
	}

	switch req.Phase {
	case messages.GestureBegin:
		var started bool
		m.state.Do(func(s *scan.Scan) {
			started = s.StartDrag(req.Kind, req.Point)
		})
		respond.Send(messages.MsgTypeGestureResponse, msg.RequestID, messages.GestureResponse{
			Started: started,
		})

	case messages.GestureMove:
		m.state.Do(func(s *scan.Scan) {
			s.UpdateDrag(req.Kind, req.Point)
		})

	case messages.GestureEnd:
		m.state.Do(func(s *scan.Scan) {
			s.EndDrag(req.Kind)
		})

	default:
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodeBadRequest,
			errors.New("unknown gesture phase").WithTag("phase", req.Phase))
	}
	return nil
}

func (m *Module) handleOrigin(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.OriginRequest
	if err := msg.DataTo(&req); err != nil {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodeBadRequest, err)
		return nil
	}

	var code messages.ErrorCode
	m.state.Do(func(s *scan.Scan) {
		origin := s.Origin()
		if origin == nil {
			code = messages.ErrorCodeBoundingBoxMissing
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
			code = messages.ErrorCodeBadRequest
		}
	})

	if code != "" {
		messages.RespondError(respond, msg.RequestID, code,
			errors.New("origin request failed").WithTag("action", req.Action))
	}
	return nil
}

func (m *Module) handleBoxQuery(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.BoxQueryRequest
	if err := msg.DataTo(&req); err != nil {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodeBadRequest, err)
		return nil
	}

	var res messages.BoxQueryResponse
	var missing bool
	m.state.View(func(s *scan.Scan) {
		box := s.BoundingBox()
		if box == nil {
			missing = true
			return
		}

		if req.Point != nil {
			res.Contains = box.Contains(*req.Point)
		}

		camera := s.Camera()
		if req.Screen != nil && camera != nil {
			if hits := box.HitTest(*camera, *req.Screen); len(hits) != 0 {
				res.IsHit = true
				res.Side = hits[0].Node.Side.String()
			}
		}
	})

	if missing {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodeBoundingBoxMissing,
			errors.New("no bounding box placed"))
		return nil
	}

	respond.Send(messages.MsgTypeBoxQueryResponse, msg.RequestID, res)
	return nil
}
