package testrun

import (
	"context"
	"time"

	"github.com/aukilabs/boxscan/messages"
	"github.com/aukilabs/boxscan/models"
	"github.com/aukilabs/boxscan/scan"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Module measures how fast the device of a participant detects the scanned
// object. Each participant runs its own test.
type Module struct {
	// The default time without detection after which the participant is
	// told that nothing was detected.
	NoDetectionTimeout time.Duration

	currentSession     *models.Session
	currentParticipant *models.Participant
	run                *scan.TestRun
}

func (m *Module) Name() string {
	return "testrun"
}

func (m *Module) Init(s *models.Session, p *models.Participant) {
	m.currentSession = s
	m.currentParticipant = p
}

func (m *Module) HandleMsg(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	switch msg.Type {
	case messages.MsgTypeTestRunRequest:
		return m.handleTestRun(ctx, respond, msg)

	case messages.MsgTypeDetectionResult:
		return m.handleDetectionResult(ctx, respond, msg)

	default:
		return messages.ErrModuleMsgSkip
	}
}

func (m *Module) HandleDisconnect() {
	m.stop()
	m.currentSession = nil
	m.currentParticipant = nil
}

func (m *Module) handleTestRun(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	if m.currentParticipant == nil {
		return errors.New("session not joined").
			WithType(messages.ErrTypeSessionNotJoined).
			WithTag("msg_type", msg.Type)
	}

	var req messages.TestRunRequest
	if err := msg.DataTo(&req); err != nil {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodeBadRequest, err)
		return nil
	}

	switch req.Action {
	case messages.TestRunStart:
		m.stop()

		timeout := m.NoDetectionTimeout
		if req.NoDetectionTimeout > 0 {
			timeout = messages.Milliseconds(req.NoDetectionTimeout)
		}

		participantID := m.currentParticipant.ID
		m.run = &scan.TestRun{
			NoDetectionTimeout: timeout,
			OnNoDetection: func() {
				logs.WithTag("participant_id", participantID).
					Debug("no object detected during test run")
				respond.Send(messages.MsgTypeTestRunNoDetection, 0, nil)
			},
		}
		m.run.Start()
		respond.Send(messages.MsgTypeTestRunStatistics, msg.RequestID,
			messages.TestRunStatisticsFrom(m.run.Statistics()))

	case messages.TestRunStop:
		if m.run == nil {
			messages.RespondError(respond, msg.RequestID, messages.ErrorCodeNotFound,
				errors.New("no test run started"))
			return nil
		}

		stats := m.run.Statistics()
		m.stop()
		respond.Send(messages.MsgTypeTestRunStatistics, msg.RequestID,
			messages.TestRunStatisticsFrom(stats))

	default:
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodeBadRequest,
			errors.New("unknown test run action").WithTag("action", req.Action))
	}
	return nil
}

func (m *Module) handleDetectionResult(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	if m.run == nil {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodeNotFound,
			errors.New("no test run started"))
		return nil
	}

	stats := m.run.SuccessfulDetection()
	respond.Send(messages.MsgTypeTestRunStatistics, msg.RequestID,
		messages.TestRunStatisticsFrom(stats))
	return nil
}

func (m *Module) stop() {
	if m.run != nil {
		m.run.Close()
		m.run = nil
	}
}
