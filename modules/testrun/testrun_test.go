package testrun

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/boxscan/messages"
	"github.com/aukilabs/boxscan/models"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

type sentMsg struct {
	Type      messages.MsgType
	RequestID uint32
	Data      any
}

type testResponseSender struct {
	mutex     sync.Mutex
	responses []sentMsg
}

func (r *testResponseSender) Send(t messages.MsgType, requestID uint32, data any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.responses = append(r.responses, sentMsg{Type: t, RequestID: requestID, Data: data})
}

func (r *testResponseSender) SendMsg(msg messages.Msg) {}

func (r *testResponseSender) last(t *testing.T) sentMsg {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	require.NotEmpty(t, r.responses)
	return r.responses[len(r.responses)-1]
}

func (r *testResponseSender) count(msgType messages.MsgType) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var n int
	for _, res := range r.responses {
		if res.Type == msgType {
			n++
		}
	}
	return n
}

func newTestModule() *Module {
	m := &Module{NoDetectionTimeout: time.Hour}
	m.Init(models.NewSession(1, time.Hour), &models.Participant{ID: 1})
	return m
}

func handle(t *testing.T, m *Module, respond messages.ResponseSender, msgType messages.MsgType, requestID uint32, data any) {
	msg, err := messages.NewMsg(msgType, requestID, data)
	require.NoError(t, err)
	require.NoError(t, m.HandleMsg(context.Background(), respond, msg))
}

func TestModuleName(t *testing.T) {
	require.Equal(t, "testrun", (&Module{}).Name())
}

func TestModuleTestRun(t *testing.T) {
	m := newTestModule()
	defer m.HandleDisconnect()
	respond := &testResponseSender{}

	t.Run("detection without test run", func(t *testing.T) {
		handle(t, m, respond, messages.MsgTypeDetectionResult, 1, nil)

		res := respond.last(t)
		require.Equal(t, messages.MsgTypeErrorResponse, res.Type)
		require.Equal(t, messages.ErrorCodeNotFound, res.Data.(messages.ErrorResponse).Code)
	})

	t.Run("start", func(t *testing.T) {
		handle(t, m, respond, messages.MsgTypeTestRunRequest, 2, messages.TestRunRequest{
			Action: messages.TestRunStart,
		})

		res := respond.last(t)
		require.Equal(t, messages.MsgTypeTestRunStatistics, res.Type)
		require.Equal(t, uint32(2), res.RequestID)
		require.Zero(t, res.Data.(messages.TestRunStatistics).Detections)
	})

	t.Run("detections", func(t *testing.T) {
		handle(t, m, respond, messages.MsgTypeDetectionResult, 3, nil)
		handle(t, m, respond, messages.MsgTypeDetectionResult, 4, nil)

		res := respond.last(t)
		require.Equal(t, messages.MsgTypeTestRunStatistics, res.Type)
		require.Equal(t, uint32(4), res.RequestID)

		stats := res.Data.(messages.TestRunStatistics)
		require.Equal(t, 2, stats.Detections)
		require.GreaterOrEqual(t, stats.ResultDisplayDuration, int64(200))
		require.Contains(t, stats.Summary, "Detected after:")
	})

	t.Run("stop", func(t *testing.T) {
		handle(t, m, respond, messages.MsgTypeTestRunRequest, 5, messages.TestRunRequest{
			Action: messages.TestRunStop,
		})
		require.Equal(t, 2, respond.last(t).Data.(messages.TestRunStatistics).Detections)
		require.Nil(t, m.run)

		handle(t, m, respond, messages.MsgTypeTestRunRequest, 6, messages.TestRunRequest{
			Action: messages.TestRunStop,
		})
		require.Equal(t, messages.MsgTypeErrorResponse, respond.last(t).Type)
	})

	t.Run("unknown action", func(t *testing.T) {
		handle(t, m, respond, messages.MsgTypeTestRunRequest, 7, messages.TestRunRequest{
			Action: "pause",
		})
		require.Equal(t, messages.ErrorCodeBadRequest, respond.last(t).Data.(messages.ErrorResponse).Code)
	})
}

func TestModuleNoDetection(t *testing.T) {
	m := newTestModule()
	respond := &testResponseSender{}

	handle(t, m, respond, messages.MsgTypeTestRunRequest, 1, messages.TestRunRequest{
		Action:             messages.TestRunStart,
		NoDetectionTimeout: 10,
	})

	require.Eventually(t, func() bool {
		return respond.count(messages.MsgTypeTestRunNoDetection) == 1
	}, time.Second, time.Millisecond*5)

	m.HandleDisconnect()
	require.Nil(t, m.run)
}

func TestModuleHandleMsgSkip(t *testing.T) {
	m := newTestModule()

	msg, err := messages.NewMsg(messages.MsgTypeFrame, 0, nil)
	require.NoError(t, err)
	err = m.HandleMsg(context.Background(), &testResponseSender{}, msg)
	require.True(t, errors.IsType(err, messages.ErrTypeMsgSkip))
}
