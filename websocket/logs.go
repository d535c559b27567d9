package websocket

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aukilabs/boxscan/messages"
	"github.com/aukilabs/hagall-common/errors"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/hagall-common/logs"
	"golang.org/x/net/websocket"
)

// HandlerWithLogs decorates a handler with connection logs and a periodic
// summary of the received messages.
func HandlerWithLogs(h Handler, summaryInterval time.Duration) Handler {
	ctx, cancel := context.WithCancel(context.Background())

	handler := &handlerWithLogs{
		Handler:            h,
		summaryInterval:    summaryInterval,
		closeSummaryWorker: cancel,
		inbound:            make(map[string]int),
		outbound:           make(map[string]int),
	}

	go handler.startSummaryWorker(ctx)
	return handler
}

type handlerWithLogs struct {
	Handler

	originalRequest *http.Request
	appKey          string

	summaryInterval    time.Duration
	closeSummaryWorker func()
	counterMutex       sync.Mutex
	inbound            map[string]int
	outbound           map[string]int

	sessionID     string
	sessionUUID   string
	participantID uint32
}

func (h *handlerWithLogs) HandleConnect(conn *websocket.Conn) {
	h.Handler.HandleConnect(conn)

	req := conn.Request()
	h.originalRequest = req
	h.appKey = httpcmn.GetAppKeyFromHagallUserToken(httpcmn.GetUserTokenFromHTTPRequest(req))

	logs.WithClientID(h.GetClientID()).
		WithTag(logs.AppKeyTag, h.appKey).
		Info("new client is connected")
}

func (h *handlerWithLogs) HandleSessionJoin(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	if err := h.Handler.HandleSessionJoin(ctx, respond, msg); err != nil {
		return err
	}

	headers := httpHeaders{
		UserAgent:               h.originalRequest.UserAgent(),
		XForwardedFor:           h.originalRequest.Header.Get(httpcmn.XForwardedForHeaderKey),
		CloudFrontCountryName:   h.originalRequest.Header.Get(httpcmn.CloudFrontCountryNameHeaderKey),
		CloudFrontViewerAddress: h.originalRequest.Header.Get(httpcmn.CloudFrontViewerAddressHeaderKey),
	}

	if h.CurrentParticipant() == nil {
		var req messages.SessionJoinRequest
		// Decoding already succeeded in h.Handler.HandleSessionJoin when the
		// failure is not a bad request.
		msg.DataTo(&req)

		logs.WithClientID(h.GetClientID()).
			WithTag(logs.AppKeyTag, h.appKey).
			WithTag(logs.SessionIDTag, req.SessionID).
			WithTag("request_id", msg.RequestID).
			WithTag("http_headers", headers).
			Info("participant failed to join a session")
		return nil
	}

	h.sessionID = h.GetSessions().GlobalSessionID(h.CurrentSession().ID)
	h.sessionUUID = h.CurrentSession().SessionUUID
	h.participantID = h.CurrentParticipant().ID

	logs.WithClientID(h.GetClientID()).
		WithTag(logs.AppKeyTag, h.appKey).
		WithTag(logs.SessionIDTag, h.sessionID).
		WithTag("session_uuid", h.sessionUUID).
		WithTag(logs.ParticipantIDTag, h.participantID).
		WithTag("http_headers", headers).
		Info("participant joined a session")
	return nil
}

type httpHeaders struct {
	UserAgent               string `json:"user_agent,omitempty"`
	XForwardedFor           string `json:"x_forwarded_for,omitempty"`
	CloudFrontCountryName   string `json:"cloudfront_viewer_country,omitempty"`
	CloudFrontViewerAddress string `json:"cloudfront_viewer_address,omitempty"`
}

func (h *handlerWithLogs) HandleDisconnect(err error) {
	h.Handler.HandleDisconnect(err)
	logs.WithClientID(h.GetClientID()).
		WithTag(logs.AppKeyTag, h.appKey).
		WithTag(logs.SessionIDTag, h.sessionID).
		WithTag(logs.ParticipantIDTag, h.participantID).
		Info("client disconnected")
}

func (h *handlerWithLogs) Receiver() messages.Receiver {
	receive := h.Handler.Receiver()

	return func() (messages.Msg, int, error) {
		msg, n, err := receive()
		switch {
		case err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed):
			logs.WithClientID(h.GetClientID()).
				WithTag(logs.AppKeyTag, h.appKey).
				WithTag(logs.SessionIDTag, h.sessionID).
				WithTag("session_uuid", h.sessionUUID).
				WithTag(logs.ParticipantIDTag, h.participantID).
				Error(errors.New("receiving message failed").Wrap(err))

		case err == nil:
			h.incCounter(h.inbound, msg.TypeString())

			// Frames are only counted, they arrive at the tracking rate.
			if msg.Type == messages.MsgTypeFrame {
				break
			}

			logs.WithClientID(h.GetClientID()).
				WithTag(logs.AppKeyTag, h.appKey).
				WithTag(logs.SessionIDTag, h.sessionID).
				WithTag("session_uuid", h.sessionUUID).
				WithTag(logs.ParticipantIDTag, h.participantID).
				WithTag("msg_type", msg.TypeString()).
				WithTag("request_id", msg.RequestID).
				Debug("message received")
		}
		return msg, n, err
	}
}

func (h *handlerWithLogs) Sender() messages.Sender {
	sender := h.Handler.Sender()

	return func(msg messages.Msg) (int, error) {
		msgType := msg.TypeString()

		n, err := sender(msg)
		switch {
		case err != nil && !errors.Is(err, net.ErrClosed):
			logs.WithClientID(h.GetClientID()).
				WithTag(logs.AppKeyTag, h.appKey).
				WithTag(logs.SessionIDTag, h.sessionID).
				WithTag("session_uuid", h.sessionUUID).
				WithTag(logs.ParticipantIDTag, h.participantID).
				WithTag("msg_type", msgType).
				Error(errors.New("sending message failed").Wrap(err))

		case err == nil:
			h.incCounter(h.outbound, msgType)
		}
		return n, err
	}
}

func (h *handlerWithLogs) Close() {
	h.Handler.Close()
	h.closeSummaryWorker()
	h.logSummary()
}

func (h *handlerWithLogs) startSummaryWorker(ctx context.Context) {
	ticker := time.NewTicker(h.summaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			h.logSummary()
		}
	}
}

func (h *handlerWithLogs) incCounter(counter map[string]int, msgType string) {
	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()

	counter[msgType]++
}

// logSummary logs the messages exchanged since the last summary and resets
// the counters.
func (h *handlerWithLogs) logSummary() {
	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()

	if len(h.inbound) == 0 && len(h.outbound) == 0 {
		return
	}

	inbound := make(map[string]int, len(h.inbound))
	for k, v := range h.inbound {
		inbound[k] = v
		delete(h.inbound, k)
	}

	outbound := make(map[string]int, len(h.outbound))
	for k, v := range h.outbound {
		outbound[k] = v
		delete(h.outbound, k)
	}

	logs.WithClientID(h.GetClientID()).
		WithTag(logs.AppKeyTag, h.appKey).
		WithTag(logs.ParticipantIDTag, h.participantID).
		WithTag(logs.SessionIDTag, h.sessionID).
		WithTag("session_uuid", h.sessionUUID).
		WithTag("time_interval", h.summaryInterval).
		WithTag("inbound", inbound).
		WithTag("outbound", outbound).
		Info("message summary")
}
