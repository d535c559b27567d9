package websocket

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/stretchr/testify/require"
)

func TestHandlerWithLogsIncCounter(t *testing.T) {
	h := HandlerWithLogs(&RealtimeHandler{}, time.Second).(*handlerWithLogs)
	defer h.Close()

	h.incCounter(h.inbound, "frame")
	h.incCounter(h.outbound, "scan_snapshot")
	require.Equal(t, 1, h.inbound["frame"])
	require.Equal(t, 1, h.outbound["scan_snapshot"])
	require.Zero(t, h.inbound["scan_snapshot"])
}

func TestHandlerWithLogsLogSummary(t *testing.T) {
	testClientID := "test-client"
	h := HandlerWithLogs(&RealtimeHandler{clientID: testClientID}, time.Second).(*handlerWithLogs)
	defer h.Close()

	h.incCounter(h.inbound, "frame")
	h.incCounter(h.inbound, "frame")
	h.incCounter(h.inbound, "gesture")
	h.incCounter(h.outbound, "box_placed")

	var b strings.Builder
	logs.SetInlineEncoder()
	logs.SetLogger(func(e logs.Entry) {
		fmt.Fprint(&b, e)
	})

	h.logSummary()
	require.Empty(t, h.inbound)
	require.Empty(t, h.outbound)

	logString := b.String()
	clientIDTag := fmt.Sprintf(`"%s":"%s"`, logs.ClientIDTag, testClientID)
	require.Contains(t, logString, `"frame":2`)
	require.Contains(t, logString, `"gesture":1`)
	require.Contains(t, logString, `"box_placed":1`)
	require.Contains(t, logString, clientIDTag)
	t.Log(logString)

	t.Run("empty summary is not logged", func(t *testing.T) {
		b.Reset()
		h.logSummary()
		require.Empty(t, b.String())
	})
}

func TestHandlerWithLogsStartSummaryWorker(t *testing.T) {
	var wg sync.WaitGroup
	var once sync.Once
	var mutex sync.Mutex

	var b strings.Builder
	logs.SetInlineEncoder()
	logs.SetLogger(func(e logs.Entry) {
		mutex.Lock()
		fmt.Fprint(&b, e)
		mutex.Unlock()
		once.Do(wg.Done)
	})

	wg.Add(1)
	h := HandlerWithLogs(&RealtimeHandler{}, time.Millisecond).(*handlerWithLogs)
	defer h.Close()

	// No summary is logged until a counter is incremented.
	h.incCounter(h.inbound, "ping")

	wg.Wait()

	mutex.Lock()
	out := b.String()
	mutex.Unlock()
	require.NotEmpty(t, out)
	t.Log(out)
}
