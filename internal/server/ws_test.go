package server

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phonepick/internal/catalog"
	"phonepick/internal/compare"
	"phonepick/internal/llm"
	"phonepick/internal/llmclient"
)

func dialCompareWS(t *testing.T, ts *testStack) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/api/v1/compare/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) compareWSOutbound {
	t.Helper()
	var out compareWSOutbound
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func TestCompareWSStreamsAttempts(t *testing.T) {
	phones := testPhones()
	selection := []catalog.Phone{phones[0], phones[1]}
	first := llmclient.NewFake("a", llmclient.FakeResponse{Text: "nothing structured here"})
	second := llmclient.NewFake("b", llmclient.FakeResponse{Text: scriptedReply(t, selection, 0)})
	ts := newTestStack(t, first, second)

	conn := dialCompareWS(t, ts)
	require.NoError(t, conn.WriteJSON(compareWSInbound{
		Type: "compare",
		Request: &compare.Request{
			PhoneIDs:   []string{"pixel-7a", "nothing-phone-2a"},
			Priorities: []string{"battery"},
		},
	}))

	frame := readFrame(t, conn)
	assert.Equal(t, "accepted", frame.Type)

	frame = readFrame(t, conn)
	require.Equal(t, "attempt", frame.Type)
	require.NotNil(t, frame.Attempt)
	assert.Equal(t, "fake:a", frame.Attempt.Backend)
	assert.Equal(t, llm.StageExtract, frame.Attempt.Stage)

	frame = readFrame(t, conn)
	require.Equal(t, "attempt", frame.Type)
	require.NotNil(t, frame.Attempt)
	assert.Equal(t, "fake:b", frame.Attempt.Backend)
	assert.Equal(t, llm.StageOK, frame.Attempt.Stage)

	frame = readFrame(t, conn)
	require.Equal(t, "result", frame.Type)
	require.NotNil(t, frame.Outcome)
	assert.Equal(t, "pixel-7a", frame.Outcome.Result.SelectedPhone.PhoneID)
}

func TestCompareWSReportsErrors(t *testing.T) {
	ts := newTestStack(t, llmclient.NewFake("a"))

	conn := dialCompareWS(t, ts)
	require.NoError(t, conn.WriteJSON(compareWSInbound{
		Type: "compare",
		Request: &compare.Request{
			Budget:     20000,
			Priorities: []string{"vibes"},
		},
	}))

	frame := readFrame(t, conn)
	assert.Equal(t, "accepted", frame.Type)

	frame = readFrame(t, conn)
	require.Equal(t, "error", frame.Type)
	assert.Equal(t, "bad_request", frame.Code)
	assert.Contains(t, frame.Message, "vibes")
}

func TestCompareWSPingPong(t *testing.T) {
	ts := newTestStack(t)
	conn := dialCompareWS(t, ts)

	require.NoError(t, conn.WriteJSON(compareWSInbound{Type: "ping"}))
	frame := readFrame(t, conn)
	assert.Equal(t, "pong", frame.Type)
}

func TestCompareWSRejectsMissingRequest(t *testing.T) {
	ts := newTestStack(t)
	conn := dialCompareWS(t, ts)

	require.NoError(t, conn.WriteJSON(compareWSInbound{Type: "compare"}))
	frame := readFrame(t, conn)
	require.Equal(t, "error", frame.Type)
	assert.Equal(t, "bad_request", frame.Code)
}

func TestCompareWSRejectsUnknownType(t *testing.T) {
	ts := newTestStack(t)
	conn := dialCompareWS(t, ts)

	require.NoError(t, conn.WriteJSON(compareWSInbound{Type: "subscribe"}))
	frame := readFrame(t, conn)
	require.Equal(t, "error", frame.Type)
	assert.Contains(t, frame.Message, "subscribe")
}
