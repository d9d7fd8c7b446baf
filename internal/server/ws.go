package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"phonepick/internal/compare"
	"phonepick/internal/llm"
)

const (
	compareWSWriteWait = 10 * time.Second
	compareWSPongWait  = 60 * time.Second
	compareWSPingEvery = (compareWSPongWait * 9) / 10
)

var compareWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type compareWSInbound struct {
	Type    string           `json:"type"`
	Request *compare.Request `json:"request,omitempty"`
}

type compareWSOutbound struct {
	Type    string               `json:"type"`
	Attempt *compare.AttemptInfo `json:"attempt,omitempty"`
	Outcome *compare.Outcome     `json:"outcome,omitempty"`
	Code    string               `json:"code,omitempty"`
	Message string               `json:"message,omitempty"`
}

// handleCompareWS runs comparisons over a websocket, streaming one frame per
// backend attempt so the client can show progress during a slow fallback.
func (h *Handler) handleCompareWS(w http.ResponseWriter, r *http.Request) {
	conn, err := compareWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(compareWSPongWait)); err != nil {
		h.log.Warn("compare ws set read deadline failed", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(compareWSPongWait))
	})

	writeCh := make(chan compareWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(compareWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(compareWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(compareWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// One comparison at a time per connection; the channel doubles as the
	// in-flight guard.
	running := make(chan struct{}, 1)

	for {
		var in compareWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushCompareWS(writeCh, compareWSOutbound{Type: "pong"})
		case "compare":
			if in.Request == nil {
				pushCompareWS(writeCh, compareWSOutbound{
					Type:    "error",
					Code:    "bad_request",
					Message: "request is required",
				})
				continue
			}
			select {
			case running <- struct{}{}:
			default:
				pushCompareWS(writeCh, compareWSOutbound{
					Type:    "error",
					Code:    "busy",
					Message: "a comparison is already running on this connection",
				})
				continue
			}
			pushCompareWS(writeCh, compareWSOutbound{Type: "accepted"})
			go func(req compare.Request) {
				defer func() { <-running }()
				h.runCompareWS(ctx, writeCh, req)
			}(*in.Request)
		default:
			pushCompareWS(writeCh, compareWSOutbound{
				Type:    "error",
				Code:    "bad_request",
				Message: "unsupported type: " + in.Type,
			})
		}
	}
}

func (h *Handler) runCompareWS(ctx context.Context, writeCh chan compareWSOutbound, req compare.Request) {
	ctx = llm.WithObserver(ctx, func(a llm.Attempt) {
		info := compare.AttemptInfoFrom(a)
		pushCompareWS(writeCh, compareWSOutbound{Type: "attempt", Attempt: &info})
	})
	out, err := h.compare.Compare(ctx, req)
	if err != nil {
		_, code := errorStatus(err)
		pushCompareWS(writeCh, compareWSOutbound{
			Type:    "error",
			Code:    code,
			Message: err.Error(),
		})
		return
	}
	pushCompareWS(writeCh, compareWSOutbound{Type: "result", Outcome: out})
}

// pushCompareWS never blocks: when the buffer is full the oldest frame is
// dropped, keeping progress frames flowing to slow clients.
func pushCompareWS(writeCh chan compareWSOutbound, out compareWSOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
