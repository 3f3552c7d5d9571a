package webchat

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	wsReadLimit  = maxBodyBytes
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsWriteWait  = 10 * time.Second
)

// NewWSHTTPHandler upgrades to a websocket and answers each client frame in arrival order.
// A new frame is only read once the previous answer has been written.
func NewWSHTTPHandler(svc ChatService, pool *ConnectionPool, upgrader websocket.Upgrader, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if svc == nil {
			http.Error(w, "chat service not initialized", http.StatusServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			logger.Debug().Err(err).Msg("websocket upgrade failed")
			return
		}
		pool.Add(conn)
		defer pool.Remove(conn)

		logger := logger.With().Str("remote", req.RemoteAddr).Logger()
		logger.Debug().Msg("websocket connected")

		conn.SetReadLimit(wsReadLimit)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})

		ctx, cancel := context.WithCancel(req.Context())
		defer cancel()
		go pingLoop(ctx, conn)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug().Err(err).Msg("websocket read failed")
				}
				return
			}
			// the client is alive; a long model call must not trip the read deadline
			_ = conn.SetReadDeadline(time.Time{})

			var resp ServerFrame
			var frame ClientFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				resp = ServerFrame{Type: FrameError, Error: "invalid frame", Kind: ErrorKindBadRequest}
			} else {
				resp = handleFrame(ctx, svc, frame, logger)
			}

			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(resp); err != nil {
				logger.Debug().Err(err).Msg("websocket write failed")
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		}
	}
}

func handleFrame(ctx context.Context, svc ChatService, frame ClientFrame, logger zerolog.Logger) ServerFrame {
	switch frame.Type {
	case FrameSubmit:
		input, out, err := svc.Submit(ctx, frame.Input, frame.Transcript)
		if err != nil {
			_, kind, msg := classifyError(err)
			logger.Warn().Err(err).Str("kind", kind).Msg("chat submission failed")
			return ServerFrame{Type: FrameError, Input: input, Transcript: out, Error: msg, Kind: kind}
		}
		return ServerFrame{Type: FrameTranscript, Input: input, Transcript: out}
	case FrameClear:
		input, out := svc.Reset()
		return ServerFrame{Type: FrameTranscript, Input: input, Transcript: out}
	default:
		return ServerFrame{
			Type:       FrameError,
			Input:      frame.Input,
			Transcript: frame.Transcript,
			Error:      "unknown frame type " + frame.Type,
			Kind:       ErrorKindBadRequest,
		}
	}
}

// pingLoop keeps idle connections alive. WriteControl is safe alongside the handler's writes.
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
