package webchat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionPool tracks the open websocket connections so shutdown can close them.
// http.Server.Shutdown does not touch hijacked connections.
type ConnectionPool struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewConnectionPool() *ConnectionPool {
	return &ConnectionPool{conns: map[*websocket.Conn]struct{}{}}
}

func (cp *ConnectionPool) Add(conn *websocket.Conn) {
	if cp == nil || conn == nil {
		return
	}
	cp.mu.Lock()
	cp.conns[conn] = struct{}{}
	cp.mu.Unlock()
}

func (cp *ConnectionPool) Remove(conn *websocket.Conn) {
	if cp != nil && conn != nil {
		cp.mu.Lock()
		delete(cp.conns, conn)
		cp.mu.Unlock()
	}
	_ = closeConn(conn)
}

func (cp *ConnectionPool) Count() int {
	if cp == nil {
		return 0
	}
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return len(cp.conns)
}

// CloseAll sends a going-away close frame to every connection and drops them.
func (cp *ConnectionPool) CloseAll() {
	if cp == nil {
		return
	}
	cp.mu.Lock()
	defer cp.mu.Unlock()
	deadline := time.Now().Add(time.Second)
	for conn := range cp.conns {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
			log.Debug().Err(err).Str("component", "webchat").Msg("ws close frame failed")
		}
		_ = closeConn(conn)
		delete(cp.conns, conn)
	}
}

func closeConn(conn *websocket.Conn) error {
	if conn == nil {
		return nil
	}
	return conn.Close()
}
