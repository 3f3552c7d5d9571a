package webchat

import (
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// RouterOption configures optional dependencies for a Router.
type RouterOption func(*Router) error

func WithWebSocketUpgrader(u websocket.Upgrader) RouterOption {
	return func(r *Router) error {
		r.upgrader = u
		return nil
	}
}

func WithLogger(logger zerolog.Logger) RouterOption {
	return func(r *Router) error {
		r.logger = logger
		return nil
	}
}

func WithConnectionPool(pool *ConnectionPool) RouterOption {
	return func(r *Router) error {
		if pool == nil {
			return errors.New("connection pool is nil")
		}
		r.pool = pool
		return nil
	}
}
