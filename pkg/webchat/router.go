package webchat

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/persona-chat/pkg/persona"
)

// Router wires the page, the JSON API and the websocket onto one mux.
type Router struct {
	svc      ChatService
	page     *Page
	pool     *ConnectionPool
	upgrader websocket.Upgrader
	logger   zerolog.Logger
	mux      *http.ServeMux
}

func NewRouter(svc ChatService, p *persona.Persona, opts ...RouterOption) (*Router, error) {
	if svc == nil {
		return nil, errors.New("chat service is nil")
	}
	page, err := NewPage(p)
	if err != nil {
		return nil, errors.Wrap(err, "could not build chat page")
	}
	r := &Router{
		svc:  svc,
		page: page,
		pool: NewConnectionPool(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger: log.With().Str("component", "webchat").Logger(),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.registerHTTPHandlers()
	return r, nil
}

func (r *Router) registerHTTPHandlers() {
	r.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(StaticFS()))))
	r.mux.HandleFunc("/", r.page.Handler(r.logger))
	r.mux.HandleFunc("/api/chat", NewChatHTTPHandler(r.svc, r.logger))
	r.mux.HandleFunc("/api/clear", NewClearHTTPHandler(r.svc, r.logger))
	r.mux.HandleFunc("/ws", NewWSHTTPHandler(r.svc, r.pool, r.upgrader, r.logger))
	r.mux.HandleFunc("/healthz", NewHealthHTTPHandler(r.pool))
}

func (r *Router) Handler() http.Handler { return r.mux }

func (r *Router) ConnectionPool() *ConnectionPool { return r.pool }

// BuildHTTPServer constructs an http.Server for the router. WriteTimeout covers a whole model
// call on the JSON API, so it stays above the model timeout.
func (r *Router) BuildHTTPServer(addr string, modelTimeout time.Duration) *http.Server {
	writeTimeout := 60 * time.Second
	if modelTimeout > 0 && modelTimeout+10*time.Second > writeTimeout {
		writeTimeout = modelTimeout + 10*time.Second
	}
	if modelTimeout == 0 {
		writeTimeout = 0
	}
	return &http.Server{
		Addr:              addr,
		Handler:           r.mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}
