package webchat

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// Server drives the HTTP server lifecycle for a Router.
type Server struct {
	router  *Router
	httpSrv *http.Server
}

func NewServer(r *Router, httpSrv *http.Server) (*Server, error) {
	if r == nil {
		return nil, errors.New("router is nil")
	}
	if httpSrv == nil {
		return nil, errors.New("http server is nil")
	}
	return &Server{router: r, httpSrv: httpSrv}, nil
}

func (s *Server) HTTPServer() *http.Server { return s.httpSrv }

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return errors.Wrapf(err, "could not listen on %s", s.httpSrv.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully and closes the
// websocket connections.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if ctx == nil {
		return errors.New("ctx is nil")
	}
	logger := log.With().Str("component", "webchat").Logger()

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info().Msg("shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.router.ConnectionPool().CloseAll()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
			return err
		}
		logger.Info().Msg("server shutdown complete")
		return nil
	})

	eg.Go(func() error {
		logger.Info().Str("addr", ln.Addr().String()).Msg("starting persona chat server")
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server listen error")
			return err
		}
		return nil
	})

	return eg.Wait()
}
