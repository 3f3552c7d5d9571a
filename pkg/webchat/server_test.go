package webchat

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	r := newTestRouter(t, newOrchestrator(t, replyWith("ok")))
	srv, err := NewServer(r, r.BuildHTTPServer("127.0.0.1:0", time.Minute))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestBuildHTTPServer_Timeouts(t *testing.T) {
	r := newTestRouter(t, newOrchestrator(t, replyWith("ok")))

	s := r.BuildHTTPServer(":8080", 30*time.Second)
	require.Equal(t, ":8080", s.Addr)
	require.Equal(t, 5*time.Second, s.ReadHeaderTimeout)
	require.Equal(t, 60*time.Second, s.WriteTimeout)

	s = r.BuildHTTPServer(":8080", 2*time.Minute)
	require.Equal(t, 2*time.Minute+10*time.Second, s.WriteTimeout)

	s = r.BuildHTTPServer(":8080", 0)
	require.Zero(t, s.WriteTimeout)
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(nil, &http.Server{})
	require.Error(t, err)
}
