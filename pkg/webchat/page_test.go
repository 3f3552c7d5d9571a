package webchat

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/persona-chat/pkg/persona"
)

func TestRenderMarkdown(t *testing.T) {
	html, err := RenderMarkdown("# Chat with Einstein!\nHe's smart, and he's mean.")
	require.NoError(t, err)
	require.Contains(t, string(html), "<h1>Chat with Einstein!</h1>")
	require.Contains(t, string(html), "<p>He")
}

func TestRenderMarkdown_DropsRawHTML(t *testing.T) {
	html, err := RenderMarkdown("<script>alert(1)</script>\n\nhello")
	require.NoError(t, err)
	require.NotContains(t, string(html), "<script>")
	require.Contains(t, string(html), "hello")
}

func TestIndexPage(t *testing.T) {
	r := newTestRouter(t, newOrchestrator(t, replyWith("unused")))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	require.Contains(t, body, "<title>Chat with Mean Einstein</title>")
	require.Contains(t, body, "<h1>Chat with Einstein!</h1>")
	require.Contains(t, body, `placeholder="Ask Einstein Anything"`)
	require.Contains(t, body, "Clear Chat")
	require.Contains(t, body, "/static/app.js")
}

func TestIndexPage_EscapesPersonaFields(t *testing.T) {
	p := persona.Default()
	p.Title = `<b>"x"</b>`
	p.Placeholder = `"><script>`
	page, err := NewPage(p)
	require.NoError(t, err)

	body := string(page.html)
	require.NotContains(t, body, "<b>")
	require.NotContains(t, body, `"><script>`)
}

func TestUnknownPathIs404(t *testing.T) {
	r := newTestRouter(t, newOrchestrator(t, replyWith("unused")))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticAssets(t *testing.T) {
	r := newTestRouter(t, newOrchestrator(t, replyWith("unused")))
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	for _, path := range []string{"/static/app.js", "/static/style.css"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		require.NotEmpty(t, b)
	}
}

func TestNewPage_InvalidPersona(t *testing.T) {
	_, err := NewPage(&persona.Persona{Name: "x"})
	require.Error(t, err)
}
