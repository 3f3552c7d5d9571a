package webchat

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/go-go-golems/persona-chat/pkg/persona"
)

//go:embed static
var staticFS embed.FS

// StaticFS returns the embedded page assets rooted at static/.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

type pageData struct {
	Title       string
	Header      template.HTML
	Name        string
	Avatar      string
	Placeholder string
}

// Page is the pre-rendered chat page for one persona.
type Page struct {
	html []byte
}

// RenderMarkdown converts persona header markdown to HTML. Raw HTML in the source is
// dropped by goldmark's default renderer.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", errors.Wrap(err, "could not render markdown")
	}
	// #nosec G203 -- goldmark escapes raw HTML unless WithUnsafe is set.
	return template.HTML(buf.String()), nil
}

func NewPage(p *persona.Persona) (*Page, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	tmpl, err := template.ParseFS(staticFS, "static/index.html.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, "could not parse page template")
	}
	header, err := RenderMarkdown(p.Header)
	if err != nil {
		return nil, err
	}

	title := p.Title
	if title == "" {
		title = p.DisplayName()
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, pageData{
		Title:       title,
		Header:      header,
		Name:        p.DisplayName(),
		Avatar:      p.Avatar,
		Placeholder: p.Placeholder,
	}); err != nil {
		return nil, errors.Wrap(err, "could not render page")
	}
	return &Page{html: buf.Bytes()}, nil
}

func (pg *Page) Handler(logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write(pg.html); err != nil {
			logger.Warn().Err(err).Msg("page write failed")
		}
	}
}
