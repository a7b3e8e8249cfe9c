// Package site serves the welcome page at the root path.
package site

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Error constants
var (
	ErrRender = errors.New("welcome page render failed")
)

//go:embed static/index.html
var staticFS embed.FS

var indexTemplate = template.Must(template.ParseFS(staticFS, "static/index.html"))

// Page holds the values rendered into the welcome page.
type Page struct {
	Name         string
	ModelVersion string
	DocsPath     string
}

// Option applies a configuration option to the Page.
type Option func(*Page)

// WithName sets the project name shown on the page.
func WithName(name string) Option {
	return func(p *Page) {
		if name != "" {
			p.Name = name
		}
	}
}

// WithModelVersion sets the model version shown on the page.
func WithModelVersion(version string) Option {
	return func(p *Page) {
		if version != "" {
			p.ModelVersion = version
		}
	}
}

// WithDocsPath sets the link target for the API docs.
func WithDocsPath(path string) Option {
	return func(p *Page) {
		if path != "" {
			p.DocsPath = path
		}
	}
}

// Render executes the welcome page template.
func Render(p Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return buf.Bytes(), nil
}

// Handler serves the rendered welcome page.
type Handler struct {
	body []byte
}

// New renders the welcome page once.
func New(opts ...Option) (*Handler, error) {
	p := Page{Name: "Predicting customer churn API", ModelVersion: "unknown", DocsPath: "/docs"}
	for _, opt := range opts {
		opt(&p)
	}
	body, err := Render(p)
	if err != nil {
		return nil, err
	}
	return &Handler{body: body}, nil
}

// Register attaches GET / to r.
func (h *Handler) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.Get("/", h.ServeHTTP)
}

// ServeHTTP writes the welcome page.
func (h *Handler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.body)
}
