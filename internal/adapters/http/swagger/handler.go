// Package swagger serves the OpenAPI document and a ReDoc page for it.
package swagger

import (
	"context"
	"fmt"
	"html"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// redocScript is the ReDoc bundle the docs page loads.
const redocScript = "https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"

// Options holds the routes the docs are served under.
type Options struct {
	DocsPath string
	SpecPath string
	Title    string
}

// Option applies a configuration option to Options.
type Option func(*Options)

// WithDocsPath sets the route of the ReDoc page.
func WithDocsPath(path string) Option {
	return func(o *Options) {
		if path != "" {
			o.DocsPath = path
		}
	}
}

// WithSpecPath sets the route of the OpenAPI document.
func WithSpecPath(path string) Option {
	return func(o *Options) {
		if path != "" {
			o.SpecPath = path
		}
	}
}

// WithTitle sets the page title.
func WithTitle(title string) Option {
	return func(o *Options) {
		if title != "" {
			o.Title = title
		}
	}
}

// Register attaches the ReDoc page and the OpenAPI spec routes to r.
// Routes with default options:
//
//	GET /docs                 -> ReDoc HTML
//	GET /api/v1/openapi.yaml  -> Embedded OpenAPI spec
func Register(_ context.Context, r chi.Router, opts ...Option) {
	if r == nil {
		panic("router is nil")
	}
	o := Options{DocsPath: "/docs", SpecPath: "/api/v1/openapi.yaml", Title: "API Docs"}
	for _, opt := range opts {
		opt(&o)
	}

	page := []byte(indexHTML(o))
	r.Get(o.DocsPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})

	r.Get(o.SpecPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})
}

// indexHTML is a minimal page that loads ReDoc and points it at the spec.
func indexHTML(o Options) string {
	return fmt.Sprintf(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>%s - ReDoc</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc spec-url="%s"></redoc>
    <script src="%s"></script>
  </body>
</html>`, html.EscapeString(o.Title), html.EscapeString(o.SpecPath), redocScript)
}
