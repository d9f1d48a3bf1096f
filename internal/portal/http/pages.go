package http

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/aussiebroadwan/garage/pkg/httpx"
	"github.com/aussiebroadwan/garage/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// renderPage writes an uncached HTML page.
func renderPage(w http.ResponseWriter, r *http.Request, code int, name string, data any) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)

	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		slogx.FromContext(r.Context()).Error("failed to render page", "page", name, "err", err)
	}
}

type errorView struct {
	Title   string
	Message string
}

func renderError(w http.ResponseWriter, r *http.Request, code int, message string) {
	renderPage(w, r, code, "error.html", errorView{
		Title:   http.StatusText(code),
		Message: message,
	})
}
