package webui

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/a-h/templ"
	"github.com/archivelabs/lenny/internal/http/handler/webui/component"
)

//go:embed assets/*
var assetsFS embed.FS

type Handler struct {
	mux *http.ServeMux
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Landing serves the landing page.
func Landing() http.Handler {
	return templ.Handler(component.Landing())
}

// Assets serves the embedded static files.
func Assets() http.Handler {
	assets, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic(err)
	}

	return http.StripPrefix("/assets", http.FileServerFS(assets))
}

func NewHandler() *Handler {
	h := &Handler{
		mux: http.NewServeMux(),
	}

	h.mux.Handle("GET /{$}", Landing())
	h.mux.Handle("GET /assets/", Assets())

	return h
}

var _ http.Handler = &Handler{}
