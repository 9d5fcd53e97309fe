package api

import (
	"context"
	"io"
	"net/http"

	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/archivelabs/lenny/internal/core/service"
	"github.com/archivelabs/lenny/internal/http/handler/webui"
	"github.com/archivelabs/lenny/internal/http/middleware/authz"
	"github.com/archivelabs/lenny/internal/readium"
)

// PublicationServer serves the Readium manifests and resources of the
// bookshelf objects.
type PublicationServer interface {
	Manifest(ctx context.Context, key string) (readium.Manifest, error)
	// Resource opens a publication resource. The caller must close the
	// returned reader.
	Resource(ctx context.Context, key string, path string) (io.ReadCloser, string, error)
	ReaderURL(manifestURL string) string
}

type Handler struct {
	catalog      *service.Catalog
	lending      *service.Lending
	librarian    *service.Librarian
	publications PublicationServer
	taskManager  port.TaskManager
	opts         *Options
	mux          *http.ServeMux
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func NewHandler(catalog *service.Catalog, lending *service.Lending, librarian *service.Librarian, publications PublicationServer, taskManager port.TaskManager, funcs ...OptionFunc) *Handler {
	opts := NewOptions(funcs...)

	h := &Handler{
		catalog:      catalog,
		lending:      lending,
		librarian:    librarian,
		publications: publications,
		taskManager:  taskManager,
		opts:         opts,
		mux:          http.NewServeMux(),
	}

	assertPatron := authz.Middleware(authz.PatronChallenge(catalog.URL(authDocumentPath)), authz.IsPatron)
	assertLibrarian := authz.Middleware(authz.LibrarianChallenge(), authz.IsLibrarian)

	h.mux.Handle("GET /{$}", webui.Landing())

	h.mux.HandleFunc("GET /items", h.handleListItems)
	h.mux.Handle("POST /upload", assertLibrarian(http.HandlerFunc(h.handleUpload)))
	h.mux.Handle("DELETE /items/{itemID}", assertLibrarian(http.HandlerFunc(h.handleDeleteItem)))

	h.mux.HandleFunc("GET /opds", h.handleFeed)
	h.mux.HandleFunc("GET /opds/{itemID}", h.handlePublication)

	h.mux.HandleFunc("GET /items/{itemID}/read", h.handleRead)
	h.mux.HandleFunc("GET /items/{itemID}/readium/manifest.json", h.handleManifest)
	h.mux.HandleFunc("GET /items/{itemID}/readium/{path...}", h.handleResource)

	h.mux.Handle("POST /items/{itemID}/borrow", assertPatron(http.HandlerFunc(h.handleBorrow)))
	h.mux.Handle("POST /items/{itemID}/return", assertPatron(http.HandlerFunc(h.handleReturn)))
	h.mux.Handle("GET /loans", assertPatron(http.HandlerFunc(h.handleListLoans)))
	h.mux.Handle("GET /profile", assertPatron(http.HandlerFunc(h.handleProfile)))
	h.mux.Handle("GET /shelf", assertPatron(http.HandlerFunc(h.handleShelf)))

	h.mux.Handle("GET /admin/tasks", assertLibrarian(http.HandlerFunc(h.listTasks)))
	h.mux.Handle("POST /admin/tasks/sync", assertLibrarian(http.HandlerFunc(h.handleScheduleSync)))
	h.mux.Handle("GET /admin/tasks/{taskID}", assertLibrarian(http.HandlerFunc(h.showTask)))

	for pattern, handler := range opts.Routes {
		h.mux.Handle(pattern, handler)
	}

	return h
}

var _ http.Handler = &Handler{}
