package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/archivelabs/lenny/internal/readium"
	"github.com/pkg/errors"
)

func TestManifestPublicationServerUnavailable(t *testing.T) {
	unreachable := httptest.NewServer(http.NotFoundHandler())
	unreachableURL := unreachable.URL
	unreachable.Close()

	baseURL, err := url.Parse(unreachableURL)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	var logs bytes.Buffer

	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	publications := readium.NewClient(baseURL, "http://reader.test/read", "bookshelf", time.Second)
	env := newTestEnvWithPublications(t, publications)

	res := env.Do(t, http.MethodPost, "/upload", env.UploadBody(t, "OL123M", false, "book.pdf", testPDF), asLibrarian)
	expectStatus(t, res, http.StatusCreated)

	var upload UploadResponse
	decode(t, res, &upload)

	res = env.Do(t, http.MethodGet, "/items/"+string(upload.Item.ID)+"/readium/manifest.json", nil)
	expectStatus(t, res, http.StatusBadGateway)

	body := res.Body.String()

	expectErrorCode(t, res, "publication_server_unavailable")

	if strings.Contains(body, baseURL.Host) {
		t.Errorf("response should not expose the publication server address, got '%s'", body)
	}

	if !strings.Contains(logs.String(), "could not retrieve publication from publication server") {
		t.Errorf("expected the upstream failure to be logged, got '%s'", logs.String())
	}
}
