package readium

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/pkg/errors"
)

func TestEncodeBookPath(t *testing.T) {
	if e, g := "czM6Ly9ib29rc2hlbGYvMzI5NDEzMTEuZXB1Yg", EncodeBookPath("bookshelf", "32941311.epub"); e != g {
		t.Errorf("EncodeBookPath: expected %v, got %v", e, g)
	}
}

func TestPatchManifest(t *testing.T) {
	manifest := Manifest{
		"metadata": map[string]any{"title": "Book"},
		"links": []any{
			map[string]any{"rel": "self", "href": "http://readium/manifest.json"},
			map[string]any{"rel": []any{"alternate", "self"}, "href": "http://readium/other.json"},
			map[string]any{"rel": "cover", "href": "cover.jpg"},
		},
	}

	patched := PatchManifest(manifest, "https://lenny.example.net/v1/api/items/1/readium/manifest.json")

	links := patched["links"].([]any)

	for i := range 2 {
		if e, g := "https://lenny.example.net/v1/api/items/1/readium/manifest.json", links[i].(map[string]any)["href"]; e != g {
			t.Errorf("links[%d].href: expected %v, got %v", i, e, g)
		}
	}

	if e, g := "cover.jpg", links[2].(map[string]any)["href"]; e != g {
		t.Errorf("links[2].href: expected %v, got %v", e, g)
	}
}

func TestClient(t *testing.T) {
	const encoded = "czM6Ly9ib29rc2hlbGYvMzI5NDEzMTEuZXB1Yg"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/" + encoded + "/manifest.json":
			w.Header().Set("Content-Type", "application/webpub+json")
			w.Write([]byte(`{"links":[{"rel":"self","href":"/manifest.json"}]}`))
		case "/" + encoded + "/OEBPS/chapter1.xhtml":
			w.Header().Set("Content-Type", "application/xhtml+xml")
			w.Write([]byte(`<html></html>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	baseURL, _ := url.Parse(server.URL)

	client := NewClient(baseURL, "http://localhost:3000/read", "bookshelf", time.Second)

	ctx := t.Context()

	manifest, err := client.Manifest(ctx, "32941311.epub")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if _, exists := manifest["links"]; !exists {
		t.Errorf("manifest: expected links")
	}

	reader, contentType, err := client.Resource(ctx, "32941311.epub", "OEBPS/chapter1.xhtml")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	data, _ := io.ReadAll(reader)
	reader.Close()

	if e, g := "<html></html>", string(data); e != g {
		t.Errorf("data: expected %v, got %v", e, g)
	}

	if e, g := "application/xhtml+xml", contentType; e != g {
		t.Errorf("contentType: expected %v, got %v", e, g)
	}

	if _, err := client.Manifest(ctx, "unknown.epub"); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("Manifest(unknown): expected port.ErrNotFound, got %+v", err)
	}

	manifestURL := client.ManifestURL("32941311.epub")

	if e, g := server.URL+"/"+encoded+"/manifest.json", manifestURL; e != g {
		t.Errorf("manifestURL: expected %v, got %v", e, g)
	}

	if e, g := "http://localhost:3000/read?book="+url.QueryEscape(manifestURL), client.ReaderURL(manifestURL); e != g {
		t.Errorf("ReaderURL: expected %v, got %v", e, g)
	}
}

func TestClientTimeout(t *testing.T) {
	const (
		encoded = "czM6Ly9ib29rc2hlbGYvMzI5NDEzMTEuZXB1Yg"
		timeout = 100 * time.Millisecond
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/" + encoded + "/manifest.json":
			select {
			case <-time.After(timeout * 5):
			case <-r.Context().Done():
				return
			}
			w.Write([]byte(`{}`))
		case "/" + encoded + "/audio.mp3":
			w.Header().Set("Content-Type", "audio/mpeg")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("first"))
			w.(http.Flusher).Flush()
			time.Sleep(timeout * 3)
			w.Write([]byte("second"))
		}
	}))
	defer server.Close()

	baseURL, _ := url.Parse(server.URL)

	client := NewClient(baseURL, "http://localhost:3000/read", "bookshelf", timeout)

	ctx := t.Context()

	reader, _, err := client.Resource(ctx, "32941311.epub", "audio.mp3")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "firstsecond", string(data); e != g {
		t.Errorf("data: expected %v, got %v", e, g)
	}

	if _, err := client.Manifest(ctx, "32941311.epub"); err == nil {
		t.Errorf("Manifest: expected a timeout error")
	}
}
