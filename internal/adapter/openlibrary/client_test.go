package openlibrary

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/pkg/errors"
)

func TestSearchPagination(t *testing.T) {
	const total = 5

	var requestedPages []int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if e, g := "/search.json", r.URL.Path; e != g {
			t.Errorf("r.URL.Path: expected %v, got %v", e, g)
		}

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		requestedPages = append(requestedPages, page)

		docs := make([]map[string]any, 0)
		for i := (page - 1) * limit; i < min(page*limit, total); i++ {
			docs = append(docs, map[string]any{
				"key":   fmt.Sprintf("/works/OL%dW", i+1),
				"title": fmt.Sprintf("Book %d", i+1),
				"editions": map[string]any{
					"docs": []map[string]any{
						{"key": fmt.Sprintf("/books/OL%dM", i+1)},
					},
				},
			})
		}

		json.NewEncoder(w).Encode(map[string]any{"numFound": total, "docs": docs})
	}))
	defer server.Close()

	baseURL, _ := url.Parse(server.URL)

	client := NewClient(WithBaseURL(baseURL))

	records, err := client.Search(t.Context(), "test", WithSearchOffset(3), WithSearchLimit(2))
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 2, len(records); e != g {
		t.Fatalf("len(records): expected %v, got %v", e, g)
	}

	if e, g := "OL4M", records[0].OLID(); e != g {
		t.Errorf("records[0].OLID(): expected %v, got %v", e, g)
	}

	if e, g := 2, len(requestedPages); e != g {
		t.Fatalf("len(requestedPages): expected %v, got %v", e, g)
	}

	if e, g := 2, requestedPages[0]; e != g {
		t.Errorf("requestedPages[0]: expected %v, got %v", e, g)
	}
}

func TestGetEditions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if e, g := "edition_key:(OL32941311M OR OL1M)", r.URL.Query().Get("q"); e != g {
			t.Errorf("q: expected %v, got %v", e, g)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"numFound": 1,
			"docs": []map[string]any{
				{
					"key":         "/works/OL1W",
					"title":       "Work title",
					"author_name": []string{"Jane Doe"},
					"editions": map[string]any{
						"docs": []map[string]any{
							{"key": "/books/OL32941311M", "title": "Edition title", "cover_i": 123, "language": []string{"eng"}},
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	baseURL, _ := url.Parse(server.URL)

	client := NewClient(WithBaseURL(baseURL), WithCoversURL("https://covers.example.net/"))

	metadata, err := client.GetEditions(t.Context(), 32941311, 1)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 1, len(metadata); e != g {
		t.Fatalf("len(metadata): expected %v, got %v", e, g)
	}

	m, exists := metadata[model.Edition(32941311)]
	if !exists {
		t.Fatalf("metadata[32941311]: expected entry")
	}

	if e, g := "Edition title", m.Title; e != g {
		t.Errorf("m.Title: expected %v, got %v", e, g)
	}

	if e, g := "https://covers.example.net/b/id/123-M.jpg", m.CoverURL; e != g {
		t.Errorf("m.CoverURL: expected %v, got %v", e, g)
	}

	if e, g := 1, len(m.Authors); e != g {
		t.Fatalf("len(m.Authors): expected %v, got %v", e, g)
	}

	if e, g := "Jane Doe", m.Authors[0].Name; e != g {
		t.Errorf("m.Authors[0].Name: expected %v, got %v", e, g)
	}
}

func TestGetEditionsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	baseURL, _ := url.Parse(server.URL)

	client := NewClient(WithBaseURL(baseURL))

	metadata, err := client.GetEditions(t.Context(), 1)
	if err != nil {
		t.Fatalf("expected no error, got %+v", errors.WithStack(err))
	}

	if e, g := 0, len(metadata); e != g {
		t.Errorf("len(metadata): expected %v, got %v", e, g)
	}
}
