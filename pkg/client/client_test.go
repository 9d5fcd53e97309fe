package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/http/handler/api"
	"github.com/archivelabs/lenny/internal/http/handler/common"
	"github.com/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	serverURL, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	return New(
		WithBaseURL(serverURL),
		WithCredentials("librarian", "secret"),
		WithHTTPClient(&http.Client{
			Timeout: 10 * time.Second,
			Transport: &RateLimitTransport{
				Base:        http.DefaultTransport,
				MaxRetries:  3,
				DefaultWait: 10 * time.Millisecond,
				MaxWait:     50 * time.Millisecond,
			},
		}),
	)
}

func TestUpload(t *testing.T) {
	var attempts atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/api/upload", func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			common.WriteJSON(w, r, http.StatusTooManyRequests, common.ErrorResponse{Error: "Too Many Requests"})
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok || user != "librarian" || pass != "secret" {
			common.WriteJSON(w, r, http.StatusUnauthorized, common.ErrorResponse{Error: "Unauthorized"})
			return
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("%+v", errors.WithStack(err))
			return
		}

		if e, g := "123", r.FormValue("openlibrary_edition"); e != g {
			t.Errorf("openlibrary_edition: expected '%s', got '%s'", e, g)
		}

		if e, g := "true", r.FormValue("encrypted"); e != g {
			t.Errorf("encrypted: expected '%s', got '%s'", e, g)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("%+v", errors.WithStack(err))
			return
		}

		defer file.Close()

		data, _ := io.ReadAll(file)
		if e, g := "epub content", string(data); e != g {
			t.Errorf("file content: expected '%s', got '%s'", e, g)
		}

		if e, g := "OL123M_encrypted.epub", header.Filename; e != g {
			t.Errorf("filename: expected '%s', got '%s'", e, g)
		}

		common.WriteJSON(w, r, http.StatusCreated, api.UploadResponse{
			Item: api.Item{ID: "item1", OpenLibraryEdition: 123, Encrypted: true},
		})
	})

	client := newTestClient(t, mux)

	item, err := client.Upload(context.Background(), model.Edition(123), true, "OL123M_encrypted.epub", strings.NewReader("epub content"))
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.ItemID("item1"), item.ID; e != g {
		t.Errorf("item.ID: expected '%s', got '%s'", e, g)
	}

	if e, g := int32(2), attempts.Load(); e != g {
		t.Errorf("attempts: expected %d, got %d", e, g)
	}
}

func TestUploadConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/api/upload", func(w http.ResponseWriter, r *http.Request) {
		common.WriteJSON(w, r, http.StatusConflict, common.ErrorResponse{Error: "item_exists", Reasons: []string{"This item already exists."}})
	})

	client := newTestClient(t, mux)

	_, err := client.Upload(context.Background(), model.Edition(1), false, "OL1M.epub", strings.NewReader("data"))
	if err == nil {
		t.Fatalf("expected an error")
	}

	if !IsErrorCode(err, "item_exists") {
		t.Errorf("expected an item_exists error, got '%v'", err)
	}

	var clientErr *Error
	if !errors.As(err, &clientErr) {
		t.Fatalf("expected a client error, got '%T'", err)
	}

	if e, g := http.StatusConflict, clientErr.StatusCode; e != g {
		t.Errorf("clientErr.StatusCode: expected %d, got %d", e, g)
	}
}

func TestQueryItems(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/api/items", func(w http.ResponseWriter, r *http.Request) {
		if e, g := "10", r.URL.Query().Get("offset"); e != g {
			t.Errorf("offset: expected '%s', got '%s'", e, g)
		}

		if e, g := "5", r.URL.Query().Get("limit"); e != g {
			t.Errorf("limit: expected '%s', got '%s'", e, g)
		}

		common.WriteJSON(w, r, http.StatusOK, api.ListItemsResponse{
			Items:  []api.Item{{ID: "a"}, {ID: "b"}},
			Total:  12,
			Offset: 10,
			Limit:  5,
		})
	})

	client := newTestClient(t, mux)

	items, total, err := client.QueryItems(context.Background(), 10, 5)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 2, len(items); e != g {
		t.Errorf("len(items): expected %d, got %d", e, g)
	}

	if e, g := int64(12), total; e != g {
		t.Errorf("total: expected %d, got %d", e, g)
	}
}

func TestDeleteItem(t *testing.T) {
	var deleted string

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /v1/api/items/{itemID}", func(w http.ResponseWriter, r *http.Request) {
		deleted = r.PathValue("itemID")
		w.WriteHeader(http.StatusNoContent)
	})

	client := newTestClient(t, mux)

	if err := client.DeleteItem(context.Background(), "item42"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "item42", deleted; e != g {
		t.Errorf("deleted: expected '%s', got '%s'", e, g)
	}
}

func TestWaitFor(t *testing.T) {
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/api/admin/tasks/sync", func(w http.ResponseWriter, r *http.Request) {
		common.WriteJSON(w, r, http.StatusAccepted, api.ScheduleTaskResponse{TaskID: "task1"})
	})
	mux.HandleFunc("GET /v1/api/admin/tasks/{taskID}", func(w http.ResponseWriter, r *http.Request) {
		task := &api.Task{ID: "task1", Status: "running"}
		if polls.Add(1) >= 3 {
			task.Status = "succeeded"
			task.FinishedAt = time.Now()
		}

		common.WriteJSON(w, r, http.StatusOK, api.ShowTaskResponse{Task: task})
	})

	client := newTestClient(t, mux)

	ctx := context.Background()

	taskID, err := client.SyncBookshelf(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	task, err := client.WaitFor(ctx, taskID, WithWaitForPollInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "succeeded", string(task.Status); e != g {
		t.Errorf("task.Status: expected '%s', got '%s'", e, g)
	}
}
