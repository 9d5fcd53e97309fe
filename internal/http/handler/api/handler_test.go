package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gormAdapter "github.com/archivelabs/lenny/internal/adapter/gorm"
	"github.com/archivelabs/lenny/internal/adapter/memory"
	"github.com/archivelabs/lenny/internal/core/model"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/archivelabs/lenny/internal/core/service"
	"github.com/archivelabs/lenny/internal/http/handler/common"
	"github.com/archivelabs/lenny/internal/http/middleware/authn"
	"github.com/archivelabs/lenny/internal/http/middleware/authn/basic"
	"github.com/archivelabs/lenny/internal/opds"
	"github.com/archivelabs/lenny/internal/readium"
	"github.com/ncruces/go-sqlite3/gormlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "github.com/ncruces/go-sqlite3/embed"
)

const (
	testBaseURL       = "http://lenny.test"
	testLibrarian     = "librarian"
	testSecret        = "secret"
	testPatronHeader  = "X-Test-Patron"
	testPDF           = "%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n"
	testResourcePath  = "OEBPS/chapter1.xhtml"
	testResourceValue = "<html><body>Chapter 1</body></html>"
)

func TestHandler(t *testing.T) {
	env := newTestEnv(t)

	var encryptedItem Item
	var openItem Item

	steps := []struct {
		Name string
		Run  func(t *testing.T)
	}{
		{
			Name: "Landing",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodGet, "/", nil)
				expectStatus(t, res, http.StatusOK)

				if !strings.Contains(res.Body.String(), "<h1>Lenny</h1>") {
					t.Errorf("expected the landing page, got '%s'", res.Body.String())
				}
			},
		},
		{
			Name: "UploadRequiresLibrarian",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodPost, "/upload", env.UploadBody(t, "OL42M", true, "book.pdf", testPDF))
				expectStatus(t, res, http.StatusUnauthorized)

				if !strings.HasPrefix(res.Header().Get("WWW-Authenticate"), "Basic") {
					t.Errorf("expected a basic authentication challenge, got '%s'", res.Header().Get("WWW-Authenticate"))
				}
			},
		},
		{
			Name: "UploadEncrypted",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodPost, "/upload", env.UploadBody(t, "OL42M", true, "book.pdf", testPDF), asLibrarian)
				expectStatus(t, res, http.StatusCreated)

				var upload UploadResponse
				decode(t, res, &upload)

				encryptedItem = upload.Item

				if e, g := int64(42), encryptedItem.OpenLibraryEdition; e != g {
					t.Errorf("item.OpenLibraryEdition: expected %d, got %d", e, g)
				}

				if !encryptedItem.Encrypted {
					t.Errorf("item.Encrypted: expected true")
				}
			},
		},
		{
			Name: "UploadOpenAccess",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodPost, "/upload", env.UploadBody(t, "43", false, "book.pdf", testPDF), asLibrarian)
				expectStatus(t, res, http.StatusCreated)

				var upload UploadResponse
				decode(t, res, &upload)

				openItem = upload.Item
			},
		},
		{
			Name: "UploadDuplicate",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodPost, "/upload", env.UploadBody(t, "OL42M", true, "book.pdf", testPDF), asLibrarian)
				expectStatus(t, res, http.StatusConflict)
				expectErrorCode(t, res, "item_exists")
			},
		},
		{
			Name: "UploadInvalidFile",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodPost, "/upload", env.UploadBody(t, "OL44M", false, "book.txt", "hello"), asLibrarian)
				expectStatus(t, res, http.StatusBadRequest)
				expectErrorCode(t, res, "invalid_file")
			},
		},
		{
			Name: "UploadInvalidEdition",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodPost, "/upload", env.UploadBody(t, "nope", false, "book.pdf", testPDF), asLibrarian)
				expectStatus(t, res, http.StatusBadRequest)
				expectErrorCode(t, res, "invalid_edition")
			},
		},
		{
			Name: "ListItems",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodGet, "/items?offset=0&limit=1", nil)
				expectStatus(t, res, http.StatusOK)

				var list ListItemsResponse
				decode(t, res, &list)

				if e, g := int64(2), list.Total; e != g {
					t.Errorf("list.Total: expected %d, got %d", e, g)
				}

				if e, g := 1, len(list.Items); e != g {
					t.Errorf("len(list.Items): expected %d, got %d", e, g)
				}
			},
		},
		{
			Name: "Feed",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodGet, "/opds", nil)
				expectStatus(t, res, http.StatusOK)

				if e, g := opds.MediaTypeFeed, res.Header().Get("Content-Type"); e != g {
					t.Errorf("Content-Type: expected '%s', got '%s'", e, g)
				}

				var feed opds.Feed
				decode(t, res, &feed)

				if e, g := service.CatalogTitle, feed.Metadata.Title; e != g {
					t.Errorf("feed.Metadata.Title: expected '%s', got '%s'", e, g)
				}

				if e, g := 2, len(feed.Publications); e != g {
					t.Errorf("len(feed.Publications): expected %d, got %d", e, g)
				}
			},
		},
		{
			Name: "BorrowRequiresPatron",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodPost, "/items/"+string(encryptedItem.ID)+"/borrow", nil)
				expectStatus(t, res, http.StatusUnauthorized)

				if !strings.Contains(res.Header().Get("Link"), testBaseURL+"/v1/api/oauth/implicit") {
					t.Errorf("expected a link to the authentication document, got '%s'", res.Header().Get("Link"))
				}
			},
		},
		{
			Name: "ManifestRequiresLoan",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodGet, "/items/"+string(encryptedItem.ID)+"/readium/manifest.json", nil, asPatron("alice@example.com"))
				expectStatus(t, res, http.StatusForbidden)
				expectErrorCode(t, res, "loan_required")
			},
		},
		{
			Name: "Borrow",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodPost, "/items/"+string(encryptedItem.ID)+"/borrow", nil, asPatron("alice@example.com"))
				expectStatus(t, res, http.StatusCreated)

				var publication opds.Publication
				decode(t, res, &publication)

				if !hasLink(publication.Links, opds.RelReturn) {
					t.Errorf("expected a return link, got %v", publication.Links)
				}
			},
		},
		{
			Name: "BorrowAgain",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodPost, "/items/"+string(encryptedItem.ID)+"/borrow", nil, asPatron("Alice@Example.com"))
				expectStatus(t, res, http.StatusConflict)
				expectErrorCode(t, res, "existing_loan")
			},
		},
		{
			Name: "BorrowUnavailable",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodPost, "/items/"+string(encryptedItem.ID)+"/borrow", nil, asPatron("bob@example.com"))
				expectStatus(t, res, http.StatusConflict)
				expectErrorCode(t, res, "item_unavailable")
			},
		},
		{
			Name: "BorrowOpenAccess",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodPost, "/items/"+string(openItem.ID)+"/borrow", nil, asPatron("alice@example.com"))
				expectStatus(t, res, http.StatusBadRequest)
				expectErrorCode(t, res, "loan_not_required")
			},
		},
		{
			Name: "Manifest",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodGet, "/items/"+string(encryptedItem.ID)+"/readium/manifest.json", nil, asPatron("alice@example.com"))
				expectStatus(t, res, http.StatusOK)

				var manifest struct {
					Links []opds.Link `json:"links"`
				}
				decode(t, res, &manifest)

				expected := testBaseURL + "/v1/api/items/" + string(encryptedItem.ID) + "/readium/manifest.json"

				if e, g := expected, manifest.Links[0].Href; e != g {
					t.Errorf("manifest self link: expected '%s', got '%s'", e, g)
				}
			},
		},
		{
			Name: "Resource",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodGet, "/items/"+string(encryptedItem.ID)+"/readium/"+testResourcePath, nil, asPatron("alice@example.com"))
				expectStatus(t, res, http.StatusOK)

				if e, g := testResourceValue, res.Body.String(); e != g {
					t.Errorf("res.Body: expected '%s', got '%s'", e, g)
				}

				res = env.Do(t, http.MethodGet, "/items/"+string(encryptedItem.ID)+"/readium/missing.xhtml", nil, asPatron("alice@example.com"))
				expectStatus(t, res, http.StatusNotFound)
			},
		},
		{
			Name: "ReadOpenAccess",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodGet, "/items/"+string(openItem.ID)+"/read", nil)
				expectStatus(t, res, http.StatusFound)

				manifestURL := testBaseURL + "/v1/api/items/" + string(openItem.ID) + "/readium/manifest.json"

				if e, g := "http://reader.test/read?book="+url.QueryEscape(manifestURL), res.Header().Get("Location"); e != g {
					t.Errorf("Location: expected '%s', got '%s'", e, g)
				}
			},
		},
		{
			Name: "Profile",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodGet, "/profile", nil, asPatron("alice@example.com"))
				expectStatus(t, res, http.StatusOK)

				var profile opds.Profile
				decode(t, res, &profile)

				if e, g := "alice@example.com", profile.Metadata.Email; e != g {
					t.Errorf("profile.Metadata.Email: expected '%s', got '%s'", e, g)
				}

				if e, g := int64(9), profile.Loans.Available; e != g {
					t.Errorf("profile.Loans.Available: expected %d, got %d", e, g)
				}
			},
		},
		{
			Name: "ShelfAndLoans",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodGet, "/shelf", nil, asPatron("alice@example.com"))
				expectStatus(t, res, http.StatusOK)

				var shelf opds.Feed
				decode(t, res, &shelf)

				if e, g := 1, len(shelf.Publications); e != g {
					t.Errorf("len(shelf.Publications): expected %d, got %d", e, g)
				}

				res = env.Do(t, http.MethodGet, "/loans", nil, asPatron("alice@example.com"))
				expectStatus(t, res, http.StatusOK)

				var loans ListLoansResponse
				decode(t, res, &loans)

				if e, g := 1, len(loans.Loans); e != g {
					t.Fatalf("len(loans.Loans): expected %d, got %d", e, g)
				}

				if e, g := encryptedItem.ID, loans.Loans[0].ItemID; e != g {
					t.Errorf("loans.Loans[0].ItemID: expected '%s', got '%s'", e, g)
				}
			},
		},
		{
			Name: "Return",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodPost, "/items/"+string(encryptedItem.ID)+"/return", nil, asPatron("alice@example.com"))
				expectStatus(t, res, http.StatusOK)

				res = env.Do(t, http.MethodPost, "/items/"+string(encryptedItem.ID)+"/return", nil, asPatron("alice@example.com"))
				expectStatus(t, res, http.StatusNotFound)
				expectErrorCode(t, res, "loan_not_found")
			},
		},
		{
			Name: "SyncTask",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodPost, "/admin/tasks/sync", nil)
				expectStatus(t, res, http.StatusUnauthorized)

				res = env.Do(t, http.MethodPost, "/admin/tasks/sync", nil, asLibrarian)
				expectStatus(t, res, http.StatusAccepted)

				var scheduled ScheduleTaskResponse
				decode(t, res, &scheduled)

				var task ShowTaskResponse

				deadline := time.Now().Add(5 * time.Second)
				for time.Now().Before(deadline) {
					res = env.Do(t, http.MethodGet, "/admin/tasks/"+string(scheduled.TaskID), nil, asLibrarian)
					expectStatus(t, res, http.StatusOK)

					decode(t, res, &task)

					if task.Task.Status == port.TaskStatusSucceeded || task.Task.Status == port.TaskStatusFailed {
						break
					}

					time.Sleep(10 * time.Millisecond)
				}

				if e, g := port.TaskStatusSucceeded, task.Task.Status; e != g {
					t.Errorf("task.Status: expected '%s', got '%s' (%s)", e, g, task.Task.Error)
				}

				res = env.Do(t, http.MethodGet, "/admin/tasks/unknown", nil, asLibrarian)
				expectStatus(t, res, http.StatusNotFound)
			},
		},
		{
			Name: "DeleteItem",
			Run: func(t *testing.T) {
				res := env.Do(t, http.MethodDelete, "/items/"+string(openItem.ID), nil, asLibrarian)
				expectStatus(t, res, http.StatusNoContent)

				res = env.Do(t, http.MethodGet, "/opds/"+string(openItem.ID), nil)
				expectStatus(t, res, http.StatusNotFound)
				expectErrorCode(t, res, "item_not_found")
			},
		},
	}

	for _, s := range steps {
		if !t.Run(s.Name, s.Run) {
			return
		}
	}
}

type testEnv struct {
	handler http.Handler
}

type requestOption func(r *http.Request)

func asLibrarian(r *http.Request) {
	r.SetBasicAuth(testLibrarian, testSecret)
}

func asPatron(email string) requestOption {
	return func(r *http.Request) {
		r.Header.Set(testPatronHeader, email)
	}
}

type uploadBody struct {
	contentType string
	body        *bytes.Buffer
}

func (e *testEnv) UploadBody(t *testing.T, edition string, encrypted bool, filename string, data string) *uploadBody {
	var buff bytes.Buffer

	writer := multipart.NewWriter(&buff)

	if err := writer.WriteField(formEdition, edition); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := writer.WriteField(formEncrypted, fmt.Sprintf("%v", encrypted)); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	file, err := writer.CreateFormFile(formFile, filename)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if _, err := io.WriteString(file, data); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	return &uploadBody{contentType: writer.FormDataContentType(), body: &buff}
}

func (e *testEnv) Do(t *testing.T, method string, path string, body *uploadBody, opts ...requestOption) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = body.body
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}

	for _, fn := range opts {
		fn(req)
	}

	res := httptest.NewRecorder()

	e.handler.ServeHTTP(res, req)

	return res
}

type headerAuthenticator struct{}

// Authenticate implements authn.Authenticator.
func (headerAuthenticator) Authenticate(w http.ResponseWriter, r *http.Request) (*authn.Patron, error) {
	email := r.Header.Get(testPatronHeader)
	if email == "" {
		return nil, nil
	}

	return &authn.Patron{Email: email, Method: "test"}, nil
}

type noMetadata struct{}

// GetEditions implements port.MetadataProvider.
func (noMetadata) GetEditions(ctx context.Context, editions ...model.Edition) (map[model.Edition]*port.EditionMetadata, error) {
	return map[model.Edition]*port.EditionMetadata{}, nil
}

type fakePublications struct{}

// Manifest implements PublicationServer.
func (fakePublications) Manifest(ctx context.Context, key string) (readium.Manifest, error) {
	return readium.Manifest{
		"metadata": map[string]any{"title": key},
		"links": []any{
			map[string]any{"rel": "self", "href": "http://readium.test/" + key + "/manifest.json"},
		},
	}, nil
}

// ReaderURL implements PublicationServer.
func (fakePublications) ReaderURL(manifestURL string) string {
	return "http://reader.test/read?book=" + url.QueryEscape(manifestURL)
}

// Resource implements PublicationServer.
func (fakePublications) Resource(ctx context.Context, key string, path string) (io.ReadCloser, string, error) {
	if path != testResourcePath {
		return nil, "", errors.WithStack(port.ErrNotFound)
	}

	return io.NopCloser(strings.NewReader(testResourceValue)), "application/xhtml+xml", nil
}

var _ PublicationServer = fakePublications{}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithPublications(t, fakePublications{})
}

func newTestEnvWithPublications(t *testing.T, publications PublicationServer) *testEnv {
	dsn := fmt.Sprintf("file:%s", filepath.Join(t.TempDir(), "test.sqlite"))

	db, err := gorm.Open(gormlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := gormAdapter.NewStore(db)
	bookshelf := memory.NewBookshelf()

	baseURL, err := url.Parse(testBaseURL)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	lending := service.NewLending(store, store, []byte("test seed"))
	librarian := service.NewLibrarian(store, bookshelf)
	catalog := service.NewCatalog(baseURL, store, lending, noMetadata{}, publications)

	taskManager := memory.NewTaskManager(1, time.Hour, time.Minute)
	taskManager.Register(service.TaskTypeSyncBookshelf, librarian.SyncHandler())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		if err := taskManager.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("%+v", errors.WithStack(err))
		}
	}()

	var handler http.Handler = NewHandler(catalog, lending, librarian, publications, taskManager)
	handler = authn.Middleware(headerAuthenticator{})(handler)
	handler = basic.Middleware(testLibrarian, testSecret)(handler)

	return &testEnv{handler: handler}
}

func expectStatus(t *testing.T, res *httptest.ResponseRecorder, expected int) {
	t.Helper()

	if e, g := expected, res.Code; e != g {
		t.Fatalf("res.Code: expected %d, got %d (%s)", e, g, res.Body.String())
	}
}

func expectErrorCode(t *testing.T, res *httptest.ResponseRecorder, expected string) {
	t.Helper()

	var errRes common.ErrorResponse
	decode(t, res, &errRes)

	if e, g := expected, errRes.Error; e != g {
		t.Errorf("error: expected '%s', got '%s'", e, g)
	}
}

func decode(t *testing.T, res *httptest.ResponseRecorder, v any) {
	t.Helper()

	if err := json.Unmarshal(res.Body.Bytes(), v); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}
}

func hasLink(links []opds.Link, rel string) bool {
	for _, l := range links {
		if l.Rel == rel {
			return true
		}
	}

	return false
}
