package webui

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

func TestLanding(t *testing.T) {
	handler := NewHandler()

	render := func(t *testing.T, target string, headers map[string]string) []byte {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		res := httptest.NewRecorder()

		handler.ServeHTTP(res, req)

		if e, g := http.StatusOK, res.Code; e != g {
			t.Fatalf("res.Code: expected %d, got %d", e, g)
		}

		return res.Body.Bytes()
	}

	body := render(t, "/", nil)

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	headings := findAll(doc, "h1")
	if e, g := 1, len(headings); e != g {
		t.Fatalf("len(headings): expected %d, got %d", e, g)
	}

	if e, g := "Lenny", textContent(headings[0]); e != g {
		t.Errorf("heading: expected '%s', got '%s'", e, g)
	}

	images := findAll(doc, "img")
	if e, g := 1, len(images); e != g {
		t.Fatalf("len(images): expected %d, got %d", e, g)
	}

	if e, g := "/assets/lenny.png", attr(images[0], "src"); e != g {
		t.Errorf("img src: expected '%s', got '%s'", e, g)
	}

	if e, g := "Lenny", attr(images[0], "alt"); e != g {
		t.Errorf("img alt: expected '%s', got '%s'", e, g)
	}

	links := findAll(doc, "a")
	if e, g := 1, len(links); e != g {
		t.Fatalf("len(links): expected %d, got %d", e, g)
	}

	if e, g := "https://github.com/ArchiveLabs/lenny", attr(links[0], "href"); e != g {
		t.Errorf("link href: expected '%s', got '%s'", e, g)
	}

	if e, g := "github", textContent(links[0]); e != g {
		t.Errorf("link text: expected '%s', got '%s'", e, g)
	}

	paragraphs := findAll(doc, "p")
	if e, g := 1, len(paragraphs); e != g {
		t.Fatalf("len(paragraphs): expected %d, got %d", e, g)
	}

	expectedText := "Lenny is a free, open source Library Lending System. You can learn more about it on github."
	if e, g := expectedText, textContent(paragraphs[0]); e != g {
		t.Errorf("paragraph: expected '%s', got '%s'", e, g)
	}

	for _, target := range []string{"/", "/?foo=bar", "/?lang=fr&page=2"} {
		again := render(t, target, map[string]string{"Cookie": "session=abc", "Accept-Language": "fr"})
		if !bytes.Equal(body, again) {
			t.Errorf("render of '%s' differs from the first render", target)
		}
	}
}

func TestAssets(t *testing.T) {
	handler := NewHandler()

	type testCase struct {
		Name         string
		Path         string
		ExpectStatus int
		ExpectType   string
	}

	testCases := []testCase{
		{
			Name:         "Logo",
			Path:         "/assets/lenny.png",
			ExpectStatus: http.StatusOK,
			ExpectType:   "image/png",
		},
		{
			Name:         "MissingAsset",
			Path:         "/assets/missing.png",
			ExpectStatus: http.StatusNotFound,
		},
		{
			Name:         "UnknownPage",
			Path:         "/unknown",
			ExpectStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, tc.Path, nil))

			if e, g := tc.ExpectStatus, res.Code; e != g {
				t.Fatalf("res.Code: expected %d, got %d", e, g)
			}

			if tc.ExpectType == "" {
				return
			}

			if e, g := tc.ExpectType, res.Header().Get("Content-Type"); e != g {
				t.Errorf("Content-Type: expected '%s', got '%s'", e, g)
			}

			data, err := io.ReadAll(res.Body)
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if !bytes.HasPrefix(data, []byte("\x89PNG")) {
				t.Errorf("expected a png file")
			}
		})
	}
}

func findAll(n *html.Node, tag string) []*html.Node {
	nodes := make([]*html.Node, 0)

	if n.Type == html.ElementNode && n.Data == tag {
		nodes = append(nodes, n)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		nodes = append(nodes, findAll(c, tag)...)
	}

	return nodes
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}

	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)

	return strings.TrimSpace(sb.String())
}
