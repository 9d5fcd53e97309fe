package config

import (
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestParse(t *testing.T) {
	t.Setenv("LENNY_AUTH_SEED", "secret")
	t.Setenv("LENNY_STORAGE_BOOKSHELF_BUCKET", "shelf")
	t.Setenv("LENNY_HTTP_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	conf, err := Parse()
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "secret", conf.Auth.Seed; e != g {
		t.Errorf("conf.Auth.Seed: expected '%s', got '%s'", e, g)
	}

	if e, g := "shelf", conf.Storage.Bookshelf.Bucket; e != g {
		t.Errorf("conf.Storage.Bookshelf.Bucket: expected '%s', got '%s'", e, g)
	}

	if e, g := 2, len(conf.HTTP.CORSAllowedOrigins); e != g {
		t.Errorf("len(conf.HTTP.CORSAllowedOrigins): expected %d, got %d", e, g)
	}

	if e, g := 14*24*time.Hour, conf.Lending.LoanDuration; e != g {
		t.Errorf("conf.Lending.LoanDuration: expected %s, got %s", e, g)
	}

	if e, g := 7*24*time.Hour, conf.HTTP.Session.Cookie.MaxAge; e != g {
		t.Errorf("conf.HTTP.Session.Cookie.MaxAge: expected %s, got %s", e, g)
	}
}

func TestParseMissingSeed(t *testing.T) {
	t.Setenv("LENNY_AUTH_SEED", "")

	if _, err := Parse(); err == nil {
		t.Errorf("expected an error when the seed is missing")
	}
}
