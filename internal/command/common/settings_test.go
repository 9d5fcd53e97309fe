package common

import (
	"flag"
	"testing"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/zalando/go-keyring"
)

func TestSettingsStore(t *testing.T) {
	store := NewSettingsStore(t.TempDir())

	settings, err := store.Load()
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "", settings.Server; e != g {
		t.Errorf("settings.Server: expected '%s', got '%s'", e, g)
	}

	if err := store.Save(Settings{Server: "https://lenny.example", AccessKey: "librarian"}); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	settings, err = store.Load()
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "https://lenny.example", settings.Server; e != g {
		t.Errorf("settings.Server: expected '%s', got '%s'", e, g)
	}

	if e, g := "librarian", settings.AccessKey; e != g {
		t.Errorf("settings.AccessKey: expected '%s', got '%s'", e, g)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	settings, err = store.Load()
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "", settings.AccessKey; e != g {
		t.Errorf("settings.AccessKey: expected '%s', got '%s'", e, g)
	}
}

func TestGetCredentials(t *testing.T) {
	keyring.MockInit()

	store := NewSettingsStore(t.TempDir())

	if err := store.Save(Settings{Server: "https://saved.example", AccessKey: "saved"}); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := SaveSecretKey("saved", "saved-secret"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	newContext := func(args ...string) *cli.Context {
		set := flag.NewFlagSet("test", flag.ContinueOnError)
		set.String(ParamServer, "", "")
		set.String(ParamAccessKey, "", "")
		set.String(ParamSecretKey, "", "")

		if err := set.Parse(args); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}

		return cli.NewContext(cli.NewApp(), set, nil)
	}

	creds, err := GetCredentials(newContext(), store)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "https://saved.example", creds.Server; e != g {
		t.Errorf("creds.Server: expected '%s', got '%s'", e, g)
	}

	if e, g := "saved-secret", creds.SecretKey; e != g {
		t.Errorf("creds.SecretKey: expected '%s', got '%s'", e, g)
	}

	creds, err = GetCredentials(newContext("-server", "https://flag.example", "-secret-key", "flag-secret"), store)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "https://flag.example", creds.Server; e != g {
		t.Errorf("creds.Server: expected '%s', got '%s'", e, g)
	}

	if e, g := "saved", creds.AccessKey; e != g {
		t.Errorf("creds.AccessKey: expected '%s', got '%s'", e, g)
	}

	if e, g := "flag-secret", creds.SecretKey; e != g {
		t.Errorf("creds.SecretKey: expected '%s', got '%s'", e, g)
	}

	if err := DeleteSecretKey("saved"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	creds, err = GetCredentials(newContext(), store)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "", creds.SecretKey; e != g {
		t.Errorf("creds.SecretKey: expected '%s', got '%s'", e, g)
	}
}
