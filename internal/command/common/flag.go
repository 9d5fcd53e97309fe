package common

import (
	"net/url"

	"github.com/archivelabs/lenny/pkg/client"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

const (
	ParamServer    = "server"
	ParamAccessKey = "access-key"
	ParamSecretKey = "secret-key"

	defaultServer = "http://localhost:8080"
)

var (
	flagServer = altsrc.NewStringFlag(&cli.StringFlag{
		Name:    ParamServer,
		Aliases: []string{"s"},
		EnvVars: []string{"LENNY_CLI_SERVER"},
		Usage:   "Lenny server base url",
	})
	flagAccessKey = altsrc.NewStringFlag(&cli.StringFlag{
		Name:    ParamAccessKey,
		EnvVars: []string{"LENNY_CLI_ACCESS_KEY"},
		Usage:   "Librarian access key",
	})
	flagSecretKey = altsrc.NewStringFlag(&cli.StringFlag{
		Name:    ParamSecretKey,
		EnvVars: []string{"LENNY_CLI_SECRET_KEY"},
		Usage:   "Librarian secret key",
	})
)

func WithCommonFlags(flags ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		flagServer,
		flagAccessKey,
		flagSecretKey,
	}, flags...)
}

// Credentials are the connection parameters of a command, taken from its
// flags first and from the saved settings otherwise.
type Credentials struct {
	Server    string
	AccessKey string
	SecretKey string
}

func GetCredentials(ctx *cli.Context, store *SettingsStore) (Credentials, error) {
	settings, err := store.Load()
	if err != nil {
		return Credentials{}, errors.Wrap(err, "could not load settings")
	}

	creds := Credentials{
		Server:    ctx.String(ParamServer),
		AccessKey: ctx.String(ParamAccessKey),
		SecretKey: ctx.String(ParamSecretKey),
	}

	if creds.Server == "" {
		creds.Server = settings.Server
	}

	if creds.Server == "" {
		creds.Server = defaultServer
	}

	if creds.AccessKey == "" {
		creds.AccessKey = settings.AccessKey
	}

	if creds.SecretKey == "" && creds.AccessKey != "" {
		secretKey, err := LoadSecretKey(creds.AccessKey)
		if err != nil {
			return Credentials{}, errors.WithStack(err)
		}

		creds.SecretKey = secretKey
	}

	return creds, nil
}

func GetLennyClient(ctx *cli.Context) (*client.Client, error) {
	creds, err := GetCredentials(ctx, DefaultSettingsStore())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	serverURL, err := url.Parse(creds.Server)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse server url '%s'", creds.Server)
	}

	return client.New(
		client.WithBaseURL(serverURL),
		client.WithCredentials(creds.AccessKey, creds.SecretKey),
	), nil
}
