package clients

import (
	"context"
	"log/slog"
	"os"

	"github.com/archivelabs/lenny/internal/config"
	"github.com/archivelabs/lenny/internal/core/port"
	"github.com/archivelabs/lenny/internal/setup"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	paramName        = "name"
	paramID          = "id"
	paramRedirectURI = "redirect-uri"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:  "clients",
		Usage: "Manage the OAuth clients allowed to authenticate patrons",
		Subcommands: []*cli.Command{
			registerCommand(),
			importCommand(),
			listCommand(),
		},
	}
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Register or update an OAuth client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     paramName,
				Usage:    "Client display name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  paramID,
				Usage: "Client identifier, generated if empty",
			},
			&cli.StringSliceFlag{
				Name:     paramRedirectURI,
				Usage:    "Allowed redirect uri (repeatable)",
				Required: true,
			},
		},
		Action: func(ctx *cli.Context) error {
			manifest := ClientManifest{
				ID:           ctx.String(paramID),
				Name:         ctx.String(paramName),
				RedirectURIs: ctx.StringSlice(paramRedirectURI),
			}

			store, err := getClientStore(ctx.Context)
			if err != nil {
				return errors.WithStack(err)
			}

			if err := register(ctx.Context, store, manifest); err != nil {
				return errors.WithStack(err)
			}

			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Register the OAuth clients listed in a YAML manifest",
		ArgsUsage: "<file.yml>",
		Action: func(ctx *cli.Context) error {
			path := ctx.Args().First()
			if path == "" {
				return errors.New("a manifest file is required")
			}

			file, err := os.Open(path)
			if err != nil {
				return errors.WithStack(err)
			}

			defer file.Close()

			manifest, err := DecodeManifest(file)
			if err != nil {
				return errors.WithStack(err)
			}

			store, err := getClientStore(ctx.Context)
			if err != nil {
				return errors.WithStack(err)
			}

			for _, c := range manifest.Clients {
				if err := register(ctx.Context, store, c); err != nil {
					return errors.WithStack(err)
				}
			}

			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the registered OAuth clients as a YAML manifest",
		Action: func(ctx *cli.Context) error {
			store, err := getClientStore(ctx.Context)
			if err != nil {
				return errors.WithStack(err)
			}

			clients, err := store.QueryClients(ctx.Context)
			if err != nil {
				return errors.WithStack(err)
			}

			encoder := yaml.NewEncoder(ctx.App.Writer)
			defer encoder.Close()

			if err := encoder.Encode(toManifest(clients)); err != nil {
				return errors.WithStack(err)
			}

			return nil
		},
	}
}

func register(ctx context.Context, store port.ClientStore, manifest ClientManifest) error {
	client, err := manifest.Client()
	if err != nil {
		return errors.WithStack(err)
	}

	if err := store.SaveClient(ctx, client); err != nil {
		return errors.Wrapf(err, "could not save client '%s'", client.Name())
	}

	slog.InfoContext(ctx, "client registered", slog.String("clientID", string(client.ID())), slog.String("name", client.Name()))

	return nil
}

func getClientStore(ctx context.Context) (port.ClientStore, error) {
	conf, err := config.Parse()
	if err != nil {
		return nil, errors.Wrap(err, "could not parse config")
	}

	store, err := setup.NewClientStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create client store from config")
	}

	return store, nil
}
