package auth

import (
	"log/slog"

	"github.com/archivelabs/lenny/internal/command/common"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

func LoginCommand() *cli.Command {
	flags := common.WithCommonFlags()
	return &cli.Command{
		Name:   "login",
		Usage:  "Save the server url and librarian credentials for the next commands",
		Flags:  flags,
		Before: altsrc.InitInputSourceWithContext(flags, common.NewFileSourceFromFlagFunc("config")),
		Action: func(ctx *cli.Context) error {
			if err := login(ctx, common.DefaultSettingsStore()); err != nil {
				return errors.WithStack(err)
			}

			slog.InfoContext(ctx.Context, "credentials saved", slog.String("server", ctx.String(common.ParamServer)))

			return nil
		},
	}
}

func login(ctx *cli.Context, store *common.SettingsStore) error {
	server := ctx.String(common.ParamServer)
	if server == "" {
		return errors.Errorf("the --%s flag is required", common.ParamServer)
	}

	accessKey := ctx.String(common.ParamAccessKey)
	if accessKey == "" {
		return errors.Errorf("the --%s flag is required", common.ParamAccessKey)
	}

	if secretKey := ctx.String(common.ParamSecretKey); secretKey != "" {
		if err := common.SaveSecretKey(accessKey, secretKey); err != nil {
			return errors.WithStack(err)
		}
	}

	if err := store.Save(common.Settings{Server: server, AccessKey: accessKey}); err != nil {
		return errors.Wrap(err, "could not save settings")
	}

	return nil
}

func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the saved server url and librarian credentials",
		Action: func(ctx *cli.Context) error {
			if err := logout(common.DefaultSettingsStore()); err != nil {
				return errors.WithStack(err)
			}

			slog.InfoContext(ctx.Context, "credentials cleared")

			return nil
		},
	}
}

func logout(store *common.SettingsStore) error {
	settings, err := store.Load()
	if err != nil {
		return errors.Wrap(err, "could not load settings")
	}

	if settings.AccessKey != "" {
		if err := common.DeleteSecretKey(settings.AccessKey); err != nil {
			return errors.WithStack(err)
		}
	}

	if err := store.Clear(); err != nil {
		return errors.Wrap(err, "could not clear settings")
	}

	return nil
}
