package common

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bornholm/go-x/slogx"
	"github.com/kirsle/configdir"
	"github.com/pkg/errors"
	"github.com/zalando/go-keyring"
)

const (
	appName        = "lenny"
	keyringService = "lenny-cli"
)

// Settings are the connection parameters saved by the login command.
// The secret key is kept in the OS keyring.
type Settings struct {
	Server    string `json:"server"`
	AccessKey string `json:"accessKey"`
}

type SettingsStore struct {
	dir string
}

func (s *SettingsStore) Path() string {
	return filepath.Join(s.dir, "settings.json")
}

// Load returns the saved settings, or empty settings if none were saved.
func (s *SettingsStore) Load() (Settings, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}

		return Settings{}, errors.WithStack(err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, errors.Wrapf(err, "could not parse settings file '%s'", s.Path())
	}

	return settings, nil
}

func (s *SettingsStore) Save(settings Settings) error {
	if err := configdir.MakePath(s.dir); err != nil {
		return errors.WithStack(err)
	}

	file, err := os.OpenFile(s.Path()+"-new", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return errors.WithStack(err)
	}

	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			slog.Error("could not close settings file", slogx.Error(errors.WithStack(err)))
		}

		if err := os.Remove(file.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Error("could not remove temporary settings file", slogx.Error(errors.WithStack(err)))
		}
	}()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(settings); err != nil {
		return errors.WithStack(err)
	}

	if err := file.Close(); err != nil {
		return errors.WithStack(err)
	}

	if err := os.Rename(file.Name(), s.Path()); err != nil {
		return errors.Wrap(err, "could not overwrite settings")
	}

	return nil
}

func (s *SettingsStore) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.WithStack(err)
	}

	return nil
}

func NewSettingsStore(dir string) *SettingsStore {
	return &SettingsStore{dir: dir}
}

func DefaultSettingsStore() *SettingsStore {
	return NewSettingsStore(configdir.LocalConfig(appName))
}

func SaveSecretKey(accessKey string, secretKey string) error {
	if err := keyring.Set(keyringService, accessKey, secretKey); err != nil {
		return errors.Wrap(err, "could not save secret key in keyring")
	}

	return nil
}

func LoadSecretKey(accessKey string) (string, error) {
	secretKey, err := keyring.Get(keyringService, accessKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}

		return "", errors.Wrap(err, "could not read secret key from keyring")
	}

	return secretKey, nil
}

func DeleteSecretKey(accessKey string) error {
	if err := keyring.Delete(keyringService, accessKey); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return errors.Wrap(err, "could not delete secret key from keyring")
	}

	return nil
}
