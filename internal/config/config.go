package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

type Config struct {
	Logger      Logger      `envPrefix:"LOGGER_"`
	HTTP        HTTP        `envPrefix:"HTTP_"`
	Storage     Storage     `envPrefix:"STORAGE_"`
	Auth        Auth        `envPrefix:"AUTH_"`
	Lending     Lending     `envPrefix:"LENDING_"`
	OpenLibrary OpenLibrary `envPrefix:"OPENLIBRARY_"`
	Readium     Readium     `envPrefix:"READIUM_"`
	Tasks       Tasks       `envPrefix:"TASKS_"`
}

type Logger struct {
	Level int `env:"LEVEL" envDefault:"0"`
}

func Parse() (*Config, error) {
	conf, err := env.ParseAsWithOptions[Config](env.Options{
		Prefix: "LENNY_",
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &conf, nil
}
