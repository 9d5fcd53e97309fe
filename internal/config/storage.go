package config

import "time"

type Storage struct {
	Database  Database  `envPrefix:"DATABASE_"`
	Bookshelf Bookshelf `envPrefix:"BOOKSHELF_"`
	Cache     Cache     `envPrefix:"CACHE_"`
}

type Database struct {
	DSN         string        `env:"DSN" envDefault:"lenny.sqlite"`
	BusyTimeout time.Duration `env:"BUSY_TIMEOUT" envDefault:"5s"`
}

type Bookshelf struct {
	Endpoint  string `env:"ENDPOINT,expand" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY,expand"`
	SecretKey string `env:"SECRET_KEY,expand"`
	Bucket    string `env:"BUCKET" envDefault:"bookshelf"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	Secure    bool   `env:"SECURE" envDefault:"false"`
}
