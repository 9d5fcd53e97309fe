package config

import "time"

type Auth struct {
	Seed                 string        `env:"SEED,expand,notEmpty"`
	OTPServer            string        `env:"OTP_SERVER,expand" envDefault:"https://openlibrary.org"`
	OTPTimeout           time.Duration `env:"OTP_TIMEOUT" envDefault:"20s"`
	AccessTokenTTL       time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTokenTTL      time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`
	AuthorizationCodeTTL time.Duration `env:"AUTHORIZATION_CODE_TTL" envDefault:"5m"`
}
