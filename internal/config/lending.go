package config

import "time"

type Lending struct {
	LoanDuration       time.Duration `env:"LOAN_DURATION" envDefault:"336h"`
	ExpirationInterval time.Duration `env:"EXPIRATION_INTERVAL" envDefault:"5m"`
	MaxLoansPerPatron  int64         `env:"MAX_LOANS_PER_PATRON" envDefault:"10"`
}

type OpenLibrary struct {
	BaseURL   string        `env:"BASE_URL" envDefault:"https://openlibrary.org"`
	CoversURL string        `env:"COVERS_URL" envDefault:"https://covers.openlibrary.org"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"5s"`
	UserAgent string        `env:"USER_AGENT" envDefault:"Lenny (+https://github.com/ArchiveLabs/lenny)"`
	Cache     Cache         `envPrefix:"CACHE_"`
}

type Cache struct {
	Enabled bool          `env:"ENABLED" envDefault:"true"`
	Size    int           `env:"SIZE" envDefault:"1000"`
	TTL     time.Duration `env:"TTL" envDefault:"1h"`
}

type Readium struct {
	BaseURL   string        `env:"BASE_URL" envDefault:"http://localhost:15080"`
	ReaderURL string        `env:"READER_URL" envDefault:"http://localhost:3000/read"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

type Tasks struct {
	Parallelism     int           `env:"PARALLELISM" envDefault:"4"`
	CleanupDelay    time.Duration `env:"CLEANUP_DELAY" envDefault:"1h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`
}
