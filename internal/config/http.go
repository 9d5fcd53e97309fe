package config

import "time"

type HTTP struct {
	BaseURL            string        `env:"BASE_URL,expand" envDefault:"http://127.0.0.1:8080"`
	Address            string        `env:"ADDRESS,expand" envDefault:":8080"`
	TrustProxyHeaders  bool          `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	ReadHeaderTimeout  time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"10s"`
	Session            Session       `envPrefix:"SESSION_"`
	RateLimit          RateLimit     `envPrefix:"RATE_LIMIT_"`
}

type Session struct {
	Keys   []string `env:"KEYS" envSeparator:","`
	Cookie Cookie   `envPrefix:"COOKIE_"`
}

type Cookie struct {
	Path     string        `env:"PATH" envDefault:"/"`
	HTTPOnly bool          `env:"HTTP_ONLY" envDefault:"true"`
	Secure   bool          `env:"SECURE" envDefault:"false"`
	MaxAge   time.Duration `env:"MAX_AGE" envDefault:"168h"`
}

type RateLimit struct {
	Interval  time.Duration `env:"INTERVAL" envDefault:"2s"`
	MaxBurst  int           `env:"MAX_BURST" envDefault:"10"`
	CacheSize int           `env:"CACHE_SIZE" envDefault:"1024"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"10m"`
}
