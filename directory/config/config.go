package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration loaded from environment variables
type Config struct {
	Scheme            string        `env:"DIRECTORY_SCHEME" envDefault:"governor"`
	SubgraphURL       string        `env:"DIRECTORY_SUBGRAPH_URL"`
	ResolverURL       string        `env:"DIRECTORY_RESOLVER_URL" envDefault:"https://api.ensideas.com/ens"`
	HttpClientTimeout time.Duration `env:"DIRECTORY_HTTP_CLIENT_TIMEOUT" envDefault:"30s"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly  bool          `env:"LOG_HUMAN_FRIENDLY" envDefault:"false"`
}

// New loads all configuration from environment variables
func New() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}
	return cfg
}
