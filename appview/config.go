package appview

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	ListenAddr   string        `env:"COOKBOOK_LISTEN_ADDR, default=0.0.0.0:3000"`
	APIBase      string        `env:"COOKBOOK_API_BASE, default=http://localhost:8080/api"`
	APITimeout   time.Duration `env:"COOKBOOK_API_TIMEOUT, default=10s"`
	CookieSecret string        `env:"COOKBOOK_COOKIE_SECRET, default=00000000000000000000000000000000"`

	// Serves cookies without the Secure flag and logs at debug level.
	Dev bool `env:"COOKBOOK_DEV, default=false"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	return loadConfig(ctx, envconfig.OsLookuper())
}

func loadConfig(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	})
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
