package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`

	AtlosMerchantID  string `env:"ATLOS_MERCHANT_ID,required"`
	AtlosAPISecret   string `env:"ATLOS_API_SECRET,required"`
	AtlosAPIURL      string `env:"ATLOS_API_URL" envDefault:"https://api.atlos.io"`
	AtlosGatewayURL  string `env:"ATLOS_GATEWAY_URL" envDefault:"wss://api.atlos.io/gateway/socket/"`
	AtlosCheckoutURL string `env:"ATLOS_CHECKOUT_URL" envDefault:"https://atlos.io/pay"`
	FrontendURL      string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	JWTExpiryH       int `env:"JWT_EXPIRY_H" envDefault:"24"`
	ProviderTimeoutS int `env:"PROVIDER_TIMEOUT_S" envDefault:"10"`

	SweepIntervalS   int `env:"SWEEP_INTERVAL_S" envDefault:"5"`
	SweepBatchSize   int `env:"SWEEP_BATCH_SIZE" envDefault:"50"`
	SweepItemDelayMS int `env:"SWEEP_ITEM_DELAY_MS" envDefault:"200"`

	ActivationCost string `env:"ACTIVATION_COST" envDefault:"5.0"`

	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
