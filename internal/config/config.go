package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	JWTExpiryH           int `env:"JWT_EXPIRY_H" envDefault:"24"`
	DepositExpiryDays    int `env:"DEPOSIT_EXPIRY_DAYS" envDefault:"7"`
	DepositSweepInterval int `env:"DEPOSIT_SWEEP_INTERVAL_S" envDefault:"60"`

	BankName          string `env:"BANK_NAME" envDefault:"Bank South Pacific"`
	BankAccountName   string `env:"BANK_ACCOUNT_NAME" envDefault:"WantokJobs Ltd"`
	BankAccountNumber string `env:"BANK_ACCOUNT_NUMBER" envDefault:"1001234567"`

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

func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiryH) * time.Hour
}

func (c *Config) DepositExpiry() time.Duration {
	return time.Duration(c.DepositExpiryDays) * 24 * time.Hour
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.DepositSweepInterval) * time.Second
}
