// Package config loads runtime configuration from the environment,
// with a .env file honored in development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string        // "dev" or "prod"; selects logger mode
	Addr        string        // HTTP listen address
	DatabaseURL string        // postgres DSN for the hall catalog
	RedisAddr   string        // optional; empty disables rate limiting
	AmqpURL     string        // optional; empty disables push events
	JWTSecret   string        // shared with the login service
	InviteTTL   time.Duration // table invite countdown
}

func Load() (Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := Config{
		Env:       getenv("APP_ENV", "dev"),
		Addr:      getenv("ADDR", ":8080"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
		AmqpURL:   os.Getenv("AMQP_URL"),
	}

	var err error
	if cfg.DatabaseURL, err = must("DATABASE_URL"); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecret, err = must("JWT_SECRET"); err != nil {
		return Config{}, err
	}

	ttlSec := 30
	if v := os.Getenv("INVITE_TTL_SEC"); v != "" {
		if ttlSec, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("invalid INVITE_TTL_SEC: %q", v)
		}
	}
	cfg.InviteTTL = time.Duration(ttlSec) * time.Second

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func must(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return v, nil
}
