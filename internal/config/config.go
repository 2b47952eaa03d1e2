package config

import (
	"fmt"
	"os"
	"strconv"

	"blitz-tracker/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	// WIAuthToken authorizes requests against wotinspector.com. Optional.
	WIAuthToken string

	// RateLimit is the shared outbound budget, in requests per second,
	// for the throttled wotinspector URL prefixes.
	RateLimit float64

	// UploaderID is the account id reported as uploaded_by on replay posts.
	UploaderID int64

	DBPath     string
	ServerPort string
	LogLevel   string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		WIAuthToken: getEnv("WI_AUTH_TOKEN", ""),
		RateLimit:   constants.DefaultRateLimit,
		DBPath:      getEnv("DB_PATH", "blitz.db"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	if v := os.Getenv("WI_RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("invalid WI_RATE_LIMIT %q", v)
		}
		cfg.RateLimit = limit
	}
	if v := os.Getenv("UPLOADER_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("invalid UPLOADER_ID %q", v)
		}
		cfg.UploaderID = id
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Float64("rate_limit", cfg.RateLimit).
		Bool("auth_token_set", cfg.WIAuthToken != "").
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
