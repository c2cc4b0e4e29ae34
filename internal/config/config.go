package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	APIBase       string
	ChartStatsURL string
	DBPath        string
	ServerPort    string
	TokenSecret   string
	LogLevel      string
}

const defaultAPIBase = "https://www.diving-fish.com/api/maimaidxprober"

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	apiBase := getEnv("API_BASE", defaultAPIBase)

	cfg := &Config{
		APIBase:       apiBase,
		ChartStatsURL: getEnv("CHART_STATS_URL", apiBase+"/chart_stats"),
		DBPath:        getEnv("DB_PATH", "maimai.db"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		TokenSecret:   getEnv("TOKEN_SECRET", "maimai-tools-secret-key"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	logger.Info().
		Str("api_base", cfg.APIBase).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
