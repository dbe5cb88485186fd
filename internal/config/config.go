package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type EnvConfig struct {
	// database config
	DB_HOST              string
	DB_PORT              int
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_CONN_MAX_LIFETIME time.Duration
	DB_MAX_IDLE_CONNS    int
	DB_MAX_OPEN_CONNS    int
	// logger config
	LOG_FILE_PATH string
	// http config
	APP_PORT string
	// output config
	EXPORT_DIR        string
	CSV_DIR           string
	CHART_DIR         string
	REPORT_RULES_FILE string
	CHART_WORKERS     int
	// workbook formatting config
	REPORT_DATE_FORMAT     string
	REPORT_AUTOFIT_COLUMNS bool
	REPORT_HEADER_FILL     string
	// run history config, disabled when ELASTIC_URL is empty
	ELASTIC_URL       string
	RUN_HISTORY_INDEX string
}

// LoadEnvConfig reads the given .env files (".env" when none is given) and
// returns the resolved configuration. Missing files are not an error.
func LoadEnvConfig(files ...string) (*EnvConfig, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return &EnvConfig{
		DB_HOST:                getEnvString("DB_HOST", "localhost"),
		DB_PORT:                getEnvInt("DB_PORT", 5432),
		DB_USER:                getEnvString("DB_USER", "postgres"),
		DB_PASSWORD:            getEnvString("DB_PASSWORD", "postgres"),
		DB_NAME:                getEnvString("DB_NAME", "BikeStores"),
		DB_SSL_MODE:            getEnvString("DB_SSL_MODE", "disable"),
		DB_CONN_MAX_LIFETIME:   getEnvDuration("DB_CONN_MAX_LIFETIME", 20*time.Minute),
		DB_MAX_IDLE_CONNS:      getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DB_MAX_OPEN_CONNS:      getEnvInt("DB_MAX_OPEN_CONNS", 100),
		LOG_FILE_PATH:          getEnvString("LOG_FILE_PATH", ""),
		APP_PORT:               getEnvString("APP_PORT", "8080"),
		EXPORT_DIR:             getEnvString("EXPORT_DIR", "exports"),
		CSV_DIR:                getEnvString("CSV_DIR", "outputs"),
		CHART_DIR:              getEnvString("CHART_DIR", "charts"),
		REPORT_RULES_FILE:      getEnvString("REPORT_RULES_FILE", ""),
		CHART_WORKERS:          getEnvInt("CHART_WORKERS", 4),
		REPORT_DATE_FORMAT:     getEnvString("REPORT_DATE_FORMAT", "yyyy-mm-dd"),
		REPORT_AUTOFIT_COLUMNS: getEnvBool("REPORT_AUTOFIT_COLUMNS", true),
		REPORT_HEADER_FILL:     getEnvString("REPORT_HEADER_FILL", ""),
		ELASTIC_URL:            getEnvString("ELASTIC_URL", ""),
		RUN_HISTORY_INDEX:      getEnvString("RUN_HISTORY_INDEX", "report_runs"),
	}, nil
}

func getEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if i, err := strconv.Atoi(val); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
