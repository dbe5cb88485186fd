package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvConfig_Defaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "DB_PORT", "APP_PORT", "EXPORT_DIR", "CHART_WORKERS", "ELASTIC_URL", "REPORT_DATE_FORMAT", "REPORT_AUTOFIT_COLUMNS"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadEnvConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DB_HOST)
	assert.Equal(t, 5432, cfg.DB_PORT)
	assert.Equal(t, "8080", cfg.APP_PORT)
	assert.Equal(t, "exports", cfg.EXPORT_DIR)
	assert.Equal(t, 4, cfg.CHART_WORKERS)
	assert.Empty(t, cfg.ELASTIC_URL)
	assert.Equal(t, 20*time.Minute, cfg.DB_CONN_MAX_LIFETIME)
	assert.Equal(t, "yyyy-mm-dd", cfg.REPORT_DATE_FORMAT)
	assert.True(t, cfg.REPORT_AUTOFIT_COLUMNS)
}

func TestLoadEnvConfig_FromFile(t *testing.T) {
	for _, key := range []string{"DB_HOST", "DB_PORT", "DB_CONN_MAX_LIFETIME", "EXPORT_DIR", "REPORT_RULES_FILE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"DB_HOST=db.internal\nDB_PORT=6543\nDB_CONN_MAX_LIFETIME=90\nEXPORT_DIR=/tmp/reports\nREPORT_RULES_FILE=rules.yaml\n",
	), 0o644))

	cfg, err := LoadEnvConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB_HOST)
	assert.Equal(t, 6543, cfg.DB_PORT)
	assert.Equal(t, 90*time.Second, cfg.DB_CONN_MAX_LIFETIME)
	assert.Equal(t, "/tmp/reports", cfg.EXPORT_DIR)
	assert.Equal(t, "rules.yaml", cfg.REPORT_RULES_FILE)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "not-a-number")
	t.Setenv("CFG_TEST_DURATION", "1m30s")
	t.Setenv("CFG_TEST_BOOL", "false")
	t.Setenv("CFG_TEST_BAD_BOOL", "maybe")

	assert.Equal(t, 7, getEnvInt("CFG_TEST_INT", 7))
	assert.Equal(t, 90*time.Second, getEnvDuration("CFG_TEST_DURATION", time.Second))
	assert.Equal(t, "fallback", getEnvString("CFG_TEST_UNSET", "fallback"))
	assert.False(t, getEnvBool("CFG_TEST_BOOL", true))
	assert.True(t, getEnvBool("CFG_TEST_BAD_BOOL", true))
}
