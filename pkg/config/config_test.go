package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qr-slip/pkg/services/annotate"
)

var envKeys = []string{
	"SERVICE_NAME", "PORT", "QRBILL_API_KEY", "DATABASE_URL", "ALLOWED_ORIGINS", "LOG_LEVEL",
	"QRBILL_COMMAND", "RENDER_COMMAND", "WORK_DIR",
	"ANNOTATE_FONT_SIZE", "ANNOTATE_LINE_GAP", "ANNOTATE_SHIFT_RIGHT", "ANNOTATE_TOLERANCE",
}

// clearEnv blanks the variables read by FromEnv for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.APIKey)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, []string{"https://meno-reinigung.ch", "https://www.meno-reinigung.ch"}, cfg.AllowedOrigins)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "qrbill", cfg.QRBillCommand)
	assert.Equal(t, "rsvg-convert", cfg.RenderCommand)
	assert.Equal(t, os.TempDir(), cfg.WorkDir)
	assert.Equal(t, annotate.DefaultLayout(), cfg.Layout)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("QRBILL_API_KEY", "secret")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example/ , ,https://b.example")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ANNOTATE_FONT_SIZE", "9")
	t.Setenv("ANNOTATE_SHIFT_RIGHT", "-2.5")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 9.0, cfg.Layout.FontSize)
	assert.Equal(t, -2.5, cfg.Layout.ShiftRight)
	assert.Equal(t, 12.0, cfg.Layout.LineGap)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"LOG_LEVEL", "loud"},
		{"ANNOTATE_LINE_GAP", "wide"},
		{"ANNOTATE_FONT_SIZE", "0"},
		{"ALLOWED_ORIGINS", "meno-reinigung.ch"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides variables that exist, even empty ones.
	os.Unsetenv("PORT")
	os.Unsetenv("QRBILL_COMMAND")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=7070\nQRBILL_COMMAND=/opt/qrbill/bin/qrbill\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "/opt/qrbill/bin/qrbill", cfg.QRBillCommand)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
