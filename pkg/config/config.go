// Package config loads service settings from the environment, after reading
// a .env file when one is present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"qr-slip/pkg/services/annotate"
)

// Config holds the service settings
type Config struct {
	ServiceName    string
	Port           string
	APIKey         string
	DatabaseURL    string
	AllowedOrigins []string
	LogLevel       logrus.Level

	QRBillCommand string
	RenderCommand string
	WorkDir       string

	Layout annotate.Layout
}

// Load reads .env files (missing files are ignored) and then the environment
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %v", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only
func FromEnv() (*Config, error) {
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %v", err)
	}

	cfg := &Config{
		ServiceName:   getEnv("SERVICE_NAME", "QR-Bill API (Meno)"),
		Port:          getEnv("PORT", "8080"),
		APIKey:        os.Getenv("QRBILL_API_KEY"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		LogLevel:      level,
		QRBillCommand: getEnv("QRBILL_COMMAND", "qrbill"),
		RenderCommand: getEnv("RENDER_COMMAND", "rsvg-convert"),
		WorkDir:       getEnv("WORK_DIR", os.TempDir()),
	}

	for _, o := range splitList(getEnv("ALLOWED_ORIGINS", "https://meno-reinigung.ch,https://www.meno-reinigung.ch")) {
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return nil, fmt.Errorf("invalid ALLOWED_ORIGINS entry %q: scheme must be http or https", o)
		}
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, strings.TrimRight(o, "/"))
	}

	l := annotate.DefaultLayout()
	fields := []struct {
		key string
		dst *float64
	}{
		{"ANNOTATE_DEBTOR_CLEARANCE", &l.DebtorClearance},
		{"ANNOTATE_FALLBACK_CLEARANCE", &l.FallbackClearance},
		{"ANNOTATE_FONT_SIZE", &l.FontSize},
		{"ANNOTATE_LINE_GAP", &l.LineGap},
		{"ANNOTATE_SHIFT_LEFT", &l.ShiftLeft},
		{"ANNOTATE_SHIFT_RIGHT", &l.ShiftRight},
		{"ANNOTATE_TOLERANCE", &l.Tolerance},
		{"ANNOTATE_DEBTOR_SPAN", &l.DebtorSpan},
		{"ANNOTATE_CURRENCY_MARGIN", &l.CurrencyMargin},
		{"ANNOTATE_REFERENCE_LABEL_DELTA", &l.ReferenceLabelDelta},
	}
	for _, f := range fields {
		v, ok := os.LookupEnv(f.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", f.key, err)
		}
		*f.dst = n
	}
	if l.FontSize <= 0 || l.LineGap <= 0 || l.Tolerance < 0 {
		return nil, fmt.Errorf("invalid annotation layout: font size and line gap must be positive")
	}
	cfg.Layout = l

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
