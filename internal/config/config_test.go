package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "AI_BATCH_SIZE", "OCR_DPI", "OCR_MIN_PAGE_CHARS", "SAMPLE_COUNT", "OCR_ENGINE", "GEMINI_API_KEY", "OTEL_ENABLED", "TOPIC_MIN_LENGTH"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.BatchSize != 10 {
		t.Errorf("expected batch size 10, got %d", cfg.BatchSize)
	}
	if cfg.OCRDPI != 300 {
		t.Errorf("expected DPI 300, got %d", cfg.OCRDPI)
	}
	if cfg.OCRMinPageChars != 50 {
		t.Errorf("expected min page chars 50, got %d", cfg.OCRMinPageChars)
	}
	if cfg.SampleCount != 3 {
		t.Errorf("expected sample count 3, got %d", cfg.SampleCount)
	}
	if cfg.OCREngine != "tesseract" {
		t.Errorf("expected OCR engine tesseract, got %q", cfg.OCREngine)
	}
	if cfg.MaxUploadBytes != 16777216 {
		t.Errorf("expected 16MB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.GeminiAPIKey != "" {
		t.Errorf("expected no gemini key, got %q", cfg.GeminiAPIKey)
	}
	if cfg.TopicMinLength != 3 {
		t.Errorf("expected topic min length 3, got %d", cfg.TopicMinLength)
	}
	if cfg.OTelEnabled {
		t.Error("expected tracing disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AI_BATCH_SIZE", "25")
	t.Setenv("OCR_DPI", "150")
	t.Setenv("OCR_TIMEOUT", "5s")
	t.Setenv("PROVIDER_RPS", "0.5")
	t.Setenv("OCR_ENGINE", "None")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("GEMINI_API_KEY", "  g-key  ")

	cfg := Load()
	if cfg.BatchSize != 25 {
		t.Errorf("expected batch size 25, got %d", cfg.BatchSize)
	}
	if cfg.OCRDPI != 150 {
		t.Errorf("expected DPI 150, got %d", cfg.OCRDPI)
	}
	if cfg.OCRTimeout != 5*time.Second {
		t.Errorf("expected OCR timeout 5s, got %s", cfg.OCRTimeout)
	}
	if cfg.ProviderRPS != 0.5 {
		t.Errorf("expected provider rps 0.5, got %f", cfg.ProviderRPS)
	}
	if cfg.OCREngine != "none" {
		t.Errorf("expected OCR engine lowercased to none, got %q", cfg.OCREngine)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug log level, got %v", cfg.LogLevel)
	}
	if cfg.GeminiAPIKey != "g-key" {
		t.Errorf("expected trimmed gemini key, got %q", cfg.GeminiAPIKey)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("AI_BATCH_SIZE", "-3")
	t.Setenv("OCR_CONCURRENCY", "abc")
	t.Setenv("JOB_TTL", "0s")

	cfg := Load()
	if cfg.BatchSize != 10 {
		t.Errorf("expected negative batch size to reset to 10, got %d", cfg.BatchSize)
	}
	if cfg.OCRConcurrency != 2 {
		t.Errorf("expected unparsable concurrency to fall back to 2, got %d", cfg.OCRConcurrency)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected zero TTL to reset to 1h, got %s", cfg.JobTTL)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{OCREngine: "tesseract", OCRRasterizer: "fitz", OCRDPI: 300}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown engine", func(c *Config) { c.OCREngine = "abbyy" }, true},
		{"unknown rasterizer", func(c *Config) { c.OCRRasterizer = "ghostscript" }, true},
		{"dpi too low", func(c *Config) { c.OCRDPI = 10 }, true},
		{"dpi too high", func(c *Config) { c.OCRDPI = 5000 }, true},
		{"bad base url", func(c *Config) { c.OpenAIBaseURL = "ftp://x" }, true},
		{"vision engine", func(c *Config) { c.OCREngine = "vision" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCredentials(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", " sk-test ")
	t.Setenv("ANTHROPIC_API_KEY", "")

	creds := Credentials()
	if creds["OPENAI_API_KEY"] != "sk-test" {
		t.Errorf("expected trimmed openai key, got %q", creds["OPENAI_API_KEY"])
	}
	if creds["GEMINI_API_KEY"] != "" {
		t.Errorf("expected empty gemini key, got %q", creds["GEMINI_API_KEY"])
	}
}
