package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     string
	LogLevel slog.Level

	// AI providers. An empty key disables the provider.
	GeminiAPIKey    string
	GeminiModel     string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	AnthropicModel  string

	ProviderTimeout time.Duration
	ProviderRPS     float64

	// AI batching
	BatchSize         int
	MaxBatchTokens    int
	AIConcurrency     int
	QuestionCharLimit int

	// OCR
	OCREngine       string // tesseract | vision | none
	OCRRasterizer   string // fitz | pdftoppm
	OCRLanguage     string
	OCRDPI          int
	OCRMinPageChars int
	OCRConcurrency  int
	OCRTimeout      time.Duration
	OCRMaxDimension int

	GoogleCredentials string

	// PDF
	PDFFallbackPdftotext bool

	// Report
	SampleCount    int
	TopicCount     int
	TopicMinLength int

	// Keyword dictionary
	KeywordsFile  string
	KeywordsWatch bool

	// Upload limits
	MaxUploadBytes int64

	// Batch jobs
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration

	// Tracing
	OTelEnabled     bool
	OTelEndpoint    string
	OTelHeaders     string
	OTelInsecure    bool
	OTelSampleRatio float64
}

func Load() Config {
	cfg := Config{
		Port:     envOr("PORT", "8090"),
		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),

		GeminiAPIKey:    strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:     envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:    strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:     envOr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		AnthropicAPIKey: strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		ProviderTimeout: envDuration("PROVIDER_TIMEOUT", 60*time.Second),
		ProviderRPS:     envFloat("PROVIDER_RPS", 3),

		BatchSize:         envInt("AI_BATCH_SIZE", 10),
		MaxBatchTokens:    envInt("AI_MAX_BATCH_TOKENS", 3000),
		AIConcurrency:     envInt("AI_CONCURRENCY", 2),
		QuestionCharLimit: envInt("QUESTION_CHAR_LIMIT", 500),

		OCREngine:       strings.ToLower(envOr("OCR_ENGINE", "tesseract")),
		OCRRasterizer:   strings.ToLower(envOr("OCR_RASTERIZER", "fitz")),
		OCRLanguage:     envOr("OCR_LANGUAGE", "eng"),
		OCRDPI:          envInt("OCR_DPI", 300),
		OCRMinPageChars: envInt("OCR_MIN_PAGE_CHARS", 50),
		OCRConcurrency:  envInt("OCR_CONCURRENCY", 2),
		OCRTimeout:      envDuration("OCR_TIMEOUT", 60*time.Second),
		OCRMaxDimension: envInt("OCR_MAX_DIMENSION", 5000),

		GoogleCredentials: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		SampleCount:    envInt("SAMPLE_COUNT", 3),
		TopicCount:     envInt("TOPIC_COUNT", 3),
		TopicMinLength: envInt("TOPIC_MIN_LENGTH", 3),

		KeywordsFile:  os.Getenv("KEYWORDS_FILE"),
		KeywordsWatch: envBool("KEYWORDS_WATCH", false),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 16777216), // 16MB

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),
		JobTTL:       envDuration("JOB_TTL", 1*time.Hour),

		OTelEnabled:     envBool("OTEL_ENABLED", false),
		OTelEndpoint:    strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTelHeaders:     os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"),
		OTelInsecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		OTelSampleRatio: envFloat("OTEL_SAMPLER_RATIO", 0.1),
	}

	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 60 * time.Second
	}
	if cfg.ProviderRPS < 0 {
		cfg.ProviderRPS = 0
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.MaxBatchTokens <= 0 {
		cfg.MaxBatchTokens = 3000
	}
	if cfg.AIConcurrency <= 0 {
		cfg.AIConcurrency = 2
	}
	if cfg.QuestionCharLimit <= 0 {
		cfg.QuestionCharLimit = 500
	}
	if cfg.OCRDPI <= 0 {
		cfg.OCRDPI = 300
	}
	if cfg.OCRMinPageChars <= 0 {
		cfg.OCRMinPageChars = 50
	}
	if cfg.OCRConcurrency <= 0 {
		cfg.OCRConcurrency = 2
	}
	if cfg.OCRTimeout <= 0 {
		cfg.OCRTimeout = 60 * time.Second
	}
	if cfg.OCRMaxDimension <= 0 {
		cfg.OCRMaxDimension = 5000
	}
	if cfg.SampleCount < 0 {
		cfg.SampleCount = 3
	}
	if cfg.TopicCount <= 0 {
		cfg.TopicCount = 3
	}
	if cfg.TopicMinLength <= 0 {
		cfg.TopicMinLength = 3
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 16777216
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.OCREngine {
	case "tesseract", "vision", "none":
	default:
		return fmt.Errorf("OCR_ENGINE must be one of tesseract, vision, none (got %q)", c.OCREngine)
	}
	switch c.OCRRasterizer {
	case "fitz", "pdftoppm":
	default:
		return fmt.Errorf("OCR_RASTERIZER must be fitz or pdftoppm (got %q)", c.OCRRasterizer)
	}
	if c.OCRDPI < 72 || c.OCRDPI > 1200 {
		return fmt.Errorf("OCR_DPI must be between 72 and 1200 (got %d)", c.OCRDPI)
	}
	if c.OpenAIBaseURL != "" && !strings.HasPrefix(c.OpenAIBaseURL, "http") {
		return fmt.Errorf("OPENAI_BASE_URL must be an http(s) URL")
	}
	return nil
}

// Credentials returns the provider API keys keyed by environment variable,
// the shape the provider selector reads on every refresh.
func Credentials() map[string]string {
	return map[string]string{
		"GEMINI_API_KEY":    strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		"OPENAI_API_KEY":    strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		"ANTHROPIC_API_KEY": strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			return lvl
		}
	}
	return fallback
}
