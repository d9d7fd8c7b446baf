package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultModels is the candidate order used when LLM_MODELS is not set:
// the cheaper, faster backend first, the stronger one as fallback.
const DefaultModels = "gemini:gemini-2.5-flash,gemini:gemini-2.5-pro"

type Config struct {
	Port string
	Env  string

	LogLevel  string
	LogFormat string

	GeminiAPIKey   string
	GroqAPIKey     string
	Models         []string
	AttemptTimeout time.Duration

	CatalogCSV string
	CatalogDSN string

	CacheSize int
	MaxPhones int

	Archive ArchiveConfig
}

type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8080", "server port")
	csvPath := flag.String("csv", "", "catalog CSV path (empty: embedded catalog)")
	models := flag.String("models", "", "comma-separated backend order")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		*port = normalizePort(envPort)
	}
	if *csvPath == "" {
		*csvPath = strings.TrimSpace(os.Getenv("CATALOG_CSV"))
	}
	if *models == "" {
		*models = firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_MODELS")), DefaultModels)
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:           *port,
		Env:            env,
		LogLevel:       firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_LEVEL")), "info"),
		LogFormat:      firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_FORMAT")), "console"),
		GeminiAPIKey:   strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GroqAPIKey:     strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		Models:         parseModels(*models),
		AttemptTimeout: time.Duration(envInt("LLM_ATTEMPT_TIMEOUT", 90)) * time.Second,
		CatalogCSV:     *csvPath,
		CatalogDSN:     strings.TrimSpace(os.Getenv("CATALOG_DSN")),
		CacheSize:      envInt("COMPARE_CACHE_SIZE", 256),
		MaxPhones:      envInt("COMPARE_MAX_PHONES", 8),
		Archive:        loadArchiveConfig(),
	}, nil
}

func loadArchiveConfig() ArchiveConfig {
	endpoint := strings.TrimSpace(os.Getenv("ARCHIVE_S3_ENDPOINT"))
	return ArchiveConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_BUCKET")), "phonepick-comparisons"),
		UseSSL:    envBool("ARCHIVE_S3_USE_SSL", false),
	}
}

// normalizePort accepts "8080" or ":8080" and returns the ":"-prefixed form.
func normalizePort(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, ":") {
		return v
	}
	return ":" + v
}

func parseModels(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
