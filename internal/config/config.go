package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	StorageFS     = "fs"
	StorageS3     = "s3"
	StorageStdout = "stdout"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// JMA source.
	JMABaseURL      string
	JMATelopsURL    string
	FetchTimeout    time.Duration
	FetchInterval   time.Duration
	FetchMaxRetries int
	Concurrency     int
	SkipOffices     []string
	TelopsPath      string

	// Output.
	StorageBackend string
	OutputDir      string
	BucketName     string
	S3PublicRead   bool
	PublicURL      string

	// Publication notices. Disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	// Schedule is a cron expression; empty means run once and exit.
	Schedule string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "10s", false)
	if err != nil {
		return nil, err
	}
	fetchInterval, err := parseDuration("FETCH_INTERVAL", "1s", true)
	if err != nil {
		return nil, err
	}
	maxRetries, err := parseInt("FETCH_MAX_RETRIES", 2, 0)
	if err != nil {
		return nil, err
	}
	concurrency, err := parseInt("CONCURRENCY", 4, 1)
	if err != nil {
		return nil, err
	}
	publicRead, err := strconv.ParseBool(sharedcfg.EnvOrDefault("S3_PUBLIC_READ", "true"))
	if err != nil {
		return nil, errors.New("invalid S3_PUBLIC_READ")
	}

	baseURL := strings.TrimRight(sharedcfg.EnvOrDefault("JMA_BASE_URL", "https://www.jma.go.jp/bosai"), "/")

	cfg := &Config{
		JMABaseURL:      baseURL,
		JMATelopsURL:    sharedcfg.EnvOrDefault("JMA_TELOPS_URL", baseURL+"/"),
		FetchTimeout:    fetchTimeout,
		FetchInterval:   fetchInterval,
		FetchMaxRetries: maxRetries,
		Concurrency:     concurrency,
		SkipOffices:     splitList(sharedcfg.EnvOrDefault("SKIP_OFFICES", "014030,460040")),
		TelopsPath:      sharedcfg.EnvOrDefault("TELOPS_PATH", "constants/weather_codes.yml"),

		StorageBackend: sharedcfg.EnvOrDefault("STORAGE_BACKEND", defaultBackend()),
		OutputDir:      sharedcfg.EnvOrDefault("OUTPUT_DIR", "public"),
		BucketName:     os.Getenv("BUCKET_NAME"),
		S3PublicRead:   publicRead,
		PublicURL:      strings.TrimRight(os.Getenv("PUBLIC_URL"), "/"),

		KafkaTopic: sharedcfg.EnvOrDefault("KAFKA_TOPIC", "weathercal-published"),
		Schedule:   strings.TrimSpace(os.Getenv("SCHEDULE")),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); strings.TrimSpace(brokers) != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	switch cfg.StorageBackend {
	case StorageS3:
		if cfg.BucketName == "" {
			return nil, errors.New("BUCKET_NAME is required for the s3 backend")
		}
	case StorageFS, StorageStdout:
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	return cfg, nil
}

// NotificationsEnabled reports whether publication notices go to Kafka.
func (c *Config) NotificationsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// DEBUG dumps every output to stdout instead of storing it.
func defaultBackend() string {
	if os.Getenv("DEBUG") != "" {
		return StorageStdout
	}
	return StorageFS
}

func parseDuration(name, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parseInt(name string, def, minimum int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s: must be an integer >= %d", name, minimum)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
