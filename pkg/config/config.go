package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Port        string
	Env         string
	AppName     string
	MetricsPort string

	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	PostgresURL   string

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	TrendingCacheTTL time.Duration

	NATSURL string

	GCSBucket          string
	GCSCredentialsPath string
	ImageStoreTimeout  time.Duration

	FirebaseCredentialsPath string
	JWTSecret               string
	JWTTTL                  time.Duration

	FeedNetworkRatio    float64
	MutationMaxAttempts int
	ShutdownTimeout     time.Duration
}

// Load reads configuration from the environment, after loading an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		AppName:     getEnv("APP_NAME", "nano-feed"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),

		StoreDriver:   getEnv("STORE_DRIVER", DriverMongo),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "socialmedia"),
		PostgresURL:   getEnv("POSTGRES_CONN_STR", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		NATSURL:       getEnv("NATS_URL", ""),

		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentialsPath: getEnv("GCS_CREDENTIALS_JSON", ""),

		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	cfg.RedisDB = getInt("REDIS_DB", 0, collect)
	cfg.TrendingCacheTTL = getDuration("TRENDING_CACHE_TTL", 30*time.Second, collect)
	cfg.ImageStoreTimeout = getDuration("IMAGE_STORE_TIMEOUT", 20*time.Second, collect)
	cfg.JWTTTL = getDuration("JWT_TTL", 72*time.Hour, collect)
	cfg.FeedNetworkRatio = getFloat("FEED_NETWORK_RATIO", 0.3, collect)
	cfg.MutationMaxAttempts = getInt("MUTATION_MAX_ATTEMPTS", 3, collect)
	cfg.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second, collect)

	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.JWTSecret = "supersecretjwtkey"
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.FeedNetworkRatio <= 0 || c.FeedNetworkRatio > 1 {
		errs = append(errs, fmt.Errorf("FEED_NETWORK_RATIO must be in (0, 1], got %v", c.FeedNetworkRatio))
	}
	if c.MutationMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("MUTATION_MAX_ATTEMPTS must be positive, got %d", c.MutationMaxAttempts))
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when STORE_DRIVER=mongo"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMongo, DriverMemory, c.StoreDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}
	if c.ImageStoreTimeout <= 0 {
		errs = append(errs, errors.New("IMAGE_STORE_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int, report func(error)) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		report(fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func getFloat(key string, defaultValue float64, report func(error)) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		report(fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration, report func(error)) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		report(fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}
