package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	API        APIConfig
	Session    SessionConfig
	Kafka      KafkaConfig
	Observ     ObservabilityConfig
	Storefront StorefrontConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

// APIConfig describes the remote marketplace REST API.
type APIConfig struct {
	BaseURL      string
	AssetBaseURL string
	Timeout      time.Duration
}

type SessionConfig struct {
	Backend       string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Key           string
}

type KafkaConfig struct {
	Brokers       []string
	TopicActivity string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
}

type StorefrontConfig struct {
	InstitutionDomain string
	PlaceholderImage  string
	ProductRetries    int
	RetryDelay        time.Duration
	BadgeInterval     time.Duration
	PageSize          int
}

func Load() *Config {
	_ = godotenv.Load()

	timeout, _ := strconv.Atoi(getEnv("API_TIMEOUT_SECONDS", "10"))
	redisDB, _ := strconv.Atoi(getEnv("SESSION_REDIS_DB", "0"))
	retries, _ := strconv.Atoi(getEnv("PRODUCT_RETRIES", "2"))
	retryDelay, _ := strconv.Atoi(getEnv("PRODUCT_RETRY_DELAY_MS", "1000"))
	badgeInterval, _ := strconv.Atoi(getEnv("BADGE_INTERVAL_SECONDS", "30"))
	pageSize, _ := strconv.Atoi(getEnv("PAGE_SIZE", "12"))

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		API: APIConfig{
			BaseURL:      strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5000/api"), "/"),
			AssetBaseURL: strings.TrimRight(getEnv("ASSET_BASE_URL", "http://localhost:5000"), "/"),
			Timeout:      time.Duration(timeout) * time.Second,
		},
		Session: SessionConfig{
			Backend:       getEnv("SESSION_BACKEND", "file"),
			Path:          getEnv("SESSION_PATH", defaultSessionPath()),
			RedisAddr:     getEnv("SESSION_REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("SESSION_REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
			Key:           getEnv("SESSION_KEY", "default"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(getEnv("KAFKA_BROKERS", "")),
			TopicActivity: getEnv("KAFKA_TOPIC_ACTIVITY", "storefront-activity"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		},
		Storefront: StorefrontConfig{
			InstitutionDomain: getEnv("INSTITUTION_EMAIL_DOMAIN", "mavs.uta.edu"),
			PlaceholderImage:  getEnv("PLACEHOLDER_IMAGE", "/images/placeholder.png"),
			ProductRetries:    retries,
			RetryDelay:        time.Duration(retryDelay) * time.Millisecond,
			BadgeInterval:     time.Duration(badgeInterval) * time.Second,
			PageSize:          pageSize,
		},
	}

	log.Printf("Config loaded: env=%s, port=%s, api=%s", cfg.Server.Env, cfg.Server.Port, cfg.API.BaseURL)
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".storefront-session.json"
	}
	return dir + "/uta-marketplace/session.json"
}
