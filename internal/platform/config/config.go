package config

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// WebhookEndpoint names one downstream workflow endpoint. Platform comes from
// the environment variable suffix: WEBHOOK_URL_N8N -> platform "n8n".
type WebhookEndpoint struct {
	Platform string
	URL      string
}

// Redis captures connection settings for the optional Redis-backed delivery log.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server captures all service-level configuration.
type Server struct {
	Addr                  string
	PostgresDSN           string
	Redis                 Redis
	JWTSigningKey         string
	ModeratorPasswordHash string
	WebhookEndpoints      []WebhookEndpoint
	WebhookTimeout        time.Duration
	ShutdownTimeout       time.Duration
}

const webhookURLPrefix = "WEBHOOK_URL_"

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	jwtSigningKey := getString("JWT_SIGNING_KEY", "")
	if jwtSigningKey == "" {
		// Development fallback; override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:                  getString("BLKOUT_ADDR", ":8080"),
		PostgresDSN:           getString("POSTGRES_DSN", ""),
		Redis:                 redisFromEnv(),
		JWTSigningKey:         jwtSigningKey,
		ModeratorPasswordHash: getString("MODERATOR_PASSWORD_HASH", ""),
		WebhookEndpoints:      webhooksFromEnv(os.Environ()),
		WebhookTimeout:        getDuration("WEBHOOK_TIMEOUT_SECONDS", 10*time.Second),
		ShutdownTimeout:       getDuration("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
	}
}

func redisFromEnv() Redis {
	return Redis{
		URL:          getString("REDIS_URL", ""),
		PoolSize:     getInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT_SECONDS", 5*time.Second),
		ReadTimeout:  getDuration("REDIS_READ_TIMEOUT_SECONDS", 3*time.Second),
		WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT_SECONDS", 3*time.Second),
	}
}

// webhooksFromEnv collects WEBHOOK_URL_<PLATFORM> variables into endpoints,
// sorted by platform for deterministic dispatch order.
func webhooksFromEnv(environ []string) []WebhookEndpoint {
	var endpoints []WebhookEndpoint
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		platform, ok := strings.CutPrefix(key, webhookURLPrefix)
		if !ok || platform == "" {
			continue
		}
		endpoints = append(endpoints, WebhookEndpoint{
			Platform: strings.ToLower(platform),
			URL:      strings.TrimRight(value, "/"),
		})
	}
	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i].Platform < endpoints[j].Platform })
	return endpoints
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(key string, defSeconds time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return defSeconds
}
