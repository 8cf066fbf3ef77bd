package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Store     StoreConfig
	JWT       JWTConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	Kiri      KiriConfig
	Webhook   WebhookConfig
	Sweep     SweepConfig
	R2        R2Config
	Zitadel   ZitadelConfig
	Gateway   GatewayConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Store backends
const (
	StoreBackendRedis  = "redis"
	StoreBackendSQLite = "sqlite"
)

type StoreConfig struct {
	Backend    string
	SQLitePath string
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type AdminConfig struct {
	Username string
	Password string
}

type RateLimitConfig struct {
	UploadPerHour int
	PollPerMin    int
}

type KiriConfig struct {
	APIKey        string
	BaseURL       string
	Timeout       int // seconds
	WebhookSecret string
	NotifyURL     string
}

type WebhookConfig struct {
	// AckOnError keeps answering 200 to the vendor when reconciliation of a
	// verified delivery fails, so the vendor does not retry.
	AckOnError bool
}

type SweepConfig struct {
	Enabled     bool
	Cron        string
	Concurrency int
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type ZitadelConfig struct {
	Domain   string
	ClientID string
	Issuer   string
}

type GatewayConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("ADMIN_PASSWORD")
	readSecret("KIRI_API_KEY")
	readSecret("KIRI_WEBHOOK_SECRET")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("ZITADEL_CLIENT_ID")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables
	v.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.api_domain", "API_DOMAIN")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("store.backend", "STORE_BACKEND")
	_ = v.BindEnv("store.sqlite_path", "STORE_SQLITE_PATH")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = v.BindEnv("admin.username", "ADMIN_USERNAME")
	_ = v.BindEnv("admin.password", "ADMIN_PASSWORD")
	_ = v.BindEnv("ratelimit.upload_per_hour", "RATELIMIT_UPLOAD_PER_HOUR")
	_ = v.BindEnv("ratelimit.poll_per_min", "RATELIMIT_POLL_PER_MIN")
	_ = v.BindEnv("kiri.api_key", "KIRI_API_KEY")
	_ = v.BindEnv("kiri.base_url", "KIRI_API_BASE_URL")
	_ = v.BindEnv("kiri.timeout", "KIRI_API_TIMEOUT")
	_ = v.BindEnv("kiri.webhook_secret", "KIRI_WEBHOOK_SECRET")
	_ = v.BindEnv("kiri.notify_url", "KIRI_NOTIFY_URL")
	_ = v.BindEnv("webhook.ack_on_error", "WEBHOOK_ACK_ON_ERROR")
	_ = v.BindEnv("sweep.enabled", "SWEEP_ENABLED")
	_ = v.BindEnv("sweep.cron", "SWEEP_CRON")
	_ = v.BindEnv("sweep.concurrency", "SWEEP_CONCURRENCY")
	_ = v.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = v.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = v.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = v.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = v.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = v.BindEnv("zitadel.domain", "ZITADEL_DOMAIN")
	_ = v.BindEnv("zitadel.client_id", "ZITADEL_CLIENT_ID")
	_ = v.BindEnv("zitadel.issuer", "ZITADEL_ISSUER")
	_ = v.BindEnv("gateway.enabled", "GATEWAY_ENABLED")

	// Defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("store.backend", StoreBackendRedis)
	v.SetDefault("store.sqlite_path", "./data/scanvault.db")
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expiration", 24*30)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("ratelimit.upload_per_hour", 20)
	v.SetDefault("ratelimit.poll_per_min", 120)

	// KIRI Engine defaults
	v.SetDefault("kiri.base_url", "https://api.kiriengine.app/api")
	v.SetDefault("kiri.timeout", 300)

	v.SetDefault("webhook.ack_on_error", true)

	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.cron", "@every 2m")
	v.SetDefault("sweep.concurrency", 4)

	// Gateway defaults
	v.SetDefault("gateway.enabled", false)

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      v.GetString("server.port"),
			Env:       v.GetString("server.env"),
			LogLevel:  v.GetString("server.log_level"),
			ApiDomain: v.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Store: StoreConfig{
			Backend:    strings.ToLower(v.GetString("store.backend")),
			SQLitePath: v.GetString("store.sqlite_path"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Expiration: v.GetInt("jwt.expiration"),
		},
		Admin: AdminConfig{
			Username: v.GetString("admin.username"),
			Password: v.GetString("admin.password"),
		},
		RateLimit: RateLimitConfig{
			UploadPerHour: v.GetInt("ratelimit.upload_per_hour"),
			PollPerMin:    v.GetInt("ratelimit.poll_per_min"),
		},
		Kiri: KiriConfig{
			APIKey:        v.GetString("kiri.api_key"),
			BaseURL:       strings.TrimRight(v.GetString("kiri.base_url"), "/"),
			Timeout:       v.GetInt("kiri.timeout"),
			WebhookSecret: v.GetString("kiri.webhook_secret"),
			NotifyURL:     v.GetString("kiri.notify_url"),
		},
		Webhook: WebhookConfig{
			AckOnError: v.GetBool("webhook.ack_on_error"),
		},
		Sweep: SweepConfig{
			Enabled:     v.GetBool("sweep.enabled"),
			Cron:        v.GetString("sweep.cron"),
			Concurrency: v.GetInt("sweep.concurrency"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.account_id"),
			AccessKeyID:     v.GetString("r2.access_key_id"),
			SecretAccessKey: v.GetString("r2.secret_access_key"),
			BucketName:      v.GetString("r2.bucket_name"),
			PublicURL:       v.GetString("r2.public_url"),
		},
		Zitadel: ZitadelConfig{
			Domain:   v.GetString("zitadel.domain"),
			ClientID: v.GetString("zitadel.client_id"),
			Issuer:   v.GetString("zitadel.issuer"),
		},
		Gateway: GatewayConfig{
			Enabled: v.GetBool("gateway.enabled"),
		},
	}

	return cfg, nil
}
