package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // dev/prod

	DatabaseURL      string // あれば POSTGRES_* より優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string
	MigrateOnStart   bool

	JWTSecret string        // JWT署名シークレット
	AccessTTL time.Duration // アクセストークンの有効期限

	LogLevel  string
	LogFormat string

	// 空ならプロセス内のバケット
	RedisURL             string
	RateLimitCapacity    int
	RateLimitRefill      int
	RateLimitRefillEvery time.Duration

	// SMTPHost が空ならログ出力だけ
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	NotifyWorkers   int
	NotifyQueueSize int
}

// .env（あれば）と環境変数から読み込む
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	// 無くてもよい
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Port:  v.GetString("PORT"),
		GoEnv: v.GetString("GO_ENV"),

		DatabaseURL:      v.GetString("DATABASE_URL"),
		PostgresUser:     v.GetString("POSTGRES_USER"),
		PostgresPassword: v.GetString("POSTGRES_PASSWORD"),
		PostgresDB:       v.GetString("POSTGRES_DB"),
		PostgresHost:     v.GetString("POSTGRES_HOST"),
		PostgresPort:     v.GetInt("POSTGRES_PORT"),
		PostgresSSLMode:  v.GetString("POSTGRES_SSLMODE"),
		MigrateOnStart:   v.GetBool("MIGRATE_ON_START"),

		JWTSecret: v.GetString("JWT_SECRET"),
		AccessTTL: v.GetDuration("JWT_ACCESS_TTL"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		RedisURL:             v.GetString("REDIS_URL"),
		RateLimitCapacity:    v.GetInt("RATE_LIMIT_CAPACITY"),
		RateLimitRefill:      v.GetInt("RATE_LIMIT_REFILL_TOKENS"),
		RateLimitRefillEvery: time.Duration(v.GetInt("RATE_LIMIT_REFILL_SECONDS")) * time.Second,

		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUsername: v.GetString("SMTP_USERNAME"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		SMTPFrom:     v.GetString("SMTP_FROM"),

		NotifyWorkers:   v.GetInt("NOTIFY_WORKERS"),
		NotifyQueueSize: v.GetInt("NOTIFY_QUEUE_SIZE"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "dev")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DB", "shopping")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RATE_LIMIT_CAPACITY", 100)
	v.SetDefault("RATE_LIMIT_REFILL_TOKENS", 100)
	v.SetDefault("RATE_LIMIT_REFILL_SECONDS", 60)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "no-reply@shopping.local")
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_QUEUE_SIZE", 100)
}

func (c Config) validate() error {
	//必須チェック
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.RateLimitCapacity <= 0 || c.RateLimitRefill <= 0 || c.RateLimitRefillEvery <= 0 {
		return errors.New("RATE_LIMIT_* must be positive")
	}
	if c.NotifyWorkers <= 0 {
		return errors.New("NOTIFY_WORKERS must be positive")
	}
	if c.NotifyQueueSize < 0 {
		return errors.New("NOTIFY_QUEUE_SIZE must not be negative")
	}
	if c.AccessTTL <= 0 {
		return errors.New("JWT_ACCESS_TTL must be positive")
	}
	return nil
}

// DATABASE_URL が無ければ POSTGRES_* から組み立てる
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// ":8080" 形式
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func (c Config) IsProduction() bool {
	return c.GoEnv == "production" || c.GoEnv == "prod"
}
