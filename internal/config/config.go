package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds application level configuration. It is built once at start and passed to constructors.
type Config struct {
	ServerPort  string `yaml:"server_port"`
	DBDriver    string `yaml:"db_driver"`
	MySQLDSN    string `yaml:"mysql_dsn"`
	SQLitePath  string `yaml:"sqlite_path"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisDB     int    `yaml:"redis_db"`
	RedisPass   string `yaml:"redis_password"`
	JWTSecret   string `yaml:"jwt_secret"`
	SwaggerHost string `yaml:"swagger_host"`
	LogLevel    string `yaml:"log_level"`
	CronSecret  string `yaml:"cron_secret"`

	Order     OrderConfig     `yaml:"order"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Captcha   CaptchaConfig   `yaml:"captcha"`
	Payment   PaymentConfig   `yaml:"payment"`
	Kafka     KafkaConfig     `yaml:"kafka"`

	NotifyTimeoutSec int   `yaml:"notify_timeout_sec"`
	SnowflakeNode    int64 `yaml:"snowflake_node"`
}

// OrderConfig holds the reservation and expiry thresholds.
type OrderConfig struct {
	PendingTimeoutMinutes  int    `yaml:"pending_timeout_minutes"`
	MaxPendingPerIP        int    `yaml:"max_pending_per_ip"`
	AmountCeilingRaw       string `yaml:"amount_ceiling"`
	OrderNoAttempts        int    `yaml:"order_no_attempts"`
	LookupCompletesPending bool   `yaml:"lookup_completes_pending"`
	SweepBatchSize         int    `yaml:"sweep_batch_size"`

	// AmountCeiling is parsed from AmountCeilingRaw by Load.
	AmountCeiling decimal.Decimal `yaml:"-"`
}

// PendingTimeout returns the age after which a PENDING order expires.
func (o OrderConfig) PendingTimeout() time.Duration {
	return time.Duration(o.PendingTimeoutMinutes) * time.Minute
}

// RateLimitConfig configures the points-per-window guard on public order endpoints.
type RateLimitConfig struct {
	Backend   string `yaml:"backend"`
	Points    int    `yaml:"points"`
	WindowSec int    `yaml:"window_sec"`
}

// Window returns the limiter window.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSec) * time.Second
}

// CaptchaConfig configures the bot challenge. An empty secret disables it.
type CaptchaConfig struct {
	Secret    string `yaml:"secret"`
	VerifyURL string `yaml:"verify_url"`
}

// PaymentConfig groups the payment providers.
type PaymentConfig struct {
	DefaultProvider string       `yaml:"default_provider"`
	Alipay          AlipayConfig `yaml:"alipay"`
	Wechat          WechatConfig `yaml:"wechat"`
}

// AlipayConfig configures Alipay page pay. Keys are PEM strings.
type AlipayConfig struct {
	AppID      string `yaml:"app_id"`
	PrivateKey string `yaml:"private_key"`
	PublicKey  string `yaml:"public_key"`
	Gateway    string `yaml:"gateway"`
	NotifyURL  string `yaml:"notify_url"`
	ReturnURL  string `yaml:"return_url"`
}

// WechatConfig configures WeChat Native pay.
type WechatConfig struct {
	MchID          string `yaml:"mch_id"`
	AppID          string `yaml:"app_id"`
	SerialNo       string `yaml:"serial_no"`
	PrivateKeyPath string `yaml:"private_key_path"`
	APIv3Key       string `yaml:"apiv3_key"`
	NotifyURL      string `yaml:"notify_url"`
}

// KafkaConfig configures the notification event transport. No brokers means notifications are only logged.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// NotifyTimeout returns the deadline given to each background notification.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.NotifyTimeoutSec) * time.Second
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		ServerPort: "8080",
		DBDriver:   "mysql",
		MySQLDSN:   "user:password@tcp(localhost:3306)/cardshop?charset=utf8mb4&parseTime=True&loc=Local",
		SQLitePath: "cardshop.db",
		RedisAddr:  "localhost:6379",
		JWTSecret:  "change-me",
		LogLevel:   "info",
		Order: OrderConfig{
			PendingTimeoutMinutes:  30,
			MaxPendingPerIP:        3,
			AmountCeilingRaw:       "100000.00",
			OrderNoAttempts:        3,
			LookupCompletesPending: true,
			SweepBatchSize:         500,
		},
		RateLimit: RateLimitConfig{
			Backend:   "redis",
			Points:    10,
			WindowSec: 60,
		},
		Captcha: CaptchaConfig{
			VerifyURL: "https://challenges.cloudflare.com/turnstile/v0/siteverify",
		},
		Payment: PaymentConfig{
			Alipay: AlipayConfig{Gateway: "https://openapi.alipay.com/gateway.do"},
		},
		Kafka:            KafkaConfig{Topic: "cardshop.notifications"},
		NotifyTimeoutSec: 10,
		SnowflakeNode:    1,
	}
}

// Load builds Config from defaults, the optional CONFIG_FILE yaml and the environment, in that order.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.MySQLDSN = getEnv("MYSQL_DSN", cfg.MySQLDSN)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPass = getEnv("REDIS_PASSWORD", cfg.RedisPass)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.SwaggerHost = getEnv("SWAGGER_HOST", cfg.SwaggerHost)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.CronSecret = getEnv("CRON_SECRET", cfg.CronSecret)

	cfg.Order.AmountCeilingRaw = getEnv("ORDER_AMOUNT_CEILING", cfg.Order.AmountCeilingRaw)
	cfg.RateLimit.Backend = getEnv("RATE_LIMIT_BACKEND", cfg.RateLimit.Backend)

	cfg.Captcha.Secret = getEnv("CAPTCHA_SECRET", cfg.Captcha.Secret)
	cfg.Captcha.VerifyURL = getEnv("CAPTCHA_VERIFY_URL", cfg.Captcha.VerifyURL)

	cfg.Payment.DefaultProvider = getEnv("PAYMENT_DEFAULT_PROVIDER", cfg.Payment.DefaultProvider)
	cfg.Payment.Alipay.AppID = getEnv("ALIPAY_APP_ID", cfg.Payment.Alipay.AppID)
	cfg.Payment.Alipay.PrivateKey = getEnv("ALIPAY_PRIVATE_KEY", cfg.Payment.Alipay.PrivateKey)
	cfg.Payment.Alipay.PublicKey = getEnv("ALIPAY_PUBLIC_KEY", cfg.Payment.Alipay.PublicKey)
	cfg.Payment.Alipay.Gateway = getEnv("ALIPAY_GATEWAY", cfg.Payment.Alipay.Gateway)
	cfg.Payment.Alipay.NotifyURL = getEnv("ALIPAY_NOTIFY_URL", cfg.Payment.Alipay.NotifyURL)
	cfg.Payment.Alipay.ReturnURL = getEnv("ALIPAY_RETURN_URL", cfg.Payment.Alipay.ReturnURL)
	cfg.Payment.Wechat.MchID = getEnv("WECHAT_MCH_ID", cfg.Payment.Wechat.MchID)
	cfg.Payment.Wechat.AppID = getEnv("WECHAT_APP_ID", cfg.Payment.Wechat.AppID)
	cfg.Payment.Wechat.SerialNo = getEnv("WECHAT_SERIAL_NO", cfg.Payment.Wechat.SerialNo)
	cfg.Payment.Wechat.PrivateKeyPath = getEnv("WECHAT_PRIVATE_KEY_PATH", cfg.Payment.Wechat.PrivateKeyPath)
	cfg.Payment.Wechat.APIv3Key = getEnv("WECHAT_APIV3_KEY", cfg.Payment.Wechat.APIv3Key)
	cfg.Payment.Wechat.NotifyURL = getEnv("WECHAT_NOTIFY_URL", cfg.Payment.Wechat.NotifyURL)

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.Kafka.Brokers = splitCSV(brokers)
	}
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)

	ints := []struct {
		key string
		dst *int
	}{
		{"REDIS_DB", &cfg.RedisDB},
		{"PENDING_ORDER_TIMEOUT_MINUTES", &cfg.Order.PendingTimeoutMinutes},
		{"MAX_PENDING_ORDERS_PER_IP", &cfg.Order.MaxPendingPerIP},
		{"ORDER_NO_ATTEMPTS", &cfg.Order.OrderNoAttempts},
		{"SWEEP_BATCH_SIZE", &cfg.Order.SweepBatchSize},
		{"RATE_LIMIT_POINTS", &cfg.RateLimit.Points},
		{"RATE_LIMIT_WINDOW_SEC", &cfg.RateLimit.WindowSec},
		{"NOTIFY_TIMEOUT_SEC", &cfg.NotifyTimeoutSec},
	}
	for _, item := range ints {
		v, err := getEnvInt(item.key, *item.dst)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", item.key, err)
		}
		*item.dst = v
	}

	node, err := getEnvInt("SNOWFLAKE_NODE", int(cfg.SnowflakeNode))
	if err != nil {
		return fmt.Errorf("invalid SNOWFLAKE_NODE: %w", err)
	}
	cfg.SnowflakeNode = int64(node)

	completes, err := getEnvBool("LOOKUP_COMPLETES_PENDING", cfg.Order.LookupCompletesPending)
	if err != nil {
		return fmt.Errorf("invalid LOOKUP_COMPLETES_PENDING: %w", err)
	}
	cfg.Order.LookupCompletesPending = completes

	return nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be mysql or sqlite, got %q", c.DBDriver)
	}
	switch c.RateLimit.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be redis or memory, got %q", c.RateLimit.Backend)
	}

	ceiling, err := decimal.NewFromString(c.Order.AmountCeilingRaw)
	if err != nil {
		return fmt.Errorf("invalid ORDER_AMOUNT_CEILING: %w", err)
	}
	if !ceiling.IsPositive() {
		return fmt.Errorf("ORDER_AMOUNT_CEILING must be > 0")
	}
	c.Order.AmountCeiling = ceiling

	if c.Order.PendingTimeoutMinutes <= 0 {
		return fmt.Errorf("PENDING_ORDER_TIMEOUT_MINUTES must be > 0")
	}
	if c.Order.MaxPendingPerIP <= 0 {
		return fmt.Errorf("MAX_PENDING_ORDERS_PER_IP must be > 0")
	}
	if c.Order.OrderNoAttempts <= 0 {
		return fmt.Errorf("ORDER_NO_ATTEMPTS must be > 0")
	}
	if c.Order.SweepBatchSize <= 0 {
		return fmt.Errorf("SWEEP_BATCH_SIZE must be > 0")
	}
	if c.RateLimit.Points <= 0 {
		return fmt.Errorf("RATE_LIMIT_POINTS must be > 0")
	}
	if c.RateLimit.WindowSec <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SEC must be > 0")
	}
	if c.NotifyTimeoutSec <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT_SEC must be > 0")
	}
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		return fmt.Errorf("SNOWFLAKE_NODE must be between 0 and 1023")
	}
	if c.Kafka.Topic == "" {
		return fmt.Errorf("KAFKA_TOPIC must not be empty")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func getEnvBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
