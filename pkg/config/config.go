// Package config 提供 TOML 配置加载、环境变量覆盖与校验
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 基础配置结构
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// 数据库配置
	Database DatabaseConfig `mapstructure:"database"`
	// MongoDB 配置（订单文档存储）
	Mongo MongoConfig `mapstructure:"mongo"`
	// Redis 配置
	Redis RedisConfig `mapstructure:"redis"`
	// Kafka 配置
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
	// 追踪配置
	Tracing TracingConfig `mapstructure:"tracing"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
	// 限流配置
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	// 认证配置
	Auth AuthConfig `mapstructure:"auth"`
	// 购物车配置
	Cart CartConfig `mapstructure:"cart"`
	// 支付配置
	Payment PaymentConfig `mapstructure:"payment"`
	// 结算配置
	Checkout CheckoutConfig `mapstructure:"checkout"`
	// 订单配置
	Order OrderConfig `mapstructure:"order"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 驱动：mysql, postgres
	Driver             string `mapstructure:"driver"`
	DSN                string `mapstructure:"dsn"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime    int    `mapstructure:"conn_max_lifetime"`
	LogEnabled         bool   `mapstructure:"log_enabled"`
	SlowQueryThreshold int    `mapstructure:"slow_query_threshold"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	MaxPoolSize  int    `mapstructure:"max_pool_size"`
	ConnTimeout  int    `mapstructure:"conn_timeout"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	// 为空时不发布领域事件
	Brokers      []string `mapstructure:"brokers"`
	MaxRetries   int      `mapstructure:"max_retries"`
	RetryBackoff int      `mapstructure:"retry_backoff"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	WithCaller bool   `mapstructure:"with_caller"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	SamplingRate      float64 `mapstructure:"sampling_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	QPS     int  `mapstructure:"qps"`
	Burst   int  `mapstructure:"burst"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	// JWT 签名密钥
	JWTSecret string `mapstructure:"jwt_secret"`
	// 会话有效期（小时）
	SessionTTLHours int `mapstructure:"session_ttl_hours"`
	// bcrypt cost
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// SessionTTL 会话有效期
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLHours) * time.Hour
}

// CartConfig 购物车配置
type CartConfig struct {
	// 持久化镜像：cookie 或 redis
	Mirror string `mapstructure:"mirror"`
	// 镜像保留天数
	TTLDays int `mapstructure:"ttl_days"`
	// cookie 名称
	CookieName string `mapstructure:"cookie_name"`
	// cookie 是否仅 HTTPS
	CookieSecure bool `mapstructure:"cookie_secure"`
}

// TTL 镜像保留时长
func (c CartConfig) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

// PaymentConfig 支付配置
type PaymentConfig struct {
	// 模式：stripe 直连，remote 通过支付服务
	Mode string `mapstructure:"mode"`
	// Stripe 密钥
	StripeSecretKey string `mapstructure:"stripe_secret_key"`
	// 币种（ISO 4217 小写）
	Currency string `mapstructure:"currency"`
	// 支付服务地址（remote 模式）
	Endpoint string `mapstructure:"endpoint"`
	// 服务间凭证，storefront 调用支付服务与支付服务退款接口共用
	InternalToken string `mapstructure:"internal_token"`
	// 3DS 等跳转的返回地址
	ReturnURL string `mapstructure:"return_url"`
	// 请求超时（秒）
	Timeout int `mapstructure:"timeout"`
}

// CheckoutConfig 结算配置
type CheckoutConfig struct {
	// 单步外部调用超时（秒）
	StepTimeout int `mapstructure:"step_timeout"`
	// 订单持久化最大尝试次数
	PersistAttempts int `mapstructure:"persist_attempts"`
	// 持久化重试初始间隔（毫秒）
	PersistBackoff int `mapstructure:"persist_backoff"`
	// 结算锁有效期（秒），须大于单次结算最长耗时
	LockTTL int `mapstructure:"lock_ttl"`
}

// maxRunSeconds 单次结算耗时上界：每步超时之和加上持久化重试等待（单次最多 7.5 秒）
func (c CheckoutConfig) maxRunSeconds() int {
	return c.StepTimeout*(c.PersistAttempts+7) + 8*(c.PersistAttempts-1)
}

// OrderConfig 订单配置
type OrderConfig struct {
	// 订单存储：sql 或 mongo
	Store string `mapstructure:"store"`
}

// Load 从 TOML 文件加载配置，支持环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults 从 TOML 文件加载配置，文件不存在时只使用默认值
func LoadWithDefaults(configPath string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// 读取配置文件（如果不存在则忽略）
	_ = v.ReadInConfig()

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// 自动绑定环境变量（使用 _ 替代 .）
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	switch c.Cart.Mirror {
	case "cookie", "redis":
	default:
		return fmt.Errorf("unsupported cart mirror: %s", c.Cart.Mirror)
	}
	switch c.Payment.Mode {
	case "stripe", "remote":
	default:
		return fmt.Errorf("unsupported payment mode: %s", c.Payment.Mode)
	}
	if c.Payment.Mode == "remote" && c.Payment.Endpoint == "" {
		return fmt.Errorf("payment endpoint is required in remote mode")
	}
	if c.Payment.Mode == "remote" && c.Payment.InternalToken == "" {
		return fmt.Errorf("payment internal_token is required in remote mode")
	}
	switch c.Order.Store {
	case "sql":
	case "mongo":
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo uri is required when order store is mongo")
		}
	default:
		return fmt.Errorf("unsupported order store: %s", c.Order.Store)
	}
	if c.Checkout.PersistAttempts < 1 {
		return fmt.Errorf("checkout persist_attempts must be positive")
	}
	if c.Checkout.StepTimeout <= 0 {
		return fmt.Errorf("checkout step_timeout must be positive")
	}
	if budget := c.Checkout.maxRunSeconds(); c.Checkout.LockTTL <= budget {
		return fmt.Errorf("checkout lock_ttl %ds must exceed the worst-case run of %ds", c.Checkout.LockTTL, budget)
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "dev")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.log_enabled", false)
	v.SetDefault("database.slow_query_threshold", 1000)

	v.SetDefault("mongo.database", "musicstore")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.conn_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/app.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", true)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.collector_endpoint", "localhost:4317")
	v.SetDefault("tracing.sampling_rate", 1.0)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.qps", 50)
	v.SetDefault("rate_limit.burst", 100)

	v.SetDefault("auth.session_ttl_hours", 24)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("cart.mirror", "cookie")
	v.SetDefault("cart.ttl_days", 7)
	v.SetDefault("cart.cookie_name", "cartItems")
	v.SetDefault("cart.cookie_secure", false)

	v.SetDefault("payment.mode", "stripe")
	v.SetDefault("payment.currency", "jpy")
	v.SetDefault("payment.return_url", "http://localhost:3000/confirmation")
	v.SetDefault("payment.timeout", 15)

	v.SetDefault("checkout.step_timeout", 20)
	v.SetDefault("checkout.persist_attempts", 5)
	v.SetDefault("checkout.persist_backoff", 200)
	v.SetDefault("checkout.lock_ttl", 300)

	v.SetDefault("order.store", "sql")
}

// GetEnv 获取环境变量，支持默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
