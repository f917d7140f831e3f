package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Inventory InventoryConfig
	Kanban    KanbanConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string `validate:"required"`
	Env  string `validate:"oneof=development test staging production"`
	Port string `validate:"required,numeric"`
}

// InventoryConfig holds the ERPNext connection settings
type InventoryConfig struct {
	BaseURL   string `validate:"required,url"`
	APIKey    string
	APISecret string
	Timeout   time.Duration `validate:"gt=0"`
}

// KanbanConfig holds card generation settings
type KanbanConfig struct {
	Concurrency   int    `validate:"min=1,max=64"`
	Ordering      string `validate:"oneof=input completion"`
	FallbackImage string // path to the image used when a photo is unavailable
	TitleMaxRunes int    `validate:"min=0"`
	DottedDivider bool
	OutputDir     string // CLI output directory
}

// CacheConfig holds the item lookup cache settings
type CacheConfig struct {
	Enabled bool
	Driver  string        `validate:"oneof=memory redis"`
	TTL     time.Duration `validate:"gte=0"`
	// MemoryFallback uses an in-memory cache when Redis cannot be reached
	MemoryFallback bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int `validate:"min=0,max=65535"`
	Password string
	DB       int `validate:"min=0"`
}

// StorageConfig holds generated document storage settings
type StorageConfig struct {
	Driver            string `validate:"oneof=none memory filesystem s3"`
	BasePath          string
	BaseURL           string
	Bucket            string
	Prefix            string
	Region            string
	Endpoint          string
	AccessKey         string
	SecretKey         string
	UsePathStyle      bool
	UseSSL            bool
	PresignExpiration time.Duration `validate:"gte=0"`
	// Retention is how long stored documents are kept; zero keeps them forever
	Retention       time.Duration `validate:"gte=0"`
	CleanupInterval time.Duration `validate:"gte=0"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"` // debug, info, warn, error
	Format string `validate:"oneof=json console"`          // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string
	Insecure          bool // Use insecure (non-TLS) connection (development only)
}

// legacyEnv maps config keys to the environment variables the first version
// of the tool read
var legacyEnv = map[string]string{
	"inventory.base_url":   "ERP_URL",
	"inventory.api_key":    "API_KEY",
	"inventory.api_secret": "API_SECRET",
}

type loadOptions struct {
	configFile string
	flags      map[string]*pflag.Flag
}

// Option customizes Load
type Option func(*loadOptions)

// WithConfigFile reads the given file instead of searching for config.toml
func WithConfigFile(path string) Option {
	return func(o *loadOptions) {
		o.configFile = path
	}
}

// WithFlag binds a command-line flag to a config key. A flag that was set
// takes precedence over the environment and the config file.
func WithFlag(key string, flag *pflag.Flag) Option {
	return func(o *loadOptions) {
		if flag != nil {
			o.flags[key] = flag
		}
	}
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Bound command-line flags
// 2. Environment variables with KANBAN_ prefix (e.g., KANBAN_INVENTORY_API_KEY)
// 3. Legacy variables ERP_URL, API_KEY, API_SECRET
// 4. config.toml
// 5. Built-in defaults
func Load(opts ...Option) (*Config, error) {
	o := &loadOptions{flags: make(map[string]*pflag.Flag)}
	for _, opt := range opts {
		opt(o)
	}

	v := viper.New()

	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/app")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
			// Config file not found is OK, we'll use defaults and env vars
		}
	}

	v.SetEnvPrefix("KANBAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := "KANBAN_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	for key, flag := range o.flags {
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Inventory: InventoryConfig{
			BaseURL:   strings.TrimRight(v.GetString("inventory.base_url"), "/"),
			APIKey:    v.GetString("inventory.api_key"),
			APISecret: v.GetString("inventory.api_secret"),
			Timeout:   v.GetDuration("inventory.timeout"),
		},
		Kanban: KanbanConfig{
			Concurrency:   v.GetInt("kanban.concurrency"),
			Ordering:      v.GetString("kanban.ordering"),
			FallbackImage: v.GetString("kanban.fallback_image"),
			TitleMaxRunes: v.GetInt("kanban.title_max_runes"),
			DottedDivider: v.GetBool("kanban.dotted_divider"),
			OutputDir:     v.GetString("kanban.output_dir"),
		},
		Cache: CacheConfig{
			Enabled: v.GetBool("cache.enabled"),
			Driver:  v.GetString("cache.driver"),
			TTL:     v.GetDuration("cache.ttl"),

			MemoryFallback: v.GetBool("cache.memory_fallback"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Storage: StorageConfig{
			Driver:            v.GetString("storage.driver"),
			BasePath:          v.GetString("storage.base_path"),
			BaseURL:           v.GetString("storage.base_url"),
			Bucket:            v.GetString("storage.bucket"),
			Prefix:            v.GetString("storage.prefix"),
			Region:            v.GetString("storage.region"),
			Endpoint:          v.GetString("storage.endpoint"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
			Retention:         v.GetDuration("storage.retention"),
			CleanupInterval:   v.GetDuration("storage.cleanup_interval"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}
	if !v.IsSet("cache.memory_fallback") {
		cfg.Cache.MemoryFallback = true
	}
	if !v.IsSet("kanban.dotted_divider") {
		cfg.Kanban.DottedDivider = true
	}
	if !v.IsSet("kanban.title_max_runes") {
		cfg.Kanban.TitleMaxRunes = 34
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "kanban"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "5000"
	}
	if cfg.Inventory.Timeout == 0 {
		cfg.Inventory.Timeout = 30 * time.Second
	}
	if cfg.Kanban.Concurrency == 0 {
		cfg.Kanban.Concurrency = 10
	}
	if cfg.Kanban.Ordering == "" {
		cfg.Kanban.Ordering = "input"
	}
	if cfg.Kanban.OutputDir == "" {
		cfg.Kanban.OutputDir = "."
	}
	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 10 * time.Minute
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "none"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./data/kanban"
	}
	if cfg.Storage.BaseURL == "" {
		cfg.Storage.BaseURL = "/api/v1/kanban/documents"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 15 * time.Minute
	}
	if cfg.Storage.CleanupInterval == 0 {
		cfg.Storage.CleanupInterval = time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// card generation waits on the inventory service, so writes get more time
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 2 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "kanban"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config %s: failed %q check (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Storage.Driver == "s3" {
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the s3 driver")
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return fmt.Errorf("storage.access_key and storage.secret_key are required for the s3 driver")
		}
	}
	if c.Cache.Enabled && c.Cache.Driver == "redis" && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required for the redis cache driver")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Inventory.APIKey == "" || c.Inventory.APISecret == "" {
			return fmt.Errorf("inventory.api_key and inventory.api_secret are required in production")
		}
		if !strings.HasPrefix(c.Inventory.BaseURL, "https://") {
			return fmt.Errorf("inventory.base_url must use https in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// Address returns the HTTP listen address
func (a AppConfig) Address() string {
	return ":" + a.Port
}
