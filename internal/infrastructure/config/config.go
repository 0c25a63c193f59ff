package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	Drafts    DraftsConfig
	Editor    EditorConfig
	Pricing   PricingConfig
	Workflow  WorkflowConfig
	Printing  PrintingConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int    // in minutes
	ConnMaxIdleTime int    // in minutes
	MigrationsPath  string // empty uses the migrations embedded in the binary
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	IdleTimeout             time.Duration
	MaxHeaderBytes          int
	MaxBodySize             int64
	RateLimitEnabled        bool
	RateLimitRequests       int
	RateLimitWindow         time.Duration
	SubmitRateLimitRequests int // stricter limit for submission endpoints
	SubmitRateLimitWindow   time.Duration
	CORSAllowOrigins        []string
	CORSAllowMethods        []string
	CORSAllowHeaders        []string
	TrustedProxies          []string
}

// StorageConfig holds object storage settings for uploaded graphics
type StorageConfig struct {
	Driver          string // s3 or stub
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PublicBaseURL   string
	PresignExpiry   time.Duration
}

// DraftsConfig selects the durable draft store
type DraftsConfig struct {
	Backend    string // sqlite, postgres, redis or memory
	SQLitePath string
	TTL        time.Duration // redis only
}

// EditorConfig holds editor session settings
type EditorConfig struct {
	SessionIdleTimeout time.Duration
	SweepInterval      time.Duration
}

// PricingConfig holds pricing settings
type PricingConfig struct {
	Currency          string
	Locale            string
	StickerCatalogURL string
	BasePrices        map[string]int64 // overrides of the estimate's base price per merchandise type
}

// WorkflowConfig holds approval workflow settings
type WorkflowConfig struct {
	MaxUploadBytes   int64
	SubmitGuardTTL   time.Duration
	ThumbnailWidth   int
	ThumbnailQuality int
}

// PrintingConfig holds proof sheet rendering settings
type PrintingConfig struct {
	ChromePath    string
	RenderTimeout time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string  // OTLP gRPC endpoint, e.g. "localhost:4317"
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool
	MetricsEnabled    bool
	LogsEnabled       bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	ProfilingEnabled  bool
	ProfilingEndpoint string
}

var merchTypes = []string{"tshirt", "longsleeve", "hoodie", "trouser", "short", "hat"}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with BYOM_ prefix (e.g., BYOM_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("BYOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	basePrices := make(map[string]int64)
	for _, mt := range merchTypes {
		key := "pricing.base_prices." + mt
		if v.IsSet(key) {
			basePrices[mt] = v.GetInt64(key)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			MigrationsPath:  v.GetString("database.migrations_path"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:             v.GetDuration("http.read_timeout"),
			WriteTimeout:            v.GetDuration("http.write_timeout"),
			IdleTimeout:             v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:          v.GetInt("http.max_header_bytes"),
			MaxBodySize:             v.GetInt64("http.max_body_size"),
			RateLimitEnabled:        v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests:       v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:         v.GetDuration("http.rate_limit_window"),
			SubmitRateLimitRequests: v.GetInt("http.submit_rate_limit_requests"),
			SubmitRateLimitWindow:   v.GetDuration("http.submit_rate_limit_window"),
			CORSAllowOrigins:        v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:        v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:        v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:          v.GetStringSlice("http.trusted_proxies"),
		},
		Storage: StorageConfig{
			Driver:          v.GetString("storage.driver"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			PublicBaseURL:   v.GetString("storage.public_base_url"),
			PresignExpiry:   v.GetDuration("storage.presign_expiry"),
		},
		Drafts: DraftsConfig{
			Backend:    v.GetString("drafts.backend"),
			SQLitePath: v.GetString("drafts.sqlite_path"),
			TTL:        v.GetDuration("drafts.ttl"),
		},
		Editor: EditorConfig{
			SessionIdleTimeout: v.GetDuration("editor.session_idle_timeout"),
			SweepInterval:      v.GetDuration("editor.sweep_interval"),
		},
		Pricing: PricingConfig{
			Currency:          v.GetString("pricing.currency"),
			Locale:            v.GetString("pricing.locale"),
			StickerCatalogURL: v.GetString("pricing.sticker_catalog_url"),
			BasePrices:        basePrices,
		},
		Workflow: WorkflowConfig{
			MaxUploadBytes:   v.GetInt64("workflow.max_upload_bytes"),
			SubmitGuardTTL:   v.GetDuration("workflow.submit_guard_ttl"),
			ThumbnailWidth:   v.GetInt("workflow.thumbnail_width"),
			ThumbnailQuality: v.GetInt("workflow.thumbnail_quality"),
		},
		Printing: PrintingConfig{
			ChromePath:    v.GetString("printing.chrome_path"),
			RenderTimeout: v.GetDuration("printing.render_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			ProfilingEndpoint: v.GetString("telemetry.profiling_endpoint"),
		},
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
		cfg.App.Name = "byom-service"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "byom"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 24 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "byom-service"
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
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 50 << 20 // several 10MB uploads per request
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 300
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.SubmitRateLimitRequests == 0 {
		cfg.HTTP.SubmitRateLimitRequests = 10
	}
	if cfg.HTTP.SubmitRateLimitWindow == 0 {
		cfg.HTTP.SubmitRateLimitWindow = time.Minute
	}
	// CORS origins stay empty until configured
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "Idempotency-Key"}
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "stub"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "byom-uploads"
	}
	if cfg.Storage.PresignExpiry == 0 {
		cfg.Storage.PresignExpiry = 15 * time.Minute
	}
	if cfg.Drafts.Backend == "" {
		cfg.Drafts.Backend = "sqlite"
	}
	if cfg.Drafts.SQLitePath == "" {
		cfg.Drafts.SQLitePath = "byom-drafts.db"
	}
	if cfg.Drafts.TTL == 0 {
		cfg.Drafts.TTL = 30 * 24 * time.Hour
	}
	if cfg.Editor.SessionIdleTimeout == 0 {
		cfg.Editor.SessionIdleTimeout = 2 * time.Hour
	}
	if cfg.Editor.SweepInterval == 0 {
		cfg.Editor.SweepInterval = 5 * time.Minute
	}
	if cfg.Pricing.Currency == "" {
		cfg.Pricing.Currency = "USD"
	}
	if cfg.Pricing.Locale == "" {
		cfg.Pricing.Locale = "en-US"
	}
	if cfg.Pricing.StickerCatalogURL == "" {
		cfg.Pricing.StickerCatalogURL = "/static/stickers"
	}
	if cfg.Workflow.MaxUploadBytes == 0 {
		cfg.Workflow.MaxUploadBytes = 10 << 20
	}
	if cfg.Workflow.SubmitGuardTTL == 0 {
		cfg.Workflow.SubmitGuardTTL = 24 * time.Hour
	}
	if cfg.Workflow.ThumbnailWidth == 0 {
		cfg.Workflow.ThumbnailWidth = 256
	}
	if cfg.Workflow.ThumbnailQuality == 0 {
		cfg.Workflow.ThumbnailQuality = 80
	}
	if cfg.Printing.RenderTimeout == 0 {
		cfg.Printing.RenderTimeout = 30 * time.Second
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.ProfilingEndpoint == "" {
		cfg.Telemetry.ProfilingEndpoint = "http://localhost:4040"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Drafts.Backend {
	case "sqlite", "postgres", "memory":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("drafts.backend=redis requires redis.enabled=true")
		}
	default:
		return fmt.Errorf("drafts.backend must be one of sqlite, postgres, redis, memory, got %q", c.Drafts.Backend)
	}

	switch c.Storage.Driver {
	case "s3", "stub":
	default:
		return fmt.Errorf("storage.driver must be s3 or stub, got %q", c.Storage.Driver)
	}

	if c.Workflow.MaxUploadBytes < 0 || c.Workflow.MaxUploadBytes > 10<<20 {
		return fmt.Errorf("workflow.max_upload_bytes must be between 1 and %d", 10<<20)
	}
	if c.Workflow.ThumbnailQuality < 1 || c.Workflow.ThumbnailQuality > 100 {
		return fmt.Errorf("workflow.thumbnail_quality must be between 1 and 100")
	}

	for mt, price := range c.Pricing.BasePrices {
		if price < 0 {
			return fmt.Errorf("pricing.base_prices.%s cannot be negative", mt)
		}
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Storage.Driver == "stub" {
			return fmt.Errorf("storage.driver cannot be 'stub' in production")
		}
		if c.Drafts.Backend == "memory" {
			return fmt.Errorf("drafts.backend cannot be 'memory' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
