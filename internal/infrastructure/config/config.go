package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Log         LogConfig
	DataService DataServiceConfig
	Redis       RedisConfig
	Dashboard   DashboardConfig
	HTTP        HTTPConfig
	Telemetry   TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DataServiceConfig points at the REST service that owns customers,
// products, suppliers and sales.
type DataServiceConfig struct {
	BaseURL            string
	Timeout            time.Duration
	RetryCount         int
	RetryWait          time.Duration
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// RedisConfig holds Redis connection settings. When disabled the dashboard
// cache is kept in memory.
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

// DashboardConfig sizes and schedules the statistics dashboard
type DashboardConfig struct {
	Timezone          string
	LowStockThreshold int
	WeeklyBuckets     int
	MonthlyBuckets    int
	YearlyBuckets     int
	TopProductsLimit  int
	CacheTTL          time.Duration
	RefreshCron       string // empty disables the refresh job
	ChartLang         string // BCP 47 tag for chart display values
}

// Location resolves Timezone; "Local" is the process time zone
func (d DashboardConfig) Location() (*time.Location, error) {
	if d.Timezone == "" || d.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(d.Timezone)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	CORSAllowOrigins []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable tracing
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string
	Insecure          bool // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool
	MetricsInterval   time.Duration
}

var validEnvs = map[string]bool{"development": true, "staging": true, "production": true}

// Load loads configuration.
// Priority (highest to lowest):
// 1. Environment variables with RETAIL_ prefix (e.g., RETAIL_DATASERVICE_BASE_URL)
// 2. Variables from a .env file in the working directory
// 3. config.yaml in . or ./config
// 4. Built-in defaults
func Load() (*Config, error) {
	// .env never overrides variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("RETAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := fromViper(v)
	applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		DataService: DataServiceConfig{
			BaseURL:            v.GetString("dataservice.base_url"),
			Timeout:            v.GetDuration("dataservice.timeout"),
			RetryCount:         v.GetInt("dataservice.retry_count"),
			RetryWait:          v.GetDuration("dataservice.retry_wait"),
			BreakerMaxFailures: v.GetUint32("dataservice.breaker_max_failures"),
			BreakerTimeout:     v.GetDuration("dataservice.breaker_timeout"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Dashboard: DashboardConfig{
			Timezone:          v.GetString("dashboard.timezone"),
			LowStockThreshold: v.GetInt("dashboard.low_stock_threshold"),
			WeeklyBuckets:     v.GetInt("dashboard.weekly_buckets"),
			MonthlyBuckets:    v.GetInt("dashboard.monthly_buckets"),
			YearlyBuckets:     v.GetInt("dashboard.yearly_buckets"),
			TopProductsLimit:  v.GetInt("dashboard.top_products_limit"),
			CacheTTL:          v.GetDuration("dashboard.cache_ttl"),
			RefreshCron:       v.GetString("dashboard.refresh_cron"),
			ChartLang:         v.GetString("dashboard.chart_lang"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
		},
	}
}

// applyDefaults sets default values for any empty config fields.
// dashboard.refresh_cron = "off" disables the refresh job.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "retaildesk"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
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

	if cfg.DataService.BaseURL == "" {
		cfg.DataService.BaseURL = "http://localhost:8000/api/"
	}
	if cfg.DataService.Timeout == 0 {
		cfg.DataService.Timeout = 10 * time.Second
	}
	if cfg.DataService.RetryCount == 0 {
		cfg.DataService.RetryCount = 2
	}
	if cfg.DataService.RetryWait == 0 {
		cfg.DataService.RetryWait = 200 * time.Millisecond
	}
	if cfg.DataService.BreakerMaxFailures == 0 {
		cfg.DataService.BreakerMaxFailures = 5
	}
	if cfg.DataService.BreakerTimeout == 0 {
		cfg.DataService.BreakerTimeout = 30 * time.Second
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.Dashboard.Timezone == "" {
		cfg.Dashboard.Timezone = "Local"
	}
	if cfg.Dashboard.LowStockThreshold == 0 {
		cfg.Dashboard.LowStockThreshold = 10
	}
	if cfg.Dashboard.WeeklyBuckets == 0 {
		cfg.Dashboard.WeeklyBuckets = 8
	}
	if cfg.Dashboard.MonthlyBuckets == 0 {
		cfg.Dashboard.MonthlyBuckets = 12
	}
	if cfg.Dashboard.YearlyBuckets == 0 {
		cfg.Dashboard.YearlyBuckets = 5
	}
	if cfg.Dashboard.TopProductsLimit == 0 {
		cfg.Dashboard.TopProductsLimit = 5
	}
	if cfg.Dashboard.CacheTTL == 0 {
		cfg.Dashboard.CacheTTL = time.Minute
	}
	if cfg.Dashboard.ChartLang == "" {
		cfg.Dashboard.ChartLang = "uz"
	}
	switch cfg.Dashboard.RefreshCron {
	case "":
		cfg.Dashboard.RefreshCron = "@every 1m"
	case "off":
		cfg.Dashboard.RefreshCron = ""
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
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
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if !validEnvs[c.App.Env] {
		return fmt.Errorf("app.env must be one of development, staging, production, got %q", c.App.Env)
	}
	if port, err := parsePort(c.App.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("app.port must be a number between 1 and 65535, got %q", c.App.Port)
	}

	u, err := url.Parse(c.DataService.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("dataservice.base_url must be an absolute URL, got %q", c.DataService.BaseURL)
	}
	if c.DataService.RetryCount < 0 {
		return fmt.Errorf("dataservice.retry_count cannot be negative")
	}

	if _, err := c.Dashboard.Location(); err != nil {
		return fmt.Errorf("dashboard.timezone: %w", err)
	}
	if c.Dashboard.LowStockThreshold < 0 {
		return fmt.Errorf("dashboard.low_stock_threshold cannot be negative")
	}
	if c.Dashboard.WeeklyBuckets < 0 || c.Dashboard.MonthlyBuckets < 0 || c.Dashboard.YearlyBuckets < 0 {
		return fmt.Errorf("dashboard bucket counts must be positive")
	}

	if c.App.Env == "production" {
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	return nil
}

func parsePort(s string) (int, error) {
	var port int
	_, err := fmt.Sscanf(s, "%d", &port)
	return port, err
}
