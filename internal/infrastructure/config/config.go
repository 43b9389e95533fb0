package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Grid     GridConfig
	Print    PrintConfig
	Draft    DraftConfig
	Storage  StorageConfig
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
	Driver          string // postgres, mysql, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file path
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds settings for validating bearer tokens issued by the
// identity service.
type JWTConfig struct {
	Secret string
	Issuer string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	ExportRateLimit  int           // exports per user per window, 0 disables
	ExportRateWindow time.Duration
	RequestTimeout   time.Duration // deadline of settings requests
}

// GridConfig holds interactive grid settings
type GridConfig struct {
	ResizeDebounce time.Duration // quiet window before widths are saved
	SaveTimeout    time.Duration // bound on a single settings save
}

// PrintConfig holds pagination and export rendering settings
type PrintConfig struct {
	Renderer        string // chromedp or none
	ChromeRemoteURL string // optional remote DevTools endpoint
	Headless        bool
	NoSandbox       bool
	DisableGPU      bool
	RenderTimeout   time.Duration
	Scale           float64
	PrintBackground bool
	WaitForTimeout  time.Duration
	RowHeightMM     float64
	Locale          string // number formatting locale of rendered pages
}

// DraftConfig holds print draft storage settings
type DraftConfig struct {
	Backend   string // file, redis, memory
	Dir       string // file backend directory
	KeyPrefix string
	Channel   string // redis pub/sub channel for change notifications
	TTL       time.Duration
	Heartbeat time.Duration // keep-alive interval of the draft event stream
}

// StorageConfig holds export document storage settings
type StorageConfig struct {
	Type              string // filesystem or s3
	BasePath          string // filesystem root
	Endpoint          string
	Bucket            string
	AccessKey         string
	SecretKey         string
	Region            string
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
	Retention         time.Duration // stored exports older than this are swept, 0 keeps them
	SweepInterval     time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with WS_ prefix (e.g., WS_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from an explicit file path. An empty path
// searches the default locations.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/workstation")
		v.AddConfigPath("/app")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("WS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			ExportRateLimit:  v.GetInt("http.export_rate_limit"),
			ExportRateWindow: v.GetDuration("http.export_rate_window"),
			RequestTimeout:   v.GetDuration("http.request_timeout"),
		},
		Grid: GridConfig{
			ResizeDebounce: v.GetDuration("grid.resize_debounce"),
			SaveTimeout:    v.GetDuration("grid.save_timeout"),
		},
		Print: PrintConfig{
			Renderer:        v.GetString("print.renderer"),
			ChromeRemoteURL: v.GetString("print.chrome_remote_url"),
			Headless:        v.GetBool("print.headless"),
			NoSandbox:       v.GetBool("print.no_sandbox"),
			DisableGPU:      v.GetBool("print.disable_gpu"),
			RenderTimeout:   v.GetDuration("print.render_timeout"),
			Scale:           v.GetFloat64("print.scale"),
			PrintBackground: v.GetBool("print.print_background"),
			WaitForTimeout:  v.GetDuration("print.wait_for_timeout"),
			RowHeightMM:     v.GetFloat64("print.row_height_mm"),
			Locale:          v.GetString("print.locale"),
		},
		Draft: DraftConfig{
			Backend:   v.GetString("draft.backend"),
			Dir:       v.GetString("draft.dir"),
			KeyPrefix: v.GetString("draft.key_prefix"),
			Channel:   v.GetString("draft.channel"),
			TTL:       v.GetDuration("draft.ttl"),
			Heartbeat: v.GetDuration("draft.heartbeat"),
		},
		Storage: StorageConfig{
			Type:              v.GetString("storage.type"),
			BasePath:          v.GetString("storage.base_path"),
			Endpoint:          v.GetString("storage.endpoint"),
			Bucket:            v.GetString("storage.bucket"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			Region:            v.GetString("storage.region"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
			Retention:         v.GetDuration("storage.retention"),
			SweepInterval:     v.GetDuration("storage.sweep_interval"),
		},
	}

	// viper reports false for unset booleans; headless is on unless disabled
	if !v.IsSet("print.headless") {
		cfg.Print.Headless = true
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
		cfg.App.Name = "workstation"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		switch cfg.Database.Driver {
		case "mysql":
			cfg.Database.Port = 3306
		default:
			cfg.Database.Port = 5432
		}
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "workstation"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "workstation.db"
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
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "erp-backend"
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
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 90 * time.Second // exports render synchronously
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	// No CORS origin default: cross-origin requests stay blocked until configured
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-Draft-Source"}
	}
	if cfg.HTTP.ExportRateWindow == 0 {
		cfg.HTTP.ExportRateWindow = time.Minute
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 10 * time.Second
	}
	if cfg.Grid.ResizeDebounce == 0 {
		cfg.Grid.ResizeDebounce = 500 * time.Millisecond
	}
	if cfg.Grid.SaveTimeout == 0 {
		cfg.Grid.SaveTimeout = 10 * time.Second
	}
	if cfg.Print.Renderer == "" {
		cfg.Print.Renderer = "chromedp"
	}
	if cfg.Print.RenderTimeout == 0 {
		cfg.Print.RenderTimeout = 60 * time.Second
	}
	if cfg.Print.Scale == 0 {
		cfg.Print.Scale = 1.0
	}
	if cfg.Print.WaitForTimeout == 0 {
		cfg.Print.WaitForTimeout = 5 * time.Second
	}
	if cfg.Print.RowHeightMM == 0 {
		cfg.Print.RowHeightMM = 8
	}
	if cfg.Print.Locale == "" {
		cfg.Print.Locale = "en"
	}
	if cfg.Draft.Backend == "" {
		cfg.Draft.Backend = "file"
	}
	if cfg.Draft.Dir == "" {
		cfg.Draft.Dir = "./data/drafts"
	}
	if cfg.Draft.KeyPrefix == "" {
		cfg.Draft.KeyPrefix = "print-draft"
	}
	if cfg.Draft.Channel == "" {
		cfg.Draft.Channel = "print-draft:changes"
	}
	if cfg.Draft.Heartbeat == 0 {
		cfg.Draft.Heartbeat = 30 * time.Second
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "filesystem"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./data/exports"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "print-exports"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 15 * time.Minute
	}
	if cfg.Storage.SweepInterval == 0 {
		cfg.Storage.SweepInterval = time.Hour
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres, mysql or sqlite, got %q", c.Database.Driver)
	}
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

	if c.HTTP.ExportRateLimit < 0 {
		return fmt.Errorf("http.export_rate_limit cannot be negative")
	}
	if c.Grid.ResizeDebounce < 0 {
		return fmt.Errorf("grid.resize_debounce cannot be negative")
	}
	switch c.Print.Renderer {
	case "chromedp", "none":
	default:
		return fmt.Errorf("print.renderer must be chromedp or none, got %q", c.Print.Renderer)
	}
	if c.Print.Scale < 0.1 || c.Print.Scale > 2.0 {
		return fmt.Errorf("print.scale must be between 0.1 and 2.0, got %f", c.Print.Scale)
	}
	if c.Print.RowHeightMM <= 0 {
		return fmt.Errorf("print.row_height_mm must be positive")
	}
	switch c.Draft.Backend {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("draft.backend must be file, redis or memory, got %q", c.Draft.Backend)
	}
	switch c.Storage.Type {
	case "filesystem", "s3":
	default:
		return fmt.Errorf("storage.type must be filesystem or s3, got %q", c.Storage.Type)
	}
	if c.Storage.Retention < 0 {
		return fmt.Errorf("storage.retention cannot be negative")
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Driver != "sqlite" && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.Driver == "postgres" && c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Draft.Backend == "memory" {
			return fmt.Errorf("draft.backend=memory loses drafts on restart and is not allowed in production")
		}
	}

	return nil
}

// DSN returns the driver-specific connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "sqlite":
		return d.Path
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = d.User
		mc.Passwd = d.Password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", d.Host, d.Port)
		mc.DBName = d.DBName
		mc.ParseTime = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN()
	}

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
