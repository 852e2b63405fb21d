package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devJWTSecret = "default_super_secret_key"

// Invoice numbering policies
const (
	NumberingDateSeed = "date_seed"
	NumberingSequence = "sequence"
)

// Config is the full process configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	Log       LogConfig
	Storage   StorageConfig
	Render    RenderConfig
	Invoice   InvoiceConfig
	Bootstrap BootstrapConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string // silent, error, warn, info
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type HTTPConfig struct {
	CORSAllowOrigins []string
	MaxUploadBytes   int64
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type StorageConfig struct {
	Driver        string // local, s3
	LocalDir      string
	PublicBaseURL string
	Bucket        string
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	UsePathStyle  bool
}

type RenderConfig struct {
	RemoteURL string
	Timeout   time.Duration
	NoSandbox bool
}

type InvoiceConfig struct {
	Numbering       string // date_seed, sequence
	SequenceOffset  int64
	ConflictRetries int
}

type BootstrapConfig struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// DSN builds the postgres connection URL
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// IsProduction reports whether the app runs with production settings
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// Load reads configuration.
// Priority (highest to lowest):
// 1. Environment variables with BACKOFFICE_ prefix (e.g. BACKOFFICE_DATABASE_PASSWORD)
// 2. configs/.env (loaded into the environment)
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	// .env only fills variables that are not already set
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("BACKOFFICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			LogLevel:        v.GetString("database.log_level"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Expiration: v.GetDuration("jwt.expiration"),
		},
		HTTP: HTTPConfig{
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			MaxUploadBytes:   v.GetInt64("http.max_upload_bytes"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Storage: StorageConfig{
			Driver:        v.GetString("storage.driver"),
			LocalDir:      v.GetString("storage.local_dir"),
			PublicBaseURL: v.GetString("storage.public_base_url"),
			Bucket:        v.GetString("storage.bucket"),
			Endpoint:      v.GetString("storage.endpoint"),
			Region:        v.GetString("storage.region"),
			AccessKey:     v.GetString("storage.access_key"),
			SecretKey:     v.GetString("storage.secret_key"),
			UsePathStyle:  v.GetBool("storage.use_path_style"),
		},
		Render: RenderConfig{
			RemoteURL: v.GetString("render.remote_url"),
			Timeout:   v.GetDuration("render.timeout"),
			NoSandbox: v.GetBool("render.no_sandbox"),
		},
		Invoice: InvoiceConfig{
			Numbering:       v.GetString("invoice.numbering"),
			SequenceOffset:  v.GetInt64("invoice.sequence_offset"),
			ConflictRetries: v.GetInt("invoice.conflict_retries"),
		},
		Bootstrap: BootstrapConfig{
			AdminName:     v.GetString("bootstrap.admin_name"),
			AdminEmail:    v.GetString("bootstrap.admin_email"),
			AdminPassword: v.GetString("bootstrap.admin_password"),
		},
	}

	// conflict_retries may legitimately be 0
	if !v.IsSet("invoice.conflict_retries") {
		cfg.Invoice.ConflictRetries = 1
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "backoffice"
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
		cfg.Database.DBName = "backoffice"
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
		cfg.Database.ConnMaxLifetime = 5 * time.Minute
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = devJWTSecret
	}
	if cfg.JWT.Expiration == 0 {
		cfg.JWT.Expiration = 24 * time.Hour
	}

	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		cfg.HTTP.CORSAllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}
	if cfg.HTTP.MaxUploadBytes == 0 {
		cfg.HTTP.MaxUploadBytes = 20 << 20
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.IsProduction() {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "local"
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = "storage/public"
	}
	if cfg.Storage.PublicBaseURL == "" {
		cfg.Storage.PublicBaseURL = "/storage"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}

	if cfg.Render.Timeout == 0 {
		cfg.Render.Timeout = 30 * time.Second
	}

	if cfg.Invoice.Numbering == "" {
		cfg.Invoice.Numbering = NumberingDateSeed
	}
	if cfg.Invoice.SequenceOffset == 0 {
		cfg.Invoice.SequenceOffset = 100000
	}

	if cfg.Bootstrap.AdminName == "" {
		cfg.Bootstrap.AdminName = "Super Admin"
	}
}

func (c *Config) validate() error {
	if c.App.IsProduction() && c.JWT.Secret == devJWTSecret {
		return errors.New("jwt.secret must be set in production")
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver)
	}
	switch c.Invoice.Numbering {
	case NumberingDateSeed, NumberingSequence:
	default:
		return fmt.Errorf("unsupported invoice.numbering %q", c.Invoice.Numbering)
	}
	if c.Invoice.ConflictRetries < 0 {
		return errors.New("invoice.conflict_retries must not be negative")
	}
	return nil
}
