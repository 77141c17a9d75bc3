package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"strings"
	"time"

	"messenger/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	API        APIConfig        `yaml:"api"`
	Auth       AuthConfig       `yaml:"auth"`
	Throttle   ThrottleConfig   `yaml:"throttle"`
	Redis      RedisConfig      `yaml:"redis"`
	Mail       MailConfig       `yaml:"mail"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Google     GoogleConfig     `yaml:"google"`
	Exports    ExportConfig     `yaml:"exports"`
	Booking    BookingConfig    `yaml:"booking"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path         string `yaml:"path"`
	SeedDefaults bool   `yaml:"seed_defaults"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	CORS      APICORSConfig      `yaml:"cors"`
	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For
	// header is believed. Empty means the socket address is always used.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type APIHTTPConfig struct {
	Port     int    `yaml:"port"`
	BasePath string `yaml:"base_path"`
}

type APIGRPCConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Port       int          `yaml:"port"`
	Reflection bool         `yaml:"reflection"`
	TLS        APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type APICORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type AuthConfig struct {
	JWTSecret         string        `yaml:"jwt_secret"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	Issuer            string        `yaml:"issuer"`
	MinPasswordLength int           `yaml:"min_password_length"`
}

// ThrottleConfig bounds login and forgot-password attempts per client and username.
type ThrottleConfig struct {
	LoginLimit int           `yaml:"login_limit"`
	Window     time.Duration `yaml:"window"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	// TLS is one of "mandatory", "opportunistic" or "none".
	TLS string `yaml:"tls"`
}

func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.From != ""
}

type TelegramConfig struct {
	Enabled   bool    `yaml:"enabled"`
	BotToken  string  `yaml:"bot_token"`
	ChatIDs   []int64 `yaml:"chat_ids"`
	QueueSize int     `yaml:"queue_size"`
	Debug     bool    `yaml:"debug"`
}

type GoogleConfig struct {
	CredentialsFile     string `yaml:"credentials_file"`
	ReportSpreadsheetID string `yaml:"report_spreadsheet_id"`
	ReportSheetName     string `yaml:"report_sheet_name"`
}

func (g GoogleConfig) Enabled() bool {
	return g.CredentialsFile != "" && g.ReportSpreadsheetID != ""
}

type ExportConfig struct {
	FontPath string        `yaml:"font_path"`
	Locale   models.Locale `yaml:"locale"`
}

type BookingConfig struct {
	DefaultMessengerName string `yaml:"default_messenger_name"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

const insecureSecret = "CHANGE_ME_SECRET"

// ParseProxy reads a trusted proxy entry, either a single address or a CIDR.
func ParseProxy(entry string) (netip.Prefix, error) {
	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("invalid api.trusted_proxies entry %q: %w", entry, err)
		}
		return prefix.Masked(), nil
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid api.trusted_proxies entry %q: %w", entry, err)
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == insecureSecret {
		return errors.New("auth.jwt_secret is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token is required when telegram is enabled")
	}

	if c.API.HTTP.BasePath != "" && !strings.HasPrefix(c.API.HTTP.BasePath, "/") {
		return fmt.Errorf("api.http.base_path must start with '/': %q", c.API.HTTP.BasePath)
	}

	for _, entry := range c.API.TrustedProxies {
		if _, err := ParseProxy(entry); err != nil {
			return err
		}
	}

	switch c.Exports.Locale {
	case models.LocaleTH, models.LocaleEN:
	default:
		return fmt.Errorf("unsupported exports.locale %q", c.Exports.Locale)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.HTTP.BasePath == "" {
		c.API.HTTP.BasePath = "/api"
	}
	c.API.HTTP.BasePath = strings.TrimSuffix(c.API.HTTP.BasePath, "/")
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = models.DefaultTokenTTL
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "messenger"
	}
	if c.Auth.MinPasswordLength <= 0 {
		c.Auth.MinPasswordLength = models.MinPasswordLength
	}

	if c.Throttle.LoginLimit == 0 {
		c.Throttle.LoginLimit = 10
	}
	if c.Throttle.Window <= 0 {
		c.Throttle.Window = time.Minute
	}

	if c.Mail.Port == 0 {
		c.Mail.Port = 587
	}
	if c.Mail.TLS == "" {
		c.Mail.TLS = "mandatory"
	}

	if c.Telegram.QueueSize <= 0 {
		c.Telegram.QueueSize = 100
	}

	if c.Google.ReportSheetName == "" {
		c.Google.ReportSheetName = "Report"
	}

	if c.Exports.Locale == "" {
		c.Exports.Locale = models.LocaleTH
	}
	if c.Exports.FontPath == "" {
		c.Exports.FontPath = "fonts/THSarabunNew.ttf"
	}

	c.Booking.DefaultMessengerName = strings.TrimSpace(c.Booking.DefaultMessengerName)
	if c.Booking.DefaultMessengerName == "" {
		c.Booking.DefaultMessengerName = models.DefaultMessengerName
	}

	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "./data/backups"
	}
}
