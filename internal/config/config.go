// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Session     SessionConfig
	Redis       RedisConfig
	AWS         AWSConfig
	Email       EmailConfig
	Lookup      LookupConfig
	Upload      UploadConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	I18n        I18nConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

// DSN renders the libpq connection string gorm's postgres driver expects.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

type SessionConfig struct {
	SecretKey string
	TTL       time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
	SESRegion       string
}

type EmailConfig struct {
	Provider     string // smtp or ses
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	Recipient    string
}

type LookupConfig struct {
	ViaCEPURL    string
	BrasilAPIURL string
	Timeout      time.Duration
	HitTTL       time.Duration
	MissTTL      time.Duration
}

type UploadConfig struct {
	LocalDir         string
	LocalBaseURL     string
	LogoMaxBytes     int64
	DocumentMaxBytes int64
}

type RateLimitConfig struct {
	GeneralPerMinute int
	LookupPerMinute  int
	UploadPerMinute  int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type I18nConfig struct {
	DefaultLocale string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Enabled:      getEnvAsBool("DB_ENABLED", true),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "marca_facil"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		Session: SessionConfig{
			SecretKey: getEnv("SESSION_SECRET", defaultSessionSecret),
			TTL:       time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 48)) * time.Hour,
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "sa-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "formulario-arquivos"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
			SESRegion:       getEnv("AWS_SES_REGION", "us-east-1"),
		},
		Email: EmailConfig{
			Provider:     strings.ToLower(getEnv("EMAIL_PROVIDER", "smtp")),
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "formulario@marcafacil.legal"),
			FromName:     getEnv("FROM_NAME", "Marca Fácil"),
			Recipient:    getEnv("EMAIL_RECIPIENT", "atendimento@marcafacil.legal"),
		},
		Lookup: LookupConfig{
			ViaCEPURL:    getEnv("VIACEP_URL", "https://viacep.com.br"),
			BrasilAPIURL: getEnv("BRASILAPI_URL", "https://brasilapi.com.br"),
			Timeout:      time.Duration(getEnvAsInt("LOOKUP_TIMEOUT_SECONDS", 5)) * time.Second,
			HitTTL:       time.Duration(getEnvAsInt("LOOKUP_CACHE_HIT_HOURS", 24)) * time.Hour,
			MissTTL:      time.Duration(getEnvAsInt("LOOKUP_CACHE_MISS_HOURS", 1)) * time.Hour,
		},
		Upload: UploadConfig{
			LocalDir:         getEnv("UPLOAD_LOCAL_DIR", "./uploads"),
			LocalBaseURL:     getEnv("UPLOAD_LOCAL_BASE_URL", "/uploads"),
			LogoMaxBytes:     int64(getEnvAsInt("UPLOAD_LOGO_MAX_MB", 2)) << 20,
			DocumentMaxBytes: int64(getEnvAsInt("UPLOAD_DOCUMENT_MAX_MB", 5)) << 20,
		},
		RateLimit: RateLimitConfig{
			GeneralPerMinute: getEnvAsInt("RATE_LIMIT_GENERAL", 120),
			LookupPerMinute:  getEnvAsInt("RATE_LIMIT_LOOKUP", 30),
			UploadPerMinute:  getEnvAsInt("RATE_LIMIT_UPLOAD", 20),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "pt_BR"),
		},
	}

	return config, config.Validate()
}

const defaultSessionSecret = "your-secret-key-change-in-production"

func (c *Config) Validate() error {
	if c.Session.SecretKey == defaultSessionSecret && c.Environment == "production" {
		return fmt.Errorf("session secret key must be changed in production")
	}

	if c.Database.Enabled && c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Email.Provider != "smtp" && c.Email.Provider != "ses" {
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.Email.Provider)
	}

	if c.Upload.LogoMaxBytes <= 0 || c.Upload.DocumentMaxBytes <= 0 {
		return fmt.Errorf("upload limits must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
