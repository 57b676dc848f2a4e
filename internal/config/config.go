package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Timezone string `mapstructure:"TIMEZONE"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     int    `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBScheme   string `mapstructure:"DB_SCHEME"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// --- Blob storage ---
	// STORAGE_DRIVER: "local" (disk served by this process) or "s3"
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	UploadsDir    string `mapstructure:"UPLOADS_DIR"`
	PublicPrefix  string `mapstructure:"PUBLIC_PREFIX"`

	// --- S3 ---
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3UseSSL    bool   `mapstructure:"S3_USE_SSL"`
	S3PathStyle bool   `mapstructure:"S3_PATH_STYLE"`

	// --- Auth ---
	AuthJWTSecret string        `mapstructure:"AUTH_JWT_SECRET"`
	AuthIssuer    string        `mapstructure:"AUTH_ISSUER"`
	AuthTokenTTL  time.Duration `mapstructure:"AUTH_TOKEN_TTL"`

	// Bootstrap admin, created at startup when missing
	AdminUsername string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	// --- Retention sweep ---
	SweepInterval time.Duration `mapstructure:"SWEEP_INTERVAL"`
	Retention     time.Duration `mapstructure:"RETENTION"`

	// Cache TTLs, seconds
	DarshanTTL int `mapstructure:"DARSHAN_CACHE_TTL"`
	TempleTTL  int `mapstructure:"TEMPLE_CACHE_TTL"`
}

// String implements Stringer; secrets are masked.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  AppPort: %s\n", c.AppPort))
	sb.WriteString(fmt.Sprintf("  Timezone: %s\n", c.Timezone))
	sb.WriteString(fmt.Sprintf("  DBHost: %s\n", c.DBHost))
	sb.WriteString(fmt.Sprintf("  DBPort: %d\n", c.DBPort))
	sb.WriteString(fmt.Sprintf("  DBUser: %s\n", c.DBUser))
	sb.WriteString(fmt.Sprintf("  DBName: %s\n", c.DBName))
	sb.WriteString(fmt.Sprintf("  DBScheme: %s\n", c.DBScheme))
	writeMasked(&sb, "DBPassword", c.DBPassword)

	sb.WriteString(fmt.Sprintf("  RedisAddr: %s\n", c.RedisAddr))
	sb.WriteString(fmt.Sprintf("  RedisDB: %d\n", c.RedisDB))
	writeMasked(&sb, "RedisPassword", c.RedisPassword)

	sb.WriteString(fmt.Sprintf("  StorageDriver: %s\n", c.StorageDriver))
	sb.WriteString(fmt.Sprintf("  UploadsDir: %s\n", c.UploadsDir))
	sb.WriteString(fmt.Sprintf("  PublicPrefix: %s\n", c.PublicPrefix))
	sb.WriteString(fmt.Sprintf("  S3Endpoint: %s\n", c.S3Endpoint))
	sb.WriteString(fmt.Sprintf("  S3Region: %s\n", c.S3Region))
	sb.WriteString(fmt.Sprintf("  S3Bucket: %s\n", c.S3Bucket))
	writeMasked(&sb, "S3AccessKey", c.S3AccessKey)
	writeMasked(&sb, "S3SecretKey", c.S3SecretKey)
	sb.WriteString(fmt.Sprintf("  S3UseSSL: %v\n", c.S3UseSSL))
	sb.WriteString(fmt.Sprintf("  S3PathStyle: %v\n", c.S3PathStyle))

	sb.WriteString(fmt.Sprintf("  AuthIssuer: %s\n", c.AuthIssuer))
	sb.WriteString(fmt.Sprintf("  AuthTokenTTL: %s\n", c.AuthTokenTTL))
	writeMasked(&sb, "AuthJWTSecret", c.AuthJWTSecret)
	sb.WriteString(fmt.Sprintf("  AdminUsername: %s\n", c.AdminUsername))
	writeMasked(&sb, "AdminPassword", c.AdminPassword)

	sb.WriteString(fmt.Sprintf("  SweepInterval: %s\n", c.SweepInterval))
	sb.WriteString(fmt.Sprintf("  Retention: %s\n", c.Retention))
	sb.WriteString(fmt.Sprintf("  DarshanTTL: %d\n", c.DarshanTTL))
	sb.WriteString(fmt.Sprintf("  TempleTTL: %d\n", c.TempleTTL))
	return sb.String()
}

func writeMasked(sb *strings.Builder, name, val string) {
	if val != "" {
		sb.WriteString("  " + name + ": ********\n")
	} else {
		sb.WriteString("  " + name + ": (empty)\n")
	}
}

// LoadFromEnv reads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	// .env is only for local development
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.New("failed to load .env")
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	keys := []string{
		"APP_ENV", "APP_PORT", "TIMEZONE",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SCHEME",
		"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD",
		"STORAGE_DRIVER", "UPLOADS_DIR", "PUBLIC_PREFIX",
		"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY",
		"S3_USE_SSL", "S3_PATH_STYLE",
		"AUTH_JWT_SECRET", "AUTH_ISSUER", "AUTH_TOKEN_TTL",
		"ADMIN_USERNAME", "ADMIN_PASSWORD",
		"SWEEP_INTERVAL", "RETENTION",
		"DARSHAN_CACHE_TTL", "TEMPLE_CACHE_TTL",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("TIMEZONE", "Asia/Kolkata")
	v.SetDefault("DB_SCHEME", "public")
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("UPLOADS_DIR", "uploads")
	v.SetDefault("PUBLIC_PREFIX", "/uploads")
	v.SetDefault("AUTH_ISSUER", "daily-darshan")
	v.SetDefault("AUTH_TOKEN_TTL", "720h")
	v.SetDefault("SWEEP_INTERVAL", "1h")
	v.SetDefault("RETENTION", "48h")
	v.SetDefault("DARSHAN_CACHE_TTL", 60)
	v.SetDefault("TEMPLE_CACHE_TTL", 300)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
