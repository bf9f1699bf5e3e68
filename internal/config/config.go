package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	JWT           JWTConfig           `yaml:"jwt"`
	Auth          AuthConfig          `yaml:"auth"`
	PasswordReset PasswordResetConfig `yaml:"password_reset"`
	Storage       StorageConfig       `yaml:"storage"`
	Upload        UploadConfig        `yaml:"upload"`
	SMTP          SMTPConfig          `yaml:"smtp"`
	Log           LogConfig           `yaml:"log"`
}

type ServerConfig struct {
	Host              string   `yaml:"host"`
	Port              string   `yaml:"port"`
	Mode              string   `yaml:"mode"` // debug, release, test
	AllowOrigins      []string `yaml:"allow_origins"`
	AuthRateLimitRPS  float64  `yaml:"auth_rate_limit_rps"`
	AuthRateBurst     int      `yaml:"auth_rate_limit_burst"`
	ShutdownTimeoutS  int      `yaml:"shutdown_timeout_seconds"`
	EnableMetrics     bool     `yaml:"enable_metrics"`
	ReadHeaderTimeout int      `yaml:"read_header_timeout_seconds"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
	Debug  bool   `yaml:"debug"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

// TTL returns the token lifetime, 7 days when unset.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpireHour <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(j.ExpireHour) * time.Hour
}

type AuthConfig struct {
	// ProjectCreatorRoles limits who may create projects. Empty means every role.
	ProjectCreatorRoles []string `yaml:"project_creator_roles"`
}

type PasswordResetConfig struct {
	CodeTTLMinutes int  `yaml:"code_ttl_minutes"`
	ExposeCode     bool `yaml:"expose_code"`
	RequireCode    bool `yaml:"require_code"`
}

type StorageConfig struct {
	Driver    string   `yaml:"driver"` // local, s3
	LocalDir  string   `yaml:"local_dir"`
	// PublicURL prefixes stored file URLs. The local driver serves it from
	// the server; for s3 it must be the absolute bucket or CDN base URL.
	PublicURL string   `yaml:"public_url"`
	S3        S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Prefix          string `yaml:"prefix"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

type UploadConfig struct {
	MaxFileSizeMB int `yaml:"max_file_size_mb"`
}

// MaxFileSize returns the per-file ceiling in bytes.
func (u UploadConfig) MaxFileSize() int64 {
	if u.MaxFileSizeMB <= 0 {
		return 10 << 20
	}
	return int64(u.MaxFileSizeMB) << 20
}

type SMTPConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	UseTLS   bool   `yaml:"use_tls"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML file at configPath (config.yaml when empty), falling back
// to defaults when the file is missing, then applies .env and environment
// overrides.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	cfg.overrideFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "3000",
			Mode:              "debug",
			AllowOrigins:      []string{"http://localhost:5173", "http://localhost:3000"},
			AuthRateLimitRPS:  5,
			AuthRateBurst:     10,
			ShutdownTimeoutS:  10,
			EnableMetrics:     true,
			ReadHeaderTimeout: 10,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "people_square.db",
		},
		JWT: JWTConfig{
			Secret:     "your_jwt_secret_key_here",
			ExpireHour: 7 * 24,
		},
		PasswordReset: PasswordResetConfig{
			CodeTTLMinutes: 15,
			ExposeCode:     true,
		},
		Storage: StorageConfig{
			Driver:    "local",
			LocalDir:  "uploads",
			PublicURL: "/uploads",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Upload: UploadConfig{
			MaxFileSizeMB: 10,
		},
		SMTP: SMTPConfig{
			Port: 587,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) overrideFromEnv() {
	setString(&c.Server.Host, "SERVER_HOST")
	setString(&c.Server.Port, "SERVER_PORT")
	// PORT is what most PaaS runtimes inject.
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Mode, "SERVER_MODE")
	if origins := os.Getenv("CORS_ALLOW_ORIGINS"); origins != "" {
		c.Server.AllowOrigins = splitAndTrim(origins, ",")
	}

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.DSN, "DB_DSN")

	setString(&c.JWT.Secret, "JWT_SECRET")
	setInt(&c.JWT.ExpireHour, "JWT_EXPIRE_HOUR")

	if roles := os.Getenv("PROJECT_CREATOR_ROLES"); roles != "" {
		c.Auth.ProjectCreatorRoles = splitAndTrim(roles, ",")
	}

	setInt(&c.PasswordReset.CodeTTLMinutes, "RESET_CODE_TTL_MINUTES")
	setBool(&c.PasswordReset.ExposeCode, "RESET_EXPOSE_CODE")
	setBool(&c.PasswordReset.RequireCode, "RESET_REQUIRE_CODE")

	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.LocalDir, "STORAGE_LOCAL_DIR")
	setString(&c.Storage.PublicURL, "STORAGE_PUBLIC_URL")
	setString(&c.Storage.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.Storage.S3.Region, "S3_REGION")
	setString(&c.Storage.S3.Bucket, "S3_BUCKET")
	setString(&c.Storage.S3.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&c.Storage.S3.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setString(&c.Storage.S3.Prefix, "S3_PREFIX")
	setBool(&c.Storage.S3.UsePathStyle, "S3_USE_PATH_STYLE")

	setInt(&c.Upload.MaxFileSizeMB, "UPLOAD_MAX_FILE_SIZE_MB")

	setBool(&c.SMTP.Enabled, "SMTP_ENABLED")
	setString(&c.SMTP.Host, "SMTP_HOST")
	setInt(&c.SMTP.Port, "SMTP_PORT")
	setString(&c.SMTP.Username, "SMTP_USERNAME")
	setString(&c.SMTP.Password, "SMTP_PASSWORD")
	setString(&c.SMTP.From, "SMTP_FROM")
	setBool(&c.SMTP.UseTLS, "SMTP_USE_TLS")

	setString(&c.Log.Level, "LOG_LEVEL")
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "local":
		if c.Storage.LocalDir == "" {
			return errors.New("storage.local_dir is required for the local driver")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required for the s3 driver")
		}
		if u, err := url.Parse(c.Storage.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("storage.public_url must be an absolute bucket URL for the s3 driver")
		}
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret must not be empty")
	}
	if c.SMTP.Enabled && c.SMTP.Host == "" {
		return errors.New("smtp.host is required when smtp is enabled")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
