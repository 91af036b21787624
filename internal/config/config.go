package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int           `mapstructure:"port"`
		ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
		CorsAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string      `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string      `mapstructure:"cors_allowed_headers"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
		MaxConns int32  `mapstructure:"max_conns"`
	} `mapstructure:"database"`

	JWT struct {
		Secret            string        `mapstructure:"secret"`
		Expiration        time.Duration `mapstructure:"expiration"`
		PendingExpiration time.Duration `mapstructure:"pending_expiration"`
		Issuer            string        `mapstructure:"issuer"`
	} `mapstructure:"jwt"`

	Auth struct {
		ProtectRoutes bool `mapstructure:"protect_routes"`
	} `mapstructure:"auth"`

	Redis struct {
		Enabled  bool          `mapstructure:"enabled"`
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`

	OTP struct {
		TTL            time.Duration `mapstructure:"ttl"`
		ResendCooldown time.Duration `mapstructure:"resend_cooldown"`
		Retention      time.Duration `mapstructure:"retention"`
		SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	} `mapstructure:"otp"`

	IDGen struct {
		MaxAttempts int `mapstructure:"max_attempts"`
	} `mapstructure:"idgen"`

	Notify NotifyConfig `mapstructure:"notify"`

	Storage StorageConfig `mapstructure:"storage"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

type NotifyConfig struct {
	Provider   string        `mapstructure:"provider"` // smtp, sendgrid or log
	From       string        `mapstructure:"from"`
	FromName   string        `mapstructure:"from_name"`
	MaxRetries uint64        `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	SMTP       struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"smtp"`
	SendGrid struct {
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"sendgrid"`
}

// StorageConfig describes an S3-compatible bucket (AWS S3, Cloudflare R2, MinIO).
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKey       string `mapstructure:"access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	Bucket          string `mapstructure:"bucket"`
	JWTSecretObject string `mapstructure:"jwt_secret_object"`
	LabelPrefix     string `mapstructure:"label_prefix"`
	ArchiveLabels   bool   `mapstructure:"archive_labels"`
}

func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

// DSN builds the pgx connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SecretFetcher loads the JWT secret from the backup bucket.
type SecretFetcher func(ctx context.Context, s StorageConfig) (string, error)

var ErrNoJWTSecret = errors.New("JWT_SECRET not found in environment or storage backup")

// Load reads configs/config.yaml (optional), .env (optional) and the environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, "configs/config.yaml", FetchJWTSecret)
}

func LoadWith(ctx context.Context, path string, fetch SecretFetcher) (*Config, error) {
	// .env is optional in production
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetEnvPrefix("POZT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}

	applyEnvOverrides(&cfg)

	if cfg.JWT.Secret == "" || cfg.JWT.Secret == "${JWT_SECRET}" {
		cfg.JWT.Secret = ""
		if cfg.Storage.Enabled() && fetch != nil {
			secret, err := fetch(ctx, cfg.Storage)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrNoJWTSecret, err)
			}
			cfg.JWT.Secret = strings.TrimSpace(secret)
		}
		if cfg.JWT.Secret == "" {
			return nil, ErrNoJWTSecret
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Authorization", "Content-Type"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "pozt")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", time.Hour)
	v.SetDefault("jwt.pending_expiration", 5*time.Minute)
	v.SetDefault("jwt.issuer", "pozt-backend")

	v.SetDefault("auth.protect_routes", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 10*time.Minute)

	v.SetDefault("otp.ttl", 5*time.Minute)
	v.SetDefault("otp.resend_cooldown", 30*time.Second)
	v.SetDefault("otp.retention", time.Hour)
	v.SetDefault("otp.sweep_interval", time.Minute)

	v.SetDefault("idgen.max_attempts", 16)

	v.SetDefault("notify.provider", "log")
	v.SetDefault("notify.from", "no-reply@pozt.local")
	v.SetDefault("notify.from_name", "POztLite")
	v.SetDefault("notify.max_retries", 1)
	v.SetDefault("notify.retry_delay", 500*time.Millisecond)
	v.SetDefault("notify.smtp.host", "smtp.gmail.com")
	v.SetDefault("notify.smtp.port", 587)
	v.SetDefault("notify.smtp.username", "")
	v.SetDefault("notify.smtp.password", "")
	v.SetDefault("notify.sendgrid.api_key", "")

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.jwt_secret_object", "config/jwt_secret.txt")
	v.SetDefault("storage.label_prefix", "labels/")
	v.SetDefault("storage.archive_labels", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// applyEnvOverrides honours the unprefixed variable names used by deployment manifests.
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}
	if user := os.Getenv("SMTP_USER"); user != "" {
		cfg.Notify.SMTP.Username = user
	}
	if pass := os.Getenv("SMTP_PASS"); pass != "" {
		cfg.Notify.SMTP.Password = pass
	}
	if key := os.Getenv("SENDGRID_API_KEY"); key != "" {
		cfg.Notify.SendGrid.APIKey = key
	}
	if provider := os.Getenv("EMAIL_PROVIDER"); provider != "" {
		cfg.Notify.Provider = strings.ToLower(provider)
	}
}

// NewS3Client builds a client for the configured bucket endpoint.
func NewS3Client(ctx context.Context, s StorageConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s.Region),
	}
	if s.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("configure storage client: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// FetchJWTSecret reads the JWT secret from the backup bucket (disaster recovery).
func FetchJWTSecret(ctx context.Context, s StorageConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := NewS3Client(ctx, s)
	if err != nil {
		return "", err
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.JWTSecretObject),
	})
	if err != nil {
		return "", fmt.Errorf("get %s: %w", s.JWTSecretObject, err)
	}
	defer result.Body.Close()

	secret, err := io.ReadAll(result.Body)
	if err != nil {
		return "", fmt.Errorf("read jwt secret: %w", err)
	}

	return string(secret), nil
}
