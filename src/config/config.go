package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backend identifiers.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config holds all runtime configuration, resolved once at startup and
// passed explicitly to every constructor that needs it.
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	CORSOrigins []string

	// DataDir holds the flat-document stores (logs.json, users.json).
	DataDir string

	Storage StorageConfig
}

// StorageConfig selects and parameterizes the storage backend.
type StorageConfig struct {
	Backend string

	// BaseDir is the root directory for the local backend.
	BaseDir string

	// Naming selects the filename codec: identity, base64, or slug.
	Naming string

	// RootPrefix is the fixed top-level key segment for the s3 backend.
	RootPrefix string

	S3 S3Config
}

// S3Config carries credentials and tuning for the s3 backend.
type S3Config struct {
	Bucket         string
	Region         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	RequestTimeout time.Duration
	PresignTTL     time.Duration
}

// Load reads configuration from the environment (prefix FILEHUB_) and an
// optional config file pointed at by FILEHUB_CONFIG.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("filehub")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "3000")
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origins", "http://localhost:5173")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.base_dir", "./files")
	v.SetDefault("storage.naming", "")
	v.SetDefault("storage.root_prefix", "filehub")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.request_timeout", 15*time.Second)
	v.SetDefault("storage.s3.presign_ttl", 15*time.Minute)

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        v.GetString("port"),
		Environment: v.GetString("environment"),
		LogLevel:    v.GetString("log_level"),
		CORSOrigins: splitList(v.GetString("cors_origins")),
		DataDir:     v.GetString("data_dir"),
		Storage: StorageConfig{
			Backend:    strings.ToLower(v.GetString("storage.backend")),
			BaseDir:    v.GetString("storage.base_dir"),
			Naming:     strings.ToLower(v.GetString("storage.naming")),
			RootPrefix: strings.Trim(v.GetString("storage.root_prefix"), "/"),
			S3: S3Config{
				Bucket:         v.GetString("storage.s3.bucket"),
				Region:         v.GetString("storage.s3.region"),
				Endpoint:       v.GetString("storage.s3.endpoint"),
				AccessKey:      v.GetString("storage.s3.access_key"),
				SecretKey:      v.GetString("storage.s3.secret_key"),
				RequestTimeout: v.GetDuration("storage.s3.request_timeout"),
				PresignTTL:     v.GetDuration("storage.s3.presign_ttl"),
			},
		},
	}

	if cfg.Storage.Naming == "" {
		// Reversible encoding by default where the provider restricts names.
		if cfg.Storage.Backend == BackendS3 {
			cfg.Storage.Naming = "base64"
		} else {
			cfg.Storage.Naming = "identity"
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendLocal:
		if c.Storage.BaseDir == "" {
			return fmt.Errorf("storage.base_dir is required for the local backend")
		}
	case BackendS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 backend")
		}
		if c.Storage.S3.AccessKey == "" || c.Storage.S3.SecretKey == "" {
			return fmt.Errorf("storage.s3.access_key and storage.s3.secret_key are required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}

	switch c.Storage.Naming {
	case "identity", "base64", "slug":
	default:
		return fmt.Errorf("unknown naming scheme: %s", c.Storage.Naming)
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
