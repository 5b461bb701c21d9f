package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxUploadBytes int64
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL        string
	Addr       string
	Password   string
	DB         int
	ListingTTL time.Duration
}

type StorageConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	Bucket          string
	UseSSL          bool
	Region          string
	PublicBaseURL   string
	PublicRead      bool
	OriginalPrefix  string
	GeneratedPrefix string
}

type ImageGenConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Size       string
	Background string
	Timeout    time.Duration
}

type JobsConfig struct {
	CacheWarmSpec string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	ImageGen         ImageGenConfig
	Jobs             JobsConfig
	AllowCORSOrigins []string
}

// ErrMissingConfig is returned by Validate for every required key left empty.
var ErrMissingConfig = errors.New("missing required config")

func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("NEIGHBOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports every required key that is empty so a misconfigured
// deployment fails at start instead of at request time.
func (c *AppConfig) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"postgres.dsn", c.Postgres.DSN},
		{"storage.endpoint", c.Storage.Endpoint},
		{"storage.accesskey", c.Storage.AccessKey},
		{"storage.secretkey", c.Storage.SecretKey},
		{"storage.bucket", c.Storage.Bucket},
		{"imagegen.apikey", c.ImageGen.APIKey},
		{"imagegen.model", c.ImageGen.Model},
		{"allowcorsorigins", strings.Join(c.AllowCORSOrigins, "")},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}
	if c.HTTP.Port <= 0 {
		return fmt.Errorf("invalid http.port %d", c.HTTP.Port)
	}
	if c.Postgres.MaxOpen < 1 {
		return fmt.Errorf("invalid postgres.maxopen %d: at least one connection is required", c.Postgres.MaxOpen)
	}
	if c.Postgres.MaxIdle < 0 || c.Postgres.MaxIdle > c.Postgres.MaxOpen {
		return fmt.Errorf("invalid postgres.maxidle %d: must be between 0 and postgres.maxopen", c.Postgres.MaxIdle)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "30s")
	v.SetDefault("http.writetimeout", "0s") // image generation can be slow
	v.SetDefault("http.idletimeout", "60s")
	v.SetDefault("http.maxuploadbytes", 10<<20)

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 10)
	v.SetDefault("postgres.maxidle", 2)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.listingttl", "30s")

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.publicbaseurl", "")
	v.SetDefault("storage.publicread", true)
	v.SetDefault("storage.originalprefix", "originals")
	v.SetDefault("storage.generatedprefix", "community")

	v.SetDefault("imagegen.baseurl", "https://api.openai.com/v1")
	v.SetDefault("imagegen.apikey", "")
	v.SetDefault("imagegen.model", "")
	v.SetDefault("imagegen.size", "1024x1024")
	v.SetDefault("imagegen.background", "transparent")
	v.SetDefault("imagegen.timeout", "0s")

	v.SetDefault("jobs.cachewarmspec", "0 */1 * * * *")

	v.SetDefault("allowcorsorigins", "")
}
