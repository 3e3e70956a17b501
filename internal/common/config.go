package common

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/phanvandien/ocr-script/constants"
)

// Config holds all application configuration
type Config struct {
	Store StoreConfig `mapstructure:"store"`
	Media MediaConfig `mapstructure:"media"`
	LLM   LLMConfig   `mapstructure:"llm"`
	Batch BatchConfig `mapstructure:"batch"`
	Log   LogConfig   `mapstructure:"log"`
}

// StoreConfig selects the progress/result store
type StoreConfig struct {
	Driver      string        `mapstructure:"driver"` // memory | redis | postgres | sqlite
	DSN         string        `mapstructure:"dsn"`    // redis URL, postgres DSN or sqlite path
	ProgressTTL time.Duration `mapstructure:"progress_ttl"`
	ResultTTL   time.Duration `mapstructure:"result_ttl"`
	FailureTTL  time.Duration `mapstructure:"failure_ttl"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	MaxConns    int32         `mapstructure:"max_conns"`
}

// MediaConfig selects where processed images are kept for display
type MediaConfig struct {
	Driver           string `mapstructure:"driver"` // local | azblob
	Root             string `mapstructure:"root"`
	ConnectionString string `mapstructure:"connection_string"`
	Container        string `mapstructure:"container"`
}

// LLMConfig holds extraction model configuration
type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryPause  time.Duration `mapstructure:"retry_pause"`
}

// BatchConfig holds the orchestrator limits
type BatchConfig struct {
	MaxImages       int           `mapstructure:"max_images"`
	Workers         int           `mapstructure:"workers"`
	CompletionDelay time.Duration `mapstructure:"completion_delay"`
	PerImageTimeout time.Duration `mapstructure:"per_image_timeout"`
	QueueWorkers    int           `mapstructure:"queue_workers"`
	TempDir         string        `mapstructure:"temp_dir"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | text
	File   string `mapstructure:"file"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:      "sqlite",
			DSN:         "ocr-results.db",
			ProgressTTL: time.Hour,
			ResultTTL:   2 * time.Hour,
			FailureTTL:  time.Hour,
			DialTimeout: 3 * time.Second,
			MaxConns:    10,
		},
		Media: MediaConfig{
			Driver:    "local",
			Root:      "./media/processed",
			Container: "processed-images",
		},
		LLM: LLMConfig{
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta/openai",
			Model:       "gemini-2.0-flash",
			Temperature: 0.0,
			Timeout:     30 * time.Second,
			MaxAttempts: 2,
			RetryPause:  time.Second,
		},
		Batch: BatchConfig{
			MaxImages:       constants.MaxImagesDefault,
			Workers:         3,
			CompletionDelay: 200 * time.Millisecond,
			PerImageTimeout: 30 * time.Second,
			QueueWorkers:    2,
			TempDir:         os.TempDir(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig reads config.yaml from the working directory (optional) and
// environment variables prefixed with OCR, e.g. "llm.api_key" -> OCR_LLM_API_KEY.
// GOOGLE_API_KEY is accepted when no API key is configured.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("OCR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "decode config", err)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	return cfg, nil
}

// bindEnvs registers every key of cfg so viper looks up the matching
// environment variable when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string{}, parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OCR_LLM_API_KEY (or GOOGLE_API_KEY) is required", ErrInvalidInput)
	}
	if c.LLM.MaxAttempts <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_LLM_MAX_ATTEMPTS must be positive", ErrInvalidInput)
	}
	return c.ValidateStorage()
}

// ValidateStorage checks only what commands that never call the model need.
func (c *Config) ValidateStorage() error {
	switch c.Store.Driver {
	case "memory":
	case "redis", "postgres", "sqlite":
		if c.Store.DSN == "" {
			return NewAppError("CONFIG_ERROR", "OCR_STORE_DSN is required for store driver "+c.Store.Driver, ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "unknown store driver "+c.Store.Driver, ErrInvalidInput)
	}
	switch c.Media.Driver {
	case "local":
		if c.Media.Root == "" {
			return NewAppError("CONFIG_ERROR", "OCR_MEDIA_ROOT is required", ErrInvalidInput)
		}
	case "azblob":
		if c.Media.ConnectionString == "" || c.Media.Container == "" {
			return NewAppError("CONFIG_ERROR", "OCR_MEDIA_CONNECTION_STRING and OCR_MEDIA_CONTAINER are required", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "unknown media driver "+c.Media.Driver, ErrInvalidInput)
	}
	if c.Batch.MaxImages <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_BATCH_MAX_IMAGES must be positive", ErrInvalidInput)
	}
	return nil
}
