package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
	"github.com/lite-lake/dnssync/internal/infrastructure/persistence"
)

const EnvPrefix = "DNSSYNC"

const (
	StoreDriverFile  = "file"
	StoreDriverMySQL = "mysql"
)

// Config is the process-level configuration. Provider configs, sync options
// and history live in the store, not here.
type Config struct {
	Store    StoreConfig                `mapstructure:"store"`
	Database persistence.DatabaseConfig `mapstructure:"database"`
	Sync     SyncConfig                 `mapstructure:"sync"`
	Server   ServerConfig               `mapstructure:"server"`
	Log      LogConfig                  `mapstructure:"log"`
}

type StoreConfig struct {
	// Driver is "file" or "mysql".
	Driver       string `mapstructure:"driver" default:"file"`
	Path         string `mapstructure:"path" default:"dnssync-state.yaml"`
	ConfigDir    string `mapstructure:"config_dir" default:"config"`
	LockDir      string `mapstructure:"lock_dir" default:""`
	HistoryLimit int    `mapstructure:"history_limit" default:"50"`
}

type SyncConfig struct {
	Concurrency   int           `mapstructure:"concurrency" default:"4"`
	TargetTimeout time.Duration `mapstructure:"target_timeout" default:"5m"`
	// Interval drives the scheduler in serve mode; zero disables it.
	Interval  time.Duration `mapstructure:"interval" default:"6h"`
	RateLimit float64       `mapstructure:"rate_limit" default:"10"`
	Burst     int           `mapstructure:"burst" default:"5"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" default:":8080"`
	// APIToken guards the mutating endpoints when set.
	APIToken string `mapstructure:"api_token" default:""`
}

type LogConfig struct {
	Level  string `mapstructure:"level" default:"info"`
	Format string `mapstructure:"format" default:"text"`
}

// Load reads dir/.env, then the optional YAML file, then DNSSYNC_* variables.
// Later sources win.
func Load(dir, file string) (*Config, error) {
	envPath := ".env"
	if dir != "" && dir != "." {
		envPath = filepath.Join(dir, ".env")
	}
	// a missing .env is normal outside development; real variables win
	_ = godotenv.Load(envPath)

	v := viper.New()
	bindValues(v, Config{}, "")

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrConfigReadFailed, file, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfigParseFailed, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverFile:
		if c.Store.Path == "" {
			return domain.ConfigurationError("store.path is required for the file driver")
		}
	case StoreDriverMySQL:
		if c.Database.Host == "" || c.Database.Name == "" {
			return domain.ConfigurationError("database.host and database.name are required for the mysql driver")
		}
	default:
		return domain.ConfigurationError("unknown store driver %q", c.Store.Driver)
	}
	if c.Sync.Concurrency < 1 {
		return domain.ConfigurationError("sync.concurrency must be at least 1")
	}
	if c.Sync.TargetTimeout <= 0 {
		return domain.ConfigurationError("sync.target_timeout must be positive")
	}
	if c.Sync.Interval < 0 || c.Sync.RateLimit < 0 {
		return domain.ConfigurationError("sync.interval and sync.rate_limit must not be negative")
	}
	return nil
}

func (c *Config) Logger() *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.ParseLevel(c.Log.Level)
	cfg.Format = strings.ToLower(c.Log.Format)
	return cfg
}

// bindValues registers every mapstructure key with its default tag so that
// AutomaticEnv can see keys never set anywhere else.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}
