package config

import (
	"fmt"
	"path/filepath"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const DefaultWordsAPIURL = "https://o3dehrjo4mwajqigkou2ii3fra0ycspw.lambda-url.ap-northeast-1.on.aws"

type Config struct {
	WordsAPI  WordsAPIConfig  `mapstructure:"words_api"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Defaults  DefaultsConfig  `mapstructure:"defaults"`
	Session   SessionConfig   `mapstructure:"session"`
	Server    ServerConfig    `mapstructure:"server"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Outputs   OutputsConfig   `mapstructure:"outputs"`
}

type WordsAPIConfig struct {
	BaseURL       string        `mapstructure:"base_url" validate:"required,url"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	CacheCapacity int           `mapstructure:"cache_capacity" validate:"gte=0"`
	RetryAttempts uint          `mapstructure:"retry_attempts" validate:"lte=10"`
}

type StorageConfig struct {
	Driver     string `mapstructure:"driver" validate:"oneof=memory file sqlite mysql"`
	FilePath   string `mapstructure:"file_path"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

// DefaultsConfig is the range offered when the learner has not saved their own defaults.
type DefaultsConfig struct {
	StartRange int  `mapstructure:"start_range" validate:"min=1,max=1900,ltefield=EndRange"`
	EndRange   int  `mapstructure:"end_range" validate:"min=1,max=1900"`
	ShowImages bool `mapstructure:"show_images"`
}

type SessionConfig struct {
	Validity time.Duration `mapstructure:"validity" validate:"gt=0"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type TemplatesConfig struct {
	ResultReportTemplate string `mapstructure:"result_report_template" validate:"omitempty,file"`
}

type OutputsConfig struct {
	ReportDirectory string `mapstructure:"report_directory"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/spelltrainer")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("words_api.base_url", DefaultWordsAPIURL)
	v.SetDefault("words_api.timeout", 10*time.Second)
	v.SetDefault("words_api.cache_ttl", 30*time.Minute)
	v.SetDefault("words_api.cache_capacity", 64)
	v.SetDefault("words_api.retry_attempts", 2)
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.file_path", filepath.Join("data", "spelltrainer.yml"))
	v.SetDefault("storage.sqlite_path", filepath.Join("data", "spelltrainer.db"))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "local")
	v.SetDefault("database.username", "user")
	v.SetDefault("defaults.start_range", 1521)
	v.SetDefault("defaults.end_range", 1600)
	v.SetDefault("defaults.show_images", true)
	v.SetDefault("session.validity", 24*time.Hour)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	// Template is optional - if not specified, the embedded template is used
	v.SetDefault("templates.result_report_template", "")
	v.SetDefault("outputs.report_directory", filepath.Join("outputs", "results"))

	if err := v.BindEnv("words_api.base_url", "SPELLTRAINER_WORDS_API_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind SPELLTRAINER_WORDS_API_URL environment variable: %w", err)
	}
	// Bind database password to environment variable
	if err := v.BindEnv("database.password", "DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind DB_PASSWORD environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %s", TranslateValidationErrors(err, loader.translator))
	}

	return &cfg, nil
}
