package core

import (
	"errors"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	database "old-maid-server/internal/db"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig    `mapstructure:"server"`
	Storage database.Config `mapstructure:"storage"`
	Auth    AuthConfig      `mapstructure:"auth"`
	Log     LogConfig       `mapstructure:"log"`
	Nats    NatsConfig      `mapstructure:"nats"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type AuthConfig struct {
	SecretKey  string        `mapstructure:"secret_key"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type NatsConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// InitConfig reads defaults, then oldmaid.yaml if present, then OLDMAID_*
// environment variables, then command line flags.
func InitConfig(args []string) (*viper.Viper, Config, error) {
	v := viper.New()
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("storage.driver", database.DriverMemory)
	v.SetDefault("storage.sqlite_path", "old-maid-server.db")
	v.SetDefault("auth.secret_key", "")
	v.SetDefault("auth.session_ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("nats.subject_prefix", "oldmaid")

	fs := pflag.NewFlagSet("old-maid-server", pflag.ContinueOnError)
	fs.String("addr", "", "api service address")
	fs.String("storage", "", "storage driver (memory or sqlite)")
	fs.String("sqlite-path", "", "sqlite database file")
	fs.String("log-level", "", "log level")
	fs.String("nats-url", "", "NATS server to mirror events to")
	configFile := fs.String("config", "", "config file")
	if err := fs.Parse(args); err != nil {
		return nil, Config{}, err
	}
	for key, flag := range map[string]string{
		"server.addr":         "addr",
		"storage.driver":      "storage",
		"storage.sqlite_path": "sqlite-path",
		"log.level":           "log-level",
		"nats.url":            "nats-url",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, Config{}, err
		}
	}

	v.SetEnvPrefix("oldmaid")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName("oldmaid")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/oldmaid")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, Config{}, err
	}
	return v, cfg, nil
}

// WatchLogLevel re-applies log.level whenever the config file changes.
func WatchLogLevel(v *viper.Viper, logger zerolog.Logger) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		level, err := zerolog.ParseLevel(v.GetString("log.level"))
		if err != nil {
			logger.Warn().Err(err).Str("file", e.Name).Msg("ignoring invalid log level")
			return
		}
		zerolog.SetGlobalLevel(level)
		logger.Info().Str("file", e.Name).Str("level", level.String()).Msg("log level reloaded")
	})
	v.WatchConfig()
}
