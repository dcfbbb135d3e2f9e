package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpattn/memberload/internal/credential"
	"github.com/rpattn/memberload/internal/db"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// MEMBERLOAD_DATABASE_HOST or MEMBERLOAD_UPLOAD_REFERENCE_MODE.
const EnvPrefix = "MEMBERLOAD"

// Config is the full application configuration.
type Config struct {
	Database db.Config    `mapstructure:"database"`
	Server   ServerConfig `mapstructure:"server"`
	Upload   UploadConfig `mapstructure:"upload"`
	Log      LogConfig    `mapstructure:"log"`

	// Source is the config file that was read, empty when only defaults and
	// environment were used.
	Source string `mapstructure:"-"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr" validate:"required"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
}

type UploadConfig struct {
	CallTimeout       time.Duration `mapstructure:"call_timeout" validate:"gt=0"`
	ReferenceMode     string        `mapstructure:"reference_mode" validate:"oneof=speculative snapshot"`
	QuotedFields      bool          `mapstructure:"quoted_fields"`
	NationalIDTypes   []string      `mapstructure:"national_id_types" validate:"min=1,dive,required"`
	InitialCredential string        `mapstructure:"initial_credential" validate:"required"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

var validate = validator.New()

// Load reads config.yaml from configPath (when present), applies environment
// overrides and validates the result.
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		cfg.Source = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	dbDefaults := db.DefaultConfig()
	v.SetDefault("database.host", dbDefaults.Host)
	v.SetDefault("database.port", dbDefaults.Port)
	v.SetDefault("database.user", dbDefaults.User)
	v.SetDefault("database.password", dbDefaults.Password)
	v.SetDefault("database.dbname", dbDefaults.DBName)
	v.SetDefault("database.sslmode", dbDefaults.SSLMode)
	v.SetDefault("database.max_conns", dbDefaults.MaxConns)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("upload.call_timeout", 10*time.Second)
	v.SetDefault("upload.reference_mode", "speculative")
	v.SetDefault("upload.quoted_fields", false)
	v.SetDefault("upload.national_id_types", []string{"1"})
	v.SetDefault("upload.initial_credential", credential.DefaultPlaceholder)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
