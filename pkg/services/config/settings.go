package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable that overrides a setting,
// e.g. REDFLAG_SERVER_PORT for server.port.
const EnvPrefix = "REDFLAG"

type Settings struct {
	Server   ServerSettings   `mapstructure:"server"`
	Analysis AnalysisSettings `mapstructure:"analysis"`
	Log      LogSettings      `mapstructure:"log"`
}

type ServerSettings struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// Addr returns the listen address in host:port form.
func (s ServerSettings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type AnalysisSettings struct {
	// PatternsFile overrides the built-in pattern library when set
	PatternsFile string `mapstructure:"patterns_file"`
	// ProvidersFile is the ini file with provider credentials
	ProvidersFile   string        `mapstructure:"providers_file"`
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
	MaxTextBytes    int           `mapstructure:"max_text_bytes"`
}

type LogSettings struct {
	Level string `mapstructure:"level"`
}

// ZerologLevel parses Level, falling back to info.
func (l LogSettings) ZerologLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(l.Level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Host:            "0.0.0.0",
			Port:            8000,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  10 << 20,
		},
		Analysis: AnalysisSettings{
			ProviderTimeout: 2 * time.Minute,
			MaxTextBytes:    5 << 20,
		},
		Log: LogSettings{Level: "info"},
	}
}

// LoadSettings reads settings from path (optional) and REDFLAG_* environment
// variables. Environment variables win over the file.
func LoadSettings(path string) (Settings, error) {
	v := viper.New()
	def := DefaultSettings()
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout)
	v.SetDefault("server.max_upload_bytes", def.Server.MaxUploadBytes)
	v.SetDefault("analysis.patterns_file", def.Analysis.PatternsFile)
	v.SetDefault("analysis.providers_file", def.Analysis.ProvidersFile)
	v.SetDefault("analysis.provider_timeout", def.Analysis.ProviderTimeout)
	v.SetDefault("analysis.max_text_bytes", def.Analysis.MaxTextBytes)
	v.SetDefault("log.level", def.Log.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return Settings{}, fmt.Errorf("invalid server port: %d", s.Server.Port)
	}
	return s, nil
}
