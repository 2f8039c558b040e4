// Package config loads process configuration for the petty-server and
// petty-client entrypoints: listen/dial address, poll timeout and log
// level, layered flags > env > file via viper, matching the defaults this
// module's constants already assume.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jarlopez/petty"
)

// Config is the resolved process configuration for a petty CLI entrypoint.
type Config struct {
	// Addr is the listen address (server) or dial address (client), host:port.
	Addr string
	// TimeoutMS is the selector poll timeout in milliseconds.
	TimeoutMS int
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string
	// OutboundBuffer sizes the Loop's outbound Trigger channel.
	OutboundBuffer int
	// MetricsAddr is the address to serve Prometheus metrics on; empty
	// disables the metrics endpoint.
	MetricsAddr string
}

// defaults mirrors the core's own constants so a config file or flag that
// doesn't mention a key still resolves to the value the loop would pick on
// its own.
func defaults() Config {
	return Config{
		Addr:           "127.0.0.1:8080",
		TimeoutMS:      petty.DefaultTimeoutMS,
		LogLevel:       "info",
		OutboundBuffer: 4096,
	}
}

// Load resolves a Config from, in increasing priority, a config file
// (cfgFile, optional), environment variables prefixed PETTY_, and flags
// already parsed into fs.
func Load(cfgFile string, fs *pflag.FlagSet) (Config, error) {
	cfg := defaults()

	v := viper.New()
	v.SetEnvPrefix("petty")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", cfg.Addr)
	v.SetDefault("timeout-ms", cfg.TimeoutMS)
	v.SetDefault("log-level", cfg.LogLevel)
	v.SetDefault("outbound-buffer", cfg.OutboundBuffer)
	v.SetDefault("metrics-addr", cfg.MetricsAddr)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", cfgFile, err)
		}
	}

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	cfg.Addr = v.GetString("addr")
	cfg.TimeoutMS = v.GetInt("timeout-ms")
	cfg.LogLevel = v.GetString("log-level")
	cfg.OutboundBuffer = v.GetInt("outbound-buffer")
	cfg.MetricsAddr = v.GetString("metrics-addr")

	if cfg.TimeoutMS <= 0 {
		return Config{}, fmt.Errorf("config: timeout-ms must be positive, got %d", cfg.TimeoutMS)
	}
	if cfg.OutboundBuffer <= 0 {
		return Config{}, fmt.Errorf("config: outbound-buffer must be positive, got %d", cfg.OutboundBuffer)
	}
	return cfg, nil
}

// BindFlags registers the flags Load understands onto fs, suitable for a
// cobra command's PersistentFlags or Flags.
func BindFlags(fs *pflag.FlagSet) {
	d := defaults()
	fs.String("addr", d.Addr, "listen (server) or dial (client) address")
	fs.Int("timeout-ms", d.TimeoutMS, "selector poll timeout in milliseconds")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	fs.Int("outbound-buffer", d.OutboundBuffer, "outbound Trigger channel buffer size")
	fs.String("metrics-addr", d.MetricsAddr, "address to serve Prometheus metrics on (empty disables)")
}
