package config_test

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarlopez/petty/config"
)

func TestLoadDefaults(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.BindFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := config.Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, 1000, cfg.TimeoutMS)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4096, cfg.OutboundBuffer)
}

func TestLoadFlagOverridesDefault(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--addr=127.0.0.1:9090", "--log-level=debug"}))

	cfg, err := config.Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("PETTY_ADDR", "10.0.0.1:7000")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.BindFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := config.Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:7000", cfg.Addr)
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--timeout-ms=0"}))

	_, err := config.Load("", fs)
	assert.Error(t, err)
}

func TestLoadReadsConfigFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "petty-*.yaml")
	require.NoError(t, err)
	_, err = f.WriteString("addr: 192.168.1.1:5000\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.BindFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := config.Load(f.Name(), fs)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1:5000", cfg.Addr)
}
