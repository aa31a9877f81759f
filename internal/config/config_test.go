package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myip/internal/lookup"
)

// isolate keeps the search paths away from the developer's own config
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("myip", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, lookup.DefaultURL, cfg.Endpoint.URL)
	assert.Zero(t, cfg.Endpoint.Timeout)
	assert.Zero(t, cfg.Endpoint.MaxBodySize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Log.File)
	assert.Equal(t, OutputLog, cfg.Output.Format)
}

func TestLoadConfig_File(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, "custom.yaml", `
endpoint:
  url: https://api.ipify.org?format=json
  timeout: 3s
log:
  level: DEBUG
output:
  format: json
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://api.ipify.org?format=json", cfg.Endpoint.URL)
	assert.Equal(t, 3*time.Second, cfg.Endpoint.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, OutputJSON, cfg.Output.Format)
}

func TestLoadConfig_SearchPath(t *testing.T) {
	home := isolate(t)
	writeConfig(t, filepath.Join(home, ".myip"), "myip.yaml", `
endpoint:
  url: http://ip.internal/whoami
`)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://ip.internal/whoami", cfg.Endpoint.URL)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	home := isolate(t)

	_, err := LoadConfig(filepath.Join(home, "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_Precedence(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, "myip.yaml", `
endpoint:
  url: http://from-file/ip
  timeout: 1s
log:
  level: warn
`)

	t.Setenv("MYIP_ENDPOINT_URL", "http://from-env/ip")
	t.Setenv("MYIP_ENDPOINT_TIMEOUT", "2s")

	t.Run("env over file", func(t *testing.T) {
		cfg, err := LoadConfig(path, newFlags(t))
		require.NoError(t, err)
		assert.Equal(t, "http://from-env/ip", cfg.Endpoint.URL)
		assert.Equal(t, 2*time.Second, cfg.Endpoint.Timeout)
		assert.Equal(t, "warn", cfg.Log.Level, "unset flag keeps the file value")
	})

	t.Run("flag over env", func(t *testing.T) {
		cfg, err := LoadConfig(path, newFlags(t, "--url", "http://from-flag/ip", "--timeout", "4s", "-o", "json"))
		require.NoError(t, err)
		assert.Equal(t, "http://from-flag/ip", cfg.Endpoint.URL)
		assert.Equal(t, 4*time.Second, cfg.Endpoint.Timeout)
		assert.Equal(t, OutputJSON, cfg.Output.Format)
	})
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "relative url", args: []string{"--url", "php/api/get_my_ip.php"}, wantErr: "endpoint.url"},
		{name: "unsupported scheme", args: []string{"--url", "ftp://php/ip"}, wantErr: "endpoint.url"},
		{name: "negative timeout", args: []string{"--timeout", "-1s"}, wantErr: "endpoint.timeout"},
		{name: "unknown output", args: []string{"--output", "xml"}, wantErr: "output.format"},
		{name: "unknown log level", args: []string{"--log-level", "trace"}, wantErr: "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := LoadConfig("", newFlags(t, tt.args...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEndpointConfig_LookupConfig(t *testing.T) {
	e := EndpointConfig{URL: "http://php:80/api/get_my_ip.php", Timeout: time.Second, MaxBodySize: 512}

	assert.Equal(t, lookup.Config{
		URL:         "http://php:80/api/get_my_ip.php",
		Timeout:     time.Second,
		MaxBodySize: 512,
	}, e.LookupConfig())
}
