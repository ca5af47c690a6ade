package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.Platform)
	assert.Equal(t, "text", cfg.Format)
	assert.True(t, cfg.DetectColumnRenames)
	assert.True(t, cfg.DetectIndexRenames)
	assert.False(t, cfg.Color)
	require.NoError(t, cfg.Validate())
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    func(*Config)
		wantErr string
	}{
		{
			name: "empty environment",
			env:  map[string]string{},
			want: func(*Config) {},
		},
		{
			name: "all variables",
			env: map[string]string{
				EnvPlatform:            "postgresql",
				EnvDatabaseURL:         "postgres://localhost/app",
				EnvFormat:              "json",
				EnvColor:               "true",
				EnvDetectColumnRenames: "false",
				EnvDetectIndexRenames:  "0",
				EnvLogLevel:            "debug",
			},
			want: func(c *Config) {
				c.Platform = "postgresql"
				c.DatabaseURL = "postgres://localhost/app"
				c.Format = "json"
				c.Color = true
				c.DetectColumnRenames = false
				c.DetectIndexRenames = false
				c.LogLevel = "debug"
			},
		},
		{
			name: "blank values keep defaults",
			env:  map[string]string{EnvPlatform: "  ", EnvColor: ""},
			want: func(*Config) {},
		},
		{
			name:    "invalid boolean",
			env:     map[string]string{EnvColor: "sometimes"},
			wantErr: "config: DBAL_COLOR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromEnv(envMap(tt.env))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			want := Default()
			tt.want(&want)
			assert.Equal(t, want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"platform alias", func(c *Config) { c.Platform = "postgres" }, ""},
		{"unknown platform", func(c *Config) { c.Platform = "oracle" }, `unsupported platform "oracle"`},
		{"unknown format", func(c *Config) { c.Format = "xml" }, "unsupported format: xml"},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }, `invalid log level "loud"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dbal.env")
	require.NoError(t, os.WriteFile(path, []byte("DBAL_FORMAT=summary\nDBAL_PLATFORM=sqlite\n"), 0o644))

	t.Setenv(EnvPlatform, "mariadb")
	t.Setenv(EnvFormat, "")
	require.NoError(t, os.Unsetenv(EnvFormat))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "summary", cfg.Format)
	assert.Equal(t, "mariadb", cfg.Platform)
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: load")
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogLevel = "info"

	log := cfg.Logger(&buf)
	log.Debug("hidden")
	log.Info("shown", "table", "users")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown table=users")
}
