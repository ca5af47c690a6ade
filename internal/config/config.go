// Package config holds the settings shared by the dbal commands. Values come
// from defaults, then an optional .env file, then the process environment.
// Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/output"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/platform"
)

const (
	EnvPlatform            = "DBAL_PLATFORM"
	EnvDatabaseURL         = "DBAL_DATABASE_URL"
	EnvFormat              = "DBAL_FORMAT"
	EnvColor               = "DBAL_COLOR"
	EnvDetectColumnRenames = "DBAL_DETECT_COLUMN_RENAMES"
	EnvDetectIndexRenames  = "DBAL_DETECT_INDEX_RENAMES"
	EnvLogLevel            = "DBAL_LOG_LEVEL"
)

type Config struct {
	Platform            string
	DatabaseURL         string
	Format              string
	Color               bool
	DetectColumnRenames bool
	DetectIndexRenames  bool
	LogLevel            string
}

// Default returns the settings used when nothing else is configured. The
// platform is left empty: it has to be named by the user.
func Default() Config {
	return Config{
		Format:              string(output.FormatText),
		DetectColumnRenames: true,
		DetectIndexRenames:  true,
		LogLevel:            "warn",
	}
}

// Load reads envFile into the environment and returns the resulting config.
// An empty envFile loads ".env" from the working directory if it exists.
// Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv applies the DBAL_* variables found by lookup to the defaults.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str(EnvPlatform, &cfg.Platform)
	str(EnvDatabaseURL, &cfg.DatabaseURL)
	str(EnvFormat, &cfg.Format)
	str(EnvLogLevel, &cfg.LogLevel)

	for key, dst := range map[string]*bool{
		EnvColor:               &cfg.Color,
		EnvDetectColumnRenames: &cfg.DetectColumnRenames,
		EnvDetectIndexRenames:  &cfg.DetectIndexRenames,
	} {
		if err := boolean(key, dst); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// Validate reports an unknown platform, format or log level. An empty
// platform is valid.
func (c Config) Validate() error {
	if c.Platform != "" {
		if _, err := platform.Get(c.Platform); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if _, err := output.NewFormatter(c.Format); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q", c.LogLevel)
	}
	return l, nil
}

// Logger returns a text logger writing to w at the configured level. An
// invalid level falls back to warn.
func (c Config) Logger(w io.Writer) *slog.Logger {
	l, err := c.level()
	if err != nil {
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}
