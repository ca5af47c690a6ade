// Package main is the dbal command line tool. It compares schema files and
// live databases and prints the differences or the DDL that resolves them.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/config"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/diff"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/output"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/parser"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/platform"

	_ "github.com/CNLSJohnDoe/doctrine-dbal/internal/dialect/mysql"
	_ "github.com/CNLSJohnDoe/doctrine-dbal/internal/introspect/mysql"
	_ "github.com/CNLSJohnDoe/doctrine-dbal/internal/introspect/postgresql"
	_ "github.com/CNLSJohnDoe/doctrine-dbal/internal/introspect/sqlite"
	_ "github.com/CNLSJohnDoe/doctrine-dbal/internal/introspect/sqlserver"
)

// errDifferences makes compare exit with status 2.
var errDifferences = errors.New("schemas differ")

// app carries the resolved configuration from the root command to the
// subcommands.
type app struct {
	envFile string
	flags   config.Config
	cfg     config.Config
	log     *slog.Logger
	reg     *core.TypeRegistry
}

func main() {
	err := newRootCmd().Execute()
	switch {
	case err == nil:
	case errors.Is(err, errDifferences):
		os.Exit(2)
	default:
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{reg: core.NewTypeRegistry()}

	rootCmd := &cobra.Command{
		Use:           "dbal",
		Short:         "Schema comparison tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", "", "Load settings from this .env file")
	pf.StringVarP(&a.flags.Platform, "platform", "p", "", "Target platform: mysql, mariadb, postgresql, sqlserver, sqlite or db2")
	pf.StringVarP(&a.flags.Format, "format", "f", "", "Output format: text, sql, json or summary")
	pf.BoolVar(&a.flags.Color, "color", false, "Colorize text and sql output")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.BoolVar(&a.flags.DetectColumnRenames, "detect-column-renames", true, "Report matching dropped and added columns as renames")
	pf.BoolVar(&a.flags.DetectIndexRenames, "detect-index-renames", true, "Report matching dropped and added indexes as renames")

	rootCmd.AddCommand(a.diffCmd())
	rootCmd.AddCommand(a.planCmd())
	rootCmd.AddCommand(a.introspectCmd())
	rootCmd.AddCommand(a.compareCmd())

	return rootCmd
}

// configure loads the environment and applies the flags the user set.
func (a *app) configure(cmd *cobra.Command) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("platform") {
		cfg.Platform = a.flags.Platform
	}
	if flags.Changed("format") {
		cfg.Format = a.flags.Format
	}
	if flags.Changed("color") {
		cfg.Color = a.flags.Color
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.LogLevel
	}
	if flags.Changed("detect-column-renames") {
		cfg.DetectColumnRenames = a.flags.DetectColumnRenames
	}
	if flags.Changed("detect-index-renames") {
		cfg.DetectIndexRenames = a.flags.DetectIndexRenames
	}
	if flags.Lookup("url") != nil && flags.Changed("url") {
		cfg.DatabaseURL, _ = flags.GetString("url")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = cfg.Logger(cmd.ErrOrStderr())
	return nil
}

// platformFor returns the configured platform. fallback is used when neither
// --platform nor DBAL_PLATFORM is set; the live commands pass the platform of
// the URL scheme. Snapshot contents are never consulted.
func (a *app) platformFor(fallback string) (platform.Provider, error) {
	name := a.cfg.Platform
	if name == "" {
		name = fallback
	}
	if name == "" {
		return nil, errors.New("--platform or DBAL_PLATFORM is required")
	}
	return platform.Get(name)
}

func (a *app) comparator(p platform.Provider) *diff.Comparator {
	return diff.NewComparator(p,
		diff.WithOptions(diff.Options{
			DetectColumnRenames: a.cfg.DetectColumnRenames,
			DetectIndexRenames:  a.cfg.DetectIndexRenames,
		}),
		diff.WithLogger(a.log),
	)
}

func (a *app) formatter() (output.Formatter, error) {
	return output.NewFormatter(a.cfg.Format, output.WithColor(a.cfg.Color))
}

func (a *app) parseFile(path string) (*core.Database, error) {
	db, err := parser.ParseFile(path, a.reg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return db, nil
}

// printInfo writes progress messages. They go to stderr when the output is
// JSON so stdout stays machine readable.
func (a *app) printInfo(cmd *cobra.Command, msg string) {
	var w io.Writer = cmd.OutOrStdout()
	if strings.EqualFold(strings.TrimSpace(a.cfg.Format), string(output.FormatJSON)) {
		w = cmd.ErrOrStderr()
	}
	_, _ = fmt.Fprintln(w, msg)
}

// emit prints formatted, or saves it to path when path is set.
func (a *app) emit(cmd *cobra.Command, formatted, path string) error {
	if path == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), formatted)
		return err
	}
	if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	a.printInfo(cmd, fmt.Sprintf("Output saved to %s", path))
	return nil
}
