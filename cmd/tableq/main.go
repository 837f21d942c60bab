// Package main contains the cli implementation of the tool. It uses cobra
// package for cli tool implementation.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tableq/internal/config"
	_ "tableq/internal/dialect/bigquery"
	_ "tableq/internal/dialect/mysql"
	"tableq/internal/logging"
	"tableq/internal/output"
	"tableq/internal/parser"
	"tableq/internal/schema"
)

// app holds what every command needs once the root flags are parsed.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	schemas    []string
	format     string
	dsn        string
	dialect    string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func (a *app) printInfo(msg string) {
	if output.IsJSON(a.format) {
		_, _ = fmt.Fprintln(a.errOut, msg)
		return
	}
	_, _ = fmt.Fprintln(a.out, msg)
}

// setup loads the configuration and applies flag overrides.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("dsn") {
		cfg.DSN = a.dsn
	}
	if cmd.Flags().Changed("dialect") {
		cfg.Dialect = a.dialect
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if !cmd.Flags().Changed("format") {
		a.format = cfg.Format
	}
	cfg.Schemas = append(cfg.Schemas, a.schemas...)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, a.errOut)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// registry parses every configured schema file.
func (a *app) registry() (*schema.Registry, error) {
	if len(a.cfg.Schemas) == 0 {
		return nil, fmt.Errorf("no schema files given; use --schema or the schemas config key")
	}
	reg := schema.NewRegistry()
	if err := parser.LoadFiles(reg, a.cfg.Schemas...); err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}
	a.logger.Debug("schemas loaded", "files", strings.Join(a.cfg.Schemas, ","), "tables", len(reg.Names()))
	return reg, nil
}

func (a *app) formatter() (output.Formatter, error) {
	return output.NewFormatter(a.format)
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:           "tableq",
		Short:         "Compile table filters into SQL and run them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a tableq.toml configuration file")
	flags.StringArrayVarP(&a.schemas, "schema", "s", nil, "Schema file (.toml, .yaml, .sql); repeatable")
	flags.StringVarP(&a.format, "format", "f", "", "Output format: sql, json or summary")
	flags.StringVar(&a.dsn, "dsn", "", "Database connection string (overrides config and "+config.EnvDSN+")")
	flags.StringVar(&a.dialect, "dialect", "", "SQL dialect: mysql or bigquery")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(newCompileCmd(a))
	rootCmd.AddCommand(newQueryCmd(a))
	rootCmd.AddCommand(newLintCmd(a))
	rootCmd.AddCommand(newWriteCmdGroup(a))
	rootCmd.AddCommand(newDDLCmd(a))
	rootCmd.AddCommand(newTablesCmd(a))
	rootCmd.AddCommand(newIntrospectCmd(a))
	return rootCmd
}

func newWriteCmdGroup(a *app) *cobra.Command {
	writeCmd := &cobra.Command{
		Use:   "write",
		Short: "Insert, update, upsert or delete a single record",
	}
	for _, op := range []string{"insert", "update", "upsert", "delete"} {
		writeCmd.AddCommand(newWriteCmd(a, op))
	}
	return writeCmd
}

func main() {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
