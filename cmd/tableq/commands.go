package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableq/internal/dialect"
	"tableq/internal/executor/sqldb"
	"tableq/internal/introspect"
	_ "tableq/internal/introspect/mysql"
	"tableq/internal/lint"
	yamlparser "tableq/internal/parser/yaml"
	"tableq/internal/query"
)

// emit writes formatted to the output file when one is given, else to stdout.
func (a *app) emit(formatted, outFile string) error {
	if outFile == "" {
		return writeString(a.out, formatted)
	}
	if err := os.WriteFile(outFile, []byte(formatted), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	a.printInfo(fmt.Sprintf("Output saved to %s", outFile))
	return nil
}

func newCompileCmd(a *app) *cobra.Command {
	var f queryFlags
	var outFile string
	var withLint bool

	cmd := &cobra.Command{
		Use:   "compile <table>",
		Short: "Compile filters into a SELECT without running it",
		Long: `Compile resolves the table from the schema files, applies the filters and
prints the statement that query would run.

Examples:
  tableq compile orders -s schema.toml -w "Price=>=10" --order CreatedAt:desc --limit 20
  tableq compile orders -s schema.toml --mapping -w "customer=o'neil" -f json
  tableq compile orders -s schema.toml --key 1 --key 2 --lint`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			e, err := a.engine(reg, args[0], &f, nil)
			if err != nil {
				return err
			}

			var c *query.Compiled
			if len(f.keys) > 0 {
				c, err = e.CompileByKeys(f.parsedKeys(), f.fetchOptions()...)
			} else {
				filters, ferr := f.filters()
				if ferr != nil {
					return ferr
				}
				c, err = e.Compile(filters, f.fetchOptions()...)
			}
			if err != nil {
				return err
			}

			if withLint {
				r := lint.NewLinter().Lint(c.Statement)
				for _, w := range r.Warnings {
					a.printInfo(fmt.Sprintf("[%s] %s", w.Level, w.Message))
				}
				if !r.OK() {
					return fmt.Errorf("compiled statement failed lint: %s", strings.Join(r.Errors, "; "))
				}
			}

			formatter, err := a.formatter()
			if err != nil {
				return err
			}
			formatted, err := formatter.FormatCompiled(c)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			return a.emit(formatted, outFile)
		},
	}

	f.bind(cmd)
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file for the compiled statement")
	cmd.Flags().BoolVar(&withLint, "lint", false, "Lint the compiled statement")
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	var f queryFlags
	var outFile string
	var one bool
	var dryRun bool
	var timeout int
	var statement string

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Compile filters and run the statement",
		Long: `Query connects to the configured database, runs the compiled SELECT and
prints the normalized rows.

Examples:
  tableq query orders -c tableq.toml -w "CreatedAt=2021-01/2021-03" --limit 10
  tableq query orders --dsn "user:pass@tcp(localhost:3306)/shop" -s schema.sql --key 42 --one`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeout)*time.Second)
			defer cancel()

			var b *backend
			if !dryRun {
				b, err = a.openBackend(ctx)
				if err != nil {
					return err
				}
				defer func() {
					if err := b.close(); err != nil {
						a.logger.Warn("failed to close database connection", "error", err)
					}
				}()
			}

			e, err := a.engine(reg, args[0], &f, b)
			if err != nil {
				return err
			}
			e.OnlyCreateQuery(dryRun)

			filters, err := f.filters()
			if err != nil {
				return err
			}
			opts := f.fetchOptions()

			var rows []query.Row
			switch {
			case statement != "":
				rows, err = e.RunQuery(ctx, statement, f.params...)
			case len(f.keys) > 0 && one:
				var row query.Row
				row, err = e.FetchOneByKey(ctx, f.parsedKeys()[0], opts...)
				rows = appendRow(rows, row)
			case len(f.keys) > 0:
				rows, err = e.FetchByKeys(ctx, f.parsedKeys(), opts...)
			case one:
				var row query.Row
				row, err = e.FetchOne(ctx, filters, opts...)
				rows = appendRow(rows, row)
			default:
				rows, err = e.Fetch(ctx, filters, opts...)
			}
			if err != nil {
				return err
			}

			formatter, err := a.formatter()
			if err != nil {
				return err
			}
			if dryRun {
				formatted, err := formatter.FormatCompiled(e.Compiled())
				if err != nil {
					return fmt.Errorf("failed to format output: %w", err)
				}
				return a.emit(formatted, outFile)
			}

			a.printInfo(fmt.Sprintf("%d row(s) in %s", len(rows), e.QueryTime().Round(time.Microsecond)))
			formatted, err := formatter.FormatRows(rows)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			return a.emit(formatted, outFile)
		},
	}

	f.bind(cmd)
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file for the rows")
	cmd.Flags().BoolVar(&one, "one", false, "Return at most one row")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Print the statement without connecting")
	cmd.Flags().IntVar(&timeout, "timeout", 300, "Query timeout in seconds")
	cmd.Flags().StringVar(&statement, "statement", "", "Run this statement instead of compiling filters; %s placeholders bind --param")
	return cmd
}

func appendRow(rows []query.Row, row query.Row) []query.Row {
	if row == nil {
		return rows
	}
	return append(rows, row)
}

func newWriteCmd(a *app, op string) *cobra.Command {
	var sets []string
	var mapping bool
	var timeout int

	cmd := &cobra.Command{
		Use:   op + " <table>",
		Short: strings.ToUpper(op[:1]) + op[1:] + " one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record := make(map[string]any, len(sets))
			for _, s := range sets {
				key, value, ok := strings.Cut(s, "=")
				if !ok || strings.TrimSpace(key) == "" {
					return fmt.Errorf("invalid --set %q; use field=value", s)
				}
				record[strings.TrimSpace(key)] = value
			}

			reg, err := a.registry()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeout)*time.Second)
			defer cancel()

			b, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := b.close(); err != nil {
					a.logger.Warn("failed to close database connection", "error", err)
				}
			}()

			e, err := a.engine(reg, args[0], &queryFlags{mapping: mapping, offset: -1}, b)
			if err != nil {
				return err
			}

			switch op {
			case "insert":
				err = e.Insert(ctx, record)
			case "update":
				err = e.Update(ctx, record)
			case "upsert":
				err = e.Upsert(ctx, record)
			case "delete":
				err = e.Delete(ctx, record)
			}
			if err != nil {
				return err
			}
			a.printInfo(fmt.Sprintf("%s on %s done", op, args[0]))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Field value as field=value; repeatable")
	cmd.Flags().BoolVar(&mapping, "mapping", false, "Fields are display names from the table mapping")
	cmd.Flags().IntVar(&timeout, "timeout", 300, "Statement timeout in seconds")
	return cmd
}

func newLintCmd(a *app) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "lint <file.sql>...",
		Short: "Check that statements are bounded read-only SELECTs",
		Long: `Lint parses each statement with the TiDB parser. Anything other than a
single SELECT is an error; unbounded reads, ORDER BY RAND() and wildcard
projections are reported as warnings. Use - to read standard input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := lint.NewLinter()
			var statements []string
			for _, path := range args {
				content, err := readInput(cmd.InOrStdin(), path)
				if err != nil {
					return err
				}
				statements = append(statements, l.SplitStatements(content)...)
			}
			if len(statements) == 0 {
				a.printInfo("No SQL statements found")
				return nil
			}

			results, ok := l.LintAll(statements)
			formatter, err := a.formatter()
			if err != nil {
				return err
			}
			formatted, err := formatter.FormatLint(results)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			if err := a.emit(formatted, outFile); err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("lint failed; see errors above")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file for the findings")
	return cmd
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func newDDLCmd(a *app) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "ddl [table]...",
		Short: "Print CREATE TABLE statements for resolved tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				names = reg.Names()
			}

			d := dialect.GetDialect(a.cfg.DialectType())
			var sb strings.Builder
			for i, name := range names {
				t, err := reg.Resolve(name)
				if err != nil {
					return err
				}
				if i > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(d.CreateTable(t))
				sb.WriteString("\n")
			}
			return a.emit(sb.String(), outFile)
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file for the DDL")
	return cmd
}

func newTablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables the schema files define",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			var sb strings.Builder
			for _, name := range reg.Names() {
				t, err := reg.Resolve(name)
				if err != nil {
					return err
				}
				line := fmt.Sprintf("%s\t%s\t%d fields\t%d mapped", name, t.Object, len(t.Fields), len(t.Mapping))
				if t.Extends != "" {
					line += "\textends " + t.Extends
				}
				sb.WriteString(line + "\n")
			}
			return writeString(a.out, sb.String())
		},
	}
}

func newIntrospectCmd(a *app) *cobra.Command {
	var outFile string
	var timeout int

	cmd := &cobra.Command{
		Use:   "introspect [table]...",
		Short: "Read table definitions from a live database as YAML schema",
		Long: `Introspect connects to the database and writes a YAML schema file for the
named tables, or for every base table when none are given. Primary key
columns get the isKey validation token.

Example:
  tableq introspect --dsn "user:pass@tcp(localhost:3306)/shop" orders customers -o schema.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DialectType() != dialect.MySQL {
				return fmt.Errorf("introspection is not supported for dialect %s", a.cfg.Dialect)
			}
			if a.cfg.DSN == "" {
				return fmt.Errorf("--dsn is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeout)*time.Second)
			defer cancel()

			client, err := sqldb.Open(ctx, sqldb.Options{Driver: a.cfg.Driver, DSN: a.cfg.DSN, Logger: a.logger})
			if err != nil {
				return err
			}
			defer func() {
				if err := client.Close(); err != nil {
					a.logger.Warn("failed to close database connection", "error", err)
				}
			}()

			i, err := introspect.NewIntrospecter(a.cfg.DialectType())
			if err != nil {
				return err
			}
			result, err := i.Introspect(ctx, client.DB(), args...)
			if err != nil {
				return err
			}
			a.logger.Info("introspected database",
				"database", result.Database, "flavor", result.Flavor, "version", result.Version, "tables", len(result.Tables))

			data, err := yamlparser.Marshal(result.Tables)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			return a.emit(string(data), outFile)
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file for the YAML schema")
	cmd.Flags().IntVar(&timeout, "timeout", 300, "Connection timeout in seconds")
	return cmd
}
