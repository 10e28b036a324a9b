package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pujar/labbill/internal/config"
	"github.com/pujar/labbill/internal/domain/billing"
	"github.com/pujar/labbill/internal/domain/report"
	"github.com/pujar/labbill/internal/platform/db"
	"github.com/pujar/labbill/internal/platform/handoff"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres handoff table",
	}

	withMigrator := func(cmd *cobra.Command, fn func(ctx context.Context, m *db.Migrator) error) error {
		schema, _ := cmd.Flags().GetString("schema")
		dir, _ := cmd.Flags().GetString("dir")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for migrations")
		}

		ctx := cmd.Context()
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return err
		}
		defer pool.Close()

		migrator, err := db.NewMigrator(pool, dir, schema)
		if err != nil {
			return err
		}
		return fn(ctx, migrator)
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
				target, _ := cmd.Flags().GetInt("to")
				fmt.Fprintf(cmd.OutOrStdout(), "Running migrations on schema: %s\n", m.Schema())

				count, err := m.UpTo(ctx, target)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().Int("to", 0, "Stop after this version (0 applies all)")

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Migration status for schema: %s\n", m.Schema())
				return printStatus(cmd.OutOrStdout(), statuses)
			})
		},
	}

	for _, c := range []*cobra.Command{upCmd, statusCmd} {
		c.Flags().String("schema", db.DefaultSchema, "Target schema for migrations")
		c.Flags().String("dir", "./migrations", "Path to migrations directory")
		cmd.AddCommand(c)
	}
	return cmd
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Version, s.Name, status, appliedAt)
	}
	return tw.Flush()
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog [query]",
		Short: "List diagnostic tests, optionally filtered by name or category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("reference")
			if file == "" {
				file = os.Getenv("REFERENCE_DATA_FILE")
			}
			ref, err := config.LoadReferenceData(file)
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			entries := slices.Collect(ref.NewCatalog().Filter(query))
			return printCatalog(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().String("reference", "", "Reference data file (defaults to REFERENCE_DATA_FILE or the built-in catalog)")
	return cmd
}

func printCatalog(w io.Writer, entries []billing.CatalogEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TEST\tCATEGORY\tPRICES")
	for _, e := range entries {
		prices := make([]string, 0, len(e.Prices))
		for _, p := range e.Prices {
			price := report.FormatINR(p.Price)
			if p.Variant != "" {
				price += " (" + p.Variant + ")"
			}
			prices = append(prices, price)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Category, strings.Join(prices, ", "))
	}
	return tw.Flush()
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a saved billing snapshot as text or PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			format, _ := cmd.Flags().GetString("format")
			out, _ := cmd.Flags().GetString("out")
			hospital, _ := cmd.Flags().GetString("hospital")
			department, _ := cmd.Flags().GetString("department")
			font, _ := cmd.Flags().GetString("font")

			data, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}

			branding := report.NewBranding(hospital, department)
			branding.PDFFont = font
			return renderTo(cmd.OutOrStdout(), out, data, format, branding)
		},
	}
	def := report.DefaultBranding()
	cmd.Flags().String("in", "", "Snapshot JSON file")
	cmd.Flags().String("format", "text", "Output format: text or pdf")
	cmd.Flags().String("out", "-", "Output path, - for stdout")
	cmd.Flags().String("hospital", def.Hospital, "Hospital name on the report")
	cmd.Flags().String("department", def.Department, "Department name on the report")
	cmd.Flags().String("font", "", "TrueType font embedded in PDF output for non-Latin text")
	cmd.MarkFlagRequired("in")
	return cmd
}

// renderTo renders into memory first so a bad snapshot or format never leaves
// a partial file at out. An empty out or "-" means stdout.
func renderTo(stdout io.Writer, out string, data []byte, format string, branding report.Branding) error {
	var buf bytes.Buffer
	if err := renderSnapshot(&buf, data, format, branding); err != nil {
		return err
	}
	if out == "" || out == "-" {
		_, err := buf.WriteTo(stdout)
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func renderSnapshot(w io.Writer, data []byte, format string, branding report.Branding) error {
	if format != "text" && format != "" && format != "pdf" {
		return fmt.Errorf("unknown format %q", format)
	}
	rec, err := handoff.Decode(data)
	if err != nil {
		return err
	}
	doc, err := report.NewRenderer(nil, branding).Build(rec)
	if err != nil {
		return err
	}
	if format == "pdf" {
		return report.WritePDF(w, doc)
	}
	return report.WriteText(w, doc)
}
