package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"heartdash/internal/config"
	"heartdash/internal/container"
	"heartdash/internal/dashboard"
	"heartdash/internal/testkit"
	"heartdash/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataFile string

	rootCmd := &cobra.Command{
		Use:           "heartdash-cli",
		Short:         "Render the clinical dashboard and inspect its clustering from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataFile, "data", "", "Patient records file (overrides DATA_FILE)")

	rootCmd.AddCommand(
		newRenderCmd(&dataFile),
		newClustersCmd(&dataFile),
		newGenerateCmd(),
	)
	return rootCmd
}

// loadContainer reads the environment the same way the server does
func loadContainer(ctx context.Context, dataFile string) (*container.Container, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dataFile != "" {
		cfg.Data.File = dataFile
		if cfg.Data.Source == config.SourcePostgres {
			cfg.Data.Source = ""
		}
	}
	return container.New(ctx, cfg)
}

func newRenderCmd(dataFile *string) *cobra.Command {
	var out string
	var hist, outliers, scatter string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write a static HTML snapshot of the dashboard",
		Long: `Render every section once and write a self-contained HTML page.

Panels not named on the command line use their default selection; an empty
value selects nothing.

Example: heartdash-cli render --hist serum_creatinine,serum_sodium --scatter age --out snapshot.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(cmd.Context(), *dataFile)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			sel := c.Layout.DefaultSelections()
			for id, value := range map[string]*string{"hist": &hist, "outliers": &outliers, "scatter": &scatter} {
				if cmd.Flags().Changed(id) {
					sel[id] = dashboard.ParseSelection(*value)
				}
			}
			return runRender(cmd.Context(), c, sel, out, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "dashboard.html", "Output file, - for stdout")
	cmd.Flags().StringVar(&hist, "hist", "", "Comma separated histogram variables")
	cmd.Flags().StringVar(&outliers, "outliers", "", "Comma separated boxplot variables")
	cmd.Flags().StringVar(&scatter, "scatter", "", "Comma separated scatter variables")

	return cmd
}

func runRender(ctx context.Context, c *container.Container, sel dashboard.Selections, out string, stdout io.Writer) error {
	table, err := c.Source.Load(ctx)
	if err != nil {
		return err
	}
	view, err := c.Renderer.Render(ctx, table, sel)
	if err != nil {
		return err
	}
	view.Source = c.Source.Describe()

	pages, err := ui.NewPages()
	if err != nil {
		return err
	}

	w := stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}
	if err := pages.Dashboard(w, ui.Page{View: view, InlineCSS: true}); err != nil {
		return err
	}

	failed := 0
	for _, s := range view.Sections {
		if s.Error != "" {
			failed++
			fmt.Fprintf(os.Stderr, "section %s: %s\n", s.ID, s.Error)
		}
	}
	if out != "-" {
		fmt.Fprintf(stdout, "Wrote %s: %d sections, %d charts, %d failed\n", out, len(view.Sections), view.Charts(), failed)
	}
	return nil
}

func newClustersCmd(dataFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Print per-cluster patient counts and profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(cmd.Context(), *dataFile)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			table, err := c.Source.Load(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := c.Renderer.Clusters(table)
			if err != nil {
				return err
			}
			printClusters(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	return cmd
}

func printClusters(w io.Writer, summary *dashboard.ClusterSummary) {
	header := []string{"Cluster", "Patients", "Share"}
	header = append(header, summary.Features...)
	header = append(header, "Death rate")

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	for _, p := range summary.Profiles {
		row := []string{
			fmt.Sprintf("%d", p.Cluster),
			fmt.Sprintf("%d", p.Patients),
			fmt.Sprintf("%.1f%%", p.Share*100),
		}
		for _, mean := range p.FeatureMeans {
			row = append(row, fmt.Sprintf("%.2f", mean))
		}
		if p.DeathRate != nil {
			row = append(row, fmt.Sprintf("%.1f%%", *p.DeathRate*100))
		} else {
			row = append(row, "-")
		}
		table.Append(row)
	}
	table.Render()

	fmt.Fprintf(w, "k=%d seed=%d n=%d iterations=%d inertia=%.3f features=%s\n",
		summary.K, summary.Seed, summary.Total, summary.Iterations, summary.Inertia, strings.Join(summary.Features, ","))
}

func newGenerateCmd() *cobra.Command {
	cfg := testkit.DefaultPatientConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic heart-failure records CSV",
		Long: `Generate a seeded synthetic table with the heart-failure dataset columns.

Example: heartdash-cli generate --rows 299 --deaths 96 --seed 42 --out historiales_clinicos.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := testkit.NewPatientDataGenerator(cfg)
			if out == "-" {
				return gen.WriteCSV(cmd.OutOrStdout())
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()
			if err := gen.WriteCSV(f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d patients (%d deaths) to %s\n", cfg.Rows, cfg.Deaths, out)
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.Rows, "rows", cfg.Rows, "Number of patients")
	cmd.Flags().IntVar(&cfg.Deaths, "deaths", cfg.Deaths, "Number of patients with DEATH_EVENT=1")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	cmd.Flags().StringVarP(&out, "out", "o", "historiales_clinicos.csv", "Output file, - for stdout")

	return cmd
}
