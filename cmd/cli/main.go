package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"shoptrends/adapters/source"
	"shoptrends/domain/chart"
	"shoptrends/domain/core"
	"shoptrends/domain/dataset"
	"shoptrends/internal"
	"shoptrends/internal/dashboard"
	"shoptrends/internal/render"
	"shoptrends/internal/table"
	"shoptrends/internal/testkit"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "shoptrends-cli",
		Short:         "Shopping trends dashboard tools: summaries, chart export, data import",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newSummaryCmd(),
		newRenderCmd(),
		newImportCmd(),
		newGenerateCmd(),
	)
	return rootCmd
}

// dataFlags selects the dataset: a data location, or synthetic rows when none is given
type dataFlags struct {
	data  string
	table string
	rows  int
	seed  int64
	sets  []string
}

func (f *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.data, "data", "", "Data location (.csv, .xlsx, s3://, gs://, postgres://, sqlite://)")
	cmd.Flags().StringVar(&f.table, "table", "shopping_trends", "Table name for SQL sources")
	cmd.Flags().IntVar(&f.rows, "rows", 3900, "Synthetic rows when --data is empty")
	cmd.Flags().Int64Var(&f.seed, "seed", 42, "Random seed for synthetic rows")
	cmd.Flags().StringArrayVar(&f.sets, "set", nil, `Control value as id=json, e.g. --set 'age_range=[18,80]' --set season=Winter`)
}

func (f *dataFlags) load(ctx context.Context, logger *internal.Logger) (*dataset.Dataset, error) {
	if f.data == "" {
		return testkit.SyntheticDataset(f.rows, f.seed), nil
	}
	return source.NewLoader(f.table, logger).Load(ctx, f.data)
}

// session loads the dataset and applies every --set in order
func (f *dataFlags) session(ctx context.Context, logger *internal.Logger) (*dashboard.Session, error) {
	ds, err := f.load(ctx, logger)
	if err != nil {
		return nil, err
	}
	board, err := dashboard.New(ds, dashboard.Options{Logger: logger})
	if err != nil {
		return nil, err
	}
	s := board.NewSession(core.NewSessionID())
	for _, set := range f.sets {
		body, err := eventBody(set)
		if err != nil {
			return nil, err
		}
		if _, err := s.HandleEvent(ctx, body); err != nil {
			return nil, fmt.Errorf("--set %s: %w", set, err)
		}
	}
	return s, nil
}

// eventBody turns id=value into a control event. Values that are not JSON are sent as
// strings, so --set season=Winter works unquoted.
func eventBody(set string) ([]byte, error) {
	id, raw, ok := strings.Cut(set, "=")
	if !ok || id == "" {
		return nil, fmt.Errorf("invalid --set %q, expected id=value", set)
	}
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}
	return json.Marshal(map[string]interface{}{"control": id, "value": value})
}

func cliLogger(verbose bool) *internal.Logger {
	if verbose {
		return internal.NewLoggerTo(os.Stderr, internal.LogLevelDebug)
	}
	return internal.NewLoggerTo(os.Stderr, internal.LogLevelWarn)
}

func newSummaryCmd() *cobra.Command {
	var flags dataFlags
	var verbose bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print descriptive statistics and findings for the filtered rows",
		Long: `Apply control values to a fresh session and print the filtered row count,
numeric column statistics and the generated findings.

Example: shoptrends-cli summary --data ./data/shopping_trends.csv --set 'age_range=[18,80]' --set category=Footwear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd.Context(), cmd.OutOrStdout(), &flags, cliLogger(verbose))
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	return cmd
}

func runSummary(ctx context.Context, out io.Writer, flags *dataFlags, logger *internal.Logger) error {
	s, err := flags.session(ctx, logger)
	if err != nil {
		return err
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	view, err := s.View(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Rows: %d of %d\n", view.Len(), s.Dataset.Len())
	for _, slot := range dashboard.Layout {
		if box, ok := snap.Values[string(slot.ID)]; ok {
			fmt.Fprintf(out, "%s: %s\n", box.Label, box.Value)
		}
	}
	fmt.Fprintln(out)
	if !view.Empty() {
		fmt.Fprintln(out, table.Describe(view).String())
	}
	for _, slot := range []string{string(dashboard.SlotKeyFindings), string(dashboard.SlotCategoryInsights)} {
		if text, ok := snap.Texts[slot]; ok {
			fmt.Fprintln(out, text.Markdown)
		}
	}
	return nil
}

func newRenderCmd() *cobra.Command {
	var flags dataFlags
	var outDir string
	var width, height int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "render [slot...]",
		Short: "Render chart slots to PNG files",
		Long: `Render chart slots of a fresh session to <out>/<slot>.png. With no slot
arguments every chart slot is rendered.

Example: shoptrends-cli render --out ./charts --set show_discounts=true discount_promo_impact`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), cmd.OutOrStdout(), &flags, args, outDir, width, height, cliLogger(verbose))
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", "charts", "Output directory")
	cmd.Flags().IntVar(&width, "width", render.DefaultWidth, "Image width")
	cmd.Flags().IntVar(&height, "height", render.DefaultHeight, "Image height")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	return cmd
}

func runRender(ctx context.Context, out io.Writer, flags *dataFlags, slots []string, outDir string, width, height int, logger *internal.Logger) error {
	s, err := flags.session(ctx, logger)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		for _, slot := range dashboard.Layout {
			if slot.Kind == dashboard.KindChart {
				slots = append(slots, string(slot.ID))
			}
		}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	for _, slot := range slots {
		spec, err := s.Chart(ctx, slot)
		if err != nil {
			return err
		}
		path := filepath.Join(outDir, slot+".png")
		if err := writePNG(path, spec, width, height); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", path)
	}
	return nil
}

func writePNG(path string, spec chart.Spec, width, height int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render.PNG(f, spec, width, height); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newImportCmd() *cobra.Command {
	var dsn, tableName string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Copy a CSV/XLSX file into a database table",
		Long: `Read a local CSV or XLSX file and insert its rows into a table, creating it
if needed. The table can then be served with DATA_FILE set to the DSN.

Example: shoptrends-cli import ./data/shopping_trends.csv --dsn sqlite://./trends.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), args[0], dsn, tableName, cliLogger(verbose))
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "Target database (postgres:// or sqlite://)")
	cmd.Flags().StringVar(&tableName, "table", "shopping_trends", "Target table")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}

func runImport(ctx context.Context, out io.Writer, file, dsn, tableName string, logger *internal.Logger) error {
	raw, err := source.NewDataReader(file, logger).ReadData()
	if err != nil {
		return err
	}
	src, err := source.OpenSQL(ctx, dsn, tableName)
	if err != nil {
		return err
	}
	defer src.Close()

	n, err := src.Import(ctx, raw)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %d rows into %s\n", n, tableName)
	return nil
}

func newGenerateCmd() *cobra.Command {
	var rows int
	var seed int64
	var outFile string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic shopping trends CSV",
		Long: `Generate deterministic synthetic customer purchases in the column layout of
the shopping trends dataset.

Example: shoptrends-cli generate --rows 3900 --seed 42 -o ./data/shopping_trends.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.OutOrStdout(), rows, seed, outFile)
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 3900, "Number of customers")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Output file (stdout when empty)")
	return cmd
}

func runGenerate(out io.Writer, rows int, seed int64, outFile string) error {
	if rows <= 0 {
		return fmt.Errorf("--rows must be positive")
	}
	cfg := testkit.DefaultShoppingConfig()
	cfg.CustomerCount = rows
	cfg.Seed = seed
	gen := testkit.NewShoppingDataGenerator(cfg)

	w := out
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outFile, err)
		}
		defer f.Close()
		w = f
	}
	return gen.WriteCSV(w, gen.GenerateRecords())
}
