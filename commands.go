package main

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ucdavis/iwfm-sub003/internal/budget/application"
	budget "github.com/ucdavis/iwfm-sub003/internal/budget/domain"
	"github.com/ucdavis/iwfm-sub003/internal/budget/infrastructure/postgres"
	"github.com/ucdavis/iwfm-sub003/internal/budget/infrastructure/snapshot"
	"github.com/ucdavis/iwfm-sub003/internal/budget/interfaces/export"
	"github.com/ucdavis/iwfm-sub003/internal/budget/interfaces/notify"
	"github.com/ucdavis/iwfm-sub003/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Aggregate a zone budget and write reports",
	Args:  cobra.NoArgs,
	RunE:  runZoneBudget,
}

var timestepsCmd = &cobra.Command{
	Use:   "timesteps <start> <count>",
	Short: "Print a period-end timestep sequence",
	Example: `  zbudget timesteps 10/31/1973_24:00 3 --unit 1MON`,
	Args: cobra.ExactArgs(2),
	RunE: printTimesteps,
}

var zonesCmd = &cobra.Command{
	Use:   "zones <zone-file>",
	Short: "Summarise a zone definition file",
	Args:  cobra.ExactArgs(1),
	RunE:  printZones,
}

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Print whole-period totals of selected report columns per zone",
	Args:  cobra.NoArgs,
	RunE:  printColumnTotals,
}

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "Convert a location budget snapshot into per-location reports",
	Args:  cobra.NoArgs,
	RunE:  runLocationBudget,
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("zones", "", "Zone definition file")
	cmd.Flags().String("source", "", "Zone budget snapshot")
	cmd.Flags().Float64("area-factor", 0, "Area conversion factor")
	cmd.Flags().Float64("volume-factor", 0, "Volume conversion factor")
	cmd.Flags().Float64("length-factor", 0, "Length conversion factor")
	cmd.Flags().String("area-units", "", "Area unit name")
	cmd.Flags().String("volume-units", "", "Volume unit name")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("out", "o", "", "Output directory")
	cmd.Flags().StringSlice("format", nil, "Report formats (csv, text, xlsx, pdf)")
	cmd.Flags().String("descriptor", "", "Model descriptor line")
}

// loadRunConfig loads the config and applies the flags the user set.
func loadRunConfig(cmd *cobra.Command) (application.Config, error) {
	cfg, err := application.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	setString := func(name string, dst *string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	setFloat := func(name string, dst *float64) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetFloat64(name)
		}
	}
	setString("zones", &cfg.ZoneFile)
	setString("source", &cfg.Source)
	setString("out", &cfg.OutputDir)
	setString("descriptor", &cfg.Descriptor)
	setString("area-units", &cfg.Units.Area)
	setString("volume-units", &cfg.Units.Volume)
	setString("database-url", &cfg.DatabaseURL)
	setString("metrics-textfile", &cfg.MetricsTextfile)
	setString("notify-webhook", &cfg.Notify.WebhookURL)
	setFloat("area-factor", &cfg.Factors.Area)
	setFloat("volume-factor", &cfg.Factors.Volume)
	setFloat("length-factor", &cfg.Factors.Length)
	if flags.Lookup("format") != nil && flags.Changed("format") {
		cfg.Formats, _ = flags.GetStringSlice("format")
	}
	return cfg, nil
}

func runZoneBudget(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	exporter, err := export.NewExporter(cfg.Formats, logger)
	if err != nil {
		return err
	}
	opts := []application.Option{application.WithExporter(exporter)}

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("db ping: %w", err)
		}
		repo := postgres.NewRunRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			return fmt.Errorf("db migrate: %w", err)
		}
		opts = append(opts, application.WithRepository(repo))
	}
	metrics.Init(db, logger)

	if cfg.Notify.WebhookURL != "" {
		var webhookOpts []notify.WebhookOption
		if cfg.Notify.OnlyDiagnostics {
			webhookOpts = append(webhookOpts, notify.OnlyWithDiagnostics())
		}
		notifier, err := notify.NewWebhookNotifier(cfg.Notify.WebhookURL, webhookOpts...)
		if err != nil {
			return err
		}
		opts = append(opts, application.WithNotifier(notifier))
	}

	svc, err := application.NewService(snapshot.NewReader(logger), logger, opts...)
	if err != nil {
		return err
	}
	outcome, runErr := svc.Run(ctx, application.RequestFromConfig(cfg))
	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("metrics textfile write failed", zap.String("path", cfg.MetricsTextfile), zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d zones, %d timesteps, %d diagnostics\n",
		outcome.Run.ID, len(outcome.Run.Tables), len(outcome.Run.Timesteps), len(outcome.Run.Diagnostics))
	for _, path := range outcome.Files {
		fmt.Fprintln(out, path)
	}
	return nil
}

func printTimesteps(cmd *cobra.Command, args []string) error {
	count, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: invalid count %q", budget.ErrConfiguration, args[1])
	}
	delta, _ := cmd.Flags().GetFloat64("delta")
	unit, _ := cmd.Flags().GetString("unit")
	timesteps, err := budget.GenerateTimestepsFrom(args[0], count, delta, unit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, ts := range timesteps {
		fmt.Fprintln(out, ts.String())
	}
	return nil
}

func printZones(cmd *cobra.Command, args []string) error {
	def, err := budget.LoadZoneDefinition(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "extent: %s\nassignments: %d\n", def.Extent(), def.Assignments())
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ZONE\tNAME")
	for _, id := range def.ZoneIDs() {
		name, ok := def.ZoneName(id)
		if !ok {
			name = fmt.Sprintf("Zone%d (unnamed)", id)
		}
		fmt.Fprintf(w, "%d\t%s\n", id, name)
	}
	return w.Flush()
}

func printColumnTotals(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cols, _ := cmd.Flags().GetIntSlice("cols")
	ctx, cancel := commandContext(cmd)
	defer cancel()

	svc, err := application.NewService(snapshot.NewReader(logger), logger)
	if err != nil {
		return err
	}
	req := application.RequestFromConfig(cfg)
	req.OutputDir = ""
	outcome, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}

	headers := budget.ReportHeaders(outcome.Result.ComponentNames())
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = strconv.Itoa(c)
		if c >= 1 && c < len(headers)-1 {
			names[i] = headers[c]
		}
	}
	fmt.Fprintf(w, "ZONE\t%s\t\n", strings.Join(names, "\t"))
	for _, row := range outcome.Result.ColumnTotals(cols) {
		values := make([]string, len(row.Totals))
		for i, v := range row.Totals {
			values[i] = strconv.FormatFloat(v, 'f', 2, 64)
		}
		fmt.Fprintf(w, "%d\t%s\t\n", row.ZoneID, strings.Join(values, "\t"))
	}
	return w.Flush()
}

func runLocationBudget(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Source == "" {
		return fmt.Errorf("%w: source required", budget.ErrConfiguration)
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	exporter, err := export.NewExporter(cfg.Formats, logger)
	if err != nil {
		return err
	}
	reader := snapshot.NewReader(logger)
	svc, err := application.NewService(reader, logger,
		application.WithLocationReader(reader),
		application.WithExporter(exporter),
	)
	if err != nil {
		return err
	}
	outcome, err := svc.RunLocations(ctx, application.RequestFromConfig(cfg))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d locations, %d diagnostics\n", len(outcome.Tables), len(outcome.Diagnostics))
	for _, path := range outcome.Files {
		fmt.Fprintln(out, path)
	}
	return nil
}
