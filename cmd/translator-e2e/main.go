package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/swiftqa/translator-e2e/internal/browser"
	"github.com/swiftqa/translator-e2e/internal/config"
	"github.com/swiftqa/translator-e2e/internal/report"
	"github.com/swiftqa/translator-e2e/internal/runner"
	"github.com/swiftqa/translator-e2e/internal/scenario"
	"github.com/swiftqa/translator-e2e/internal/testutil/fakesite"
	"github.com/swiftqa/translator-e2e/internal/version"
)

// errScenariosFailed makes the process exit non-zero without printing usage.
var errScenariosFailed = errors.New("one or more scenarios failed")

var (
	cfg    *config.Config
	logger *zap.Logger
)

var (
	configFlag      string
	verboseFlag     bool
	headedFlag      bool
	workersFlag     int
	reporterFlag    []string
	outputDirFlag   string
	grepFlag        string
	engineFlag      string
	baseURLFlag     string
	metricsFileFlag string
	paceFlag        bool
	addrFlag        string
	cronFlag        string
)

var rootCmd = &cobra.Command{
	Use:   "translator-e2e",
	Short: "End-to-end checks for the Swift Translator website",
	Long: `translator-e2e drives a real browser against the Swift Translator page,
types each scenario's Singlish input and checks what the page renders.

Scenarios run one at a time in a fresh browser context each.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = config.Load(configFlag)
		if err != nil {
			return err
		}
		if err := applyFlags(cmd, cfg); err != nil {
			return err
		}
		logger, err = newLogger(cfg.Logging, verboseFlag)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scenario table against the target site",
	Long: `Run launches the selected browser engine and executes every scenario
(or those matching --grep) sequentially. Reports are written for each
enabled reporter. The exit code is non-zero when any scenario failed or errored,
which includes the forced-mismatch scenarios of the default table.`,
	RunE: runScenarios,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Re-run the scenario table on a cron schedule",
	Long: `Schedule keeps running the suite on the given cron schedule until
interrupted, rewriting the reports after every run. Metrics accumulate across
runs, so pointing --metrics-file at a node_exporter textfile directory turns
the suite into a synthetic monitor.`,
	RunE: runSchedule,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the scenarios that would run",
	RunE:  runList,
}

var serveFixtureCmd = &cobra.Command{
	Use:   "serve-fixture",
	Short: "Serve the local fixture page for offline runs",
	RunE:  runServeFixture,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "translator-e2e %s\n", version.Full())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&grepFlag, "grep", "", "Only use scenarios whose \"ID: label\" matches this regexp")

	for _, cmd := range []*cobra.Command{runCmd, scheduleCmd} {
		cmd.Flags().BoolVar(&headedFlag, "headed", false, "Show the browser window")
		cmd.Flags().IntVar(&workersFlag, "workers", 1, "Number of parallel workers (only 1 is supported)")
		cmd.Flags().StringSliceVar(&reporterFlag, "reporter", nil, "Reporters to enable: list, html, json")
		cmd.Flags().StringVar(&outputDirFlag, "output-dir", "", "Directory for HTML/JSON reports and screenshots")
		cmd.Flags().StringVar(&engineFlag, "engine", "", "Browser engine: playwright or rod")
		cmd.Flags().StringVar(&baseURLFlag, "base-url", "", "URL of the translator page")
		cmd.Flags().StringVar(&metricsFileFlag, "metrics-file", "", "Write Prometheus metrics to this textfile")
		cmd.Flags().BoolVar(&paceFlag, "pace", false, "Pause between scenarios")
	}
	scheduleCmd.Flags().StringVar(&cronFlag, "cron", "@every 30m", "Cron schedule, with seconds field or @every descriptor")

	serveFixtureCmd.Flags().StringVar(&addrFlag, "addr", "127.0.0.1:8099", "Listen address")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(serveFixtureCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errScenariosFailed) {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		}
		os.Exit(1)
	}
}

// applyFlags layers explicitly set flags over the loaded configuration and
// validates the result again. Flags a command does not define are never Changed.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("grep") {
		cfg.Run.Grep = grepFlag
	}
	if flags.Changed("headed") {
		cfg.Browser.Headless = !headedFlag
	}
	if flags.Changed("workers") {
		cfg.Run.Workers = workersFlag
	}
	if flags.Changed("reporter") {
		cfg.Report.Reporters = reporterFlag
	}
	if flags.Changed("output-dir") {
		cfg.Report.OutputDir = outputDirFlag
	}
	if flags.Changed("engine") {
		cfg.Browser.Engine = engineFlag
	}
	if flags.Changed("base-url") {
		cfg.Target.URL = baseURLFlag
	}
	if flags.Changed("metrics-file") {
		cfg.Report.MetricsFile = metricsFileFlag
	}
	if flags.Changed("pace") {
		cfg.Run.Pace = paceFlag
	}
	return config.NewValidator(cfg).Validate()
}

func newLogger(lc config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Format == "console" {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

func selectScenarios() ([]scenario.Scenario, error) {
	list, err := scenario.Filter(scenario.Default(), cfg.Run.Grep)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no scenarios match %q", cfg.Run.Grep)
	}
	return list, nil
}

func runScenarios(cmd *cobra.Command, args []string) error {
	list, err := selectScenarios()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	rep, err := runOnce(ctx, list, runner.NewMetrics(reg))
	if err != nil {
		return err
	}
	if err := writeReports(cmd.OutOrStdout(), rep, reg); err != nil {
		return err
	}
	if !rep.OK() {
		return errScenariosFailed
	}
	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	list, err := selectScenarios()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	metrics := runner.NewMetrics(reg)
	out := cmd.OutOrStdout()

	return runner.NewScheduler(logger).Start(ctx, cronFlag, func(ctx context.Context) {
		rep, err := runOnce(ctx, list, metrics)
		if err != nil {
			logger.Error("Scheduled run failed", zap.Error(err))
			return
		}
		if err := writeScheduledReports(ctx, out, rep, reg); err != nil {
			logger.Error("Writing reports failed", zap.Error(err))
			return
		}
		if !rep.OK() {
			s := rep.Summary()
			logger.Warn("Scheduled run had failures",
				zap.String("run_id", rep.RunID),
				zap.Int("failed", s.Failed),
				zap.Int("errored", s.Errored))
		}
	})
}

// runOnce launches the engine and runs list.
func runOnce(ctx context.Context, list []scenario.Scenario, metrics *runner.Metrics) (*report.Report, error) {
	driver, err := browser.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			logger.Warn("Closing browser failed", zap.Error(err))
		}
	}()

	r := runner.NewRunner(driver, cfg,
		runner.WithLogger(logger),
		runner.WithMetrics(metrics))
	return r.Run(ctx, list), nil
}

// writeScheduledReports keeps the previous reports when the run was
// interrupted, so a shutdown never replaces them with a partial run.
func writeScheduledReports(ctx context.Context, out io.Writer, rep *report.Report, reg prometheus.Gatherer) error {
	if err := ctx.Err(); err != nil {
		logger.Warn("Run interrupted, keeping previous reports",
			zap.String("run_id", rep.RunID), zap.Error(err))
		return nil
	}
	return writeReports(out, rep, reg)
}

func writeReports(out io.Writer, rep *report.Report, reg prometheus.Gatherer) error {
	files, err := report.NewSink(cfg.Report, out, reg).Write(rep)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintf(out, "📄 Wrote %s\n", f)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	list, err := selectScenarios()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, sc := range list {
		fmt.Fprintf(out, "%-14s %-16s %s\n", sc.ID, sc.Kind, sc.Label)
	}
	fmt.Fprintf(out, "\nTotal: %d scenarios\n", len(list))
	return nil
}

func runServeFixture(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !verboseFlag {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              addrFlag,
		Handler:           fakesite.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "🚀 Fixture site listening on http://%s/\n", addrFlag)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("fixture server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("Shutting down fixture site")
	return srv.Shutdown(shutdownCtx)
}
