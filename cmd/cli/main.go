package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dfmart/github-repo-metrics/internal/collector"
	"github.com/dfmart/github-repo-metrics/internal/config"
	"github.com/dfmart/github-repo-metrics/internal/domain"
	"github.com/dfmart/github-repo-metrics/internal/metrics"
	"github.com/dfmart/github-repo-metrics/internal/storage"
	"github.com/dfmart/github-repo-metrics/internal/storage/csvfile"
	"github.com/dfmart/github-repo-metrics/internal/storage/postgres"
	"github.com/dfmart/github-repo-metrics/internal/storage/sqlite"
)

var (
	targetCount int
	minStars    int
	pageSize    int
	outputPath  string
	resume      bool
)

var rootCmd = &cobra.Command{
	Use:   "repo-metrics",
	Short: "GitHub popular repository metrics tool",
	Long: `A CLI tool for collecting metrics about the most popular GitHub repositories.

It searches GitHub for repositories above a star threshold, derives
per-repository metrics (age, release count, issue closure rate and more)
and writes them to a CSV file together with a summary report.`,
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect repository data from GitHub",
	Long:  `Fetch the most-starred repositories from GitHub, derive their metrics and persist them to CSV.`,
	RunE:  runCollect,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the summary report for collected data",
	Long:  `Read the persisted CSV file and print the descriptive statistics report.`,
	RunE:  runShow,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show the collection run history",
	Long:  `List past collection runs recorded in the configured database mirror.`,
	RunE:  runRuns,
}

func init() {
	collectCmd.Flags().IntVar(&targetCount, "target", 0, "number of repositories to collect (default from TARGET_COUNT)")
	collectCmd.Flags().IntVar(&minStars, "min-stars", 0, "minimum star count filter (default from MIN_STARS)")
	collectCmd.Flags().IntVar(&pageSize, "page-size", 0, "records per page, max 100 (default from PAGE_SIZE)")
	collectCmd.Flags().StringVar(&outputPath, "output", "", "CSV output path (default from OUTPUT_PATH)")
	collectCmd.Flags().BoolVar(&resume, "resume", false, "seed the run with records already present in the output file")

	showCmd.Flags().StringVar(&outputPath, "output", "", "CSV path to read (default from OUTPUT_PATH)")

	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(runsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "repo-metrics",
	})
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if targetCount > 0 {
		cfg.TargetCount = targetCount
	}
	if minStars > 0 {
		cfg.MinStars = minStars
	}
	if pageSize > 0 {
		cfg.PageSize = pageSize
	}
	if outputPath != "" {
		cfg.OutputPath = outputPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func getStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "sqlite":
		return sqlite.NewSQLiteStorage(cfg.SQLitePath)
	case "postgres":
		return postgres.NewPostgresStorage(cfg.PostgresURL)
	default:
		return nil, nil
	}
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := collector.NewGitHubFetcher(cfg, logger)
	if err := fetcher.Preflight(ctx); err != nil {
		return fmt.Errorf("credential check failed: %w", err)
	}

	writer := csvfile.NewWriter(cfg.OutputPath)

	var baseline []*domain.RepoRecord
	if resume {
		baseline, err = csvfile.Load(cfg.OutputPath)
		if err != nil {
			logger.Warn("could not load previous output, starting fresh", "path", cfg.OutputPath, "err", err)
			baseline = nil
		} else {
			logger.Info("resuming from previous output", "path", cfg.OutputPath, "records", len(baseline))
		}
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	run := domain.NewCollectionRun(cfg.TargetCount, cfg.MinStars)
	if store != nil {
		if err := store.SaveRun(ctx, run); err != nil {
			logger.Warn("could not record run start", "err", err)
		}
	}

	pacer := collector.NewPacer(cfg.PaceEveryPages, cfg.PaceDelay)
	ctrl := collector.NewController(fetcher, pacer, cfg.TargetCount, cfg.PageSize, logger)
	ctrl.Checkpointer = writer

	logger.Info("starting collection",
		"target", cfg.TargetCount, "min_stars", cfg.MinStars, "page_size", cfg.PageSize)

	result, err := ctrl.Collect(ctx, baseline)
	if err != nil {
		if store != nil {
			run.Finish(domain.RunStatusAborted, 0, 0)
			if saveErr := store.SaveRun(context.Background(), run); saveErr != nil {
				logger.Warn("could not record run outcome", "err", saveErr)
			}
		}
		return fmt.Errorf("collection failed: %w", err)
	}

	status := domain.RunStatusCompleted
	if result.Interrupted {
		status = domain.RunStatusInterrupted
		logger.Warn("collection interrupted, persisting partial results",
			"records", len(result.Records))
	}

	logger.Info("collection finished",
		"pages", result.PagesFetched,
		"fetched", result.RecordsFetched,
		"processed", result.RecordsProcessed,
		"accumulated", len(result.Records))

	persist, err := writer.Save(result.Records)
	if err != nil {
		return fmt.Errorf("failed to persist records: %w", err)
	}
	if persist.PrimaryErr != nil {
		logger.Warn("primary output failed, backup only", "path", persist.PrimaryPath, "err", persist.PrimaryErr)
	} else {
		logger.Info("wrote output", "path", persist.PrimaryPath)
	}
	if persist.BackupErr != nil {
		logger.Warn("backup output failed", "path", persist.BackupPath, "err", persist.BackupErr)
	} else {
		logger.Info("wrote backup", "path", persist.BackupPath)
	}

	if store != nil {
		if err := store.SaveRecords(ctx, result.Records); err != nil {
			logger.Warn("could not mirror records to database", "err", err)
		}
		run.Finish(status, result.PagesFetched, len(result.Records))
		if err := store.SaveRun(context.Background(), run); err != nil {
			logger.Warn("could not record run outcome", "err", err)
		}
	}

	metrics.PrintSummary(os.Stdout, metrics.Summarize(result.Records))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	records, err := csvfile.Load(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cfg.OutputPath, err)
	}

	metrics.PrintSummary(os.Stdout, metrics.Summarize(records))
	return nil
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	if store == nil {
		return fmt.Errorf("run history requires STORAGE_TYPE 'sqlite' or 'postgres'")
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Started", "Status", "Target", "Pages", "Records"})
	for _, r := range runs {
		table.Append([]string{
			r.ID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			string(r.Status),
			fmt.Sprintf("%d", r.Target),
			fmt.Sprintf("%d", r.PagesFetched),
			fmt.Sprintf("%d", r.RecordsCollected),
		})
	}
	table.Render()

	return nil
}
