// Package main provides the command line entry point for the forecast pipeline.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/diamond-forecast/internal/backtest"
	"github.com/yourusername/diamond-forecast/internal/config"
	"github.com/yourusername/diamond-forecast/internal/evidence"
	applogger "github.com/yourusername/diamond-forecast/internal/logger"
	"github.com/yourusername/diamond-forecast/internal/metrics"
	"github.com/yourusername/diamond-forecast/internal/names"
	"github.com/yourusername/diamond-forecast/internal/repository"
	"github.com/yourusername/diamond-forecast/internal/scheduler"
	"github.com/yourusername/diamond-forecast/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	asOf       string
	overwrite  bool
	fromDate   string
	toDate     string
	jsonOutput bool
	logger     *logrus.Logger
	cfg        *config.Config
	svc        *service.ForecastService
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&asOf, "date", "", "Slate date (YYYY-MM-DD); defaults to today")
	manualTemplateCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing manual starters file")
	backtestCmd.Flags().StringVar(&fromDate, "from", "", "First slate date to score (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&toDate, "to", "", "Last slate date to score (YYYY-MM-DD)")
	backtestCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print metrics as JSON")
}

var rootCmd = &cobra.Command{
	Use:           "forecast",
	Short:         "NCAA baseball game forecasts",
	Long:          `Resolve team identities, fit team and pitcher ratings, pick probable starters and publish calibrated win probabilities for a slate.`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
}

var buildRegistryCmd = &cobra.Command{
	Use:   "build-registry",
	Short: "Build the canonical team registry and write it out",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		reg, err := svc.BuildRegistry(ctx)
		if err != nil {
			return err
		}
		if err := svc.SaveRegistry(ctx, reg); err != nil {
			return err
		}
		fmt.Printf("Registry built: %d teams, %d aliases\n", reg.Len(), reg.AliasCount())
		return nil
	},
}

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Replay completed games into team Elo ratings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		day, err := slateDay()
		if err != nil {
			return err
		}
		reg, err := svc.BuildRegistry(ctx)
		if err != nil {
			return err
		}
		ratings, err := svc.FitRatings(ctx, reg, day)
		if err != nil {
			return err
		}
		fmt.Printf("Rated %d teams from games before %s\n", ratings.Len(), day.Format("2006-01-02"))
		return nil
	},
}

var ratePitchersCmd = &cobra.Command{
	Use:   "rate-pitchers",
	Short: "Rate starters, team rotations and bullpen workload",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		day, err := slateDay()
		if err != nil {
			return err
		}
		reg, err := svc.BuildRegistry(ctx)
		if err != nil {
			return err
		}
		_, apps, err := svc.RatePitchers(ctx, reg, day)
		if err != nil {
			return err
		}
		fmt.Printf("Rated pitchers from %d appearances\n", len(apps))
		return nil
	},
}

var startersCmd = &cobra.Command{
	Use:   "starters",
	Short: "Pick probable starters for the slate",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		day, err := slateDay()
		if err != nil {
			return err
		}
		reg, err := svc.BuildRegistry(ctx)
		if err != nil {
			return err
		}
		_, apps, err := svc.RatePitchers(ctx, reg, day)
		if err != nil {
			return err
		}
		slate, err := svc.LoadSlate(ctx, day, reg)
		if err != nil {
			return err
		}
		picks, err := svc.SelectStarters(ctx, day, reg, apps, slate)
		if err != nil {
			return err
		}
		fmt.Printf("Selected starters for %d games\n", len(picks))
		return nil
	},
}

var manualTemplateCmd = &cobra.Command{
	Use:   "manual-template",
	Short: "Write a manual starters template for the slate",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		day, err := slateDay()
		if err != nil {
			return err
		}
		reg, err := svc.BuildRegistry(ctx)
		if err != nil {
			return err
		}
		written, n, err := svc.WriteManualTemplate(ctx, day, reg, overwrite)
		if err != nil {
			return err
		}
		path := cfg.Data.DatedPath(cfg.Data.ManualStartersFile, day)
		if !written {
			fmt.Printf("Kept existing %s (use --overwrite to replace)\n", path)
			return nil
		}
		fmt.Printf("Wrote %d games to %s\n", n, path)
		return nil
	},
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project the slate from previously selected starters",
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := slateDay()
		if err != nil {
			return err
		}
		out, err := svc.ProjectSaved(cmd.Context(), day)
		if err != nil {
			return err
		}
		fmt.Printf("Projected %d games\n", len(out))
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every stage for the slate",
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := slateDay()
		if err != nil {
			return err
		}
		summary, err := svc.Run(cmd.Context(), day)
		if err != nil {
			return err
		}
		fmt.Println(summary.String())
		return nil
	},
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Score saved projections against final results",
	RunE: func(cmd *cobra.Command, args []string) error {
		btCfg := cfg.Backtest
		if fromDate != "" {
			btCfg.StartDate = fromDate
		}
		if toDate != "" {
			btCfg.EndDate = toDate
		}
		bt, err := backtest.FromConfig(&btCfg)
		if err != nil {
			return err
		}
		m, err := svc.Backtest(cmd.Context(), bt)
		if err != nil {
			return err
		}
		if jsonOutput {
			fmt.Println(m.ToJSON())
			return nil
		}
		fmt.Print(backtest.GenerateConsoleReport(m))
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the daily forecast on the configured cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Schedule.Enabled {
			return fmt.Errorf("schedule is disabled in configuration")
		}
		sched := scheduler.NewScheduler(cfg.Schedule, svc, logger)
		if err := sched.ScheduleDailyForecast(cfg.Schedule.Cron); err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
		logger.WithField("next_run", sched.GetNextRun()).Info("Waiting for scheduled runs")

		<-cmd.Context().Done()
		logger.Info("Shutdown signal received")
		return sched.Stop()
	},
}

func main() {
	rootCmd.AddCommand(buildRegistryCmd, fitCmd, ratePitchersCmd, startersCmd, manualTemplateCmd, projectCmd, runCmd, backtestCmd, scheduleCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if asOf != "" {
		cfg.Data.AsOf = asOf
	}
	return config.Validate(cfg)
}

func setupDependencies() error {
	logger = applogger.NewLoggerForEnvironment(cfg.App.LogLevel, cfg.App.Environment)
	metrics.InitRegistry()

	repos, err := repository.NewRepositories(cfg.Data, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	httpClient := evidence.NewRateLimitedHTTPClient(evidence.HTTPClientConfig{
		Timeout:           cfg.Evidence.Timeout(),
		MaxRetries:        cfg.Evidence.MaxRetries,
		RetryWaitMin:      250 * time.Millisecond,
		RetryWaitMax:      5 * time.Second,
		RateLimit:         cfg.Evidence.RateLimit,
		CircuitBreakerMax: cfg.Evidence.CircuitBreakerMax,
		UserAgent:         cfg.Evidence.UserAgent,
	}, logger)
	espn := evidence.NewESPNClient(httpClient, cfg.Evidence.ESPNBaseURL, logger)

	normalizer := names.NewNormalizer(names.DefaultTables().Extend(cfg.Names.ExtraMascots, cfg.Names.ExtraAcronyms))
	lineups := evidence.NewLineupClient(httpClient, cfg.Evidence.LineupBaseURL, normalizer, logger)

	svc = service.NewForecastService(cfg, repos, service.Sources{
		Scoreboard: espn,
		Lineups:    lineups,
		BoxScores:  espn,
	}, logger)

	logger.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
		"data_dir":    cfg.Data.Dir,
	}).Debug("Dependencies ready")
	return nil
}

func slateDay() (time.Time, error) {
	day, err := svc.SlateDay(time.Now())
	if err != nil {
		return time.Time{}, err
	}
	if _, err := os.Stat(cfg.Data.Dir); err != nil {
		return time.Time{}, fmt.Errorf("data directory: %w", err)
	}
	return day, nil
}
