package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/emilianohg/skilltracker/internal/auth"
	"github.com/emilianohg/skilltracker/internal/config"
	"github.com/emilianohg/skilltracker/internal/db"
	"github.com/emilianohg/skilltracker/internal/models"
	"github.com/emilianohg/skilltracker/internal/progress"
	"github.com/emilianohg/skilltracker/internal/report"
	"github.com/emilianohg/skilltracker/internal/service"
	"github.com/emilianohg/skilltracker/internal/telemetry"
	"github.com/emilianohg/skilltracker/internal/web"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "skilltracker",
	Short:   "Goal tracking API with automatic progress roll-up",
	Long:    `SkillTracker serves goals, tasks and subtasks over HTTP and keeps task and goal progress in step with completed subtasks.`,
	Version: version,
	Run:     runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Run:   runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		database, err := db.OpenAndMigrate(cfg.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running migrations: %v\n", err)
			os.Exit(1)
		}
		defer database.Close()

		printMigrationStatus(database)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current schema version",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		database, err := db.Open(cfg.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer database.Close()

		printMigrationStatus(database)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a bearer token for a user (development logins)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		ttl, _ := cfg.TokenDuration()
		if override, _ := cmd.Flags().GetDuration("ttl"); override > 0 {
			ttl = override
		}

		token, err := auth.NewJWTAuthenticator(cfg.JWTSecret).IssueToken(args[0], ttl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <user-id>",
	Short: "Print a user's goals with progress bars",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		ctx := cmd.Context()

		database, err := db.OpenAndMigrate(cfg.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer database.Close()

		svc := service.New(database, progress.NewAggregator(nil), nil)
		goals, err := svc.ListGoals(ctx, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		details := make([]models.GoalDetail, 0, len(goals))
		for _, g := range goals {
			d, err := svc.GoalDetail(ctx, args[0], g.ID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			details = append(details, *d)
		}

		width, _ := cmd.Flags().GetInt("width")
		if err := report.Render(os.Stdout, details, width); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", 0, "Token lifetime (default: token_ttl from config)")
	reportCmd.Flags().Int("width", 40, "Progress bar width")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	if err := serve(cmd.Context(), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := newLogger(cfg)
	slog.SetDefault(log)

	err := telemetry.Init(ctx, "skilltracker", version, telemetry.Options{
		Enabled:  cfg.Telemetry.Enabled,
		Stdout:   cfg.Telemetry.Stdout,
		Endpoint: cfg.Telemetry.Endpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			log.Warn("telemetry shutdown", "err", err)
		}
	}()

	database, err := db.OpenAndMigrate(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	svc := service.New(database, progress.NewAggregator(log), log)

	gin.SetMode(gin.ReleaseMode)
	api := web.NewServer(svc, auth.NewJWTAuthenticator(cfg.JWTSecret), web.Options{
		APIPrefix: cfg.APIPrefix,
		Logger:    log,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.ListenAddr, "prefix", cfg.APIPrefix, "db", cfg.DatabasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func printMigrationStatus(database *sql.DB) {
	status, err := db.GetMigrationStatus(database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading migration status: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Current version: %d\n", status.CurrentVersion)
	fmt.Printf("Latest version:  %d\n", status.LatestVersion)
	if status.Dirty {
		fmt.Println("Database is dirty: a previous migration failed part way.")
	} else if status.Pending {
		fmt.Println("Migrations pending. Run 'skilltracker migrate up'.")
	} else {
		fmt.Println("Schema is up to date.")
	}
}
