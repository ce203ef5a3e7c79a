// Command cosmicctl is the Cosmic Watch operator CLI.
//
// Usage:
//
//	cosmicctl migrate
//	cosmicctl feed --date 2024-05-08
//	cosmicctl risk --top 10
//	cosmicctl object 3542519
//	cosmicctl alerts check
//	cosmicctl alerts purge --days 30
//	cosmicctl users watch u1 3542519 2000433 --min-level HIGH
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cosmicwatch/cosmic-watch/internal/alerts"
	"github.com/cosmicwatch/cosmic-watch/internal/cache"
	"github.com/cosmicwatch/cosmic-watch/internal/config"
	"github.com/cosmicwatch/cosmic-watch/internal/db"
	"github.com/cosmicwatch/cosmic-watch/internal/feed"
	"github.com/cosmicwatch/cosmic-watch/internal/maintenance"
	"github.com/cosmicwatch/cosmic-watch/internal/neo"
	"github.com/cosmicwatch/cosmic-watch/internal/observability"
	"github.com/cosmicwatch/cosmic-watch/internal/provider/nasa"
	"github.com/cosmicwatch/cosmic-watch/internal/risk"
	"github.com/cosmicwatch/cosmic-watch/internal/users"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "cosmicctl",
		Short:        "Cosmic Watch operator CLI",
		SilenceUsage: true,
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(feedCmd())
	root.AddCommand(riskCmd())
	root.AddCommand(objectCmd())
	root.AddCommand(alertsCmd())
	root.AddCommand(usersCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return db.Migrate(ctx, cfg.DatabaseURL, logger)
		},
	}
}

// --------------------------------------------------------------------------
// feed / risk / object commands (NeoWs only, no database)
// --------------------------------------------------------------------------

func feedCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Fetch the 7-day feed and print normalized objects with risk",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(func(ctx context.Context, cfg *config.Config, svc *feed.Service, engine *risk.Engine) error {
				snap, err := svc.GetSnapshot(ctx, date)
				if err != nil {
					return err
				}
				logger.Info("Feed fetched", "start", snap.StartDate, "end", snap.EndDate, "objects", len(snap.Objects))
				return printJSON(cmd.OutOrStdout(), engine.ScoreAll(snap.Objects))
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "End date YYYY-MM-DD (default: yesterday UTC)")
	return cmd
}

func riskCmd() *cobra.Command {
	var (
		date string
		top  int
	)
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Print the feed ranked by risk score",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(func(ctx context.Context, cfg *config.Config, svc *feed.Service, engine *risk.Engine) error {
				snap, err := svc.GetSnapshot(ctx, date)
				if err != nil {
					return err
				}
				ranked := engine.Rank(snap.Objects)
				if top > 0 && top < len(ranked) {
					ranked = ranked[:top]
				}
				return printRiskTable(cmd.OutOrStdout(), ranked)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "End date YYYY-MM-DD (default: yesterday UTC)")
	cmd.Flags().IntVar(&top, "top", 20, "Rows to print; 0 prints all")
	return cmd
}

func objectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "object <id>",
		Short: "Look up one object by NeoWs id and print its assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(func(ctx context.Context, cfg *config.Config, svc *feed.Service, engine *risk.Engine) error {
				obj, err := svc.GetByID(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), risk.Scored{Object: obj, Assessment: engine.Analyze(obj)})
			})
		},
	}
}

// --------------------------------------------------------------------------
// alerts command
// --------------------------------------------------------------------------

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Run or maintain the alert pipeline",
	}
	cmd.AddCommand(alertsCheckCmd())
	cmd.AddCommand(alertsPurgeCmd())
	return cmd
}

func alertsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run one alert check now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				engine, svc, err := buildFeed(cfg)
				if err != nil {
					return err
				}
				deps := alerts.Deps{
					Feed:           svc,
					Users:          users.NewStore(pool.Pool),
					Store:          alerts.NewStore(pool.Pool),
					Engine:         engine,
					DefaultMinRisk: cfg.DefaultMinRisk,
					Metrics:        observability.NewMetricsWith(prometheus.NewRegistry()),
					Logger:         logger,
				}
				if cfg.KafkaEnabled() {
					publisher := alerts.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaAlertsTopic, logger)
					defer publisher.Close()
					deps.Publisher = publisher
				}

				sched := alerts.NewScheduler(alerts.NewChecker(deps), cfg.AlertCheckInterval, cfg.AlertRunTimeout, nil, nil, logger)
				result, _ := sched.RunNow(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
				for _, e := range result.Errors {
					logger.Error("alert error", "error", e)
				}
				if result.Aborted {
					return fmt.Errorf("alert run aborted")
				}
				return nil
			})
		},
	}
}

func alertsPurgeCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete read alerts older than --days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			return runDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				n, err := maintenance.PurgeReadAlerts(ctx, maintenance.Deps{
					Alerts: alerts.NewStore(pool.Pool),
					Logger: logger,
				}, days)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d read alerts\n", n)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Retention in days")
	return cmd
}

// --------------------------------------------------------------------------
// users command
// --------------------------------------------------------------------------

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect and seed user alert profiles",
	}
	cmd.AddCommand(usersShowCmd())
	cmd.AddCommand(usersWatchCmd())
	return cmd
}

func usersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Print a user's alert profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				p, err := users.NewStore(pool.Pool).Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), p)
			})
		},
	}
}

func usersWatchCmd() *cobra.Command {
	var (
		name     string
		minLevel string
		replace  bool
		disable  bool
	)
	cmd := &cobra.Command{
		Use:   "watch <user-id> <asteroid-id>...",
		Short: "Create the user if needed and add asteroids to the watch-list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				store := users.NewStore(pool.Pool)
				p, err := store.Ensure(ctx, args[0], name, cfg.DefaultMinRisk)
				if err != nil {
					return err
				}

				ids := args[1:]
				if !replace {
					ids = append(append([]string{}, p.WatchedAsteroidIDs...), ids...)
				}
				u := users.ProfileUpdate{WatchedAsteroids: &ids}
				if minLevel != "" {
					l := risk.Level(minLevel)
					u.MinRiskLevel = &l
				}
				if cmd.Flags().Changed("disable") {
					enabled := !disable
					u.AlertsEnabled = &enabled
				}
				u, err = u.Normalize()
				if err != nil {
					return err
				}

				p, err = store.UpdateProfile(ctx, p.ID, u)
				if err != nil {
					return err
				}
				logger.Info("Watch-list updated", "user_id", p.ID, "watched", len(p.WatchedAsteroidIDs))
				return printJSON(cmd.OutOrStdout(), p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name for a new user")
	cmd.Flags().StringVar(&minLevel, "min-level", "", "Minimum alert level (LOW, MODERATE, HIGH, CRITICAL)")
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the watch-list instead of appending")
	cmd.Flags().BoolVar(&disable, "disable", false, "Turn alerts off for this user")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger = observability.NewLogger(cfg)
	return cfg, nil
}

// buildFeed wires a NeoWs-backed feed service with a private cache.
func buildFeed(cfg *config.Config) (*risk.Engine, *feed.Service, error) {
	policy, err := risk.LoadPolicy(cfg.RiskPolicyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load risk policy: %w", err)
	}
	clock := clockwork.NewRealClock()
	client := nasa.NewClient(cfg.NASABaseURL, cfg.NASAAPIKey, cfg.NASATimeout, cfg.NASARequestsPerMinute, logger)
	svc := feed.NewService(client, cache.New[[]neo.Object](true, clock), cfg.FeedCacheTTL, clock,
		observability.NewMetricsWith(prometheus.NewRegistry()), logger)
	return risk.NewEngine(policy), svc, nil
}

// runFeed handles config loading and context cancellation for commands
// that only talk to NeoWs.
func runFeed(fn func(ctx context.Context, cfg *config.Config, svc *feed.Service, engine *risk.Engine) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, svc, err := buildFeed(cfg)
	if err != nil {
		return err
	}
	return fn(ctx, cfg, svc, engine)
}

// runDB handles config loading, DB connection, and context cancellation.
func runDB(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRiskTable(w io.Writer, ranked []risk.Scored) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tLEVEL\tID\tNAME\tAPPROACH\tMISS KM")
	for _, s := range ranked {
		miss := "-"
		if s.MissDistance != nil {
			miss = fmt.Sprintf("%.0f", *s.MissDistance)
		}
		approach := s.ApproachDate()
		if approach == "" {
			approach = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", s.Score, s.Level, s.ID, s.Name, approach, miss)
	}
	return tw.Flush()
}

