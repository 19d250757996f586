package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trip-sync/internal/config"
	"trip-sync/internal/repository"
	"trip-sync/internal/state"
)

const (
	Version = "0.3.0"
	appName = "tripsync"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Collaborative trip planner sync engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	var interactive bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync engine with its HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(configPath, logLevel)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, log, interactive)
		},
	}
	serve.Flags().BoolVarP(&interactive, "interactive", "i", false, "Start the interactive console menu")
	cmd.AddCommand(serve)

	cmd.AddCommand(&cobra.Command{
		Use:   "trips",
		Short: "List the trips in the remote store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(configPath, logLevel)
			if err != nil {
				return err
			}
			return listTrips(cmd.Context(), cfg, log)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func setup(configPath, logLevel string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, newLogger(cfg.LogLevel), nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(lvl).
		With().Timestamp().Logger()
}

func listTrips(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	repo, err := repository.OpenTripRepository(cfg.DatabasePath(), log)
	if err != nil {
		return err
	}
	defer repo.Close()

	trips, err := repo.LoadAll(ctx)
	var unreadable *state.UnreadableTripsError
	if errors.As(err, &unreadable) {
		fmt.Fprintf(os.Stderr, "Skipped %d unreadable trips: %s\n", len(unreadable.TripIDs), strings.Join(unreadable.TripIDs, ", "))
	} else if err != nil {
		return err
	}
	if len(trips) == 0 {
		fmt.Println("No trips found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tDATES\tDAYS\tSTATUS\tUPDATED")
	for _, t := range trips {
		updated := "-"
		if at, err := repo.UpdatedAt(ctx, t.ID); err == nil {
			updated = at.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s → %s\t%d\t%s\t%s\n", t.ID, t.Title, t.StartDate, t.EndDate, len(t.DailyItinerary), t.Status, updated)
	}
	return w.Flush()
}
