package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/salary-intel/internal/config"
	"github.com/jonathan/salary-intel/internal/db"
	"github.com/jonathan/salary-intel/internal/fetchq"
	"github.com/jonathan/salary-intel/internal/locations"
	"github.com/jonathan/salary-intel/internal/observability"
	"github.com/jonathan/salary-intel/internal/types"
)

var locationCommand = &cobra.Command{
	Use:   "location",
	Short: "Resolve cost-of-living metrics for a location",
	Long: `Resolves cost-of-living metrics for a city: fresh cached data is served
directly, otherwise external sources are scraped through the rate-limited
fetch queue and the result is cached. Stale cached data is used as a
fallback when every source fails.`,
	RunE: runLocationCmd,
}

var (
	locationConfigPath  string
	locationCity        string
	locationCountry     string
	locationState       string
	locationDatabaseURL string
	locationMinDelay    int
	locationUseBrowser  bool
	locationVerbose     bool
)

func init() {
	locationCommand.Flags().StringVar(&locationConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	locationCommand.Flags().StringVar(&locationCity, "city", "", "City name (required)")
	locationCommand.Flags().StringVar(&locationCountry, "country", "", "Country name (required)")
	locationCommand.Flags().StringVar(&locationState, "state", "", "State or region (optional)")
	locationCommand.Flags().StringVar(&locationDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	locationCommand.Flags().IntVar(&locationMinDelay, "min-delay", 0, "Minimum seconds between outbound page fetches")
	locationCommand.Flags().BoolVar(&locationUseBrowser, "use-browser", false, "Render JS-heavy pages with a headless browser (requires Chrome)")
	locationCommand.Flags().BoolVarP(&locationVerbose, "verbose", "v", false, "Print detailed progress information")

	_ = locationCommand.MarkFlagRequired("city")
	_ = locationCommand.MarkFlagRequired("country")

	rootCmd.AddCommand(locationCommand)
}

func runLocationCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	var cfg config.Config
	if locationConfigPath != "" {
		loaded, err := config.LoadConfig(locationConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = locationDatabaseURL
	}
	if cmd.Flags().Changed("min-delay") {
		cfg.MinFetchDelaySeconds = locationMinDelay
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = locationUseBrowser
	}
	cfg.FromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database URL is required (set --db-url or DATABASE_URL)")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	queue := fetchq.New(cfg.FetchDelay())
	defer queue.Close()

	numbeo := locations.NewNumbeoAdapter()
	numbeo.UseBrowser = cfg.UseBrowser
	expatistan := locations.NewExpatistanAdapter()
	expatistan.UseBrowser = cfg.UseBrowser
	if cfg.UserAgent != "" {
		numbeo.Options.UserAgent = cfg.UserAgent
		expatistan.Options.UserAgent = cfg.UserAgent
	}

	resolver := locations.NewResolver(database, queue,
		[]locations.Adapter{numbeo, expatistan}, locations.FreshWindow)

	query := types.LocationQuery{City: locationCity, Country: locationCountry, State: locationState}

	metrics, err := resolver.Resolve(ctx, query)
	if err != nil {
		return fmt.Errorf("location resolution failed: %w", err)
	}
	if metrics == nil {
		fmt.Printf("No cost-of-living data available for %s.\n", query.Key())
		return nil
	}

	observability.NewPrinter(os.Stdout).PrintLocationMetrics(query, metrics)
	return nil
}
