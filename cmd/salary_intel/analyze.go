package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/salary-intel/internal/cache"
	"github.com/jonathan/salary-intel/internal/config"
	"github.com/jonathan/salary-intel/internal/db"
	"github.com/jonathan/salary-intel/internal/llm"
	"github.com/jonathan/salary-intel/internal/observability"
	"github.com/jonathan/salary-intel/internal/pipeline"
	"github.com/jonathan/salary-intel/internal/retry"
	"github.com/jonathan/salary-intel/internal/search"
	"github.com/jonathan/salary-intel/internal/synthesis"
	"github.com/jonathan/salary-intel/internal/types"
)

var analyzeCommand = &cobra.Command{
	Use:   "analyze",
	Short: "Run a personalized salary analysis for a job posting",
	Long: `Checks the report cache, gathers categorized market evidence, synthesizes a
personalized salary analysis, and writes the validated report back to the cache.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values; environment variables fill remaining
credentials (GEMINI_API_KEY, GOOGLE_SEARCH_API_KEY, GOOGLE_SEARCH_CX, DATABASE_URL).`,
	RunE: runAnalyzeCmd,
}

var (
	analyzeConfigPath     string
	analyzeSubjectID      string
	analyzeRequesterID    string
	analyzeTitle          string
	analyzeCompany        string
	analyzeLocation       string
	analyzeDescription    string
	analyzeRequirements   []string
	analyzePostedSalary   string
	analyzeCareerLevel    string
	analyzeYears          int
	analyzeSkills         []string
	analyzeProfileLoc     string
	analyzeWorkMode       string
	analyzeCurrentSalary  float64
	analyzeExpectedSalary float64
	analyzeCheckOnly      bool
	analyzeJSONOut        bool
	analyzeGeminiKey      string
	analyzeSearchKey      string
	analyzeSearchCX       string
	analyzeDatabaseURL    string
	analyzeCacheTTLDays   int
	analyzeVerbose        bool
)

func init() {
	analyzeCommand.Flags().StringVar(&analyzeConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	analyzeCommand.Flags().StringVar(&analyzeSubjectID, "subject-id", "", "Stable identifier of the job posting being analyzed (required)")
	analyzeCommand.Flags().StringVar(&analyzeRequesterID, "requester-id", "", "Identifier of the user requesting the analysis (required)")
	analyzeCommand.Flags().StringVarP(&analyzeTitle, "title", "t", "", "Job title (required)")
	analyzeCommand.Flags().StringVarP(&analyzeCompany, "company", "c", "", "Company name (required)")
	analyzeCommand.Flags().StringVarP(&analyzeLocation, "location", "l", "", "Job location, e.g. \"Austin, TX\"")
	analyzeCommand.Flags().StringVar(&analyzeDescription, "description", "", "Job description text, or @path to read it from a file")
	analyzeCommand.Flags().StringSliceVar(&analyzeRequirements, "requirement", nil, "Job requirement (repeatable)")
	analyzeCommand.Flags().StringVar(&analyzePostedSalary, "posted-salary", "", "Salary text from the posting, if any")

	analyzeCommand.Flags().StringVar(&analyzeCareerLevel, "career-level", "", "Requester career level (junior, mid, senior, staff, ...)")
	analyzeCommand.Flags().IntVar(&analyzeYears, "years", 0, "Requester years of experience")
	analyzeCommand.Flags().StringSliceVar(&analyzeSkills, "skill", nil, "Requester skill (repeatable)")
	analyzeCommand.Flags().StringVar(&analyzeProfileLoc, "profile-location", "", "Requester location when it differs from the job location")
	analyzeCommand.Flags().StringVar(&analyzeWorkMode, "work-mode", "", "Requester work mode preference (remote, hybrid, onsite)")
	analyzeCommand.Flags().Float64Var(&analyzeCurrentSalary, "current-salary", 0, "Requester current salary")
	analyzeCommand.Flags().Float64Var(&analyzeExpectedSalary, "expected-salary", 0, "Requester expected salary")

	analyzeCommand.Flags().BoolVar(&analyzeCheckOnly, "check-only", false, "Only check the cache; never search or synthesize")
	analyzeCommand.Flags().BoolVar(&analyzeJSONOut, "json", false, "Print the report as JSON instead of formatted output")

	analyzeCommand.Flags().StringVar(&analyzeGeminiKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	analyzeCommand.Flags().StringVar(&analyzeSearchKey, "search-key", "", "Google Custom Search API key (optional, defaults to GOOGLE_SEARCH_API_KEY env var)")
	analyzeCommand.Flags().StringVar(&analyzeSearchCX, "search-cx", "", "Google Custom Search engine ID (optional, defaults to GOOGLE_SEARCH_CX env var)")
	analyzeCommand.Flags().StringVar(&analyzeDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	analyzeCommand.Flags().IntVar(&analyzeCacheTTLDays, "cache-ttl-days", 0, "Analysis cache lifetime in days")
	analyzeCommand.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print detailed progress information")

	rootCmd.AddCommand(analyzeCommand)
}

// loadMergedConfig loads the optional config file, merges explicitly set
// flags over it, and fills remaining credentials from the environment.
func loadMergedConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	var fileCfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return nil, err
		}
		fileCfg = *loaded
	}

	// Collect explicitly set flags, then let the file fill the gaps.
	var overrides config.Config
	if cmd.Flags().Changed("api-key") {
		overrides.GeminiAPIKey = analyzeGeminiKey
	}
	if cmd.Flags().Changed("search-key") {
		overrides.SearchAPIKey = analyzeSearchKey
	}
	if cmd.Flags().Changed("search-cx") {
		overrides.SearchEngineID = analyzeSearchCX
	}
	if cmd.Flags().Changed("db-url") {
		overrides.DatabaseURL = analyzeDatabaseURL
	}
	if cmd.Flags().Changed("cache-ttl-days") {
		overrides.CacheTTLDays = analyzeCacheTTLDays
	}

	cfg := overrides.MergeWithDefaults(fileCfg)

	// Bools don't merge; the flag wins only when explicitly set.
	cfg.Verbose = fileCfg.Verbose
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = analyzeVerbose
	}
	cfg.UseBrowser = fileCfg.UseBrowser

	cfg.FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func buildRequest() (*types.AnalysisRequest, error) {
	description := analyzeDescription
	if len(description) > 1 && description[0] == '@' {
		data, err := os.ReadFile(description[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read description file: %w", err)
		}
		description = string(data)
	}

	profileLocation := analyzeProfileLoc
	if profileLocation == "" {
		profileLocation = analyzeLocation
	}

	req := &types.AnalysisRequest{
		SubjectID:      analyzeSubjectID,
		RequesterID:    analyzeRequesterID,
		JobTitle:       analyzeTitle,
		Company:        analyzeCompany,
		Location:       analyzeLocation,
		JobDescription: description,
		Requirements:   analyzeRequirements,
		PostedSalary:   analyzePostedSalary,
		Profile: types.RequesterProfile{
			CareerLevel:     analyzeCareerLevel,
			YearsExperience: analyzeYears,
			Skills:          analyzeSkills,
			Location:        profileLocation,
			WorkModePref:    analyzeWorkMode,
		},
	}
	if analyzeCurrentSalary > 0 {
		req.Profile.CurrentSalary = &analyzeCurrentSalary
	}
	if analyzeExpectedSalary > 0 {
		req.Profile.ExpectedSalary = &analyzeExpectedSalary
	}
	return req, nil
}

func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadMergedConfig(cmd, analyzeConfigPath)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database URL is required (set --db-url or DATABASE_URL)")
	}

	req, err := buildRequest()
	if err != nil {
		return err
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	reportCache := cache.New(database, cfg.CacheTTL())
	printer := observability.NewPrinter(os.Stdout)

	if analyzeCheckOnly {
		orch := pipeline.New(reportCache, nil, nil)
		out, err := orch.CheckCache(ctx, req)
		if err != nil {
			return err
		}
		if out == nil {
			fmt.Println("Cache miss: no fresh report for this request.")
			return nil
		}
		return printOutcome(printer, out)
	}

	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("gemini API key is required (set --api-key or GEMINI_API_KEY)")
	}
	if cfg.SearchAPIKey == "" || cfg.SearchEngineID == "" {
		return fmt.Errorf("search credentials are required (set --search-key/--search-cx or GOOGLE_SEARCH_API_KEY/GOOGLE_SEARCH_CX)")
	}

	searcher, err := search.NewGoogleSearcher(ctx, cfg.SearchAPIKey, cfg.SearchEngineID)
	if err != nil {
		return fmt.Errorf("failed to initialize searcher: %w", err)
	}
	aggregator := search.NewAggregator(searcher, retry.DefaultPolicy(), search.DefaultBranchTimeout)

	llmClient, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, llm.DefaultModel)
	if err != nil {
		return fmt.Errorf("failed to initialize model client: %w", err)
	}
	defer llmClient.Close()

	orch := pipeline.New(reportCache, aggregator, synthesis.NewSynthesizer(llmClient))
	if cfg.Verbose {
		orch.OnProgress = func(ev pipeline.ProgressEvent) {
			fmt.Printf("[%s] %s\n", ev.State, ev.Message)
			if agg, ok := ev.Content.(*search.Aggregation); ok {
				printer.PrintEvidence(agg)
			}
		}
	}

	start := time.Now()
	out, err := orch.Analyze(ctx, req)
	if err != nil {
		switch {
		case pipeline.IsInsufficientData(err):
			return fmt.Errorf("not enough market evidence to produce a trustworthy analysis: %w", err)
		case pipeline.IsInvalidSynthesis(err):
			return fmt.Errorf("model output failed validation and was discarded: %w", err)
		default:
			return err
		}
	}

	if cfg.Verbose {
		fmt.Printf("Completed in %s\n", time.Since(start).Round(time.Millisecond))
	}
	return printOutcome(printer, out)
}

func printOutcome(printer *observability.Printer, out *pipeline.Outcome) error {
	if analyzeJSONOut {
		data, err := json.MarshalIndent(out.Report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if out.Cached {
		fmt.Println("Serving cached report.")
	}
	printer.PrintReport(out.Report)
	return nil
}
