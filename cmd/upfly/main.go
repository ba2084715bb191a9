package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/upfly/internal/config"
	"github.com/dvloznov/upfly/internal/firefly"
	"github.com/dvloznov/upfly/internal/logger"
	"github.com/dvloznov/upfly/internal/migrate"
	"github.com/dvloznov/upfly/internal/upbank"
)

// dateLayout is the day-month-year format taken on the command line.
const dateLayout = "02-01-2006"

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "import":
		runImport(log)
	case "watch":
		runWatch(log)
	case "accounts":
		runAccounts(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("upfly - migrate Up Bank transactions into Firefly III")
	fmt.Println("\nUsage:")
	fmt.Println("  upfly <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  import    One-shot import over a date window")
	fmt.Println("  watch     Continuous import on a fixed interval")
	fmt.Println("  accounts  List Up Bank accounts")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'upfly <command> -h' for more information on a command.")
	fmt.Println("\nConfiguration comes from the environment (or a .env file):")
	fmt.Println("  UP_TOKEN, FIREFLY_TOKEN, FIREFLY_BASE_URL, UPFLY_ACCOUNTS, UPFLY_TRACKER_PATH")
}

func runImport(log zerolog.Logger) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	startDateStr := fs.String("start-date", "", "Start date in DD-MM-YYYY format (optional)")
	endDateStr := fs.String("end-date", "", "End date in DD-MM-YYYY format (optional)")
	fs.Parse(os.Args[2:])

	since, until := parseWindow(log, *startDateStr, *endDateStr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	migrator := setup(ctx, log)

	summary, err := migrator.Run(ctx, since, until)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	fmt.Printf("Import completed: %d imported, %d updated, %d unchanged, %d skipped on error.\n",
		summary.Imported, summary.Updated, summary.Unchanged, summary.Errored)
}

func runWatch(log zerolog.Logger) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	interval := fs.Duration("interval", time.Hour, "Delay between import cycles")
	startDateStr := fs.String("start-date", "", "Start date in DD-MM-YYYY format (optional)")
	endDateStr := fs.String("end-date", "", "End date in DD-MM-YYYY format (optional)")
	fs.Parse(os.Args[2:])

	since, until := parseWindow(log, *startDateStr, *endDateStr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	migrator := setup(ctx, log)

	log.Info().Dur("interval", *interval).Msg("Starting continuous import")
	if err := migrator.RunContinuous(ctx, *interval, since, until); err != nil {
		log.Fatal().Err(err).Msg("Continuous import failed")
	}

	fmt.Println("Continuous import stopped.")
}

func runAccounts(log zerolog.Logger) {
	ctx := logger.WithContext(context.Background(), log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}

	source, err := upbank.NewClient(cfg.UpToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Up Bank client")
	}
	if err := source.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Up Bank health check failed")
	}

	accounts, err := source.ListAccounts(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list Up Bank accounts")
	}

	fmt.Printf("\n=== Up Bank Accounts (%d) ===\n", len(accounts))
	for _, acc := range accounts {
		fmt.Printf("\n%s\n", acc.Attributes.DisplayName)
		fmt.Printf("   ID:      %s\n", acc.ID)
		fmt.Printf("   Type:    %s\n", acc.Attributes.AccountType)
		fmt.Printf("   Balance: %s %s\n", acc.Attributes.Balance.Value, acc.Attributes.Balance.CurrencyCode)
	}
	fmt.Println()
}

// setup runs the startup sequence shared by import and watch: load config,
// construct both clients, verify the source is reachable, and validate the
// account mapping against both ledgers. Every failure here is fatal; no
// migration work has started yet.
func setup(ctx context.Context, log zerolog.Logger) *migrate.Migrator {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}

	source, err := upbank.NewClient(cfg.UpToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Up Bank client")
	}
	dest, err := firefly.NewClient(cfg.FireflyToken, cfg.FireflyBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Firefly client")
	}

	if err := source.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Up Bank health check failed")
	}
	if err := source.LoadData(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load Up Bank reference data")
	}

	accounts, err := config.BuildAccountMap(ctx, cfg, source.Accounts, dest)
	if err != nil {
		log.Fatal().Err(err).Msg("Account mapping validation failed")
	}
	log.Info().Int("mapped_accounts", accounts.Len()).Msg("Account validation completed, services connected")

	openTracker := func(ctx context.Context) *migrate.Tracker {
		return migrate.OpenTracker(ctx, cfg.TrackerPath)
	}
	return migrate.New(source, dest, accounts, openTracker)
}

// parseWindow turns the optional date flags into an import window. A date
// that fails to parse aborts instead of silently importing everything.
func parseWindow(log zerolog.Logger, startDateStr, endDateStr string) (since, until *time.Time) {
	if startDateStr != "" {
		date, err := time.ParseInLocation(dateLayout, startDateStr, time.Local)
		if err != nil {
			log.Fatal().Err(err).Str("start_date", startDateStr).Msg("Error: invalid start-date format, expected DD-MM-YYYY")
		}
		since = &date
	}
	if endDateStr != "" {
		date, err := time.ParseInLocation(dateLayout, endDateStr, time.Local)
		if err != nil {
			log.Fatal().Err(err).Str("end_date", endDateStr).Msg("Error: invalid end-date format, expected DD-MM-YYYY")
		}
		until = &date
	}
	if since != nil && until != nil && until.Before(*since) {
		log.Fatal().
			Time("start_date", *since).
			Time("end_date", *until).
			Msg("Error: end-date must be after start-date")
	}
	return since, until
}
