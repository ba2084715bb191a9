package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dvloznov/upfly/internal/firefly"
	"github.com/dvloznov/upfly/internal/logger"
	"github.com/dvloznov/upfly/internal/migrate"
	"github.com/dvloznov/upfly/internal/upbank"
)

// DefaultTrackerPath is where the reconciliation cache lives unless
// overridden.
const DefaultTrackerPath = "config/transactions.db"

// Config holds the credentials and account selection for a migration run.
type Config struct {
	UpToken        string
	FireflyToken   string
	FireflyBaseURL string
	// AccountIDs are the Up Bank account ids to migrate. Each one must
	// resolve to a Firefly account whose account_number equals the Up id.
	AccountIDs  []string
	TrackerPath string
}

// Load reads configuration from a .env file (when present) and the
// environment. Missing credentials are a fatal configuration error; the
// caller aborts before any migration work.
func Load() (*Config, error) {
	// A missing .env file is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg := &Config{
		UpToken:        os.Getenv("UP_TOKEN"),
		FireflyToken:   os.Getenv("FIREFLY_TOKEN"),
		FireflyBaseURL: os.Getenv("FIREFLY_BASE_URL"),
		AccountIDs:     splitAccounts(os.Getenv("UPFLY_ACCOUNTS")),
		TrackerPath:    os.Getenv("UPFLY_TRACKER_PATH"),
	}
	if cfg.TrackerPath == "" {
		cfg.TrackerPath = DefaultTrackerPath
	}

	if cfg.UpToken == "" {
		return nil, errors.New("UP_TOKEN is not set")
	}
	if cfg.FireflyToken == "" {
		return nil, errors.New("FIREFLY_TOKEN is not set")
	}
	if cfg.FireflyBaseURL == "" {
		return nil, errors.New("FIREFLY_BASE_URL is not set")
	}
	if len(cfg.AccountIDs) == 0 {
		return nil, errors.New("UPFLY_ACCOUNTS is not set, nothing to migrate")
	}

	return cfg, nil
}

func splitAccounts(value string) []string {
	if value == "" {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(value, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// DestinationAccounts is the account-lookup slice of the Firefly client used
// during mapping validation.
type DestinationAccounts interface {
	SearchAccountByNumber(ctx context.Context, number string) (*firefly.Account, error)
}

// BuildAccountMap validates every configured Up account against both live
// ledgers and returns the resolved mapping. Any account that is unknown to
// either side aborts startup: a broken mapping migrates into the wrong book.
func BuildAccountMap(ctx context.Context, cfg *Config, upAccounts []upbank.Account, dest DestinationAccounts) (*migrate.AccountMap, error) {
	log := logger.FromContext(ctx)

	known := make(map[string]bool, len(upAccounts))
	for _, acc := range upAccounts {
		known[acc.ID] = true
	}

	accounts := migrate.NewAccountMap()
	for _, upID := range cfg.AccountIDs {
		if !known[upID] {
			return nil, fmt.Errorf("up bank has no account with id %s", upID)
		}

		fireflyAccount, err := dest.SearchAccountByNumber(ctx, upID)
		if err != nil {
			return nil, fmt.Errorf("resolve firefly account for %s: %w", upID, err)
		}
		if fireflyAccount == nil {
			return nil, fmt.Errorf("firefly has no account with account number %s", upID)
		}

		if err := accounts.Add(upID, fireflyAccount.ID); err != nil {
			return nil, err
		}
		log.Debug().
			Str("up_account_id", upID).
			Str("firefly_account_id", fireflyAccount.ID).
			Msg("Resolved account mapping")
	}

	return accounts, nil
}
