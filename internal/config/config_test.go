package config

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/dvloznov/upfly/internal/firefly"
	"github.com/dvloznov/upfly/internal/upbank"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("UP_TOKEN", "up-token")
	t.Setenv("FIREFLY_TOKEN", "ff-token")
	t.Setenv("FIREFLY_BASE_URL", "https://firefly.example.com")
	t.Setenv("UPFLY_ACCOUNTS", "up-acc-1")
	t.Setenv("UPFLY_TRACKER_PATH", "")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UPFLY_ACCOUNTS", " up-acc-1, up-acc-2 ,,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if want := []string{"up-acc-1", "up-acc-2"}; !reflect.DeepEqual(cfg.AccountIDs, want) {
		t.Errorf("AccountIDs = %v, want %v", cfg.AccountIDs, want)
	}
	if cfg.TrackerPath != DefaultTrackerPath {
		t.Errorf("TrackerPath = %q, want default %q", cfg.TrackerPath, DefaultTrackerPath)
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	tests := []string{"UP_TOKEN", "FIREFLY_TOKEN", "FIREFLY_BASE_URL", "UPFLY_ACCOUNTS"}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(name, "")

			if _, err := Load(); err == nil {
				t.Errorf("Expected Load to fail with %s unset", name)
			}
		})
	}
}

// mockDestinationAccounts resolves account numbers from a fixed table.
type mockDestinationAccounts struct {
	byNumber map[string]*firefly.Account
	err      error
}

func (m *mockDestinationAccounts) SearchAccountByNumber(ctx context.Context, number string) (*firefly.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byNumber[number], nil
}

func upAccount(id string) upbank.Account {
	return upbank.Account{Type: "accounts", ID: id}
}

func TestBuildAccountMap(t *testing.T) {
	cfg := &Config{AccountIDs: []string{"up-acc-1", "up-acc-2"}}
	dest := &mockDestinationAccounts{byNumber: map[string]*firefly.Account{
		"up-acc-1": {ID: "1"},
		"up-acc-2": {ID: "2"},
	}}

	accounts, err := BuildAccountMap(context.Background(), cfg, []upbank.Account{upAccount("up-acc-1"), upAccount("up-acc-2")}, dest)
	if err != nil {
		t.Fatalf("BuildAccountMap failed: %v", err)
	}
	if accounts.Len() != 2 {
		t.Fatalf("Len = %d, want 2", accounts.Len())
	}
	if id, ok := accounts.Resolve("up-acc-1"); !ok || id != "1" {
		t.Errorf("Resolve(up-acc-1) = %q, %v; want 1", id, ok)
	}
}

func TestBuildAccountMap_UnknownUpAccount(t *testing.T) {
	cfg := &Config{AccountIDs: []string{"up-acc-404"}}
	dest := &mockDestinationAccounts{byNumber: map[string]*firefly.Account{}}

	if _, err := BuildAccountMap(context.Background(), cfg, []upbank.Account{upAccount("up-acc-1")}, dest); err == nil {
		t.Error("Expected an error for an account unknown to Up Bank")
	}
}

func TestBuildAccountMap_UnresolvedFireflyAccount(t *testing.T) {
	cfg := &Config{AccountIDs: []string{"up-acc-1"}}
	dest := &mockDestinationAccounts{byNumber: map[string]*firefly.Account{}}

	if _, err := BuildAccountMap(context.Background(), cfg, []upbank.Account{upAccount("up-acc-1")}, dest); err == nil {
		t.Error("Expected an error when no Firefly account carries the number")
	}
}

func TestBuildAccountMap_SearchFailureAborts(t *testing.T) {
	cfg := &Config{AccountIDs: []string{"up-acc-1"}}
	dest := &mockDestinationAccounts{err: fmt.Errorf("firefly unreachable")}

	if _, err := BuildAccountMap(context.Background(), cfg, []upbank.Account{upAccount("up-acc-1")}, dest); err == nil {
		t.Error("Expected a destination lookup failure to abort validation")
	}
}

func TestBuildAccountMap_DuplicateSourceAccount(t *testing.T) {
	cfg := &Config{AccountIDs: []string{"up-acc-1", "up-acc-1"}}
	dest := &mockDestinationAccounts{byNumber: map[string]*firefly.Account{
		"up-acc-1": {ID: "1"},
	}}

	if _, err := BuildAccountMap(context.Background(), cfg, []upbank.Account{upAccount("up-acc-1")}, dest); err == nil {
		t.Error("Expected an error for a duplicated source account id")
	}
}
