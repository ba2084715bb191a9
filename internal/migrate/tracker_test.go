package migrate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dvloznov/upfly/internal/logger"
)

func testContext(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	return logger.WithContext(context.Background(), logger.NewWithWriter(buf)), buf
}

func TestTracker_RoundTrip(t *testing.T) {
	ctx, _ := testContext(t)
	path := filepath.Join(t.TempDir(), "tracker.db")

	first := testTransaction("tx-1", "up-a", "-50.00", -5000, "Coffee Shop")
	second := testTransaction("tx-2", "up-b", "100.00", 10000, "Salary")

	tracker := OpenTracker(ctx, path)
	if status := tracker.Classify(&first); status != StatusNotFound {
		t.Fatalf("Classify before record = %v, want not_found", status)
	}
	tracker.Record(ctx, &first, ClassificationWithdrawal)
	tracker.Record(ctx, &second, ClassificationDeposit)
	if err := tracker.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A reopened tracker must reproduce identical classify results.
	reopened := OpenTracker(ctx, path)
	defer reopened.Close(ctx)

	if reopened.Len() != 2 {
		t.Fatalf("Len after reload = %d, want 2", reopened.Len())
	}
	if status := reopened.Classify(&first); status != StatusFoundExact {
		t.Errorf("Classify(unchanged) = %v, want found_exact", status)
	}

	edited := first
	edited.Attributes.Description = "Renamed Coffee Shop"
	if status := reopened.Classify(&edited); status != StatusFoundNotExact {
		t.Errorf("Classify(edited) = %v, want found_not_exact", status)
	}

	unknown := testTransaction("tx-3", "up-a", "-1.00", -100, "New")
	if status := reopened.Classify(&unknown); status != StatusNotFound {
		t.Errorf("Classify(unknown) = %v, want not_found", status)
	}
}

func TestTracker_CloseSurvivesCancellation(t *testing.T) {
	ctx, _ := testContext(t)
	path := filepath.Join(t.TempDir(), "tracker.db")

	tx := testTransaction("tx-1", "up-a", "-50.00", -5000, "Coffee Shop")

	tracker := OpenTracker(ctx, path)
	tracker.Record(ctx, &tx, ClassificationWithdrawal)

	// A shutdown signal cancels the run's context before the flush.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := tracker.Close(cancelled); err != nil {
		t.Fatalf("Close with a cancelled context failed: %v", err)
	}

	reopened := OpenTracker(ctx, path)
	defer reopened.Close(ctx)
	if reopened.Len() != 1 {
		t.Fatalf("Len after reload = %d, want 1", reopened.Len())
	}
	if status := reopened.Classify(&tx); status != StatusFoundExact {
		t.Errorf("Classify = %v, want found_exact", status)
	}
}

func TestTracker_CorruptStoreDegradesToEmpty(t *testing.T) {
	ctx, _ := testContext(t)
	path := filepath.Join(t.TempDir(), "tracker.db")

	if err := os.WriteFile(path, []byte("this is not a sqlite database"), 0o644); err != nil {
		t.Fatal(err)
	}

	tracker := OpenTracker(ctx, path)
	if tracker.Len() != 0 {
		t.Errorf("Len = %d, want 0 for a corrupt store", tracker.Len())
	}

	// Close on a degraded tracker must not fail either.
	if err := tracker.Close(ctx); err != nil {
		t.Errorf("Close on degraded tracker failed: %v", err)
	}
}

func TestTracker_OverwriteLogsWarning(t *testing.T) {
	ctx, buf := testContext(t)
	path := filepath.Join(t.TempDir(), "tracker.db")

	tx := testTransaction("tx-1", "up-a", "-50.00", -5000, "Coffee Shop")

	tracker := OpenTracker(ctx, path)
	defer tracker.Close(ctx)

	tracker.Record(ctx, &tx, ClassificationWithdrawal)

	// Same content, same classification: no warning.
	tracker.Record(ctx, &tx, ClassificationWithdrawal)
	if strings.Contains(buf.String(), "Overwriting tracked record") {
		t.Error("Re-recording identical content must not warn")
	}

	tracker.Record(ctx, &tx, ClassificationDuplicate)
	if !strings.Contains(buf.String(), "Overwriting tracked record") {
		t.Error("Expected a warning when overwriting with a different classification")
	}
	if status := tracker.Classify(&tx); status != StatusFoundExact {
		t.Errorf("Classify after overwrite = %v, want found_exact", status)
	}
}

func TestTracker_DropsUnrecognizedClassification(t *testing.T) {
	ctx, _ := testContext(t)
	path := filepath.Join(t.TempDir(), "tracker.db")

	tx := testTransaction("tx-1", "up-a", "-50.00", -5000, "Coffee Shop")

	tracker := OpenTracker(ctx, path)
	tracker.Record(ctx, &tx, ClassificationWithdrawal)
	if err := tracker.Close(ctx); err != nil {
		t.Fatal(err)
	}

	// Corrupt the stored classification behind the tracker's back.
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Model(&TrackedRecord{}).Where("transaction_id = ?", "tx-1").
		Update("classification", "mystery").Error; err != nil {
		t.Fatal(err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	reopened := OpenTracker(ctx, path)
	defer reopened.Close(ctx)

	if reopened.Len() != 0 {
		t.Errorf("Len = %d, want 0 after dropping the unrecognized row", reopened.Len())
	}
	if status := reopened.Classify(&tx); status != StatusNotFound {
		t.Errorf("Classify = %v, want not_found", status)
	}
}
