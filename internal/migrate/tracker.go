package migrate

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dvloznov/upfly/internal/logger"
	"github.com/dvloznov/upfly/internal/upbank"
)

// TrackedRecord is the persisted reconciliation state for one source
// transaction: its classification and the content hash it carried when last
// pushed to the destination.
type TrackedRecord struct {
	TransactionID  string `gorm:"primaryKey;column:transaction_id"`
	Classification string `gorm:"column:classification"`
	ContentHash    string `gorm:"column:content_hash"`
}

// TableName keeps the table name stable regardless of gorm's pluralization.
func (TrackedRecord) TableName() string {
	return "tracked_records"
}

// Tracker is the content-addressed reconciliation cache. The whole table is
// loaded into memory on open, mutated there during the run, and rewritten
// wholesale on Close. It is a cache, not the system of record: the
// destination API stays authoritative, so load failures degrade to an empty
// tracker instead of aborting the run.
//
// The map is owned by a single orchestrator run and accessed sequentially;
// no internal locking.
type Tracker struct {
	db      *gorm.DB
	records map[string]TrackedRecord
}

// OpenTracker loads all persisted records from the sqlite table at path.
// Any failure to open or read the table is logged and yields an empty
// in-memory tracker; in that degraded state Close skips persistence.
func OpenTracker(ctx context.Context, path string) *Tracker {
	log := logger.FromContext(ctx)
	tracker := &Tracker{records: make(map[string]TrackedRecord)}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to open tracker store, starting with an empty tracker")
		return tracker
	}

	if err := db.AutoMigrate(&TrackedRecord{}); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to migrate tracker schema, starting with an empty tracker")
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return tracker
	}
	tracker.db = db

	var rows []TrackedRecord
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to load tracked records, starting with an empty tracker")
		return tracker
	}

	for _, row := range rows {
		if _, err := ParseClassification(row.Classification); err != nil {
			log.Warn().
				Err(err).
				Str("transaction_id", row.TransactionID).
				Msg("Dropping tracked record with unrecognized classification")
			continue
		}
		tracker.records[row.TransactionID] = row
	}

	log.Debug().Int("tracked_records", len(tracker.records)).Msg("Loaded transaction tracker")
	return tracker
}

// Classify compares the transaction's current content hash against the
// stored one for its id.
func (t *Tracker) Classify(tx *upbank.Transaction) Status {
	record, ok := t.records[tx.ID]
	if !ok {
		return StatusNotFound
	}
	if record.ContentHash == ContentHash(tx) {
		return StatusFoundExact
	}
	return StatusFoundNotExact
}

// Record inserts or overwrites the tracked record for the transaction with a
// freshly computed hash. Overwriting an existing record with different
// content should not happen under correct orchestration, so it is logged,
// but it is not an error: last writer wins.
func (t *Tracker) Record(ctx context.Context, tx *upbank.Transaction, classification Classification) {
	log := logger.FromContext(ctx)

	fresh := TrackedRecord{
		TransactionID:  tx.ID,
		Classification: string(classification),
		ContentHash:    ContentHash(tx),
	}

	if existing, ok := t.records[tx.ID]; ok && existing != fresh {
		log.Warn().
			Str("transaction_id", tx.ID).
			Str("old_classification", existing.Classification).
			Str("new_classification", fresh.Classification).
			Msg("Overwriting tracked record with different content")
	}

	t.records[tx.ID] = fresh
}

// Len returns the number of tracked records currently in memory.
func (t *Tracker) Len() int {
	return len(t.records)
}

// Close rewrites the persisted table from the in-memory map and releases the
// store. It must run on every exit path of the owning run; a persistence
// failure is logged and returned but callers are free to ignore it, since
// the tracker can always be rebuilt from the destination ledger.
func (t *Tracker) Close(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if t.db == nil {
		log.Warn().Msg("Tracker store unavailable, skipping persistence")
		return nil
	}

	// The rewrite must complete even when the owning run was cancelled, or a
	// SIGINT would lose everything tracked this cycle.
	flushCtx := context.WithoutCancel(ctx)
	err := t.db.WithContext(flushCtx).Transaction(func(txn *gorm.DB) error {
		if err := txn.Exec("DELETE FROM tracked_records").Error; err != nil {
			return err
		}
		if len(t.records) == 0 {
			return nil
		}
		rows := make([]TrackedRecord, 0, len(t.records))
		for _, record := range t.records {
			rows = append(rows, record)
		}
		return txn.Create(&rows).Error
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to persist transaction tracker")
		return fmt.Errorf("persist tracker: %w", err)
	}

	log.Debug().Int("tracked_records", len(t.records)).Msg("Persisted transaction tracker")

	if sqlDB, dbErr := t.db.DB(); dbErr == nil {
		return sqlDB.Close()
	}
	return nil
}
