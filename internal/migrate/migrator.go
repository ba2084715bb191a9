package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/upfly/internal/firefly"
	"github.com/dvloznov/upfly/internal/logger"
	"github.com/dvloznov/upfly/internal/upbank"
)

// Summary aggregates the outcome of one migration run.
type Summary struct {
	// Total is the number of fetched source transactions, including those
	// filtered out as unmapped.
	Total int
	// Unmapped transactions sit on accounts outside the mapping and are out
	// of scope, not errors.
	Unmapped   int
	Imported   int
	Updated    int
	Unchanged  int
	Suppressed int
	Duplicates int
	// Errored counts records skipped because of a per-record failure.
	Errored int
}

// outcome is the terminal action taken for one transaction.
type outcome int

const (
	outcomeImported outcome = iota
	outcomeUpdated
	outcomeUnchanged
	outcomeSuppressed
	outcomeDuplicate
)

// Migrator drives a reconciliation run: fetch source transactions, filter to
// mapped accounts, classify each record against the tracker, convert and
// create/update on the destination, and persist the tracker.
type Migrator struct {
	source      SourceLedger
	dest        DestinationLedger
	accounts    *AccountMap
	openTracker func(ctx context.Context) *Tracker
}

// New creates a Migrator. openTracker is called once per run so that every
// cycle of continuous mode gets its own open/flush/close bracket.
func New(source SourceLedger, dest DestinationLedger, accounts *AccountMap, openTracker func(ctx context.Context) *Tracker) *Migrator {
	return &Migrator{
		source:      source,
		dest:        dest,
		accounts:    accounts,
		openTracker: openTracker,
	}
}

// Run executes one full migration over the given window. Transactions are
// processed strictly sequentially: the destination search and the following
// create/update must observe a consistent view, and sequential processing is
// what makes the at-most-once-create guarantee hold without locking.
//
// Per-record failures are logged and counted, never fatal; a failed source
// listing aborts the run. The tracker is flushed on every exit path.
func (m *Migrator) Run(ctx context.Context, since, until *time.Time) (Summary, error) {
	log, _ := logger.WithRunID(logger.FromContext(ctx))
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Int("mapped_accounts", m.accounts.Len()).
		Msg("Starting migration run")

	transactions, err := m.source.ListTransactions(ctx, since, until)
	if err != nil {
		return Summary{}, fmt.Errorf("list source transactions: %w", err)
	}
	log.Info().Int("transaction_count", len(transactions)).Msg("Retrieved source transactions")

	tracker := m.openTracker(ctx)
	defer func() {
		// Close flushes the cache; failures there are logged, not fatal.
		_ = tracker.Close(ctx)
	}()

	summary := Summary{Total: len(transactions)}

	for i := range transactions {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		tx := &transactions[i]
		if !m.accounts.Mapped(tx.AccountID()) {
			summary.Unmapped++
			continue
		}

		result, err := m.processTransaction(ctx, tracker, tx)
		if err != nil {
			log.Warn().
				Err(err).
				Str("transaction_id", tx.ID).
				Msg("Failed to migrate transaction")
			summary.Errored++
			continue
		}

		switch result {
		case outcomeImported:
			summary.Imported++
		case outcomeUpdated:
			summary.Updated++
		case outcomeUnchanged:
			summary.Unchanged++
		case outcomeSuppressed:
			summary.Suppressed++
		case outcomeDuplicate:
			summary.Duplicates++
		}
	}

	log.Info().
		Int("total", summary.Total).
		Int("imported", summary.Imported).
		Int("updated", summary.Updated).
		Int("unchanged", summary.Unchanged).
		Int("suppressed", summary.Suppressed).
		Int("duplicates", summary.Duplicates).
		Int("unmapped", summary.Unmapped).
		Int("errored", summary.Errored).
		Msg("Migration run completed")

	return summary, nil
}

// processTransaction runs the per-record state machine.
func (m *Migrator) processTransaction(ctx context.Context, tracker *Tracker, tx *upbank.Transaction) (outcome, error) {
	switch tracker.Classify(tx) {
	case StatusFoundExact:
		// No remote change since the last run; no network calls.
		return outcomeUnchanged, nil
	case StatusNotFound:
		return m.importTransaction(ctx, tracker, tx)
	default:
		return m.updateTransaction(ctx, tracker, tx)
	}
}

// importTransaction handles a transaction the tracker has never seen. The
// destination is searched first so a wiped local cache cannot cause a
// double-insert against a destination that already holds the record.
func (m *Migrator) importTransaction(ctx context.Context, tracker *Tracker, tx *upbank.Transaction) (outcome, error) {
	log := logger.FromContext(ctx)

	existing, err := m.dest.SearchTransactionsByExternalID(ctx, tx.ID)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		log.Debug().
			Str("transaction_id", tx.ID).
			Msg("Destination already holds this transaction, recording as duplicate")
		tracker.Record(ctx, tx, ClassificationDuplicate)
		return outcomeDuplicate, nil
	}

	result, err := Convert(tx, m.accounts)
	if err != nil {
		return 0, err
	}
	if result.Suppressed {
		tracker.Record(ctx, tx, ClassificationTransferDuplicate)
		return outcomeSuppressed, nil
	}

	if _, err := m.dest.CreateTransaction(ctx, result.Payload); err != nil {
		return 0, err
	}

	classification, err := ParseClassification(result.Payload.Type)
	if err != nil {
		return 0, err
	}
	tracker.Record(ctx, tx, classification)

	log.Info().
		Str("transaction_id", tx.ID).
		Str("classification", string(classification)).
		Msg("Imported transaction")
	return outcomeImported, nil
}

// updateTransaction handles a tracked transaction whose content hash no
// longer matches: a remote edit since the last run. Mutable fields are
// merged (category replaced with the source's latest, tags unioned) and
// pushed as a single update.
func (m *Migrator) updateTransaction(ctx context.Context, tracker *Tracker, tx *upbank.Transaction) (outcome, error) {
	log := logger.FromContext(ctx)

	result, err := Convert(tx, m.accounts)
	if err != nil {
		return 0, err
	}
	if result.Suppressed {
		// The record was reclassified as the suppressed leg of an internal
		// transfer. Treated as a change to track, not a hard error.
		tracker.Record(ctx, tx, ClassificationTransferDuplicate)
		return outcomeSuppressed, nil
	}

	existing, err := m.dest.SearchTransactionsByExternalID(ctx, tx.ID)
	if err != nil {
		return 0, err
	}

	switch {
	case len(existing) > 1:
		return 0, &AmbiguousMatchError{ExternalID: tx.ID, Matches: len(existing)}
	case len(existing) == 0:
		// The destination lost the record since it was tracked; re-create.
		log.Warn().
			Str("transaction_id", tx.ID).
			Msg("Tracked transaction missing from destination, re-importing")
		if _, err := m.dest.CreateTransaction(ctx, result.Payload); err != nil {
			return 0, err
		}
		classification, err := ParseClassification(result.Payload.Type)
		if err != nil {
			return 0, err
		}
		tracker.Record(ctx, tx, classification)
		return outcomeImported, nil
	}

	target := existing[0]
	payload := mergePayload(result.Payload, &target)

	if _, err := m.dest.UpdateTransaction(ctx, target.ID, payload); err != nil {
		return 0, err
	}

	classification, err := ParseClassification(payload.Type)
	if err != nil {
		return 0, err
	}
	tracker.Record(ctx, tx, classification)

	log.Info().
		Str("transaction_id", tx.ID).
		Str("firefly_id", target.ID).
		Msg("Updated transaction")
	return outcomeUpdated, nil
}

// mergePayload folds the mutable fields of the stored destination record
// into the freshly converted payload: the category is replaced with the
// source's latest value (already on the fresh payload) and tags become the
// deduplicated union of both sides, stored tags first.
func mergePayload(fresh *firefly.TransactionPayload, existing *firefly.TransactionData) *firefly.TransactionPayload {
	merged := *fresh

	split, ok := existing.FirstSplit()
	if !ok {
		return &merged
	}

	merged.Tags = dedupeTags(append(append([]string(nil), split.Tags...), fresh.Tags...))
	return &merged
}

// RunContinuous repeats Run on a fixed interval until the context is
// cancelled. Cycles are independent and never overlap; cancellation is
// observed without waiting out the sleep, and the current cycle's tracker
// flush still runs before return.
func (m *Migrator) RunContinuous(ctx context.Context, interval time.Duration, since, until *time.Time) error {
	log := logger.FromContext(ctx)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Cancellation received, stopping continuous import")
			return nil
		case <-timer.C:
		}

		if _, err := m.Run(ctx, since, until); err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("Cancellation received, stopping continuous import")
				return nil
			}
			// A failed cycle does not stop the loop; the next interval gets
			// a fresh attempt.
			log.Error().Err(err).Msg("Migration cycle failed")
		}

		timer.Reset(interval)
	}
}
