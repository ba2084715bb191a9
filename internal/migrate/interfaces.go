package migrate

import (
	"context"
	"time"

	"github.com/dvloznov/upfly/internal/firefly"
	"github.com/dvloznov/upfly/internal/upbank"
)

// SourceLedger is the slice of the Up Bank API the migrator consumes.
type SourceLedger interface {
	// ListTransactions returns every source transaction in the window,
	// fully depaginated. A nil since/until leaves that side open.
	ListTransactions(ctx context.Context, since, until *time.Time) ([]upbank.Transaction, error)
}

// DestinationLedger is the slice of the Firefly III API the migrator
// consumes.
type DestinationLedger interface {
	// SearchTransactionsByExternalID returns every destination transaction
	// carrying the given external id. Zero, one or many results are all
	// possible.
	SearchTransactionsByExternalID(ctx context.Context, externalID string) ([]firefly.TransactionData, error)

	// CreateTransaction stores a new transaction and returns it.
	CreateTransaction(ctx context.Context, payload *firefly.TransactionPayload) (*firefly.TransactionData, error)

	// UpdateTransaction replaces the fields of an existing transaction.
	UpdateTransaction(ctx context.Context, id string, payload *firefly.TransactionPayload) (*firefly.TransactionData, error)
}
