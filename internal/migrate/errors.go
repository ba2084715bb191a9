package migrate

import "fmt"

// UnmappedAccountError is returned when a transaction's own account is not
// in the configured account mapping. It signals a configuration gap and is
// fatal for that record only: the orchestrator logs it and moves on.
type UnmappedAccountError struct {
	TransactionID string
	AccountID     string
}

func (e *UnmappedAccountError) Error() string {
	return fmt.Sprintf("transaction %s is on account %s which is not in the account mapping", e.TransactionID, e.AccountID)
}

// AmbiguousMatchError is returned when more than one destination record
// shares an external id, leaving no unambiguous update target.
type AmbiguousMatchError struct {
	ExternalID string
	Matches    int
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("external id %s matched %d destination transactions, expected exactly one", e.ExternalID, e.Matches)
}
