package migrate

import "fmt"

// Classification is the tracker's remembered category for a processed source
// transaction. The set is closed; unrecognized values are rejected at the
// boundary instead of being coerced to a default.
type Classification string

const (
	// ClassificationDeposit is money entering a mapped account from outside.
	ClassificationDeposit Classification = "deposit"
	// ClassificationWithdrawal is money leaving a mapped account to outside.
	ClassificationWithdrawal Classification = "withdrawal"
	// ClassificationTransfer is the kept (incoming) leg of an internal
	// transfer between two mapped accounts.
	ClassificationTransfer Classification = "transfer"
	// ClassificationTransferDuplicate is the suppressed (outgoing) leg of an
	// internal transfer; it produces no destination record.
	ClassificationTransferDuplicate Classification = "transfer_duplicate"
	// ClassificationDuplicate marks a transaction the destination already
	// held before this tool first saw it.
	ClassificationDuplicate Classification = "duplicate"
)

// ParseClassification validates a stored or wire classification string.
func ParseClassification(value string) (Classification, error) {
	switch c := Classification(value); c {
	case ClassificationDeposit,
		ClassificationWithdrawal,
		ClassificationTransfer,
		ClassificationTransferDuplicate,
		ClassificationDuplicate:
		return c, nil
	default:
		return "", fmt.Errorf("unrecognized transaction classification %q", value)
	}
}

// Status is the tracker's answer to "have I seen this exact record before".
type Status int

const (
	// StatusNotFound means the transaction id has never been tracked.
	StatusNotFound Status = iota
	// StatusFoundExact means the id is tracked and the content hash is
	// unchanged since the last run.
	StatusFoundExact
	// StatusFoundNotExact means the id is tracked but the record was edited
	// remotely since the last run.
	StatusFoundNotExact
)

func (s Status) String() string {
	switch s {
	case StatusNotFound:
		return "not_found"
	case StatusFoundExact:
		return "found_exact"
	case StatusFoundNotExact:
		return "found_not_exact"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}
