package migrate

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/upfly/internal/firefly"
	"github.com/dvloznov/upfly/internal/upbank"
)

// ConvertResult is the outcome of converting one source transaction.
// Suppressed marks the outgoing leg of an internal transfer, which must not
// produce a destination record of its own; Payload is nil in that case.
type ConvertResult struct {
	Payload    *firefly.TransactionPayload
	Suppressed bool
}

// Convert maps one Up Bank transaction into a Firefly III payload.
//
// The direction is taken from the sign of the amount. An internal transfer
// between two mapped accounts appears in the source as two mirrored records;
// the withdrawal leg is suppressed and the deposit leg becomes the single
// Transfer record carrying both resolved account references. Keying the
// choice off the sign, not arrival order, keeps the rule stable when the two
// legs land on different pages of the fetch.
func Convert(tx *upbank.Transaction, accounts *AccountMap) (ConvertResult, error) {
	ownAccountID := tx.AccountID()
	ownFireflyID, ok := accounts.Resolve(ownAccountID)
	if !ok {
		return ConvertResult{}, &UnmappedAccountError{TransactionID: tx.ID, AccountID: ownAccountID}
	}

	amount, err := absoluteAmount(tx.Attributes.Amount.Value)
	if err != nil {
		return ConvertResult{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}

	payload := &firefly.TransactionPayload{
		Date:         tx.Attributes.CreatedAt,
		Amount:       amount,
		CurrencyCode: tx.Attributes.Amount.CurrencyCode,
		Description:  description(tx),
		// Firefly requires the field to be present.
		Order:       0,
		Tags:        dedupeTags(tx.TagIDs()),
		ExternalID:  tx.ID,
		ExternalURL: tx.SelfLink(),
	}

	if categoryID, ok := tx.CategoryID(); ok {
		payload.CategoryName = normalizeCategory(categoryID)
	}

	if foreign := tx.Attributes.ForeignAmount; foreign != nil {
		payload.ForeignAmount = foreign.Value
		payload.ForeignCurrencyCode = foreign.CurrencyCode
	} else {
		// The destination schema requires the field; an explicit zero beats
		// omitting it.
		payload.ForeignAmount = "0"
	}

	counterpartyID, hasCounterparty := tx.TransferAccountID()

	if tx.Attributes.Amount.ValueInBaseUnits < 0 {
		// Money leaves this account, so it is the source side.
		payload.Type = "withdrawal"
		payload.SourceID = ownFireflyID

		switch {
		case !hasCounterparty:
			payload.DestinationName = tx.Attributes.Description
		case accounts.Mapped(counterpartyID):
			// The mirrored deposit leg on the counterparty account carries
			// this event into Firefly as the single Transfer record.
			return ConvertResult{Suppressed: true}, nil
		default:
			payload.DestinationName = counterpartyID
		}
		return ConvertResult{Payload: payload}, nil
	}

	// Money enters this account, so it is the destination side.
	payload.Type = "deposit"
	payload.DestinationID = ownFireflyID

	switch {
	case !hasCounterparty:
		payload.SourceName = tx.Attributes.Description
	case accounts.Mapped(counterpartyID):
		counterpartyFireflyID, _ := accounts.Resolve(counterpartyID)
		payload.Type = "transfer"
		payload.SourceID = counterpartyFireflyID
	default:
		payload.SourceName = counterpartyID
	}
	return ConvertResult{Payload: payload}, nil
}

// absoluteAmount normalizes a signed decimal amount string to its absolute
// value. The sign is stripped textually so the source's scale survives;
// Decimal.String would drop trailing zeros.
func absoluteAmount(value string) (string, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return "", fmt.Errorf("parse amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return strings.TrimPrefix(value, "-"), nil
	}
	return value, nil
}

// description joins the transaction description with the raw statement text
// when the source provides one.
func description(tx *upbank.Transaction) string {
	if tx.Attributes.RawText != nil && *tx.Attributes.RawText != "" {
		return tx.Attributes.Description + ", " + *tx.Attributes.RawText
	}
	return tx.Attributes.Description
}

// normalizeCategory rewrites the source's dashed category identifiers into
// the underscore form used for Firefly category names.
func normalizeCategory(categoryID string) string {
	return strings.ReplaceAll(categoryID, "-", "_")
}

// dedupeTags removes duplicate tags while preserving first-seen order.
func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
