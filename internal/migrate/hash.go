package migrate

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
	"strconv"

	"github.com/dvloznov/upfly/internal/upbank"
)

// ContentHash computes a deterministic digest over every transaction field
// that participates in the destination payload or in a destination update.
// The digest is stable across runs and independent of tag listing order, so
// re-running on unchanged source data is a true no-op.
func ContentHash(tx *upbank.Transaction) string {
	h := sha256.New()

	field := func(value string) {
		io.WriteString(h, value)
		h.Write([]byte{0x1f})
	}
	optional := func(value *string) {
		if value != nil {
			field(*value)
		} else {
			field("")
		}
	}
	money := func(m *upbank.Money) {
		if m == nil {
			field("")
			return
		}
		field(m.CurrencyCode)
		field(m.Value)
		field(strconv.FormatInt(m.ValueInBaseUnits, 10))
	}

	field(tx.Attributes.Description)
	optional(tx.Attributes.RawText)
	optional(tx.Attributes.Message)
	money(&tx.Attributes.Amount)
	money(tx.Attributes.ForeignAmount)
	field(tx.Attributes.CreatedAt)
	optional(tx.Attributes.SettledAt)

	if categoryID, ok := tx.CategoryID(); ok {
		field(categoryID)
	} else {
		field("")
	}

	if counterpartyID, ok := tx.TransferAccountID(); ok {
		field(counterpartyID)
	} else {
		field("")
	}

	tags := append([]string(nil), tx.TagIDs()...)
	sort.Strings(tags)
	for _, tag := range tags {
		field(tag)
	}

	return hex.EncodeToString(h.Sum(nil))
}
