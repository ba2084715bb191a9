package migrate

import "fmt"

// AccountMap maps Up Bank account ids to their Firefly III counterparts. It
// is built and validated once at startup and is read-only for the rest of
// the run, so lookups need no locking.
type AccountMap struct {
	toFirefly map[string]string
}

// NewAccountMap returns an empty mapping.
func NewAccountMap() *AccountMap {
	return &AccountMap{toFirefly: make(map[string]string)}
}

// Add registers one account pair. A source account may map to at most one
// destination account; registering the same source id twice is a
// configuration error.
func (m *AccountMap) Add(upAccountID, fireflyAccountID string) error {
	if upAccountID == "" || fireflyAccountID == "" {
		return fmt.Errorf("account mapping requires both ids, got (%q, %q)", upAccountID, fireflyAccountID)
	}
	if existing, ok := m.toFirefly[upAccountID]; ok {
		return fmt.Errorf("up account %s is already mapped to firefly account %s", upAccountID, existing)
	}
	m.toFirefly[upAccountID] = fireflyAccountID
	return nil
}

// Resolve returns the Firefly account id mapped to the given Up account id.
func (m *AccountMap) Resolve(upAccountID string) (string, bool) {
	id, ok := m.toFirefly[upAccountID]
	return id, ok
}

// Mapped reports whether the Up account participates in the migration.
func (m *AccountMap) Mapped(upAccountID string) bool {
	_, ok := m.toFirefly[upAccountID]
	return ok
}

// Len returns the number of mapped account pairs.
func (m *AccountMap) Len() int {
	return len(m.toFirefly)
}
