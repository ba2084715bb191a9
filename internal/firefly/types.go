package firefly

// Types cover the slice of the Firefly III API this tool consumes. Firefly
// wraps every resource in a {"data": ...} envelope and models a transaction
// as a group holding one or more splits.

// Account is a Firefly III account resource.
type Account struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Attributes AccountAttributes `json:"attributes"`
}

// AccountAttributes are the account fields the migration cares about.
// AccountNumber is the join key to the source ledger: each mapped Firefly
// account stores the Up account id in its account_number field.
type AccountAttributes struct {
	Active        bool    `json:"active"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	CurrencyCode  string  `json:"currency_code"`
	AccountNumber *string `json:"account_number"`
	IBAN          *string `json:"iban"`
	Notes         *string `json:"notes"`
}

type accountResponse struct {
	Data *Account `json:"data"`
}

type accountsResponse struct {
	Data []Account `json:"data"`
}

// TransactionData is a stored transaction group as returned by reads and
// searches.
type TransactionData struct {
	Type       string                `json:"type"`
	ID         string                `json:"id"`
	Attributes TransactionAttributes `json:"attributes"`
}

// TransactionAttributes wrap a group's splits.
type TransactionAttributes struct {
	CreatedAt    string        `json:"created_at"`
	UpdatedAt    string        `json:"updated_at"`
	GroupTitle   *string       `json:"group_title"`
	Transactions []Transaction `json:"transactions"`
}

// Transaction is one stored split of a transaction group.
type Transaction struct {
	TransactionJournalID string   `json:"transaction_journal_id"`
	Type                 string   `json:"type"`
	Date                 string   `json:"date"`
	Order                *int     `json:"order"`
	CurrencyCode         *string  `json:"currency_code"`
	Amount               string   `json:"amount"`
	ForeignAmount        *string  `json:"foreign_amount"`
	ForeignCurrencyCode  *string  `json:"foreign_currency_code"`
	Description          string   `json:"description"`
	SourceID             *string  `json:"source_id"`
	SourceName           *string  `json:"source_name"`
	DestinationID        *string  `json:"destination_id"`
	DestinationName      *string  `json:"destination_name"`
	CategoryID           *string  `json:"category_id"`
	CategoryName         *string  `json:"category_name"`
	Reconciled           bool     `json:"reconciled"`
	Notes                *string  `json:"notes"`
	Tags                 []string `json:"tags"`
	InternalReference    *string  `json:"internal_reference"`
	ExternalID           *string  `json:"external_id"`
	ExternalURL          *string  `json:"external_url"`
}

type transactionResponse struct {
	Data *TransactionData `json:"data"`
}

type transactionsResponse struct {
	Data []TransactionData `json:"data"`
}

// TransactionPayload is one split of a transaction group ready for
// submission. External fields carry the source transaction identity so a
// later run can find the record again.
type TransactionPayload struct {
	Type                string   `json:"type"`
	Date                string   `json:"date"`
	Amount              string   `json:"amount"`
	Description         string   `json:"description"`
	Order               int      `json:"order"`
	CurrencyCode        string   `json:"currency_code,omitempty"`
	ForeignAmount       string   `json:"foreign_amount"`
	ForeignCurrencyCode string   `json:"foreign_currency_code,omitempty"`
	CategoryName        string   `json:"category_name,omitempty"`
	SourceID            string   `json:"source_id,omitempty"`
	SourceName          string   `json:"source_name,omitempty"`
	DestinationID       string   `json:"destination_id,omitempty"`
	DestinationName     string   `json:"destination_name,omitempty"`
	Reconciled          bool     `json:"reconciled"`
	Tags                []string `json:"tags,omitempty"`
	Notes               string   `json:"notes,omitempty"`
	ExternalID          string   `json:"external_id,omitempty"`
	ExternalURL         string   `json:"external_url,omitempty"`
}

// transactionRequest is the write envelope for create and update calls.
type transactionRequest struct {
	ErrorIfDuplicateHash bool                 `json:"error_if_duplicate_hash"`
	ApplyRules           bool                 `json:"apply_rules"`
	FireWebhooks         bool                 `json:"fire_webhooks"`
	GroupTitle           string               `json:"group_title,omitempty"`
	Transactions         []TransactionPayload `json:"transactions"`
}

// FirstSplit returns the first split of a stored group. Migrated
// transactions always hold exactly one split.
func (d *TransactionData) FirstSplit() (*Transaction, bool) {
	if len(d.Attributes.Transactions) == 0 {
		return nil, false
	}
	return &d.Attributes.Transactions[0], true
}
