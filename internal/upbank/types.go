package upbank

// Types mirror the slice of the Up Bank JSON:API schema this tool consumes.
// https://developer.up.com.au/

// Money is Up's representation of a monetary value. Value is a signed decimal
// string, ValueInBaseUnits the same value in minor units (cents).
type Money struct {
	CurrencyCode     string `json:"currencyCode"`
	Value            string `json:"value"`
	ValueInBaseUnits int64  `json:"valueInBaseUnits"`
}

// SelfLinks holds a resource's canonical URL.
type SelfLinks struct {
	Self string `json:"self,omitempty"`
}

// PaginationLinks carries the cursor URLs of a paged listing. A nil Next
// means the listing is exhausted.
type PaginationLinks struct {
	Prev *string `json:"prev"`
	Next *string `json:"next"`
}

// ResourceRef identifies a related resource by type and id.
type ResourceRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Relationship wraps an optional to-one relationship.
type Relationship struct {
	Data *ResourceRef `json:"data"`
}

// TagsRelationship wraps the to-many tags relationship.
type TagsRelationship struct {
	Data []ResourceRef `json:"data"`
}

// Account is an Up Bank account resource.
type Account struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Attributes AccountAttributes `json:"attributes"`
	Links      SelfLinks         `json:"links"`
}

// AccountAttributes are the account fields surfaced by the API.
type AccountAttributes struct {
	DisplayName   string `json:"displayName"`
	AccountType   string `json:"accountType"`
	OwnershipType string `json:"ownershipType"`
	Balance       Money  `json:"balance"`
	CreatedAt     string `json:"createdAt"`
}

type accountsResponse struct {
	Data  []Account       `json:"data"`
	Links PaginationLinks `json:"links"`
}

// Transaction is an Up Bank transaction resource.
type Transaction struct {
	Type          string                   `json:"type"`
	ID            string                   `json:"id"`
	Attributes    TransactionAttributes    `json:"attributes"`
	Relationships TransactionRelationships `json:"relationships"`
	Links         *SelfLinks               `json:"links,omitempty"`
}

// TransactionAttributes are the transaction fields surfaced by the API.
// Timestamps stay as the RFC3339 strings the API hands out; Firefly accepts
// them unmodified.
type TransactionAttributes struct {
	Status          string    `json:"status"`
	RawText         *string   `json:"rawText"`
	Description     string    `json:"description"`
	Message         *string   `json:"message"`
	IsCategorizable bool      `json:"isCategorizable"`
	HoldInfo        *HoldInfo `json:"holdInfo"`
	RoundUp         *RoundUp  `json:"roundUp"`
	Cashback        *Cashback `json:"cashback"`
	Amount          Money     `json:"amount"`
	ForeignAmount   *Money    `json:"foreignAmount"`
	SettledAt       *string   `json:"settledAt"`
	CreatedAt       string    `json:"createdAt"`
}

// HoldInfo describes the held amount of a settled card purchase.
type HoldInfo struct {
	Amount        Money  `json:"amount"`
	ForeignAmount *Money `json:"foreignAmount"`
}

// RoundUp describes an automatic round-up attached to a transaction.
type RoundUp struct {
	Amount       Money  `json:"amount"`
	BoostPortion *Money `json:"boostPortion"`
}

// Cashback describes a cashback credit attached to a transaction.
type Cashback struct {
	Description string `json:"description"`
	Amount      Money  `json:"amount"`
}

// TransactionRelationships link a transaction to its account, optional
// transfer counterparty, category and tags.
type TransactionRelationships struct {
	Account         Relationship     `json:"account"`
	TransferAccount Relationship     `json:"transferAccount"`
	Category        Relationship     `json:"category"`
	ParentCategory  Relationship     `json:"parentCategory"`
	Tags            TagsRelationship `json:"tags"`
}

type transactionsResponse struct {
	Data  []Transaction   `json:"data"`
	Links PaginationLinks `json:"links"`
}

// Category is an Up Bank spending category.
type Category struct {
	Type       string             `json:"type"`
	ID         string             `json:"id"`
	Attributes CategoryAttributes `json:"attributes"`
}

// CategoryAttributes hold the human-readable category name.
type CategoryAttributes struct {
	Name string `json:"name"`
}

type categoriesResponse struct {
	Data []Category `json:"data"`
}

// Tag is a user-defined transaction tag; the id is the tag label itself.
type Tag struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type tagsResponse struct {
	Data  []Tag           `json:"data"`
	Links PaginationLinks `json:"links"`
}

// AccountID returns the id of the account the transaction was booked on, or
// an empty string when the relationship is missing.
func (t *Transaction) AccountID() string {
	if t.Relationships.Account.Data == nil {
		return ""
	}
	return t.Relationships.Account.Data.ID
}

// TransferAccountID returns the counterparty account id when the transaction
// is one leg of an internal transfer.
func (t *Transaction) TransferAccountID() (string, bool) {
	if t.Relationships.TransferAccount.Data == nil {
		return "", false
	}
	return t.Relationships.TransferAccount.Data.ID, true
}

// CategoryID returns the category identifier when one is assigned.
func (t *Transaction) CategoryID() (string, bool) {
	if t.Relationships.Category.Data == nil {
		return "", false
	}
	return t.Relationships.Category.Data.ID, true
}

// TagIDs returns the transaction's tag labels in listing order.
func (t *Transaction) TagIDs() []string {
	if len(t.Relationships.Tags.Data) == 0 {
		return nil
	}
	ids := make([]string, 0, len(t.Relationships.Tags.Data))
	for _, tag := range t.Relationships.Tags.Data {
		ids = append(ids, tag.ID)
	}
	return ids
}

// SelfLink returns the transaction's canonical URL when the API provided one.
func (t *Transaction) SelfLink() string {
	if t.Links == nil {
		return ""
	}
	return t.Links.Self
}
