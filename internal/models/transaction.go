package models

import (
	"time"
)

// BankTransaction is a statement-side record as delivered by the bank feed or an
// imported statement file.
type BankTransaction struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	// Positive inflow, negative outflow. Nil when the source row had no amount.
	Amount   *float64 `json:"amount"`
	Category string   `json:"category,omitempty"`
}

// LedgerEntry is a ledger-side record: a journal-entry line or a row exported from an
// external accounting system. Description and date are resolved from several
// optional fields, see services.NormalizeLedgerEntry.
type LedgerEntry struct {
	ID           string    `json:"id"`
	EntryDate    time.Time `json:"entry_date,omitempty"`
	Date         time.Time `json:"date,omitempty"`
	Name         string    `json:"name,omitempty"`
	Reference    string    `json:"reference,omitempty"`
	Memo         string    `json:"memo,omitempty"`
	Counterparty string    `json:"counterparty,omitempty"`
	Amount       *float64  `json:"amount"` // Debit-positive for journal lines
}

// NormalizedTransaction is a ledger entry with its description and date resolved and
// its amount made unsigned.
type NormalizedTransaction struct {
	ID          string      `json:"id"`
	Date        time.Time   `json:"date"`
	Description string      `json:"description"`
	Amount      *float64    `json:"amount"`
	Source      LedgerEntry `json:"source"`
}

// ParsedTransaction represents a row read from a statement or ledger file before it
// is stored
type ParsedTransaction struct {
	TxnDate     time.Time `json:"txn_date"`
	Description string    `json:"description"`
	Reference   string    `json:"reference,omitempty"`
	Amount      float64   `json:"amount"`   // Negative for debit, positive for credit
	TxnType     string    `json:"txn_type"` // "credit" or "debit"
	RawData     string    `json:"raw_data"` // Original row
}

// StatementInfo is the account metadata a statement file carries besides its
// rows: an "Account Info" sheet or the preamble above the header.
type StatementInfo struct {
	BankName      string `json:"bank_name,omitempty"`
	BankCode      string `json:"bank_code,omitempty"`
	Country       string `json:"country,omitempty"`
	Currency      string `json:"currency,omitempty"`
	AccountHolder string `json:"account_holder,omitempty"`
	AccountNumber string `json:"account_number,omitempty"` // masked
}

// ParsedStatement is a parsed file: its rows plus whatever account metadata was found
type ParsedStatement struct {
	Info         StatementInfo       `json:"info"`
	Transactions []ParsedTransaction `json:"transactions"`
}

// BankSchema defines the column structure for a known bank's export format
type BankSchema struct {
	BankName           string
	DateColumn         string
	DescriptionColumn  string
	ReferenceColumn    string
	DebitColumn        string // For banks with separate debit/credit columns
	CreditColumn       string
	AmountColumn       string // For banks with single amount column
	DrCrColumn         string // For banks with Dr/Cr indicator
	HasSeparateAmounts bool   // true if debit/credit are separate columns
}

// Float returns a pointer to v. Handy when building records by hand.
func Float(v float64) *float64 {
	return &v
}
