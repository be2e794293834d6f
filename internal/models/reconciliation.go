package models

import (
	"time"

	"github.com/google/uuid"
)

// AmountTolerance selects how close two amounts must be to count as a near-match.
type AmountTolerance string

const (
	AmountToleranceExact   AmountTolerance = "exact"
	AmountToleranceCents   AmountTolerance = "cents"
	AmountTolerancePercent AmountTolerance = "percent"
)

// ReconciliationSettings are the user-tunable matching knobs for one run.
type ReconciliationSettings struct {
	MatchByAmount      bool            `json:"match_by_amount"`
	MatchByDate        bool            `json:"match_by_date"`
	MatchByDescription bool            `json:"match_by_description"`
	DateTolerance      int             `json:"date_tolerance"` // days, 0 = same day
	AmountTolerance    AmountTolerance `json:"amount_tolerance"`
	// AIMatching is stored and echoed back but has no effect on matching.
	AIMatching bool `json:"ai_matching"`
}

// DefaultSettings returns the settings a new reconciliation starts with.
func DefaultSettings() ReconciliationSettings {
	return ReconciliationSettings{
		MatchByAmount:      true,
		MatchByDate:        true,
		MatchByDescription: true,
		DateTolerance:      3,
		AmountTolerance:    AmountToleranceExact,
	}
}

// MatchedTransaction is a statement/ledger pair agreeing on every enabled dimension.
type MatchedTransaction struct {
	StatementID     string    `json:"statement_id"`
	LedgerID        string    `json:"ledger_id"`
	Date            time.Time `json:"date"`
	Description     string    `json:"description"`
	StatementAmount *float64  `json:"statement_amount"`
	LedgerAmount    *float64  `json:"ledger_amount"`
}

// AmountMismatch is a pair that agrees on date and description while the amounts
// differ within tolerance. Difference is statement minus ledger, both unsigned.
type AmountMismatch struct {
	StatementID     string    `json:"statement_id"`
	LedgerID        string    `json:"ledger_id"`
	Date            time.Time `json:"date"`
	Description     string    `json:"description"`
	StatementAmount float64   `json:"statement_amount"`
	LedgerAmount    float64   `json:"ledger_amount"`
	Difference      float64   `json:"difference"`
}

// DateDiscrepancy is a pair that agrees on amount and description while the dates
// are DaysDiff apart, within the configured tolerance.
type DateDiscrepancy struct {
	StatementID   string    `json:"statement_id"`
	LedgerID      string    `json:"ledger_id"`
	Description   string    `json:"description"`
	Amount        *float64  `json:"amount"`
	StatementDate time.Time `json:"statement_date"`
	LedgerDate    time.Time `json:"ledger_date"`
	DaysDiff      int       `json:"days_diff"`
}

// MissingInLedger is a statement transaction without a ledger counterpart.
type MissingInLedger struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      *float64  `json:"amount"`
	Category    string    `json:"category,omitempty"`
}

// MissingInStatement is a ledger entry without a statement counterpart.
type MissingInStatement struct {
	ID          string      `json:"id"`
	Date        time.Time   `json:"date"`
	Description string      `json:"description"`
	Amount      *float64    `json:"amount"`
	Source      LedgerEntry `json:"source"`
}

// DuplicateTransaction reports a (date, amount, description) triple that occurs
// more than once on the ledger side. Fields come from the first occurrence.
type DuplicateTransaction struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      *float64  `json:"amount"`
	Occurrences int       `json:"occurrences"`
}

// ReconciliationResults is the classified output of one engine run.
type ReconciliationResults struct {
	MatchRate          float64                `json:"match_rate"`
	TotalDiscrepancy   float64                `json:"total_discrepancy"`
	Matched            []MatchedTransaction   `json:"matched"`
	AmountMismatches   []AmountMismatch       `json:"amount_mismatches"`
	DateDiscrepancies  []DateDiscrepancy      `json:"date_discrepancies"`
	MissingInLedger    []MissingInLedger      `json:"missing_in_ledger"`
	MissingInStatement []MissingInStatement   `json:"missing_in_statement"`
	Duplicates         []DuplicateTransaction `json:"duplicates"`
}

// NewReconciliationResults returns results with every list initialised, so an empty
// run serialises as empty arrays instead of null.
func NewReconciliationResults() *ReconciliationResults {
	return &ReconciliationResults{
		Matched:            make([]MatchedTransaction, 0),
		AmountMismatches:   make([]AmountMismatch, 0),
		DateDiscrepancies:  make([]DateDiscrepancy, 0),
		MissingInLedger:    make([]MissingInLedger, 0),
		MissingInStatement: make([]MissingInStatement, 0),
		Duplicates:         make([]DuplicateTransaction, 0),
	}
}

// ReconciliationStatus is the lifecycle state of a stored reconciliation.
type ReconciliationStatus string

const (
	ReconciliationStatusDraft     ReconciliationStatus = "draft"
	ReconciliationStatusFinalized ReconciliationStatus = "finalized"
)

// ReconciliationSnapshot is the summary persisted after each run.
type ReconciliationSnapshot struct {
	MatchRate              float64 `json:"match_rate"`
	TotalDiscrepancy       float64 `json:"total_discrepancy"`
	UnreconciledDifference float64 `json:"unreconciled_difference"`
	StatementEndingBalance float64 `json:"statement_ending_balance"`
	LedgerEndingBalance    float64 `json:"ledger_ending_balance"`
	MatchedCount           int     `json:"matched_count"`
	AmountMismatchCount    int     `json:"amount_mismatch_count"`
	DateDiscrepancyCount   int     `json:"date_discrepancy_count"`
	MissingInLedgerCount   int     `json:"missing_in_ledger_count"`
	MissingInStmtCount     int     `json:"missing_in_statement_count"`
	DuplicateCount         int     `json:"duplicate_count"`
}

// Reconciliation is the long-lived record a user reconciles one account period on.
type Reconciliation struct {
	ID          uuid.UUID              `json:"id"`
	UserID      string                 `json:"user_id"`
	AccountID   string                 `json:"account_id"`
	PeriodStart time.Time              `json:"period_start"`
	PeriodEnd   time.Time              `json:"period_end"`
	Status      ReconciliationStatus   `json:"status"`
	Settings    ReconciliationSettings `json:"settings"`
	Snapshot    ReconciliationSnapshot `json:"snapshot"`
	LastRunAt   *time.Time             `json:"last_run_at,omitempty"`
	FinalizedAt *time.Time             `json:"finalized_at,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// IsLocked reports whether the reconciliation can no longer be re-run.
func (r *Reconciliation) IsLocked() bool {
	return r.Status == ReconciliationStatusFinalized
}

// CreateReconciliationParams holds the fields a caller supplies for a new draft.
type CreateReconciliationParams struct {
	AccountID   string                  `json:"account_id"`
	PeriodStart time.Time               `json:"period_start"`
	PeriodEnd   time.Time               `json:"period_end"`
	Settings    *ReconciliationSettings `json:"settings,omitempty"`
}
