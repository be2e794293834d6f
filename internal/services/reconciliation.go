package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ashmitsharp/cashlens-recon/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrReconciliationNotFound  = errors.New("reconciliation not found")
	ErrReconciliationFinalized = errors.New("reconciliation is finalized")
	ErrReconciliationNotRun    = errors.New("reconciliation has not been run")
	ErrInvalidPeriod           = errors.New("period start must not be after period end")
	ErrInvalidAccount          = errors.New("account_id is required")
)

// ReconciliationStore persists reconciliation records and serves the transactions
// a run works on.
//
//go:generate mockgen -destination=mocks/mock_store.go -source=reconciliation.go ReconciliationStore
type ReconciliationStore interface {
	CreateReconciliation(ctx context.Context, rec *models.Reconciliation) error
	GetReconciliation(ctx context.Context, id uuid.UUID) (*models.Reconciliation, error)
	ListStatementTransactions(ctx context.Context, userID, accountID string, start, end time.Time) ([]models.BankTransaction, error)
	ListLedgerEntries(ctx context.Context, userID, accountID string, start, end time.Time) ([]models.LedgerEntry, error)
	SaveSnapshot(ctx context.Context, id uuid.UUID, settings models.ReconciliationSettings, snapshot models.ReconciliationSnapshot, ranAt time.Time) error
	FinalizeReconciliation(ctx context.Context, id uuid.UUID, finalizedAt time.Time) error
}

// RunOutcome is what a reconciliation run hands back to the caller.
type RunOutcome struct {
	Reconciliation *models.Reconciliation        `json:"reconciliation"`
	Results        *models.ReconciliationResults `json:"results"`
}

// ReconciliationService manages the draft -> finalized lifecycle of reconciliations
// and feeds stored transactions through Reconcile.
type ReconciliationService struct {
	store    ReconciliationStore
	defaults models.ReconciliationSettings
	log      zerolog.Logger
	now      func() time.Time
}

// NewReconciliationService creates a service. defaults are applied to drafts created
// without explicit settings.
func NewReconciliationService(store ReconciliationStore, defaults models.ReconciliationSettings, log zerolog.Logger) *ReconciliationService {
	return &ReconciliationService{
		store:    store,
		defaults: defaults,
		log:      log.With().Str("component", "reconciliation_service").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// DefaultSettings returns the settings used when a caller supplies none.
func (s *ReconciliationService) DefaultSettings() models.ReconciliationSettings {
	return s.defaults
}

// Create stores a new draft reconciliation for the user.
func (s *ReconciliationService) Create(ctx context.Context, userID string, params models.CreateReconciliationParams) (*models.Reconciliation, error) {
	if strings.TrimSpace(params.AccountID) == "" {
		return nil, ErrInvalidAccount
	}
	if params.PeriodStart.IsZero() || params.PeriodEnd.IsZero() || params.PeriodStart.After(params.PeriodEnd) {
		return nil, ErrInvalidPeriod
	}

	settings := s.defaults
	if params.Settings != nil {
		settings = *params.Settings
	}

	now := s.now()
	rec := &models.Reconciliation{
		ID:          uuid.New(),
		UserID:      userID,
		AccountID:   params.AccountID,
		PeriodStart: params.PeriodStart,
		PeriodEnd:   params.PeriodEnd,
		Status:      models.ReconciliationStatusDraft,
		Settings:    settings,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateReconciliation(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create reconciliation: %w", err)
	}

	s.log.Info().
		Str("reconciliation_id", rec.ID.String()).
		Str("account_id", rec.AccountID).
		Msg("reconciliation created")
	return rec, nil
}

// Get returns the reconciliation if it exists and belongs to userID.
func (s *ReconciliationService) Get(ctx context.Context, userID string, id uuid.UUID) (*models.Reconciliation, error) {
	rec, err := s.store.GetReconciliation(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.UserID != userID {
		return nil, ErrReconciliationNotFound
	}
	return rec, nil
}

// Run reconciles the stored statement transactions and ledger entries of the
// reconciliation's account and period, then persists the snapshot. A nil
// override runs with the settings stored on the record.
func (s *ReconciliationService) Run(ctx context.Context, userID string, id uuid.UUID, override *models.ReconciliationSettings) (*RunOutcome, error) {
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if rec.IsLocked() {
		return nil, ErrReconciliationFinalized
	}

	settings := rec.Settings
	if override != nil {
		settings = *override
	}

	statement, err := s.store.ListStatementTransactions(ctx, userID, rec.AccountID, rec.PeriodStart, rec.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("could not get statement transactions: %w", err)
	}
	ledger, err := s.store.ListLedgerEntries(ctx, userID, rec.AccountID, rec.PeriodStart, rec.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("could not get ledger entries: %w", err)
	}

	started := time.Now()
	results := Reconcile(statement, ledger, settings)
	snapshot := BuildSnapshot(statement, ledger, results)

	ranAt := s.now()
	if err := s.store.SaveSnapshot(ctx, rec.ID, settings, snapshot, ranAt); err != nil {
		return nil, fmt.Errorf("failed to save reconciliation snapshot: %w", err)
	}

	rec.Settings = settings
	rec.Snapshot = snapshot
	rec.LastRunAt = &ranAt
	rec.UpdatedAt = ranAt

	s.log.Info().
		Str("reconciliation_id", rec.ID.String()).
		Int("statement_count", len(statement)).
		Int("ledger_count", len(ledger)).
		Float64("match_rate", snapshot.MatchRate).
		Float64("unreconciled_difference", snapshot.UnreconciledDifference).
		Dur("duration", time.Since(started)).
		Msg("reconciliation run completed")

	return &RunOutcome{Reconciliation: rec, Results: results}, nil
}

// Finalize locks a reconciliation that has been run at least once.
func (s *ReconciliationService) Finalize(ctx context.Context, userID string, id uuid.UUID) (*models.Reconciliation, error) {
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if rec.IsLocked() {
		return nil, ErrReconciliationFinalized
	}
	if rec.LastRunAt == nil {
		return nil, ErrReconciliationNotRun
	}

	at := s.now()
	if err := s.store.FinalizeReconciliation(ctx, rec.ID, at); err != nil {
		return nil, fmt.Errorf("failed to finalize reconciliation: %w", err)
	}

	rec.Status = models.ReconciliationStatusFinalized
	rec.FinalizedAt = &at
	rec.UpdatedAt = at

	s.log.Info().Str("reconciliation_id", rec.ID.String()).Msg("reconciliation finalized")
	return rec, nil
}

// BuildSnapshot summarises a run for persistence. Ending balances are the sums of
// signed amounts on each side; records without an amount are skipped.
func BuildSnapshot(statement []models.BankTransaction, ledger []models.LedgerEntry, results *models.ReconciliationResults) models.ReconciliationSnapshot {
	statementBalance := decimal.Zero
	for _, t := range statement {
		if d, ok := toDecimal(t.Amount); ok {
			statementBalance = statementBalance.Add(d)
		}
	}
	ledgerBalance := decimal.Zero
	for _, e := range ledger {
		if d, ok := toDecimal(e.Amount); ok {
			ledgerBalance = ledgerBalance.Add(d)
		}
	}

	return models.ReconciliationSnapshot{
		MatchRate:              results.MatchRate,
		TotalDiscrepancy:       results.TotalDiscrepancy,
		UnreconciledDifference: statementBalance.Sub(ledgerBalance).Round(2).InexactFloat64(),
		StatementEndingBalance: statementBalance.Round(2).InexactFloat64(),
		LedgerEndingBalance:    ledgerBalance.Round(2).InexactFloat64(),
		MatchedCount:           len(results.Matched),
		AmountMismatchCount:    len(results.AmountMismatches),
		DateDiscrepancyCount:   len(results.DateDiscrepancies),
		MissingInLedgerCount:   len(results.MissingInLedger),
		MissingInStmtCount:     len(results.MissingInStatement),
		DuplicateCount:         len(results.Duplicates),
	}
}
