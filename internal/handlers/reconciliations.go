package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/ashmitsharp/cashlens-recon/internal/logger"
	"github.com/ashmitsharp/cashlens-recon/internal/middleware"
	"github.com/ashmitsharp/cashlens-recon/internal/models"
	"github.com/ashmitsharp/cashlens-recon/internal/services"
	"github.com/ashmitsharp/cashlens-recon/internal/utils"
)

// ReconciliationService manages stored reconciliations
type ReconciliationService interface {
	DefaultSettings() models.ReconciliationSettings
	Create(ctx context.Context, userID string, params models.CreateReconciliationParams) (*models.Reconciliation, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*models.Reconciliation, error)
	Run(ctx context.Context, userID string, id uuid.UUID, override *models.ReconciliationSettings) (*services.RunOutcome, error)
	Finalize(ctx context.Context, userID string, id uuid.UUID) (*models.Reconciliation, error)
}

// ReconciliationHandler serves the reconcile endpoint and the reconciliation lifecycle
type ReconciliationHandler struct {
	service ReconciliationService
}

func NewReconciliationHandler(service ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{service: service}
}

// StatementTransactionInput is a statement record as posted by clients. Dates may
// be ISO dates or any format the statement parser understands.
type StatementTransactionInput struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Amount      *float64 `json:"amount"`
	Category    string   `json:"category"`
}

// LedgerEntryInput is a ledger record as posted by clients
type LedgerEntryInput struct {
	ID           string   `json:"id"`
	EntryDate    string   `json:"entry_date"`
	Date         string   `json:"date"`
	Name         string   `json:"name"`
	Reference    string   `json:"reference"`
	Memo         string   `json:"memo"`
	Counterparty string   `json:"counterparty"`
	Amount       *float64 `json:"amount"`
}

// ReconcileRequest is the body of POST /v1/reconcile
type ReconcileRequest struct {
	StatementTransactions []StatementTransactionInput    `json:"statement_transactions"`
	LedgerEntries         []LedgerEntryInput             `json:"ledger_entries"`
	Settings              *models.ReconciliationSettings `json:"settings"`
}

// CreateReconciliationRequest is the body of POST /v1/reconciliations
type CreateReconciliationRequest struct {
	AccountID   string                         `json:"account_id"`
	PeriodStart string                         `json:"period_start"`
	PeriodEnd   string                         `json:"period_end"`
	Settings    *models.ReconciliationSettings `json:"settings"`
}

// RunReconciliationRequest is the optional body of POST /v1/reconciliations/:id/run
type RunReconciliationRequest struct {
	Settings *models.ReconciliationSettings `json:"settings"`
}

// Reconcile matches the posted statement transactions against the posted ledger
// entries without storing anything.
// POST /v1/reconcile
func (h *ReconciliationHandler) Reconcile(c fiber.Ctx) error {
	var req ReconcileRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", err.Error())
	}

	settings := h.service.DefaultSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}

	statement := make([]models.BankTransaction, 0, len(req.StatementTransactions))
	for _, in := range req.StatementTransactions {
		statement = append(statement, models.BankTransaction{
			ID:          in.ID,
			Date:        parseOptionalDate(in.Date),
			Description: in.Description,
			Amount:      in.Amount,
			Category:    in.Category,
		})
	}
	ledger := make([]models.LedgerEntry, 0, len(req.LedgerEntries))
	for _, in := range req.LedgerEntries {
		ledger = append(ledger, models.LedgerEntry{
			ID:           in.ID,
			EntryDate:    parseOptionalDate(in.EntryDate),
			Date:         parseOptionalDate(in.Date),
			Name:         in.Name,
			Reference:    in.Reference,
			Memo:         in.Memo,
			Counterparty: in.Counterparty,
			Amount:       in.Amount,
		})
	}

	started := time.Now()
	results := services.Reconcile(statement, ledger, settings)

	log := logger.FromContext(c.Context())
	log.Debug().
		Int("statement_count", len(statement)).
		Int("ledger_count", len(ledger)).
		Int("matched", len(results.Matched)).
		Dur("duration", time.Since(started)).
		Msg("stateless reconciliation")

	return c.JSON(results)
}

// CreateReconciliation creates a draft reconciliation for an account and period
// POST /v1/reconciliations
func (h *ReconciliationHandler) CreateReconciliation(c fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return utils.NewUnauthorizedError("unauthorized - user_id not found")
	}

	var req CreateReconciliationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", err.Error())
	}

	start, err := services.ParseDate(req.PeriodStart)
	if err != nil {
		return utils.NewBadRequestError("invalid period_start", req.PeriodStart)
	}
	end, err := services.ParseDate(req.PeriodEnd)
	if err != nil {
		return utils.NewBadRequestError("invalid period_end", req.PeriodEnd)
	}

	rec, err := h.service.Create(c.Context(), userID, models.CreateReconciliationParams{
		AccountID:   req.AccountID,
		PeriodStart: start,
		PeriodEnd:   end,
		Settings:    req.Settings,
	})
	if err != nil {
		return reconciliationError(err)
	}
	return utils.CreatedResponse(c, rec)
}

// GetReconciliation returns a reconciliation with its last snapshot
// GET /v1/reconciliations/:id
func (h *ReconciliationHandler) GetReconciliation(c fiber.Ctx) error {
	userID, id, err := reconciliationTarget(c)
	if err != nil {
		return err
	}

	rec, err := h.service.Get(c.Context(), userID, id)
	if err != nil {
		return reconciliationError(err)
	}
	return utils.SuccessResponse(c, rec)
}

// RunReconciliation reconciles the stored transactions of a draft. Settings in
// the body replace the ones stored on the draft.
// POST /v1/reconciliations/:id/run
func (h *ReconciliationHandler) RunReconciliation(c fiber.Ctx) error {
	userID, id, err := reconciliationTarget(c)
	if err != nil {
		return err
	}

	var req RunReconciliationRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return utils.NewBadRequestError("invalid request body", err.Error())
		}
	}

	outcome, err := h.service.Run(c.Context(), userID, id, req.Settings)
	if err != nil {
		return reconciliationError(err)
	}
	return utils.SuccessResponse(c, outcome)
}

// FinalizeReconciliation locks a reconciliation against further runs
// POST /v1/reconciliations/:id/finalize
func (h *ReconciliationHandler) FinalizeReconciliation(c fiber.Ctx) error {
	userID, id, err := reconciliationTarget(c)
	if err != nil {
		return err
	}

	rec, err := h.service.Finalize(c.Context(), userID, id)
	if err != nil {
		return reconciliationError(err)
	}
	return utils.SuccessResponse(c, rec)
}

func reconciliationTarget(c fiber.Ctx) (string, uuid.UUID, error) {
	userID := middleware.UserID(c)
	if userID == "" {
		return "", uuid.Nil, utils.NewUnauthorizedError("unauthorized - user_id not found")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return "", uuid.Nil, utils.NewBadRequestError("invalid reconciliation id", c.Params("id"))
	}
	return userID, id, nil
}

// reconciliationError maps service errors to API errors; anything else is internal.
func reconciliationError(err error) error {
	switch {
	case errors.Is(err, services.ErrReconciliationNotFound):
		return utils.NewNotFoundError("reconciliation")
	case errors.Is(err, services.ErrReconciliationFinalized), errors.Is(err, services.ErrReconciliationNotRun):
		return utils.NewConflictError(err.Error())
	case errors.Is(err, services.ErrInvalidAccount), errors.Is(err, services.ErrInvalidPeriod):
		return utils.NewBadRequestError(err.Error(), nil)
	}
	return err
}

// parseOptionalDate returns the zero time for empty or unparseable input, which
// the engine treats as a missing date.
func parseOptionalDate(s string) time.Time {
	if strings.TrimSpace(s) == "" {
		return time.Time{}
	}
	t, err := services.ParseDate(s)
	if err != nil {
		return time.Time{}
	}
	return t
}
