package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/cashlens-recon/internal/middleware"
	"github.com/ashmitsharp/cashlens-recon/internal/models"
	"github.com/ashmitsharp/cashlens-recon/internal/services"
	"github.com/ashmitsharp/cashlens-recon/internal/utils"
)

// TransactionLister reads imported rows back for one account and period
type TransactionLister interface {
	PageStatementTransactions(ctx context.Context, userID, accountID string, start, end time.Time, limit, offset int) ([]models.BankTransaction, int, error)
	PageLedgerEntries(ctx context.Context, userID, accountID string, start, end time.Time, limit, offset int) ([]models.LedgerEntry, int, error)
}

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// TransactionHandler lets clients review what was imported before running a reconciliation
type TransactionHandler struct {
	lister TransactionLister
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(lister TransactionLister) *TransactionHandler {
	return &TransactionHandler{lister: lister}
}

// GetTransactions returns one side of an account's imported rows, a page at a time
// GET /v1/accounts/:account_id/transactions?side=statement|ledger&from=2024-01-01&to=2024-01-31&page=1&page_size=50
func (h *TransactionHandler) GetTransactions(c fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return utils.NewUnauthorizedError("unauthorized - user_id not found")
	}

	accountID := strings.TrimSpace(c.Params("account_id"))
	if accountID == "" {
		return utils.NewBadRequestError("account_id is required", nil)
	}

	side := c.Query("side", SideStatement)
	if side != SideStatement && side != SideLedger {
		return utils.NewBadRequestError("side must be statement or ledger", side)
	}

	from, err := services.ParseDate(c.Query("from"))
	if err != nil {
		return utils.NewBadRequestError("invalid from date", c.Query("from"))
	}
	to, err := services.ParseDate(c.Query("to"))
	if err != nil {
		return utils.NewBadRequestError("invalid to date", c.Query("to"))
	}
	if from.After(to) {
		return utils.NewBadRequestError("from must not be after to", nil)
	}

	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.Query("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	offset := (page - 1) * pageSize

	var rows any
	var total int
	if side == SideStatement {
		rows, total, err = h.lister.PageStatementTransactions(c.Context(), userID, accountID, from, to, pageSize, offset)
	} else {
		rows, total, err = h.lister.PageLedgerEntries(c.Context(), userID, accountID, from, to, pageSize, offset)
	}
	if err != nil {
		return err
	}

	return utils.PaginatedResponse(c, fiber.Map{
		"side":         side,
		"account_id":   accountID,
		"transactions": rows,
	}, page, pageSize, total)
}
