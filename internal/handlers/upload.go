package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/cashlens-recon/internal/database"
	"github.com/ashmitsharp/cashlens-recon/internal/logger"
	"github.com/ashmitsharp/cashlens-recon/internal/middleware"
	"github.com/ashmitsharp/cashlens-recon/internal/models"
	"github.com/ashmitsharp/cashlens-recon/internal/services"
	"github.com/ashmitsharp/cashlens-recon/internal/utils"
)

const (
	// PresignedURLExpiry is how long an upload URL stays valid
	PresignedURLExpiry = 15 * time.Minute

	SideStatement = "statement"
	SideLedger    = "ledger"
)

// StorageService interface defines methods for S3 operations
type StorageService interface {
	GenerateUploadKey(userID, filename string) (string, error)
	GeneratePresignedURL(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
}

// Parser interface defines methods for parsing statement and ledger files
type Parser interface {
	ParseStatement(file io.Reader, filename string) (*models.ParsedStatement, error)
}

// FileValidator checks uploads before they are parsed
type FileValidator interface {
	ValidateFilename(filename string) error
	ValidateMimeType(contentType string) error
	ValidateFile(reader io.Reader, filename, contentType string) (*services.ValidationResult, error)
	MaxSizeBytes() int64
}

// TransactionImporter stores parsed rows on one side of the reconciliation
type TransactionImporter interface {
	InsertStatementTransactions(ctx context.Context, src database.ImportSource, txns []models.ParsedTransaction) (int64, error)
	InsertLedgerEntries(ctx context.Context, src database.ImportSource, txns []models.ParsedTransaction) (int64, error)
}

// UploadHandler handles statement and ledger file uploads
type UploadHandler struct {
	storage   StorageService
	parser    Parser
	validator FileValidator
	importer  TransactionImporter
}

func NewUploadHandler(storage StorageService, parser Parser, validator FileValidator, importer TransactionImporter) *UploadHandler {
	return &UploadHandler{
		storage:   storage,
		parser:    parser,
		validator: validator,
		importer:  importer,
	}
}

// GetPresignedURL generates a presigned URL for file upload
// Query params: filename (required), content_type (required)
// Returns: upload_url, file_key, expires_in, max_size_bytes
func (h *UploadHandler) GetPresignedURL(c fiber.Ctx) error {
	filename := c.Query("filename")
	contentType := c.Query("content_type")

	if filename == "" {
		return utils.NewBadRequestError("filename is required", nil)
	}
	if contentType == "" {
		return utils.NewBadRequestError("content_type is required", nil)
	}
	if err := h.validator.ValidateFilename(filename); err != nil {
		return utils.NewBadRequestError("unsupported file", err.Error())
	}
	if err := h.validator.ValidateMimeType(contentType); err != nil {
		return utils.NewBadRequestError("unsupported file type", err.Error())
	}

	userID := middleware.UserID(c)
	if userID == "" {
		return utils.NewUnauthorizedError("unauthorized - user_id not found")
	}

	key, err := h.storage.GenerateUploadKey(userID, filename)
	if err != nil {
		return err
	}

	url, err := h.storage.GeneratePresignedURL(c.Context(), key, contentType, PresignedURLExpiry)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"upload_url":     url,
		"file_key":       key,
		"expires_in":     int(PresignedURLExpiry.Seconds()),
		"max_size_bytes": h.validator.MaxSizeBytes(),
	})
}

// ImportRequest represents the request body for ImportUpload
type ImportRequest struct {
	FileKey   string `json:"file_key"`
	AccountID string `json:"account_id"`
	Side      string `json:"side"`
}

// ImportUpload downloads an uploaded file, validates and parses it, and stores
// its rows as statement transactions or ledger entries of the account.
// POST /v1/uploads/import
// Body: {"file_key": "statements/user_123/1699564800-ab12cd34-jan.csv", "account_id": "hdfc-current", "side": "statement"}
func (h *UploadHandler) ImportUpload(c fiber.Ctx) error {
	var req ImportRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", err.Error())
	}

	if req.FileKey == "" {
		return utils.NewBadRequestError("file_key is required", nil)
	}
	if strings.TrimSpace(req.AccountID) == "" {
		return utils.NewBadRequestError("account_id is required", nil)
	}
	if req.Side != SideStatement && req.Side != SideLedger {
		return utils.NewBadRequestError("side must be statement or ledger", req.Side)
	}

	userID := middleware.UserID(c)
	if userID == "" {
		return utils.NewUnauthorizedError("unauthorized - user_id not found")
	}
	if !services.KeyBelongsTo(req.FileKey, userID) {
		return utils.NewForbiddenError("forbidden - cannot access this file")
	}

	ctx := c.Context()
	log := logger.FromContext(ctx).With().Str("file_key", req.FileKey).Str("side", req.Side).Logger()

	reader, err := h.storage.DownloadFile(ctx, req.FileKey)
	if err != nil {
		log.Warn().Err(err).Msg("download failed")
		return utils.NewNotFoundError("file")
	}
	defer reader.Close()

	filename := filepath.Base(req.FileKey)
	validation, err := h.validator.ValidateFile(reader, filename, "")
	if err != nil {
		return err
	}
	if !validation.Valid {
		return utils.NewBadRequestError("invalid file", validation.Errors)
	}

	stmt, err := h.parser.ParseStatement(bytes.NewReader(validation.Data), filename)
	if err != nil {
		msg := "failed to parse file"
		if errors.Is(err, services.ErrUnknownFormat) {
			msg = "no transaction table found in file"
		}
		return utils.NewBadRequestError(msg, err.Error())
	}
	transactions := stmt.Transactions
	if len(transactions) == 0 {
		return utils.NewBadRequestError("file contains no transactions", nil)
	}

	src := database.ImportSource{UserID: userID, AccountID: req.AccountID, FileKey: req.FileKey}
	var imported int64
	if req.Side == SideStatement {
		imported, err = h.importer.InsertStatementTransactions(ctx, src, transactions)
	} else {
		imported, err = h.importer.InsertLedgerEntries(ctx, src, transactions)
	}
	if err != nil {
		return err
	}

	log.Info().
		Int64("imported", imported).
		Str("account_id", req.AccountID).
		Str("bank", stmt.Info.BankCode).
		Str("currency", stmt.Info.Currency).
		Msg("file imported")

	return c.JSON(buildImportSummary(req, validation.DetectedType, stmt, imported))
}

func buildImportSummary(req ImportRequest, fileType string, stmt *models.ParsedStatement, imported int64) fiber.Map {
	transactions := stmt.Transactions
	var credits, debits int
	for _, txn := range transactions {
		if txn.Amount > 0 {
			credits++
		} else {
			debits++
		}
	}

	return fiber.Map{
		"file_key":              req.FileKey,
		"account_id":            req.AccountID,
		"side":                  req.Side,
		"file_type":             fileType,
		"transactions_parsed":   len(transactions),
		"transactions_imported": imported,
		"credits":               credits,
		"debits":                debits,
		"date_range":            calculateDateRange(transactions),
		"statement_info":        stmt.Info,
		"status":                "success",
	}
}

// calculateDateRange finds the earliest and latest transaction dates
func calculateDateRange(transactions []models.ParsedTransaction) fiber.Map {
	var minDate, maxDate time.Time

	if len(transactions) > 0 {
		minDate = transactions[0].TxnDate
		maxDate = transactions[0].TxnDate

		for _, txn := range transactions {
			if txn.TxnDate.Before(minDate) {
				minDate = txn.TxnDate
			}
			if txn.TxnDate.After(maxDate) {
				maxDate = txn.TxnDate
			}
		}
	}

	return fiber.Map{
		"from": minDate.Format("2006-01-02"),
		"to":   maxDate.Format("2006-01-02"),
	}
}
