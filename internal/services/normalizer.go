package services

import (
	"math"
	"strings"

	"github.com/ashmitsharp/cashlens-recon/internal/models"
)

// NormalizeLedgerEntries normalizes every ledger entry, preserving order.
func NormalizeLedgerEntries(entries []models.LedgerEntry) []models.NormalizedTransaction {
	normalized := make([]models.NormalizedTransaction, 0, len(entries))
	for _, e := range entries {
		normalized = append(normalized, NormalizeLedgerEntry(e))
	}
	return normalized
}

// NormalizeLedgerEntry resolves the description (name, then reference, memo and
// counterparty), the date (entry date, then date) and makes the amount unsigned.
func NormalizeLedgerEntry(e models.LedgerEntry) models.NormalizedTransaction {
	n := models.NormalizedTransaction{
		ID:          e.ID,
		Date:        e.EntryDate,
		Description: firstNonEmpty(e.Name, e.Reference, e.Memo, e.Counterparty),
		Source:      e,
	}
	if n.Date.IsZero() {
		n.Date = e.Date
	}
	if e.Amount != nil {
		n.Amount = models.Float(math.Abs(*e.Amount))
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
