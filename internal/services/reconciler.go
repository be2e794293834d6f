package services

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ashmitsharp/cashlens-recon/internal/models"
	"github.com/shopspring/decimal"
)

// missingDateDistance is the day distance reported when either side has no date.
// It is larger than any tolerance a user can reasonably configure.
const missingDateDistance = 999

var (
	oneCent    = decimal.New(1, -2)
	onePercent = decimal.New(1, -2)
	hundred    = decimal.NewFromInt(100)
)

// predicate is the outcome of comparing one dimension of a candidate pair.
type predicate struct {
	exact bool
	close bool
}

var satisfied = predicate{exact: true, close: true}

// Reconcile classifies statement transactions against ledger entries.
//
// Each statement transaction is compared with the not-yet-consumed ledger entries in
// input order and pairs with the first one that qualifies as a match, an amount
// mismatch or a date discrepancy. The scan is first-fit, not a maximum matching, and
// costs O(len(statement) * len(ledger)). Leftovers on either side become residuals.
// Duplicates are detected over the ledger side independently of matching.
//
// Reconcile does not modify its inputs and returns the same result for the same
// arguments.
func Reconcile(statement []models.BankTransaction, ledger []models.LedgerEntry, settings models.ReconciliationSettings) *models.ReconciliationResults {
	results := models.NewReconciliationResults()
	normalized := NormalizeLedgerEntries(ledger)

	// Consumption is tracked by position so repeated or empty ids cannot collide.
	ledgerUsed := make([]bool, len(normalized))
	totalDiscrepancy := decimal.Zero

	for _, stmt := range statement {
		consumed := false

		for j := range normalized {
			if ledgerUsed[j] {
				continue
			}
			entry := normalized[j]

			amount, diff := compareAmounts(stmt.Amount, entry.Amount, settings)
			date, days := compareDates(stmt.Date, entry.Date, settings)
			descriptionOK := !settings.MatchByDescription || DescriptionsMatch(stmt.Description, entry.Description)
			if !descriptionOK {
				continue
			}

			switch {
			case amount.exact && date.exact:
				results.Matched = append(results.Matched, models.MatchedTransaction{
					StatementID:     stmt.ID,
					LedgerID:        entry.ID,
					Date:            stmt.Date,
					Description:     stmt.Description,
					StatementAmount: stmt.Amount,
					LedgerAmount:    entry.Amount,
				})
			case !amount.exact && amount.close && date.exact:
				results.AmountMismatches = append(results.AmountMismatches, models.AmountMismatch{
					StatementID:     stmt.ID,
					LedgerID:        entry.ID,
					Date:            stmt.Date,
					Description:     stmt.Description,
					StatementAmount: *stmt.Amount,
					LedgerAmount:    *entry.Amount,
					Difference:      diff.InexactFloat64(),
				})
				totalDiscrepancy = totalDiscrepancy.Add(diff.Abs())
			case amount.exact && !date.exact && date.close:
				results.DateDiscrepancies = append(results.DateDiscrepancies, models.DateDiscrepancy{
					StatementID:   stmt.ID,
					LedgerID:      entry.ID,
					Description:   stmt.Description,
					Amount:        entry.Amount,
					StatementDate: stmt.Date,
					LedgerDate:    entry.Date,
					DaysDiff:      days,
				})
			default:
				continue
			}

			ledgerUsed[j] = true
			consumed = true
			break
		}

		if !consumed {
			results.MissingInLedger = append(results.MissingInLedger, models.MissingInLedger{
				ID:          stmt.ID,
				Date:        stmt.Date,
				Description: stmt.Description,
				Amount:      stmt.Amount,
				Category:    stmt.Category,
			})
		}
	}

	for j, entry := range normalized {
		if ledgerUsed[j] {
			continue
		}
		results.MissingInStatement = append(results.MissingInStatement, models.MissingInStatement{
			ID:          entry.ID,
			Date:        entry.Date,
			Description: entry.Description,
			Amount:      entry.Amount,
			Source:      entry.Source,
		})
	}

	results.Duplicates = FindDuplicates(normalized)
	results.MatchRate = MatchRate(len(results.Matched), len(statement))
	results.TotalDiscrepancy = totalDiscrepancy.Round(2).InexactFloat64()

	return results
}

// MatchRate returns matched as a percentage of total, rounded to one decimal.
func MatchRate(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(matched)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(total))).
		Round(1).
		InexactFloat64()
}

// compareAmounts compares the unsigned statement amount with the (already unsigned)
// ledger amount. The returned difference is statement minus ledger.
func compareAmounts(stmt, ledger *float64, settings models.ReconciliationSettings) (predicate, decimal.Decimal) {
	if !settings.MatchByAmount {
		return satisfied, decimal.Zero
	}
	s, ok := toDecimal(stmt)
	if !ok {
		return predicate{}, decimal.Zero
	}
	l, ok := toDecimal(ledger)
	if !ok {
		return predicate{}, decimal.Zero
	}
	s = s.Abs()
	l = l.Abs()

	diff := s.Sub(l)
	absDiff := diff.Abs()
	if absDiff.IsZero() {
		return satisfied, diff
	}

	var near bool
	switch settings.AmountTolerance {
	case models.AmountToleranceCents:
		near = absDiff.LessThanOrEqual(oneCent)
	case models.AmountTolerancePercent:
		if s.IsPositive() {
			near = absDiff.Div(s).LessThanOrEqual(onePercent)
		}
	}
	return predicate{close: near}, diff
}

// compareDates compares calendar dates. A zero time on either side counts as a
// missing date and never satisfies the predicate.
func compareDates(stmt, ledger time.Time, settings models.ReconciliationSettings) (predicate, int) {
	if !settings.MatchByDate {
		return satisfied, 0
	}
	if stmt.IsZero() || ledger.IsZero() {
		return predicate{}, missingDateDistance
	}

	days := DaysBetween(stmt, ledger)
	if days == 0 {
		return satisfied, 0
	}
	return predicate{close: days <= settings.DateTolerance}, days
}

// DaysBetween returns the absolute number of calendar days between a and b, taking
// each date in its own location and ignoring the time of day.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(math.Round(da.Sub(db).Hours() / 24))
	if days < 0 {
		return -days
	}
	return days
}

// DescriptionsMatch reports whether two free-text descriptions plausibly describe the
// same transaction. Comparison is case-insensitive on trimmed text: equal strings,
// one containing the other, or at least half of the longer side's significant words
// (more than two characters) overlapping a word on the other side. The longer side
// is the one with more significant words, not more characters; on a tie it is a.
func DescriptionsMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	longer, other := significantWords(a), significantWords(b)
	if len(other) > len(longer) {
		longer, other = other, longer
	}
	if len(longer) == 0 {
		return false
	}

	overlapping := 0
	for _, w := range longer {
		for _, o := range other {
			if strings.Contains(w, o) || strings.Contains(o, w) {
				overlapping++
				break
			}
		}
	}
	return overlapping*2 >= len(longer)
}

func significantWords(s string) []string {
	fields := strings.Fields(s)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 2 {
			words = append(words, f)
		}
	}
	return words
}

// FindDuplicates groups normalized ledger transactions by date, amount (two
// decimals) and lower-cased description, returning one entry per group with more
// than one member. Groups are returned in order of first appearance.
func FindDuplicates(entries []models.NormalizedTransaction) []models.DuplicateTransaction {
	type group struct {
		first models.NormalizedTransaction
		count int
	}

	groups := make(map[string]*group)
	order := make([]string, 0)
	for _, e := range entries {
		key := duplicateKey(e)
		g, ok := groups[key]
		if !ok {
			groups[key] = &group{first: e, count: 1}
			order = append(order, key)
			continue
		}
		g.count++
	}

	duplicates := make([]models.DuplicateTransaction, 0)
	for _, key := range order {
		g := groups[key]
		if g.count < 2 {
			continue
		}
		duplicates = append(duplicates, models.DuplicateTransaction{
			ID:          g.first.ID,
			Date:        g.first.Date,
			Description: g.first.Description,
			Amount:      g.first.Amount,
			Occurrences: g.count,
		})
	}
	return duplicates
}

func duplicateKey(e models.NormalizedTransaction) string {
	date := ""
	if !e.Date.IsZero() {
		date = e.Date.Format(time.DateOnly)
	}
	amount := ""
	if d, ok := toDecimal(e.Amount); ok {
		amount = d.StringFixed(2)
	}
	return fmt.Sprintf("%s|%s|%s", date, amount, strings.ToLower(strings.TrimSpace(e.Description)))
}

// toDecimal converts an optional amount. NaN and infinities count as missing.
func toDecimal(v *float64) (decimal.Decimal, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(*v), true
}
