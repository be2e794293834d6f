// Command reconcile matches a bank statement file against a ledger export and
// prints the classified results as JSON.
//
//	reconcile -statement hdfc-jan.csv -ledger books-jan.xlsx -date-tolerance 5
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashmitsharp/cashlens-recon/internal/logger"
	"github.com/ashmitsharp/cashlens-recon/internal/models"
	"github.com/ashmitsharp/cashlens-recon/internal/services"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "reconcile: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	defaults := models.DefaultSettings()

	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.SetOutput(stderr)
	statementFile := fs.String("statement", "", "Path to the bank statement CSV or XLSX file (required)")
	ledgerFile := fs.String("ledger", "", "Path to the ledger export CSV or XLSX file (required)")
	startStr := fs.String("start", "", "Only reconcile rows on or after this date (YYYY-MM-DD)")
	endStr := fs.String("end", "", "Only reconcile rows on or before this date (YYYY-MM-DD)")
	monthFirst := fs.Bool("month-first", false, "Read ambiguous dates such as 03/04/2024 as month first")
	matchAmount := fs.Bool("match-amount", defaults.MatchByAmount, "Require amounts to agree")
	matchDate := fs.Bool("match-date", defaults.MatchByDate, "Require dates to agree")
	matchDescription := fs.Bool("match-description", defaults.MatchByDescription, "Require descriptions to agree")
	dateTolerance := fs.Int("date-tolerance", defaults.DateTolerance, "Days two dates may differ and still pair up")
	amountTolerance := fs.String("amount-tolerance", string(defaults.AmountTolerance), "Amount tolerance: exact, cents or percent")
	logLevel := fs.String("log-level", "warn", "Log level for skipped rows and progress")

	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *statementFile == "" || *ledgerFile == "" {
		fmt.Fprintln(stderr, "Error: -statement and -ledger are required.")
		fs.Usage()
		return errUsage
	}

	start, end, err := parsePeriod(*startStr, *endStr)
	if err != nil {
		return err
	}

	log := logger.NewWithWriter(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}, *logLevel)

	opts := []services.ParserOption{services.WithLogger(log)}
	if *monthFirst {
		opts = append(opts, services.WithMonthFirstDates())
	}
	parser := services.NewParser(opts...)

	statementRows, err := parseFile(parser, log, *statementFile)
	if err != nil {
		return err
	}
	ledgerRows, err := parseFile(parser, log, *ledgerFile)
	if err != nil {
		return err
	}

	statement := services.ToBankTransactions(filterPeriod(statementRows, start, end))
	ledger := services.ToLedgerEntries(filterPeriod(ledgerRows, start, end))

	settings := models.ReconciliationSettings{
		MatchByAmount:      *matchAmount,
		MatchByDate:        *matchDate,
		MatchByDescription: *matchDescription,
		DateTolerance:      *dateTolerance,
		AmountTolerance:    models.AmountTolerance(*amountTolerance),
	}
	results := services.Reconcile(statement, ledger, settings)

	log.Info().
		Int("statement_count", len(statement)).
		Int("ledger_count", len(ledger)).
		Float64("match_rate", results.MatchRate).
		Msg("reconciliation complete")

	output, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	_, err = fmt.Fprintln(stdout, string(output))
	return err
}

func parseFile(parser *services.Parser, log zerolog.Logger, path string) ([]models.ParsedTransaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stmt, err := parser.ParseStatement(f, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug().
		Str("file", path).
		Int("rows", len(stmt.Transactions)).
		Str("bank", stmt.Info.BankCode).
		Str("currency", stmt.Info.Currency).
		Msg("file parsed")
	return stmt.Transactions, nil
}

func parsePeriod(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if startStr != "" {
		if start, err = time.Parse("2006-01-02", startStr); err != nil {
			return start, end, fmt.Errorf("invalid -start: %w", err)
		}
	}
	if endStr != "" {
		if end, err = time.Parse("2006-01-02", endStr); err != nil {
			return start, end, fmt.Errorf("invalid -end: %w", err)
		}
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return start, end, errors.New("-start must not be after -end")
	}
	return start, end, nil
}

// filterPeriod keeps rows inside [start, end]; a zero bound is open.
func filterPeriod(rows []models.ParsedTransaction, start, end time.Time) []models.ParsedTransaction {
	if start.IsZero() && end.IsZero() {
		return rows
	}
	kept := make([]models.ParsedTransaction, 0, len(rows))
	for _, r := range rows {
		if !start.IsZero() && r.TxnDate.Before(start) {
			continue
		}
		if !end.IsZero() && r.TxnDate.After(end) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}
