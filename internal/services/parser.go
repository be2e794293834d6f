package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ashmitsharp/cashlens-recon/internal/models"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	bankUnknown = "UNKNOWN"
	bankGeneric = "GENERIC"

	// headerScanRows bounds how far down a sheet the header row is searched for.
	headerScanRows = 20

	accountInfoSheet = "Account Info"
)

var (
	ErrEmptyFile         = errors.New("empty file")
	ErrUnknownFormat     = errors.New("unknown statement format")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Parser reads bank statements and ledger exports in CSV or XLSX form
type Parser struct {
	bankSchemas map[string]models.BankSchema
	monthFirst  bool
	log         zerolog.Logger
}

// ParserOption configures a Parser
type ParserOption func(*Parser)

// WithMonthFirstDates makes ambiguous dates such as 03/04/2024 parse as March 4th.
// US statements use this layout; the default is day first.
func WithMonthFirstDates() ParserOption {
	return func(p *Parser) {
		p.monthFirst = true
	}
}

// WithLogger sets the logger used to report skipped rows
func WithLogger(log zerolog.Logger) ParserOption {
	return func(p *Parser) {
		p.log = log
	}
}

// NewParser creates a new parser instance with predefined bank schemas
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		bankSchemas: map[string]models.BankSchema{
			"HDFC": {
				BankName:           "HDFC",
				DateColumn:         "Date",
				DescriptionColumn:  "Narration",
				ReferenceColumn:    "Chq./Ref.No.",
				DebitColumn:        "Withdrawal Amt.",
				CreditColumn:       "Deposit Amt.",
				HasSeparateAmounts: true,
			},
			"ICICI": {
				BankName:           "ICICI",
				DateColumn:         "Transaction Date",
				DescriptionColumn:  "Transaction Remarks",
				ReferenceColumn:    "Cheque Number",
				DebitColumn:        "Withdrawal Amount (INR)",
				CreditColumn:       "Deposit Amount (INR)",
				HasSeparateAmounts: true,
			},
			"SBI": {
				BankName:           "SBI",
				DateColumn:         "Txn Date",
				DescriptionColumn:  "Description",
				ReferenceColumn:    "Ref No./Cheque No.",
				DebitColumn:        "Debit",
				CreditColumn:       "Credit",
				HasSeparateAmounts: true,
			},
			"Axis": {
				BankName:          "Axis",
				DateColumn:        "Transaction Date",
				DescriptionColumn: "Particulars",
				ReferenceColumn:   "Cheque No.",
				AmountColumn:      "Amount",
				DrCrColumn:        "Dr/Cr",
			},
			"Kotak": {
				BankName:           "Kotak",
				DateColumn:         "Date",
				DescriptionColumn:  "Description",
				ReferenceColumn:    "Ref No.",
				DebitColumn:        "Debit",
				CreditColumn:       "Credit",
				HasSeparateAmounts: true,
			},
		},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DetectBank detects the bank from header names
func DetectBank(headers []string) string {
	headerSet := make(map[string]bool)
	for _, h := range headers {
		headerSet[strings.ToLower(strings.TrimSpace(h))] = true
	}

	switch {
	case headerSet["narration"] && headerSet["withdrawal amt."]:
		return "HDFC"
	case headerSet["transaction remarks"] && headerSet["withdrawal amount (inr)"]:
		return "ICICI"
	case headerSet["txn date"] && headerSet["description"]:
		return "SBI"
	case headerSet["particulars"] && headerSet["dr/cr"]:
		return "Axis"
	// Kotak is the most generic, check last
	case headerSet["date"] && headerSet["debit"] && headerSet["credit"] && headerSet["description"]:
		return "Kotak"
	}

	return bankUnknown
}

// columnMap holds zero-based column positions; -1 means the column is absent.
type columnMap struct {
	date        int
	description int
	reference   int
	debit       int
	credit      int
	amount      int
	txnType     int
}

func newColumnMap() columnMap {
	return columnMap{date: -1, description: -1, reference: -1, debit: -1, credit: -1, amount: -1, txnType: -1}
}

func (m columnMap) hasAmount() bool {
	return m.amount >= 0 || m.debit >= 0 || m.credit >= 0
}

var headerKeywords = []string{"date", "amount", "description", "particular", "narration", "debit", "credit", "balance", "type", "reference"}

// detectColumns finds the header row among the first rows and returns its index,
// the bank it belongs to and the column positions.
func (p *Parser) detectColumns(rows [][]string) (int, string, columnMap, error) {
	limit := min(len(rows), headerScanRows)

	for i := 0; i < limit; i++ {
		bank := DetectBank(rows[i])
		if bank == bankUnknown {
			continue
		}
		cols, err := schemaColumns(rows[i], p.bankSchemas[bank])
		if err != nil {
			return 0, "", columnMap{}, err
		}
		return i, bank, cols, nil
	}

	for i := 0; i < limit; i++ {
		cols, found := genericColumns(rows[i])
		if found >= 3 && cols.date >= 0 && cols.hasAmount() {
			return i, bankGeneric, cols, nil
		}
	}

	return 0, "", columnMap{}, ErrUnknownFormat
}

func schemaColumns(headers []string, schema models.BankSchema) (columnMap, error) {
	index := make(map[string]int)
	for i, h := range headers {
		index[strings.TrimSpace(h)] = i
	}
	lookup := func(name string) int {
		if name == "" {
			return -1
		}
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}

	cols := newColumnMap()
	cols.date = lookup(schema.DateColumn)
	cols.description = lookup(schema.DescriptionColumn)
	cols.reference = lookup(schema.ReferenceColumn)
	if schema.HasSeparateAmounts {
		cols.debit = lookup(schema.DebitColumn)
		cols.credit = lookup(schema.CreditColumn)
	} else {
		cols.amount = lookup(schema.AmountColumn)
		cols.txnType = lookup(schema.DrCrColumn)
	}

	if cols.date < 0 {
		return cols, fmt.Errorf("date column '%s' not found", schema.DateColumn)
	}
	if cols.description < 0 {
		return cols, fmt.Errorf("description column '%s' not found", schema.DescriptionColumn)
	}
	return cols, nil
}

// genericColumns maps a candidate header row by keyword and reports how many cells
// looked like headers.
func genericColumns(row []string) (columnMap, int) {
	cols := newColumnMap()
	found := 0
	for i, cell := range row {
		h := strings.ToLower(strings.TrimSpace(cell))
		if h == "" || !containsAny(h, headerKeywords) {
			continue
		}
		found++

		switch {
		case strings.Contains(h, "date"):
			if cols.date < 0 {
				cols.date = i
			}
		case strings.Contains(h, "description"), strings.Contains(h, "particular"), strings.Contains(h, "narration"):
			cols.description = i
		case strings.Contains(h, "type"):
			cols.txnType = i
		case strings.Contains(h, "reference"), strings.Contains(h, "ref"):
			cols.reference = i
		case strings.Contains(h, "debit"):
			cols.debit = i
		case strings.Contains(h, "credit"):
			cols.credit = i
		case strings.Contains(h, "amount"):
			cols.amount = i
		}
	}
	return cols, found
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// ParseDate parses a date using day-first layouts for ambiguous numeric dates
func ParseDate(dateStr string) (time.Time, error) {
	return parseDate(dateStr, false)
}

func parseDate(dateStr string, monthFirst bool) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)

	if t, ok := parseSlashDate(dateStr, monthFirst); ok {
		return t, nil
	}

	dateFormats := []string{
		"2006-01-02",   // YYYY-MM-DD (ISO)
		"02-Jan-2006",  // DD-MMM-YYYY (SBI)
		"02-01-2006",   // DD-MM-YYYY
		"02/01/06",     // DD/MM/YY
		"Jan 02, 2006", // MMM DD, YYYY
		"2006-01-02T15:04:05Z07:00",
	}
	if monthFirst {
		dateFormats[3] = "01/02/06"
	}

	for _, format := range dateFormats {
		t, err := time.Parse(format, dateStr)
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// parseSlashDate handles a/b/yyyy. A component above 12 must be the day; otherwise
// the layout preference decides.
func parseSlashDate(s string, monthFirst bool) (time.Time, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 || len(parts[2]) != 4 {
		return time.Time{}, false
	}
	first, err1 := strconv.Atoi(parts[0])
	second, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}

	d, m := first, second
	switch {
	case first > 12:
	case second > 12:
		d, m = second, first
	case monthFirst:
		d, m = second, first
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false // e.g. 31/02
	}
	return t, true
}

// ParseAmount parses amount strings, handling currency symbols and commas
func ParseAmount(amountStr string) (float64, error) {
	cleaned := amountStr
	for _, symbol := range []string{"₹", "Rs.", "Rs", "AED", "USD", "$", ","} {
		cleaned = strings.ReplaceAll(cleaned, symbol, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" || cleaned == "-" {
		return 0, nil
	}

	// Accounting negatives: (1,200.00)
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + strings.Trim(cleaned, "()")
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount: %s", amountStr)
	}
	return amount, nil
}

// ParseFile parses a statement or ledger file, choosing the reader by extension
func (p *Parser) ParseFile(file io.Reader, filename string) ([]models.ParsedTransaction, error) {
	stmt, err := p.ParseStatement(file, filename)
	if err != nil {
		return nil, err
	}
	return stmt.Transactions, nil
}

// ParseStatement parses a file like ParseFile and also returns the account
// metadata found in it: the bank, its currency and the account holder.
func (p *Parser) ParseStatement(file io.Reader, filename string) (*models.ParsedStatement, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return p.parseCSV(file)
	case ".xlsx":
		return p.parseXLSX(file)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ParseCSV parses a CSV file and returns a list of transactions
func (p *Parser) ParseCSV(file io.Reader) ([]models.ParsedTransaction, error) {
	stmt, err := p.parseCSV(file)
	if err != nil {
		return nil, err
	}
	return stmt.Transactions, nil
}

// ParseXLSX parses every transaction sheet of a workbook
func (p *Parser) ParseXLSX(file io.Reader) ([]models.ParsedTransaction, error) {
	stmt, err := p.parseXLSX(file)
	if err != nil {
		return nil, err
	}
	return stmt.Transactions, nil
}

func (p *Parser) parseCSV(file io.Reader) (*models.ParsedStatement, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	sheet, err := p.parseRows(rows, "csv")
	if err != nil {
		return nil, err
	}
	stmt := &models.ParsedStatement{Transactions: sheet.transactions}
	p.completeInfo(&stmt.Info, sheet)
	return stmt, nil
}

// parseXLSX parses every transaction sheet of a workbook. A sheet called
// "Account Info" carries statement metadata and is read for that only.
func (p *Parser) parseXLSX(file io.Reader) (*models.ParsedStatement, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	stmt := &models.ParsedStatement{}
	var sheets []parsedSheet
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}

		if strings.EqualFold(sheet, accountInfoSheet) {
			mergeInfo(&stmt.Info, extractStatementInfo(rows))
			continue
		}

		parsed, err := p.parseRows(rows, sheet)
		if errors.Is(err, ErrUnknownFormat) {
			p.log.Warn().Str("sheet", sheet).Msg("no transaction header found, skipping sheet")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		sheets = append(sheets, parsed)
		stmt.Transactions = append(stmt.Transactions, parsed.transactions...)
	}

	if len(sheets) == 0 {
		return nil, ErrUnknownFormat
	}
	// The Account Info sheet wins over what the transaction sheets imply
	for _, sheet := range sheets {
		p.completeInfo(&stmt.Info, sheet)
	}
	return stmt, nil
}

// completeInfo fills metadata gaps from the rows above a sheet's header, then
// from the bank its header layout identified.
func (p *Parser) completeInfo(info *models.StatementInfo, sheet parsedSheet) {
	mergeInfo(info, extractStatementInfo(sheet.preamble))
	if bank, ok := schemaBanks[sheet.bank]; ok {
		mergeInfo(info, bank.info())
	}
}

// parsedSheet is the outcome of parsing one table of rows
type parsedSheet struct {
	transactions []models.ParsedTransaction
	bank         string
	preamble     [][]string
}

func (p *Parser) parseRows(rows [][]string, source string) (parsedSheet, error) {
	headerRow, bank, cols, err := p.detectColumns(rows)
	if err != nil {
		return parsedSheet{}, err
	}

	p.log.Debug().
		Str("source", source).
		Str("bank", bank).
		Int("header_row", headerRow+1).
		Msg("statement header detected")

	var transactions []models.ParsedTransaction
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]

		if isEmptyRow(row) || isSummaryRow(row) {
			continue
		}

		txn, err := p.parseRow(row, cols)
		if err != nil {
			p.log.Warn().Err(err).Str("source", source).Int("row", i+1).Msg("skipping row")
			continue
		}

		transactions = append(transactions, txn)
	}

	return parsedSheet{transactions: transactions, bank: bank, preamble: rows[:headerRow]}, nil
}

// parseRow parses a single row into a ParsedTransaction
func (p *Parser) parseRow(row []string, cols columnMap) (models.ParsedTransaction, error) {
	var txn models.ParsedTransaction

	date, err := parseDate(cell(row, cols.date), p.monthFirst)
	if err != nil {
		return txn, fmt.Errorf("failed to parse date: %w", err)
	}
	txn.TxnDate = date
	txn.Description = strings.TrimSpace(cell(row, cols.description))
	txn.Reference = strings.TrimSpace(cell(row, cols.reference))

	switch {
	case cols.amount >= 0:
		amount, err := ParseAmount(cell(row, cols.amount))
		if err != nil {
			return txn, fmt.Errorf("failed to parse amount: %w", err)
		}
		txn.Amount = amount
	default:
		debit, _ := ParseAmount(cell(row, cols.debit))
		credit, _ := ParseAmount(cell(row, cols.credit))
		if debit != 0 {
			txn.Amount = -abs64(debit)
		} else {
			txn.Amount = abs64(credit)
		}
	}

	// A type or Dr/Cr column overrides the sign
	if cols.txnType >= 0 {
		switch strings.ToLower(strings.TrimSpace(cell(row, cols.txnType))) {
		case "withdrawal", "debit", "dr", "debit card purchase":
			txn.Amount = -abs64(txn.Amount)
		case "deposit", "credit", "cr":
			txn.Amount = abs64(txn.Amount)
		}
	}

	if txn.Amount == 0 {
		return txn, fmt.Errorf("amount is zero")
	}
	if txn.Amount < 0 {
		txn.TxnType = "debit"
	} else {
		txn.TxnType = "credit"
	}

	// Store raw data for debugging
	txn.RawData = strings.Join(row, ",")

	return txn, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func abs64(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// isEmptyRow checks if all fields in a row are empty
func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// isSummaryRow checks if a row is a summary row
func isSummaryRow(row []string) bool {
	if len(row) == 0 {
		return false
	}

	firstField := strings.ToLower(strings.TrimSpace(row[0]))
	summaryKeywords := []string{"total", "summary", "opening balance", "closing balance", "net flow"}

	for _, keyword := range summaryKeywords {
		if strings.Contains(firstField, keyword) {
			return true
		}
	}

	return false
}

// ToBankTransactions converts parsed rows into statement-side records. Ids are
// positional within the file.
func ToBankTransactions(parsed []models.ParsedTransaction) []models.BankTransaction {
	txns := make([]models.BankTransaction, 0, len(parsed))
	for i, p := range parsed {
		txns = append(txns, models.BankTransaction{
			ID:          fmt.Sprintf("stmt-%d", i+1),
			Date:        p.TxnDate,
			Description: p.Description,
			Amount:      models.Float(p.Amount),
		})
	}
	return txns
}

// ToLedgerEntries converts parsed rows into ledger-side records.
func ToLedgerEntries(parsed []models.ParsedTransaction) []models.LedgerEntry {
	entries := make([]models.LedgerEntry, 0, len(parsed))
	for i, p := range parsed {
		entries = append(entries, models.LedgerEntry{
			ID:        fmt.Sprintf("ledger-%d", i+1),
			EntryDate: p.TxnDate,
			Name:      p.Description,
			Reference: p.Reference,
			Amount:    models.Float(p.Amount),
		})
	}
	return entries
}
