package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ashmitsharp/cashlens-recon/internal/models"
)

func TestDetectBank(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    string
	}{
		{"HDFC", []string{"Date", "Narration", "Chq./Ref.No.", "Value Dt", "Withdrawal Amt.", "Deposit Amt.", "Closing Balance"}, "HDFC"},
		{"ICICI", []string{"Value Date", "Transaction Date", "Cheque Number", "Transaction Remarks", "Withdrawal Amount (INR)", "Deposit Amount (INR)", "Balance (INR)"}, "ICICI"},
		{"SBI", []string{"Txn Date", "Description", "Ref No./Cheque No.", "Value Date", "Debit", "Credit", "Balance"}, "SBI"},
		{"Axis", []string{"Transaction Date", "Particulars", "Cheque No.", "Dr/Cr", "Amount", "Balance"}, "Axis"},
		{"Kotak", []string{"Date", "Description", "Ref No.", "Debit", "Credit", "Balance"}, "Kotak"},
		{"unknown", []string{"Random", "Headers", "That", "Dont", "Match"}, "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectBank(tt.headers))
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"15/01/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"03/04/2024", time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC)},
		{"04/13/2024", time.Date(2024, 4, 13, 0, 0, 0, 0, time.UTC)},
		{"15-Jan-2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"15-01-2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"Jan 15, 2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseDate_MonthFirst(t *testing.T) {
	got, err := parseDate("03/04/2024", true)
	require.NoError(t, err)
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 4, got.Day())

	// A day above 12 is unambiguous either way
	got, err = parseDate("25/04/2024", true)
	require.NoError(t, err)
	assert.Equal(t, time.April, got.Month())
	assert.Equal(t, 25, got.Day())
}

func TestParseDate_Invalid(t *testing.T) {
	for _, input := range []string{"invalid-date", "31/02/2024", ""} {
		_, err := ParseDate(input)
		assert.Error(t, err, input)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"3500.00", 3500},
		{"1,25,000.50", 125000.50},
		{"₹ 1,200.00", 1200},
		{"Rs. 450", 450},
		{"$99.99", 99.99},
		{"-250.75", -250.75},
		{"(1,200.00)", -1200},
		{"", 0},
		{"-", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}

	_, err := ParseAmount("abc")
	assert.Error(t, err)
}

func TestParseCSV_HDFC(t *testing.T) {
	csvData := `Date,Narration,Chq./Ref.No.,Value Dt,Withdrawal Amt.,Deposit Amt.,Closing Balance
01/01/2024,NEFT-AWS SERVICES,NEFT001,01/01/2024,3500.00,,96500.00
02/01/2024,SALARY CREDIT,SAL0001,02/01/2024,,50000.00,146500.00
,,,,,,
Total,,,,3500.00,50000.00,
`
	parser := NewParser()
	txns, err := parser.ParseCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, "NEFT-AWS SERVICES", txns[0].Description)
	assert.Equal(t, "NEFT001", txns[0].Reference)
	assert.Equal(t, -3500.0, txns[0].Amount)
	assert.Equal(t, "debit", txns[0].TxnType)
	assert.Equal(t, time.January, txns[0].TxnDate.Month())
	assert.Equal(t, 1, txns[0].TxnDate.Day())

	assert.Equal(t, 50000.0, txns[1].Amount)
	assert.Equal(t, "credit", txns[1].TxnType)
}

func TestParseCSV_AxisDrCr(t *testing.T) {
	csvData := `Transaction Date,Particulars,Cheque No.,Dr/Cr,Amount,Balance
05-01-2024,UPI/SWIGGY,,DR,450.00,1000.00
06-01-2024,IMPS/CLIENT,,CR,"1,200.00",2200.00
`
	txns, err := NewParser().ParseCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, -450.0, txns[0].Amount)
	assert.Equal(t, 1200.0, txns[1].Amount)
}

func TestParseCSV_GenericHeaderBelowPreamble(t *testing.T) {
	csvData := `Acme Corp Ledger Export
Generated 2024-02-01

Posting Date,Details Description,Reference,Type,Amount
2024-01-10,Stripe payout,REF-1,Deposit,980.00
2024-01-11,Office rent,REF-2,Withdrawal,1500.00
2024-01-12,Zero adjustment,REF-3,Deposit,0
`
	txns, err := NewParser().ParseCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, txns, 2, "zero amount row is skipped")

	assert.Equal(t, "Stripe payout", txns[0].Description)
	assert.Equal(t, "REF-1", txns[0].Reference)
	assert.Equal(t, 980.0, txns[0].Amount)
	assert.Equal(t, -1500.0, txns[1].Amount)
}

func TestParseCSV_SkipsUnparseableRows(t *testing.T) {
	csvData := `Date,Description,Ref No.,Debit,Credit,Balance
not-a-date,BROKEN ROW,,10.00,,
15/01/2024,GOOD ROW,,10.00,,
`
	txns, err := NewParser().ParseCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "GOOD ROW", txns[0].Description)
}

func TestParseCSV_Errors(t *testing.T) {
	_, err := NewParser().ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = NewParser().ParseCSV(strings.NewReader("foo,bar\n1,2\n"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func buildWorkbook(t *testing.T, sheets map[string][][]interface{}, order []string) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cellRef, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(name, cellRef, &values))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseStatement_AccountInfoSheet(t *testing.T) {
	buf := buildWorkbook(t, map[string][][]interface{}{
		"Account Info": {
			{"Bank Name", "Emirates NBD"},
			{"Account Name", "Acme Trading LLC"},
			{"Account Number", "1234567890123456"},
			{"Currency", "AED"},
			{"Date", "Amount", "Description"},
		},
		"Transactions": {
			{"Date", "Description", "Ref No.", "Debit", "Credit", "Balance"},
			{"10/01/2024", "AWS", "R1", "120.50", "", "1000"},
			{"11/01/2024", "Client payment", "R2", "", "900", "1900"},
		},
	}, []string{"Transactions", "Account Info"})

	stmt, err := NewParser().ParseStatement(buf, "jan.xlsx")
	require.NoError(t, err)

	require.Len(t, stmt.Transactions, 2, "account info rows are not transactions")
	assert.Equal(t, "AWS", stmt.Transactions[0].Description)
	assert.Equal(t, -120.50, stmt.Transactions[0].Amount)
	assert.Equal(t, 900.0, stmt.Transactions[1].Amount)

	assert.Equal(t, models.StatementInfo{
		BankName:      "Emirates NBD",
		BankCode:      "ENBD",
		Country:       "UAE",
		Currency:      "AED",
		AccountHolder: "Acme Trading LLC",
		AccountNumber: "1234-****-3456",
	}, stmt.Info)
}

func TestParseStatement_InfoFromSchemaAndPreamble(t *testing.T) {
	t.Run("hdfc header without metadata", func(t *testing.T) {
		csvData := `Date,Narration,Chq./Ref.No.,Value Dt,Withdrawal Amt.,Deposit Amt.,Closing Balance
01/01/2024,NEFT-AWS SERVICES,NEFT001,01/01/2024,3500.00,,96500.00
`
		stmt, err := NewParser().ParseStatement(strings.NewReader(csvData), "hdfc.csv")
		require.NoError(t, err)
		assert.Equal(t, "HDFC", stmt.Info.BankCode)
		assert.Equal(t, "INR", stmt.Info.Currency)
	})

	t.Run("preamble names the bank", func(t *testing.T) {
		csvData := `Barclays Business Current Account
Currency,GBP

Date,Description,Ref No.,Debit,Credit,Balance
15/01/2024,OFFICE RENT,,1500.00,,
`
		stmt, err := NewParser().ParseStatement(strings.NewReader(csvData), "barclays.csv")
		require.NoError(t, err)
		require.Len(t, stmt.Transactions, 1)
		assert.Equal(t, "BARCLAYS", stmt.Info.BankCode)
		assert.Equal(t, "GBP", stmt.Info.Currency)
	})

	t.Run("generic ledger export stays unlabelled", func(t *testing.T) {
		csvData := `Date,Description,Ref No.,Debit,Credit,Balance
15/01/2024,OFFICE RENT,,1500.00,,
`
		stmt, err := NewParser().ParseStatement(strings.NewReader(csvData), "ledger.csv")
		require.NoError(t, err)
		assert.Equal(t, models.StatementInfo{}, stmt.Info)
	})
}

func TestParseXLSX_NoTransactionSheet(t *testing.T) {
	buf := buildWorkbook(t, map[string][][]interface{}{
		"Notes": {{"nothing", "here"}},
	}, []string{"Notes"})

	_, err := NewParser().ParseXLSX(buf)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseXLSX_InvalidWorkbook(t *testing.T) {
	_, err := NewParser().ParseXLSX(strings.NewReader("not a zip"))
	assert.Error(t, err)
}

func TestParseFile_DispatchesOnExtension(t *testing.T) {
	csvData := "Date,Description,Ref No.,Debit,Credit,Balance\n15/01/2024,ROW,,10.00,,\n"

	txns, err := NewParser().ParseFile(strings.NewReader(csvData), "statement.CSV")
	require.NoError(t, err)
	assert.Len(t, txns, 1)

	_, err = NewParser().ParseFile(strings.NewReader(csvData), "statement.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParser_MonthFirstOption(t *testing.T) {
	csvData := "Date,Description,Ref No.,Debit,Credit,Balance\n03/04/2024,ROW,,10.00,,\n"

	txns, err := NewParser(WithMonthFirstDates()).ParseCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, time.March, txns[0].TxnDate.Month())
}

func TestToBankTransactionsAndLedgerEntries(t *testing.T) {
	csvData := "Date,Description,Ref No.,Debit,Credit,Balance\n15/01/2024,Vendor,INV-9,10.00,,\n16/01/2024,Client,,,25.00,\n"
	parsed, err := NewParser().ParseCSV(strings.NewReader(csvData))
	require.NoError(t, err)

	stmt := ToBankTransactions(parsed)
	require.Len(t, stmt, 2)
	assert.Equal(t, "stmt-1", stmt[0].ID)
	require.NotNil(t, stmt[0].Amount)
	assert.Equal(t, -10.0, *stmt[0].Amount)

	ledger := ToLedgerEntries(parsed)
	require.Len(t, ledger, 2)
	assert.Equal(t, "ledger-2", ledger[1].ID)
	assert.Equal(t, "INV-9", ledger[0].Reference)
	assert.Equal(t, "Vendor", ledger[0].Name)

	// Round trip through the engine: identical files reconcile completely
	results := Reconcile(stmt, ledger, exactSettings())
	assert.Len(t, results.Matched, 2)
}
