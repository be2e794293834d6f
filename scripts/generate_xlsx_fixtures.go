// Command generate_xlsx_fixtures writes sample statement and ledger workbooks
// for trying the reconcile CLI and the import endpoint by hand.
//
//	go run ./scripts/generate_xlsx_fixtures.go -out testdata
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

type fixture struct {
	file        string
	accountInfo [][]any
	headers     []any
	rows        [][]any
}

var fixtures = []fixture{
	{
		file: "hdfc_statement_jan.xlsx",
		accountInfo: [][]any{
			{"Bank Name", "HDFC Bank"},
			{"Account Name", "ACME TECHNOLOGIES PVT LTD"},
			{"Account Number", "XXXXXXXX4821"},
			{"Statement Period", "01/01/2024 - 31/01/2024"},
			{"Currency", "INR"},
		},
		headers: []any{"Date", "Narration", "Chq./Ref.No.", "Value Dt", "Withdrawal Amt.", "Deposit Amt.", "Closing Balance"},
		rows: [][]any{
			{"15/01/2024", "AWS SERVICES", "UPI/123456", "15/01/2024", 3500.00, "", 450000.00},
			{"16/01/2024", "SALARY CREDIT - ACME CORP", "NEFT/789012", "16/01/2024", "", 50000.00, 500000.00},
			{"17/01/2024", "RAZORPAY PAYMENT GATEWAY", "UPI/234567", "17/01/2024", 2500.00, "", 497500.00},
			{"18/01/2024", "GOOGLE ADS MARKETING", "UPI/345678", "18/01/2024", 15000.00, "", 482500.00},
			{"19/01/2024", "SWIGGY TEAM LUNCH", "UPI/456789", "19/01/2024", 850.00, "", 481650.00},
			{"22/01/2024", "DOMAIN RENEWAL - GODADDY", "CC/678901", "22/01/2024", 999.00, "", 480651.00},
			{"23/01/2024", "STRIPE PAYOUT", "NEFT/789123", "23/01/2024", "", 25000.00, 505651.00},
			{"24/01/2024", "CA FEES - TAX FILING", "UPI/890234", "24/01/2024", 5000.00, "", 500651.00},
			{"", "Total", "", "", 27849.00, 75000.00, ""},
		},
	},
	{
		// Ledger export of the same month. Rows differ on purpose so every
		// outcome bucket gets an entry.
		file:    "ledger_jan.xlsx",
		headers: []any{"Date", "Description", "Ref No.", "Debit", "Credit", "Balance"},
		rows: [][]any{
			{"15/01/2024", "AWS services", "JE-1001", 3500.00, "", ""},
			{"16/01/2024", "Salary credit ACME", "JE-1002", "", 50000.00, ""},
			{"17/01/2024", "Razorpay payment gateway", "JE-1003", 2500.50, "", ""},
			{"20/01/2024", "Google Ads marketing", "JE-1004", 15000.00, "", ""},
			{"22/01/2024", "Domain renewal GoDaddy", "JE-1005", 999.00, "", ""},
			{"26/01/2024", "Office rent January", "JE-1006", 25000.00, "", ""},
			{"26/01/2024", "Office rent January", "JE-1007", 25000.00, "", ""},
			{"24/01/2024", "CA fees tax filing", "JE-1008", 5000.00, "", ""},
		},
	},
	{
		file:    "axis_statement_jan.xlsx",
		headers: []any{"Transaction Date", "Particulars", "Cheque No.", "Amount", "Dr/Cr", "Balance"},
		rows: [][]any{
			{"02/01/2024", "ZOHO SUBSCRIPTION", "", 1800.00, "Dr", 98200.00},
			{"03/01/2024", "CLIENT PAYMENT INV-204", "NEFT/556677", 42000.00, "Cr", 140200.00},
			{"05/01/2024", "BANK CHARGES", "", 118.00, "Dr", 140082.00},
		},
	},
}

func main() {
	outDir := flag.String("out", "testdata", "Directory the workbooks are written to")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal(err)
	}

	for _, fx := range fixtures {
		path := filepath.Join(*outDir, fx.file)
		if err := writeWorkbook(path, fx); err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		fmt.Println("✓ Generated", path)
	}
}

func writeWorkbook(path string, fx fixture) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Transactions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	if len(fx.accountInfo) > 0 {
		if _, err := f.NewSheet("Account Info"); err != nil {
			return err
		}
		for i, row := range fx.accountInfo {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetSheetRow("Account Info", cell, &row); err != nil {
				return err
			}
		}
	}

	if err := f.SetSheetRow(sheet, "A1", &fx.headers); err != nil {
		return err
	}
	for i, row := range fx.rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}
