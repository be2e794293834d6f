package services

import (
	"regexp"
	"strings"

	"github.com/ashmitsharp/cashlens-recon/internal/models"
)

type bankProfile struct {
	name     string
	code     string
	country  string
	currency string
}

// knownBanks is matched in order against lower-cased cell text, so longer names
// come before the abbreviations they contain.
var knownBanks = []struct {
	match   string
	profile bankProfile
}{
	{"abu dhabi commercial bank", bankProfile{"Abu Dhabi Commercial Bank", "ADCB", "UAE", "AED"}},
	{"abu dhabi islamic bank", bankProfile{"Abu Dhabi Islamic Bank", "ADIB", "UAE", "AED"}},
	{"first abu dhabi bank", bankProfile{"First Abu Dhabi Bank", "FAB", "UAE", "AED"}},
	{"commercial bank of dubai", bankProfile{"Commercial Bank of Dubai", "CBD", "UAE", "AED"}},
	{"emirates nbd", bankProfile{"Emirates NBD", "ENBD", "UAE", "AED"}},
	{"mashreq", bankProfile{"Mashreq Bank", "MASHREQ", "UAE", "AED"}},
	{"hsbc middle east", bankProfile{"HSBC Middle East", "HSBC", "UAE", "AED"}},
	{"hsbc uae", bankProfile{"HSBC UAE", "HSBC", "UAE", "AED"}},
	{"hsbc uk", bankProfile{"HSBC UK", "HSBC", "UK", "GBP"}},
	{"bank of america", bankProfile{"Bank of America", "BOA", "USA", "USD"}},
	{"chase bank", bankProfile{"Chase Bank", "CHASE", "USA", "USD"}},
	{"wells fargo", bankProfile{"Wells Fargo", "WF", "USA", "USD"}},
	{"citibank", bankProfile{"Citibank", "CITI", "USA", "USD"}},
	{"barclays", bankProfile{"Barclays", "BARCLAYS", "UK", "GBP"}},
	{"lloyds", bankProfile{"Lloyds", "LLOYDS", "UK", "GBP"}},
	{"deutsche bank", bankProfile{"Deutsche Bank", "DB", "Germany", "EUR"}},
	{"bnp paribas", bankProfile{"BNP Paribas", "BNP", "France", "EUR"}},
	{"ing bank", bankProfile{"ING Bank", "ING", "Netherlands", "EUR"}},
	{"state bank of india", bankProfile{"State Bank of India", "SBI", "India", "INR"}},
	{"hdfc bank", bankProfile{"HDFC Bank", "HDFC", "India", "INR"}},
	{"icici bank", bankProfile{"ICICI Bank", "ICICI", "India", "INR"}},
	{"axis bank", bankProfile{"Axis Bank", "AXIS", "India", "INR"}},
	{"kotak mahindra", bankProfile{"Kotak Mahindra Bank", "KOTAK", "India", "INR"}},
}

// schemaBanks maps a header-detected schema to its bank when the file names none.
// Kotak is left out: its header is the generic Date/Description/Debit/Credit
// layout most ledger exports share.
var schemaBanks = map[string]bankProfile{
	"HDFC":  {"HDFC Bank", "HDFC", "India", "INR"},
	"ICICI": {"ICICI Bank", "ICICI", "India", "INR"},
	"SBI":   {"State Bank of India", "SBI", "India", "INR"},
	"Axis":  {"Axis Bank", "AXIS", "India", "INR"},
}

var (
	accountNumberPattern = regexp.MustCompile(`^\d{10,16}$`)
	currencyPattern      = regexp.MustCompile(`^[A-Z]{3}$`)
)

// infoScanColumns bounds how many cells per row are inspected for metadata
const infoScanColumns = 10

// DetectBankInfo finds a known bank name in free text
func DetectBankInfo(text string) (models.StatementInfo, bool) {
	lower := strings.ToLower(text)
	for _, b := range knownBanks {
		if strings.Contains(lower, b.match) {
			return b.profile.info(), true
		}
	}
	return models.StatementInfo{}, false
}

func (b bankProfile) info() models.StatementInfo {
	return models.StatementInfo{BankName: b.name, BankCode: b.code, Country: b.country, Currency: b.currency}
}

// extractStatementInfo reads account metadata from the first rows of a sheet.
// Two-column "label, value" rows are read by label; any cell naming a known
// bank sets the bank and its currency.
func extractStatementInfo(rows [][]string) models.StatementInfo {
	var info models.StatementInfo

	for _, row := range rows[:min(len(rows), headerScanRows)] {
		for i, raw := range row[:min(len(row), infoScanColumns)] {
			value := strings.TrimSpace(raw)
			if value == "" {
				continue
			}

			if info.BankCode == "" {
				if bank, ok := DetectBankInfo(value); ok {
					info.BankName, info.BankCode, info.Country = bank.BankName, bank.BankCode, bank.Country
					if info.Currency == "" {
						info.Currency = bank.Currency
					}
				}
			}
			if info.AccountNumber == "" {
				if masked, ok := maskAccountNumber(value); ok {
					info.AccountNumber = masked
				}
			}

			if i+1 >= len(row) {
				continue
			}
			next := strings.TrimSpace(row[i+1])
			switch label := strings.ToLower(strings.TrimSuffix(value, ":")); {
			case label == "currency":
				if c := strings.ToUpper(next); currencyPattern.MatchString(c) {
					info.Currency = c
				}
			case label == "account name" || label == "account holder" || label == "customer name":
				if next != "" {
					info.AccountHolder = next
				}
			case strings.HasPrefix(label, "bank") && info.BankName == "" && next != "":
				info.BankName = next
			}
		}
	}
	return info
}

// maskAccountNumber keeps the first and last four digits of a 10 to 16 digit
// account number. Masked values such as XXXXXXXX4821 are returned unchanged.
func maskAccountNumber(value string) (string, bool) {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(value)
	if accountNumberPattern.MatchString(digits) {
		return digits[:4] + "-****-" + digits[len(digits)-4:], true
	}
	upper := strings.ToUpper(digits)
	if len(upper) >= 10 && len(upper) <= 16 && strings.HasPrefix(upper, "XXXX") && isDigits(upper[len(upper)-4:]) {
		return upper, true
	}
	return "", false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// mergeInfo fills empty fields of dst from src
func mergeInfo(dst *models.StatementInfo, src models.StatementInfo) {
	fill := func(d *string, s string) {
		if *d == "" {
			*d = s
		}
	}
	fill(&dst.BankName, src.BankName)
	fill(&dst.BankCode, src.BankCode)
	fill(&dst.Country, src.Country)
	fill(&dst.Currency, src.Currency)
	fill(&dst.AccountHolder, src.AccountHolder)
	fill(&dst.AccountNumber, src.AccountNumber)
}
