package allabolag

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/shopspring/decimal"
)

// rowLabelFields maps Swedish statement row labels to canonical fields.
// Matching is by substring on the lowercased label, longest keys first.
var rowLabelFields = map[string]financial.Field{
	"nettoomsättning":                    financial.FieldRevenue,
	"omsättning":                         financial.FieldRevenue,
	"rörelsens intäkter":                 financial.FieldRevenue,
	"kostnad för sålda varor":            financial.FieldCostOfGoodsSold,
	"varukostnad":                        financial.FieldCostOfGoodsSold,
	"rörelseresultat":                    financial.FieldEBIT,
	"avskrivningar":                      financial.FieldDepreciation,
	"resultat efter finansiella poster":  financial.FieldProfitBeforeTax,
	"årets resultat":                     financial.FieldNetProfit,
	"periodens resultat":                 financial.FieldNetProfit,
	"årets skatt":                        financial.FieldTaxExpense,
	"balansomslutning":                   financial.FieldTotalAssets,
	"summa tillgångar":                   financial.FieldTotalAssets,
	"omsättningstillgångar":              financial.FieldCurrentAssets,
	"anläggningstillgångar":              financial.FieldFixedAssets,
	"eget kapital":                       financial.FieldEquity,
	"kortfristiga skulder":               financial.FieldCurrentLiabilities,
	"långfristiga skulder":               financial.FieldLongTermLiabilities,
	"summa skulder":                      financial.FieldTotalLiabilities,
	"kassaflöde från den löpande":        financial.FieldOperatingCashFlow,
}

// matchOrder returns label keys longest first so the most specific
// label wins ("nettoomsättning" before "omsättning").
func matchOrder() []string {
	keys := make([]string, 0, len(rowLabelFields))
	for k := range rowLabelFields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	return keys
}

// maxStatementYears limits scraping to the most recent published years.
const maxStatementYears = 5

var (
	yearPattern    = regexp.MustCompile(`^(19|20)\d{2}`)
	numericPattern = regexp.MustCompile(`[-+]?\d*[.,]?\d+`)
	digitsOnly     = regexp.MustCompile(`\D`)
)

// parseFinancialValue parses amounts in Swedish presentation format,
// e.g. "1 234 567 kr", "1,5 Mkr", "2 350 tkr". Returns nil for dashes
// and empty cells.
func parseFinancialValue(raw string) *decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "-" {
		return nil
	}

	lower := strings.ToLower(trimmed)
	multiplier := decimal.NewFromInt(1)
	switch {
	case strings.Contains(lower, "mkr") || strings.Contains(lower, "miljoner"):
		multiplier = decimal.NewFromInt(1_000_000)
	case strings.Contains(lower, "tkr") || strings.Contains(lower, "tusen"):
		multiplier = decimal.NewFromInt(1_000)
	}

	// Strip grouping spaces (including non-breaking) and unit text,
	// then normalize the decimal comma.
	clean := strings.NewReplacer(" ", "", "\u00a0", "", "kr", "").Replace(lower)
	clean = strings.ReplaceAll(clean, ",", ".")

	match := numericPattern.FindString(clean)
	if match == "" {
		return nil
	}
	value, err := decimal.NewFromString(match)
	if err != nil {
		return nil
	}
	result := value.Mul(multiplier)
	return &result
}

// parseEmployeeCount extracts an integer headcount from a cell
func parseEmployeeCount(raw string) *int {
	digits := digitsOnly.ReplaceAllString(raw, "")
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

// parseStatementTables walks all tables on a bokslut page, identifies
// year columns in the header row, and maps the labelled rows onto raw
// statement records. Years carrying no recognizable figures are dropped.
func parseStatementTables(doc *goquery.Document) []financial.RawStatementRecord {
	byYear := map[int]*financial.RawStatementRecord{}
	labelKeys := matchOrder()
	currentYear := time.Now().Year()

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		headerCells := table.Find("tr").First().Find("th, td")

		// Column index -> statement year.
		yearColumns := map[int]int{}
		headerCells.Each(func(col int, cell *goquery.Selection) {
			text := strings.TrimSpace(cell.Text())
			if !yearPattern.MatchString(text) {
				return
			}
			year, err := strconv.Atoi(text[:4])
			if err != nil || year < 2000 || year > currentYear {
				return
			}
			yearColumns[col] = year
		})
		if len(yearColumns) == 0 {
			return
		}

		table.Find("tr").Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td, th")
			if cells.Length() < 2 {
				return
			}
			label := strings.ToLower(strings.TrimSpace(cells.First().Text()))

			isEmployees := strings.Contains(label, "anställda")
			var field financial.Field
			if !isEmployees {
				found := false
				for _, key := range labelKeys {
					if strings.Contains(label, key) {
						field = rowLabelFields[key]
						found = true
						break
					}
				}
				if !found {
					return
				}
			}

			cells.Each(func(col int, cell *goquery.Selection) {
				year, ok := yearColumns[col]
				if !ok {
					return
				}
				rec := byYear[year]
				if rec == nil {
					start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
					end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
					rec = &financial.RawStatementRecord{
						Source:      financial.SourceScraped,
						Year:        year,
						PeriodStart: &start,
						PeriodEnd:   &end,
						Currency:    "SEK",
						Fields:      map[financial.Field]decimal.Decimal{},
					}
					byYear[year] = rec
				}
				text := cell.Text()
				if isEmployees {
					if n := parseEmployeeCount(text); n != nil {
						rec.Employees = n
					}
					return
				}
				if v := parseFinancialValue(text); v != nil {
					if _, exists := rec.Fields[field]; !exists {
						rec.Fields[field] = *v
					}
				}
			})
		})
	})

	records := make([]financial.RawStatementRecord, 0, len(byYear))
	for _, rec := range byYear {
		if len(rec.Fields) == 0 {
			continue
		}
		records = append(records, *rec)
	}
	// Newest first, capped to the registry's published window.
	sort.Slice(records, func(i, j int) bool { return records[i].Year > records[j].Year })
	if len(records) > maxStatementYears {
		records = records[:maxStatementYears]
	}
	return records
}

// parseProfile extracts company master data from an overview page
func parseProfile(doc *goquery.Document, orgNumber string) *financial.CompanyProfile {
	profile := &financial.CompanyProfile{OrganizationNumber: orgNumber}

	profile.Name = strings.TrimSpace(doc.Find("h1").First().Text())

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		label := strings.ToLower(strings.TrimSpace(cells.First().Text()))
		value := strings.TrimSpace(cells.Eq(1).Text())

		switch {
		case strings.Contains(label, "sni"):
			profile.IndustryCode = digitsOnly.ReplaceAllString(value, "")
		case strings.Contains(label, "verksamhet"):
			profile.BusinessDescription = value
		case strings.Contains(label, "anställda"):
			profile.Employees = parseEmployeeCount(value)
		}
	})

	return profile
}
