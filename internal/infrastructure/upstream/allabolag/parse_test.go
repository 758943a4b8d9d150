package allabolag

import (
	"strconv"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFinancialValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		isNil    bool
	}{
		{name: "plain amount with grouping spaces", input: "1 234 567", expected: "1234567"},
		{name: "amount with kr suffix", input: "1 234 567 kr", expected: "1234567"},
		{name: "millions with comma decimal", input: "1,5 Mkr", expected: "1500000"},
		{name: "thousands", input: "2 350 tkr", expected: "2350000"},
		{name: "negative amount", input: "-4 200", expected: "-4200"},
		{name: "comma decimal", input: "12,75", expected: "12.75"},
		{name: "dash means absent", input: "-", isNil: true},
		{name: "empty cell", input: "", isNil: true},
		{name: "whitespace only", input: "   ", isNil: true},
		{name: "non numeric text", input: "se not", isNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFinancialValue(tt.input)
			if tt.isNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, got.String())
		})
	}
}

func TestParseEmployeeCount(t *testing.T) {
	n := parseEmployeeCount("12 anställda")
	require.NotNil(t, n)
	assert.Equal(t, 12, *n)

	assert.Nil(t, parseEmployeeCount("-"))
	assert.Nil(t, parseEmployeeCount(""))
}

const statementPageHTML = `
<html><body>
<h1>Testbolaget AB</h1>
<table>
  <tr><th>Resultaträkning</th><th>2023</th><th>2022</th><th>2021</th></tr>
  <tr><td>Nettoomsättning</td><td>10 000</td><td>9 000</td><td>8 000</td></tr>
  <tr><td>Rörelseresultat (EBIT)</td><td>1 200</td><td>900</td><td>-</td></tr>
  <tr><td>Årets resultat</td><td>800</td><td>600</td><td>400</td></tr>
  <tr><td>Medelantalet anställda</td><td>14</td><td>12</td><td>11</td></tr>
</table>
<table>
  <tr><th>Balansräkning</th><th>2023</th><th>2022</th><th>2021</th></tr>
  <tr><td>Summa tillgångar</td><td>20 000</td><td>18 000</td><td>16 000</td></tr>
  <tr><td>Eget kapital</td><td>7 500</td><td>6 800</td><td>6 100</td></tr>
  <tr><td>Kortfristiga skulder</td><td>5 000</td><td>4 500</td><td>4 000</td></tr>
</table>
</body></html>`

func TestParseStatementTables(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(statementPageHTML))
	require.NoError(t, err)

	records := parseStatementTables(doc)
	require.Len(t, records, 3)

	// Newest year first.
	assert.Equal(t, 2023, records[0].Year)
	assert.Equal(t, 2022, records[1].Year)
	assert.Equal(t, 2021, records[2].Year)

	latest := records[0]
	assert.Equal(t, financial.SourceScraped, latest.Source)
	assert.Equal(t, "SEK", latest.Currency)
	require.NotNil(t, latest.PeriodEnd)
	assert.Equal(t, 2023, latest.PeriodEnd.Year())
	require.NotNil(t, latest.Employees)
	assert.Equal(t, 14, *latest.Employees)

	assert.True(t, latest.Fields[financial.FieldRevenue].Equal(decimal.NewFromInt(10000)))
	assert.True(t, latest.Fields[financial.FieldEBIT].Equal(decimal.NewFromInt(1200)))
	assert.True(t, latest.Fields[financial.FieldNetProfit].Equal(decimal.NewFromInt(800)))
	assert.True(t, latest.Fields[financial.FieldTotalAssets].Equal(decimal.NewFromInt(20000)))
	assert.True(t, latest.Fields[financial.FieldEquity].Equal(decimal.NewFromInt(7500)))
	assert.True(t, latest.Fields[financial.FieldCurrentLiabilities].Equal(decimal.NewFromInt(5000)))

	// Dash cells are skipped, not recorded as zero.
	oldest := records[2]
	_, hasEBIT := oldest.Fields[financial.FieldEBIT]
	assert.False(t, hasEBIT)
	assert.True(t, oldest.Fields[financial.FieldRevenue].Equal(decimal.NewFromInt(8000)))
}

func TestParseStatementTables_CapsToFiveYears(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<table><tr><th>År</th>")
	for year := 2023; year >= 2016; year-- {
		sb.WriteString("<th>" + strconv.Itoa(year) + "</th>")
	}
	sb.WriteString("</tr><tr><td>Nettoomsättning</td>")
	for year := 2023; year >= 2016; year-- {
		sb.WriteString("<td>1 000</td>")
	}
	sb.WriteString("</tr></table>")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sb.String()))
	require.NoError(t, err)

	records := parseStatementTables(doc)
	require.Len(t, records, maxStatementYears)
	assert.Equal(t, 2023, records[0].Year)
	assert.Equal(t, 2019, records[len(records)-1].Year)
}

func TestParseStatementTables_NoYearColumns(t *testing.T) {
	html := `<table><tr><th>Nyckeltal</th><th>Värde</th></tr>
		<tr><td>Nettoomsättning</td><td>1 000</td></tr></table>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	assert.Empty(t, parseStatementTables(doc))
}

const profilePageHTML = `
<html><body>
<h1>Testbolaget AB</h1>
<table>
  <tr><td>SNI-bransch</td><td>62010 - Dataprogrammering</td></tr>
  <tr><td>Verksamhet &amp; ändamål</td><td>Bolaget ska bedriva utveckling av programvara.</td></tr>
  <tr><td>Antal anställda</td><td>14</td></tr>
</table>
</body></html>`

func TestParseProfile(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(profilePageHTML))
	require.NoError(t, err)

	profile := parseProfile(doc, "556123-4567")
	assert.Equal(t, "556123-4567", profile.OrganizationNumber)
	assert.Equal(t, "Testbolaget AB", profile.Name)
	assert.Equal(t, "62010", profile.IndustryCode)
	assert.Equal(t, "Bolaget ska bedriva utveckling av programvara.", profile.BusinessDescription)
	require.NotNil(t, profile.Employees)
	assert.Equal(t, 14, *profile.Employees)
}
