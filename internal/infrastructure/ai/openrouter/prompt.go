package openrouter

import (
	"fmt"
	"strings"

	"github.com/creditpm/backend/internal/domain/analysis"
	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/shopspring/decimal"
)

const narrativeSystemPrompt = `You are a senior credit analyst at a Nordic bank. ` +
	`You write concise, factual financial analyses for internal credit memos. ` +
	`Respond with a single JSON object matching the requested schema. ` +
	`Base every statement on the figures provided; never invent numbers.`

const sectionSystemPrompt = `You are a senior credit analyst at a Nordic bank drafting one ` +
	`section of an internal credit memo (PM). Write in plain professional prose, ` +
	`two to four paragraphs, without headings or markdown. Base the text only on ` +
	`the context provided.`

// buildNarrativePrompt renders the analysis context into the user message
func buildNarrativePrompt(req analysis.NarrativeRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Company: %s\n", req.CompanyName)
	if req.IndustryCode != "" {
		fmt.Fprintf(&b, "Industry code (SNI): %s\n", req.IndustryCode)
	}
	if req.BusinessDescription != "" {
		fmt.Fprintf(&b, "Business: %s\n", req.BusinessDescription)
	}
	fmt.Fprintf(&b, "Amounts in %s.\n\n", req.Currency)

	b.WriteString("Historical statements:\n")
	for i := range req.Statements {
		writeStatementLine(&b, &req.Statements[i])
	}

	if len(req.Ratios) > 0 {
		b.WriteString("\nKey ratios:\n")
		for _, rs := range req.Ratios {
			fmt.Fprintf(&b, "  %d: gross margin %s, EBITDA margin %s, current ratio %s, equity ratio %s, ROE %s\n",
				rs.Year,
				formatRatio(rs.GrossMargin),
				formatRatio(rs.EBITDAMargin),
				formatRatio(rs.CurrentRatio),
				formatRatio(rs.EquityRatio),
				formatRatio(rs.ReturnOnEquity))
		}
	}

	if req.Trend.UsableYears > 0 {
		fmt.Fprintf(&b, "\nRevenue trend: geometric growth %s over %d usable years, volatility %s\n",
			formatRatio(req.Trend.GeometricGrowth), req.Trend.UsableYears, formatRatio(req.Trend.GrowthVolatility))
	}

	if len(req.Projections) > 0 {
		b.WriteString("\nProjections:\n")
		for i := range req.Projections {
			p := &req.Projections[i]
			fmt.Fprintf(&b, "  %d: revenue %s, EBITDA %s, net profit %s (confidence %s)\n",
				p.Year,
				formatDecimalPtr(p.ProjectedRevenue),
				formatDecimalPtr(p.ProjectedEBITDA),
				formatDecimalPtr(p.ProjectedNetProfit),
				p.ConfidenceLevel)
		}
	}

	b.WriteString("\nProduce a JSON object with the fields: " +
		`"summary" (string), "key_metrics" (object), "risk_assessment" ` +
		`(object with "overall_risk" one of low|medium|high, "risk_factors" ` +
		`string array, "score" integer 0-100), "strengths" (string array), ` +
		`"weaknesses" (string array), "recommendations" (string array).`)

	if req.Strict {
		b.WriteString("\n\nIMPORTANT: your previous answer was rejected because required " +
			"fields were missing or malformed. Every field listed above is mandatory. " +
			"Return only the JSON object, no surrounding text.")
	}

	return b.String()
}

// buildSectionPrompt renders the section context into the user message
func buildSectionPrompt(req analysis.SectionRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Memo section to write: %s\n", strings.ReplaceAll(req.SectionType, "_", " "))
	fmt.Fprintf(&b, "Case: %s\n", req.CaseTitle)
	fmt.Fprintf(&b, "Company: %s\n", req.CompanyName)
	if req.IndustryCode != "" {
		fmt.Fprintf(&b, "Industry code (SNI): %s\n", req.IndustryCode)
	}
	if req.BusinessDescription != "" {
		fmt.Fprintf(&b, "Business: %s\n", req.BusinessDescription)
	}
	if req.FinancialContext != "" {
		fmt.Fprintf(&b, "\nFinancial context:\n%s\n", req.FinancialContext)
	}

	return b.String()
}

func writeStatementLine(b *strings.Builder, s *financial.FinancialStatement) {
	fmt.Fprintf(b, "  %d:", s.Year)
	for _, f := range []financial.Field{
		financial.FieldRevenue,
		financial.FieldEBITDA,
		financial.FieldNetProfit,
		financial.FieldTotalAssets,
		financial.FieldEquity,
		financial.FieldOperatingCashFlow,
	} {
		if v := s.Get(f); v != nil {
			fmt.Fprintf(b, " %s=%s", f, v.String())
		}
	}
	b.WriteString("\n")
}

func formatRatio(r financial.Ratio) string {
	if !r.Defined {
		return "n/a"
	}
	return r.Value.String()
}

func formatDecimalPtr(d *decimal.Decimal) string {
	if d == nil {
		return "n/a"
	}
	return d.String()
}
