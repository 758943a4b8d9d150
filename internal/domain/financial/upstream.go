package financial

import "context"

// UpstreamRegistry fetches published company figures from an external
// registry. Implementations translate their transport and parse failures
// into upstream errors; transient failures are retried by the caller.
type UpstreamRegistry interface {
	// FetchStatements retrieves the published statement years for the
	// organization number, newest first.
	FetchStatements(ctx context.Context, orgNumber string) ([]RawStatementRecord, error)
	// FetchProfile retrieves registry master data for the company.
	FetchProfile(ctx context.Context, orgNumber string) (*CompanyProfile, error)
}

// CompanyProfile is the registry master data used to seed a company
type CompanyProfile struct {
	OrganizationNumber  string
	Name                string
	IndustryCode        string
	BusinessDescription string
	Employees           *int
}

// DocumentExtractor pulls statement records out of an uploaded document
type DocumentExtractor interface {
	Extract(ctx context.Context, doc *FinancialDocument, content []byte) ([]RawStatementRecord, error)
}
