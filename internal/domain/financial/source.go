package financial

// StatementSource identifies where a raw statement record came from.
type StatementSource string

const (
	SourceManual       StatementSource = "manual"
	SourceScraped      StatementSource = "scraped"
	SourcePDFExtracted StatementSource = "pdf_extracted"
)

// IsValid checks if the source is a valid StatementSource
func (s StatementSource) IsValid() bool {
	switch s {
	case SourceManual, SourceScraped, SourcePDFExtracted:
		return true
	}
	return false
}

// String returns the string representation of StatementSource
func (s StatementSource) String() string {
	return string(s)
}

// Precedence returns the merge precedence of the source. A field set by a
// higher-precedence source is never overwritten by a lower-precedence one:
// manual > pdf_extracted > scraped.
func (s StatementSource) Precedence() int {
	switch s {
	case SourceManual:
		return 3
	case SourcePDFExtracted:
		return 2
	case SourceScraped:
		return 1
	}
	return 0
}

// AllStatementSources returns all valid statement sources
func AllStatementSources() []StatementSource {
	return []StatementSource{SourceManual, SourceScraped, SourcePDFExtracted}
}
