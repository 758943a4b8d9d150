package memo

import (
	"strings"

	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SectionType enumerates the sections of a credit memo
type SectionType string

const (
	SectionPurpose             SectionType = "purpose"
	SectionBusinessDescription SectionType = "business_description"
	SectionMarketAnalysis      SectionType = "market_analysis"
	SectionFinancialAnalysis   SectionType = "financial_analysis"
	SectionCreditAnalysis      SectionType = "credit_analysis"
	SectionCreditProposal      SectionType = "credit_proposal"
)

// AllSectionTypes returns the section types in memo order
func AllSectionTypes() []SectionType {
	return []SectionType{
		SectionPurpose,
		SectionBusinessDescription,
		SectionMarketAnalysis,
		SectionFinancialAnalysis,
		SectionCreditAnalysis,
		SectionCreditProposal,
	}
}

// IsValid checks whether the section type is a known value
func (t SectionType) IsValid() bool {
	for _, s := range AllSectionTypes() {
		if s == t {
			return true
		}
	}
	return false
}

// Title renders the display title of the section type
func (t SectionType) Title() string {
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// SectionState is the derived presentation state of a section
type SectionState string

const (
	// StateAIGenerated means no user content exists.
	StateAIGenerated SectionState = "ai_generated"
	// StateModified means user content exists and differs from the AI
	// content.
	StateModified SectionState = "modified"
)

// PMSection is one versioned memo section. AIContent holds the latest
// generated text; UserContent, when set, is the human-edited text shown
// in its place. Version increases by exactly one on every
// content-affecting write.
type PMSection struct {
	shared.BaseEntity
	CaseID      uuid.UUID   `json:"case_id"`
	SectionType SectionType `json:"section_type"`
	Title       string      `json:"title"`
	AIContent   *string     `json:"ai_content,omitempty"`
	UserContent *string     `json:"user_content,omitempty"`
	Version     int         `json:"version"`
}

// NewPMSection creates a section at version 1 with the given AI content
func NewPMSection(caseID uuid.UUID, sectionType SectionType, aiContent string) (*PMSection, error) {
	if !sectionType.IsValid() {
		return nil, shared.NewValidationError("section_type", "Unknown section type")
	}
	return &PMSection{
		BaseEntity:  shared.NewBaseEntity(),
		CaseID:      caseID,
		SectionType: sectionType,
		Title:       sectionType.Title(),
		AIContent:   &aiContent,
		Version:     1,
	}, nil
}

// State derives the presentation state from the content pair
func (s *PMSection) State() SectionState {
	if s.UserContent != nil && (s.AIContent == nil || *s.UserContent != *s.AIContent) {
		return StateModified
	}
	return StateAIGenerated
}

// EffectiveContent is the text the memo renders: the user edit when one
// exists, the AI content otherwise.
func (s *PMSection) EffectiveContent() string {
	if s.UserContent != nil {
		return *s.UserContent
	}
	if s.AIContent != nil {
		return *s.AIContent
	}
	return ""
}

// ApplyGenerated replaces the AI content with a fresh generation. User
// content, when present, is left untouched.
func (s *PMSection) ApplyGenerated(content string) {
	s.AIContent = &content
	s.Version++
	s.Touch()
}

// ApplyUserEdit records a human edit of the section
func (s *PMSection) ApplyUserEdit(content string) error {
	if content == "" {
		return shared.NewValidationError("user_content", "Edited content must not be empty")
	}
	s.UserContent = &content
	s.Version++
	s.Touch()
	return nil
}

// RevertToAI sets the user content back to the current AI content. This
// is a content-affecting write and increments the version.
func (s *PMSection) RevertToAI() error {
	if s.AIContent == nil {
		return shared.NewInvalidStateError("section", "no-content", string(StateAIGenerated))
	}
	content := *s.AIContent
	s.UserContent = &content
	s.Version++
	s.Touch()
	return nil
}
