package model

// Mode selects which stages run and which prompts are used.
type Mode string

const (
	// ModeLegal runs the general legal analysis flow.
	ModeLegal Mode = "legal"
	// ModeCreator runs the brand-deal flow, adding deliverables extraction.
	ModeCreator Mode = "creator"
)

// Valid reports whether m is a known analysis mode.
func (m Mode) Valid() bool {
	return m == ModeLegal || m == ModeCreator
}

// ExtractionMethod records which tier produced the stored company name.
type ExtractionMethod string

const (
	// MethodLLM means the stored name came from the model at acceptable confidence.
	MethodLLM ExtractionMethod = "llm"
	// MethodRegex means the pattern tier produced the stored name.
	MethodRegex ExtractionMethod = "regex"
	// MethodRegexFallback means the model call failed outright or no tier
	// found a name at all.
	MethodRegexFallback ExtractionMethod = "regex_fallback"
)

// StructuredValue is a parsed object recovered from free-form model output.
type StructuredValue = map[string]any

// Deliverable is a single contract deliverable formatted for calendar scheduling.
type Deliverable struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`           // YYYY-MM-DD
	StartTime   string `json:"start_time,omitempty"` // HH:MM, empty for all-day
	Timezone    string `json:"timezone,omitempty"`
	UserEmail   string `json:"user_email"`
}

// AnalysisState is the record threaded through the pipeline. Stages receive it
// by value and return an enriched copy; once a field is set, no later stage
// unsets it. The three input fields are immutable after creation.
type AnalysisState struct {
	// Inputs
	ContractText string `json:"contract_text"`
	UserEmail    string `json:"user_email"`
	Mode         Mode   `json:"mode"`

	// Intermediate
	CompanyName     string           `json:"company_name,omitempty"`
	CompanyMethod   ExtractionMethod `json:"company_extraction_method,omitempty"`
	ParsedContract  StructuredValue  `json:"parsed_contract,omitempty"`
	RiskAnalysis    StructuredValue  `json:"risk_analysis,omitempty"`
	ResearchResults StructuredValue  `json:"research_results,omitempty"`
	Deliverables    []Deliverable    `json:"deliverables,omitempty"`

	// Outputs
	SummaryFile         string   `json:"summary_file,omitempty"`
	CalendarFile        string   `json:"calendar_file,omitempty"`
	NotificationResults []string `json:"notification_results,omitempty"`

	// Error is advisory: stages keep running, but a non-empty value signals
	// overall failure to the caller.
	Error string `json:"error,omitempty"`
}

// NewAnalysisState creates the initial state for one analysis request.
func NewAnalysisState(contractText, userEmail string, mode Mode) AnalysisState {
	return AnalysisState{
		ContractText: contractText,
		UserEmail:    userEmail,
		Mode:         mode,
	}
}
