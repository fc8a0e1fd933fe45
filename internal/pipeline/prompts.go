package pipeline

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// PromptSet holds the system prompts for every model-backed stage. Each field
// can be overridden from a YAML file; empty overrides keep the default.
type PromptSet struct {
	ParseCreator           string `yaml:"parse_creator"`
	ParseLegal             string `yaml:"parse_legal"`
	RiskCreator            string `yaml:"risk_creator"`
	RiskLegal              string `yaml:"risk_legal"`
	IdentifyTerms          string `yaml:"identify_terms"`
	SummarizeSearch        string `yaml:"summarize_search"`
	Deliverables           string `yaml:"deliverables"`
	SummaryCreator         string `yaml:"summary_creator"`
	SummaryCreatorResearch string `yaml:"summary_creator_research"`
	SummaryLegal           string `yaml:"summary_legal"`
}

// DefaultPrompts returns the built-in prompt set.
func DefaultPrompts() *PromptSet {
	return &PromptSet{
		ParseCreator:           parseCreatorPrompt,
		ParseLegal:             parseLegalPrompt,
		RiskCreator:            riskCreatorPrompt,
		RiskLegal:              riskLegalPrompt,
		IdentifyTerms:          identifyTermsPrompt,
		SummarizeSearch:        summarizeSearchPrompt,
		Deliverables:           deliverablesPrompt,
		SummaryCreator:         summaryCreatorPrompt,
		SummaryCreatorResearch: summaryCreatorResearchPrompt,
		SummaryLegal:           summaryLegalPrompt,
	}
}

// LoadPrompts returns the defaults merged with YAML overrides from path.
// An empty or missing path yields the defaults unchanged.
func LoadPrompts(path string) (*PromptSet, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		zap.L().Debug("prompts: override file not found, using defaults", zap.String("path", path))
		return prompts, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "prompts: read %s", path)
	}

	var overrides PromptSet
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, eris.Wrapf(err, "prompts: parse %s", path)
	}

	merge := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	merge(&prompts.ParseCreator, overrides.ParseCreator)
	merge(&prompts.ParseLegal, overrides.ParseLegal)
	merge(&prompts.RiskCreator, overrides.RiskCreator)
	merge(&prompts.RiskLegal, overrides.RiskLegal)
	merge(&prompts.IdentifyTerms, overrides.IdentifyTerms)
	merge(&prompts.SummarizeSearch, overrides.SummarizeSearch)
	merge(&prompts.Deliverables, overrides.Deliverables)
	merge(&prompts.SummaryCreator, overrides.SummaryCreator)
	merge(&prompts.SummaryCreatorResearch, overrides.SummaryCreatorResearch)
	merge(&prompts.SummaryLegal, overrides.SummaryLegal)

	return prompts, nil
}

const parseCreatorPrompt = `You are an expert contract parser specializing in influencer/brand deal contracts.

Extract and structure the following information from the contract:
- Deliverables (what content must be created, formats, platforms, quantities)
- Due dates and timelines (convert to PST/Pacific time)
- Payment terms (amounts, schedule, invoicing)
- Ownership & Licensing terms
- Exclusivity or non-compete clauses
- Usage rights (perpetual, limited, etc.)
- Approval processes
- Termination conditions
- Any legal red flags

CRITICAL: Return ONLY valid JSON. No markdown, no explanations, no text before or after.
Use double quotes for strings. No trailing commas. Properly escape quotes in text.

Format:
{
  "deliverables": [],
  "dates": [],
  "payment_terms": {},
  "legal_flags": [],
  "company_name": "",
  "clauses": []
}

Do NOT fabricate information. If something is not in the contract, omit it or use null.`

const parseLegalPrompt = `You are an expert legal contract parser.

Extract and categorize all key clauses from this contract:
- Parties involved
- Key obligations
- Payment terms
- Termination conditions
- Liability and indemnification
- Intellectual property rights
- Confidentiality
- Legal risks or unusual clauses

CRITICAL: Return ONLY valid JSON with no additional text.

Format:
{
  "parties": [],
  "obligations": [],
  "payment_terms": {},
  "clauses": []
}`

const riskCreatorPrompt = `You are a contract risk analyst specializing in influencer/brand deals.

Analyze the contract for these specific risks:
- **Content Ownership**: Does the brand get perpetual or exclusive rights?
- **Exclusivity**: Does it prevent working with competing brands?
- **Usage Rights**: Can the brand use content indefinitely or resell it?
- **Payment Terms**: Are payments delayed, conditional, or unclear?
- **Approval Process**: Are revision/reshoot terms unreasonable?
- **Termination**: Are penalties unfair to the creator?
- **Creator Rights**: Can the creator repost their own content?

Rate each risk as Low, Medium, or High and explain why.

CRITICAL: Return ONLY valid JSON. Do not include any text before or after the JSON.
Use double quotes for all strings, no trailing commas, proper escaping.

Format:
{
  "risks": [
    {
      "category": "Content Ownership",
      "level": "High",
      "reason": "Brand gets perpetual rights",
      "recommendation": "Negotiate time-limited rights"
    }
  ],
  "overall_risk_score": "Medium"
}`

const riskLegalPrompt = `You are a legal risk analyst.

Analyze the contract for:
- Unfair liability or indemnification clauses
- Ambiguous terms that could lead to disputes
- Unusual or concerning provisions
- Imbalanced obligations between parties

CRITICAL: Return ONLY valid JSON with no additional text.

Format:
{
  "risks": [
    {
      "category": "string",
      "level": "Low|Medium|High",
      "reason": "string"
    }
  ],
  "overall_risk_score": "Low|Medium|High"
}`

const identifyTermsPrompt = `You are a legal contract analyzer helping non-lawyers understand their contracts.

Review the parsed contract and risk analysis to identify legal or technical terms that:
1. Are complex or use legal jargon
2. Could have significant impact on the client's rights or obligations
3. Might not be well understood by someone without legal training
4. Are flagged as risks or concerns in the analysis

Return ONLY a JSON array of 3-5 specific terms found in THIS contract that need explanation.
Each term should be a short phrase (1-4 words).
If no unclear terms are found, return an empty array.

Format:
["term 1", "term 2", "term 3"]`

const summarizeSearchPrompt = `You are a legal research assistant.

Summarize the search results into a clear, concise explanation (2-4 sentences) that:
1. Defines the term in the given context
2. Explains why it matters (how it affects their rights, money, or content)
3. Mentions any red flags or common concerns

Be direct and practical. Use friendly language, not legal jargon.
Focus on actionable information that helps clients understand their contract.

If the search results don't provide clear information, say so and provide a basic definition based on your knowledge.`

const deliverablesPrompt = `You are extracting deliverables for calendar scheduling.

For each deliverable with a due date, provide:
- summary: Brief title (e.g., "Instagram Reel Due")
- description: What needs to be delivered
- start_date: Date in YYYY-MM-DD format
- start_time: Time in HH:MM 24-hour format if specified, otherwise null
- timezone: Timezone if specified (PST, EST, etc.), otherwise null
- user_email: The provided email

Look for time indicators like:
- "by 5:00 PM PST"
- "due at 14:00 EST"
- "before 3:00 PM Pacific"

If no specific time is mentioned, set start_time to null for all-day events.
Only include deliverables with explicit due dates.

CRITICAL: Return ONLY valid JSON array. No markdown, no explanations.
Use double quotes for all strings. No trailing commas.

Format:
[
  {
    "summary": "Instagram Reel Due",
    "description": "Create 30-second reel",
    "start_date": "2025-12-01",
    "start_time": "17:00",
    "timezone": "PST",
    "user_email": "user@example.com"
  }
]`

const summaryCreatorPrompt = `You are writing a contract summary for a content creator.

Create a concise, friendly summary in markdown format with these sections:

## Brand Deal Summary
Brief overview of the partnership

## Deliverables & Deadlines
List what must be created and when (be specific about dates and times)

## Payment Terms
How and when the creator gets paid

## Legal & Risk Concerns
Key risks like:
- Content ownership (who owns what)
- Exclusivity restrictions
- Usage rights (can brand use content forever?)
- Any red flags

Keep it succinct - creators want actionable info, not legal jargon.

End with:
### Disclaimer
This summary is for informational purposes only and not legal advice.

Return ONLY the markdown content, no preamble.`

const summaryCreatorResearchPrompt = `You are writing a contract summary for a content creator.

Create a concise, friendly summary in markdown format with these sections:

## Brand Deal Summary
Brief overview of the partnership

## Deliverables & Deadlines
List what must be created and when (be specific about dates and times)

## Payment Terms
How and when the creator gets paid

## Legal & Risk Concerns
Key risks like:
- Content ownership (who owns what)
- Exclusivity restrictions
- Usage rights (can brand use content forever?)
- Any red flags

## Key Terms Explained
Web research has provided explanations for unclear legal terms.
Include a section explaining these terms in creator-friendly language.
Use the research results to help creators understand what these terms mean for them.

Keep it succinct - creators want actionable info, not legal jargon.

End with:
### Disclaimer
This summary is for informational purposes only and not legal advice.

Return ONLY the markdown content, no preamble.`

const summaryLegalPrompt = `You are writing a contract summary.

Create a structured markdown summary with:
- Key parties and purpose
- Main obligations
- Payment terms
- Termination conditions
- Notable legal provisions
- Risk assessment

If research results are provided, include relevant legal term explanations.

Return ONLY the markdown content.`
