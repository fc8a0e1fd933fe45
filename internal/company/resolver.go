// Package company identifies the primary company or brand in a contract.
// Resolution is two-tier: a model pass over the opening of the contract,
// backed by a deterministic pattern extractor when the model is unavailable
// or unsure.
package company

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/clearterms/contract-cli/internal/extract"
	"github.com/clearterms/contract-cli/internal/model"
	"github.com/clearterms/contract-cli/internal/resilience"
	"github.com/clearterms/contract-cli/pkg/anthropic"
)

// UnknownCompany is the final default when neither tier finds a name.
const UnknownCompany = "Unknown Company"

// llmWindow bounds how much contract text the model sees.
const llmWindow = 3000

const systemPrompt = `You are an expert at identifying company and brand names in legal contracts.

Extract the PRIMARY company or brand name from this contract. This is typically:
- The company hiring the creator/contractor
- The brand mentioned in a sponsorship deal
- The party offering the agreement (not the individual/creator)

Return ONLY valid JSON with this structure:
{
    "company_name": "The Company Name",
    "confidence": "high|medium|low",
    "context": "Brief explanation of where/how you found it"
}

If you cannot find a company name, return:
{
    "company_name": null,
    "confidence": "none",
    "context": "No clear company name found"
}

Do NOT return the creator's name, individual names, or generic terms like "The Influencer".`

// Resolver resolves company names from contract text.
type Resolver struct {
	ai    anthropic.Client
	model string
	call  resilience.CallConfig
}

// NewResolver creates a Resolver backed by the given generation client.
func NewResolver(ai anthropic.Client, modelID string, call resilience.CallConfig) *Resolver {
	return &Resolver{ai: ai, model: modelID, call: call}
}

// Resolve returns the primary company name and the method that produced it.
// It never fails: with no model result and no pattern match it returns
// (UnknownCompany, MethodRegexFallback).
func (r *Resolver) Resolve(ctx context.Context, contractText string) (string, model.ExtractionMethod) {
	window := truncateText(contractText, llmWindow)

	resp, err := resilience.Call(ctx, r.call, "company.resolve", func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return r.ai.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     r.model,
			MaxTokens: 512,
			System:    systemPrompt,
			Messages: []anthropic.Message{
				{Role: "user", Content: "Contract text (first 3000 chars):\n\n" + window},
			},
		})
	})
	if err != nil {
		zap.L().Warn("company: model extraction failed, using pattern fallback", zap.Error(err))
		if name := PatternExtract(contractText); name != "" {
			return name, model.MethodRegex
		}
		return UnknownCompany, model.MethodRegexFallback
	}

	name, confidence := parseResolution(responseText(resp))
	zap.L().Info("company: model extraction",
		zap.String("company", name),
		zap.String("confidence", confidence),
	)

	if name != "" && confidence != "low" && confidence != "none" {
		return name, model.MethodLLM
	}

	// Absent or low-confidence model result: the pattern tier owns the value.
	if fallback := PatternExtract(contractText); fallback != "" {
		return fallback, model.MethodRegex
	}
	return UnknownCompany, model.MethodRegexFallback
}

// parseResolution pulls {company_name, confidence} out of the model response.
func parseResolution(text string) (name, confidence string) {
	obj, ok := extract.Object(text)
	if !ok {
		return "", "none"
	}
	if v, ok := obj["company_name"].(string); ok {
		name = strings.TrimSpace(v)
	}
	confidence = "unknown"
	if v, ok := obj["confidence"].(string); ok {
		confidence = strings.ToLower(strings.TrimSpace(v))
	}
	return name, confidence
}

func responseText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, b := range resp.Content {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// --- deterministic pattern tier ---

var connectivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)by and between\s+(.*?)\s+(?:and|&)`),
	regexp.MustCompile(`(?i)entered into by\s+(.*?)\s+(?:and|&)`),
	regexp.MustCompile(`(?i)Agreement is made between\s+(.*?)\s+(?:and|&)`),
	regexp.MustCompile(`(?i)This Agreement is made by\s+(.*?)\s+(?:and|&)`),
	regexp.MustCompile(`(?i)contract between\s+(.*?)\s+(?:and|&)`),
	regexp.MustCompile(`(?i)between\s+(.*?)\s+(?:and|&)`),
}

var suffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b([A-Z][A-Za-z0-9&\s]+(?:Inc\.|LLC|Ltd\.|Corporation|Corp\.|Company|Co\.))`),
	regexp.MustCompile(`\b([A-Z][A-Z\s&]+(?:Inc\.|LLC|Ltd\.|Corporation|Corp\.|Company|Co\.))`),
}

var (
	quotedPattern = regexp.MustCompile(`"([A-Z][A-Za-z0-9\s&,\.]+)"`)
	capsPattern   = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,3})\b`)
	edgeQuotes    = regexp.MustCompile(`^["']+|["']+$`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// genericParties are counterparty designations, never company names.
var genericParties = []string{
	"the influencer", "the creator", "the contractor",
	"the individual", "the party", "the client",
	"you", "your", "creator", "influencer",
}

// boilerplatePhrases are capitalized contract language the caps tier must skip.
var boilerplatePhrases = map[string]bool{
	"This Agreement": true,
	"The Party":      true,
	"The Creator":    true,
	"The Influencer": true,
}

var titleCaser = cases.Title(language.English)

// entitySuffixCasing restores conventional casing the title caser mangles.
var entitySuffixCasing = map[string]string{
	"Llc": "LLC",
	"Ltd": "Ltd.",
}

// PatternExtract is the deterministic fallback tier. Rules run in order and
// the first match wins; an empty string means no rule matched.
func PatternExtract(contractText string) string {
	// Rule 1: connective phrases ("by and between X and ...").
	for _, p := range connectivePatterns {
		m := p.FindStringSubmatch(contractText)
		if m == nil {
			continue
		}
		candidate := whitespace.ReplaceAllString(edgeQuotes.ReplaceAllString(strings.TrimSpace(m[1]), ""), " ")

		if containsGenericParty(candidate) {
			continue
		}
		if len(strings.Fields(candidate)) <= 6 {
			return candidate
		}
	}

	// Rule 2: formal entity suffixes, first 2000 chars.
	head := truncateText(contractText, 2000)
	for _, p := range suffixPatterns {
		for _, m := range p.FindAllStringSubmatch(head, -1) {
			candidate := strings.TrimSpace(m[1])
			if len(strings.Fields(candidate)) <= 5 {
				return canonicalize(candidate)
			}
		}
	}

	// Rules 3 and 4 search a tighter window.
	contractText = truncateText(contractText, 1500)

	// Rule 3: quoted capitalized names.
	for _, m := range quotedPattern.FindAllStringSubmatch(contractText, -1) {
		candidate := strings.TrimSpace(m[1])
		if len(strings.Fields(candidate)) > 5 {
			continue
		}
		if containsBoilerplateWord(candidate) {
			continue
		}
		return candidate
	}

	// Rule 4: runs of 2-4 capitalized words.
	for _, m := range capsPattern.FindAllStringSubmatch(contractText, -1) {
		candidate := m[1]
		words := len(strings.Fields(candidate))
		if words < 2 || words > 4 {
			continue
		}
		if boilerplatePhrases[candidate] {
			continue
		}
		return candidate
	}

	return ""
}

// truncateText cuts s to at most n bytes, backing off so a multi-byte rune is
// never split.
func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func containsGenericParty(candidate string) bool {
	lower := strings.ToLower(candidate)
	for _, term := range genericParties {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func containsBoilerplateWord(candidate string) bool {
	for _, w := range strings.Fields(strings.ToLower(candidate)) {
		switch w {
		case "agreement", "contract", "terms":
			return true
		}
	}
	return false
}

// canonicalize title-cases shouty all-caps matches ("ACME HOLDINGS LLC")
// while leaving mixed-case names untouched.
func canonicalize(name string) string {
	if name != strings.ToUpper(name) {
		return name
	}
	cased := titleCaser.String(strings.ToLower(name))
	words := strings.Fields(cased)
	for i, w := range words {
		if fixed, ok := entitySuffixCasing[strings.TrimSuffix(w, ".")]; ok {
			words[i] = fixed
		}
	}
	return strings.Join(words, " ")
}
