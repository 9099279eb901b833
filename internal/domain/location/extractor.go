// Package location infers city/state from free-text customer names and
// scores growth opportunity. Everything here is pure: records are already
// fetched by the caller, no network dependency.
package location

import (
	"regexp"
	"strings"
)

// Confidence levels per extraction strategy. Higher-confidence strategies
// are tried first; sub-80 results are displayed as uncertain.
const (
	confidenceTrailingState  = 90
	confidenceCityWithState  = 85
	confidenceCityOnly       = 75
	confidenceTokenWithState = 60
	confidenceTokenOnly      = 40
	confidenceFallback       = 30

	uncertainBelow = 80

	fallbackMinLen = 3
	fallbackMaxLen = 50
)

// Unknown is the extraction result when every strategy fails.
const Unknown = "Unknown"

// Extraction is an inferred location with its confidence, clamped [0,100].
type Extraction struct {
	Location   string
	State      string
	Confidence int
}

// Display renders the location for the dashboard, marking sub-80
// confidence results as uncertain.
func (e Extraction) Display() string {
	if e.Confidence > 0 && e.Confidence < uncertainBelow {
		return e.Location + " (uncertain)"
	}
	return e.Location
}

var (
	tokenSplitter  = regexp.MustCompile(`[\s\-]+`)
	edgePunct      = regexp.MustCompile(`^[\s\-–,./#]+|[\s\-–,./#]+$`)
	nonAlpha       = regexp.MustCompile(`[^A-Za-z]`)
	whitespaceRuns = regexp.MustCompile(`\s{2,}`)
)

// Extract infers a location from a customer name, trying strategies in
// decreasing confidence order: trailing state code, known city substring,
// leading token heuristic, then the cleaned string itself as a fallback.
func Extract(customerName, distributorName string) Extraction {
	cleaned := stripDistributor(customerName, distributorName)
	if cleaned == "" {
		return Extraction{Location: Unknown, Confidence: 0}
	}

	if e, ok := trailingStateCode(cleaned); ok {
		return clamp(e)
	}
	if e, ok := knownCity(cleaned); ok {
		return clamp(e)
	}
	if e, ok := leadingToken(cleaned); ok {
		return clamp(e)
	}
	if len(cleaned) >= fallbackMinLen && len(cleaned) <= fallbackMaxLen {
		return clamp(Extraction{Location: cleaned, Confidence: confidenceFallback})
	}
	return Extraction{Location: Unknown, Confidence: 0}
}

// stripDistributor removes the distributor's known name patterns from the
// customer string and tidies what remains.
func stripDistributor(customerName, distributorName string) string {
	out := customerName
	if distributorName != "" {
		pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(distributorName))
		out = pattern.ReplaceAllString(out, "")

		// Also drop the distributor's leading word on its own; names are
		// commonly abbreviated to it ("Acme - Dallas TX" for "Acme Supply").
		if first := strings.Fields(distributorName); len(first) > 0 && len(first[0]) > 2 {
			word := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(first[0]) + `\b`)
			out = word.ReplaceAllString(out, "")
		}
	}
	out = edgePunct.ReplaceAllString(out, "")
	out = whitespaceRuns.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// trailingStateCode matches strategy (a): a trailing two-letter state
// code validated against the 50-state list.
func trailingStateCode(cleaned string) (Extraction, bool) {
	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return Extraction{}, false
	}
	last := strings.ToUpper(strings.Trim(fields[len(fields)-1], ",."))
	if len(last) != 2 || !ValidStateCode(last) {
		return Extraction{}, false
	}

	city := strings.TrimRight(strings.TrimSpace(strings.Join(fields[:len(fields)-1], " ")), ",")
	loc := last
	if city != "" {
		loc = city + ", " + last
	}
	return Extraction{Location: loc, State: last, Confidence: confidenceTrailingState}, true
}

// knownCity matches strategy (b): a substring match against the fixed
// major-city list, upgraded when a valid state token is also present.
func knownCity(cleaned string) (Extraction, bool) {
	lower := strings.ToLower(cleaned)
	for _, city := range majorCities {
		if !strings.Contains(lower, strings.ToLower(city)) {
			continue
		}
		if state, ok := anyStateToken(cleaned); ok {
			return Extraction{Location: city + ", " + state, State: state, Confidence: confidenceCityWithState}, true
		}
		return Extraction{Location: city, Confidence: confidenceCityOnly}, true
	}
	return Extraction{}, false
}

// leadingToken matches strategy (c): the first whitespace or hyphen
// delimited token as a candidate city.
func leadingToken(cleaned string) (Extraction, bool) {
	tokens := tokenSplitter.Split(cleaned, -1)
	if len(tokens) == 0 {
		return Extraction{}, false
	}
	candidate := strings.Trim(tokens[0], ",.")
	if len(candidate) < fallbackMinLen || nonAlpha.MatchString(candidate) {
		return Extraction{}, false
	}

	if state, ok := anyStateToken(cleaned); ok {
		return Extraction{Location: candidate + ", " + state, State: state, Confidence: confidenceTokenWithState}, true
	}
	return Extraction{Location: candidate, Confidence: confidenceTokenOnly}, true
}

// anyStateToken scans every token for a valid state abbreviation.
func anyStateToken(cleaned string) (string, bool) {
	for _, tok := range tokenSplitter.Split(cleaned, -1) {
		tok = strings.ToUpper(strings.Trim(tok, ",."))
		if len(tok) == 2 && ValidStateCode(tok) {
			return tok, true
		}
	}
	return "", false
}

func clamp(e Extraction) Extraction {
	if e.Confidence < 0 {
		e.Confidence = 0
	}
	if e.Confidence > 100 {
		e.Confidence = 100
	}
	return e
}
