package fixed

import (
	"regexp"
	"strings"
)

// NormalizeATISText upper-cases and collapses whitespace in a joined ATIS
// broadcast, following the same normalize-before-match approach the
// upstream ATIS parser uses ahead of its regex table.
func NormalizeATISText(text string) string {
	upper := strings.ToUpper(text)
	fields := strings.Fields(upper)
	return strings.Join(fields, " ")
}

// Regex table for runway-ident extraction from normalized ATIS text. Each
// pattern captures one or more comma/slash-separated runway idents after a
// directional keyword; the table is tried in order and idents from every
// match are collected, mirroring the teacher's runwayRe/approachRe
// dispatch idiom in internal/parsers/atis.
var (
	runwayIdentRe = `\d{1,2}[LCR]?`

	arrivalRe = []*regexp.Regexp{
		regexp.MustCompile(`LANDING\s+RWYS?\s+((?:` + runwayIdentRe + `)(?:\s*(?:AND|,|/)\s*` + runwayIdentRe + `)*)`),
		regexp.MustCompile(`ARR(?:IVAL)?\s+RWYS?\s+((?:` + runwayIdentRe + `)(?:\s*(?:AND|,|/)\s*` + runwayIdentRe + `)*)`),
		regexp.MustCompile(`EXPECT\s+ILS\s+APP(?:ROACH)?\s+RWY\s+(` + runwayIdentRe + `)`),
	}

	departureRe = []*regexp.Regexp{
		regexp.MustCompile(`DEPART(?:ING|URE)?\s+RWYS?\s+((?:` + runwayIdentRe + `)(?:\s*(?:AND|,|/)\s*` + runwayIdentRe + `)*)`),
		regexp.MustCompile(`DEP\s+RWYS?\s+((?:` + runwayIdentRe + `)(?:\s*(?:AND|,|/)\s*` + runwayIdentRe + `)*)`),
	}

	combinedRe = regexp.MustCompile(`RWYS?\s+((?:` + runwayIdentRe + `)(?:\s*(?:AND|,|/)\s*` + runwayIdentRe + `)*)\s+IN\s+USE`)

	identSplitRe = regexp.MustCompile(`\s*(?:AND|,|/)\s*`)
)

func extractIdents(m []string) []string {
	if len(m) < 2 {
		return nil
	}
	return identSplitRe.Split(m[1], -1)
}

// DetectArrivalRunways returns the runway idents a normalized ATIS text
// marks for arrivals; a combined "RWY ... IN USE" phrase counts for both
// arrivals and departures.
func DetectArrivalRunways(normalized string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(idents []string) {
		for _, id := range idents {
			if id != "" && !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	for _, re := range arrivalRe {
		add(extractIdents(re.FindStringSubmatch(normalized)))
	}
	add(extractIdents(combinedRe.FindStringSubmatch(normalized)))
	return out
}

// DetectDepartureRunways returns the runway idents a normalized ATIS text
// marks for departures.
func DetectDepartureRunways(normalized string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(idents []string) {
		for _, id := range idents {
			if id != "" && !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	for _, re := range departureRe {
		add(extractIdents(re.FindStringSubmatch(normalized)))
	}
	add(extractIdents(combinedRe.FindStringSubmatch(normalized)))
	return out
}
