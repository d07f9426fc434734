// Package matcher ranks knowledge base rules against free text.
package matcher

import (
	"sort"

	"symptom-checker/internal/knowledge"
	"symptom-checker/internal/textnorm"
)

// NotEnoughInformation is shown when no rule is eligible for the input.
const NotEnoughInformation = "Analiz Edilemedi: girilen belirtiler bir değerlendirme yapmak için yeterli değil. Lütfen belirtilerinizi daha ayrıntılı yazın veya bir hekime danışın."

// Match is an eligible rule with its relevance score.
type Match struct {
	Rule  knowledge.DiseaseRule
	Score int

	order int
}

// Matcher is safe for concurrent use; it only reads the catalog.
type Matcher struct {
	catalog *knowledge.Catalog
}

func New(catalog *knowledge.Catalog) *Matcher {
	return &Matcher{catalog: catalog}
}

// Match returns eligible rules ordered by relevance, then urgency, then
// catalog order. A rule is eligible only when all of its must-have keywords
// occur in the input; rules without must-have keywords never are.
func (m *Matcher) Match(input string) []Match {
	text := textnorm.NewText(input)
	if text.Empty() {
		return []Match{}
	}

	matches := make([]Match, 0)
	for i, rule := range m.catalog.Rules() {
		if !text.ContainsAll(rule.MustHaveKeywords) {
			continue
		}
		matches = append(matches, Match{
			Rule:  rule,
			Score: text.CountHits(rule.RelatedKeywords),
			order: i,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Rule.Urgency != b.Rule.Urgency {
			return a.Rule.Urgency > b.Rule.Urgency
		}
		return a.order < b.order
	})
	return matches
}
