package knowledge

import (
	"fmt"
	"strings"

	"symptom-checker/internal/textnorm"
)

// Urgency is the ordered severity classification of a rule.
type Urgency int

const (
	UrgencyLow Urgency = iota + 1
	UrgencyModerate
	UrgencyHigh
	UrgencyCritical
)

var urgencyNames = map[Urgency]string{
	UrgencyLow:      "LOW",
	UrgencyModerate: "MODERATE",
	UrgencyHigh:     "HIGH",
	UrgencyCritical: "CRITICAL",
}

func (u Urgency) String() string {
	if name, ok := urgencyNames[u]; ok {
		return name
	}
	return fmt.Sprintf("Urgency(%d)", int(u))
}

// ParseUrgency accepts the enum names case-insensitively.
func ParseUrgency(s string) (Urgency, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for u, name := range urgencyNames {
		if name == upper {
			return u, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown urgency %q", ErrInvalidRule, s)
}

func (u Urgency) MarshalText() ([]byte, error) {
	name, ok := urgencyNames[u]
	if !ok {
		return nil, fmt.Errorf("%w: urgency %d", ErrInvalidRule, int(u))
	}
	return []byte(name), nil
}

func (u *Urgency) UnmarshalText(text []byte) error {
	parsed, err := ParseUrgency(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// DiseaseRule is one immutable knowledge base entry. Keyword sets are stored
// normalized.
type DiseaseRule struct {
	ID               string
	Title            string
	Description      string
	Department       string
	Urgency          Urgency
	RelatedKeywords  textnorm.Set
	MustHaveKeywords textnorm.Set
	Recommendations  []string
}
