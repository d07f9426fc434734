package symptom

import (
	"errors"
	"strings"
)

var ErrUnknownSymptom = errors.New("unknown symptom")

// Category is the body system a symptom belongs to.
type Category string

const (
	CategoryGeneral         Category = "GENERAL"
	CategoryRespiratory     Category = "RESPIRATORY"
	CategoryCardiovascular  Category = "CARDIOVASCULAR"
	CategoryDigestive       Category = "DIGESTIVE"
	CategoryNeurological    Category = "NEUROLOGICAL"
	CategoryMusculoskeletal Category = "MUSCULOSKELETAL"
	CategorySkin            Category = "SKIN"
	CategoryEarNoseThroat   Category = "EAR_NOSE_THROAT"
	CategoryEye             Category = "EYE"
	CategoryUrinary         Category = "URINARY"
	CategoryPsychological   Category = "PSYCHOLOGICAL"
)

const (
	MinSeverity     = 1
	MaxSeverity     = 5
	DefaultSeverity = 3
)

// Symptom is a value type; the With* methods return modified copies.
type Symptom struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Severity    int      `json:"severity"`
	Selected    bool     `json:"selected,omitempty"`
}

// WithSeverity returns a copy with severity clamped to 1..5.
func (s Symptom) WithSeverity(severity int) Symptom {
	s.Severity = ClampSeverity(severity)
	return s
}

// WithSelected returns a copy with the selection flag set.
func (s Symptom) WithSelected(selected bool) Symptom {
	s.Selected = selected
	return s
}

// ClampSeverity bounds a severity to 1..5.
func ClampSeverity(severity int) int {
	if severity < MinSeverity {
		return MinSeverity
	}
	if severity > MaxSeverity {
		return MaxSeverity
	}
	return severity
}

// Selection pairs a chosen symptom with answers to its follow-up questions,
// keyed by question id. It lives for one analysis request.
type Selection struct {
	Symptom Symptom           `json:"symptom"`
	Answers map[string]string `json:"answers,omitempty"`
}

// SelectionText joins the display names of the selections so the keyword
// matcher can run over a structured selection.
func SelectionText(selections []Selection) string {
	names := make([]string, 0, len(selections))
	for _, sel := range selections {
		names = append(names, sel.Symptom.Name)
	}
	return strings.Join(names, " ")
}

// Names returns the display names in selection order.
func Names(selections []Selection) []string {
	names := make([]string, 0, len(selections))
	for _, sel := range selections {
		names = append(names, sel.Symptom.Name)
	}
	return names
}
