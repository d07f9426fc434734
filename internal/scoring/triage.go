package scoring

import (
	"symptom-checker/internal/profile"
	"symptom-checker/internal/symptom"
)

// EmergencyThreshold is the triage score from which a case is routed to
// emergency guidance instead of a probability breakdown.
const EmergencyThreshold = 3

// EmergencyDirective replaces the result screen when triage fires.
const EmergencyDirective = "Belirtileriniz acil değerlendirme gerektirebilir. Lütfen hemen 112'yi arayın veya en yakın acil servise başvurun."

// Reasons recorded in a TriageResult.
const (
	ReasonSevereSymptom = "severity_5"
	ReasonSenior        = "senior"
)

var criticalSymptoms = []struct {
	id     string
	points int
}{
	{id: symptom.ChestPain, points: 2},
	{id: symptom.ShortnessBreath, points: 2},
}

type TriageResult struct {
	Score     int      `json:"score"`
	Emergency bool     `json:"emergency"`
	Reasons   []string `json:"reasons"`
}

// Triage scores a selection: +2 per critical symptom present, +1 if any
// symptom is at maximum severity, +1 for seniors.
func Triage(selections []symptom.Selection, p profile.UserProfile) TriageResult {
	present := make(map[string]bool, len(selections))
	severe := false
	for _, sel := range selections {
		present[sel.Symptom.ID] = true
		if sel.Symptom.Severity >= symptom.MaxSeverity {
			severe = true
		}
	}

	res := TriageResult{Reasons: []string{}}
	for _, c := range criticalSymptoms {
		if present[c.id] {
			res.Score += c.points
			res.Reasons = append(res.Reasons, c.id)
		}
	}
	if severe {
		res.Score++
		res.Reasons = append(res.Reasons, ReasonSevereSymptom)
	}
	if p.AgeGroup == profile.AgeSenior {
		res.Score++
		res.Reasons = append(res.Reasons, ReasonSenior)
	}
	res.Emergency = res.Score >= EmergencyThreshold
	return res
}

// IsEmergency is shorthand for Triage(...).Emergency.
func IsEmergency(selections []symptom.Selection, p profile.UserProfile) bool {
	return Triage(selections, p).Emergency
}
