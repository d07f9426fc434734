package inference

import (
	"symptom-checker/internal/profile"
	"symptom-checker/internal/symptom"
)

const (
	maxChronicCount = 5
	maxAllergyCount = 5
)

// DefaultVocabulary fixes which symptom occupies which feature slot.
var DefaultVocabulary = []string{
	symptom.Fever,
	symptom.Cough,
	symptom.RunnyNose,
	symptom.Sneezing,
	symptom.SoreThroat,
	symptom.NasalCongestion,
	symptom.Headache,
	symptom.Fatigue,
	symptom.MusclePain,
	symptom.Chills,
	symptom.ItchyEyes,
	symptom.ShortnessBreath,
}

// Encoder turns a selection and profile into the fixed-length vector the
// model was trained on:
//
//	[severity/5 per vocabulary slot][age group one-hot][chronic/5][allergies/5]
type Encoder struct {
	vocabulary []string
	slot       map[string]int
}

func NewEncoder(vocabulary []string) *Encoder {
	e := &Encoder{
		vocabulary: append([]string{}, vocabulary...),
		slot:       make(map[string]int, len(vocabulary)),
	}
	for i, id := range e.vocabulary {
		e.slot[id] = i
	}
	return e
}

// Len is the size of every vector produced by Encode.
func (e *Encoder) Len() int {
	return len(e.vocabulary) + len(profile.AgeGroups) + 2
}

// Encode ignores symptoms outside the vocabulary. When a symptom is selected
// twice the higher severity wins.
func (e *Encoder) Encode(selections []symptom.Selection, p profile.UserProfile) []float64 {
	v := make([]float64, e.Len())

	for _, sel := range selections {
		i, ok := e.slot[sel.Symptom.ID]
		if !ok {
			continue
		}
		sev := float64(symptom.ClampSeverity(sel.Symptom.Severity)) / symptom.MaxSeverity
		if sev > v[i] {
			v[i] = sev
		}
	}

	offset := len(e.vocabulary)
	for i, g := range profile.AgeGroups {
		if p.AgeGroup == g {
			v[offset+i] = 1
		}
	}
	offset += len(profile.AgeGroups)

	v[offset] = capped(len(p.ChronicDiseases), maxChronicCount)
	v[offset+1] = capped(len(p.Allergies), maxAllergyCount)
	return v
}

func capped(n, max int) float64 {
	if n > max {
		n = max
	}
	return float64(n) / float64(max)
}
