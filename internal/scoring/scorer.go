// Package scoring implements the deterministic heuristics used for the
// structured symptom-selection flow: the bucket scorer and the triage gate.
package scoring

import (
	"symptom-checker/internal/profile"
	"symptom-checker/internal/symptom"
)

// Bucket is one of the fixed outcome categories of the scorer.
type Bucket string

const (
	BucketCold    Bucket = "cold"
	BucketFlu     Bucket = "flu"
	BucketAllergy Bucket = "allergy"
)

// Buckets lists the scorer's buckets in output order.
var Buckets = []Bucket{BucketCold, BucketFlu, BucketAllergy}

const (
	baseWeight     = 0.2
	minProbability = 0.05
	maxProbability = 0.9
)

// BucketScore carries both the normalized weight (Raw, sums to 1 across
// buckets) and the display probability clamped to the safety band.
type BucketScore struct {
	Bucket      Bucket  `json:"bucket"`
	Raw         float64 `json:"raw"`
	Probability float64 `json:"probability"`
}

type weights map[Bucket]float64

var symptomWeights = map[string]weights{
	symptom.Fever:           {BucketCold: 0.3, BucketFlu: 1.0},
	symptom.Cough:           {BucketCold: 0.6, BucketFlu: 0.6, BucketAllergy: 0.2},
	symptom.RunnyNose:       {BucketCold: 0.8, BucketFlu: 0.2, BucketAllergy: 0.8},
	symptom.Sneezing:        {BucketCold: 0.5, BucketFlu: 0.1, BucketAllergy: 1.0},
	symptom.SoreThroat:      {BucketCold: 0.7, BucketFlu: 0.4, BucketAllergy: 0.1},
	symptom.NasalCongestion: {BucketCold: 0.6, BucketFlu: 0.2, BucketAllergy: 0.6},
	symptom.Headache:        {BucketCold: 0.2, BucketFlu: 0.5, BucketAllergy: 0.2},
	symptom.Fatigue:         {BucketCold: 0.2, BucketFlu: 0.7, BucketAllergy: 0.1},
	symptom.MusclePain:      {BucketCold: 0.1, BucketFlu: 0.8},
	symptom.Chills:          {BucketCold: 0.2, BucketFlu: 0.7},
	symptom.ItchyEyes:       {BucketAllergy: 1.0},
	symptom.Itching:         {BucketAllergy: 0.6},
	symptom.Rash:            {BucketAllergy: 0.4},
	symptom.ShortnessBreath: {BucketCold: 0.1, BucketFlu: 0.3, BucketAllergy: 0.3},
}

var ageFactors = map[profile.AgeGroup]weights{
	profile.AgeChild:  {BucketCold: 1.10},
	profile.AgeTeen:   {BucketAllergy: 1.05},
	profile.AgeSenior: {BucketFlu: 1.15},
}

// Profile factors are kept in slices so they multiply in a fixed order.
var chronicFactors = []struct {
	disease profile.ChronicDisease
	factors weights
}{
	{profile.ChronicAsthma, weights{BucketAllergy: 1.10}},
	{profile.ChronicCOPD, weights{BucketFlu: 1.10}},
	{profile.ChronicDiabetes, weights{BucketFlu: 1.05}},
	{profile.ChronicHeartDisease, weights{BucketFlu: 1.05}},
	{profile.ChronicImmunodeficiency, weights{BucketCold: 1.05, BucketFlu: 1.10}},
}

var allergyFactors = []struct {
	allergy profile.Allergy
	factors weights
}{
	{profile.AllergyPollen, weights{BucketAllergy: 1.15}},
	{profile.AllergyDust, weights{BucketAllergy: 1.10}},
	{profile.AllergyAnimalDander, weights{BucketAllergy: 1.10}},
}

// Score blends symptom severities and profile attributes into the three
// bucket probabilities. Without selections it returns the uniform base
// distribution.
//
// Display probabilities are clamped to [0.05, 0.9] after normalization and
// are not renormalized again, so they may not sum to exactly 1.
func Score(selections []symptom.Selection, p profile.UserProfile) []BucketScore {
	acc := make(weights, len(Buckets))
	for _, b := range Buckets {
		acc[b] = baseWeight
	}

	for _, sel := range selections {
		w, ok := symptomWeights[sel.Symptom.ID]
		if !ok {
			continue
		}
		scale := float64(symptom.ClampSeverity(sel.Symptom.Severity)) / symptom.MaxSeverity
		for b, v := range w {
			acc[b] += v * scale
		}
	}

	apply(acc, ageFactors[p.AgeGroup])
	for _, c := range chronicFactors {
		if p.HasChronic(c.disease) {
			apply(acc, c.factors)
		}
	}
	for _, a := range allergyFactors {
		if p.HasAllergy(a.allergy) {
			apply(acc, a.factors)
		}
	}

	total := 0.0
	for _, b := range Buckets {
		total += acc[b]
	}

	out := make([]BucketScore, 0, len(Buckets))
	for _, b := range Buckets {
		raw := acc[b] / total
		out = append(out, BucketScore{
			Bucket:      b,
			Raw:         raw,
			Probability: clamp(raw, minProbability, maxProbability),
		})
	}
	return out
}

func apply(acc, factors weights) {
	for b, f := range factors {
		acc[b] *= f
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
