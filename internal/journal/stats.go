package journal

import (
	"sort"
	"time"
)

type SymptomCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type ConditionSummary struct {
	Name            string  `json:"name"`
	MeanProbability float64 `json:"mean_probability"`
	Occurrences     int     `json:"occurrences"`
}

// Stats summarizes a user's journal.
type Stats struct {
	TotalEntries     int               `json:"total_entries"`
	EmergencyEntries int               `json:"emergency_entries"`
	FirstEntry       *time.Time        `json:"first_entry,omitempty"`
	LastEntry        *time.Time        `json:"last_entry,omitempty"`
	SymptomFrequency []SymptomCount    `json:"symptom_frequency"`
	TopCondition     *ConditionSummary `json:"top_condition,omitempty"`
	EntriesByWeekday map[string]int    `json:"entries_by_weekday"`
}

// ComputeStats is pure; entries may be in any order.
func ComputeStats(entries []Entry) Stats {
	stats := Stats{
		TotalEntries:     len(entries),
		SymptomFrequency: []SymptomCount{},
		EntriesByWeekday: make(map[string]int),
	}

	symptomCounts := make(map[string]int)
	probSums := make(map[string]float64)
	probCounts := make(map[string]int)

	for _, e := range entries {
		if e.Emergency {
			stats.EmergencyEntries++
		}
		ts := e.CreatedAt
		if stats.FirstEntry == nil || ts.Before(*stats.FirstEntry) {
			first := ts
			stats.FirstEntry = &first
		}
		if stats.LastEntry == nil || ts.After(*stats.LastEntry) {
			last := ts
			stats.LastEntry = &last
		}
		stats.EntriesByWeekday[ts.Weekday().String()]++

		seen := make(map[string]bool, len(e.Symptoms))
		for _, s := range e.Symptoms {
			if seen[s] {
				continue
			}
			seen[s] = true
			symptomCounts[s]++
		}
		for _, r := range e.Results {
			probSums[r.Name] += r.Probability
			probCounts[r.Name]++
		}
	}

	for name, n := range symptomCounts {
		stats.SymptomFrequency = append(stats.SymptomFrequency, SymptomCount{Name: name, Count: n})
	}
	sort.Slice(stats.SymptomFrequency, func(i, j int) bool {
		a, b := stats.SymptomFrequency[i], stats.SymptomFrequency[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})

	for name, sum := range probSums {
		c := ConditionSummary{Name: name, MeanProbability: sum / float64(probCounts[name]), Occurrences: probCounts[name]}
		if stats.TopCondition == nil || betterCondition(c, *stats.TopCondition) {
			top := c
			stats.TopCondition = &top
		}
	}
	return stats
}

func betterCondition(a, b ConditionSummary) bool {
	if a.MeanProbability != b.MeanProbability {
		return a.MeanProbability > b.MeanProbability
	}
	if a.Occurrences != b.Occurrences {
		return a.Occurrences > b.Occurrences
	}
	return a.Name < b.Name
}
