package checker

import (
	"symptom-checker/internal/inference"
	"symptom-checker/internal/journal"
	"symptom-checker/internal/knowledge"
	"symptom-checker/internal/scoring"
	"symptom-checker/internal/symptom"
)

// SymptomGroup is one category of the grouped symptom list.
type SymptomGroup struct {
	Category symptom.Category  `json:"category"`
	Symptoms []symptom.Symptom `json:"symptoms"`
}

// Rule is the API view of a knowledge base rule.
type Rule struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Department       string   `json:"department"`
	Urgency          string   `json:"urgency"`
	RelatedKeywords  []string `json:"related_keywords"`
	MustHaveKeywords []string `json:"must_have_keywords"`
	Recommendations  []string `json:"recommendations"`
}

func ruleView(r knowledge.DiseaseRule) Rule {
	return Rule{
		ID:               r.ID,
		Title:            r.Title,
		Description:      r.Description,
		Department:       r.Department,
		Urgency:          r.Urgency.String(),
		RelatedKeywords:  r.RelatedKeywords.Items(),
		MustHaveKeywords: r.MustHaveKeywords.Items(),
		Recommendations:  append([]string{}, r.Recommendations...),
	}
}

// Diagnosis is one ranked rule match. Confidence is the share of the rule's
// related keywords found in the input.
type Diagnosis struct {
	RuleID          string   `json:"rule_id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Department      string   `json:"department"`
	Urgency         string   `json:"urgency"`
	Score           int      `json:"score"`
	Confidence      float64  `json:"confidence"`
	MatchedKeywords []string `json:"matched_keywords"`
	Recommendations []string `json:"recommendations"`
}

type AnalyzeTextRequest struct {
	Text string `json:"text" validate:"max=4000"`
}

type TextAnalysis struct {
	Insufficient bool        `json:"insufficient"`
	Message      string      `json:"message,omitempty"`
	Diagnoses    []Diagnosis `json:"diagnoses"`
}

// SymptomInput selects one catalog symptom; zero severity keeps the
// catalog default.
type SymptomInput struct {
	ID       string            `json:"id" validate:"required"`
	Severity int               `json:"severity" validate:"omitempty,min=1,max=5"`
	Answers  map[string]string `json:"answers,omitempty"`
}

type AnalyzeSymptomsRequest struct {
	UserID   string         `json:"user_id" validate:"max=128"`
	Symptoms []SymptomInput `json:"symptoms" validate:"max=64,dive"`
}

// SymptomAnalysis is either an emergency directive (Triage.Emergency set,
// nothing else computed) or a probability breakdown with keyword matches.
type SymptomAnalysis struct {
	Symptoms        []string             `json:"symptoms"`
	Triage          scoring.TriageResult `json:"triage"`
	Directive       string               `json:"directive,omitempty"`
	Inference       *inference.Result    `json:"inference,omitempty"`
	Diagnoses       []Diagnosis          `json:"diagnoses"`
	Message         string               `json:"message,omitempty"`
	Recommendations []string             `json:"recommendations"`
}

type SaveEntryRequest struct {
	UserID    string                       `json:"user_id" validate:"required,max=128"`
	Symptoms  []string                     `json:"symptoms" validate:"required,min=1,dive,required"`
	Emergency bool                         `json:"emergency"`
	Results   []journal.DiseaseProbability `json:"results" validate:"dive"`
}
