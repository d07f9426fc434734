package checker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"symptom-checker/internal/inference"
	"symptom-checker/internal/journal"
	"symptom-checker/internal/knowledge"
	"symptom-checker/internal/matcher"
	"symptom-checker/internal/profile"
	"symptom-checker/internal/scoring"
	"symptom-checker/internal/symptom"
	"symptom-checker/internal/textnorm"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrReportsDisabled = errors.New("report delivery is disabled")
)

// Analysis paths used as metric labels.
const (
	PathText     = "text"
	PathSymptoms = "symptoms"
)

// Engine produces bucket probabilities; inference.Engine satisfies it.
type Engine interface {
	Infer(ctx context.Context, selections []symptom.Selection, p profile.UserProfile) inference.Result
}

// ReportService delivers a journal entry to a clinician.
type ReportService interface {
	SendEntryReport(ctx context.Context, e journal.Entry) error
	SendEmergencyAlert(ctx context.Context, e journal.Entry) error
}

type Metrics interface {
	ObserveAnalysis(path string, d time.Duration)
	RecordEmergency()
	RecordJournalEntry()
	RecordReport(err error)
}

type Service interface {
	ListSymptoms() []symptom.Symptom
	ListSymptomGroups() []SymptomGroup
	ListRules() []Rule
	GetRule(id string) (*Rule, error)

	AnalyzeText(ctx context.Context, req AnalyzeTextRequest) (*TextAnalysis, error)
	AnalyzeSymptoms(ctx context.Context, req AnalyzeSymptomsRequest) (*SymptomAnalysis, error)

	GetProfile(ctx context.Context, userID string) (*profile.UserProfile, error)
	SaveProfile(ctx context.Context, p profile.UserProfile) (*profile.UserProfile, error)

	SaveEntry(ctx context.Context, req SaveEntryRequest) (*journal.Entry, error)
	ListEntries(ctx context.Context, userID string) ([]journal.Entry, error)
	GetEntry(ctx context.Context, id uuid.UUID) (*journal.Entry, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, userID string) (*journal.Stats, error)
	ShareEntry(ctx context.Context, id uuid.UUID) error
}

// Dependencies for NewService. Engine, Reports, Metrics and Logger may be
// nil.
type Dependencies struct {
	Rules    *knowledge.Catalog
	Symptoms *symptom.Catalog
	Engine   Engine
	Profiles profile.Repository
	Journal  journal.Repository
	Reports  ReportService
	Metrics  Metrics
	Logger   *zap.Logger
}

type service struct {
	rules    *knowledge.Catalog
	symptoms *symptom.Catalog
	matcher  *matcher.Matcher
	engine   Engine
	profiles profile.Repository
	journal  journal.Repository
	reports  ReportService
	metrics  Metrics
	validate *validator.Validate
	logger   *zap.Logger
}

func NewService(d Dependencies) Service {
	s := &service{
		rules:    d.Rules,
		symptoms: d.Symptoms,
		matcher:  matcher.New(d.Rules),
		engine:   d.Engine,
		profiles: d.Profiles,
		journal:  d.Journal,
		reports:  d.Reports,
		metrics:  d.Metrics,
		validate: validator.New(),
		logger:   d.Logger,
	}
	if s.engine == nil {
		s.engine = fallbackEngine{}
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

func (s *service) ListSymptoms() []symptom.Symptom {
	return s.symptoms.All()
}

func (s *service) ListSymptomGroups() []SymptomGroup {
	grouped := s.symptoms.ByCategory()
	out := make([]SymptomGroup, 0, len(grouped))
	for _, c := range s.symptoms.Categories() {
		out = append(out, SymptomGroup{Category: c, Symptoms: grouped[c]})
	}
	return out
}

func (s *service) ListRules() []Rule {
	rules := s.rules.Rules()
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = ruleView(r)
	}
	return out
}

func (s *service) GetRule(id string) (*Rule, error) {
	r, err := s.rules.Get(id)
	if err != nil {
		return nil, err
	}
	v := ruleView(r)
	return &v, nil
}

// AnalyzeText runs the keyword matcher over free text. No eligible rule is a
// normal outcome reported through Insufficient.
func (s *service) AnalyzeText(ctx context.Context, req AnalyzeTextRequest) (*TextAnalysis, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { s.metrics.ObserveAnalysis(PathText, time.Since(start)) }()

	diagnoses := s.diagnose(req.Text)
	res := &TextAnalysis{Diagnoses: diagnoses}
	if len(diagnoses) == 0 {
		res.Insufficient = true
		res.Message = matcher.NotEnoughInformation
	}
	return res, nil
}

// AnalyzeSymptoms triages a structured selection. An emergency returns the
// directive without computing probabilities.
func (s *service) AnalyzeSymptoms(ctx context.Context, req AnalyzeSymptomsRequest) (*SymptomAnalysis, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { s.metrics.ObserveAnalysis(PathSymptoms, time.Since(start)) }()

	selections := make([]symptom.Selection, 0, len(req.Symptoms))
	seen := make(map[string]bool, len(req.Symptoms))
	for _, in := range req.Symptoms {
		if seen[in.ID] {
			continue
		}
		seen[in.ID] = true
		sel, err := s.symptoms.Select(in.ID, in.Severity, in.Answers)
		if err != nil {
			return nil, err
		}
		selections = append(selections, sel)
	}

	p, err := s.profileFor(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	res := &SymptomAnalysis{
		Symptoms:        symptom.Names(selections),
		Triage:          scoring.Triage(selections, p),
		Diagnoses:       []Diagnosis{},
		Recommendations: []string{},
	}
	if res.Triage.Emergency {
		s.metrics.RecordEmergency()
		s.logger.Info("triage routed to emergency",
			zap.Int("score", res.Triage.Score),
			zap.Strings("reasons", res.Triage.Reasons))
		res.Directive = scoring.EmergencyDirective
		return res, nil
	}

	result := s.engine.Infer(ctx, selections, p)
	res.Inference = &result
	res.Diagnoses = s.diagnose(symptom.SelectionText(selections))
	if len(res.Diagnoses) == 0 {
		res.Message = matcher.NotEnoughInformation
	} else {
		res.Recommendations = res.Diagnoses[0].Recommendations
	}
	return res, nil
}

func (s *service) diagnose(input string) []Diagnosis {
	text := textnorm.NewText(input)
	matches := s.matcher.Match(input)
	out := make([]Diagnosis, 0, len(matches))
	for _, m := range matches {
		out = append(out, diagnosisFrom(m, text))
	}
	return out
}

func diagnosisFrom(m matcher.Match, text textnorm.Text) Diagnosis {
	matched := []string{}
	for _, kw := range m.Rule.RelatedKeywords.Items() {
		if text.Contains(kw) {
			matched = append(matched, kw)
		}
	}
	var confidence float64
	if n := m.Rule.RelatedKeywords.Len(); n > 0 {
		confidence = float64(m.Score) / float64(n)
	}
	return Diagnosis{
		RuleID:          m.Rule.ID,
		Title:           m.Rule.Title,
		Description:     m.Rule.Description,
		Department:      m.Rule.Department,
		Urgency:         m.Rule.Urgency.String(),
		Score:           m.Score,
		Confidence:      confidence,
		MatchedKeywords: matched,
		Recommendations: append([]string{}, m.Rule.Recommendations...),
	}
}

// profileFor returns the stored profile, or the default adult profile for
// anonymous users and users who never saved one.
func (s *service) profileFor(ctx context.Context, userID string) (profile.UserProfile, error) {
	if userID == "" {
		return profile.Default(""), nil
	}
	p, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, profile.ErrNotFound) {
		return profile.Default(userID), nil
	}
	if err != nil {
		return profile.UserProfile{}, fmt.Errorf("load profile: %w", err)
	}
	return *p, nil
}

func (s *service) GetProfile(ctx context.Context, userID string) (*profile.UserProfile, error) {
	return s.profiles.Get(ctx, userID)
}

func (s *service) SaveProfile(ctx context.Context, p profile.UserProfile) (*profile.UserProfile, error) {
	if p.Sex == "" {
		p.Sex = profile.SexUnspecified
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.profiles.Save(ctx, &p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return &p, nil
}

func (s *service) SaveEntry(ctx context.Context, req SaveEntryRequest) (*journal.Entry, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	e := journal.NewEntry(req.UserID, req.Symptoms, req.Emergency, req.Results)
	if err := s.journal.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("save journal entry: %w", err)
	}
	s.metrics.RecordJournalEntry()
	if e.Emergency && s.reports != nil {
		// the entry is already stored; a failed alert must not fail the save
		if err := s.reports.SendEmergencyAlert(ctx, *e); err != nil {
			s.logger.Warn("emergency alert not delivered", zap.String("entry_id", e.ID.String()), zap.Error(err))
		}
	}
	return e, nil
}

func (s *service) ListEntries(ctx context.Context, userID string) ([]journal.Entry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	return s.journal.ListByUser(ctx, userID)
}

func (s *service) GetEntry(ctx context.Context, id uuid.UUID) (*journal.Entry, error) {
	return s.journal.GetByID(ctx, id)
}

func (s *service) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	return s.journal.Delete(ctx, id)
}

func (s *service) Stats(ctx context.Context, userID string) (*journal.Stats, error) {
	entries, err := s.ListEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := journal.ComputeStats(entries)
	return &stats, nil
}

// ShareEntry sends the entry's PDF report to the configured clinician chat.
func (s *service) ShareEntry(ctx context.Context, id uuid.UUID) error {
	e, err := s.journal.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s.reports == nil {
		return ErrReportsDisabled
	}
	err = s.reports.SendEntryReport(ctx, *e)
	s.metrics.RecordReport(err)
	return err
}

func (s *service) check(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

type fallbackEngine struct{}

func (fallbackEngine) Infer(_ context.Context, selections []symptom.Selection, p profile.UserProfile) inference.Result {
	return inference.Fallback(selections, p)
}

type noopMetrics struct{}

func (noopMetrics) ObserveAnalysis(string, time.Duration) {}
func (noopMetrics) RecordEmergency()                      {}
func (noopMetrics) RecordJournalEntry()                   {}
func (noopMetrics) RecordReport(error)                    {}
