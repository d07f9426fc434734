package checker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symptom-checker/internal/inference"
	"symptom-checker/internal/journal"
	"symptom-checker/internal/knowledge"
	"symptom-checker/internal/matcher"
	"symptom-checker/internal/profile"
	"symptom-checker/internal/scoring"
	"symptom-checker/internal/symptom"
)

type fakeEngine struct {
	mu       sync.Mutex
	calls    int
	profiles []profile.UserProfile
}

func (f *fakeEngine) Infer(_ context.Context, selections []symptom.Selection, p profile.UserProfile) inference.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.profiles = append(f.profiles, p)
	return inference.Result{
		Predictions: []inference.Prediction{{Label: "flu", Probability: 1}},
		Source:      inference.SourceModel,
	}
}

type fakeReports struct {
	sent     []journal.Entry
	alerts   []journal.Entry
	err      error
	alertErr error
}

func (f *fakeReports) SendEntryReport(_ context.Context, e journal.Entry) error {
	f.sent = append(f.sent, e)
	return f.err
}

func (f *fakeReports) SendEmergencyAlert(_ context.Context, e journal.Entry) error {
	f.alerts = append(f.alerts, e)
	return f.alertErr
}

type fakeMetrics struct {
	analyses    map[string]int
	emergencies int
	entries     int
	reports     []error
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{analyses: map[string]int{}} }

func (f *fakeMetrics) ObserveAnalysis(path string, _ time.Duration) { f.analyses[path]++ }
func (f *fakeMetrics) RecordEmergency()                             { f.emergencies++ }
func (f *fakeMetrics) RecordJournalEntry()                          { f.entries++ }
func (f *fakeMetrics) RecordReport(err error)                       { f.reports = append(f.reports, err) }

type fixture struct {
	svc      Service
	engine   *fakeEngine
	reports  *fakeReports
	metrics  *fakeMetrics
	profiles profile.Repository
}

func newFixture(t *testing.T, withEngine, withReports bool) *fixture {
	t.Helper()
	rules, err := knowledge.Default()
	require.NoError(t, err)

	f := &fixture{
		metrics:  newFakeMetrics(),
		profiles: profile.NewMemoryRepository(),
	}
	deps := Dependencies{
		Rules:    rules,
		Symptoms: symptom.DefaultCatalog(),
		Profiles: f.profiles,
		Journal:  journal.NewMemoryRepository(),
		Metrics:  f.metrics,
	}
	if withEngine {
		f.engine = &fakeEngine{}
		deps.Engine = f.engine
	}
	if withReports {
		f.reports = &fakeReports{}
		deps.Reports = f.reports
	}
	f.svc = NewService(deps)
	return f
}

func TestAnalyzeText(t *testing.T) {
	f := newFixture(t, false, false)
	ctx := context.Background()

	t.Run("cardiac emergency rule ranks first", func(t *testing.T) {
		res, err := f.svc.AnalyzeText(ctx, AnalyzeTextRequest{Text: "göğüs ağrısı sol kol terleme"})
		require.NoError(t, err)
		assert.False(t, res.Insufficient)
		require.NotEmpty(t, res.Diagnoses)
		assert.Equal(t, "acil_kalp_krizi", res.Diagnoses[0].RuleID)
		assert.Equal(t, knowledge.UrgencyCritical.String(), res.Diagnoses[0].Urgency)
		assert.NotEmpty(t, res.Diagnoses[0].Recommendations)
	})

	t.Run("incomplete must-have set is insufficient", func(t *testing.T) {
		res, err := f.svc.AnalyzeText(ctx, AnalyzeTextRequest{Text: "baş ağrısı"})
		require.NoError(t, err)
		assert.True(t, res.Insufficient)
		assert.Equal(t, matcher.NotEnoughInformation, res.Message)
		assert.NotNil(t, res.Diagnoses)
		assert.Empty(t, res.Diagnoses)
	})

	t.Run("empty text", func(t *testing.T) {
		res, err := f.svc.AnalyzeText(ctx, AnalyzeTextRequest{Text: "   "})
		require.NoError(t, err)
		assert.True(t, res.Insufficient)
	})

	t.Run("too long", func(t *testing.T) {
		_, err := f.svc.AnalyzeText(ctx, AnalyzeTextRequest{Text: strings.Repeat("a", 4001)})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	assert.Equal(t, 3, f.metrics.analyses[PathText])
}

func TestAnalyzeSymptoms_Emergency(t *testing.T) {
	f := newFixture(t, true, false)
	ctx := context.Background()

	senior := profile.Default("u1")
	senior.AgeGroup = profile.AgeSenior
	_, err := f.svc.SaveProfile(ctx, senior)
	require.NoError(t, err)

	res, err := f.svc.AnalyzeSymptoms(ctx, AnalyzeSymptomsRequest{
		UserID: "u1",
		Symptoms: []SymptomInput{
			{ID: symptom.ChestPain},
			{ID: symptom.ShortnessBreath},
		},
	})
	require.NoError(t, err)

	assert.True(t, res.Triage.Emergency)
	assert.GreaterOrEqual(t, res.Triage.Score, scoring.EmergencyThreshold)
	assert.Equal(t, scoring.EmergencyDirective, res.Directive)
	assert.Nil(t, res.Inference)
	assert.Empty(t, res.Diagnoses)
	assert.Equal(t, 0, f.engine.calls)
	assert.Equal(t, 1, f.metrics.emergencies)
}

func TestAnalyzeSymptoms_FallbackPath(t *testing.T) {
	f := newFixture(t, false, false)

	res, err := f.svc.AnalyzeSymptoms(context.Background(), AnalyzeSymptomsRequest{
		Symptoms: []SymptomInput{
			{ID: symptom.Fever, Severity: 4},
			{ID: symptom.MusclePain},
			{ID: symptom.Fatigue},
			{ID: symptom.Chills},
		},
	})
	require.NoError(t, err)

	assert.False(t, res.Triage.Emergency)
	assert.Empty(t, res.Directive)
	assert.Equal(t, []string{"Ateş", "Kas Ağrısı", "Halsizlik", "Titreme"}, res.Symptoms)

	require.NotNil(t, res.Inference)
	assert.Equal(t, inference.SourceFallback, res.Inference.Source)
	require.Len(t, res.Inference.Predictions, 3)

	require.Len(t, res.Diagnoses, 1)
	d := res.Diagnoses[0]
	assert.Equal(t, "grip", d.RuleID)
	assert.Equal(t, 3, d.Score)
	assert.Equal(t, []string{"agri", "halsizlik", "titreme"}, d.MatchedKeywords)
	assert.InDelta(t, 3.0/7.0, d.Confidence, 1e-9)
	assert.Equal(t, d.Recommendations, res.Recommendations)
	assert.Empty(t, res.Message)
}

func TestAnalyzeSymptoms_ProfileResolution(t *testing.T) {
	f := newFixture(t, true, false)
	ctx := context.Background()

	teen := profile.Default("teen")
	teen.AgeGroup = profile.AgeTeen
	_, err := f.svc.SaveProfile(ctx, teen)
	require.NoError(t, err)

	for _, userID := range []string{"teen", "stranger", ""} {
		_, err := f.svc.AnalyzeSymptoms(ctx, AnalyzeSymptomsRequest{
			UserID:   userID,
			Symptoms: []SymptomInput{{ID: symptom.Cough}},
		})
		require.NoError(t, err)
	}

	require.Len(t, f.engine.profiles, 3)
	assert.Equal(t, profile.AgeTeen, f.engine.profiles[0].AgeGroup)
	assert.Equal(t, profile.AgeAdult, f.engine.profiles[1].AgeGroup)
	assert.Equal(t, "stranger", f.engine.profiles[1].UserID)
	assert.Equal(t, profile.AgeAdult, f.engine.profiles[2].AgeGroup)
}

func TestAnalyzeSymptoms_Inputs(t *testing.T) {
	f := newFixture(t, true, false)
	ctx := context.Background()

	t.Run("empty selection", func(t *testing.T) {
		res, err := f.svc.AnalyzeSymptoms(ctx, AnalyzeSymptomsRequest{})
		require.NoError(t, err)
		assert.Zero(t, res.Triage.Score)
		assert.NotNil(t, res.Inference)
		assert.Equal(t, matcher.NotEnoughInformation, res.Message)
	})

	t.Run("duplicate ids are selected once", func(t *testing.T) {
		res, err := f.svc.AnalyzeSymptoms(ctx, AnalyzeSymptomsRequest{
			Symptoms: []SymptomInput{{ID: symptom.Cough, Severity: 2}, {ID: symptom.Cough, Severity: 5}},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Öksürük"}, res.Symptoms)
		assert.NotContains(t, res.Triage.Reasons, scoring.ReasonSevereSymptom)
	})

	t.Run("unknown symptom", func(t *testing.T) {
		_, err := f.svc.AnalyzeSymptoms(ctx, AnalyzeSymptomsRequest{Symptoms: []SymptomInput{{ID: "hiccups"}}})
		assert.ErrorIs(t, err, symptom.ErrUnknownSymptom)
	})

	t.Run("severity out of range", func(t *testing.T) {
		_, err := f.svc.AnalyzeSymptoms(ctx, AnalyzeSymptomsRequest{Symptoms: []SymptomInput{{ID: symptom.Cough, Severity: 9}}})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestProfiles(t *testing.T) {
	f := newFixture(t, false, false)
	ctx := context.Background()

	_, err := f.svc.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, profile.ErrNotFound)

	saved, err := f.svc.SaveProfile(ctx, profile.UserProfile{
		UserID:          "u1",
		AgeGroup:        profile.AgeChild,
		ChronicDiseases: []profile.ChronicDisease{profile.ChronicAsthma},
	})
	require.NoError(t, err)
	assert.Equal(t, profile.SexUnspecified, saved.Sex)

	got, err := f.svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, profile.AgeChild, got.AgeGroup)
	assert.True(t, got.HasChronic(profile.ChronicAsthma))

	_, err = f.svc.SaveProfile(ctx, profile.UserProfile{UserID: "u1", AgeGroup: "ELDER"})
	assert.ErrorIs(t, err, profile.ErrInvalid)
}

func TestJournalLifecycle(t *testing.T) {
	f := newFixture(t, false, true)
	ctx := context.Background()

	_, err := f.svc.SaveEntry(ctx, SaveEntryRequest{UserID: "u1"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	first, err := f.svc.SaveEntry(ctx, SaveEntryRequest{
		UserID:   "u1",
		Symptoms: []string{"Ateş", "Öksürük"},
		Results:  []journal.DiseaseProbability{{Name: "flu", Probability: 0.6}, {Name: "cold", Probability: 0.3}},
	})
	require.NoError(t, err)
	second, err := f.svc.SaveEntry(ctx, SaveEntryRequest{
		UserID:    "u1",
		Symptoms:  []string{"Göğüs Ağrısı"},
		Emergency: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f.metrics.entries)
	require.Len(t, f.reports.alerts, 1)
	assert.Equal(t, second.ID, f.reports.alerts[0].ID)

	entries, err := f.svc.ListEntries(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = f.svc.ListEntries(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	stats, err := f.svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.EmergencyEntries)
	require.NotNil(t, stats.TopCondition)
	assert.Equal(t, "flu", stats.TopCondition.Name)

	require.NoError(t, f.svc.ShareEntry(ctx, first.ID))
	require.Len(t, f.reports.sent, 1)
	assert.Equal(t, first.ID, f.reports.sent[0].ID)

	f.reports.err = errors.New("telegram down")
	assert.Error(t, f.svc.ShareEntry(ctx, first.ID))
	assert.Len(t, f.metrics.reports, 2)

	assert.ErrorIs(t, f.svc.ShareEntry(ctx, uuid.New()), journal.ErrNotFound)

	require.NoError(t, f.svc.DeleteEntry(ctx, second.ID))
	_, err = f.svc.GetEntry(ctx, second.ID)
	assert.ErrorIs(t, err, journal.ErrNotFound)
}

func TestSaveEntry_EmergencyAlertFailureKeepsEntry(t *testing.T) {
	f := newFixture(t, false, true)
	f.reports.alertErr = errors.New("telegram down")
	ctx := context.Background()

	e, err := f.svc.SaveEntry(ctx, SaveEntryRequest{UserID: "u1", Symptoms: []string{"Göğüs Ağrısı"}, Emergency: true})
	require.NoError(t, err)
	require.Len(t, f.reports.alerts, 1)

	got, err := f.svc.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, got.Emergency)
	assert.Empty(t, f.reports.sent)
}

func TestShareEntry_Disabled(t *testing.T) {
	f := newFixture(t, false, false)
	ctx := context.Background()

	e, err := f.svc.SaveEntry(ctx, SaveEntryRequest{UserID: "u1", Symptoms: []string{"Ateş"}})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.ShareEntry(ctx, e.ID), ErrReportsDisabled)
}

func TestRules(t *testing.T) {
	f := newFixture(t, false, false)

	rules := f.svc.ListRules()
	require.NotEmpty(t, rules)

	r, err := f.svc.GetRule(rules[0].ID)
	require.NoError(t, err)
	assert.Equal(t, rules[0], *r)

	_, err = f.svc.GetRule("nope")
	assert.ErrorIs(t, err, knowledge.ErrNotFound)

	assert.Len(t, f.svc.ListSymptoms(), len(symptom.DefaultCatalog().All()))
}

func TestService_ListSymptomGroups(t *testing.T) {
	f := newFixture(t, false, false)

	groups := f.svc.ListSymptomGroups()
	require.NotEmpty(t, groups)

	total := 0
	for i, g := range groups {
		if i > 0 {
			assert.Less(t, groups[i-1].Category, g.Category)
		}
		require.NotEmpty(t, g.Symptoms)
		for _, s := range g.Symptoms {
			assert.Equal(t, g.Category, s.Category)
		}
		total += len(g.Symptoms)
	}
	assert.Equal(t, len(f.svc.ListSymptoms()), total)
}
