package checker

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symptom-checker/internal/journal"
	"symptom-checker/internal/profile"
)

func newTestServer(t *testing.T, withReports bool) (*httptest.Server, *fixture) {
	t.Helper()
	f := newFixture(t, false, withReports)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		RegisterRoutes(r, NewHandler(f.svc, nil))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, f
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHandler_Catalogs(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/symptoms", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/symptoms?grouped=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	groups := decodeBody[[]SymptomGroup](t, resp)
	require.NotEmpty(t, groups)
	assert.NotEmpty(t, groups[0].Category)
	assert.NotEmpty(t, groups[0].Symptoms)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/rules/grip", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rule := decodeBody[Rule](t, resp)
	assert.Equal(t, []string{"ates", "kas agri"}, rule.MustHaveKeywords)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/rules/unknown", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_AnalyzeText(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/analysis/text", AnalyzeTextRequest{Text: "göğüs ağrısı sol kol terleme"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decodeBody[TextAnalysis](t, resp)
	require.NotEmpty(t, res.Diagnoses)
	assert.Equal(t, "acil_kalp_krizi", res.Diagnoses[0].RuleID)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/analysis/text", `{"text":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_AnalyzeSymptoms(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/analysis/symptoms", AnalyzeSymptomsRequest{
		Symptoms: []SymptomInput{{ID: "fever", Severity: 4}, {ID: "cough", Severity: 3}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decodeBody[SymptomAnalysis](t, resp)
	assert.False(t, res.Triage.Emergency)
	require.NotNil(t, res.Inference)

	probs := map[string]float64{}
	for _, p := range res.Inference.Predictions {
		probs[p.Label] = p.Probability
	}
	assert.Greater(t, probs["flu"], probs["allergy"])

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/analysis/symptoms", AnalyzeSymptomsRequest{
		Symptoms: []SymptomInput{{ID: "hiccups"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeBody[errorResponse](t, resp).Error, "unknown symptom")
}

func TestHandler_Profiles(t *testing.T) {
	srv, _ := newTestServer(t, false)
	url := srv.URL + "/api/profiles/u1"

	resp := doJSON(t, http.MethodGet, url, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, url, map[string]any{
		"user_id":   "ignored",
		"age_group": "SENIOR",
		"allergies": []string{"POLLEN"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decodeBody[profile.UserProfile](t, resp)
	assert.Equal(t, "u1", saved.UserID)

	resp = doJSON(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[profile.UserProfile](t, resp)
	assert.Equal(t, profile.AgeSenior, got.AgeGroup)
	assert.Equal(t, []profile.Allergy{profile.AllergyPollen}, got.Allergies)

	resp = doJSON(t, http.MethodPut, url, map[string]any{"age_group": "TODDLER"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_Journal(t *testing.T) {
	srv, f := newTestServer(t, true)
	base := srv.URL + "/api/journal"

	resp := doJSON(t, http.MethodPost, base, SaveEntryRequest{
		UserID:   "u1",
		Symptoms: []string{"Ateş"},
		Results:  []journal.DiseaseProbability{{Name: "flu", Probability: 0.8}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[journal.Entry](t, resp)

	resp = doJSON(t, http.MethodGet, base+"?user_id=u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]journal.Entry](t, resp), 1)

	resp = doJSON(t, http.MethodGet, base+"/stats?user_id=u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decodeBody[journal.Stats](t, resp).TotalEntries)

	resp = doJSON(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, base+"/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, decodeBody[journal.Entry](t, resp).ID)

	resp = doJSON(t, http.MethodPost, base+"/"+created.ID.String()+"/share", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Len(t, f.reports.sent, 1)

	resp = doJSON(t, http.MethodGet, base+"/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, base+"/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, base+"/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, base, SaveEntryRequest{UserID: "u1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_ShareDisabled(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/journal", SaveEntryRequest{UserID: "u1", Symptoms: []string{"Ateş"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[journal.Entry](t, resp)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/journal/"+created.ID.String()+"/share", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
