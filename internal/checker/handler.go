package checker

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"symptom-checker/internal/journal"
	"symptom-checker/internal/knowledge"
	"symptom-checker/internal/profile"
	"symptom-checker/internal/report"
	"symptom-checker/internal/symptom"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	svc    Service
	logger *zap.Logger
}

func NewHandler(svc Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/symptoms", h.ListSymptoms)
	r.Get("/rules", h.ListRules)
	r.Get("/rules/{id}", h.GetRule)

	r.Post("/analysis/text", h.AnalyzeText)
	r.Post("/analysis/symptoms", h.AnalyzeSymptoms)

	r.Get("/profiles/{userID}", h.GetProfile)
	r.Put("/profiles/{userID}", h.SaveProfile)

	r.Route("/journal", func(r chi.Router) {
		r.Post("/", h.SaveEntry)
		r.Get("/", h.ListEntries)
		r.Get("/stats", h.Stats)
		r.Get("/{id}", h.GetEntry)
		r.Delete("/{id}", h.DeleteEntry)
		r.Post("/{id}/share", h.ShareEntry)
	})
}

// ListSymptoms returns the flat catalog, or the catalog grouped by category
// when ?grouped=true.
func (h *Handler) ListSymptoms(w http.ResponseWriter, r *http.Request) {
	if grouped, _ := strconv.ParseBool(r.URL.Query().Get("grouped")); grouped {
		h.respond(w, http.StatusOK, h.svc.ListSymptomGroups())
		return
	}
	h.respond(w, http.StatusOK, h.svc.ListSymptoms())
}

func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, h.svc.ListRules())
}

func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.svc.GetRule(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, rule)
}

func (h *Handler) AnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeTextRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.AnalyzeText(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, res)
}

func (h *Handler) AnalyzeSymptoms(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeSymptomsRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.AnalyzeSymptoms(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, res)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProfile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, p)
}

func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var p profile.UserProfile
	if !h.decode(w, r, &p) {
		return
	}
	p.UserID = chi.URLParam(r, "userID")

	saved, err := h.svc.SaveProfile(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, saved)
}

func (h *Handler) SaveEntry(w http.ResponseWriter, r *http.Request) {
	var req SaveEntryRequest
	if !h.decode(w, r, &req) {
		return
	}
	e, err := h.svc.SaveEntry(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, e)
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListEntries(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, entries)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, stats)
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := h.entryID(w, r)
	if !ok {
		return
	}
	e, err := h.svc.GetEntry(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, e)
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := h.entryID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteEntry(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ShareEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := h.entryID(w, r)
	if !ok {
		return
	}
	if err := h.svc.ShareEntry(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h *Handler) entryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid journal entry ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request")
		return false
	}
	return true
}

// fail maps domain errors to statuses; anything unrecognised is a 500 and
// its detail stays in the log.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		h.respondError(w, status, http.StatusText(status))
		return
	}
	h.respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, symptom.ErrUnknownSymptom),
		errors.Is(err, profile.ErrInvalid),
		errors.Is(err, journal.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, knowledge.ErrNotFound),
		errors.Is(err, profile.ErrNotFound),
		errors.Is(err, journal.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrReportsDisabled),
		errors.Is(err, report.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respond(w, status, errorResponse{Error: msg})
}

func (h *Handler) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}
