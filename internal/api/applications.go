package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/topteen77/indo-israel-sub001/internal/hermes"
	"github.com/topteen77/indo-israel-sub001/internal/metrics"
	"github.com/topteen77/indo-israel-sub001/internal/routing"
	"github.com/topteen77/indo-israel-sub001/internal/scoring"
	"github.com/topteen77/indo-israel-sub001/internal/store"
	"github.com/topteen77/indo-israel-sub001/internal/validator"
)

const maxListLimit = 500

type ApplicationsHandler struct {
	store      store.Store
	hermes     hermes.Client
	scorer     *scoring.Scorer
	classifier *routing.Classifier
	validate   *validator.Validator
	zone       *time.Location
	logger     *slog.Logger
}

// NewApplicationsHandler builds the intake handlers. Zoned form timestamps
// are read as calendar dates in zone, or scoring.DefaultFormZone when nil.
func NewApplicationsHandler(s store.Store, h hermes.Client, sc *scoring.Scorer, c *routing.Classifier, v *validator.Validator, zone *time.Location, logger *slog.Logger) *ApplicationsHandler {
	return &ApplicationsHandler{store: s, hermes: h, scorer: sc, classifier: c, validate: v, zone: zone, logger: logger}
}

// SubmitApplicationRequest is the skilled-worker form payload. Profile
// fields are flattened into the same object, as the form sends them.
type SubmitApplicationRequest struct {
	FullName string `json:"fullName" validate:"required,notblank,max=200"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,phone"`
	Category string `json:"category" validate:"required,notblank,category,max=64"`
	JobTitle string `json:"jobTitle,omitempty" validate:"max=200"`
	Source   string `json:"source,omitempty" validate:"max=64"`
	scoring.ProfileForm
}

// PreviewRequest scores a partially filled form. Nothing is required.
type PreviewRequest struct {
	Category string `json:"category"`
	scoring.ProfileForm
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=submitted under_review shortlisted rejected withdrawn"`
}

type AssessmentResponse struct {
	Score      int              `json:"score"`
	Assessment scoring.Result   `json:"assessment"`
	Routing    routing.Decision `json:"routing"`
}

func (h *ApplicationsHandler) assess(form *scoring.ProfileForm, category string) (scoring.CandidateProfile, scoring.Result, routing.Decision) {
	profile := form.ProfileIn(h.zone)
	result := h.scorer.Score(&profile)
	decision := h.classifier.Classify(category, profile.ExperienceYears)
	return profile, result, decision
}

// Submit validates, scores, routes and stores an application.
// POST /api/v1/applications/israel-skilled-worker
func (h *ApplicationsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Validate(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	profile, result, decision := h.assess(&req.ProfileForm, req.Category)
	app := &store.Application{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Category: routing.NormalizeCategory(req.Category),
		JobTitle: strings.TrimSpace(req.JobTitle),
		Source:   req.Source,
		Profile:  profile,
		Status:   store.StatusSubmitted,
		Score:    result,
		Routing:  decision,
	}

	if err := h.store.CreateApplication(r.Context(), app); err != nil {
		h.logger.Error("failed to store application", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	metrics.ObserveAssessment(string(decision.ProcessingStream), string(decision.Priority), string(decision.Route), result.Total, result.Capped)
	if result.Capped {
		h.logger.Warn("score exceeded maximum", "application_id", app.ID, "raw", result.Raw, "max", result.MaxScore)
	}
	h.logger.Info("application submitted",
		"application_id", app.ID,
		"category", app.Category,
		"score", result.Total,
		"stream", decision.ProcessingStream,
	)

	h.publish(hermes.SubjectApplicationSubmitted(app.ID.String()), "submitted", hermes.ApplicationSubmittedEvent{
		ApplicationID:    app.ID.String(),
		Category:         app.Category,
		Score:            result.Total,
		RawScore:         result.Raw,
		Route:            string(decision.Route),
		Priority:         string(decision.Priority),
		ProcessingStream: string(decision.ProcessingStream),
		CountryTag:       decision.CountryTag,
		Source:           app.Source,
		SubmittedAt:      app.CreatedAt,
	})

	writeJSON(w, http.StatusCreated, app)
}

// Preview scores and routes a form without storing it. Malformed field
// values degrade to the lowest bucket rather than failing.
// POST /api/v1/assessments/preview
func (h *ApplicationsHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	_, result, decision := h.assess(&req.ProfileForm, req.Category)
	writeJSON(w, http.StatusOK, AssessmentResponse{Score: result.Total, Assessment: result, Routing: decision})
}

func (h *ApplicationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ApplicationFilter{
		Category: routing.NormalizeCategory(q.Get("category")),
		Stream:   q.Get("stream"),
		Priority: q.Get("priority"),
		Route:    q.Get("route"),
	}
	if s := q.Get("status"); s != "" {
		status := store.ApplicationStatus(s)
		filter.Status = &status
	}

	var err error
	if filter.MinScore, err = optionalInt(q.Get("min_score")); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid min_score"})
		return
	}
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		return
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
		return
	}

	apps, err := h.store.ListApplications(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if apps == nil {
		apps = []*store.Application{}
	}
	writeJSON(w, http.StatusOK, apps)
}

// Explain returns the per-factor breakdown and matched routing rules.
// GET /api/v1/applications/{id}/explain
func (h *ApplicationsHandler) Explain(w http.ResponseWriter, r *http.Request) {
	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}

	resp := map[string]interface{}{
		"application_id": app.ID,
		"score":          app.Score.Total,
		"raw_score":      app.Score.Raw,
		"capped":         app.Score.Capped,
		"max_score":      app.Score.MaxScore,
		"factors":        app.Score.Factors,
		"scored_at":      app.Score.EvaluatedAt,
		"routing":        app.Routing,
	}
	if app.Score.EvaluatedAt.IsZero() {
		resp["scored_at"] = nil
	} else {
		resp["score_age_seconds"] = int(h.scorer.Now().Sub(app.Score.EvaluatedAt).Seconds())
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus moves an application through review. Closed applications
// are no longer rescored.
// PATCH /api/v1/applications/{id}/status
func (h *ApplicationsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	current, ok := h.loadApplication(w, r)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Validate(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	previous, status := current.Status, store.ApplicationStatus(req.Status)
	app, err := h.store.UpdateStatus(r.Context(), current.ID, status)
	if err != nil {
		h.logger.Error("failed to update status", "application_id", current.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if app == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "application not found"})
		return
	}

	if previous != status {
		h.logger.Info("application status changed",
			"application_id", app.ID,
			"from", previous,
			"to", status,
		)
		h.publish(hermes.SubjectApplicationStatusChanged(app.ID.String()), "status_changed", hermes.ApplicationStatusChangedEvent{
			ApplicationID:  app.ID.String(),
			PreviousStatus: string(previous),
			Status:         string(status),
			ChangedAt:      h.scorer.Now(),
		})
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationsHandler) loadApplication(w http.ResponseWriter, r *http.Request) (*store.Application, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid application id"})
		return nil, false
	}
	app, err := h.store.GetApplication(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	if app == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "application not found"})
		return nil, false
	}
	return app, true
}

func (h *ApplicationsHandler) publish(subject, event string, data interface{}) {
	if h.hermes == nil {
		return
	}
	if err := h.hermes.Publish(subject, data); err != nil {
		metrics.EventPublishFailures.WithLabelValues(event).Inc()
		h.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		for field := range verr.Errors {
			metrics.ValidationFailures.WithLabelValues(field).Inc()
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation failed",
			"fields": verr.Errors,
		})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return n, nil
}

func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := intParam(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
