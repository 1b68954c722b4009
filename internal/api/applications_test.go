package api

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/topteen77/indo-israel-sub001/internal/hermes"
	"github.com/topteen77/indo-israel-sub001/internal/routing"
	"github.com/topteen77/indo-israel-sub001/internal/store"
	"github.com/topteen77/indo-israel-sub001/internal/validator"
)

// MockStore implements store.Store for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateApplication(ctx context.Context, app *store.Application) error {
	args := m.Called(ctx, app)
	if args.Error(0) == nil {
		app.ID = uuid.New()
		app.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockStore) GetApplication(ctx context.Context, id uuid.UUID) (*store.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Application), args.Error(1)
}

func (m *MockStore) ListApplications(ctx context.Context, filter store.ApplicationFilter) ([]*store.Application, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Application), args.Error(1)
}

func (m *MockStore) UpdateAssessment(ctx context.Context, app *store.Application) error {
	return m.Called(ctx, app).Error(0)
}

func (m *MockStore) UpdateStatus(ctx context.Context, id uuid.UUID, status store.ApplicationStatus) (*store.Application, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Application), args.Error(1)
}

func (m *MockStore) ListStaleAssessments(ctx context.Context, before time.Time, limit int) ([]*store.Application, error) {
	args := m.Called(ctx, before, limit)
	return args.Get(0).([]*store.Application), args.Error(1)
}

func (m *MockStore) GetStats(ctx context.Context) (*store.ApplicationStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.ApplicationStats), args.Error(1)
}

func (m *MockStore) Close() error { return nil }

// MockHermes implements hermes.Client for testing
type MockHermes struct {
	mock.Mock
}

func (m *MockHermes) Publish(subject string, data interface{}) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

func (m *MockHermes) Close() {}

func newTestHandler(s store.Store, h hermes.Client) *ApplicationsHandler {
	logger := slog.New(slog.DiscardHandler)
	return NewApplicationsHandler(s, h, testScorer(), routing.NewClassifier(nil, logger), validator.New(), nil, logger)
}

func TestSubmitPublishesSubmittedEvent(t *testing.T) {
	mockStore := &MockStore{}
	mockHermes := &MockHermes{}
	handler := newTestHandler(mockStore, mockHermes)

	mockStore.On("CreateApplication", mock.Anything, mock.MatchedBy(func(a *store.Application) bool {
		return a.Category == "agriculture" && a.Routing.Priority == routing.PriorityHigh && a.Status == store.StatusSubmitted
	})).Return(nil)
	mockHermes.On("Publish", mock.MatchedBy(func(subject string) bool {
		return len(subject) > len("recruit.application.")
	}), mock.MatchedBy(func(evt hermes.ApplicationSubmittedEvent) bool {
		return evt.ProcessingStream == string(routing.StreamPriority) && evt.CountryTag == routing.CountryIndia
	})).Return(nil)

	body := `{"fullName":"Meera Singh","email":"meera@example.com","category":"agriculture","experienceYears":3,"workedAbroad":true}`
	req := httptest.NewRequest("POST", "/api/v1/applications/israel-skilled-worker", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	handler.Submit(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	mockStore.AssertExpectations(t)
	mockHermes.AssertExpectations(t)
}

func TestSubmitStoreFailure(t *testing.T) {
	mockStore := &MockStore{}
	mockHermes := &MockHermes{}
	handler := newTestHandler(mockStore, mockHermes)

	mockStore.On("CreateApplication", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	body := `{"fullName":"Meera Singh","email":"meera@example.com","category":"agriculture"}`
	req := httptest.NewRequest("POST", "/api/v1/applications/israel-skilled-worker", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	handler.Submit(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	mockHermes.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestSubmitSurvivesPublishFailure(t *testing.T) {
	mockStore := &MockStore{}
	mockHermes := &MockHermes{}
	handler := newTestHandler(mockStore, mockHermes)

	mockStore.On("CreateApplication", mock.Anything, mock.Anything).Return(nil)
	mockHermes.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nats: timeout"))

	body := `{"fullName":"Meera Singh","email":"meera@example.com","category":"healthcare"}`
	req := httptest.NewRequest("POST", "/api/v1/applications/israel-skilled-worker", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	handler.Submit(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	mockHermes.AssertExpectations(t)
}

func TestSubmitWithoutHermes(t *testing.T) {
	mockStore := &MockStore{}
	handler := newTestHandler(mockStore, nil)

	mockStore.On("CreateApplication", mock.Anything, mock.Anything).Return(nil)

	body := `{"fullName":"Meera Singh","email":"meera@example.com","category":"healthcare"}`
	req := httptest.NewRequest("POST", "/api/v1/applications/israel-skilled-worker", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	handler.Submit(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestListPassesFilter(t *testing.T) {
	mockStore := &MockStore{}
	handler := newTestHandler(mockStore, nil)

	minScore := 40
	mockStore.On("ListApplications", mock.Anything, store.ApplicationFilter{
		Category: "construction",
		Stream:   "priority_stream",
		Priority: "high",
		MinScore: &minScore,
		Limit:    maxListLimit,
		Offset:   20,
	}).Return([]*store.Application{}, nil)

	req := httptest.NewRequest("GET", "/api/v1/applications?category=Construction&stream=priority_stream&priority=high&min_score=40&limit=9999&offset=20", nil)
	rr := httptest.NewRecorder()
	handler.List(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	mockStore.AssertExpectations(t)
}

func TestUpdateStatusStoreFailure(t *testing.T) {
	mockStore := &MockStore{}
	mockHermes := &MockHermes{}
	handler := newTestHandler(mockStore, mockHermes)

	id := uuid.New()
	mockStore.On("GetApplication", mock.Anything, id).Return(&store.Application{ID: id, Status: store.StatusSubmitted}, nil)
	mockStore.On("UpdateStatus", mock.Anything, id, store.StatusWithdrawn).Return(nil, errors.New("connection refused"))

	req := httptest.NewRequest("PATCH", "/api/v1/applications/"+id.String()+"/status", bytes.NewBufferString(`{"status":"withdrawn"}`))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rr := httptest.NewRecorder()
	handler.UpdateStatus(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	mockStore.AssertExpectations(t)
	mockHermes.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestUpdateStatusPublishesTransition(t *testing.T) {
	mockStore := &MockStore{}
	mockHermes := &MockHermes{}
	handler := newTestHandler(mockStore, mockHermes)

	id := uuid.New()
	mockStore.On("GetApplication", mock.Anything, id).Return(&store.Application{ID: id, Status: store.StatusUnderReview}, nil)
	mockStore.On("UpdateStatus", mock.Anything, id, store.StatusRejected).Return(&store.Application{ID: id, Status: store.StatusRejected}, nil)
	mockHermes.On("Publish", hermes.SubjectApplicationStatusChanged(id.String()), mock.MatchedBy(func(evt hermes.ApplicationStatusChangedEvent) bool {
		return evt.PreviousStatus == "under_review" && evt.Status == "rejected" && evt.ChangedAt.Equal(testNow)
	})).Return(nil)

	req := httptest.NewRequest("PATCH", "/api/v1/applications/"+id.String()+"/status", bytes.NewBufferString(`{"status":"rejected"}`))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rr := httptest.NewRecorder()
	handler.UpdateStatus(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	mockHermes.AssertExpectations(t)
}

func TestStatsStoreFailure(t *testing.T) {
	mockStore := &MockStore{}
	handler := NewAdminHandler(mockStore, routing.NewClassifier(nil, nil))

	mockStore.On("GetStats", mock.Anything).Return(nil, errors.New("boom"))

	rr := httptest.NewRecorder()
	handler.Stats(rr, httptest.NewRequest("GET", "/api/v1/stats", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "boom")
}
