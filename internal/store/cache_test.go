package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topteen77/indo-israel-sub001/internal/routing"
	"github.com/topteen77/indo-israel-sub001/internal/scoring"
)

// countingStore is a map-backed Store that counts reads.
type countingStore struct {
	apps  map[uuid.UUID]*Application
	reads int
}

func newCountingStore() *countingStore {
	return &countingStore{apps: make(map[uuid.UUID]*Application)}
}

func (s *countingStore) CreateApplication(_ context.Context, app *Application) error {
	app.ID = uuid.New()
	app.CreatedAt = time.Now()
	app.UpdatedAt = app.CreatedAt
	cp := *app
	s.apps[app.ID] = &cp
	return nil
}
func (s *countingStore) GetApplication(_ context.Context, id uuid.UUID) (*Application, error) {
	s.reads++
	app, ok := s.apps[id]
	if !ok {
		return nil, nil
	}
	cp := *app
	return &cp, nil
}
func (s *countingStore) ListApplications(_ context.Context, _ ApplicationFilter) ([]*Application, error) {
	return nil, nil
}
func (s *countingStore) UpdateAssessment(_ context.Context, app *Application) error {
	cp := *app
	s.apps[app.ID] = &cp
	return nil
}
func (s *countingStore) UpdateStatus(_ context.Context, id uuid.UUID, status ApplicationStatus) (*Application, error) {
	app, ok := s.apps[id]
	if !ok {
		return nil, nil
	}
	app.Status = status
	cp := *app
	return &cp, nil
}
func (s *countingStore) ListStaleAssessments(_ context.Context, _ time.Time, _ int) ([]*Application, error) {
	return nil, nil
}
func (s *countingStore) GetStats(_ context.Context) (*ApplicationStats, error) { return nil, nil }
func (s *countingStore) Close() error { return nil }

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func testApplication() *Application {
	return &Application{
		FullName: "Ravi Kumar",
		Email:    "ravi@example.com",
		Category: "construction",
		Profile:  scoring.CandidateProfile{ExperienceYears: 6, WorkedAbroad: scoring.AnswerYes},
		Score:    scoring.Result{Total: 25, Raw: 25, MaxScore: 100},
		Routing:  routing.Classify("construction", 6),
	}
}

func TestCachedStoreReadThrough(t *testing.T) {
	ctx := context.Background()
	client, mr := setupRedis(t)
	backing := newCountingStore()
	cs := NewCachedStore(backing, client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	app := testApplication()
	require.NoError(t, backing.CreateApplication(ctx, app))

	got, err := cs.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, backing.reads)
	assert.True(t, mr.Exists(applicationKey(app.ID)))

	got, err = cs.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, backing.reads, "second read should be served from cache")
	assert.Equal(t, "Ravi Kumar", got.FullName)
	assert.Equal(t, scoring.AnswerYes, got.Profile.WorkedAbroad)
	assert.Equal(t, routing.PriorityHigh, got.Routing.Priority)
}

func TestCachedStoreMissIsNotCached(t *testing.T) {
	ctx := context.Background()
	client, mr := setupRedis(t)
	cs := NewCachedStore(newCountingStore(), client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	id := uuid.New()
	got, err := cs.GetApplication(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists(applicationKey(id)))
}

func TestCachedStoreUpdateInvalidates(t *testing.T) {
	ctx := context.Background()
	client, mr := setupRedis(t)
	backing := newCountingStore()
	cs := NewCachedStore(backing, client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	app := testApplication()
	require.NoError(t, cs.CreateApplication(ctx, app))
	assert.True(t, mr.Exists(applicationKey(app.ID)), "create should warm the cache")

	app.Score.Total = 40
	require.NoError(t, cs.UpdateAssessment(ctx, app))
	assert.False(t, mr.Exists(applicationKey(app.ID)))

	got, err := cs.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Score.Total)
}

func TestCachedStoreStatusUpdateInvalidates(t *testing.T) {
	ctx := context.Background()
	client, mr := setupRedis(t)
	backing := newCountingStore()
	cs := NewCachedStore(backing, client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	app := testApplication()
	require.NoError(t, cs.CreateApplication(ctx, app))

	updated, err := cs.UpdateStatus(ctx, app.ID, StatusShortlisted)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.False(t, mr.Exists(applicationKey(app.ID)))

	got, err := cs.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusShortlisted, got.Status)

	missing, err := cs.UpdateStatus(ctx, uuid.New(), StatusRejected)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCachedStoreTTL(t *testing.T) {
	ctx := context.Background()
	client, mr := setupRedis(t)
	cs := NewCachedStore(newCountingStore(), client, 30*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	app := testApplication()
	require.NoError(t, cs.CreateApplication(ctx, app))
	assert.Equal(t, 30*time.Second, mr.TTL(applicationKey(app.ID)))

	mr.FastForward(31 * time.Second)
	assert.False(t, mr.Exists(applicationKey(app.ID)))
}
