package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/topteen77/indo-israel-sub001/internal/routing"
)

//go:embed schema.sql
var schemaSQL string

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the applications table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const applicationColumns = `id, full_name, email, phone, category, job_title, source,
	profile, status,
	score, raw_score, max_score, score_factors, scored_at,
	route, priority, country_tag, processing_stream, estimated_timeline, matched_rules,
	created_at, updated_at`

func (s *PostgresStore) CreateApplication(ctx context.Context, app *Application) error {
	profileJSON, err := json.Marshal(app.Profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	factorsJSON, err := json.Marshal(app.Score.Factors)
	if err != nil {
		return fmt.Errorf("encode score factors: %w", err)
	}
	if app.Status == "" {
		app.Status = StatusSubmitted
	}

	return s.pool.QueryRow(ctx, `
		INSERT INTO skilled_worker_applications (full_name, email, phone, category, job_title, source,
			profile, status,
			score, raw_score, max_score, score_factors, scored_at,
			route, priority, country_tag, processing_stream, estimated_timeline, matched_rules)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at`,
		app.FullName, app.Email, app.Phone, app.Category, app.JobTitle, app.Source,
		profileJSON, app.Status,
		app.Score.Total, app.Score.Raw, app.Score.MaxScore, factorsJSON, app.Score.EvaluatedAt,
		app.Routing.Route, app.Routing.Priority, app.Routing.CountryTag,
		app.Routing.ProcessingStream, app.Routing.EstimatedTimeline, matchedRules(app),
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)
}

func (s *PostgresStore) GetApplication(ctx context.Context, id uuid.UUID) (*Application, error) {
	app, err := scanApplication(s.pool.QueryRow(ctx, `
		SELECT `+applicationColumns+`
		FROM skilled_worker_applications WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

func (s *PostgresStore) ListApplications(ctx context.Context, filter ApplicationFilter) ([]*Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM skilled_worker_applications WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Status != nil {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, string(*filter.Status))
	}
	if filter.Category != "" {
		n++
		query += fmt.Sprintf(" AND category = $%d", n)
		args = append(args, filter.Category)
	}
	if filter.Stream != "" {
		n++
		query += fmt.Sprintf(" AND processing_stream = $%d", n)
		args = append(args, filter.Stream)
	}
	if filter.Priority != "" {
		n++
		query += fmt.Sprintf(" AND priority = $%d", n)
		args = append(args, filter.Priority)
	}
	if filter.Route != "" {
		n++
		query += fmt.Sprintf(" AND route = $%d", n)
		args = append(args, filter.Route)
	}
	if filter.MinScore != nil {
		n++
		query += fmt.Sprintf(" AND score >= $%d", n)
		args = append(args, *filter.MinScore)
	}

	query += " ORDER BY score DESC, created_at ASC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanApplications(rows)
}

func (s *PostgresStore) UpdateAssessment(ctx context.Context, app *Application) error {
	factorsJSON, err := json.Marshal(app.Score.Factors)
	if err != nil {
		return fmt.Errorf("encode score factors: %w", err)
	}
	return s.pool.QueryRow(ctx, `
		UPDATE skilled_worker_applications SET
			score = $2, raw_score = $3, max_score = $4, score_factors = $5, scored_at = $6,
			route = $7, priority = $8, country_tag = $9, processing_stream = $10,
			estimated_timeline = $11, matched_rules = $12,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		app.ID,
		app.Score.Total, app.Score.Raw, app.Score.MaxScore, factorsJSON, app.Score.EvaluatedAt,
		app.Routing.Route, app.Routing.Priority, app.Routing.CountryTag, app.Routing.ProcessingStream,
		app.Routing.EstimatedTimeline, matchedRules(app),
	).Scan(&app.UpdatedAt)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, status ApplicationStatus) (*Application, error) {
	app, err := scanApplication(s.pool.QueryRow(ctx, `
		UPDATE skilled_worker_applications SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+applicationColumns, id, string(status)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

func (s *PostgresStore) ListStaleAssessments(ctx context.Context, scoredBefore time.Time, limit int) ([]*Application, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+applicationColumns+`
		FROM skilled_worker_applications
		WHERE scored_at < $1 AND status IN ('submitted', 'under_review', 'shortlisted')
		ORDER BY scored_at ASC
		LIMIT $2`, scoredBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []*Application
	var skipped []*DecodeError
	for rows.Next() {
		a, err := scanApplication(rows)
		var derr *DecodeError
		if errors.As(err, &derr) {
			skipped = append(skipped, derr)
			continue
		}
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(skipped) > 0 {
		return apps, &SkippedRowsError{Rows: skipped}
	}
	return apps, nil
}

func (s *PostgresStore) GetStats(ctx context.Context) (*ApplicationStats, error) {
	stats := &ApplicationStats{
		ByStream:   map[string]int{},
		ByPriority: map[string]int{},
	}
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(score), 0)
		FROM skilled_worker_applications`,
	).Scan(&stats.Total, &stats.AvgScore)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT processing_stream, priority, COUNT(*)
		FROM skilled_worker_applications
		GROUP BY processing_stream, priority`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var stream, priority string
		var count int
		if err := rows.Scan(&stream, &priority, &count); err != nil {
			return nil, err
		}
		stats.ByStream[stream] += count
		stats.ByPriority[priority] += count
	}
	return stats, rows.Err()
}

func matchedRules(app *Application) []string {
	if app.Routing.MatchedRules == nil {
		return []string{}
	}
	return app.Routing.MatchedRules
}

func scanApplication(row pgx.Row) (*Application, error) {
	a := &Application{}
	var profileJSON, factorsJSON []byte
	var route, priority, stream string
	if err := row.Scan(
		&a.ID, &a.FullName, &a.Email, &a.Phone, &a.Category, &a.JobTitle, &a.Source,
		&profileJSON, &a.Status,
		&a.Score.Total, &a.Score.Raw, &a.Score.MaxScore, &factorsJSON, &a.Score.EvaluatedAt,
		&route, &priority, &a.Routing.CountryTag, &stream, &a.Routing.EstimatedTimeline, &a.Routing.MatchedRules,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Routing.Route = routing.Route(route)
	a.Routing.Priority = routing.Priority(priority)
	a.Routing.ProcessingStream = routing.Stream(stream)
	a.Score.Capped = a.Score.Raw > a.Score.Total
	if profileJSON != nil {
		if err := json.Unmarshal(profileJSON, &a.Profile); err != nil {
			return nil, &DecodeError{ID: a.ID, Column: "profile", Err: err}
		}
	}
	if factorsJSON != nil {
		if err := json.Unmarshal(factorsJSON, &a.Score.Factors); err != nil {
			return nil, &DecodeError{ID: a.ID, Column: "score_factors", Err: err}
		}
	}
	return a, nil
}

func scanApplications(rows pgx.Rows) ([]*Application, error) {
	var apps []*Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}
