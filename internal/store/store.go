package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/topteen77/indo-israel-sub001/internal/routing"
	"github.com/topteen77/indo-israel-sub001/internal/scoring"
)

type ApplicationStatus string

const (
	StatusSubmitted   ApplicationStatus = "submitted"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusRejected    ApplicationStatus = "rejected"
	StatusWithdrawn   ApplicationStatus = "withdrawn"
)

// Application is a submitted skilled-worker application with its assessment.
type Application struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone,omitempty"`
	Category string    `json:"category"`
	JobTitle string    `json:"job_title,omitempty"`
	Source   string    `json:"source,omitempty"`

	Profile scoring.CandidateProfile `json:"profile"`
	Status  ApplicationStatus        `json:"status"`

	// Assessment
	Score   scoring.Result   `json:"score"`
	Routing routing.Decision `json:"routing"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ApplicationFilter struct {
	Status   *ApplicationStatus
	Category string
	Stream   string
	Priority string
	Route    string
	MinScore *int
	Limit    int
	Offset   int
}

type ApplicationStats struct {
	Total      int            `json:"total"`
	AvgScore   float64        `json:"avg_score"`
	ByStream   map[string]int `json:"by_stream"`
	ByPriority map[string]int `json:"by_priority"`
}

type Store interface {
	CreateApplication(ctx context.Context, app *Application) error
	// GetApplication returns (nil, nil) when no application has the id.
	GetApplication(ctx context.Context, id uuid.UUID) (*Application, error)
	ListApplications(ctx context.Context, filter ApplicationFilter) ([]*Application, error)

	// UpdateAssessment persists app.Score and app.Routing.
	UpdateAssessment(ctx context.Context, app *Application) error
	// UpdateStatus moves an application through review and returns the
	// updated row, or (nil, nil) when no application has the id.
	UpdateStatus(ctx context.Context, id uuid.UUID, status ApplicationStatus) (*Application, error)
	// ListStaleAssessments returns open applications scored before the cutoff,
	// oldest first. Rows that fail to decode are left out and reported through
	// a *SkippedRowsError returned alongside the rest.
	ListStaleAssessments(ctx context.Context, scoredBefore time.Time, limit int) ([]*Application, error)

	GetStats(ctx context.Context) (*ApplicationStats, error)

	Close() error
}

// DecodeError reports a stored column that no longer decodes into its Go type.
type DecodeError struct {
	ID     uuid.UUID
	Column string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("application %s: decode %s: %v", e.ID, e.Column, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SkippedRowsError lists the rows a batch listing left out.
type SkippedRowsError struct {
	Rows []*DecodeError
}

func (e *SkippedRowsError) Error() string {
	return fmt.Sprintf("skipped %d undecodable applications, first: %v", len(e.Rows), e.Rows[0])
}

func (e *SkippedRowsError) Unwrap() []error {
	errs := make([]error, len(e.Rows))
	for i, r := range e.Rows {
		errs[i] = r
	}
	return errs
}
