package scoring

import (
	"log/slog"
	"time"
)

// DefaultMaxScore is the ceiling shown to applicants ("Auto-Score: X/100").
// The factor table itself can add up to 105; see Evaluate.
const DefaultMaxScore = 100

// Clock returns the evaluation instant.
type Clock func() time.Time

// Result captures the complete scoring output for one profile.
type Result struct {
	Total       int            `json:"total"`
	Raw         int            `json:"raw"`
	Capped      bool           `json:"capped"`
	MaxScore    int            `json:"max_score"`
	Factors     []FactorResult `json:"factors"`
	EvaluatedAt time.Time      `json:"evaluated_at"`
}

// Scorer evaluates profiles against an injected clock.
type Scorer struct {
	maxScore int
	clock    Clock
	logger   *slog.Logger
}

// NewScorer creates a Scorer. A non-positive maxScore means
// DefaultMaxScore; a nil clock means time.Now.
func NewScorer(maxScore int, clock Clock, logger *slog.Logger) *Scorer {
	if maxScore <= 0 {
		maxScore = DefaultMaxScore
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{maxScore: maxScore, clock: clock, logger: logger}
}

// Score evaluates p at the scorer's current time.
func (s *Scorer) Score(p *CandidateProfile) Result {
	return s.ScoreAt(p, s.clock())
}

// ScoreAt evaluates p at now.
func (s *Scorer) ScoreAt(p *CandidateProfile, now time.Time) Result {
	r := Evaluate(p, now, s.maxScore)
	if r.Capped {
		s.logger.Debug("score capped", "raw", r.Raw, "total", r.Total)
	}
	return r
}

// Now exposes the scorer's clock so callers can stamp records consistently.
func (s *Scorer) Now() time.Time { return s.clock() }

// Evaluate sums the bucketed factor contributions for p at now and caps
// the total at maxScore. The uncapped sum is kept in Raw.
func Evaluate(p *CandidateProfile, now time.Time, maxScore int) Result {
	if maxScore <= 0 {
		maxScore = DefaultMaxScore
	}
	result := Result{MaxScore: maxScore, EvaluatedAt: now}
	if p == nil {
		p = &CandidateProfile{}
	}

	factors := []FactorResult{
		AgeFactor(p, now),
		ExperienceFactor(p),
		WorkedAbroadFactor(p),
		CertificateFactor(p),
		LanguagesFactor(p),
		PassportFactor(p, now),
		MedicalFactor(p),
		CriminalRecordFactor(p),
	}

	for _, f := range factors {
		result.Raw += f.Points
	}
	result.Factors = factors
	result.Total = clamp(result.Raw, 0, maxScore)
	result.Capped = result.Total < result.Raw
	return result
}

// ComputeScore returns the capped 0–100 score of p at now.
func ComputeScore(p *CandidateProfile, now time.Time) int {
	return Evaluate(p, now, DefaultMaxScore).Total
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
