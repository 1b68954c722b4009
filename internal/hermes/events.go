package hermes

import "time"

type ApplicationSubmittedEvent struct {
	ApplicationID    string    `json:"application_id"`
	Category         string    `json:"category"`
	Score            int       `json:"score"`
	RawScore         int       `json:"raw_score"`
	Route            string    `json:"route"`
	Priority         string    `json:"priority"`
	ProcessingStream string    `json:"processing_stream"`
	CountryTag       string    `json:"country_tag"`
	Source           string    `json:"source,omitempty"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

type ApplicationRescoredEvent struct {
	ApplicationID    string    `json:"application_id"`
	PreviousScore    int       `json:"previous_score"`
	Score            int       `json:"score"`
	ProcessingStream string    `json:"processing_stream"`
	Priority         string    `json:"priority"`
	RescoredAt       time.Time `json:"rescored_at"`
}

type ApplicationStatusChangedEvent struct {
	ApplicationID  string    `json:"application_id"`
	PreviousStatus string    `json:"previous_status"`
	Status         string    `json:"status"`
	ChangedAt      time.Time `json:"changed_at"`
}

type StatsEvent struct {
	Total      int            `json:"total"`
	AvgScore   float64        `json:"avg_score"`
	ByStream   map[string]int `json:"by_stream"`
	ByPriority map[string]int `json:"by_priority"`
	Timestamp  time.Time      `json:"timestamp"`
}
