package hermes

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

var _ Client = (*NATSClient)(nil)

func TestApplicationSubjects(t *testing.T) {
	id := "4b1c2a6e-0f51-4d36-9a4c-1d5c1f0e8a11"
	tests := []struct {
		got, want string
	}{
		{SubjectApplicationSubmitted(id), "recruit.application." + id + ".submitted"},
		{SubjectApplicationRescored(id), "recruit.application." + id + ".rescored"},
		{SubjectApplicationStatusChanged(id), "recruit.application." + id + ".status_changed"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected %s, got %s", tt.want, tt.got)
		}
		if !strings.HasPrefix(tt.got, strings.TrimSuffix(SubjectApplicationsAll, ">")) {
			t.Errorf("subject %s not covered by stream wildcard %s", tt.got, SubjectApplicationsAll)
		}
	}
}

func TestStreamMaxAgeParses(t *testing.T) {
	d, err := time.ParseDuration(StreamMaxAge)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d != 30*24*time.Hour {
		t.Errorf("expected 30 days, got %s", d)
	}
}

func TestSubmittedEventWireFormat(t *testing.T) {
	evt := ApplicationSubmittedEvent{
		ApplicationID:    "abc",
		Category:         "construction",
		Score:            100,
		RawScore:         105,
		Route:            "employer_sponsored",
		Priority:         "high",
		ProcessingStream: "priority_stream",
		CountryTag:       "india",
	}
	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"application_id", "raw_score", "processing_stream", "country_tag"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %s in %s", key, data)
		}
	}
	if _, ok := m["source"]; ok {
		t.Error("empty source should be omitted")
	}
}
