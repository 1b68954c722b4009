package scoring

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Answer is a tri-state form answer. The zero value is AnswerUnknown.
type Answer int

const (
	AnswerUnknown Answer = iota
	AnswerYes
	AnswerNo
)

// ParseAnswer maps a raw form value onto an Answer. It never fails:
// anything it does not recognise is AnswerUnknown.
func ParseAnswer(s string) Answer {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return AnswerYes
	case "no", "n", "false", "0":
		return AnswerNo
	default:
		return AnswerUnknown
	}
}

func (a Answer) String() string {
	switch a {
	case AnswerYes:
		return "yes"
	case AnswerNo:
		return "no"
	default:
		return "unknown"
	}
}

func (a Answer) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Answer) UnmarshalText(b []byte) error {
	*a = ParseAnswer(string(b))
	return nil
}

// CandidateProfile is the normalized snapshot of an applicant's form that
// the engine scores.
type CandidateProfile struct {
	DateOfBirth        *time.Time `json:"date_of_birth,omitempty"`
	ExperienceYears    int        `json:"experience_years"`
	WorkedAbroad       Answer     `json:"worked_abroad"`
	HasCertificate     Answer     `json:"has_certificate"`
	Languages          []string   `json:"languages,omitempty"`
	PassportExpiryDate *time.Time `json:"passport_expiry_date,omitempty"`
	MedicalCondition   Answer     `json:"medical_condition"`
	CriminalCase       Answer     `json:"criminal_case"`
}

// LanguageCount returns the number of distinct non-blank languages,
// compared case-insensitively.
func (p *CandidateProfile) LanguageCount() int {
	seen := make(map[string]struct{}, len(p.Languages))
	for _, l := range p.Languages {
		key := strings.ToLower(strings.TrimSpace(l))
		if key == "" {
			continue
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}

// FormText is a scalar form value. Form widgets send strings, numbers and
// booleans interchangeably; all of them decode to their text.
type FormText string

func (t *FormText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*t = ""
			return nil
		}
		*t = FormText(s)
		return nil
	}
	*t = FormText(data)
	return nil
}

// ProfileForm is the raw shape posted by the application form.
type ProfileForm struct {
	DateOfBirth        FormText `json:"dateOfBirth"`
	ExperienceYears    FormText `json:"experienceYears"`
	WorkedAbroad       FormText `json:"workedAbroad"`
	HasCertificate     FormText `json:"hasCertificate"`
	Languages          []string `json:"languages"`
	PassportExpiryDate FormText `json:"passportExpiryDate"`
	MedicalCondition   FormText `json:"medicalCondition"`
	CriminalCase       FormText `json:"criminalCase"`
}

// Profile normalizes the form with dates read in DefaultFormZone.
func (f *ProfileForm) Profile() CandidateProfile {
	return f.ProfileIn(nil)
}

// ProfileIn normalizes the form, reading timestamp dates in loc (nil means
// DefaultFormZone). Malformed values degrade to their zero contribution
// instead of failing.
func (f *ProfileForm) ProfileIn(loc *time.Location) CandidateProfile {
	p := CandidateProfile{
		DateOfBirth:        ParseDateIn(string(f.DateOfBirth), loc),
		ExperienceYears:    ParseExperience(string(f.ExperienceYears)),
		WorkedAbroad:       ParseAnswer(string(f.WorkedAbroad)),
		HasCertificate:     ParseAnswer(string(f.HasCertificate)),
		PassportExpiryDate: ParseDateIn(string(f.PassportExpiryDate), loc),
		MedicalCondition:   ParseAnswer(string(f.MedicalCondition)),
		CriminalCase:       ParseAnswer(string(f.CriminalCase)),
	}
	for _, l := range f.Languages {
		if l = strings.TrimSpace(l); l != "" {
			p.Languages = append(p.Languages, l)
		}
	}
	return p
}

// DefaultFormZone is India Standard Time. Browsers serialize a date picked
// at local midnight as the previous evening in UTC, so zoned timestamps are
// moved into this zone before the time of day is dropped.
var DefaultFormZone = time.FixedZone("IST", 5*60*60+30*60)

var dateLayouts = []struct {
	layout string
	zoned  bool
}{
	{"2006-01-02", false},
	{time.RFC3339, true},
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05", false},
	{"02/01/2006", false},
}

// ParseDate is ParseDateIn with DefaultFormZone.
func ParseDate(s string) *time.Time {
	return ParseDateIn(s, nil)
}

// ParseDateIn accepts ISO dates, RFC 3339 timestamps and dd/mm/yyyy and
// returns the calendar date at UTC midnight. Zoned timestamps take their
// date in loc (nil means DefaultFormZone). It returns nil for blank or
// unparseable input.
func ParseDateIn(s string, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if loc == nil {
		loc = DefaultFormZone
	}
	for _, l := range dateLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		if l.zoned {
			t = t.In(loc)
		}
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}
	return nil
}

// ParseExperience extracts the leading integer from free text such as
// "5", "5 years" or "+10". Non-numeric and negative input yields 0.
func ParseExperience(s string) int {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	n := 0
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		digits++
		n = n*10 + int(r-'0')
		if n > 1000 {
			// Absurd values are still "lots of experience"; stop before overflow.
			return 1000
		}
	}
	if digits == 0 {
		return 0
	}
	return n
}
