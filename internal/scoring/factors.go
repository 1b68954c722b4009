package scoring

import (
	"strconv"
	"time"
)

// FactorResult captures one factor's contribution to the total score.
type FactorResult struct {
	Name      string `json:"name"`
	Points    int    `json:"points"`
	MaxPoints int    `json:"max_points"`
	Available bool   `json:"available"`
	Reason    string `json:"reason"`
}

// Factor names, stable for storage and the explain endpoint.
const (
	FactorAge            = "age"
	FactorExperience     = "experience"
	FactorWorkedAbroad   = "worked_abroad"
	FactorCertificate    = "certificate"
	FactorLanguages      = "languages"
	FactorPassport       = "passport_validity"
	FactorMedical        = "no_medical_condition"
	FactorCriminalRecord = "no_criminal_case"
)

// --- Individual factor calculators ---

// AgeFactor buckets the applicant's age at now.
func AgeFactor(p *CandidateProfile, now time.Time) FactorResult {
	r := FactorResult{Name: FactorAge, MaxPoints: 15}
	if p.DateOfBirth == nil {
		r.Reason = "date of birth missing"
		return r
	}
	age := ageAt(*p.DateOfBirth, now)
	r.Available = true
	r.Reason = "age " + strconv.Itoa(age)
	switch {
	case age >= 21 && age <= 45:
		r.Points = 15
	case (age >= 18 && age <= 20) || (age >= 46 && age <= 50):
		r.Points = 10
	default:
		r.Points = 5
	}
	return r
}

// ExperienceFactor rewards years of trade experience; highest bucket wins.
func ExperienceFactor(p *CandidateProfile) FactorResult {
	years := p.ExperienceYears
	r := FactorResult{Name: FactorExperience, MaxPoints: 20, Available: years > 0, Reason: strconv.Itoa(years) + " years"}
	switch {
	case years >= 10:
		r.Points = 20
	case years >= 5:
		r.Points = 15
	case years >= 2:
		r.Points = 10
	case years >= 1:
		r.Points = 5
	}
	return r
}

func WorkedAbroadFactor(p *CandidateProfile) FactorResult {
	return answerFactor(FactorWorkedAbroad, p.WorkedAbroad, AnswerYes, 10)
}

func CertificateFactor(p *CandidateProfile) FactorResult {
	return answerFactor(FactorCertificate, p.HasCertificate, AnswerYes, 15)
}

// LanguagesFactor counts distinct spoken languages.
func LanguagesFactor(p *CandidateProfile) FactorResult {
	n := p.LanguageCount()
	r := FactorResult{Name: FactorLanguages, MaxPoints: 15, Available: n > 0, Reason: strconv.Itoa(n) + " languages"}
	switch {
	case n >= 3:
		r.Points = 15
	case n >= 2:
		r.Points = 10
	case n >= 1:
		r.Points = 5
	}
	return r
}

// PassportFactor scores whole months of passport validity left at now.
func PassportFactor(p *CandidateProfile, now time.Time) FactorResult {
	r := FactorResult{Name: FactorPassport, MaxPoints: 10}
	if p.PassportExpiryDate == nil {
		r.Reason = "passport expiry missing"
		return r
	}
	months := monthsUntil(now, *p.PassportExpiryDate)
	r.Available = true
	r.Reason = strconv.Itoa(months) + " months valid"
	switch {
	case months >= 18:
		r.Points = 10
	case months >= 12:
		r.Points = 5
	}
	return r
}

func MedicalFactor(p *CandidateProfile) FactorResult {
	return answerFactor(FactorMedical, p.MedicalCondition, AnswerNo, 10)
}

func CriminalRecordFactor(p *CandidateProfile) FactorResult {
	return answerFactor(FactorCriminalRecord, p.CriminalCase, AnswerNo, 10)
}

func answerFactor(name string, got, want Answer, points int) FactorResult {
	r := FactorResult{Name: name, MaxPoints: points, Available: got != AnswerUnknown, Reason: "answered " + got.String()}
	if got == want {
		r.Points = points
	}
	return r
}

// ageAt returns completed years between dob and now.
func ageAt(dob, now time.Time) int {
	dy, dm, dd := dob.Date()
	ny, nm, nd := now.Date()
	age := ny - dy
	if nm < dm || (nm == dm && nd < dd) {
		age--
	}
	return age
}

// monthsUntil returns whole calendar months from now until t; negative
// once t has passed.
func monthsUntil(now, t time.Time) int {
	ny, nm, nd := now.Date()
	ty, tm, td := t.Date()
	months := (ty-ny)*12 + int(tm-nm)
	if td < nd {
		months--
	}
	return months
}
