// seed_applications.go loads applicants from a CSV export and submits them
// through the intake API.
//
// Usage:
//
//	go run scripts/seed_applications.go -csv applicants.csv -api http://localhost:8700
//
// Expected header:
//
//	full_name,email,phone,category,date_of_birth,experience_years,worked_abroad,has_certificate,languages,passport_expiry_date,medical_condition,criminal_case
//
// languages is a ';' separated list.
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/topteen77/indo-israel-sub001/internal/routing"
	"github.com/topteen77/indo-israel-sub001/internal/scoring"
)

type application struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Category string `json:"category"`
	Source   string `json:"source"`
	scoring.ProfileForm
}

func main() {
	csvPath := flag.String("csv", "applicants.csv", "path to applicants CSV")
	apiURL := flag.String("api", "http://localhost:8700", "intake API base URL")
	dryRun := flag.Bool("dry-run", false, "print local assessments without posting")
	flag.Parse()

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	apps, err := readApplications(f)
	if err != nil {
		log.Fatalf("read csv: %v", err)
	}
	log.Printf("parsed %d applicants from %s", len(apps), *csvPath)

	if *dryRun {
		now := time.Now()
		for i, app := range apps {
			profile := app.Profile()
			decision := routing.Classify(app.Category, profile.ExperienceYears)
			fmt.Printf("[%d] %s (category=%s, score=%d, stream=%s, timeline=%s)\n",
				i+1, app.FullName, app.Category, scoring.ComputeScore(&profile, now),
				decision.ProcessingStream, decision.EstimatedTimeline)
		}
		return
	}

	client := &http.Client{Timeout: 10 * time.Second}
	created, skipped := 0, 0
	for _, app := range apps {
		body, _ := json.Marshal(app)
		req, err := http.NewRequest("POST", *apiURL+"/api/v1/applications/israel-skilled-worker", bytes.NewReader(body))
		if err != nil {
			log.Printf("skip %q: %v", app.Email, err)
			skipped++
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("skip %q: %v", app.Email, err)
			skipped++
			continue
		}
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()

		if resp.StatusCode == http.StatusCreated {
			created++
		} else {
			log.Printf("skip %q: status %d: %s", app.Email, resp.StatusCode, strings.TrimSpace(string(msg)))
			skipped++
		}
	}

	log.Printf("done: %d created, %d skipped", created, skipped)
}

func readApplications(r io.Reader) ([]application, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	get := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var apps []application
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		app := application{
			FullName: get(rec, "full_name"),
			Email:    get(rec, "email"),
			Phone:    get(rec, "phone"),
			Category: get(rec, "category"),
			Source:   "seed",
		}
		app.DateOfBirth = scoring.FormText(get(rec, "date_of_birth"))
		app.ExperienceYears = scoring.FormText(get(rec, "experience_years"))
		app.WorkedAbroad = scoring.FormText(get(rec, "worked_abroad"))
		app.HasCertificate = scoring.FormText(get(rec, "has_certificate"))
		app.PassportExpiryDate = scoring.FormText(get(rec, "passport_expiry_date"))
		app.MedicalCondition = scoring.FormText(get(rec, "medical_condition"))
		app.CriminalCase = scoring.FormText(get(rec, "criminal_case"))
		if langs := get(rec, "languages"); langs != "" {
			app.Languages = strings.Split(langs, ";")
		}
		apps = append(apps, app)
	}
	return apps, nil
}
