package routing

import (
	"strconv"
	"strings"
)

// Subject is what the rules look at.
type Subject struct {
	Category        string
	ExperienceYears int
}

// Predicate decides whether a rule applies to a subject.
type Predicate interface {
	Match(s Subject) bool
	String() string
}

// Effect mutates the decision under construction.
type Effect interface {
	Apply(d *Decision)
}

// Rule pairs a predicate with the effects applied when it matches.
type Rule struct {
	Name string
	When Predicate
	Then []Effect
}

// --- Predicates ---

// Always matches every subject.
type Always struct{}

func (Always) Match(Subject) bool { return true }
func (Always) String() string     { return "always" }

// CategoryIn matches when the subject's category is one of Categories.
type CategoryIn struct {
	Categories []string
}

func (c CategoryIn) Match(s Subject) bool {
	cat := NormalizeCategory(s.Category)
	for _, want := range c.Categories {
		if cat == NormalizeCategory(want) {
			return true
		}
	}
	return false
}

func (c CategoryIn) String() string {
	return "category in [" + strings.Join(c.Categories, ",") + "]"
}

// ExperienceAtLeast matches when the subject has at least Years of experience.
type ExperienceAtLeast struct {
	Years int
}

func (e ExperienceAtLeast) Match(s Subject) bool { return s.ExperienceYears >= e.Years }

func (e ExperienceAtLeast) String() string {
	return "experience >= " + strconv.Itoa(e.Years)
}

// AnyOf matches when at least one of its predicates matches.
type AnyOf []Predicate

func (a AnyOf) Match(s Subject) bool {
	for _, p := range a {
		if p.Match(s) {
			return true
		}
	}
	return false
}

func (a AnyOf) String() string {
	parts := make([]string, len(a))
	for i, p := range a {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, " or ") + ")"
}

// --- Effects ---

type SetRoute Route

func (e SetRoute) Apply(d *Decision) { d.Route = Route(e) }

type SetPriority Priority

func (e SetPriority) Apply(d *Decision) { d.Priority = Priority(e) }

type SetStream Stream

func (e SetStream) Apply(d *Decision) { d.ProcessingStream = Stream(e) }

type SetCountry string

func (e SetCountry) Apply(d *Decision) { d.CountryTag = string(e) }

// TimelineFromPriority derives the estimate from the priority decided so far,
// so it belongs at the end of a rule set.
type TimelineFromPriority struct{}

func (TimelineFromPriority) Apply(d *Decision) {
	if d.Priority == PriorityHigh {
		d.EstimatedTimeline = TimelineFast
	} else {
		d.EstimatedTimeline = TimelineStandard
	}
}

// NormalizeCategory lower-cases and trims a category for comparison.
func NormalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
