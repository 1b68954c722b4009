package routing

import "log/slog"

type Route string

const (
	RouteEmployerSponsored Route = "employer_sponsored"
	RouteG2GSpecialist     Route = "g2g_specialist"
)

type Priority string

const (
	PriorityStandard Priority = "standard"
	PriorityHigh     Priority = "high"
)

type Stream string

const (
	StreamSpecialist Stream = "specialist_stream"
	StreamPriority   Stream = "priority_stream"
	StreamStandard   Stream = "standard_stream"
)

const (
	TimelineFast     = "4-6 weeks"
	TimelineStandard = "8-12 weeks"
)

// CountryIndia is the only source country currently recruited from.
const CountryIndia = "india"

// Job categories with dedicated routing.
const (
	CategoryExpertSpecialist = "expert_specialist"
	CategoryConstruction     = "construction"
	CategoryAgriculture      = "agriculture"
)

// DefaultSpecialistExperience is the experience that routes any applicant
// through the G2G specialist channel.
const DefaultSpecialistExperience = 10

// Decision is the routing metadata attached to a submitted application.
type Decision struct {
	Route             Route    `json:"route"`
	Priority          Priority `json:"priority"`
	CountryTag        string   `json:"country_tag"`
	ProcessingStream  Stream   `json:"processing_stream"`
	EstimatedTimeline string   `json:"estimated_timeline"`
	MatchedRules      []string `json:"matched_rules,omitempty"`
}

// Options tune the default rule set.
type Options struct {
	SpecialistExperience int
	PriorityCategories   []string
	Country              string
}

// DefaultOptions returns the production thresholds.
func DefaultOptions() Options {
	return Options{
		SpecialistExperience: DefaultSpecialistExperience,
		PriorityCategories:   []string{CategoryConstruction, CategoryAgriculture},
		Country:              CountryIndia,
	}
}

// DefaultRules builds the ordered rule set. Every rule is evaluated;
// later effects override earlier ones.
func DefaultRules(opts Options) []Rule {
	if opts.SpecialistExperience <= 0 {
		opts.SpecialistExperience = DefaultSpecialistExperience
	}
	if opts.PriorityCategories == nil {
		opts.PriorityCategories = []string{CategoryConstruction, CategoryAgriculture}
	}
	if opts.Country == "" {
		opts.Country = CountryIndia
	}
	priorityCats := CategoryIn{Categories: opts.PriorityCategories}
	specialistCat := CategoryIn{Categories: []string{CategoryExpertSpecialist}}

	return []Rule{
		{
			Name: "default",
			When: Always{},
			Then: []Effect{SetRoute(RouteEmployerSponsored), SetPriority(PriorityStandard), SetStream(StreamStandard)},
		},
		{
			Name: "specialist",
			When: AnyOf{specialistCat, ExperienceAtLeast{Years: opts.SpecialistExperience}},
			Then: []Effect{SetRoute(RouteG2GSpecialist), SetPriority(PriorityHigh)},
		},
		{
			Name: "priority_category",
			When: priorityCats,
			Then: []Effect{SetPriority(PriorityHigh)},
		},
		{
			Name: "priority_stream",
			When: priorityCats,
			Then: []Effect{SetStream(StreamPriority)},
		},
		{
			Name: "specialist_stream",
			When: specialistCat,
			Then: []Effect{SetStream(StreamSpecialist)},
		},
		{
			Name: "country",
			When: Always{},
			Then: []Effect{SetCountry(opts.Country)},
		},
		{
			Name: "timeline",
			When: Always{},
			Then: []Effect{TimelineFromPriority{}},
		},
	}
}

// Classifier evaluates an ordered rule set.
type Classifier struct {
	rules  []Rule
	logger *slog.Logger
}

// NewClassifier creates a Classifier over rules. Nil rules means the
// default rule set.
func NewClassifier(rules []Rule, logger *slog.Logger) *Classifier {
	if rules == nil {
		rules = DefaultRules(DefaultOptions())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{rules: cloneRules(rules), logger: logger}
}

// Classify applies every matching rule in order.
func (c *Classifier) Classify(category string, experienceYears int) Decision {
	s := Subject{Category: category, ExperienceYears: experienceYears}
	var d Decision
	for _, r := range c.rules {
		if !r.When.Match(s) {
			continue
		}
		for _, e := range r.Then {
			e.Apply(&d)
		}
		d.MatchedRules = append(d.MatchedRules, r.Name)
	}
	c.logger.Debug("application routed",
		"category", category,
		"experience_years", experienceYears,
		"route", d.Route,
		"priority", d.Priority,
		"stream", d.ProcessingStream,
	)
	return d
}

// Rules returns a copy of the classifier's rule set in evaluation order.
func (c *Classifier) Rules() []Rule { return cloneRules(c.rules) }

func cloneRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{Name: r.Name, When: r.When, Then: append([]Effect(nil), r.Then...)}
	}
	return out
}

var defaultClassifier = &Classifier{rules: DefaultRules(DefaultOptions()), logger: slog.New(slog.DiscardHandler)}

// Classify routes with the default rule set.
func Classify(category string, experienceYears int) Decision {
	return defaultClassifier.Classify(category, experienceYears)
}
