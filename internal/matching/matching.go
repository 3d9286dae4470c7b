// Package matching explains an externally computed compatibility score with
// a fixed set of weighted criteria.
package matching

import (
	"math"
	"sort"

	"github.com/spigell/assessment-flow/internal/devmatch"
)

type Criterion string

const (
	CriterionSkills      Criterion = "skills"
	CriterionSalary      Criterion = "salary"
	CriterionLocation    Criterion = "location"
	CriterionContract    Criterion = "contract"
	CriterionPreferences Criterion = "preferences"
)

// DefaultScore stands for a criterion the scoring service did not report.
const DefaultScore = 50.0

type criterionDef struct {
	criterion Criterion
	label     string
	weight    int
}

// Weights are fixed and sum to 100.
var criteria = []criterionDef{
	{CriterionSkills, "Skills", 25},
	{CriterionSalary, "Salary", 25},
	{CriterionLocation, "Location / modality", 20},
	{CriterionContract, "Contract type", 15},
	{CriterionPreferences, "Job preferences", 15},
}

// Criteria lists the criteria in display order.
func Criteria() []Criterion {
	out := make([]Criterion, len(criteria))
	for i, c := range criteria {
		out[i] = c.criterion
	}
	return out
}

// Weight returns the weight of c, zero for an unknown criterion.
func Weight(c Criterion) int {
	for _, def := range criteria {
		if def.criterion == c {
			return def.weight
		}
	}
	return 0
}

// Band is a presentation tier. It never feeds back into a score.
type Band int

const (
	BandWeak Band = iota
	BandFair
	BandGood
	BandStrong
)

func (b Band) String() string {
	switch b {
	case BandStrong:
		return "strong"
	case BandGood:
		return "good"
	case BandFair:
		return "fair"
	default:
		return "weak"
	}
}

// BandFor classifies a score after clamping it.
func BandFor(score float64) Band {
	switch s := Clamp(score); {
	case s >= 85:
		return BandStrong
	case s >= 70:
		return BandGood
	case s >= 50:
		return BandFair
	default:
		return BandWeak
	}
}

// Clamp bounds score to [0,100]. NaN becomes 0.
func Clamp(score float64) float64 {
	switch {
	case math.IsNaN(score):
		return 0
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// normalize is the single place a missing criterion becomes DefaultScore.
func normalize(score *float64) (float64, bool) {
	if score == nil || math.IsNaN(*score) || math.IsInf(*score, 0) {
		return DefaultScore, true
	}
	return Clamp(*score), false
}

// Breakdown holds the raw criterion scores. A nil entry is missing.
type Breakdown map[Criterion]*float64

// FromDetails maps the scoring service payload onto criteria.
func FromDetails(d *devmatch.MatchingDetails) Breakdown {
	if d == nil {
		return Breakdown{}
	}
	return Breakdown{
		CriterionSkills:      d.SkillsScore,
		CriterionSalary:      d.SalaryScore,
		CriterionLocation:    d.LocationScore,
		CriterionContract:    d.ContractScore,
		CriterionPreferences: d.PreferencesScore,
	}
}

type CriterionScore struct {
	Criterion Criterion
	Label     string
	Score     float64
	Weight    int
	// Defaulted is set when the score was missing upstream.
	Defaulted bool
	Band      Band
}

// Explanation is the presentable view of one compatibility score.
type Explanation struct {
	Overall  float64
	Band     Band
	Criteria []CriterionScore
	// WeightedSum is the criteria average by weight. It explains Overall and
	// may differ from it.
	WeightedSum   float64
	CommonSkills  []string
	MissingSkills []string
	Strengths     []string
	Suggestions   []string
}

// Explain builds the explanation of overall from the criterion breakdown in
// details, which may be nil.
func Explain(overall float64, details *devmatch.MatchingDetails) Explanation {
	exp := ExplainBreakdown(overall, FromDetails(details))
	if details != nil {
		exp.CommonSkills = details.CommonSkills
		exp.MissingSkills = details.MissingSkills
		exp.Strengths = details.PositiveReasons
		exp.Suggestions = details.ImprovementIdeas
	}
	return exp
}

func ExplainBreakdown(overall float64, b Breakdown) Explanation {
	overall = Clamp(overall)
	exp := Explanation{
		Overall:  overall,
		Band:     BandFor(overall),
		Criteria: make([]CriterionScore, 0, len(criteria)),
	}

	var sum float64
	for _, def := range criteria {
		score, defaulted := normalize(b[def.criterion])
		exp.Criteria = append(exp.Criteria, CriterionScore{
			Criterion: def.criterion,
			Label:     def.label,
			Score:     score,
			Weight:    def.weight,
			Defaulted: defaulted,
			Band:      BandFor(score),
		})
		sum += score * float64(def.weight)
	}
	exp.WeightedSum = sum / 100

	return exp
}

// RankedJob is a compatible job with its explanation.
type RankedJob struct {
	Job         devmatch.JobMatch
	Explanation Explanation
}

// Rank explains matches and orders them by overall score, highest first.
// Equal scores keep their input order.
func Rank(matches []devmatch.JobMatch) []RankedJob {
	out := make([]RankedJob, len(matches))
	for i, m := range matches {
		out[i] = RankedJob{Job: m, Explanation: Explain(m.Compatibility, m.Details)}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Explanation.Overall > out[j].Explanation.Overall
	})
	return out
}
