// Package scoring turns audit items into category scores, a total score and a
// fine estimate. Every function here is pure and never fails: missing data
// degrades to nil or zero.
package scoring

import (
	"math"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
)

// DefaultFinePerKO is the estimated fine for one knock-out.
const DefaultFinePerKO = 2250.0

// Scorer computes AuditResults. The zero value is not usable; use New or Default.
type Scorer struct {
	FinePerKO float64
}

func New(finePerKO float64) Scorer {
	if finePerKO < 0 {
		finePerKO = 0
	}
	return Scorer{FinePerKO: finePerKO}
}

func Default() Scorer {
	return Scorer{FinePerKO: DefaultFinePerKO}
}

// CategoryScore is the weighted average of the notes of the audited items of
// one category, scaled to 0..100. It returns nil when no item qualifies.
func CategoryScore(items []entities.AuditItem) *float64 {
	var scoreSum, weightSum float64
	for _, it := range items {
		if !it.IsAudited {
			continue
		}
		note, ok := it.Note()
		if !ok {
			continue
		}
		scoreSum += float64(note) * it.Ponderation
		weightSum += it.Ponderation
	}
	if weightSum <= 0 {
		return nil
	}
	score := (scoreSum / weightSum) * 100
	return &score
}

// KnockOutTotal sums KO over audited items only.
func KnockOutTotal(categories []entities.AuditCategory) int {
	total := 0
	for _, c := range categories {
		for _, it := range c.Items {
			if it.IsAudited && it.KO > 0 {
				total += it.KO
			}
		}
	}
	return total
}

// Score folds an audit into its results snapshot.
func (s Scorer) Score(a entities.Audit) entities.AuditResults {
	return s.ScoreCategories(a.Categories)
}

func (s Scorer) ScoreCategories(categories []entities.AuditCategory) entities.AuditResults {
	scores := make(map[string]*float64, len(categories))
	if !hasAuditedItems(categories) {
		return entities.AuditResults{CategoryScores: scores}
	}

	var sum float64
	var n int
	for _, c := range categories {
		score := CategoryScore(c.Items)
		scores[c.ID] = score
		if score != nil {
			sum += *score
			n++
		}
	}

	var total *float64
	if n > 0 {
		v := round2(sum / float64(n))
		total = &v
	}

	ko := KnockOutTotal(categories)
	return entities.AuditResults{
		TotalScore:      total,
		CategoryScores:  scores,
		KnockOutTotal:   ko,
		EstimatedFines:  float64(ko) * s.FinePerKO,
		HasAuditedItems: true,
	}
}

// Score uses the default fine rate.
func Score(a entities.Audit) entities.AuditResults {
	return Default().Score(a)
}

func hasAuditedItems(categories []entities.AuditCategory) bool {
	for _, c := range categories {
		for _, it := range c.Items {
			if it.IsAudited {
				return true
			}
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
