package response

import (
	"sort"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
)

// AuditResponse is the audit document as the API returns it. Item notes are
// derived and included by entities.AuditItem's JSON encoding.
type AuditResponse struct {
	entities.Audit
}

func FromAudit(a entities.Audit) AuditResponse {
	if a.Categories == nil {
		a.Categories = []entities.AuditCategory{}
	}
	if a.CorrectiveActions == nil {
		a.CorrectiveActions = []entities.CorrectiveActionRow{}
	}
	return AuditResponse{Audit: a}
}

func FromAudits(audits []entities.Audit) []AuditResponse {
	out := make([]AuditResponse, 0, len(audits))
	for _, a := range audits {
		out = append(out, FromAudit(a))
	}
	return out
}

type CategoryScoreResponse struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Score *float64 `json:"score"`
}

// ResultsResponse is the scoring snapshot of one audit.
type ResultsResponse struct {
	AuditID         string                  `json:"audit_id"`
	TotalScore      *float64                `json:"total_score"`
	CategoryScores  []CategoryScoreResponse `json:"category_scores"`
	KnockOutTotal   int                     `json:"knock_out_total"`
	EstimatedFines  float64                 `json:"estimated_fines"`
	HasAuditedItems bool                    `json:"has_audited_items"`
}

// FromResults lists category scores in the audit's category order; scores for
// ids the audit no longer carries are appended sorted by id.
func FromResults(a entities.Audit, r entities.AuditResults) ResultsResponse {
	scores := make([]CategoryScoreResponse, 0, len(r.CategoryScores))
	seen := make(map[string]bool, len(a.Categories))
	for _, c := range a.Categories {
		seen[c.ID] = true
		scores = append(scores, CategoryScoreResponse{ID: c.ID, Name: c.Name, Score: r.CategoryScores[c.ID]})
	}

	var extra []string
	for id := range r.CategoryScores {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		scores = append(scores, CategoryScoreResponse{ID: id, Score: r.CategoryScores[id]})
	}

	return ResultsResponse{
		AuditID:         a.ID,
		TotalScore:      r.TotalScore,
		CategoryScores:  scores,
		KnockOutTotal:   r.KnockOutTotal,
		EstimatedFines:  r.EstimatedFines,
		HasAuditedItems: r.HasAuditedItems,
	}
}

type CatalogResponse struct {
	Categories []entities.AuditCategory `json:"categories"`
}
