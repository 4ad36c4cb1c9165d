package syncer

import (
	"github.com/Sarrabentardeit/Auditalex/internal/client/draft"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
)

// PatchFor builds the partial update carrying the given field groups of a.
func PatchFor(a entities.Audit, groups draft.Group) entities.AuditPatch {
	var p entities.AuditPatch
	if groups.Has(draft.GroupHeader) {
		date, address := a.DateExecution, a.Address
		p.DateExecution = &date
		p.Address = &address
	}
	if groups.Has(draft.GroupCategories) {
		cats := entities.CloneCategories(a.Categories)
		if cats == nil {
			cats = []entities.AuditCategory{}
		}
		p.Categories = &cats
	}
	if groups.Has(draft.GroupCorrectiveActions) {
		rows := append([]entities.CorrectiveActionRow{}, a.CorrectiveActions...)
		p.CorrectiveActions = &rows
	}
	if groups.Has(draft.GroupStatus) && a.Status != "" {
		status := a.Status
		p.Status = &status
		if a.CompletedAt != nil {
			t := *a.CompletedAt
			p.CompletedAt = &t
		}
	}
	return p
}
