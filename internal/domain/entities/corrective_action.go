package entities

import (
	"regexp"
	"strings"
)

var categoryNumbering = regexp.MustCompile(`^\d+\.\s*`)

// GenerateCorrectiveActionRows derives the corrective action plan from the
// observations recorded on the audit.
//
// Rows already saved on the audit win over freshly generated ones, and saved
// rows that no longer match an observation (manual rows) are appended at the end.
func (a Audit) GenerateCorrectiveActionRows() []CorrectiveActionRow {
	saved := make(map[string]CorrectiveActionRow, len(a.CorrectiveActions))
	for _, row := range a.CorrectiveActions {
		saved[row.ID] = row
	}

	rows := make([]CorrectiveActionRow, 0, len(a.CorrectiveActions))
	seen := make(map[string]struct{})
	for _, cat := range a.Categories {
		categoryName := categoryNumbering.ReplaceAllString(cat.Name, "")
		for _, it := range cat.Items {
			for _, obs := range it.Observations {
				if strings.TrimSpace(obs.Text) == "" {
					continue
				}
				id := cat.ID + "-" + it.ID + "-" + obs.ID
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				if row, ok := saved[id]; ok {
					rows = append(rows, row)
					continue
				}
				rows = append(rows, CorrectiveActionRow{
					ID:               id,
					Ecart:            categoryName + " - " + it.Name + "\n" + obs.Text,
					ActionCorrective: obs.CorrectiveAction,
				})
			}
		}
	}

	for _, row := range a.CorrectiveActions {
		if _, ok := seen[row.ID]; ok {
			continue
		}
		seen[row.ID] = struct{}{}
		rows = append(rows, row)
	}
	return rows
}
