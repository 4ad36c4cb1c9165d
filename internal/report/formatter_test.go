package report

import (
	"strings"
	"testing"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportAudit() entities.Audit {
	zero, two := 0, 2
	return entities.Audit{
		ID:            "a-1",
		DateExecution: "2026-03-14",
		Address:       "12 rue <Haute>",
		AuditorName:   "Alex",
		Status:        entities.AuditStatusCompleted,
		Categories: []entities.AuditCategory{
			{
				ID:   "cat-0",
				Name: "1. Locaux",
				Items: []entities.AuditItem{
					{ID: "item-0-0", Name: "Sols", Ponderation: 1, Classification: entities.ClassificationMultiple, NonConformities: &two, IsAudited: true,
						Observations: []entities.Observation{{ID: "o1", Text: "Sol | fissuré", CorrectiveAction: "Réparer"}},
						Photos:       []string{"data:image/png;base64,AAAA", "javascript:alert(1)"}},
					{ID: "item-0-1", Name: "Murs", Ponderation: 1, Classification: entities.ClassificationBinary, NonConformities: &zero, IsAudited: true, KO: 1},
				},
			},
			{ID: "cat-1", Name: "2. Stockage", Items: []entities.AuditItem{{ID: "item-1-0", Name: "Froid", Ponderation: 1}}},
		},
	}
}

func TestFormatter_RenderPages(t *testing.T) {
	a := reportAudit()
	doc, err := NewFormatter().Render(a, scoring.Score(a))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 4)
	assert.Equal(t, "Audit 14/03/2026", doc.Title)

	summary := string(doc.Pages[0].HTML)
	assert.Contains(t, summary, "ALEXANN")
	assert.Contains(t, summary, "65,00 %")
	assert.Contains(t, summary, "2 250 €")
	assert.Contains(t, summary, "12 rue &lt;Haute&gt;")

	scores := string(doc.Pages[1].HTML)
	assert.Contains(t, scores, "<table>")
	assert.Contains(t, scores, "65 %")

	details := string(doc.Pages[2].HTML)
	assert.Contains(t, details, "Moyen")
	assert.Contains(t, details, "Conforme")
	assert.Contains(t, details, `<img class="photo" src="data:image/png;base64,AAAA"`)
	assert.NotContains(t, details, "javascript:")
	assert.Contains(t, details, "Sol | fissuré", "escaped pipe must not split the cell")

	plan := string(doc.Pages[3].HTML)
	assert.Contains(t, plan, "Locaux - Sols")
	assert.Contains(t, plan, "Réparer")
}

func TestFormatter_NoAuditedItems(t *testing.T) {
	a := entities.Audit{DateExecution: "2026-03-14", Categories: []entities.AuditCategory{{ID: "c", Name: "C"}}}
	doc, err := NewFormatter().Render(a, scoring.Score(a))
	require.NoError(t, err)

	assert.Contains(t, string(doc.Pages[0].HTML), "Aucun item audité")
	assert.Contains(t, string(doc.Pages[3].HTML), "Aucun écart constaté")
}

func TestDocument_HTMLSeparatesPages(t *testing.T) {
	a := reportAudit()
	doc, err := NewFormatter().Render(a, scoring.Score(a))
	require.NoError(t, err)

	out := doc.HTML()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Equal(t, 4, strings.Count(out, `<section class="page"`))
	assert.Contains(t, out, "page-break-after: always")
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "6 750", formatNumber(6750, 0))
	assert.Equal(t, "85,00", formatNumber(85, 2))
	assert.Equal(t, "1 234 567,5", formatNumber(1234567.5, 1))
	assert.Equal(t, "-12", formatNumber(-12, 0))
	assert.Equal(t, "—", formatPercent(nil, 2))
}
