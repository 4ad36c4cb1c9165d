// Package report renders an audit and its results into a paginated HTML
// document. Pages are written in Markdown and converted with goldmark.
package report

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const (
	brandName    = "ALEXANN"
	brandTagline = "Hygiène et qualité agroalimentaire"
)

// Page is one printable page of a report.
type Page struct {
	Title    string
	Markdown string
	HTML     template.HTML
}

// Document is a rendered report.
type Document struct {
	Title string
	Pages []Page
}

// Formatter renders reports. It holds no per-audit state and is safe for
// concurrent use.
type Formatter struct {
	md goldmark.Markdown
}

var documentTpl = template.Must(template.New("report").Parse(documentTemplate))

func NewFormatter() *Formatter {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
	return &Formatter{md: md}
}

// Render builds the summary, category scores, details and corrective plan
// pages. It never mutates a.
func (f *Formatter) Render(a entities.Audit, res entities.AuditResults) (Document, error) {
	doc := Document{Title: "Audit " + formatDate(a.DateExecution)}

	sources := []struct {
		title string
		body  string
	}{
		{"Synthèse", summaryPage(a, res)},
		{"Cartographie des bonnes pratiques d'hygiène", scoresPage(a, res)},
		{"Audit détaillé", detailsPage(a, res)},
		{"Actions correctives attendues", correctivePage(a)},
	}

	for _, s := range sources {
		var buf bytes.Buffer
		if err := f.md.Convert([]byte(s.body), &buf); err != nil {
			return Document{}, fmt.Errorf("render page %q: %w", s.title, err)
		}
		doc.Pages = append(doc.Pages, Page{
			Title:    s.title,
			Markdown: s.body,
			HTML:     template.HTML(buf.String()),
		})
	}
	return doc, nil
}

// HTML returns a standalone document with one section per page and CSS page
// breaks between them.
func (d Document) HTML() string {
	var buf bytes.Buffer
	if err := documentTpl.Execute(&buf, d); err != nil {
		return ""
	}
	return buf.String()
}

func header(title string, a entities.Audit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** · %s\n\n", brandName, brandTagline)
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- **Adresse :** %s\n", orDash(a.Address))
	fmt.Fprintf(&b, "- **Date de l'exécution :** %s\n", formatDate(a.DateExecution))
	if a.AuditorName != "" {
		fmt.Fprintf(&b, "- **Auditeur :** %s\n", escape(a.AuditorName))
	}
	b.WriteString("\n")
	return b.String()
}

func summaryPage(a entities.Audit, res entities.AuditResults) string {
	var b strings.Builder
	b.WriteString(header("Synthèse de l'audit", a))
	fmt.Fprintf(&b, "- **Statut :** %s\n", statusLabel(a.Status))
	if a.CompletedAt != nil {
		fmt.Fprintf(&b, "- **Terminé le :** %s\n", a.CompletedAt.Format("02/01/2006 15:04"))
	}
	b.WriteString("\n")

	if !res.HasAuditedItems {
		b.WriteString("_Aucun item audité pour le moment._\n")
		return b.String()
	}

	b.WriteString("| Indicateur | Valeur |\n|---|---|\n")
	fmt.Fprintf(&b, "| Score total | %s |\n", formatPercent(res.TotalScore, 2))
	fmt.Fprintf(&b, "| Nombre de KO | %d |\n", res.KnockOutTotal)
	fmt.Fprintf(&b, "| Amendes potentielles | %s € |\n", formatNumber(res.EstimatedFines, 0))
	return b.String()
}

func scoresPage(a entities.Audit, res entities.AuditResults) string {
	var b strings.Builder
	b.WriteString(header("Scores par catégorie", a))
	b.WriteString("| Catégorie | Score |\n|---|---:|\n")
	for _, c := range a.Categories {
		fmt.Fprintf(&b, "| %s | %s |\n", cell(c.Name), formatPercent(res.CategoryScores[c.ID], 0))
	}
	fmt.Fprintf(&b, "\n**Score total :** %s\n", formatPercent(res.TotalScore, 2))
	return b.String()
}

func detailsPage(a entities.Audit, res entities.AuditResults) string {
	var b strings.Builder
	b.WriteString(header("Audit détaillé", a))
	for _, c := range a.Categories {
		fmt.Fprintf(&b, "## %s · %s\n\n", escape(c.Name), formatPercent(res.CategoryScores[c.ID], 0))
		b.WriteString("| Item | KO | Note | Commentaires | Actions correctives | Photo(s) |\n")
		b.WriteString("|---|:-:|:-:|---|---|---|\n")
		for _, it := range c.Items {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				cell(it.Name),
				koCell(it),
				noteCell(it),
				cell(itemComments(it)),
				cell(itemActions(it)),
				photosCell(it.Photos),
			)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func correctivePage(a entities.Audit) string {
	var b strings.Builder
	b.WriteString(header("Actions correctives attendues", a))
	rows := a.GenerateCorrectiveActionRows()
	if len(rows) == 0 {
		b.WriteString("_Aucun écart constaté._\n")
		return b.String()
	}
	b.WriteString("| Écarts constatés | Action corrective | Délai | Quand | Visa | Vérification |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			cell(r.Ecart), cell(r.ActionCorrective), cell(r.Delai), cell(r.Quand), cell(r.Visa), cell(r.Verification))
	}
	return b.String()
}

func koCell(it entities.AuditItem) string {
	if it.IsAudited && it.KO > 0 {
		return strconv.Itoa(it.KO)
	}
	return ""
}

func noteCell(it entities.AuditItem) string {
	if !it.IsAudited {
		return "—"
	}
	n, ok := it.Note()
	if !ok {
		return "—"
	}
	return entities.NoteLabel(n)
}

func itemComments(it entities.AuditItem) string {
	parts := make([]string, 0, len(it.Observations)+1)
	for _, o := range it.Observations {
		if t := strings.TrimSpace(o.Text); t != "" {
			parts = append(parts, t)
		}
	}
	if c := strings.TrimSpace(it.Comments); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, "\n")
}

func itemActions(it entities.AuditItem) string {
	parts := make([]string, 0, len(it.Observations))
	for _, o := range it.Observations {
		if t := strings.TrimSpace(o.CorrectiveAction); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func photosCell(photos []string) string {
	var b strings.Builder
	for _, p := range photos {
		if !strings.HasPrefix(p, "data:image/") && !strings.HasPrefix(p, "https://") && !strings.HasPrefix(p, "http://") {
			continue
		}
		fmt.Fprintf(&b, `<img class="photo" src="%s" alt="photo">`, html.EscapeString(p))
	}
	return b.String()
}

// cell escapes text for a GFM table cell.
func cell(s string) string {
	s = escape(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}

func escape(s string) string {
	return html.EscapeString(s)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return escape(s)
}

func statusLabel(s entities.AuditStatus) string {
	switch s {
	case entities.AuditStatusDraft:
		return "Brouillon"
	case entities.AuditStatusInProgress:
		return "En cours"
	case entities.AuditStatusCompleted:
		return "Terminé"
	case entities.AuditStatusArchived:
		return "Archivé"
	default:
		return string(s)
	}
}

func formatDate(date string) string {
	t, err := time.Parse(entities.DateLayout, date)
	if err != nil {
		return orDash(date)
	}
	return t.Format("02/01/2006")
}

func formatPercent(v *float64, decimals int) string {
	if v == nil {
		return "—"
	}
	return formatNumber(*v, decimals) + " %"
}

// formatNumber uses the French convention: space thousands separator and
// comma decimal separator.
func formatNumber(v float64, decimals int) string {
	neg := v < 0
	v = math.Abs(v)
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if frac != "" {
		out += "," + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

const documentTemplate = `<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 11px; color: #1f2937; }
section.page { page-break-after: always; break-after: page; padding: 12mm; }
section.page:last-child { page-break-after: auto; break-after: auto; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #9ca3af; padding: 4px; vertical-align: top; }
th { background: #1e3a8a; color: #fff; }
img.photo { max-width: 60px; max-height: 60px; margin: 2px; }
</style>
</head>
<body>
{{range .Pages}}<section class="page" data-title="{{.Title}}">
{{.HTML}}
</section>
{{end}}</body>
</html>
`
