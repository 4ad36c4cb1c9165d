package entities

import "encoding/json"

// Observation is a finding recorded on an item, optionally linked to the
// corrective action the auditor picked for it.
type Observation struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	CorrectiveAction string `json:"corrective_action,omitempty"`
}

// ObservationOption is one catalog suggestion (observation + action pair).
type ObservationOption struct {
	Observation string `json:"observation"`
	Action      string `json:"action"`
}

// AuditItem is one checklist line.
//
// The note is never stored: Note() derives it from NonConformities every time,
// and JSON output carries it as a read-only field.
type AuditItem struct {
	ID                         string              `json:"id"`
	Name                       string              `json:"name"`
	Ponderation                float64             `json:"ponderation"`
	Classification             Classification      `json:"classification"`
	NonConformities            *int                `json:"non_conformities"`
	KO                         int                 `json:"ko"`
	IsAudited                  bool                `json:"is_audited"`
	Observations               []Observation       `json:"observations"`
	ObservationOptions         []ObservationOption `json:"observation_options,omitempty"`
	AvailableObservations      []string            `json:"available_observations,omitempty"`
	AvailableCorrectiveActions []string            `json:"available_corrective_actions,omitempty"`
	Photos                     []string            `json:"photos"`
	Comments                   string              `json:"comments"`
}

// Note returns the item's note and false when the item has no count yet.
func (i AuditItem) Note() (Note, bool) {
	return ConvertNonConformitiesToNote(i.Classification, i.NonConformities)
}

type auditItemFields AuditItem

func (i AuditItem) MarshalJSON() ([]byte, error) {
	var note *float64
	if n, ok := i.Note(); ok {
		v := float64(n)
		note = &v
	}
	return json.Marshal(struct {
		auditItemFields
		Note *float64 `json:"note"`
	}{auditItemFields(i), note})
}

// Clone returns a deep copy so callers can mutate slices freely.
func (i AuditItem) Clone() AuditItem {
	out := i
	if i.NonConformities != nil {
		n := *i.NonConformities
		out.NonConformities = &n
	}
	out.Observations = append([]Observation(nil), i.Observations...)
	out.ObservationOptions = append([]ObservationOption(nil), i.ObservationOptions...)
	out.AvailableObservations = append([]string(nil), i.AvailableObservations...)
	out.AvailableCorrectiveActions = append([]string(nil), i.AvailableCorrectiveActions...)
	out.Photos = append([]string(nil), i.Photos...)
	return out
}

// AuditCategory groups items; the grouping comes from the catalog.
type AuditCategory struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Items []AuditItem `json:"items"`
}

func CloneCategories(cats []AuditCategory) []AuditCategory {
	if cats == nil {
		return nil
	}
	out := make([]AuditCategory, len(cats))
	for c, cat := range cats {
		items := make([]AuditItem, len(cat.Items))
		for i, it := range cat.Items {
			items[i] = it.Clone()
		}
		out[c] = AuditCategory{ID: cat.ID, Name: cat.Name, Items: items}
	}
	return out
}
