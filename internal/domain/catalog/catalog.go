// Package catalog builds audit categories from the reference checklist.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"

	"github.com/spf13/cast"
)

//go:embed catalog.json
var embedded []byte

// Data is the on-disk shape of the checklist.
type Data struct {
	Categories   []CategoryData                          `json:"categories"`
	Observations map[string][]entities.ObservationOption `json:"observations"`
}

type CategoryData struct {
	Name  string     `json:"name"`
	Items []ItemData `json:"items"`
}

// ItemData keeps the weight loosely typed: spreadsheet exports emit it either
// as a number or as a numeric string.
type ItemData struct {
	Name           string `json:"name"`
	Ponderation    any    `json:"ponderation"`
	Classification string `json:"classification,omitempty"`
}

// Source loads the checklist once and hands out copies.
type Source struct {
	raw  []byte
	once sync.Once
	cats []entities.AuditCategory
	err  error
}

// NewSource reads the checklist bundled with the binary.
func NewSource() *Source {
	return &Source{raw: embedded}
}

func NewSourceFromBytes(raw []byte) *Source {
	return &Source{raw: raw}
}

// LoadCategories returns fresh, unaudited categories. Callers own the result.
func (s *Source) LoadCategories(_ context.Context) ([]entities.AuditCategory, error) {
	s.once.Do(func() {
		var data Data
		if err := json.Unmarshal(s.raw, &data); err != nil {
			s.err = fmt.Errorf("catalog: decode: %w", err)
			return
		}
		s.cats, s.err = Build(data)
	})
	if s.err != nil {
		return nil, s.err
	}
	return entities.CloneCategories(s.cats), nil
}

// Build turns raw checklist data into categories with stable ids
// (cat-<c>, item-<c>-<i>).
func Build(data Data) ([]entities.AuditCategory, error) {
	cats := make([]entities.AuditCategory, 0, len(data.Categories))
	for c, cd := range data.Categories {
		items := make([]entities.AuditItem, 0, len(cd.Items))
		for i, id := range cd.Items {
			weight, err := cast.ToFloat64E(id.Ponderation)
			if err != nil {
				return nil, fmt.Errorf("catalog: item %q: ponderation: %w", id.Name, err)
			}
			if weight <= 0 {
				return nil, fmt.Errorf("catalog: item %q: ponderation must be positive", id.Name)
			}

			classification := entities.Classification(strings.TrimSpace(id.Classification))
			if classification != entities.ClassificationBinary {
				classification = entities.ClassificationMultiple
			}

			options := data.Observations[id.Name]
			items = append(items, entities.AuditItem{
				ID:                         fmt.Sprintf("item-%d-%d", c, i),
				Name:                       id.Name,
				Ponderation:                weight,
				Classification:             classification,
				Observations:               []entities.Observation{},
				ObservationOptions:         append([]entities.ObservationOption(nil), options...),
				AvailableObservations:      uniqueSorted(options, func(o entities.ObservationOption) string { return o.Observation }),
				AvailableCorrectiveActions: uniqueSorted(options, func(o entities.ObservationOption) string { return o.Action }),
				Photos:                     []string{},
			})
		}
		cats = append(cats, entities.AuditCategory{
			ID:    fmt.Sprintf("cat-%d", c),
			Name:  cd.Name,
			Items: items,
		})
	}
	return cats, nil
}

// RefreshVocabulary copies the selectable observations and actions of fresh
// onto the items of cats, matching items by name. Judgments are left alone.
func RefreshVocabulary(cats, fresh []entities.AuditCategory) []entities.AuditCategory {
	byName := make(map[string]entities.AuditItem)
	for _, c := range fresh {
		for _, it := range c.Items {
			byName[it.Name] = it
		}
	}

	out := entities.CloneCategories(cats)
	for c := range out {
		for i := range out[c].Items {
			it := &out[c].Items[i]
			ref, ok := byName[it.Name]
			if !ok {
				continue
			}
			it.ObservationOptions = append([]entities.ObservationOption(nil), ref.ObservationOptions...)
			it.AvailableObservations = append([]string(nil), ref.AvailableObservations...)
			it.AvailableCorrectiveActions = append([]string(nil), ref.AvailableCorrectiveActions...)
			if it.KO < 0 {
				it.KO = 0
			}
		}
	}
	return out
}

func uniqueSorted(options []entities.ObservationOption, field func(entities.ObservationOption) string) []string {
	set := make(map[string]struct{}, len(options))
	for _, o := range options {
		if v := strings.TrimSpace(field(o)); v != "" {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
