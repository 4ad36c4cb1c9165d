package draft

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"

	"github.com/google/uuid"
)

type writeClass uint8

const (
	writeCritical writeClass = iota
	writeShort
	writeLong
)

type change struct {
	groups    Group
	class     writeClass
	recompute bool
	apply     func(a *entities.Audit) error
}

// mutate applies ch to a copy of the current audit, saves it locally and
// then hands it to the sync layer. Only critical writes report network errors.
func (s *Store) mutate(ctx context.Context, ch change) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.current == nil {
		s.mu.Unlock()
		return ErrNoCurrentAudit
	}
	if s.current.Audit.Status == entities.AuditStatusCompleted {
		s.mu.Unlock()
		return ErrAuditReadOnly
	}

	next := s.current.Clone()
	if err := ch.apply(&next.Audit); err != nil {
		s.mu.Unlock()
		return err
	}
	next.Audit.UpdatedAt = s.clock.Now().UTC()
	next.Dirty = true

	if err := s.local.Save(ctx, next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("save draft locally: %w", err)
	}
	s.current = &next
	for i := range s.summaries {
		if s.summaries[i].ID == next.ID {
			s.summaries[i] = next.Clone()
		}
	}
	if ch.recompute {
		s.scheduleRecomputeLocked()
	}
	rec := next.Clone()
	s.mu.Unlock()

	switch ch.class {
	case writeShort:
		s.sync.Schedule(rec, WindowShort, ch.groups)
	case writeLong:
		s.sync.Schedule(rec, WindowLong, ch.groups)
	default:
		if _, err := s.sync.Commit(ctx, rec, ch.groups); err != nil {
			return err
		}
	}
	return nil
}

func onItem(catID, itemID string, fn func(it *entities.AuditItem) error) func(a *entities.Audit) error {
	return func(a *entities.Audit) error {
		for c := range a.Categories {
			if a.Categories[c].ID != catID {
				continue
			}
			for i := range a.Categories[c].Items {
				if a.Categories[c].Items[i].ID == itemID {
					return fn(&a.Categories[c].Items[i])
				}
			}
			return ErrItemNotFound
		}
		return ErrCategoryNotFound
	}
}

// SetNonConformities records the count of an item; nil clears the judgment.
func (s *Store) SetNonConformities(ctx context.Context, catID, itemID string, count *int) error {
	return s.mutate(ctx, change{
		groups:    GroupCategories,
		class:     writeShort,
		recompute: true,
		apply: onItem(catID, itemID, func(it *entities.AuditItem) error {
			if count == nil {
				it.NonConformities = nil
				it.IsAudited = false
				return nil
			}
			n := max(*count, 0)
			it.NonConformities = &n
			it.IsAudited = true
			return nil
		}),
	})
}

// SetKO records the knock-out count of an item and writes it through.
func (s *Store) SetKO(ctx context.Context, catID, itemID string, ko int) error {
	return s.mutate(ctx, change{
		groups:    GroupCategories,
		class:     writeCritical,
		recompute: true,
		apply: onItem(catID, itemID, func(it *entities.AuditItem) error {
			it.KO = max(ko, 0)
			it.IsAudited = true
			return nil
		}),
	})
}

// AddObservation appends an observation and returns its id.
func (s *Store) AddObservation(ctx context.Context, catID, itemID, text, action string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyObservation
	}
	id := uuid.NewString()
	err := s.mutate(ctx, change{
		groups:    GroupCategories,
		class:     writeShort,
		recompute: true,
		apply: onItem(catID, itemID, func(it *entities.AuditItem) error {
			it.Observations = append(it.Observations, entities.Observation{
				ID:               id,
				Text:             text,
				CorrectiveAction: strings.TrimSpace(action),
			})
			it.IsAudited = true
			return nil
		}),
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) RemoveObservation(ctx context.Context, catID, itemID, obsID string) error {
	return s.mutate(ctx, change{
		groups:    GroupCategories,
		class:     writeShort,
		recompute: true,
		apply: onItem(catID, itemID, func(it *entities.AuditItem) error {
			for i, o := range it.Observations {
				if o.ID == obsID {
					it.Observations = append(it.Observations[:i:i], it.Observations[i+1:]...)
					return nil
				}
			}
			return ErrObservationNotFound
		}),
	})
}

// SetObservationAction changes the corrective action of one observation and
// writes it through.
func (s *Store) SetObservationAction(ctx context.Context, catID, itemID, obsID, action string) error {
	return s.mutate(ctx, change{
		groups: GroupCategories,
		class:  writeCritical,
		apply: onItem(catID, itemID, func(it *entities.AuditItem) error {
			for i := range it.Observations {
				if it.Observations[i].ID == obsID {
					it.Observations[i].CorrectiveAction = strings.TrimSpace(action)
					return nil
				}
			}
			return ErrObservationNotFound
		}),
	})
}

func (s *Store) SetComment(ctx context.Context, catID, itemID, text string) error {
	return s.mutate(ctx, change{
		groups: GroupCategories,
		class:  writeLong,
		apply: onItem(catID, itemID, func(it *entities.AuditItem) error {
			it.Comments = text
			return nil
		}),
	})
}

// AddPhoto attaches an encoded image (data URL or http link) to an item.
func (s *Store) AddPhoto(ctx context.Context, catID, itemID, payload string) error {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return ErrEmptyPhoto
	}
	return s.mutate(ctx, change{
		groups: GroupCategories,
		class:  writeShort,
		apply: onItem(catID, itemID, func(it *entities.AuditItem) error {
			it.Photos = append(it.Photos, payload)
			return nil
		}),
	})
}

func (s *Store) RemovePhoto(ctx context.Context, catID, itemID string, index int) error {
	return s.mutate(ctx, change{
		groups: GroupCategories,
		class:  writeShort,
		apply: onItem(catID, itemID, func(it *entities.AuditItem) error {
			if index < 0 || index >= len(it.Photos) {
				return ErrPhotoNotFound
			}
			it.Photos = append(it.Photos[:index:index], it.Photos[index+1:]...)
			return nil
		}),
	})
}

// SetCorrectiveActions saves the corrective action plan and writes it through.
func (s *Store) SetCorrectiveActions(ctx context.Context, rows []entities.CorrectiveActionRow) error {
	return s.mutate(ctx, change{
		groups: GroupCorrectiveActions,
		class:  writeCritical,
		apply: func(a *entities.Audit) error {
			a.CorrectiveActions = append([]entities.CorrectiveActionRow{}, rows...)
			return nil
		},
	})
}

func (s *Store) SetDate(ctx context.Context, date string) error {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(entities.DateLayout, date); err != nil {
		return ErrInvalidDate
	}
	return s.mutate(ctx, change{
		groups: GroupHeader,
		class:  writeShort,
		apply: func(a *entities.Audit) error {
			a.DateExecution = date
			return nil
		},
	})
}

func (s *Store) SetAddress(ctx context.Context, address string) error {
	return s.mutate(ctx, change{
		groups: GroupHeader,
		class:  writeLong,
		apply: func(a *entities.Audit) error {
			a.Address = address
			return nil
		},
	})
}
