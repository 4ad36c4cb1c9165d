// Package draft holds the audit being edited on the client, the derived
// results and the audit list, and hands every change to the sync layer.
package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/catalog"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/scoring"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var (
	ErrDraftInProgress     = errors.New("an audit is already in progress")
	ErrNoCurrentAudit      = errors.New("no current audit")
	ErrInvalidTransition   = errors.New("invalid audit status transition")
	ErrAuditReadOnly       = errors.New("completed audits cannot be edited")
	ErrAuditNotFound       = errors.New("audit not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrObservationNotFound = errors.New("observation not found")
	ErrPhotoNotFound       = errors.New("photo not found")
	ErrEmptyObservation    = errors.New("observation text is empty")
	ErrEmptyPhoto          = errors.New("photo payload is empty")
	ErrInvalidDate         = errors.New("invalid execution date")
	ErrFinishNotConfirmed  = errors.New("audit store did not confirm completion")
	ErrClosed              = errors.New("draft store closed")
)

// DefaultRecomputeDelay debounces results recomputation after edits.
const DefaultRecomputeDelay = 300 * time.Millisecond

// CatalogSource provides blank categories for new audits.
type CatalogSource interface {
	LoadCategories(ctx context.Context) ([]entities.AuditCategory, error)
}

// LocalStore persists records on the device. Every mutation is saved here
// before any network attempt.
type LocalStore interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, id AuditID) (Record, bool, error)
	Delete(ctx context.Context, id AuditID) error
	List(ctx context.Context) ([]Record, error)
}

// Listener is notified by the sync layer. Calls may come from any goroutine.
type Listener interface {
	// IdentifierAssigned reports that placeholder from now lives under to.
	IdentifierAssigned(from, to AuditID)
	// WriteSettled reports the outcome of a write carrying the record state
	// as of updatedAt.
	WriteSettled(id AuditID, updatedAt time.Time, err error)
}

// Syncer decides when and how records reach the audit store.
type Syncer interface {
	// Commit writes through and returns the record under its current id.
	Commit(ctx context.Context, rec Record, groups Group) (Record, error)
	// Schedule coalesces a write; only the latest record within the window is sent.
	Schedule(rec Record, window Window, groups Group)
	// Fetch reads the server copy of a persisted audit.
	Fetch(ctx context.Context, id AuditID) (entities.Audit, error)
	// Remove cancels pending writes and deletes the server copy when there is one.
	Remove(ctx context.Context, id AuditID) error
	// Reconcile returns the audit list visible to who.
	Reconcile(ctx context.Context, who entities.Identity) ([]Record, error)
	// Resolve maps a placeholder to its persisted id once known.
	Resolve(id AuditID) AuditID
	// Flush sends every pending coalesced write now.
	Flush()
	SetListener(l Listener)
}

// Deps are the collaborators of a Store.
type Deps struct {
	Catalog        CatalogSource
	Local          LocalStore
	Sync           Syncer
	Identity       entities.Identity
	Scorer         *scoring.Scorer // nil means scoring.Default
	Clock          clockwork.Clock
	Logger         *zap.Logger
	RecomputeDelay time.Duration
}

// Store is one signed-in session's draft state. Create it at login with New
// and Close it at logout.
type Store struct {
	catalog  CatalogSource
	local    LocalStore
	sync     Syncer
	identity entities.Identity
	scorer   scoring.Scorer
	clock    clockwork.Clock
	logger   *zap.Logger
	delay    time.Duration

	mu        sync.RWMutex
	current   *Record
	results   entities.AuditResults
	summaries []Record
	recompute clockwork.Timer
	closed    bool
}

var _ Listener = (*Store)(nil)

func New(d Deps) *Store {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.RecomputeDelay <= 0 {
		d.RecomputeDelay = DefaultRecomputeDelay
	}
	scorer := scoring.Default()
	if d.Scorer != nil {
		scorer = *d.Scorer
	}
	s := &Store{
		catalog:  d.Catalog,
		local:    d.Local,
		sync:     d.Sync,
		identity: d.Identity,
		scorer:   scorer,
		clock:    d.Clock,
		logger:   d.Logger.Named("draft"),
		delay:    d.RecomputeDelay,
	}
	d.Sync.SetListener(s)
	return s
}

// Current returns a copy of the audit being edited.
func (s *Store) Current() (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Record{}, false
	}
	return s.current.Clone(), true
}

// Summaries returns the last reconciled audit list.
func (s *Store) Summaries() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.summaries))
	for i, r := range s.summaries {
		out[i] = r.Clone()
	}
	return out
}

// Results returns the latest results snapshot of the current audit.
func (s *Store) Results() entities.AuditResults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results
}

// RecomputeNow scores the current audit synchronously.
func (s *Store) RecomputeNow() entities.AuditResults {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recompute != nil {
		s.recompute.Stop()
		s.recompute = nil
	}
	s.rescoreLocked()
	return s.results
}

// Create starts a new in-progress audit from the catalog. It is refused while
// another audit is in progress. A failed first write leaves the audit under
// its placeholder id.
func (s *Store) Create(ctx context.Context, date, address string) (Record, error) {
	if err := s.guardCreate(); err != nil {
		return Record{}, err
	}
	date = strings.TrimSpace(date)
	if _, err := time.Parse(entities.DateLayout, date); err != nil {
		return Record{}, ErrInvalidDate
	}

	cats, err := s.catalog.LoadCategories(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("load catalog: %w", err)
	}

	now := s.clock.Now().UTC()
	rec := Record{
		ID: NewPlaceholder(),
		Audit: entities.Audit{
			AuditorID:         s.identity.ID,
			DateExecution:     date,
			Address:           strings.TrimSpace(address),
			Categories:        cats,
			CorrectiveActions: []entities.CorrectiveActionRow{},
			Status:            entities.AuditStatusInProgress,
			CreatedAt:         now,
			UpdatedAt:         now,
		},
		Dirty: true,
	}

	s.mu.Lock()
	if err := s.guardCreateLocked(); err != nil {
		s.mu.Unlock()
		return Record{}, err
	}
	if err := s.local.Save(ctx, rec); err != nil {
		s.mu.Unlock()
		return Record{}, fmt.Errorf("save draft locally: %w", err)
	}
	cp := rec.Clone()
	s.current = &cp
	s.summaries = append([]Record{rec.Clone()}, s.summaries...)
	s.rescoreLocked()
	s.mu.Unlock()

	if _, err := s.sync.Commit(ctx, rec, AllGroups); err != nil {
		s.logger.Warn("first write failed, audit kept locally",
			zap.String("audit_id", rec.ID.String()), zap.Error(err))
	}

	cur, _ := s.Current()
	return cur, nil
}

func (s *Store) guardCreate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guardCreateLocked()
}

func (s *Store) guardCreateLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.current != nil && s.current.Audit.Status == entities.AuditStatusInProgress {
		s.logger.Info("create refused, an audit is already in progress",
			zap.String("audit_id", s.current.ID.String()))
		return ErrDraftInProgress
	}
	return nil
}

// Load makes id the current audit. A dirty local copy wins over the server
// copy and is flushed; otherwise persisted audits are read from the store
// with their vocabulary refreshed from the catalog.
func (s *Store) Load(ctx context.Context, id AuditID) (Record, error) {
	if s.isClosed() {
		return Record{}, ErrClosed
	}
	id = s.sync.Resolve(id)

	localRec, found, err := s.local.Load(ctx, id)
	if err != nil {
		return Record{}, fmt.Errorf("load local copy: %w", err)
	}

	var rec Record
	switch {
	case id.IsPlaceholder():
		if !found {
			return Record{}, ErrAuditNotFound
		}
		rec = localRec
	case found && localRec.Dirty:
		rec = localRec
	default:
		a, err := s.sync.Fetch(ctx, id)
		if err != nil {
			if !found {
				return Record{}, err
			}
			s.logger.Warn("audit store unreachable, using local copy",
				zap.String("audit_id", id.String()), zap.Error(err))
			rec = localRec
			break
		}
		rec = Record{ID: id, Audit: a}
	}

	if fresh, err := s.catalog.LoadCategories(ctx); err == nil {
		rec.Audit.Categories = catalog.RefreshVocabulary(rec.Audit.Categories, fresh)
	} else {
		s.logger.Warn("catalog unavailable, vocabulary not refreshed", zap.Error(err))
	}

	s.mu.Lock()
	if err := s.local.Save(ctx, rec); err != nil {
		s.logger.Warn("cache audit locally", zap.String("audit_id", id.String()), zap.Error(err))
	}
	cp := rec.Clone()
	s.current = &cp
	s.rescoreLocked()
	s.mu.Unlock()

	if rec.Dirty && rec.Audit.Status == entities.AuditStatusInProgress {
		if _, err := s.sync.Commit(ctx, rec, AllGroups); err != nil {
			s.logger.Warn("flush of dirty audit failed", zap.String("audit_id", id.String()), zap.Error(err))
		}
	}

	cur, _ := s.Current()
	return cur, nil
}

// LoadAll reconciles the audit list. On failure the list falls back to
// whatever the sync layer could still return and the error is reported.
func (s *Store) LoadAll(ctx context.Context) ([]Record, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	recs, err := s.sync.Reconcile(ctx, s.identity)

	s.mu.Lock()
	s.summaries = recs
	s.mu.Unlock()

	if err != nil {
		return s.Summaries(), fmt.Errorf("reconcile audits: %w", err)
	}
	return s.Summaries(), nil
}

// Finish completes the current audit. The current audit is cleared only once
// the audit store reports it completed; on failure it stays in progress.
func (s *Store) Finish(ctx context.Context) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	if s.current == nil {
		s.mu.RUnlock()
		return ErrInvalidTransition
	}
	if s.current.Audit.Status != entities.AuditStatusInProgress {
		s.mu.RUnlock()
		return ErrInvalidTransition
	}
	candidate := s.current.Clone()
	s.mu.RUnlock()

	now := s.clock.Now().UTC()
	candidate.Audit.Status = entities.AuditStatusCompleted
	candidate.Audit.CompletedAt = &now
	candidate.Audit.UpdatedAt = now

	out, err := s.sync.Commit(ctx, candidate, GroupStatus)
	if err != nil {
		return fmt.Errorf("finish audit: %w", err)
	}
	if !out.ID.IsPersisted() {
		return ErrFinishNotConfirmed
	}

	server, err := s.sync.Fetch(ctx, out.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFinishNotConfirmed, err)
	}
	if server.Status != entities.AuditStatusCompleted {
		return ErrFinishNotConfirmed
	}

	s.mu.Lock()
	if err := s.local.Save(ctx, Record{ID: out.ID, Audit: server}); err != nil {
		s.logger.Warn("cache completed audit", zap.String("audit_id", out.ID.String()), zap.Error(err))
	}
	s.current = nil
	s.results = entities.AuditResults{}
	s.mu.Unlock()

	if _, err := s.LoadAll(ctx); err != nil {
		s.logger.Warn("reload after finish failed", zap.Error(err))
	}
	return nil
}

// Delete removes an audit everywhere. The audit store is only called for
// persisted ids.
func (s *Store) Delete(ctx context.Context, id AuditID) error {
	if s.isClosed() {
		return ErrClosed
	}
	resolved := s.sync.Resolve(id)
	if err := s.sync.Remove(ctx, resolved); err != nil {
		return fmt.Errorf("delete audit: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, target := range []AuditID{id, resolved} {
		if err := s.local.Delete(ctx, target); err != nil {
			s.logger.Warn("delete local copy", zap.String("audit_id", target.String()), zap.Error(err))
		}
	}
	kept := s.summaries[:0]
	for _, r := range s.summaries {
		if r.ID != id && r.ID != resolved {
			kept = append(kept, r)
		}
	}
	s.summaries = kept
	if s.current != nil && (s.current.ID == id || s.current.ID == resolved) {
		s.current = nil
		s.results = entities.AuditResults{}
	}
	return nil
}

// GenerateCorrectiveActions returns the corrective action plan derived from
// the current observations merged with saved rows. Nothing is saved.
func (s *Store) GenerateCorrectiveActions() ([]entities.CorrectiveActionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoCurrentAudit
	}
	return s.current.Audit.GenerateCorrectiveActionRows(), nil
}

// Close flushes pending writes and forgets the session state.
func (s *Store) Close(_ context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.recompute != nil {
		s.recompute.Stop()
		s.recompute = nil
	}
	s.current = nil
	s.summaries = nil
	s.results = entities.AuditResults{}
	s.mu.Unlock()

	s.sync.Flush()
	return nil
}

// IdentifierAssigned swaps a placeholder for its persisted id wherever the
// store refers to it.
func (s *Store) IdentifierAssigned(from, to AuditID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.ID == from {
		s.current.ID = to
		s.current.Audit.ID = to.Key()
		ctx := context.Background()
		if err := s.local.Save(ctx, *s.current); err != nil {
			s.logger.Warn("save swapped audit", zap.String("audit_id", to.String()), zap.Error(err))
		}
		if err := s.local.Delete(ctx, from); err != nil {
			s.logger.Warn("drop placeholder copy", zap.String("audit_id", from.String()), zap.Error(err))
		}
	}
	for i := range s.summaries {
		if s.summaries[i].ID == from {
			s.summaries[i].ID = to
			s.summaries[i].Audit.ID = to.Key()
		}
	}
}

// WriteSettled clears the dirty flag once the state it carried is confirmed.
func (s *Store) WriteSettled(id AuditID, updatedAt time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ID != id {
		return
	}
	if err != nil {
		s.current.Dirty = true
		return
	}
	if !s.current.Audit.UpdatedAt.After(updatedAt) {
		s.current.Dirty = false
	}
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Store) rescoreLocked() {
	if s.current == nil {
		s.results = entities.AuditResults{}
		return
	}
	s.results = s.scorer.Score(s.current.Audit)
}

// scheduleRecomputeLocked debounces scoring independently of any write.
func (s *Store) scheduleRecomputeLocked() {
	if s.recompute != nil {
		s.recompute.Stop()
	}
	s.recompute = s.clock.AfterFunc(s.delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		s.rescoreLocked()
	})
}
