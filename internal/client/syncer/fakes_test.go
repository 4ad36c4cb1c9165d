package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/client/draft"
	"github.com/Sarrabentardeit/Auditalex/internal/client/localcache"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var (
	errStoreDown   = errors.New("audit store unreachable")
	errStoreNoSuch = errors.New("no such audit")
	errAnswerLost  = errors.New("connection reset before response")
)

// memStore is an in-memory audit store that records every call.
type memStore struct {
	mu      sync.Mutex
	audits  map[string]entities.Audit
	order   []string
	seq     int
	creates int
	deletes []string
	patches []entities.AuditPatch

	createGate chan struct{}
	loseCreate int // creates that are stored but answered with an error
	failCreate int // creates that fail before anything is stored
	failUpdate bool
	failList   bool
}

func newMemStore(seed ...entities.Audit) *memStore {
	s := &memStore{audits: make(map[string]entities.Audit)}
	for _, a := range seed {
		s.audits[a.ID] = a
		s.order = append(s.order, a.ID)
	}
	return s
}

func (s *memStore) Create(_ context.Context, a entities.Audit) (entities.Audit, error) {
	s.mu.Lock()
	gate := s.createGate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate > 0 {
		s.failCreate--
		return entities.Audit{}, errStoreDown
	}
	s.seq++
	s.creates++
	a.ID = fmt.Sprintf("srv-%d", s.seq)
	a.AuditorName = "Alex Martin"
	s.audits[a.ID] = a
	s.order = append(s.order, a.ID)
	if s.loseCreate > 0 {
		s.loseCreate--
		return entities.Audit{}, errAnswerLost
	}
	return a, nil
}

func (s *memStore) Get(_ context.Context, id string) (entities.Audit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.audits[id]
	if !ok {
		return entities.Audit{}, errStoreNoSuch
	}
	return a.Clone(), nil
}

func (s *memStore) List(_ context.Context) ([]entities.Audit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return nil, errStoreDown
	}
	out := make([]entities.Audit, 0, len(s.order))
	for _, id := range s.order {
		if a, ok := s.audits[id]; ok {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

func (s *memStore) Update(_ context.Context, id string, patch entities.AuditPatch) (entities.Audit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate {
		return entities.Audit{}, errStoreDown
	}
	a, ok := s.audits[id]
	if !ok {
		return entities.Audit{}, errStoreNoSuch
	}
	s.patches = append(s.patches, patch)
	a = patch.Apply(a)
	s.audits[id] = a
	return a.Clone(), nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	delete(s.audits, id)
	return nil
}

func (s *memStore) setFailUpdate(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpdate = v
}

func (s *memStore) setFailList(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failList = v
}

func (s *memStore) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.patches)
}

func (s *memStore) createCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates
}

func (s *memStore) lastPatch() entities.AuditPatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.patches) == 0 {
		return entities.AuditPatch{}
	}
	return s.patches[len(s.patches)-1]
}

func (s *memStore) deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}

type swap struct{ from, to draft.AuditID }

type settled struct {
	id  draft.AuditID
	err error
}

type recordingListener struct {
	mu      sync.Mutex
	swaps   []swap
	settles []settled
}

func (l *recordingListener) IdentifierAssigned(from, to draft.AuditID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.swaps = append(l.swaps, swap{from, to})
}

func (l *recordingListener) WriteSettled(id draft.AuditID, _ time.Time, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settles = append(l.settles, settled{id, err})
}

func (l *recordingListener) swapList() []swap {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]swap(nil), l.swaps...)
}

func (l *recordingListener) failures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, s := range l.settles {
		if s.err != nil {
			n++
		}
	}
	return n
}

type harness struct {
	r        *Reconciler
	store    *memStore
	local    *localcache.DraftRepository
	clock    *clockwork.FakeClock
	listener *recordingListener
}

func newHarness(t *testing.T, seed ...entities.Audit) *harness {
	t.Helper()
	db, err := localcache.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := &harness{
		store:    newMemStore(seed...),
		local:    localcache.NewDraftRepository(db),
		clock:    clockwork.NewFakeClock(),
		listener: &recordingListener{},
	}
	h.r = New(h.store, h.local, Options{Clock: h.clock})
	h.r.SetListener(h.listener)
	t.Cleanup(h.r.Stop)
	return h
}

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func auditFor(id, auditor, address string, status entities.AuditStatus, updated time.Time) entities.Audit {
	return entities.Audit{
		ID:            id,
		AuditorID:     auditor,
		DateExecution: "2026-03-02",
		Address:       address,
		Status:        status,
		Categories: []entities.AuditCategory{{
			ID:   "cat-0",
			Name: "Locaux",
			Items: []entities.AuditItem{{
				ID: "item-0-0", Name: "Sols", Ponderation: 1, Classification: entities.ClassificationMultiple,
			}},
		}},
		CorrectiveActions: []entities.CorrectiveActionRow{},
		CreatedAt:         baseTime,
		UpdatedAt:         updated,
	}
}

func recordFor(id draft.AuditID, address string, updated time.Time) draft.Record {
	return draft.Record{
		ID:    id,
		Audit: auditFor(id.Key(), "u-1", address, entities.AuditStatusInProgress, updated),
		Dirty: true,
	}
}
