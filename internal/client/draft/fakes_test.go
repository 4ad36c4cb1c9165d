package draft_test

import (
	"context"
	"sync"
	"testing"

	"github.com/Sarrabentardeit/Auditalex/internal/client/draft"
	"github.com/Sarrabentardeit/Auditalex/internal/client/localcache"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

type commitCall struct {
	rec    draft.Record
	groups draft.Group
}

type scheduleCall struct {
	rec    draft.Record
	window draft.Window
	groups draft.Group
}

// fakeSync records what the store hands to the sync layer.
type fakeSync struct {
	mu        sync.Mutex
	commits   []commitCall
	schedules []scheduleCall
	removes   []draft.AuditID
	flushes   int
	listener  draft.Listener

	commitErr    error
	onCommit     func(rec draft.Record) draft.Record
	server       map[string]entities.Audit
	fetchErr     error
	reconciled   []draft.Record
	reconcileErr error
}

var _ draft.Syncer = (*fakeSync)(nil)

func newFakeSync() *fakeSync {
	return &fakeSync{server: make(map[string]entities.Audit)}
}

func (f *fakeSync) Commit(_ context.Context, rec draft.Record, groups draft.Group) (draft.Record, error) {
	f.mu.Lock()
	f.commits = append(f.commits, commitCall{rec: rec.Clone(), groups: groups})
	err, hook := f.commitErr, f.onCommit
	f.mu.Unlock()
	if err != nil {
		return rec, err
	}
	if hook != nil {
		return hook(rec), nil
	}
	return rec, nil
}

func (f *fakeSync) Schedule(rec draft.Record, window draft.Window, groups draft.Group) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedules = append(f.schedules, scheduleCall{rec: rec.Clone(), window: window, groups: groups})
}

func (f *fakeSync) Fetch(_ context.Context, id draft.AuditID) (entities.Audit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return entities.Audit{}, f.fetchErr
	}
	a, ok := f.server[id.Key()]
	if !ok || !id.IsPersisted() {
		return entities.Audit{}, draft.ErrAuditNotFound
	}
	return a.Clone(), nil
}

func (f *fakeSync) Remove(_ context.Context, id draft.AuditID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes = append(f.removes, id)
	return nil
}

func (f *fakeSync) Reconcile(_ context.Context, _ entities.Identity) ([]draft.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reconciled, f.reconcileErr
}

func (f *fakeSync) Resolve(id draft.AuditID) draft.AuditID { return id }

func (f *fakeSync) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
}

func (f *fakeSync) SetListener(l draft.Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = l
}

func (f *fakeSync) commitCalls() []commitCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]commitCall(nil), f.commits...)
}

func (f *fakeSync) scheduleCalls() []scheduleCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]scheduleCall(nil), f.schedules...)
}

type fakeCatalog struct {
	err error
}

func (c fakeCatalog) LoadCategories(context.Context) ([]entities.AuditCategory, error) {
	if c.err != nil {
		return nil, c.err
	}
	return []entities.AuditCategory{{
		ID:   "cat-0",
		Name: "1. Locaux",
		Items: []entities.AuditItem{
			{ID: "item-0-0", Name: "Sols", Ponderation: 2, Classification: entities.ClassificationMultiple,
				AvailableObservations: []string{"Sols sales"}},
			{ID: "item-0-1", Name: "Murs", Ponderation: 1, Classification: entities.ClassificationMultiple},
		},
	}}, nil
}

type fixture struct {
	store *draft.Store
	sync  *fakeSync
	local *localcache.DraftRepository
	clock *clockwork.FakeClock
}

var auditor = entities.Identity{ID: "u-1", Role: entities.RoleAuditor}

func newFixture(t *testing.T, opts ...func(*draft.Deps)) *fixture {
	t.Helper()
	db, err := localcache.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		sync:  newFakeSync(),
		local: localcache.NewDraftRepository(db),
		clock: clockwork.NewFakeClock(),
	}
	deps := draft.Deps{
		Catalog:  fakeCatalog{},
		Local:    f.local,
		Sync:     f.sync,
		Identity: auditor,
		Clock:    f.clock,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.store = draft.New(deps)
	return f
}

// started returns a fixture with a freshly created placeholder audit.
func started(t *testing.T) (*fixture, draft.Record) {
	t.Helper()
	f := newFixture(t)
	rec, err := f.store.Create(context.Background(), "2026-03-02", "1 rue A")
	require.NoError(t, err)
	return f, rec
}

func serverAudit(id string, status entities.AuditStatus) entities.Audit {
	return entities.Audit{
		ID:            id,
		AuditorID:     "u-1",
		DateExecution: "2026-03-01",
		Address:       "8 quai B",
		Status:        status,
		Categories: []entities.AuditCategory{{
			ID:   "cat-0",
			Name: "1. Locaux",
			Items: []entities.AuditItem{
				{ID: "item-0-0", Name: "Sols", Ponderation: 2, Classification: entities.ClassificationMultiple},
			},
		}},
		CorrectiveActions: []entities.CorrectiveActionRow{},
	}
}
