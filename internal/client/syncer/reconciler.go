// Package syncer moves draft audits to the audit store: critical writes go
// through immediately, field edits are coalesced per audit, placeholder ids
// are swapped for persisted ones and the audit list is reconciled.
package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/client/draft"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/metrics"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultShortWindow  = time.Second
	DefaultLongWindow   = 2500 * time.Millisecond
	DefaultWriteTimeout = 30 * time.Second
)

var ErrNotPersisted = errors.New("audit has no persisted id yet")

// AuditStore is the durable audit store.
type AuditStore interface {
	Create(ctx context.Context, a entities.Audit) (entities.Audit, error)
	Get(ctx context.Context, id string) (entities.Audit, error)
	List(ctx context.Context) ([]entities.Audit, error)
	Update(ctx context.Context, id string, patch entities.AuditPatch) (entities.Audit, error)
	Delete(ctx context.Context, id string) error
}

// LocalStore is draft persistence plus dirty flag bookkeeping.
type LocalStore interface {
	draft.LocalStore
	MarkClean(ctx context.Context, id draft.AuditID, updatedAt time.Time) error
}

type Options struct {
	ShortWindow  time.Duration
	LongWindow   time.Duration
	WriteTimeout time.Duration
	Clock        clockwork.Clock
	Logger       *zap.Logger
}

type pendingWrite struct {
	rec    draft.Record
	groups draft.Group
	window draft.Window
}

type firstWriteResult struct {
	id     draft.AuditID
	audit  entities.Audit
	sentAt time.Time
}

// Reconciler implements draft.Syncer on top of an AuditStore.
type Reconciler struct {
	store   AuditStore
	local   LocalStore
	sched   *Scheduler
	short   time.Duration
	long    time.Duration
	timeout time.Duration
	logger  *zap.Logger

	creates singleflight.Group

	mu       sync.Mutex
	aliases  map[string]string // placeholder key -> persisted key
	pending  map[string]*pendingWrite
	inflight map[string]draft.Group
	dirty    map[string]draft.Group
	locks    map[string]*sync.Mutex
	lastSent map[string]time.Time
	listener draft.Listener

	// attempted holds, per placeholder whose create call failed, the encoded
	// categories that call sent; the server may still have stored them.
	attempted map[string][]byte
}

var _ draft.Syncer = (*Reconciler)(nil)

func New(store AuditStore, local LocalStore, opts Options) *Reconciler {
	if opts.ShortWindow <= 0 {
		opts.ShortWindow = DefaultShortWindow
	}
	if opts.LongWindow <= 0 {
		opts.LongWindow = DefaultLongWindow
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Reconciler{
		store:    store,
		local:    local,
		sched:    NewScheduler(opts.Clock),
		short:    opts.ShortWindow,
		long:     opts.LongWindow,
		timeout:  opts.WriteTimeout,
		logger:   opts.Logger.Named("syncer"),
		aliases:  make(map[string]string),
		pending:  make(map[string]*pendingWrite),
		inflight: make(map[string]draft.Group),
		dirty:    make(map[string]draft.Group),
		locks:    make(map[string]*sync.Mutex),
		lastSent: make(map[string]time.Time),

		attempted: make(map[string][]byte),
	}
}

func (r *Reconciler) SetListener(l draft.Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listener = l
}

func (r *Reconciler) Resolve(id draft.AuditID) draft.AuditID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(id)
}

func (r *Reconciler) resolveLocked(id draft.AuditID) draft.AuditID {
	if id.IsPlaceholder() {
		if key, ok := r.aliases[id.Key()]; ok {
			return draft.Persisted(key)
		}
	}
	return id
}

// Schedule coalesces a write of rec. Each call restarts the quiet window of
// the audit and replaces the record to send; field groups accumulate.
func (r *Reconciler) Schedule(rec draft.Record, window draft.Window, groups draft.Group) {
	r.mu.Lock()
	key := r.resolveLocked(rec.ID).String()
	p, ok := r.pending[key]
	if !ok {
		p = &pendingWrite{}
		r.pending[key] = p
	}
	p.rec = rec.Clone()
	p.groups |= groups
	p.window = window
	r.mu.Unlock()

	r.sched.Schedule(key, r.windowFor(window), func() { r.fire(key) })
}

// Commit writes rec through. Pending and in-flight coalesced groups of the
// same audit ride along, so an older coalesced write can never land after it.
func (r *Reconciler) Commit(ctx context.Context, rec draft.Record, groups draft.Group) (draft.Record, error) {
	r.mu.Lock()
	id := r.resolveLocked(rec.ID)
	keys := []string{rec.ID.String()}
	if id != rec.ID {
		keys = append(keys, id.String())
	}
	for _, k := range keys {
		if p, ok := r.pending[k]; ok {
			groups |= p.groups
			delete(r.pending, k)
		}
		groups |= r.inflight[k]
	}
	r.mu.Unlock()

	for _, k := range keys {
		r.sched.Cancel(k)
	}
	return r.write(ctx, rec, groups, "critical")
}

func (r *Reconciler) fire(key string) {
	r.mu.Lock()
	p, ok := r.pending[key]
	if ok {
		delete(r.pending, key)
		r.inflight[key] |= p.groups
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if _, err := r.write(ctx, p.rec, p.groups, "coalesced"); err != nil {
		r.logger.Warn("coalesced write failed, draft kept locally",
			zap.String("audit_id", p.rec.ID.String()), zap.Error(err))
	}

	r.mu.Lock()
	for _, k := range []string{key, r.resolveLocked(p.rec.ID).String()} {
		if g := r.inflight[k] &^ p.groups; g != 0 {
			r.inflight[k] = g
		} else {
			delete(r.inflight, k)
		}
	}
	r.mu.Unlock()
}

func (r *Reconciler) write(ctx context.Context, rec draft.Record, groups draft.Group, class string) (draft.Record, error) {
	r.mu.Lock()
	id := r.resolveLocked(rec.ID)
	groups |= r.dirty[id.String()]
	delete(r.dirty, id.String())
	r.mu.Unlock()

	var (
		out draft.Record
		err error
	)
	if id.IsPlaceholder() {
		out, err = r.firstWrite(ctx, id, rec)
	} else {
		out, err = r.update(ctx, id, rec, groups)
	}

	if err != nil {
		metrics.SyncWrites.WithLabelValues(class, "error").Inc()
		failed := r.Resolve(rec.ID)
		r.mu.Lock()
		r.dirty[failed.String()] |= groups
		listener := r.listener
		r.mu.Unlock()
		if listener != nil {
			listener.WriteSettled(failed, rec.Audit.UpdatedAt, err)
		}
		return rec, err
	}

	metrics.SyncWrites.WithLabelValues(class, "ok").Inc()
	if err := r.local.MarkClean(ctx, out.ID, rec.Audit.UpdatedAt); err != nil {
		r.logger.Warn("mark local copy clean", zap.String("audit_id", out.ID.String()), zap.Error(err))
	}
	r.mu.Lock()
	listener := r.listener
	r.mu.Unlock()
	if listener != nil {
		listener.WriteSettled(out.ID, rec.Audit.UpdatedAt, nil)
	}
	return out, nil
}

func (r *Reconciler) update(ctx context.Context, id draft.AuditID, rec draft.Record, groups draft.Group) (draft.Record, error) {
	lock := r.lockFor(id.Key())
	lock.Lock()
	defer lock.Unlock()

	out := draft.Record{ID: id, Audit: rec.Audit.Clone()}
	out.Audit.ID = id.Key()

	r.mu.Lock()
	last := r.lastSent[id.Key()]
	r.mu.Unlock()
	if rec.Audit.UpdatedAt.Before(last) {
		r.logger.Debug("stale write superseded", zap.String("audit_id", id.String()))
		return out, nil
	}

	patch := PatchFor(rec.Audit, groups)
	if patch.IsEmpty() {
		return out, nil
	}
	if _, err := r.store.Update(ctx, id.Key(), patch); err != nil {
		return draft.Record{}, fmt.Errorf("update audit %s: %w", id.Key(), err)
	}

	r.mu.Lock()
	if rec.Audit.UpdatedAt.After(r.lastSent[id.Key()]) {
		r.lastSent[id.Key()] = rec.Audit.UpdatedAt
	}
	r.mu.Unlock()
	return out, nil
}

// firstWrite gives a placeholder its persisted id. Concurrent first writes of
// one placeholder share a single round trip; a caller holding a newer record
// than the one sent follows up with an update.
func (r *Reconciler) firstWrite(ctx context.Context, ph draft.AuditID, rec draft.Record) (draft.Record, error) {
	v, err, _ := r.creates.Do(ph.Key(), func() (any, error) {
		if to := r.Resolve(ph); to.IsPersisted() {
			return firstWriteResult{id: to}, nil
		}
		server, err := r.adoptOrCreate(ctx, ph, rec.Audit)
		if err != nil {
			return nil, err
		}
		to := draft.Persisted(server.ID)
		a := r.assign(ctx, ph, to, rec, server)
		return firstWriteResult{id: to, audit: a, sentAt: rec.Audit.UpdatedAt}, nil
	})
	if err != nil {
		return draft.Record{}, err
	}

	res := v.(firstWriteResult)
	if res.sentAt.IsZero() || rec.Audit.UpdatedAt.After(res.sentAt) {
		return r.update(ctx, res.id, rec, draft.AllGroups)
	}
	return draft.Record{ID: res.id, Audit: res.audit}, nil
}

// adoptOrCreate creates the audit. Only when an earlier create of the same
// placeholder failed does it first look for the copy that create may have
// stored: same reconciliation key, same categories as were sent, and not
// claimed by another placeholder.
func (r *Reconciler) adoptOrCreate(ctx context.Context, ph draft.AuditID, a entities.Audit) (entities.Audit, error) {
	r.mu.Lock()
	sent, retry := r.attempted[ph.Key()]
	r.mu.Unlock()

	if retry {
		existing, err := r.store.List(ctx)
		if err != nil {
			return entities.Audit{}, fmt.Errorf("list audits: %w", err)
		}
		if s, ok := r.lostCreate(existing, a.ReconciliationKey(), sent); ok {
			updated, err := r.store.Update(ctx, s.ID, PatchFor(a, draft.AllGroups))
			if err != nil {
				return entities.Audit{}, fmt.Errorf("adopt audit %s: %w", s.ID, err)
			}
			r.logger.Info("adopted audit stored by a failed create", zap.String("server_id", s.ID))
			if updated.ID == "" {
				updated = s
			}
			return updated, nil
		}
	}

	doc := a.Clone()
	doc.ID = ""
	created, err := r.store.Create(ctx, doc)
	if err != nil {
		if enc, encErr := json.Marshal(doc.Categories); encErr == nil {
			r.mu.Lock()
			r.attempted[ph.Key()] = enc
			r.mu.Unlock()
		}
		return entities.Audit{}, fmt.Errorf("create audit: %w", err)
	}
	if created.ID == "" {
		return entities.Audit{}, fmt.Errorf("create audit: empty id returned")
	}
	return created, nil
}

// lostCreate picks the most recently created unclaimed audit with key whose
// categories encode to sent.
func (r *Reconciler) lostCreate(existing []entities.Audit, key string, sent []byte) (entities.Audit, bool) {
	r.mu.Lock()
	claimed := make(map[string]struct{}, len(r.aliases))
	for _, id := range r.aliases {
		claimed[id] = struct{}{}
	}
	r.mu.Unlock()

	var (
		best  entities.Audit
		found bool
	)
	for _, s := range existing {
		if s.ReconciliationKey() != key {
			continue
		}
		if _, ok := claimed[s.ID]; ok {
			continue
		}
		if enc, err := json.Marshal(s.Categories); err != nil || !bytes.Equal(enc, sent) {
			continue
		}
		if !found || s.CreatedAt.After(best.CreatedAt) {
			best, found = s, true
		}
	}
	return best, found
}

// assign records the alias, moves pending work to the persisted id, replaces
// the local placeholder copy and tells the listener.
func (r *Reconciler) assign(ctx context.Context, ph, to draft.AuditID, rec draft.Record, server entities.Audit) entities.Audit {
	a := rec.Audit.Clone()
	a.ID = to.Key()
	if !server.CreatedAt.IsZero() {
		a.CreatedAt = server.CreatedAt
	}
	a.AuditorName, a.AuditorEmail = server.AuditorName, server.AuditorEmail
	a.Synced = true

	oldKey, newKey := ph.String(), to.String()

	r.mu.Lock()
	r.aliases[ph.Key()] = to.Key()
	delete(r.attempted, ph.Key())
	r.lastSent[to.Key()] = rec.Audit.UpdatedAt
	var moved *pendingWrite
	if p, ok := r.pending[oldKey]; ok {
		delete(r.pending, oldKey)
		p.rec.ID = to
		p.rec.Audit.ID = to.Key()
		if cur, ok := r.pending[newKey]; ok {
			cur.groups |= p.groups
		} else {
			r.pending[newKey] = p
		}
		moved = r.pending[newKey]
	}
	if g, ok := r.dirty[oldKey]; ok {
		delete(r.dirty, oldKey)
		r.dirty[newKey] |= g
	}
	if g, ok := r.inflight[oldKey]; ok {
		delete(r.inflight, oldKey)
		r.inflight[newKey] |= g
	}
	listener := r.listener
	r.mu.Unlock()

	if moved != nil {
		r.sched.Cancel(oldKey)
		r.sched.Schedule(newKey, r.windowFor(moved.window), func() { r.fire(newKey) })
	}

	if err := r.local.Delete(ctx, ph); err != nil {
		r.logger.Warn("drop placeholder copy", zap.String("audit_id", oldKey), zap.Error(err))
	}
	if err := r.local.Save(ctx, draft.Record{ID: to, Audit: a, Dirty: moved != nil}); err != nil {
		r.logger.Warn("save persisted copy", zap.String("audit_id", newKey), zap.Error(err))
	}

	metrics.IdentifierSwaps.Inc()
	r.logger.Info("placeholder replaced", zap.String("from", oldKey), zap.String("to", newKey))
	if listener != nil {
		listener.IdentifierAssigned(ph, to)
	}
	return a
}

// Fetch reads the server copy of a persisted audit.
func (r *Reconciler) Fetch(ctx context.Context, id draft.AuditID) (entities.Audit, error) {
	id = r.Resolve(id)
	if !id.IsPersisted() {
		return entities.Audit{}, ErrNotPersisted
	}
	a, err := r.store.Get(ctx, id.Key())
	if err != nil {
		return entities.Audit{}, fmt.Errorf("get audit %s: %w", id.Key(), err)
	}
	return a, nil
}

// Remove drops pending writes of id and deletes the server copy if any.
func (r *Reconciler) Remove(ctx context.Context, id draft.AuditID) error {
	r.mu.Lock()
	resolved := r.resolveLocked(id)
	keys := []string{id.String(), resolved.String()}
	for _, k := range keys {
		delete(r.pending, k)
		delete(r.dirty, k)
	}
	if id.IsPlaceholder() {
		delete(r.attempted, id.Key())
	}
	r.mu.Unlock()
	for _, k := range keys {
		r.sched.Cancel(k)
	}

	if !resolved.IsPersisted() {
		return nil
	}
	if err := r.store.Delete(ctx, resolved.Key()); err != nil {
		return fmt.Errorf("delete audit %s: %w", resolved.Key(), err)
	}
	return nil
}

// Reconcile lists the audits visible to who and purges local copies the
// server made redundant. When the server cannot be reached the visible local
// copies are returned along with the error.
func (r *Reconciler) Reconcile(ctx context.Context, who entities.Identity) ([]draft.Record, error) {
	local, err := r.local.List(ctx)
	if err != nil {
		r.logger.Warn("list local copies", zap.Error(err))
		local = nil
	}

	server, err := r.store.List(ctx)
	if err != nil {
		return VisibleLocal(local, who), fmt.Errorf("list audits: %w", err)
	}

	res := MergeAudits(server, local, who)
	for _, id := range res.Purged {
		if err := r.local.Delete(ctx, id); err != nil {
			r.logger.Warn("purge local copy", zap.String("audit_id", id.String()), zap.Error(err))
			continue
		}
		metrics.LocalCopiesPurged.Inc()
		r.logger.Debug("local copy purged", zap.String("audit_id", id.String()))
	}
	return res.Records, nil
}

// Flush sends every pending coalesced write now.
func (r *Reconciler) Flush() {
	r.sched.Flush()
}

// Stop drops pending coalesced writes. Their local copies stay dirty.
func (r *Reconciler) Stop() {
	r.sched.Stop()
}

func (r *Reconciler) windowFor(w draft.Window) time.Duration {
	if w == draft.WindowLong {
		return r.long
	}
	return r.short
}

func (r *Reconciler) lockFor(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[key]
	if !ok {
		l = &sync.Mutex{}
		r.locks[key] = l
	}
	return l
}
