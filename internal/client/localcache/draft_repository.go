package localcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/client/draft"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
)

var ErrUnknownKind = errors.New("unknown draft id kind")

// DraftRepository stores draft records as JSON documents keyed by id kind
// and key.
type DraftRepository struct {
	db *DB
}

var _ draft.LocalStore = (*DraftRepository)(nil)

func NewDraftRepository(db *DB) *DraftRepository {
	return &DraftRepository{db: db}
}

func (r *DraftRepository) Save(ctx context.Context, rec draft.Record) error {
	if rec.ID.IsZero() {
		return fmt.Errorf("save draft: empty id")
	}
	doc, err := json.Marshal(rec.Audit)
	if err != nil {
		return fmt.Errorf("encode draft %s: %w", rec.ID, err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO drafts (kind, key, owner_id, status, document, dirty, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(kind, key) DO UPDATE SET
    owner_id = excluded.owner_id,
    status = excluded.status,
    document = excluded.document,
    dirty = excluded.dirty,
    updated_at = excluded.updated_at`,
		rec.ID.Kind().String(), rec.ID.Key(), rec.Audit.AuditorID, string(rec.Audit.Status),
		string(doc), boolToInt(rec.Dirty), rec.Audit.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save draft %s: %w", rec.ID, err)
	}
	return nil
}

// Load returns false when nothing is stored under id.
func (r *DraftRepository) Load(ctx context.Context, id draft.AuditID) (draft.Record, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT kind, key, document, dirty FROM drafts WHERE kind = ? AND key = ?`,
		id.Kind().String(), id.Key())
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return draft.Record{}, false, nil
	}
	if err != nil {
		return draft.Record{}, false, fmt.Errorf("load draft %s: %w", id, err)
	}
	return rec, true, nil
}

func (r *DraftRepository) Delete(ctx context.Context, id draft.AuditID) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM drafts WHERE kind = ? AND key = ?`, id.Kind().String(), id.Key()); err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	return nil
}

// List returns every stored record, most recently updated first.
func (r *DraftRepository) List(ctx context.Context) ([]draft.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, key, document, dirty FROM drafts ORDER BY updated_at DESC, key`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var out []draft.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list drafts: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkClean clears the dirty flag unless the stored copy changed after
// updatedAt.
func (r *DraftRepository) MarkClean(ctx context.Context, id draft.AuditID, updatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE drafts SET dirty = 0 WHERE kind = ? AND key = ? AND updated_at <= ?`,
		id.Kind().String(), id.Key(), updatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("mark draft %s clean: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (draft.Record, error) {
	var (
		kind, key, doc string
		dirty          int
	)
	if err := s.Scan(&kind, &key, &doc, &dirty); err != nil {
		return draft.Record{}, err
	}

	var id draft.AuditID
	switch kind {
	case draft.KindPlaceholder.String():
		id = draft.Placeholder(key)
	case draft.KindPersisted.String():
		id = draft.Persisted(key)
	default:
		return draft.Record{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var a entities.Audit
	if err := json.Unmarshal([]byte(doc), &a); err != nil {
		return draft.Record{}, fmt.Errorf("decode draft %s: %w", id, err)
	}
	return draft.Record{ID: id, Audit: a, Dirty: dirty != 0}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
