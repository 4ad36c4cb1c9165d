package draft

import (
	"fmt"
	"strings"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"

	"github.com/google/uuid"
)

// Kind tells a placeholder identifier apart from a persisted one.
type Kind uint8

const (
	KindPlaceholder Kind = iota + 1
	KindPersisted
)

func (k Kind) String() string {
	switch k {
	case KindPlaceholder:
		return "placeholder"
	case KindPersisted:
		return "persisted"
	}
	return "invalid"
}

// AuditID identifies an audit on the client. A placeholder is generated
// locally and lives until the first durable write returns the persisted id.
// The zero value identifies nothing.
type AuditID struct {
	kind Kind
	key  string
}

func Placeholder(key string) AuditID { return AuditID{kind: KindPlaceholder, key: key} }

func Persisted(key string) AuditID { return AuditID{kind: KindPersisted, key: key} }

// NewPlaceholder returns a fresh placeholder id.
func NewPlaceholder() AuditID { return Placeholder(uuid.NewString()) }

func (id AuditID) Kind() Kind          { return id.kind }
func (id AuditID) Key() string         { return id.key }
func (id AuditID) IsZero() bool        { return id.kind == 0 || id.key == "" }
func (id AuditID) IsPlaceholder() bool { return id.kind == KindPlaceholder }
func (id AuditID) IsPersisted() bool   { return id.kind == KindPersisted }

// String is unique across kinds; it is meant for logs and map keys.
func (id AuditID) String() string {
	if id.IsZero() {
		return ""
	}
	return id.kind.String() + ":" + id.key
}

// ParseID reads the String form of an id. A bare key is taken as persisted.
func ParseID(s string) (AuditID, error) {
	s = strings.TrimSpace(s)
	kind, key, found := strings.Cut(s, ":")
	if !found {
		kind, key = KindPersisted.String(), s
	}
	if key == "" {
		return AuditID{}, fmt.Errorf("empty audit id %q", s)
	}
	switch kind {
	case KindPlaceholder.String():
		return Placeholder(key), nil
	case KindPersisted.String():
		return Persisted(key), nil
	}
	return AuditID{}, fmt.Errorf("unknown audit id kind %q", kind)
}

// Record is an audit as the client holds it. Dirty means local changes have
// not been confirmed by the audit store yet.
type Record struct {
	ID    AuditID
	Audit entities.Audit
	Dirty bool
}

func (r Record) Clone() Record {
	r.Audit = r.Audit.Clone()
	return r
}

// Group is a set of audit fields written together. Groups combine as bit flags.
type Group uint8

const (
	GroupHeader            Group = 1 << iota // date and address
	GroupCategories                          // items, judgments, observations, photos
	GroupCorrectiveActions                   // corrective action plan
	GroupStatus                              // status and completion time

	AllGroups = GroupHeader | GroupCategories | GroupCorrectiveActions | GroupStatus
)

func (g Group) Has(o Group) bool { return g&o == o && o != 0 }

// Window selects the quiet period of a coalesced write.
type Window uint8

const (
	// WindowShort suits discrete controls such as counters and toggles.
	WindowShort Window = iota
	// WindowLong suits continuous text entry.
	WindowLong
)
