package entities

import (
	"strings"
	"time"
)

// AuditStatus represents the lifecycle of an audit.
//
// Domain notes:
//   - in_progress -> completed happens once, through the finish action.
//   - A completed audit is never reopened; a new audit is created instead.
//   - draft and archived are accepted for compatibility but no flow produces them.
type AuditStatus string

const (
	AuditStatusDraft      AuditStatus = "draft"
	AuditStatusInProgress AuditStatus = "in_progress"
	AuditStatusCompleted  AuditStatus = "completed"
	AuditStatusArchived   AuditStatus = "archived"
)

func (s AuditStatus) IsValid() bool {
	switch s {
	case AuditStatusDraft, AuditStatusInProgress, AuditStatusCompleted, AuditStatusArchived:
		return true
	}
	return false
}

// CanTransitionTo reports whether a status change is allowed.
// Staying on the same status is always allowed.
func (s AuditStatus) CanTransitionTo(next AuditStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case AuditStatusCompleted:
		return next == AuditStatusArchived
	case AuditStatusArchived:
		return false
	default:
		return next.IsValid()
	}
}

// DateLayout is the wire format of DateExecution.
const DateLayout = "2006-01-02"

// CorrectiveActionRow is one line of the corrective action plan. The plan is
// free-form and has no influence on scoring.
type CorrectiveActionRow struct {
	ID               string `json:"id"`
	Ecart            string `json:"ecart"`
	ActionCorrective string `json:"action_corrective"`
	Delai            string `json:"delai"`
	Quand            string `json:"quand"`
	Visa             string `json:"visa"`
	Verification     string `json:"verification"`
}

// Audit is the aggregate root persisted in DynamoDB.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (auditor_id-index): auditor_id
//
// Scores are not part of the aggregate; they are recomputed from Categories.
type Audit struct {
	ID                string                `json:"id"`
	AuditorID         string                `json:"auditor_id"`
	AuditorName       string                `json:"auditor_name,omitempty"`
	AuditorEmail      string                `json:"auditor_email,omitempty"`
	DateExecution     string                `json:"date_execution"`
	Address           string                `json:"address"`
	Categories        []AuditCategory       `json:"categories"`
	CorrectiveActions []CorrectiveActionRow `json:"corrective_actions"`
	Status            AuditStatus           `json:"status"`
	CompletedAt       *time.Time            `json:"completed_at,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	Synced            bool                  `json:"synced"`
}

// Clone returns a deep copy of the audit.
func (a Audit) Clone() Audit {
	out := a
	out.Categories = CloneCategories(a.Categories)
	out.CorrectiveActions = append([]CorrectiveActionRow(nil), a.CorrectiveActions...)
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// HasAuditedItems reports whether any item anywhere has been audited.
func (a Audit) HasAuditedItems() bool {
	for _, c := range a.Categories {
		for _, it := range c.Items {
			if it.IsAudited {
				return true
			}
		}
	}
	return false
}

// ReconciliationKey identifies the same logical audit across a server copy
// and a local-only copy.
func (a Audit) ReconciliationKey() string {
	address := strings.TrimSpace(a.Address)
	if address == "" {
		address = "no-address"
	}
	return a.AuditorID + "|" + a.DateExecution + "|" + address + "|" + string(a.Status)
}

// AuditPatch carries a partial update. Nil fields are left untouched.
type AuditPatch struct {
	DateExecution     *string                `json:"date_execution,omitempty"`
	Address           *string                `json:"address,omitempty"`
	Categories        *[]AuditCategory       `json:"categories,omitempty"`
	CorrectiveActions *[]CorrectiveActionRow `json:"corrective_actions,omitempty"`
	Status            *AuditStatus           `json:"status,omitempty"`
	CompletedAt       *time.Time             `json:"completed_at,omitempty"`
}

func (p AuditPatch) IsEmpty() bool {
	return p.DateExecution == nil && p.Address == nil && p.Categories == nil &&
		p.CorrectiveActions == nil && p.Status == nil && p.CompletedAt == nil
}

// Merge returns p overlaid with the non-nil fields of other.
func (p AuditPatch) Merge(other AuditPatch) AuditPatch {
	if other.DateExecution != nil {
		p.DateExecution = other.DateExecution
	}
	if other.Address != nil {
		p.Address = other.Address
	}
	if other.Categories != nil {
		p.Categories = other.Categories
	}
	if other.CorrectiveActions != nil {
		p.CorrectiveActions = other.CorrectiveActions
	}
	if other.Status != nil {
		p.Status = other.Status
	}
	if other.CompletedAt != nil {
		p.CompletedAt = other.CompletedAt
	}
	return p
}

// Apply returns a copy of a with the patch applied. UpdatedAt is not touched.
func (p AuditPatch) Apply(a Audit) Audit {
	out := a.Clone()
	if p.DateExecution != nil {
		out.DateExecution = *p.DateExecution
	}
	if p.Address != nil {
		out.Address = *p.Address
	}
	if p.Categories != nil {
		out.Categories = CloneCategories(*p.Categories)
	}
	if p.CorrectiveActions != nil {
		out.CorrectiveActions = append([]CorrectiveActionRow(nil), (*p.CorrectiveActions)...)
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// AuditResults is the derived scoring snapshot. It is never the source of truth.
type AuditResults struct {
	TotalScore      *float64            `json:"total_score"`
	CategoryScores  map[string]*float64 `json:"category_scores"`
	KnockOutTotal   int                 `json:"knock_out_total"`
	EstimatedFines  float64             `json:"estimated_fines"`
	HasAuditedItems bool                `json:"has_audited_items"`
}
