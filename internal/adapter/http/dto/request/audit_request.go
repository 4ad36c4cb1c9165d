package request

import (
	"errors"
	"strings"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/usecase"
)

var (
	ErrInvalidAuditStatus = errors.New("invalid audit status")
	ErrNegativeKO         = errors.New("ko must be zero or positive")
	ErrNothingToUpdate    = errors.New("no field to update")
)

// CreateAuditRequest is the body of POST /audits. Categories may be omitted to
// start from the catalog.
type CreateAuditRequest struct {
	DateExecution     string                         `json:"date_execution" binding:"required"`
	Address           string                         `json:"address"`
	Categories        []entities.AuditCategory       `json:"categories"`
	CorrectiveActions []entities.CorrectiveActionRow `json:"corrective_actions"`
	Status            string                         `json:"status"`
}

func (r CreateAuditRequest) Validate() error {
	if s := strings.TrimSpace(r.Status); s != "" && !entities.AuditStatus(s).IsValid() {
		return ErrInvalidAuditStatus
	}
	return checkKO(r.Categories)
}

func (r CreateAuditRequest) ToInput() usecase.CreateAuditInput {
	return usecase.CreateAuditInput{
		DateExecution:     r.DateExecution,
		Address:           r.Address,
		Categories:        r.Categories,
		CorrectiveActions: r.CorrectiveActions,
		Status:            entities.AuditStatus(strings.TrimSpace(r.Status)),
	}
}

// UpdateAuditRequest is the body of PUT /audits/:id. Absent fields are kept.
type UpdateAuditRequest struct {
	DateExecution     *string                         `json:"date_execution"`
	Address           *string                         `json:"address"`
	Categories        *[]entities.AuditCategory       `json:"categories"`
	CorrectiveActions *[]entities.CorrectiveActionRow `json:"corrective_actions"`
	Status            *string                         `json:"status"`
	CompletedAt       *time.Time                      `json:"completed_at"`
}

func (r UpdateAuditRequest) Validate() error {
	if r.Status != nil && !entities.AuditStatus(strings.TrimSpace(*r.Status)).IsValid() {
		return ErrInvalidAuditStatus
	}
	if r.Categories != nil {
		if err := checkKO(*r.Categories); err != nil {
			return err
		}
	}
	if r.ToPatch().IsEmpty() {
		return ErrNothingToUpdate
	}
	return nil
}

func (r UpdateAuditRequest) ToPatch() entities.AuditPatch {
	p := entities.AuditPatch{
		DateExecution:     r.DateExecution,
		Address:           r.Address,
		Categories:        r.Categories,
		CorrectiveActions: r.CorrectiveActions,
		CompletedAt:       r.CompletedAt,
	}
	if r.Status != nil {
		s := entities.AuditStatus(strings.TrimSpace(*r.Status))
		p.Status = &s
	}
	return p
}

func checkKO(categories []entities.AuditCategory) error {
	for _, c := range categories {
		for _, it := range c.Items {
			if it.KO < 0 {
				return ErrNegativeKO
			}
		}
	}
	return nil
}
