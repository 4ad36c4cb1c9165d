package request

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
)

func TestCreateAuditRequest_Validate(t *testing.T) {
	r := CreateAuditRequest{DateExecution: "2026-03-01", Status: "finished"}
	if err := r.Validate(); !errors.Is(err, ErrInvalidAuditStatus) {
		t.Fatalf("expected ErrInvalidAuditStatus, got %v", err)
	}

	r = CreateAuditRequest{
		DateExecution: "2026-03-01",
		Categories:    []entities.AuditCategory{{ID: "c", Items: []entities.AuditItem{{ID: "i", KO: -2}}}},
	}
	if err := r.Validate(); !errors.Is(err, ErrNegativeKO) {
		t.Fatalf("expected ErrNegativeKO, got %v", err)
	}

	r = CreateAuditRequest{DateExecution: "2026-03-01", Status: " completed "}
	if err := r.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in := r.ToInput(); in.Status != entities.AuditStatusCompleted {
		t.Fatalf("expected completed, got %q", in.Status)
	}
}

func TestUpdateAuditRequest_OnlySentFieldsBecomePatch(t *testing.T) {
	var r UpdateAuditRequest
	if err := json.Unmarshal([]byte(`{"address":"3 rue C","status":"completed"}`), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := r.ToPatch()
	if p.Address == nil || *p.Address != "3 rue C" {
		t.Fatalf("expected address in patch, got %+v", p)
	}
	if p.Status == nil || *p.Status != entities.AuditStatusCompleted {
		t.Fatalf("expected status in patch, got %+v", p)
	}
	if p.Categories != nil || p.DateExecution != nil || p.CorrectiveActions != nil {
		t.Fatalf("unexpected fields in patch: %+v", p)
	}
}

func TestUpdateAuditRequest_EmptyBody(t *testing.T) {
	if err := (UpdateAuditRequest{}).Validate(); !errors.Is(err, ErrNothingToUpdate) {
		t.Fatalf("expected ErrNothingToUpdate, got %v", err)
	}
}

func TestUpdateUserRequest_ToInput(t *testing.T) {
	role := "admin"
	in := UpdateUserRequest{Role: &role}.ToInput()
	if in.Role == nil || *in.Role != entities.RoleAdmin {
		t.Fatalf("expected admin role, got %+v", in.Role)
	}
	if in.Email != nil || in.Password != nil {
		t.Fatalf("unexpected fields: %+v", in)
	}
}
