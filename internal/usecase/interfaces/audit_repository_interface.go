package interfaces

import (
	"context"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
)

// IAuditRepository abstracts DynamoDB persistence for Audit.
//
// Not-found is reported as a zero Audit (ID == "") or false, never as an error,
// so the use case decides how to surface it.
type IAuditRepository interface {
	Create(ctx context.Context, a entities.Audit) (entities.Audit, error)
	GetByID(ctx context.Context, id string) (entities.Audit, error)
	ListAll(ctx context.Context) ([]entities.Audit, error)
	ListByAuditorID(ctx context.Context, auditorID string) ([]entities.Audit, error)
	Update(ctx context.Context, id string, patch entities.AuditPatch) (entities.Audit, error)
	Delete(ctx context.Context, id string) (bool, error)
}
