package interfaces

import (
	"context"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
)

// ICatalogSource provides fresh, unaudited categories for new audits.
type ICatalogSource interface {
	LoadCategories(ctx context.Context) ([]entities.AuditCategory, error)
}
