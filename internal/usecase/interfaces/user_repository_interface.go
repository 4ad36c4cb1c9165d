package interfaces

import (
	"context"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
)

// IUserRepository abstracts DynamoDB persistence for User.
// Emails are stored lower-cased; GetByEmail expects a lower-cased email.
type IUserRepository interface {
	Create(ctx context.Context, u entities.User) (entities.User, error)
	GetByID(ctx context.Context, id string) (entities.User, error)
	GetByEmail(ctx context.Context, email string) (entities.User, error)
	List(ctx context.Context) ([]entities.User, error)
	Update(ctx context.Context, id string, patch entities.UserPatch) (entities.User, error)
	Delete(ctx context.Context, id string) (bool, error)
}
