package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/usecase/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minPasswordLength = 6

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidRole        = errors.New("invalid role")
	ErrWeakPassword       = errors.New("password too short")
	ErrEmailAlreadyExists = errors.New("email already in use")
	ErrSelfModification   = errors.New("cannot delete or disable your own account")
	ErrEmptyUserPatch     = errors.New("empty user update")
)

type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	Role     entities.Role
}

// UpdateUserInput carries optional fields; a non-nil Password is rehashed.
type UpdateUserInput struct {
	Email    *string
	Password *string
	Name     *string
	Role     *entities.Role
	IsActive *bool
}

// IUserUseCase exposes account administration.
type IUserUseCase interface {
	List(ctx context.Context) ([]entities.User, error)
	GetByID(ctx context.Context, id string) (entities.User, error)
	Create(ctx context.Context, in CreateUserInput) (entities.User, error)
	Update(ctx context.Context, caller entities.Identity, id string, in UpdateUserInput) (entities.User, error)
	Delete(ctx context.Context, caller entities.Identity, id string) error
	ToggleActive(ctx context.Context, caller entities.Identity, id string) (entities.User, error)
	EnsureAdmin(ctx context.Context, in CreateUserInput) (entities.User, bool, error)
}

type UserUseCase struct {
	repo   interfaces.IUserRepository
	hasher interfaces.IPasswordHasher
	logger *zap.Logger
	now    func() time.Time
}

var _ IUserUseCase = (*UserUseCase)(nil)

func NewUserUseCase(repo interfaces.IUserRepository, hasher interfaces.IPasswordHasher, logger *zap.Logger) *UserUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserUseCase{
		repo:   repo,
		hasher: hasher,
		logger: logger.Named("usecase.user"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (u *UserUseCase) List(ctx context.Context) ([]entities.User, error) {
	return u.repo.List(ctx)
}

func (u *UserUseCase) GetByID(ctx context.Context, id string) (entities.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.User{}, ErrInvalidUserID
	}

	user, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.User{}, err
	}
	if user.ID == "" {
		return entities.User{}, ErrUserNotFound
	}
	return user, nil
}

func (u *UserUseCase) Create(ctx context.Context, in CreateUserInput) (entities.User, error) {
	return createUser(ctx, u.repo, u.hasher, in, u.now(), u.logger)
}

func (u *UserUseCase) Update(ctx context.Context, caller entities.Identity, id string, in UpdateUserInput) (entities.User, error) {
	current, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.User{}, err
	}

	var patch entities.UserPatch
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return entities.User{}, err
		}
		if email != current.Email {
			existing, err := u.repo.GetByEmail(ctx, email)
			if err != nil {
				return entities.User{}, err
			}
			if existing.ID != "" {
				return entities.User{}, ErrEmailAlreadyExists
			}
		}
		patch.Email = &email
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return entities.User{}, ErrInvalidName
		}
		patch.Name = &name
	}
	if in.Role != nil {
		if !in.Role.IsValid() {
			return entities.User{}, ErrInvalidRole
		}
		patch.Role = in.Role
	}
	if in.IsActive != nil {
		if !*in.IsActive && current.ID == caller.ID {
			return entities.User{}, ErrSelfModification
		}
		patch.IsActive = in.IsActive
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			return entities.User{}, ErrWeakPassword
		}
		hash, err := u.hasher.Hash(*in.Password)
		if err != nil {
			return entities.User{}, err
		}
		patch.PasswordHash = &hash
	}
	if patch.IsEmpty() {
		return entities.User{}, ErrEmptyUserPatch
	}

	updated, err := u.repo.Update(ctx, current.ID, patch)
	if err != nil {
		return entities.User{}, err
	}
	if updated.ID == "" {
		return entities.User{}, ErrUserNotFound
	}
	return updated, nil
}

func (u *UserUseCase) Delete(ctx context.Context, caller entities.Identity, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidUserID
	}
	if id == caller.ID {
		return ErrSelfModification
	}

	deleted, err := u.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}
	u.logger.Info("user deleted", zap.String("user_id", id), zap.String("caller_id", caller.ID))
	return nil
}

func (u *UserUseCase) ToggleActive(ctx context.Context, caller entities.Identity, id string) (entities.User, error) {
	current, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.User{}, err
	}
	if current.ID == caller.ID {
		return entities.User{}, ErrSelfModification
	}

	active := !current.IsActive
	updated, err := u.repo.Update(ctx, current.ID, entities.UserPatch{IsActive: &active})
	if err != nil {
		return entities.User{}, err
	}
	if updated.ID == "" {
		return entities.User{}, ErrUserNotFound
	}
	u.logger.Info("user active flag toggled", zap.String("user_id", updated.ID), zap.Bool("is_active", updated.IsActive))
	return updated, nil
}

// EnsureAdmin creates the admin account when no user owns the email yet.
// The bool reports whether a user was created.
func (u *UserUseCase) EnsureAdmin(ctx context.Context, in CreateUserInput) (entities.User, bool, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return entities.User{}, false, err
	}
	existing, err := u.repo.GetByEmail(ctx, email)
	if err != nil {
		return entities.User{}, false, err
	}
	if existing.ID != "" {
		return existing, false, nil
	}

	in.Role = entities.RoleAdmin
	created, err := createUser(ctx, u.repo, u.hasher, in, u.now(), u.logger)
	if err != nil {
		return entities.User{}, false, err
	}
	return created, true, nil
}

func createUser(
	ctx context.Context,
	repo interfaces.IUserRepository,
	hasher interfaces.IPasswordHasher,
	in CreateUserInput,
	now time.Time,
	logger *zap.Logger,
) (entities.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return entities.User{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return entities.User{}, ErrInvalidName
	}
	if len(in.Password) < minPasswordLength {
		return entities.User{}, ErrWeakPassword
	}
	role := in.Role
	if role == "" {
		role = entities.RoleAuditor
	}
	if !role.IsValid() {
		return entities.User{}, ErrInvalidRole
	}

	existing, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return entities.User{}, err
	}
	if existing.ID != "" {
		return entities.User{}, ErrEmailAlreadyExists
	}

	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return entities.User{}, err
	}

	created, err := repo.Create(ctx, entities.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return entities.User{}, err
	}
	logger.Info("user created", zap.String("user_id", created.ID), zap.String("role", string(created.Role)))
	return created, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
