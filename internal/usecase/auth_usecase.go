package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/usecase/interfaces"

	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidToken       = errors.New("invalid token")
)

// Session is what a successful login or registration returns.
type Session struct {
	Token string
	User  entities.User
}

// IAuthUseCase exposes login, self-registration and token checks.
type IAuthUseCase interface {
	Login(ctx context.Context, email, password string) (Session, error)
	Register(ctx context.Context, in CreateUserInput) (Session, error)
	Me(ctx context.Context, caller entities.Identity) (entities.User, error)
	Authenticate(ctx context.Context, token string) (entities.Identity, error)
}

type AuthUseCase struct {
	users  interfaces.IUserRepository
	hasher interfaces.IPasswordHasher
	tokens interfaces.ITokenManager
	logger *zap.Logger
	now    func() time.Time
}

var _ IAuthUseCase = (*AuthUseCase)(nil)

func NewAuthUseCase(users interfaces.IUserRepository, hasher interfaces.IPasswordHasher, tokens interfaces.ITokenManager, logger *zap.Logger) *AuthUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthUseCase{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger.Named("usecase.auth"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (u *AuthUseCase) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	user, err := u.users.GetByEmail(ctx, email)
	if err != nil {
		return Session{}, err
	}
	if user.ID == "" {
		return Session{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return Session{}, ErrAccountDisabled
	}

	ok, err := u.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		u.logger.Warn("stored password hash unusable", zap.String("user_id", user.ID), zap.Error(err))
		return Session{}, ErrInvalidCredentials
	}
	if !ok {
		return Session{}, ErrInvalidCredentials
	}

	token, err := u.tokens.Generate(user)
	if err != nil {
		return Session{}, err
	}
	u.logger.Info("user logged in", zap.String("user_id", user.ID))
	return Session{Token: token, User: user}, nil
}

// Register creates an auditor account. The role in the input is ignored.
func (u *AuthUseCase) Register(ctx context.Context, in CreateUserInput) (Session, error) {
	in.Role = entities.RoleAuditor
	user, err := createUser(ctx, u.users, u.hasher, in, u.now(), u.logger)
	if err != nil {
		return Session{}, err
	}

	token, err := u.tokens.Generate(user)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

func (u *AuthUseCase) Me(ctx context.Context, caller entities.Identity) (entities.User, error) {
	if caller.ID == "" {
		return entities.User{}, ErrUnauthenticated
	}
	user, err := u.users.GetByID(ctx, caller.ID)
	if err != nil {
		return entities.User{}, err
	}
	if user.ID == "" {
		return entities.User{}, ErrUserNotFound
	}
	return user, nil
}

// Authenticate validates the token and re-reads the account so disabled or
// deleted users are rejected and role changes apply immediately.
func (u *AuthUseCase) Authenticate(ctx context.Context, token string) (entities.Identity, error) {
	claims, err := u.tokens.Validate(token)
	if err != nil {
		return entities.Identity{}, ErrInvalidToken
	}

	user, err := u.users.GetByID(ctx, claims.ID)
	if err != nil {
		return entities.Identity{}, err
	}
	if user.ID == "" {
		return entities.Identity{}, ErrInvalidToken
	}
	if !user.IsActive {
		return entities.Identity{}, ErrAccountDisabled
	}
	return entities.Identity{ID: user.ID, Role: user.Role}, nil
}
