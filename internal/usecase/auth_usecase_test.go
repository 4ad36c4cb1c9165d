package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	mock_interfaces "github.com/Sarrabentardeit/Auditalex/internal/usecase/interfaces/mocks"

	"go.uber.org/mock/gomock"
)

type authMocks struct {
	users  *mock_interfaces.MockIUserRepository
	hasher *mock_interfaces.MockIPasswordHasher
	tokens *mock_interfaces.MockITokenManager
}

func newAuthUseCase(t *testing.T) (*AuthUseCase, authMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := authMocks{
		users:  mock_interfaces.NewMockIUserRepository(ctrl),
		hasher: mock_interfaces.NewMockIPasswordHasher(ctrl),
		tokens: mock_interfaces.NewMockITokenManager(ctrl),
	}
	return NewAuthUseCase(m.users, m.hasher, m.tokens, nil), m
}

func TestAuthUseCase_Login(t *testing.T) {
	active := entities.User{ID: "u-1", Email: "a@audit.com", PasswordHash: "h", Role: entities.RoleAuditor, IsActive: true}

	t.Run("blank credentials", func(t *testing.T) {
		uc, _ := newAuthUseCase(t)
		if _, err := uc.Login(context.Background(), " ", ""); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		uc, m := newAuthUseCase(t)
		m.users.EXPECT().GetByEmail(gomock.Any(), "a@audit.com").Return(entities.User{}, nil)

		if _, err := uc.Login(context.Background(), "A@audit.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("disabled account", func(t *testing.T) {
		uc, m := newAuthUseCase(t)
		disabled := active
		disabled.IsActive = false
		m.users.EXPECT().GetByEmail(gomock.Any(), "a@audit.com").Return(disabled, nil)

		if _, err := uc.Login(context.Background(), "a@audit.com", "secret1"); !errors.Is(err, ErrAccountDisabled) {
			t.Fatalf("expected ErrAccountDisabled, got %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		uc, m := newAuthUseCase(t)
		m.users.EXPECT().GetByEmail(gomock.Any(), "a@audit.com").Return(active, nil)
		m.hasher.EXPECT().Compare("h", "bad").Return(false, nil)

		if _, err := uc.Login(context.Background(), "a@audit.com", "bad"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		uc, m := newAuthUseCase(t)
		m.users.EXPECT().GetByEmail(gomock.Any(), "a@audit.com").Return(active, nil)
		m.hasher.EXPECT().Compare("h", "secret1").Return(true, nil)
		m.tokens.EXPECT().Generate(active).Return("tok", nil)

		s, err := uc.Login(context.Background(), "a@audit.com", "secret1")
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if s.Token != "tok" || s.User.ID != "u-1" {
			t.Fatalf("unexpected session: %+v", s)
		}
	})
}

func TestAuthUseCase_Register(t *testing.T) {
	uc, m := newAuthUseCase(t)
	m.users.EXPECT().GetByEmail(gomock.Any(), "new@audit.com").Return(entities.User{}, nil)
	m.hasher.EXPECT().Hash("secret1").Return("h", nil)
	m.users.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, u entities.User) (entities.User, error) { return u, nil },
	)
	m.tokens.EXPECT().Generate(gomock.Any()).Return("tok", nil)

	s, err := uc.Register(context.Background(), CreateUserInput{Email: "new@audit.com", Password: "secret1", Name: "New", Role: entities.RoleAdmin})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if s.User.Role != entities.RoleAuditor {
		t.Fatalf("self registration must not grant admin, got %s", s.User.Role)
	}
}

func TestAuthUseCase_Authenticate(t *testing.T) {
	t.Run("bad token", func(t *testing.T) {
		uc, m := newAuthUseCase(t)
		m.tokens.EXPECT().Validate("bad").Return(entities.Identity{}, errors.New("expired"))

		if _, err := uc.Authenticate(context.Background(), "bad"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("deleted user", func(t *testing.T) {
		uc, m := newAuthUseCase(t)
		m.tokens.EXPECT().Validate("tok").Return(entities.Identity{ID: "u-1", Role: entities.RoleAdmin}, nil)
		m.users.EXPECT().GetByID(gomock.Any(), "u-1").Return(entities.User{}, nil)

		if _, err := uc.Authenticate(context.Background(), "tok"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("role comes from the stored account", func(t *testing.T) {
		uc, m := newAuthUseCase(t)
		m.tokens.EXPECT().Validate("tok").Return(entities.Identity{ID: "u-1", Role: entities.RoleAdmin}, nil)
		m.users.EXPECT().GetByID(gomock.Any(), "u-1").Return(entities.User{ID: "u-1", Role: entities.RoleAuditor, IsActive: true}, nil)

		id, err := uc.Authenticate(context.Background(), "tok")
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if id.Role != entities.RoleAuditor {
			t.Fatalf("expected auditor role, got %s", id.Role)
		}
	})
}

func TestAuthUseCase_Me(t *testing.T) {
	uc, m := newAuthUseCase(t)
	if _, err := uc.Me(context.Background(), entities.Identity{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	m.users.EXPECT().GetByID(gomock.Any(), "u-1").Return(entities.User{ID: "u-1"}, nil)
	u, err := uc.Me(context.Background(), entities.Identity{ID: "u-1"})
	if err != nil || u.ID != "u-1" {
		t.Fatalf("unexpected result: %+v, %v", u, err)
	}
}
