package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	mock_interfaces "github.com/Sarrabentardeit/Auditalex/internal/usecase/interfaces/mocks"

	"go.uber.org/mock/gomock"
)

func newUserUseCase(t *testing.T) (*UserUseCase, *mock_interfaces.MockIUserRepository, *mock_interfaces.MockIPasswordHasher) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mock_interfaces.NewMockIUserRepository(ctrl)
	hasher := mock_interfaces.NewMockIPasswordHasher(ctrl)
	return NewUserUseCase(repo, hasher, nil), repo, hasher
}

func strPtr(s string) *string { return &s }

func TestUserUseCase_Create(t *testing.T) {
	t.Run("invalid email", func(t *testing.T) {
		uc, _, _ := newUserUseCase(t)
		_, err := uc.Create(context.Background(), CreateUserInput{Email: "not-an-email", Password: "secret1", Name: "A"})
		if !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("expected ErrInvalidEmail, got %v", err)
		}
	})

	t.Run("weak password", func(t *testing.T) {
		uc, _, _ := newUserUseCase(t)
		_, err := uc.Create(context.Background(), CreateUserInput{Email: "a@audit.com", Password: "123", Name: "A"})
		if !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		uc, _, _ := newUserUseCase(t)
		_, err := uc.Create(context.Background(), CreateUserInput{Email: "a@audit.com", Password: "secret1", Name: " "})
		if !errors.Is(err, ErrInvalidName) {
			t.Fatalf("expected ErrInvalidName, got %v", err)
		}
	})

	t.Run("invalid role", func(t *testing.T) {
		uc, _, _ := newUserUseCase(t)
		_, err := uc.Create(context.Background(), CreateUserInput{Email: "a@audit.com", Password: "secret1", Name: "A", Role: "root"})
		if !errors.Is(err, ErrInvalidRole) {
			t.Fatalf("expected ErrInvalidRole, got %v", err)
		}
	})

	t.Run("email taken", func(t *testing.T) {
		uc, repo, _ := newUserUseCase(t)
		repo.EXPECT().GetByEmail(gomock.Any(), "a@audit.com").Return(entities.User{ID: "u-1"}, nil)

		_, err := uc.Create(context.Background(), CreateUserInput{Email: "A@Audit.com", Password: "secret1", Name: "A"})
		if !errors.Is(err, ErrEmailAlreadyExists) {
			t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
		}
	})

	t.Run("success defaults to auditor", func(t *testing.T) {
		uc, repo, hasher := newUserUseCase(t)
		repo.EXPECT().GetByEmail(gomock.Any(), "a@audit.com").Return(entities.User{}, nil)
		hasher.EXPECT().Hash("secret1").Return("hashed", nil)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, u entities.User) (entities.User, error) {
				if u.ID == "" || u.Email != "a@audit.com" || u.PasswordHash != "hashed" {
					t.Fatalf("unexpected user: %+v", u)
				}
				if u.Role != entities.RoleAuditor || !u.IsActive {
					t.Fatalf("unexpected role or flag: %+v", u)
				}
				return u, nil
			},
		)

		if _, err := uc.Create(context.Background(), CreateUserInput{Email: "a@audit.com", Password: "secret1", Name: "Alex"}); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	})
}

func TestUserUseCase_Update(t *testing.T) {
	current := entities.User{ID: "u-1", Email: "a@audit.com", Name: "A", Role: entities.RoleAuditor, IsActive: true}
	caller := entities.Identity{ID: "admin-1", Role: entities.RoleAdmin}

	t.Run("not found", func(t *testing.T) {
		uc, repo, _ := newUserUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "u-1").Return(entities.User{}, nil)

		_, err := uc.Update(context.Background(), caller, "u-1", UpdateUserInput{Name: strPtr("B")})
		if !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("empty patch", func(t *testing.T) {
		uc, repo, _ := newUserUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "u-1").Return(current, nil)

		_, err := uc.Update(context.Background(), caller, "u-1", UpdateUserInput{})
		if !errors.Is(err, ErrEmptyUserPatch) {
			t.Fatalf("expected ErrEmptyUserPatch, got %v", err)
		}
	})

	t.Run("cannot disable self", func(t *testing.T) {
		uc, repo, _ := newUserUseCase(t)
		self := current
		self.ID = caller.ID
		repo.EXPECT().GetByID(gomock.Any(), caller.ID).Return(self, nil)

		off := false
		_, err := uc.Update(context.Background(), caller, caller.ID, UpdateUserInput{IsActive: &off})
		if !errors.Is(err, ErrSelfModification) {
			t.Fatalf("expected ErrSelfModification, got %v", err)
		}
	})

	t.Run("email change to a taken address", func(t *testing.T) {
		uc, repo, _ := newUserUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "u-1").Return(current, nil)
		repo.EXPECT().GetByEmail(gomock.Any(), "b@audit.com").Return(entities.User{ID: "u-2"}, nil)

		_, err := uc.Update(context.Background(), caller, "u-1", UpdateUserInput{Email: strPtr("b@audit.com")})
		if !errors.Is(err, ErrEmailAlreadyExists) {
			t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
		}
	})

	t.Run("password is rehashed", func(t *testing.T) {
		uc, repo, hasher := newUserUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "u-1").Return(current, nil)
		hasher.EXPECT().Hash("newsecret").Return("h2", nil)
		repo.EXPECT().Update(gomock.Any(), "u-1", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, p entities.UserPatch) (entities.User, error) {
				if p.PasswordHash == nil || *p.PasswordHash != "h2" || p.Name != nil {
					t.Fatalf("unexpected patch: %+v", p)
				}
				return current, nil
			},
		)

		if _, err := uc.Update(context.Background(), caller, "u-1", UpdateUserInput{Password: strPtr("newsecret")}); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	})
}

func TestUserUseCase_Delete(t *testing.T) {
	caller := entities.Identity{ID: "admin-1", Role: entities.RoleAdmin}

	t.Run("self", func(t *testing.T) {
		uc, _, _ := newUserUseCase(t)
		if err := uc.Delete(context.Background(), caller, "admin-1"); !errors.Is(err, ErrSelfModification) {
			t.Fatalf("expected ErrSelfModification, got %v", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		uc, repo, _ := newUserUseCase(t)
		repo.EXPECT().Delete(gomock.Any(), "u-1").Return(false, nil)
		if err := uc.Delete(context.Background(), caller, "u-1"); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		uc, repo, _ := newUserUseCase(t)
		repo.EXPECT().Delete(gomock.Any(), "u-1").Return(true, nil)
		if err := uc.Delete(context.Background(), caller, "u-1"); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	})
}

func TestUserUseCase_ToggleActive(t *testing.T) {
	caller := entities.Identity{ID: "admin-1", Role: entities.RoleAdmin}

	t.Run("flips the flag", func(t *testing.T) {
		uc, repo, _ := newUserUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "u-1").Return(entities.User{ID: "u-1", IsActive: true}, nil)
		repo.EXPECT().Update(gomock.Any(), "u-1", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, p entities.UserPatch) (entities.User, error) {
				if p.IsActive == nil || *p.IsActive {
					t.Fatalf("expected is_active=false, got %+v", p)
				}
				return entities.User{ID: "u-1", IsActive: false}, nil
			},
		)

		res, err := uc.ToggleActive(context.Background(), caller, "u-1")
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if res.IsActive {
			t.Fatalf("expected inactive user")
		}
	})

	t.Run("self", func(t *testing.T) {
		uc, repo, _ := newUserUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "admin-1").Return(entities.User{ID: "admin-1", IsActive: true}, nil)

		if _, err := uc.ToggleActive(context.Background(), caller, "admin-1"); !errors.Is(err, ErrSelfModification) {
			t.Fatalf("expected ErrSelfModification, got %v", err)
		}
	})
}

func TestUserUseCase_EnsureAdmin(t *testing.T) {
	in := CreateUserInput{Email: "admin@audit.com", Password: "admin123", Name: "Admin"}

	t.Run("already present", func(t *testing.T) {
		uc, repo, _ := newUserUseCase(t)
		repo.EXPECT().GetByEmail(gomock.Any(), "admin@audit.com").Return(entities.User{ID: "admin-1", Role: entities.RoleAdmin}, nil)

		u, created, err := uc.EnsureAdmin(context.Background(), in)
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if created || u.ID != "admin-1" {
			t.Fatalf("expected existing admin, got %+v created=%v", u, created)
		}
	})

	t.Run("creates admin", func(t *testing.T) {
		uc, repo, hasher := newUserUseCase(t)
		repo.EXPECT().GetByEmail(gomock.Any(), "admin@audit.com").Return(entities.User{}, nil).Times(2)
		hasher.EXPECT().Hash("admin123").Return("h", nil)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, u entities.User) (entities.User, error) {
				if u.Role != entities.RoleAdmin {
					t.Fatalf("expected admin role, got %s", u.Role)
				}
				return u, nil
			},
		)

		_, created, err := uc.EnsureAdmin(context.Background(), in)
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if !created {
			t.Fatalf("expected created=true")
		}
	})
}
