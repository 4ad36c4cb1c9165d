package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/scoring"
	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/metrics"
	mock_interfaces "github.com/Sarrabentardeit/Auditalex/internal/usecase/interfaces/mocks"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"
)

var (
	auditor = entities.Identity{ID: "u-1", Role: entities.RoleAuditor}
	other   = entities.Identity{ID: "u-2", Role: entities.RoleAuditor}
	admin   = entities.Identity{ID: "admin-1", Role: entities.RoleAdmin}
)

func newAuditUseCase(t *testing.T) (*AuditUseCase, *mock_interfaces.MockIAuditRepository, *mock_interfaces.MockIUserRepository, *mock_interfaces.MockICatalogSource) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mock_interfaces.NewMockIAuditRepository(ctrl)
	users := mock_interfaces.NewMockIUserRepository(ctrl)
	catalog := mock_interfaces.NewMockICatalogSource(ctrl)
	uc := NewAuditUseCase(repo, users, catalog, scoring.Default(), nil)
	uc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return uc, repo, users, catalog
}

func sampleCategories() []entities.AuditCategory {
	return []entities.AuditCategory{{
		ID:   "cat-0",
		Name: "1. Locaux",
		Items: []entities.AuditItem{
			{ID: "item-0-0", Name: "Nettoyage", Ponderation: 1, Classification: entities.ClassificationMultiple},
		},
	}}
}

func TestAuditUseCase_Create(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		uc, _, _, _ := newAuditUseCase(t)
		_, err := uc.Create(context.Background(), entities.Identity{}, CreateAuditInput{DateExecution: "2026-03-01"})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("invalid date", func(t *testing.T) {
		uc, _, _, _ := newAuditUseCase(t)
		_, err := uc.Create(context.Background(), auditor, CreateAuditInput{DateExecution: "01/03/2026"})
		if !errors.Is(err, ErrInvalidAuditDate) {
			t.Fatalf("expected ErrInvalidAuditDate, got %v", err)
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		uc, _, _, _ := newAuditUseCase(t)
		_, err := uc.Create(context.Background(), auditor, CreateAuditInput{DateExecution: "2026-03-01", Status: "bogus"})
		if !errors.Is(err, ErrInvalidAuditStatus) {
			t.Fatalf("expected ErrInvalidAuditStatus, got %v", err)
		}
	})

	t.Run("negative ko rejected", func(t *testing.T) {
		uc, _, _, _ := newAuditUseCase(t)
		cats := sampleCategories()
		cats[0].Items[0].KO = -1
		_, err := uc.Create(context.Background(), auditor, CreateAuditInput{DateExecution: "2026-03-01", Categories: cats})
		if !errors.Is(err, ErrInvalidAuditItem) {
			t.Fatalf("expected ErrInvalidAuditItem, got %v", err)
		}
	})

	t.Run("defaults to in progress and catalog categories", func(t *testing.T) {
		uc, repo, _, catalog := newAuditUseCase(t)

		catalog.EXPECT().LoadCategories(gomock.Any()).Return(sampleCategories(), nil)
		repo.EXPECT().Create(gomock.Any(), gomock.AssignableToTypeOf(entities.Audit{})).DoAndReturn(
			func(_ context.Context, a entities.Audit) (entities.Audit, error) {
				if a.ID == "" || a.AuditorID != "u-1" || a.Status != entities.AuditStatusInProgress {
					t.Fatalf("unexpected audit: %+v", a)
				}
				if a.DateExecution != "2026-03-01" || a.Address != "1 rue de Paris" {
					t.Fatalf("unexpected fields: %+v", a)
				}
				if len(a.Categories) != 1 || a.CompletedAt != nil || a.CorrectiveActions == nil {
					t.Fatalf("unexpected content: %+v", a)
				}
				return a, nil
			},
		)

		res, err := uc.Create(context.Background(), auditor, CreateAuditInput{DateExecution: "2026-03-01T08:00:00Z", Address: " 1 rue de Paris "})
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if res.CreatedAt.IsZero() || !res.Synced {
			t.Fatalf("unexpected result: %+v", res)
		}
	})

	t.Run("created completed gets completed_at", func(t *testing.T) {
		uc, repo, _, _ := newAuditUseCase(t)
		before := testutil.ToFloat64(metrics.AuditsCompleted)

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, a entities.Audit) (entities.Audit, error) { return a, nil },
		)

		res, err := uc.Create(context.Background(), auditor, CreateAuditInput{
			DateExecution: "2026-03-01",
			Categories:    sampleCategories(),
			Status:        entities.AuditStatusCompleted,
		})
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if res.CompletedAt == nil {
			t.Fatalf("expected completed_at")
		}
		if got := testutil.ToFloat64(metrics.AuditsCompleted) - before; got != 1 {
			t.Fatalf("expected one completion counted, got %v", got)
		}
	})

	t.Run("failed completed create is not counted", func(t *testing.T) {
		uc, repo, _, _ := newAuditUseCase(t)
		before := testutil.ToFloat64(metrics.AuditsCompleted)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(entities.Audit{}, errors.New("throttled"))

		_, err := uc.Create(context.Background(), auditor, CreateAuditInput{
			DateExecution: "2026-03-01",
			Categories:    sampleCategories(),
			Status:        entities.AuditStatusCompleted,
		})
		if err == nil {
			t.Fatalf("expected error")
		}
		if got := testutil.ToFloat64(metrics.AuditsCompleted) - before; got != 0 {
			t.Fatalf("expected no completion counted, got %v", got)
		}
	})

	t.Run("catalog error", func(t *testing.T) {
		uc, _, _, catalog := newAuditUseCase(t)
		catalog.EXPECT().LoadCategories(gomock.Any()).Return(nil, errors.New("boom"))

		_, err := uc.Create(context.Background(), auditor, CreateAuditInput{DateExecution: "2026-03-01"})
		if err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestAuditUseCase_GetByID(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		uc, _, _, _ := newAuditUseCase(t)
		_, err := uc.GetByID(context.Background(), auditor, "  ")
		if !errors.Is(err, ErrInvalidAuditID) {
			t.Fatalf("expected ErrInvalidAuditID, got %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		uc, repo, _, _ := newAuditUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "a-1").Return(entities.Audit{}, nil)

		_, err := uc.GetByID(context.Background(), auditor, "a-1")
		if !errors.Is(err, ErrAuditNotFound) {
			t.Fatalf("expected ErrAuditNotFound, got %v", err)
		}
	})

	t.Run("someone else's audit is not found", func(t *testing.T) {
		uc, repo, _, _ := newAuditUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "a-1").Return(entities.Audit{ID: "a-1", AuditorID: "u-1"}, nil)

		_, err := uc.GetByID(context.Background(), other, "a-1")
		if !errors.Is(err, ErrAuditNotFound) {
			t.Fatalf("expected ErrAuditNotFound, got %v", err)
		}
	})

	t.Run("admin sees any audit, enriched", func(t *testing.T) {
		uc, repo, users, _ := newAuditUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "a-1").Return(entities.Audit{ID: "a-1", AuditorID: "u-1"}, nil)
		users.EXPECT().GetByID(gomock.Any(), "u-1").Return(entities.User{ID: "u-1", Name: "Alex", Email: "alex@audit.com"}, nil)

		res, err := uc.GetByID(context.Background(), admin, "a-1")
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if res.AuditorName != "Alex" || res.AuditorEmail != "alex@audit.com" {
			t.Fatalf("expected enrichment, got %+v", res)
		}
	})

	t.Run("repo error", func(t *testing.T) {
		uc, repo, _, _ := newAuditUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "a-1").Return(entities.Audit{}, errors.New("db"))

		_, err := uc.GetByID(context.Background(), auditor, "a-1")
		if err == nil || err.Error() != "db" {
			t.Fatalf("expected db error, got %v", err)
		}
	})
}

func TestAuditUseCase_List(t *testing.T) {
	t.Run("auditor lists own audits newest first", func(t *testing.T) {
		uc, repo, users, _ := newAuditUseCase(t)
		older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		newer := older.Add(time.Hour)
		repo.EXPECT().ListByAuditorID(gomock.Any(), "u-1").Return([]entities.Audit{
			{ID: "old", AuditorID: "u-1", CreatedAt: older},
			{ID: "new", AuditorID: "u-1", CreatedAt: newer},
		}, nil)
		users.EXPECT().GetByID(gomock.Any(), "u-1").Return(entities.User{ID: "u-1", Name: "Alex"}, nil)

		res, err := uc.List(context.Background(), auditor)
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if len(res) != 2 || res[0].ID != "new" || res[1].AuditorName != "Alex" {
			t.Fatalf("unexpected list: %+v", res)
		}
	})

	t.Run("admin lists all, lookup failure tolerated", func(t *testing.T) {
		uc, repo, users, _ := newAuditUseCase(t)
		repo.EXPECT().ListAll(gomock.Any()).Return([]entities.Audit{{ID: "a", AuditorID: "u-9"}}, nil)
		users.EXPECT().GetByID(gomock.Any(), "u-9").Return(entities.User{}, errors.New("db"))

		res, err := uc.List(context.Background(), admin)
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if len(res) != 1 || res[0].AuditorName != "" {
			t.Fatalf("unexpected list: %+v", res)
		}
	})
}

func TestAuditUseCase_Update(t *testing.T) {
	existing := entities.Audit{ID: "a-1", AuditorID: "u-1", Status: entities.AuditStatusInProgress}

	t.Run("empty patch", func(t *testing.T) {
		uc, _, _, _ := newAuditUseCase(t)
		_, err := uc.Update(context.Background(), auditor, "a-1", entities.AuditPatch{})
		if !errors.Is(err, ErrEmptyAuditPatch) {
			t.Fatalf("expected ErrEmptyAuditPatch, got %v", err)
		}
	})

	t.Run("completed cannot go back to in progress", func(t *testing.T) {
		uc, repo, _, _ := newAuditUseCase(t)
		done := existing
		done.Status = entities.AuditStatusCompleted
		repo.EXPECT().GetByID(gomock.Any(), "a-1").Return(done, nil)

		status := entities.AuditStatusInProgress
		_, err := uc.Update(context.Background(), auditor, "a-1", entities.AuditPatch{Status: &status})
		if !errors.Is(err, ErrInvalidStatusTransition) {
			t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
		}
	})

	t.Run("completion stamps completed_at", func(t *testing.T) {
		uc, repo, users, _ := newAuditUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "a-1").Return(existing, nil)
		repo.EXPECT().Update(gomock.Any(), "a-1", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, p entities.AuditPatch) (entities.Audit, error) {
				if p.CompletedAt == nil || p.Status == nil || *p.Status != entities.AuditStatusCompleted {
					t.Fatalf("unexpected patch: %+v", p)
				}
				return p.Apply(existing), nil
			},
		)
		users.EXPECT().GetByID(gomock.Any(), "u-1").Return(entities.User{}, nil)

		status := entities.AuditStatusCompleted
		res, err := uc.Update(context.Background(), auditor, "a-1", entities.AuditPatch{Status: &status})
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if res.Status != entities.AuditStatusCompleted || res.CompletedAt == nil {
			t.Fatalf("unexpected result: %+v", res)
		}
	})

	t.Run("partial address update is trimmed", func(t *testing.T) {
		uc, repo, users, _ := newAuditUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "a-1").Return(existing, nil)
		repo.EXPECT().Update(gomock.Any(), "a-1", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, p entities.AuditPatch) (entities.Audit, error) {
				if p.Address == nil || *p.Address != "2 rue B" || p.Categories != nil || p.Status != nil {
					t.Fatalf("unexpected patch: %+v", p)
				}
				return p.Apply(existing), nil
			},
		)
		users.EXPECT().GetByID(gomock.Any(), "u-1").Return(entities.User{}, nil)

		addr := " 2 rue B "
		if _, err := uc.Update(context.Background(), auditor, "a-1", entities.AuditPatch{Address: &addr}); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	})

	t.Run("not owned", func(t *testing.T) {
		uc, repo, _, _ := newAuditUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "a-1").Return(existing, nil)

		addr := "x"
		_, err := uc.Update(context.Background(), other, "a-1", entities.AuditPatch{Address: &addr})
		if !errors.Is(err, ErrAuditNotFound) {
			t.Fatalf("expected ErrAuditNotFound, got %v", err)
		}
	})

	t.Run("vanished between get and update", func(t *testing.T) {
		uc, repo, _, _ := newAuditUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "a-1").Return(existing, nil)
		repo.EXPECT().Update(gomock.Any(), "a-1", gomock.Any()).Return(entities.Audit{}, nil)

		addr := "x"
		_, err := uc.Update(context.Background(), auditor, "a-1", entities.AuditPatch{Address: &addr})
		if !errors.Is(err, ErrAuditNotFound) {
			t.Fatalf("expected ErrAuditNotFound, got %v", err)
		}
	})
}

func TestAuditUseCase_Delete(t *testing.T) {
	t.Run("owner deletes", func(t *testing.T) {
		uc, repo, _, _ := newAuditUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "a-1").Return(entities.Audit{ID: "a-1", AuditorID: "u-1"}, nil)
		repo.EXPECT().Delete(gomock.Any(), "a-1").Return(true, nil)

		if err := uc.Delete(context.Background(), auditor, "a-1"); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	})

	t.Run("other auditor cannot delete", func(t *testing.T) {
		uc, repo, _, _ := newAuditUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "a-1").Return(entities.Audit{ID: "a-1", AuditorID: "u-1"}, nil)

		if err := uc.Delete(context.Background(), other, "a-1"); !errors.Is(err, ErrAuditNotFound) {
			t.Fatalf("expected ErrAuditNotFound, got %v", err)
		}
	})

	t.Run("already gone", func(t *testing.T) {
		uc, repo, _, _ := newAuditUseCase(t)
		repo.EXPECT().GetByID(gomock.Any(), "a-1").Return(entities.Audit{ID: "a-1", AuditorID: "u-1"}, nil)
		repo.EXPECT().Delete(gomock.Any(), "a-1").Return(false, nil)

		if err := uc.Delete(context.Background(), admin, "a-1"); !errors.Is(err, ErrAuditNotFound) {
			t.Fatalf("expected ErrAuditNotFound, got %v", err)
		}
	})
}

func TestAuditUseCase_Results(t *testing.T) {
	uc, repo, users, _ := newAuditUseCase(t)
	zero := 0
	cats := sampleCategories()
	cats[0].Items[0].NonConformities = &zero
	cats[0].Items[0].IsAudited = true
	cats[0].Items[0].KO = 2
	repo.EXPECT().GetByID(gomock.Any(), "a-1").Return(entities.Audit{ID: "a-1", AuditorID: "u-1", Categories: cats}, nil)
	users.EXPECT().GetByID(gomock.Any(), "u-1").Return(entities.User{}, nil)

	_, res, err := uc.Results(context.Background(), auditor, "a-1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res.TotalScore == nil || *res.TotalScore != 100 {
		t.Fatalf("unexpected total: %+v", res)
	}
	if res.KnockOutTotal != 2 || res.EstimatedFines != 4500 {
		t.Fatalf("unexpected ko/fines: %+v", res)
	}
}

func TestAuditUseCase_CleanupDuplicates(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	audits := []entities.Audit{
		{ID: "keep", AuditorID: "u-1", DateExecution: "2026-01-01", UpdatedAt: base.Add(2 * time.Hour)},
		{ID: "dup-1", AuditorID: "u-1", DateExecution: "2026-01-01", UpdatedAt: base},
		{ID: "dup-2", AuditorID: "u-1", DateExecution: "2026-01-01", UpdatedAt: base.Add(time.Hour)},
		{ID: "alone", AuditorID: "u-2", DateExecution: "2026-01-01", UpdatedAt: base},
	}

	t.Run("dry run deletes nothing", func(t *testing.T) {
		uc, repo, _, _ := newAuditUseCase(t)
		repo.EXPECT().ListAll(gomock.Any()).Return(audits, nil)

		report, err := uc.CleanupDuplicates(context.Background(), true)
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if report.Groups != 1 || len(report.Deleted) != 2 || report.Deleted[0] != "dup-1" || report.Deleted[1] != "dup-2" {
			t.Fatalf("unexpected report: %+v", report)
		}
	})

	t.Run("deletes all but newest", func(t *testing.T) {
		uc, repo, _, _ := newAuditUseCase(t)
		repo.EXPECT().ListAll(gomock.Any()).Return(audits, nil)
		repo.EXPECT().Delete(gomock.Any(), "dup-1").Return(true, nil)
		repo.EXPECT().Delete(gomock.Any(), "dup-2").Return(true, nil)

		if _, err := uc.CleanupDuplicates(context.Background(), false); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	})
}
