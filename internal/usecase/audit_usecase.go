package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/scoring"
	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/metrics"
	"github.com/Sarrabentardeit/Auditalex/internal/usecase/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrAuditNotFound           = errors.New("audit not found")
	ErrInvalidAuditID          = errors.New("invalid audit id")
	ErrInvalidAuditDate        = errors.New("invalid date_execution")
	ErrInvalidAuditStatus      = errors.New("invalid audit status")
	ErrInvalidStatusTransition = errors.New("invalid audit status transition")
	ErrInvalidAuditItem        = errors.New("invalid audit item")
	ErrEmptyAuditPatch         = errors.New("empty audit update")
	ErrUnauthenticated         = errors.New("unauthenticated")
)

// CreateAuditInput is the validated shape of a new audit. Empty Categories
// are filled from the catalog.
type CreateAuditInput struct {
	DateExecution     string
	Address           string
	Categories        []entities.AuditCategory
	CorrectiveActions []entities.CorrectiveActionRow
	Status            entities.AuditStatus
}

// CleanupReport describes one duplicate sweep.
type CleanupReport struct {
	Groups  int      `json:"groups"`
	Deleted []string `json:"deleted"`
	DryRun  bool     `json:"dry_run"`
}

// IAuditUseCase exposes audit operations scoped to the caller.
//
// Non-admin callers only see their own audits; someone else's audit is
// reported as not found.
type IAuditUseCase interface {
	Create(ctx context.Context, caller entities.Identity, in CreateAuditInput) (entities.Audit, error)
	GetByID(ctx context.Context, caller entities.Identity, id string) (entities.Audit, error)
	List(ctx context.Context, caller entities.Identity) ([]entities.Audit, error)
	Update(ctx context.Context, caller entities.Identity, id string, patch entities.AuditPatch) (entities.Audit, error)
	Delete(ctx context.Context, caller entities.Identity, id string) error
	Results(ctx context.Context, caller entities.Identity, id string) (entities.Audit, entities.AuditResults, error)
	CleanupDuplicates(ctx context.Context, dryRun bool) (CleanupReport, error)
}

type AuditUseCase struct {
	repo    interfaces.IAuditRepository
	users   interfaces.IUserRepository
	catalog interfaces.ICatalogSource
	scorer  scoring.Scorer
	logger  *zap.Logger
	now     func() time.Time
}

var _ IAuditUseCase = (*AuditUseCase)(nil)

func NewAuditUseCase(
	repo interfaces.IAuditRepository,
	users interfaces.IUserRepository,
	catalog interfaces.ICatalogSource,
	scorer scoring.Scorer,
	logger *zap.Logger,
) *AuditUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditUseCase{
		repo:    repo,
		users:   users,
		catalog: catalog,
		scorer:  scorer,
		logger:  logger.Named("usecase.audit"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (u *AuditUseCase) Create(ctx context.Context, caller entities.Identity, in CreateAuditInput) (entities.Audit, error) {
	if strings.TrimSpace(caller.ID) == "" {
		return entities.Audit{}, ErrUnauthenticated
	}

	date, err := normalizeDate(in.DateExecution)
	if err != nil {
		return entities.Audit{}, err
	}

	status := in.Status
	if status == "" {
		status = entities.AuditStatusInProgress
	}
	if !status.IsValid() {
		return entities.Audit{}, ErrInvalidAuditStatus
	}

	categories := in.Categories
	if len(categories) == 0 {
		categories, err = u.catalog.LoadCategories(ctx)
		if err != nil {
			return entities.Audit{}, fmt.Errorf("load catalog: %w", err)
		}
	}
	if err := validateCategories(categories); err != nil {
		return entities.Audit{}, err
	}

	now := u.now()
	a := entities.Audit{
		ID:                uuid.NewString(),
		AuditorID:         caller.ID,
		DateExecution:     date,
		Address:           strings.TrimSpace(in.Address),
		Categories:        categories,
		CorrectiveActions: nonNilRows(in.CorrectiveActions),
		Status:            status,
		CreatedAt:         now,
		UpdatedAt:         now,
		Synced:            true,
	}
	if status == entities.AuditStatusCompleted {
		a.CompletedAt = &now
	}

	created, err := u.repo.Create(ctx, a)
	if err != nil {
		return entities.Audit{}, err
	}
	if created.Status == entities.AuditStatusCompleted {
		metrics.AuditsCompleted.Inc()
	}
	u.logger.Info("audit created",
		zap.String("audit_id", created.ID),
		zap.String("auditor_id", created.AuditorID),
		zap.String("status", string(created.Status)))
	return created, nil
}

func (u *AuditUseCase) GetByID(ctx context.Context, caller entities.Identity, id string) (entities.Audit, error) {
	a, err := u.getOwned(ctx, caller, id)
	if err != nil {
		return entities.Audit{}, err
	}
	u.enrich(ctx, []*entities.Audit{&a})
	return a, nil
}

func (u *AuditUseCase) List(ctx context.Context, caller entities.Identity) ([]entities.Audit, error) {
	if strings.TrimSpace(caller.ID) == "" {
		return nil, ErrUnauthenticated
	}

	var (
		audits []entities.Audit
		err    error
	)
	if caller.IsAdmin() {
		audits, err = u.repo.ListAll(ctx)
	} else {
		audits, err = u.repo.ListByAuditorID(ctx, caller.ID)
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(audits, func(i, j int) bool {
		return audits[i].CreatedAt.After(audits[j].CreatedAt)
	})

	refs := make([]*entities.Audit, len(audits))
	for i := range audits {
		refs[i] = &audits[i]
	}
	u.enrich(ctx, refs)
	return audits, nil
}

func (u *AuditUseCase) Update(ctx context.Context, caller entities.Identity, id string, patch entities.AuditPatch) (entities.Audit, error) {
	if patch.IsEmpty() {
		return entities.Audit{}, ErrEmptyAuditPatch
	}

	current, err := u.getOwned(ctx, caller, id)
	if err != nil {
		return entities.Audit{}, err
	}

	if patch.DateExecution != nil {
		date, err := normalizeDate(*patch.DateExecution)
		if err != nil {
			return entities.Audit{}, err
		}
		patch.DateExecution = &date
	}
	if patch.Address != nil {
		addr := strings.TrimSpace(*patch.Address)
		patch.Address = &addr
	}
	if patch.Categories != nil {
		if err := validateCategories(*patch.Categories); err != nil {
			return entities.Audit{}, err
		}
	}

	completing := false
	if patch.Status != nil {
		next := *patch.Status
		if !next.IsValid() {
			return entities.Audit{}, ErrInvalidAuditStatus
		}
		if !current.Status.CanTransitionTo(next) {
			return entities.Audit{}, ErrInvalidStatusTransition
		}
		completing = next == entities.AuditStatusCompleted && current.Status != entities.AuditStatusCompleted
		if completing && patch.CompletedAt == nil {
			now := u.now()
			patch.CompletedAt = &now
		}
	}

	updated, err := u.repo.Update(ctx, current.ID, patch)
	if err != nil {
		return entities.Audit{}, err
	}
	if updated.ID == "" {
		return entities.Audit{}, ErrAuditNotFound
	}
	if completing {
		metrics.AuditsCompleted.Inc()
		u.logger.Info("audit completed", zap.String("audit_id", updated.ID), zap.String("auditor_id", updated.AuditorID))
	}
	u.enrich(ctx, []*entities.Audit{&updated})
	return updated, nil
}

func (u *AuditUseCase) Delete(ctx context.Context, caller entities.Identity, id string) error {
	current, err := u.getOwned(ctx, caller, id)
	if err != nil {
		return err
	}

	deleted, err := u.repo.Delete(ctx, current.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrAuditNotFound
	}
	u.logger.Info("audit deleted", zap.String("audit_id", current.ID), zap.String("caller_id", caller.ID))
	return nil
}

func (u *AuditUseCase) Results(ctx context.Context, caller entities.Identity, id string) (entities.Audit, entities.AuditResults, error) {
	a, err := u.GetByID(ctx, caller, id)
	if err != nil {
		return entities.Audit{}, entities.AuditResults{}, err
	}
	return a, u.scorer.Score(a), nil
}

// CleanupDuplicates keeps, for each auditor and execution day, the most
// recently updated audit and deletes the others.
func (u *AuditUseCase) CleanupDuplicates(ctx context.Context, dryRun bool) (CleanupReport, error) {
	audits, err := u.repo.ListAll(ctx)
	if err != nil {
		return CleanupReport{}, err
	}

	groups := make(map[string][]entities.Audit)
	for _, a := range audits {
		key := a.AuditorID + "|" + a.DateExecution
		groups[key] = append(groups[key], a)
	}

	report := CleanupReport{DryRun: dryRun, Deleted: []string{}}
	for key, group := range groups {
		if len(group) < 2 {
			continue
		}
		report.Groups++
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].UpdatedAt.After(group[j].UpdatedAt)
		})
		for _, dup := range group[1:] {
			report.Deleted = append(report.Deleted, dup.ID)
			if dryRun {
				continue
			}
			if _, err := u.repo.Delete(ctx, dup.ID); err != nil {
				return report, fmt.Errorf("delete duplicate %s: %w", dup.ID, err)
			}
			metrics.DuplicatesRemoved.Inc()
		}
		u.logger.Info("duplicate audits found",
			zap.String("group", key),
			zap.String("kept", group[0].ID),
			zap.Int("duplicates", len(group)-1),
			zap.Bool("dry_run", dryRun))
	}
	sort.Strings(report.Deleted)
	return report, nil
}

func (u *AuditUseCase) getOwned(ctx context.Context, caller entities.Identity, id string) (entities.Audit, error) {
	if strings.TrimSpace(caller.ID) == "" {
		return entities.Audit{}, ErrUnauthenticated
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Audit{}, ErrInvalidAuditID
	}

	a, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Audit{}, err
	}
	if a.ID == "" || !caller.CanAccess(a) {
		return entities.Audit{}, ErrAuditNotFound
	}
	return a, nil
}

// enrich fills auditor name and email. Lookup failures only cost the labels.
func (u *AuditUseCase) enrich(ctx context.Context, audits []*entities.Audit) {
	if u.users == nil || len(audits) == 0 {
		return
	}

	ids := make(map[string]struct{})
	for _, a := range audits {
		if a.AuditorID != "" {
			ids[a.AuditorID] = struct{}{}
		}
	}

	var mu sync.Mutex
	found := make(map[string]entities.User, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for id := range ids {
		id := id
		g.Go(func() error {
			user, err := u.users.GetByID(gctx, id)
			if err != nil {
				u.logger.Warn("auditor lookup failed", zap.String("auditor_id", id), zap.Error(err))
				return nil
			}
			if user.ID == "" {
				return nil
			}
			mu.Lock()
			found[id] = user
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, a := range audits {
		if user, ok := found[a.AuditorID]; ok {
			a.AuditorName = user.Name
			a.AuditorEmail = user.Email
		}
	}
}

func normalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidAuditDate
	}
	if t, err := time.Parse(entities.DateLayout, raw); err == nil {
		return t.Format(entities.DateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC().Format(entities.DateLayout), nil
	}
	return "", ErrInvalidAuditDate
}

func validateCategories(categories []entities.AuditCategory) error {
	for _, c := range categories {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("%w: category without id", ErrInvalidAuditItem)
		}
		for _, it := range c.Items {
			if strings.TrimSpace(it.ID) == "" {
				return fmt.Errorf("%w: item without id in %s", ErrInvalidAuditItem, c.ID)
			}
			if it.KO < 0 {
				return fmt.Errorf("%w: %s: negative ko", ErrInvalidAuditItem, it.ID)
			}
			if it.NonConformities != nil && *it.NonConformities < 0 {
				return fmt.Errorf("%w: %s: negative non_conformities", ErrInvalidAuditItem, it.ID)
			}
			if it.Ponderation < 0 {
				return fmt.Errorf("%w: %s: negative ponderation", ErrInvalidAuditItem, it.ID)
			}
		}
	}
	return nil
}

func nonNilRows(rows []entities.CorrectiveActionRow) []entities.CorrectiveActionRow {
	if rows == nil {
		return []entities.CorrectiveActionRow{}
	}
	return rows
}
