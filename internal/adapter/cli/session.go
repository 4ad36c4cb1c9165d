package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sarrabentardeit/Auditalex/internal/client/auditapi"
	"github.com/Sarrabentardeit/Auditalex/internal/client/draft"
	"github.com/Sarrabentardeit/Auditalex/internal/client/localcache"
	"github.com/Sarrabentardeit/Auditalex/internal/client/syncer"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/scoring"

	"go.uber.org/zap"
)

var errNoCredentials = errors.New("AUDITAPI_EMAIL and AUDITAPI_PASSWORD must be set")

// session is one signed-in user's draft store with its sync stack.
type session struct {
	who   entities.Identity
	db    *localcache.DB
	sync  *syncer.Reconciler
	store *draft.Store
}

func openSession(ctx context.Context) (*session, error) {
	if cfg.Client.Email == "" || cfg.Client.Password == "" {
		return nil, errNoCredentials
	}
	api := auditapi.New(cfg.Client.APIURL, cfg.Client.Timeout, logger)
	who, err := api.Login(ctx, cfg.Client.Email, cfg.Client.Password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	db, err := localcache.Open(cfg.Client.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("open local drafts: %w", err)
	}
	repo := localcache.NewDraftRepository(db)
	rec := syncer.New(api, repo, syncer.Options{
		ShortWindow:  cfg.Client.ShortWindow,
		LongWindow:   cfg.Client.LongWindow,
		WriteTimeout: cfg.Client.Timeout,
		Logger:       logger,
	})
	scorer := scoring.New(cfg.Scoring.FinePerKO)
	store := draft.New(draft.Deps{
		Catalog:  api,
		Local:    repo,
		Sync:     rec,
		Identity: who,
		Scorer:   &scorer,
		Logger:   logger,
	})
	logger.Debug("session opened", zap.String("user_id", who.ID), zap.String("role", string(who.Role)))
	return &session{who: who, db: db, sync: rec, store: store}, nil
}

// close sends pending writes before releasing the local database.
func (s *session) close(ctx context.Context) {
	if err := s.store.Close(ctx); err != nil {
		logger.Warn("close draft store", zap.Error(err))
	}
	s.sync.Stop()
	if err := s.db.Close(); err != nil {
		logger.Warn("close local drafts", zap.Error(err))
	}
}

func withSession(ctx context.Context, fn func(s *session) error) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)
	return fn(s)
}

// withAudit loads the audit named by raw as the current audit before fn runs.
func withAudit(ctx context.Context, raw string, fn func(s *session) error) error {
	id, err := draft.ParseID(raw)
	if err != nil {
		return err
	}
	return withSession(ctx, func(s *session) error {
		if _, err := s.store.Load(ctx, id); err != nil {
			return fmt.Errorf("load audit %s: %w", raw, err)
		}
		return fn(s)
	})
}
