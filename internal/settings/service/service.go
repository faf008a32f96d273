package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"safenest/internal/settings/models"
	dErrors "safenest/pkg/domain-errors"
	"safenest/pkg/platform/audit"
	"safenest/pkg/platform/sentinel"
	txcontext "safenest/pkg/platform/tx"
	"safenest/pkg/requestcontext"
)

type Store interface {
	Get(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, settings *models.Settings) error
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	tx             TxRunner
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(store Store, tx TxRunner, opts ...Option) *Service {
	s := &Service{store: store, tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the saved settings, or the defaults when nothing is saved.
func (s *Service) Get(ctx context.Context) (*models.Settings, error) {
	st, err := s.store.Get(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Defaults(), nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load settings")
	}
	return st, nil
}

// Save replaces the settings row, inserting it on first use.
func (s *Service) Save(ctx context.Context, capacity int, contactEmail string) (*models.Settings, error) {
	st, err := models.New(capacity, contactEmail, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Save(ctx, st); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save settings")
		}
		return s.emit(ctx, st)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) emit(ctx context.Context, st *models.Settings) error {
	s.logger.InfoContext(ctx, string(audit.EventSettingsUpdated),
		"capacity", st.Capacity,
		"request_id", requestcontext.RequestID(ctx),
		"log_type", "audit",
	)
	if s.auditPublisher == nil {
		return nil
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Subject: "settings",
		Action:  string(audit.EventSettingsUpdated),
		Reason:  "capacity=" + strconv.Itoa(st.Capacity),
		ActorID: requestcontext.AdminEmail(ctx),
	})
	if err == nil {
		return nil
	}
	if _, inTx := txcontext.From(ctx); inTx {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	s.logger.WarnContext(ctx, "failed to emit audit event", "error", err)
	return nil
}
