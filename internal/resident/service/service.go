package service

import (
	"context"
	"errors"
	"log/slog"

	"safenest/internal/platform/config"
	"safenest/internal/platform/metrics"
	"safenest/internal/resident/export"
	"safenest/internal/resident/models"
	id "safenest/pkg/domain"
	dErrors "safenest/pkg/domain-errors"
	"safenest/pkg/platform/audit"
	"safenest/pkg/platform/sentinel"
	txcontext "safenest/pkg/platform/tx"
	"safenest/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, r *models.Resident) error
	Update(ctx context.Context, r *models.Resident) error
	FindByID(ctx context.Context, residentID id.ResidentID) (*models.Resident, error)
	FindByName(ctx context.Context, name string) (*models.Resident, error)
	List(ctx context.Context) ([]*models.Resident, error)
	Delete(ctx context.Context, residentID id.ResidentID) error
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages the resident roster.
type Service struct {
	store          Store
	tx             TxRunner
	caseManager    string
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithCaseManager(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.caseManager = name
		}
	}
}

func New(store Store, tx TxRunner, opts ...Option) *Service {
	s := &Service{
		store:       store,
		tx:          tx,
		caseManager: config.DefaultCaseManager,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a resident. A resident whose folded name matches an existing
// one is rejected as a conflict.
func (s *Service) Create(ctx context.Context, f models.Fields) (*models.Resident, error) {
	r, err := models.NewResident(id.NewResidentID(), f, s.caseManager, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.ensureNameAvailable(ctx, r.Name, id.ResidentID{}); err != nil {
			return err
		}
		if err := s.store.Create(ctx, r); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "resident already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create resident")
		}
		return s.emit(ctx, audit.EventResidentCreated, r.ID.String(), "")
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, residentID id.ResidentID) (*models.Resident, error) {
	r, err := s.store.FindByID(ctx, residentID)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load resident")
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]*models.Resident, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list residents")
	}
	return filter.Apply(all), nil
}

// Update replaces every editable field. Renaming onto another resident's
// name is a conflict.
func (s *Service) Update(ctx context.Context, residentID id.ResidentID, f models.Fields) (*models.Resident, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var updated *models.Resident
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		r, err := s.store.FindByID(ctx, residentID)
		if err != nil {
			return translateStoreErr(err, "failed to load resident")
		}
		if err := r.Replace(f, s.caseManager, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.ensureNameAvailable(ctx, r.Name, r.ID); err != nil {
			return err
		}
		if err := s.store.Update(ctx, r); err != nil {
			return translateStoreErr(err, "failed to save resident")
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, residentID id.ResidentID) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Delete(ctx, residentID); err != nil {
			return translateStoreErr(err, "failed to delete resident")
		}
		return s.emit(ctx, audit.EventRecordDeleted, residentID.String(), "resident")
	})
	if err != nil {
		return err
	}
	s.metrics.IncrementDeletion("resident")
	return nil
}

// Export renders the filtered list as an .xlsx workbook.
func (s *Service) Export(ctx context.Context, filter models.ListFilter) ([]byte, error) {
	residents, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data, err := export.Workbook(residents)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build resident export")
	}
	return data, nil
}

func (s *Service) ensureNameAvailable(ctx context.Context, name string, self id.ResidentID) error {
	existing, err := s.store.FindByName(ctx, name)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check for duplicate resident")
	case existing.ID == self:
		return nil
	default:
		return dErrors.New(dErrors.CodeConflict, "a resident named "+existing.Name+" already exists")
	}
}

func translateStoreErr(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "resident not found or not permitted")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// emit fails the surrounding SQL transaction when the outbox row cannot be
// written. Without one the failure is logged and dropped.
func (s *Service) emit(ctx context.Context, event audit.AuditEvent, subject, reason string) error {
	s.logger.InfoContext(ctx, string(event),
		"subject", subject,
		"request_id", requestcontext.RequestID(ctx),
		"log_type", "audit",
	)
	if s.auditPublisher == nil {
		return nil
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Subject: subject,
		Action:  string(event),
		Reason:  reason,
		ActorID: requestcontext.AdminEmail(ctx),
	})
	if err == nil {
		return nil
	}
	if _, inTx := txcontext.From(ctx); inTx {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	return nil
}
