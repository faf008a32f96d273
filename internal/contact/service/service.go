package service

import (
	"context"
	"errors"
	"log/slog"

	"safenest/internal/contact/models"
	"safenest/internal/platform/metrics"
	id "safenest/pkg/domain"
	dErrors "safenest/pkg/domain-errors"
	"safenest/pkg/platform/audit"
	"safenest/pkg/platform/sentinel"
	txcontext "safenest/pkg/platform/tx"
	"safenest/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, sub *models.Submission) error
	Update(ctx context.Context, sub *models.Submission) error
	FindByID(ctx context.Context, contactID id.ContactID) (*models.Submission, error)
	List(ctx context.Context) ([]*models.Submission, error)
	Delete(ctx context.Context, contactID id.ContactID) error
}

// TxRunner commits a submission or deletion together with its outbox row.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service handles contact form submissions and their admin follow-up.
type Service struct {
	store          Store
	tx             TxRunner
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

func New(store Store, tx TxRunner, opts ...Option) *Service {
	s := &Service{store: store, tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Submit(ctx context.Context, f models.Fields) (*models.Submission, error) {
	sub, err := models.NewSubmission(id.NewContactID(), f, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, sub); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save contact submission")
		}
		return s.emit(ctx, audit.EventContactSubmitted, sub.ID.String(), "")
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementSubmission("contact")
	return sub, nil
}

func (s *Service) Get(ctx context.Context, contactID id.ContactID) (*models.Submission, error) {
	sub, err := s.store.FindByID(ctx, contactID)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load contact submission")
	}
	return sub, nil
}

func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Submission, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list contact submissions")
	}
	return filter.Apply(all), nil
}

// Update replaces the editable fields and the resolved flag.
func (s *Service) Update(ctx context.Context, contactID id.ContactID, f models.Fields, resolved bool) (*models.Submission, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	sub, err := s.store.FindByID(ctx, contactID)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load contact submission")
	}
	if err := sub.Replace(f, resolved); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, sub); err != nil {
		return nil, translateStoreErr(err, "failed to save contact submission")
	}
	return sub, nil
}

func (s *Service) SetResolved(ctx context.Context, contactID id.ContactID, resolved bool) (*models.Submission, error) {
	sub, err := s.store.FindByID(ctx, contactID)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load contact submission")
	}
	sub.Resolved = resolved
	if err := s.store.Update(ctx, sub); err != nil {
		return nil, translateStoreErr(err, "failed to save contact submission")
	}
	return sub, nil
}

func (s *Service) Delete(ctx context.Context, contactID id.ContactID) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Delete(ctx, contactID); err != nil {
			return translateStoreErr(err, "failed to delete contact submission")
		}
		return s.emit(ctx, audit.EventRecordDeleted, contactID.String(), "contact_submission")
	})
	if err != nil {
		return err
	}
	s.metrics.IncrementDeletion("contact_submission")
	return nil
}

func (s *Service) ReplyLink(ctx context.Context, contactID id.ContactID) (string, error) {
	sub, err := s.Get(ctx, contactID)
	if err != nil {
		return "", err
	}
	return sub.ReplyLink(), nil
}

func translateStoreErr(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "contact submission not found or not permitted")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

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
