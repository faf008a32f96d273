package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"safenest/internal/onboarding/models"
	"safenest/internal/platform/config"
	"safenest/internal/platform/metrics"
	residentmodels "safenest/internal/resident/models"
	id "safenest/pkg/domain"
	dErrors "safenest/pkg/domain-errors"
	"safenest/pkg/email"
	"safenest/pkg/platform/audit"
	"safenest/pkg/platform/sentinel"
	txcontext "safenest/pkg/platform/tx"
	"safenest/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, r *models.Request) error
	Update(ctx context.Context, r *models.Request) error
	FindByID(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	List(ctx context.Context) ([]*models.Request, error)
	Delete(ctx context.Context, requestID id.RequestID) error
}

// ResidentStore is the slice of the resident store promotion needs.
type ResidentStore interface {
	Create(ctx context.Context, r *residentmodels.Resident) error
	FindByName(ctx context.Context, name string) (*residentmodels.Resident, error)
	FindBySourceRequest(ctx context.Context, requestID id.RequestID) (*residentmodels.Resident, error)
}

// TxRunner wraps each write and its audit outbox rows in one store transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs the onboarding workflow: intake, review transitions and
// promotion of approved requests into residents.
type Service struct {
	requests       Store
	residents      ResidentStore
	tx             TxRunner
	caseManager    string
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
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

// WithCaseManager sets the case manager assigned to promoted residents.
func WithCaseManager(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.caseManager = name
		}
	}
}

func New(requests Store, residents ResidentStore, tx TxRunner, opts ...Option) (*Service, error) {
	if requests == nil {
		return nil, errors.New("onboarding store is required")
	}
	if residents == nil {
		return nil, errors.New("resident store is required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	s := &Service{
		requests:    requests,
		residents:   residents,
		tx:          tx,
		caseManager: config.DefaultCaseManager,
		logger:      slog.Default(),
		tracer:      otel.Tracer("safenest/onboarding"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Result reports the request after a status change and, when the change
// approved it, the resident it maps to.
type Result struct {
	Request  *models.Request         `json:"request"`
	Resident *residentmodels.Resident `json:"resident,omitempty"`
	Promoted bool                    `json:"promoted"`
}

// Submit records a public intake in Pending Review.
func (s *Service) Submit(ctx context.Context, in models.Intake) (*models.Request, error) {
	r, err := models.NewRequest(id.NewRequestID(), in, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.requests.Create(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save onboarding request")
		}
		return s.logAudit(ctx, audit.EventOnboardingSubmitted, r.ID.String(), "")
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementSubmission("onboarding")
	return r, nil
}

func (s *Service) Get(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	r, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load onboarding request")
	}
	return r, nil
}

// List returns the review queue for the given filter.
func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]*models.Request, error) {
	all, err := s.requests.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list onboarding requests")
	}
	return filter.Apply(all), nil
}

// Advance moves the request one step along the review pipeline and promotes
// it when the step lands on Approved.
func (s *Service) Advance(ctx context.Context, requestID id.RequestID) (*Result, error) {
	return s.transition(ctx, requestID, func(r *models.Request) error {
		return r.Advance(requestcontext.Now(ctx))
	})
}

// Update replaces the editable fields. Setting the status to Approved from
// any other status promotes the request; re-saving an Approved request does not.
func (s *Service) Update(ctx context.Context, requestID id.RequestID, in models.Intake, status models.Status) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	status, err := models.ParseStatus(string(status))
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, requestID, func(r *models.Request) error {
		return r.Replace(in, status, requestcontext.Now(ctx))
	})
}

// transition loads, mutates and saves a request inside one transaction,
// running promotion when the status moves into Approved.
func (s *Service) transition(ctx context.Context, requestID id.RequestID, mutate func(*models.Request) error) (*Result, error) {
	var result Result
	var prior models.Status

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		r, err := s.requests.FindByID(ctx, requestID)
		if err != nil {
			return translateStoreErr(err, "failed to load onboarding request")
		}
		prior = r.Status
		if err := mutate(r); err != nil {
			return err
		}
		result.Request = r

		if prior != models.StatusApproved && r.Status == models.StatusApproved {
			resident, created, err := s.promote(ctx, r)
			if err != nil {
				return err
			}
			result.Resident = resident
			result.Promoted = created
		}

		if err := s.requests.Update(ctx, r); err != nil {
			return translateStoreErr(err, "failed to save onboarding request")
		}

		if prior != r.Status {
			if err := s.logAudit(ctx, audit.EventOnboardingStatusChanged, requestID.String(),
				string(prior)+" -> "+string(r.Status)); err != nil {
				return err
			}
		}
		if result.Promoted {
			return s.logAudit(ctx, audit.EventResidentPromoted, result.Resident.ID.String(), "source_request="+requestID.String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Request.Status == models.StatusApproved && prior != models.StatusApproved {
		if result.Promoted {
			s.metrics.IncrementPromotion(metrics.PromotionCreated)
		} else {
			s.metrics.IncrementPromotion(metrics.PromotionSkipped)
		}
	}
	return &result, nil
}

// promote finds the resident an approved request maps to, creating it when
// none exists. created is false when an existing resident matched by source
// request or by folded name.
func (s *Service) promote(ctx context.Context, r *models.Request) (resident *residentmodels.Resident, created bool, err error) {
	ctx, span := s.tracer.Start(ctx, "onboarding.promote",
		trace.WithAttributes(attribute.String("request_id", r.ID.String())))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "promotion failed")
		}
		span.SetAttributes(attribute.Bool("resident_created", created))
		span.End()
	}()

	existing, err := s.findExisting(ctx, r)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		s.logger.InfoContext(ctx, "resident already exists for approved request",
			"request_id", r.ID.String(),
			"resident_id", existing.ID.String(),
		)
		return existing, false, nil
	}

	resident, err = residentmodels.Promote(id.NewResidentID(), r.Promotion(), s.caseManager, requestcontext.Now(ctx))
	if err != nil {
		return nil, false, err
	}
	if err := s.residents.Create(ctx, resident); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.logger.InfoContext(ctx, "concurrent promotion already created resident",
				"request_id", r.ID.String(),
			)
			return nil, false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create resident")
	}
	return resident, true, nil
}

func (s *Service) findExisting(ctx context.Context, r *models.Request) (*residentmodels.Resident, error) {
	existing, err := s.residents.FindBySourceRequest(ctx, r.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check for existing resident")
	}

	existing, err = s.residents.FindByName(ctx, r.FullName)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check for existing resident")
	}
	return nil, nil
}

// SetResolved hides or restores the request in the default list view.
func (s *Service) SetResolved(ctx context.Context, requestID id.RequestID, resolved bool) (*models.Request, error) {
	r, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load onboarding request")
	}
	r.SetResolved(resolved, requestcontext.Now(ctx))
	if err := s.requests.Update(ctx, r); err != nil {
		return nil, translateStoreErr(err, "failed to save onboarding request")
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, requestID id.RequestID) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.requests.Delete(ctx, requestID); err != nil {
			return translateStoreErr(err, "failed to delete onboarding request")
		}
		return s.logAudit(ctx, audit.EventRecordDeleted, requestID.String(), "onboarding_request")
	})
	if err != nil {
		return err
	}
	s.metrics.IncrementDeletion("onboarding_request")
	return nil
}

// ReplyLink builds a mailto: link addressed to the applicant.
func (s *Service) ReplyLink(ctx context.Context, requestID id.RequestID) (string, error) {
	r, err := s.Get(ctx, requestID)
	if err != nil {
		return "", err
	}
	body := email.Greeting(r.FullName) + "\n\n" +
		"Thank you for reaching out to Agape Safety Nest. We have received your onboarding request " +
		"and would like to follow up with you.\n\n" +
		"Your request:\n" + email.Quote(r.Summary())
	return email.ComposeLink(r.Email, "Your Onboarding Request - Agape Safety Nest", body), nil
}

func translateStoreErr(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "onboarding request not found or not permitted")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// logAudit records the event. Inside a SQL transaction the outbox row must
// commit with the change, so a failed insert is returned and rolls it back;
// otherwise the failure is only logged.
func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, subject, reason string) error {
	s.logger.InfoContext(ctx, string(event),
		"subject", subject,
		"reason", reason,
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
