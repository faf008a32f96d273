package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"safenest/internal/auth/device"
	"safenest/internal/auth/models"
	"safenest/internal/auth/password"
	"safenest/internal/platform/metrics"
	id "safenest/pkg/domain"
	dErrors "safenest/pkg/domain-errors"
	"safenest/pkg/platform/audit"
	"safenest/pkg/platform/sentinel"
	"safenest/pkg/requestcontext"
)

const defaultSessionTTL = 12 * time.Hour

type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
}

type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Delete(ctx context.Context, sessionID id.SessionID) error
}

type TokenSigner interface {
	Issue(sessionID id.SessionID, email string, issuedAt, expiresAt time.Time) (string, error)
	Parse(token string) (id.SessionID, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Config carries the allow-listed admin email and session lifetime.
type Config struct {
	AdminEmail string
	SessionTTL time.Duration
}

type Service struct {
	accounts       AccountStore
	sessions       SessionStore
	tokens         TokenSigner
	adminEmail     string
	sessionTTL     time.Duration
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

func New(accounts AccountStore, sessions SessionStore, tokens TokenSigner, cfg Config, opts ...Option) (*Service, error) {
	if accounts == nil || sessions == nil || tokens == nil {
		return nil, errors.New("accounts, sessions and tokens are required")
	}
	adminEmail := models.NormalizeEmail(cfg.AdminEmail)
	if !strings.Contains(adminEmail, "@") {
		return nil, errors.New("admin email must be configured")
	}
	s := &Service{
		accounts:   accounts,
		sessions:   sessions,
		tokens:     tokens,
		adminEmail: adminEmail,
		sessionTTL: cfg.SessionTTL,
		logger:     slog.Default(),
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = defaultSessionTTL
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SignInResult is a new session and the bearer token that references it.
type SignInResult struct {
	Token   string          `json:"token"`
	Session *models.Session `json:"session"`
}

// SignIn verifies credentials, then checks the allow-list. Only the
// allow-listed admin gets a session.
func (s *Service) SignIn(ctx context.Context, email, plain string) (*SignInResult, error) {
	email = models.NormalizeEmail(email)
	if email == "" || plain == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	if err := s.verifyCredentials(ctx, email, plain); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.metrics.IncrementSignIn(metrics.SignInInvalid)
			s.logger.WarnContext(ctx, "admin sign-in failed",
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return nil, err
	}

	if !s.allowed(email) {
		s.metrics.IncrementSignIn(metrics.SignInDenied)
		s.emit(ctx, audit.EventAdminAccessDenied, email, "not on allow-list")
		return nil, dErrors.New(dErrors.CodeForbidden, "access denied")
	}

	now := requestcontext.Now(ctx)
	session := models.NewSession(email, device.Label(requestcontext.UserAgent(ctx)), now, s.sessionTTL)
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}
	tok, err := s.tokens.Issue(session.ID, session.Email, now, session.ExpiresAt)
	if err != nil {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}

	s.metrics.IncrementSignIn(metrics.SignInSuccess)
	s.emit(ctx, audit.EventAdminSignedIn, email, session.Device)
	return &SignInResult{Token: tok, Session: session}, nil
}

func (s *Service) verifyCredentials(ctx context.Context, email, plain string) error {
	account, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if err := password.Verify(plain, account.PasswordHash); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify credentials")
	}
	return nil
}

// Authenticate resolves a bearer token to its session. Expired sessions and
// sessions whose email fails the allow-list are deleted.
func (s *Service) Authenticate(ctx context.Context, token string) (id.SessionID, string, error) {
	sessionID, err := s.tokens.Parse(token)
	if err != nil {
		return id.SessionID{}, "", err
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return id.SessionID{}, "", dErrors.New(dErrors.CodeUnauthorized, "session not found")
	}
	if err != nil {
		return id.SessionID{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}

	if session.Expired(requestcontext.Now(ctx)) {
		s.endSession(ctx, session.ID)
		return id.SessionID{}, "", dErrors.New(dErrors.CodeUnauthorized, "session has expired")
	}
	if !s.allowed(session.Email) {
		s.endSession(ctx, session.ID)
		s.emit(ctx, audit.EventAdminAccessDenied, session.Email, "signed out: not on allow-list")
		return id.SessionID{}, "", dErrors.New(dErrors.CodeForbidden, "access denied")
	}
	return session.ID, session.Email, nil
}

// SignOut deletes the session on ctx. Signing out twice is not an error.
func (s *Service) SignOut(ctx context.Context) error {
	sessionID := requestcontext.SessionID(ctx)
	if sessionID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "sign in required")
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to end session")
	}
	s.emit(ctx, audit.EventAdminSignedOut, requestcontext.AdminEmail(ctx), "")
	return nil
}

// Current returns the session on ctx.
func (s *Service) Current(ctx context.Context) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, requestcontext.SessionID(ctx))
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	return session, nil
}

func (s *Service) allowed(email string) bool {
	return models.NormalizeEmail(email) == s.adminEmail
}

func (s *Service) endSession(ctx context.Context, sessionID id.SessionID) {
	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "failed to delete session", "session_id", sessionID.String(), "error", err)
	}
}

func (s *Service) emit(ctx context.Context, event audit.AuditEvent, email, reason string) {
	s.logger.InfoContext(ctx, string(event),
		"email", email,
		"request_id", requestcontext.RequestID(ctx),
		"log_type", "audit",
	)
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		Subject: email,
		Action:  string(event),
		Reason:  reason,
		ActorID: email,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
