package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/notify"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// RegisterInput carries the registration payload.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Password    string
	Description string
}

// AuthService coordinates registration, login, password reset and logout.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	hasher     auth.CredentialHasher
	mailer     notify.Mailer
	dispatcher events.Dispatcher
	revoked    auth.RevocationStore
	tokenMgr   *auth.TokenManager
	resetTTL   time.Duration
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborator requirements for the service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Hasher            auth.CredentialHasher
	Mailer            notify.Mailer
	Dispatcher        events.Dispatcher
	Revocations       auth.RevocationStore
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		hasher:     deps.Hasher,
		mailer:     deps.Mailer,
		dispatcher: deps.Dispatcher,
		revoked:    deps.Revocations,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		logger:     logger,
	}
}

// Register creates a new account and returns it with a fresh bearer token.
// The verification email is dispatched through the event bus after the
// insert; delivery failure never rolls back the created account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, string, time.Time, error) {
	if fields := validateRegister(in); len(fields) > 0 {
		return nil, "", time.Time{}, apperrors.NewValidationError("validation failed", fields)
	}

	// Advisory fast path only. The unique index on users.email is the
	// authoritative guard; Create maps its violation to the same error.
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, "", time.Time{}, apperrors.NewDuplicateEmail()
	} else if err != pgx.ErrNoRows {
		return nil, "", time.Time{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	code, err := auth.GenerateVerificationCode()
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Email:            in.Email,
		Phone:            optional(in.Phone),
		PasswordHash:     hash,
		AccountBalance:   0,
		Status:           domain.UserStatusActive,
		Role:             domain.UserRoleUser,
		Description:      optional(in.Description),
		VerificationCode: code,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	s.publish(ctx, events.Event{
		Type:  events.EventUserRegistered,
		Email: user.Email,
		Payload: events.UserRegisteredPayload{
			UserID:           user.ID,
			FirstName:        user.FirstName,
			VerificationCode: user.VerificationCode,
		},
	})

	token, exp, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Login authenticates an account. Each successful call mints a new token;
// earlier tokens remain valid until they expire or are revoked.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	fields := map[string]any{}
	if strings.TrimSpace(email) == "" {
		fields["email"] = "email is required"
	}
	if password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return nil, "", time.Time{}, apperrors.NewValidationError("validation failed", fields)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// RequestPasswordReset issues a reset token bound to the email and mails the
// reset link. Unknown emails and mail failures share one opaque error so the
// endpoint cannot be used to probe which accounts exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if fields := validateEmailField(email); len(fields) > 0 {
		return apperrors.NewValidationError("validation failed", fields)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewResetFailure()
		}
		return err
	}

	token := &domain.PasswordResetToken{
		Email:     user.Email,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Replace(ctx, token); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetLink(ctx, user.Email, token.Token); err != nil {
		s.logger.Warn("failed to send reset link", zap.Error(err))
		return apperrors.NewResetFailure()
	}
	return nil
}

// ResetPassword validates a pending reset token, stores the new password
// hash and consumes the token. Bad, expired and unknown tokens all yield the
// same opaque error.
func (s *AuthService) ResetPassword(ctx context.Context, email, tokenStr, newPassword string) error {
	fields := validateEmailField(email)
	if tokenStr == "" {
		fields["token"] = "token is required"
	}
	if err := auth.CheckPassword(newPassword); err != nil {
		fields["password"] = err.Error()
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError("validation failed", fields)
	}

	token, err := s.resets.GetByEmailAndToken(ctx, email, tokenStr)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewResetFailure()
		}
		return err
	}
	if time.Now().After(token.ExpiresAt) {
		_ = s.resets.Delete(ctx, token.ID)
		return apperrors.NewResetFailure()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewResetFailure()
		}
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	if err := s.resets.Delete(ctx, token.ID); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventPasswordResetCompleted,
		Email:   user.Email,
		Payload: events.PasswordResetCompletedPayload{UserID: user.ID},
	})
	return nil
}

// Logout revokes the presented bearer token until its natural expiry.
// Missing, malformed and already-revoked tokens all succeed, so calling
// logout twice is never an error.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" || s.revoked == nil {
		return nil
	}
	claims, err := s.tokenMgr.ParseToken(rawToken)
	if err != nil {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("failed to revoke token", zap.String("jti", claims.ID), zap.Error(err))
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// RevocationStore exposes the revoked-token store for middleware usage.
func (s *AuthService) RevocationStore() auth.RevocationStore {
	return s.revoked
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}

func validateRegister(in RegisterInput) map[string]any {
	fields := map[string]any{}
	if strings.TrimSpace(in.FirstName) == "" {
		fields["first_name"] = "first name is required"
	}
	if strings.TrimSpace(in.LastName) == "" {
		fields["last_name"] = "last name is required"
	}
	for k, v := range validateEmailField(in.Email) {
		fields[k] = v
	}
	if err := auth.CheckPassword(in.Password); err != nil {
		fields["password"] = err.Error()
	}
	return fields
}

func validateEmailField(email string) map[string]any {
	fields := map[string]any{}
	if strings.TrimSpace(email) == "" {
		fields["email"] = "email is required"
	} else if !auth.ValidEmail(email) {
		fields["email"] = "email format is invalid"
	}
	return fields
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
