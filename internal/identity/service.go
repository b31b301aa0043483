// Copyright (c) 2026 SafHub. All rights reserved.

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/safhub/safhub/internal/platform/apperr"
	"github.com/safhub/safhub/internal/platform/sec"
	"github.com/safhub/safhub/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for minting access tokens.
type TokenProvider interface {
	GenerateAccessToken(userID, email, role, sessionID string, timeToLive time.Duration) (string, error)
}

// PasswordHasher defines the contract for password hashing.
type PasswordHasher interface {
	Hash(plainTextPassword string) (string, error)
	Check(plainTextPassword, existingHash string) bool
}

// Mailer delivers the confirmation token issued at sign-up.
type Mailer interface {
	SendVerification(context context.Context, to, token string) error
}

// Options toggles backend policies.
type Options struct {
	// RequireEmailConfirmation withholds the session at sign-up and refuses
	// password sign-in until the address is verified.
	RequireEmailConfirmation bool

	// Mailer receives every confirmation token while
	// RequireEmailConfirmation is set. Nil logs a warning instead.
	Mailer Mailer
}

// Service implements the account and session use cases.
type Service struct {
	userRepository              UserRepository
	sessionRepository           SessionRepository
	roleRepository              RoleRepository
	verificationTokenRepository VerificationTokenRepository
	tokenProvider               TokenProvider
	passwordHasher              PasswordHasher
	options                     Options
	logger                      *slog.Logger
	now                         func() time.Time
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	roleRepo RoleRepository,
	verifyRepo VerificationTokenRepository,
	tokenProv TokenProvider,
	hasher PasswordHasher,
	options Options,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository:              userRepo,
		sessionRepository:           sessionRepo,
		roleRepository:              roleRepo,
		verificationTokenRepository: verifyRepo,
		tokenProvider:               tokenProv,
		passwordHasher:              hasher,
		options:                     options,
		logger:                      logger,
		now:                         time.Now,
	}
}

// # Registration Flow

// SignUpInput holds the data required to enroll a new member.
type SignUpInput struct {
	Email     string
	Password  string
	Metadata  Metadata
	UserAgent string
	IPAddress string
}

/*
SignUp creates an account and, unless email confirmation is required, its
first session.

Description: The role hint travels in the metadata as-is. No user_roles row
is written here; the session resolver assigns the role on first login.

Returns:
  - *SignUpResult: The user, plus a session when no confirmation is needed
  - err: 409 when the email is taken, or storage errors
*/
func (service *Service) SignUp(context context.Context, input SignUpInput) (*SignUpResult, error) {
	email := strings.TrimSpace(input.Email)

	if _, err := service.userRepository.FindByEmail(context, email); err == nil {
		return nil, apperr.Conflict("User already registered")
	} else if !apperr.HasCode(err, apperr.CodeRowNotFound) {
		return nil, fmt.Errorf("identity_service_signup_lookup_failed: %w", err)
	}

	hashedPassword, err := service.passwordHasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("identity_service_hash_failed: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashedPassword,
		Metadata:     normalizeMetadata(input.Metadata),
		IsVerified:   !service.options.RequireEmailConfirmation,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		if apperr.HasCode(err, apperr.CodeUniqueViolation) {
			return nil, apperr.Conflict("User already registered")
		}
		return nil, fmt.Errorf("identity_service_signup_failed: %w", err)
	}

	service.logger.InfoContext(context, "user_signed_up",
		slog.String("user_id", user.ID),
		slog.String("role_hint", user.Metadata.Role),
		slog.Bool("requires_confirmation", service.options.RequireEmailConfirmation),
	)

	if service.options.RequireEmailConfirmation {
		token, err := sec.GenerateSecureToken(VerificationTokenLength)
		if err != nil {
			return nil, fmt.Errorf("identity_service_verification_token_failed: %w", err)
		}
		if err := service.verificationTokenRepository.Issue(context, token, user.ID, VerificationTokenTTL); err != nil {
			return nil, fmt.Errorf("identity_service_verification_token_store_failed: %w", err)
		}
		service.logger.DebugContext(context, "verification_token_issued", slog.String("user_id", user.ID))
		service.sendVerification(context, user, token)
		return &SignUpResult{User: user}, nil
	}

	session, err := service.issueSession(context, user, input.UserAgent, input.IPAddress)
	if err != nil {
		return nil, err
	}

	return &SignUpResult{User: user, Session: session}, nil
}

// sendVerification hands token to the mailer. The account already exists, so
// a delivery failure is logged rather than failing the sign-up.
func (service *Service) sendVerification(context context.Context, user *User, token string) {
	if service.options.Mailer == nil {
		service.logger.WarnContext(context, "verification_mailer_missing", slog.String("user_id", user.ID))
		return
	}
	if err := service.options.Mailer.SendVerification(context, user.Email, token); err != nil {
		service.logger.ErrorContext(context, "verification_mail_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}
}

// normalizeMetadata trims profile fields and folds them to NFC so that
// visually identical names compare equal.
func normalizeMetadata(metadata Metadata) Metadata {
	clean := func(value string) string {
		return norm.NFC.String(strings.TrimSpace(value))
	}
	return Metadata{
		FirstName: clean(metadata.FirstName),
		LastName:  clean(metadata.LastName),
		School:    clean(metadata.School),
		Grade:     clean(metadata.Grade),
		Role:      strings.TrimSpace(metadata.Role),
	}
}

// # Authentication Flow

// SignInInput defines credentials for a password grant.
type SignInInput struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

/*
SignIn validates credentials and issues a session.

Returns:
  - *LoginSession: Transport-ready credentials
  - err: "Invalid login credentials", email_not_confirmed, or internal failures
*/
func (service *Service) SignIn(context context.Context, input SignInInput) (*LoginSession, error) {
	user, err := service.userRepository.FindByEmail(context, strings.TrimSpace(input.Email))

	// Same message for unknown email and wrong password to prevent enumeration.
	if err != nil {
		if apperr.HasCode(err, apperr.CodeRowNotFound) {
			return nil, apperr.ValidationError("Invalid login credentials")
		}
		return nil, fmt.Errorf("identity_service_signin_lookup_failed: %w", err)
	}

	if !service.passwordHasher.Check(input.Password, user.PasswordHash) {
		return nil, apperr.ValidationError("Invalid login credentials")
	}

	if !user.IsVerified {
		return nil, apperr.EmailNotConfirmed()
	}

	return service.issueSession(context, user, input.UserAgent, input.IPAddress)
}

// issueSession persists a refresh session and mints its access token.
func (service *Service) issueSession(context context.Context, user *User, userAgent, ipAddress string) (*LoginSession, error) {
	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("identity_service_refresh_token_failed: %w", err)
	}

	now := service.now()
	session := &Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(refreshToken),
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: now.Add(RefreshTokenTTL),
		CreatedAt: now,
	}

	if err := service.sessionRepository.Create(context, session); err != nil {
		return nil, fmt.Errorf("identity_service_session_creation_failed: %w", err)
	}

	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Email, service.roleClaim(context, user.ID), session.ID, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("identity_service_token_generation_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:  accessToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(AccessTokenTTL / time.Second),
		ExpiresAt:    now.Add(AccessTokenTTL).Unix(),
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// roleClaim returns the stored role for the token, or "" before the first
// role assignment. Lookup failures degrade to "" rather than blocking sign-in.
func (service *Service) roleClaim(context context.Context, userID string) string {
	assignment, err := service.roleRepository.FindByUserID(context, userID)
	if err != nil {
		if !apperr.HasCode(err, apperr.CodeRowNotFound) {
			service.logger.WarnContext(context, "role_claim_lookup_failed",
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
		}
		return ""
	}
	return string(assignment.Role)
}

// # Session Management

/*
SignOut revokes sessions according to scope.

Description: The session the access token was minted for must still be
active; otherwise the call fails with session_not_found, which clients treat
as "already signed out".

Parameters:
  - claims: verified access-token claims
  - scope: global, local or others
*/
func (service *Service) SignOut(context context.Context, claims *sec.AuthClaims, scope SignOutScope) error {
	session, err := service.sessionRepository.FindByID(context, claims.SessionID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeRowNotFound) {
			return apperr.SessionNotFound()
		}
		return fmt.Errorf("identity_service_signout_lookup_failed: %w", err)
	}

	if !session.IsActive(service.now()) || session.UserID != claims.UserID {
		return apperr.SessionNotFound()
	}

	switch scope {
	case ScopeLocal:
		err = service.sessionRepository.Revoke(context, session.ID)
	case ScopeOthers:
		err = service.sessionRepository.RevokeOthers(context, session.UserID, session.ID)
	default:
		err = service.sessionRepository.RevokeAll(context, session.UserID)
	}
	if err != nil {
		return fmt.Errorf("identity_service_signout_failed: %w", err)
	}

	service.logger.InfoContext(context, "user_signed_out",
		slog.String("user_id", session.UserID),
		slog.String("scope", string(scope)),
	)

	return nil
}

/*
RefreshSession implements refresh-token rotation.

Description: Verifies the refresh token, revokes it to prevent reuse, and
issues a fresh pair. The new access token picks up the current stored role,
so a role changed by an admin reaches the claims here.
*/
func (service *Service) RefreshSession(context context.Context, refreshToken, userAgent, ipAddress string) (*LoginSession, error) {
	session, err := service.sessionRepository.FindByTokenHash(context, sec.HashToken(refreshToken))
	if err != nil || !session.IsActive(service.now()) {
		return nil, apperr.Unauthorized("Invalid Refresh Token: Refresh Token Not Found")
	}

	if err := service.sessionRepository.Revoke(context, session.ID); err != nil {
		return nil, fmt.Errorf("identity_service_refresh_revoke_failed: %w", err)
	}

	user, err := service.userRepository.FindByID(context, session.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("User not found")
	}

	return service.issueSession(context, user, userAgent, ipAddress)
}

// GetUser returns the account behind an access token.
func (service *Service) GetUser(context context.Context, userID string) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("identity_service_get_user_failed: %w", err)
	}
	return user, nil
}

// VerifyEmail confirms the address behind a single-use token. If the
// account update fails the token is put back so the link can be retried.
func (service *Service) VerifyEmail(context context.Context, token string) error {
	userID, err := service.verificationTokenRepository.Consume(context, token)
	if err != nil {
		return err
	}

	if err := service.userRepository.MarkVerified(context, userID); err != nil {
		if restoreErr := service.verificationTokenRepository.Issue(context, token, userID, VerificationTokenTTL); restoreErr != nil {
			service.logger.WarnContext(context, "verify_token_restore_failed", slog.Any("error", restoreErr))
		}
		return fmt.Errorf("identity_service_verify_email_failed: %w", err)
	}

	service.logger.InfoContext(context, "email_verified", slog.String("user_id", userID))

	return nil
}
