package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/observability/metrics"
	"github.com/aryan0dhankhar/tenantcms/internal/security/auth"
	"github.com/aryan0dhankhar/tenantcms/internal/security/strength"
)

// AuthService handles authentication operations
type AuthService struct {
	users             domain.UserRepository
	orgs              domain.OrganizationRepository
	tokens            *auth.TokenManager
	allowRegistration bool
	logger            *slog.Logger
	now               func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users domain.UserRepository,
	orgs domain.OrganizationRepository,
	tokens *auth.TokenManager,
	allowRegistration bool,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		users:             users,
		orgs:              orgs,
		tokens:            tokens,
		allowRegistration: allowRegistration,
		logger:            logger,
		now:               now,
	}
}

// TokenResult is returned by login, registration and refresh.
type TokenResult struct {
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"`
	ExpiresIn int64        `json:"expiresIn"` // seconds
	User      *domain.User `json:"user"`
}

// RegisterInput is a self-service signup into an existing organization.
type RegisterInput struct {
	Email            string `json:"email"`
	Username         string `json:"username"`
	Password         string `json:"password"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	OrganizationSlug string `json:"organizationSlug"`
}

var errInvalidCredentials = domain.Unauthorized("invalid credentials")

// Login authenticates a user and returns a JWT token. Unknown accounts, wrong
// passwords and inactive accounts or organizations are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.Invalid("Validation failed", "email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.InfoContext(ctx, "login attempt with unknown email", slog.String("email", email))
		metrics.ObserveLogin("unknown_user")
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.InfoContext(ctx, "login failed with wrong password", slog.String("user_id", user.ID))
		metrics.ObserveLogin("bad_password")
		return nil, errInvalidCredentials
	}
	if err := s.checkActive(ctx, user); err != nil {
		s.logger.InfoContext(ctx, "login refused for inactive account", slog.String("user_id", user.ID))
		metrics.ObserveLogin("inactive")
		return nil, errInvalidCredentials
	}

	at := s.now()
	if err := s.users.TouchLogin(ctx, user.ID, at); err != nil {
		s.logger.WarnContext(ctx, "failed to record login time",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	} else {
		user.LastLoginAt = &at
	}

	metrics.ObserveLogin("success")
	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("organization_id", user.OrganizationID),
	)
	return s.issue(user)
}

// Register creates a VIEWER account in an existing active organization.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*TokenResult, error) {
	if !s.allowRegistration {
		return nil, domain.Forbidden("registration is disabled")
	}
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	var p problems
	p.email(in.Email)
	p.username(in.Username)
	p.optionalText("firstName", in.FirstName, 100)
	p.optionalText("lastName", in.LastName, 100)
	if strings.TrimSpace(in.OrganizationSlug) == "" {
		p.add("organizationSlug is required")
	}
	if res := strength.Password(in.Password, strength.UserInfo{
		Email: in.Email, Username: in.Username, FirstName: in.FirstName, LastName: in.LastName,
	}); !res.Valid {
		p = append(p, res.Errors...)
	}
	if err := p.err(); err != nil {
		return nil, err
	}

	org, err := s.orgs.GetBySlug(ctx, in.OrganizationSlug)
	if err != nil {
		return nil, err
	}
	if !org.IsActive {
		return nil, domain.NotFound("organization")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:          in.Email,
		Username:       in.Username,
		PasswordHash:   hash,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Role:           domain.RoleViewer,
		IsActive:       true,
		OrganizationID: org.ID,
	}
	user.Stamp("", s.now())
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("organization_id", org.ID),
	)
	return s.issue(user)
}

// Authenticate verifies a bearer token and reloads the caller, so role changes
// and deactivations take effect before the token expires.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	claims, err := s.tokens.Verify(token)
	if errors.Is(err, auth.ErrExpiredToken) {
		return domain.Principal{}, domain.Unauthorized("token expired")
	}
	if err != nil {
		return domain.Principal{}, domain.Unauthorized("invalid token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Principal{}, domain.Unauthorized("invalid token")
	}
	if err != nil {
		return domain.Principal{}, err
	}
	if err := s.checkActive(ctx, user); err != nil {
		return domain.Principal{}, err
	}
	return principalOf(user), nil
}

func (s *AuthService) Me(ctx context.Context, p domain.Principal) (*domain.User, error) {
	return s.users.GetByID(ctx, p.UserID)
}

// ChangePassword changes a user's password
func (s *AuthService) ChangePassword(ctx context.Context, p domain.Principal, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Invalid("Validation failed", "current password is incorrect")
	}
	if oldPassword == newPassword {
		return domain.Invalid("Validation failed", "new password must differ from the current password")
	}
	if res := strength.Password(newPassword, userInfo(user)); !res.Valid {
		return domain.Invalid("Validation failed", res.Errors...)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.Stamp(p.UserID, s.now())
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user changed password", slog.String("user_id", user.ID))
	return nil
}

// RefreshToken issues a new token for an already authenticated principal.
func (s *AuthService) RefreshToken(ctx context.Context, p domain.Principal) (*TokenResult, error) {
	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.checkActive(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) checkActive(ctx context.Context, user *domain.User) error {
	if !user.IsActive {
		return domain.Unauthorized("account is inactive")
	}
	org, err := s.orgs.GetByID(ctx, user.OrganizationID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Unauthorized("organization is inactive")
	}
	if err != nil {
		return err
	}
	if !org.IsActive {
		return domain.Unauthorized("organization is inactive")
	}
	return nil
}

func (s *AuthService) issue(user *domain.User) (*TokenResult, error) {
	token, expires, err := s.tokens.Sign(principalOf(user))
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, err
	}
	return &TokenResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(expires.Sub(s.now()).Seconds()),
		User:      user,
	}, nil
}

func principalOf(u *domain.User) domain.Principal {
	return domain.Principal{
		UserID:         u.ID,
		OrganizationID: u.OrganizationID,
		Role:           u.Role,
		Email:          u.Email,
	}
}

func userInfo(u *domain.User) strength.UserInfo {
	return strength.UserInfo{
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
