package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	CreateSession(ctx context.Context, session *models.Session) error
	FindSession(ctx context.Context, tokenHash string) (*models.Session, error)
	RevokeSession(ctx context.Context, id string, at time.Time) error
	RevokeSessions(ctx context.Context, userID string, at time.Time) (int64, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
	SingleSession      bool
}

// AuthService signs office users in and rotates their refresh sessions.
type AuthService struct {
	users     userStore
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users userStore, audit auditWriter, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		users:     users,
		audit:     audit,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Login checks the credentials and opens a new session. Unknown addresses
// and wrong passwords fail with the same error.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest, actor Actor) (*dto.LoginResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.loginFailed(ctx, actor, nil, req.Email)
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.loginFailed(ctx, actor, &user.ID, req.Email)
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	now := s.now()
	if s.config.SingleSession {
		if _, err := s.users.RevokeSessions(ctx, user.ID, now); err != nil {
			s.logger.Warn("failed to close previous sessions", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	pair, err := s.issue(ctx, user, actor)
	if err != nil {
		return nil, err
	}
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}

	actor.UserID = &user.ID
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionLogin, "auth", &user.ID, nil)

	profile := profileOf(user)
	profile.LastLogin = &now
	return &dto.LoginResult{TokenPair: *pair, User: profile}, nil
}

// Refresh rotates a refresh token. Presenting a token that was already
// rotated or logged out closes every session of its owner.
func (s *AuthService) Refresh(ctx context.Context, req dto.RefreshRequest, actor Actor) (*dto.TokenPair, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid refresh payload")
	}

	session, err := s.session(ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if session.Revoked() {
		closed, err := s.users.RevokeSessions(ctx, session.UserID, now)
		if err != nil {
			s.logger.Error("failed to close sessions after token reuse", zap.String("user_id", session.UserID), zap.Error(err))
		}
		s.logger.Warn("refresh token reuse detected", zap.String("user_id", session.UserID), zap.Int64("sessions_closed", closed))
		actor.UserID = &session.UserID
		recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionSessionReuse, "auth", &session.UserID,
			map[string]interface{}{"session_id": session.ID, "sessions_closed": closed})
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token has already been used")
	}
	if session.Expired(now) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token has expired")
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	if err := s.users.RevokeSession(ctx, session.ID, now); err != nil {
		return nil, appErrors.Internal(err, "failed to rotate session")
	}
	return s.issue(ctx, user, actor)
}

// Logout closes the session behind a refresh token. When the caller is
// signed in the token must be theirs. Logging out twice succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, actor Actor) error {
	session, err := s.session(ctx, refreshToken)
	if err != nil {
		return err
	}
	if actor.UserID != nil && *actor.UserID != session.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "token does not belong to user")
	}
	if session.Revoked() {
		return nil
	}
	if err := s.users.RevokeSession(ctx, session.ID, s.now()); err != nil {
		return appErrors.Internal(err, "failed to revoke session")
	}

	actor.UserID = &session.UserID
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionLogout, "auth", &session.UserID, nil)
	return nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.AccessClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.AccessClaims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(s.config.AccessTokenSecret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "access token has expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.AccessClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*dto.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	profile := profileOf(user)
	return &profile, nil
}

func (s *AuthService) session(ctx context.Context, refreshToken string) (*models.Session, error) {
	session, err := s.users.FindSession(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not recognised")
		}
		return nil, appErrors.Internal(err, "failed to load session")
	}
	return session, nil
}

// issue signs an access token and stores a fresh refresh session.
func (s *AuthService) issue(ctx context.Context, user *models.User, actor Actor) (*dto.TokenPair, error) {
	now := s.now()
	access, accessExp, err := s.signAccessToken(user, now)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign access token")
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, appErrors.Internal(err, "failed to create refresh token")
	}
	refresh := base64.RawURLEncoding.EncodeToString(raw)

	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hashToken(refresh),
		ExpiresAt: now.Add(s.config.RefreshTokenExpiry),
		CreatedAt: now,
		IPAddress: actor.IP,
		UserAgent: actor.UserAgent,
	}
	if err := s.users.CreateSession(ctx, session); err != nil {
		return nil, appErrors.Internal(err, "failed to persist session")
	}

	return &dto.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresIn:        int64(s.config.AccessTokenExpiry.Seconds()),
		ExpiresAt:        accessExp,
		RefreshExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *AuthService) signAccessToken(user *models.User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.config.AccessTokenExpiry)
	claims := &models.AccessClaims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		Name:   user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *AuthService) loginFailed(ctx context.Context, actor Actor, userID *string, email string) {
	actor.UserID = userID
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionLoginFailed, "auth", userID, map[string]string{"email": email})
}

func profileOf(user *models.User) dto.Profile {
	return dto.Profile{ID: user.ID, Email: user.Email, FullName: user.FullName, Role: user.Role, LastLogin: user.LastLogin}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
