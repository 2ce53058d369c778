package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sealbase/sealbase-api/internal/dto"
	"github.com/sealbase/sealbase-api/internal/models"
	appErrors "github.com/sealbase/sealbase-api/pkg/errors"
)

type userStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByLoginToken(ctx context.Context, token string) (*models.User, error)
	SetLoginToken(ctx context.Context, userID string, token *string) error
}

type baseURLResolver interface {
	Resolve(ctx context.Context) string
}

// AuthService issues and validates access tokens, including one-time
// magic-link logins.
type AuthService struct {
	users      userStore
	baseURL    baseURLResolver
	logger     *zap.Logger
	secret     []byte
	expiration time.Duration
}

// NewAuthService constructs the auth service.
func NewAuthService(users userStore, baseURL baseURLResolver, logger *zap.Logger, secret string, expiration time.Duration) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &AuthService{
		users:      users,
		baseURL:    baseURL,
		logger:     logger,
		secret:     []byte(secret),
		expiration: expiration,
	}
}

// Login verifies credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordDigest), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	return s.issueToken(user)
}

// GenerateMagicLink creates a one-time login link for the target user.
// Restricted to admin and superadmin actors.
func (s *AuthService) GenerateMagicLink(ctx context.Context, actor *models.JWTClaims, email string) (*dto.MagicLinkResponse, error) {
	if actor == nil || (actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperadmin) {
		return nil, appErrors.ErrUnauthorized
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	token, err := randomToken()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate login token")
	}
	if err := s.users.SetLoginToken(ctx, user.ID, &token); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store login token")
	}

	s.logger.Sugar().Infow("magic link generated", "user_id", user.ID, "actor_id", actor.UserID)
	link := fmt.Sprintf("%s/magic-login?token=%s", s.baseURL.Resolve(ctx), token)
	return &dto.MagicLinkResponse{MagicLink: link}, nil
}

// ConsumeMagicLink exchanges a one-time login token for an access token and
// clears it so the link cannot be replayed.
func (s *AuthService) ConsumeMagicLink(ctx context.Context, token string) (*dto.TokenResponse, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing login token")
	}
	user, err := s.users.FindByLoginToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired login link")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if err := s.users.SetLoginToken(ctx, user.ID, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear login token")
	}
	return s.issueToken(user)
}

// ValidateToken parses and validates a bearer token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) issueToken(user *models.User) (*dto.TokenResponse, error) {
	now := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID:    user.ID,
		AccountID: user.AccountID,
		Email:     user.Email,
		Role:      user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	return &dto.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.expiration.Seconds()),
	}, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
