package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/incident-reporter/internal/dto"
	"github.com/noah-isme/incident-reporter/internal/models"
	"github.com/noah-isme/incident-reporter/internal/repository"
	appErrors "github.com/noah-isme/incident-reporter/pkg/errors"
)

// bcrypt ignores input past 72 bytes, so longer submissions never match.
const maxPasswordBytes = 72

type sessionStore interface {
	Get(ctx context.Context, id string) (*models.SessionState, error)
	Save(ctx context.Context, state *models.SessionState) error
	Delete(ctx context.Context, id string) error
}

type authMetrics interface {
	RecordLogin(role models.Role, success bool)
}

// AuthConfig defines the shared secrets and session lifetime.
type AuthConfig struct {
	WorkerPassword  string
	ManagerPassword string
	SessionSecret   string
	SessionTTL      time.Duration
	Issuer          string
	BcryptCost      int
}

// sessionClaims is the signed payload of the session cookie. The jti is the session id.
type sessionClaims struct {
	jwt.RegisteredClaims
}

// AuthService checks role passwords and manages session state.
type AuthService struct {
	store     sessionStore
	metrics   authMetrics
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	hashes    map[models.Role][]byte
	now       func() time.Time
}

// NewAuthService hashes the configured role passwords and constructs the service.
func NewAuthService(store sessionStore, metrics authMetrics, validate *validator.Validate, logger *zap.Logger, config AuthConfig) (*AuthService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 24 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "incident-reporter"
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	if config.SessionSecret == "" {
		return nil, fmt.Errorf("session secret is empty")
	}

	hashes := make(map[models.Role][]byte, 2)
	for role, password := range map[models.Role]string{
		models.RoleWorker:  config.WorkerPassword,
		models.RoleManager: config.ManagerPassword,
	} {
		if password == "" {
			return nil, fmt.Errorf("%s password is empty", role)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), config.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash %s password: %w", role, err)
		}
		hashes[role] = hash
	}

	return &AuthService{
		store:     store,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
		hashes:    hashes,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// SessionTTL is the lifetime given to new sessions and their cookie.
func (s *AuthService) SessionTTL() time.Duration {
	return s.config.SessionTTL
}

// Login checks password for role and marks the session authenticated for it.
// A session is created when current is nil or expired. On mismatch nothing is stored.
func (s *AuthService) Login(ctx context.Context, current *models.SessionState, role models.Role, req dto.LoginRequest) (*models.SessionState, error) {
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Password is required")
	}

	if !s.passwordMatches(role, req.Password) {
		s.recordLogin(role, false)
		s.logger.Info("login rejected", zap.String("role", string(role)))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid password")
	}

	now := s.now()
	state := current
	if state == nil || state.Expired(now) {
		state = &models.SessionState{
			ID:        uuid.NewString(),
			CreatedAt: now,
			ExpiresAt: now.Add(s.config.SessionTTL),
		}
	} else {
		copied := *state
		state = &copied
	}
	state.SetAuthenticated(role, true)

	if err := s.store.Save(ctx, state); err != nil {
		s.logger.Error("failed to save session", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to save session")
	}
	s.recordLogin(role, true)
	s.logger.Info("login accepted", zap.String("role", string(role)))
	return state, nil
}

// Logout clears the flag for the named role and destroys the whole session.
// An unknown or empty role still destroys the session.
func (s *AuthService) Logout(ctx context.Context, state *models.SessionState, role string) error {
	if state == nil {
		return nil
	}
	if r := models.Role(strings.TrimSpace(role)); r.Valid() {
		state.SetAuthenticated(r, false)
	}
	if err := s.store.Delete(ctx, state.ID); err != nil {
		s.logger.Error("failed to destroy session", zap.Error(err))
		return appErrors.Internal(err, "Error logging out")
	}
	return nil
}

// IssueToken signs the session id into the cookie value.
func (s *AuthService) IssueToken(state *models.SessionState) (string, error) {
	if state == nil || state.ID == "" {
		return "", fmt.Errorf("issue session token: missing session")
	}
	claims := &sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        state.ID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(state.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.SessionSecret))
}

// ResolveSession verifies a cookie value and loads its session.
// Tampered, expired or unknown tokens yield ErrSessionNotFound.
func (s *AuthService) ResolveSession(ctx context.Context, tokenString string) (*models.SessionState, error) {
	if tokenString == "" {
		return nil, appErrors.ErrSessionNotFound
	}
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.SessionSecret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSessionNotFound.Code, appErrors.ErrSessionNotFound.Status, "invalid session token")
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, appErrors.ErrSessionNotFound
	}

	state, err := s.store.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, appErrors.ErrSessionNotFound
		}
		return nil, appErrors.Internal(err, "failed to load session")
	}
	return state, nil
}

func (s *AuthService) passwordMatches(role models.Role, password string) bool {
	hash, ok := s.hashes[role]
	if !ok || len(password) > maxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

func (s *AuthService) recordLogin(role models.Role, success bool) {
	if s.metrics != nil {
		s.metrics.RecordLogin(role, success)
	}
}
