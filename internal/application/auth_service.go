package application

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shopfront/order-platform/internal/domain"
	"github.com/shopfront/order-platform/pkg/auth"
	"github.com/shopfront/order-platform/pkg/logging"
)

// TokenIssuer signs access tokens for a principal
type TokenIssuer interface {
	Issue(principal auth.Principal) (string, time.Time, error)
}

// dummyHash is compared against when the username is unknown so both
// failure paths spend the same bcrypt work.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("unknown-admin"), bcrypt.DefaultCost)

// AuthService authenticates admins
type AuthService struct {
	credentials domain.AdminCredentialStore
	tokens      TokenIssuer
	logger      *logging.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(credentials domain.AdminCredentialStore, tokens TokenIssuer, logger *logging.Logger) *AuthService {
	return &AuthService{
		credentials: credentials,
		tokens:      tokens,
		logger:      logger.WithComponent("admin-auth"),
	}
}

// Login checks an admin's password and issues an admin token
func (s *AuthService) Login(ctx context.Context, cmd LoginCommand) (*TokenDTO, error) {
	credential, err := s.credentials.FindByUsername(ctx, cmd.Username)
	if err != nil {
		return nil, fail(ctx, s.logger, fmt.Errorf("failed to get admin credential: %w", err),
			"Failed to look up admin", "username", cmd.Username)
	}

	hash := dummyHash
	if credential != nil {
		hash = []byte(credential.PasswordHash)
	}
	compareErr := bcrypt.CompareHashAndPassword(hash, []byte(cmd.Password))

	if credential == nil || credential.Disabled || compareErr != nil {
		s.logger.Audit(ctx, "login_failed", "admin", cmd.Username, cmd.Username, nil)
		return nil, mapDomainError(domain.ErrInvalidCredentials)
	}

	token, expiresAt, err := s.tokens.Issue(auth.Principal{
		Subject:  credential.Username,
		Role:     auth.RoleAdmin,
		Username: credential.Username,
	})
	if err != nil {
		return nil, fail(ctx, s.logger, fmt.Errorf("failed to issue token: %w", err),
			"Failed to issue admin token", "username", cmd.Username)
	}

	s.logger.Audit(ctx, "login", "admin", credential.Username, credential.Username, map[string]any{
		"expiresAt": expiresAt,
	})

	return &TokenDTO{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}
