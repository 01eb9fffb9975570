package application

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shopfront/order-platform/internal/domain"
	"github.com/shopfront/order-platform/pkg/auth"
)

func newAuthFixture(t *testing.T) (*AuthService, *memStore, *fakeTokens) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	store := newMemStore()
	store.admins["ops"] = &domain.AdminCredential{Username: "ops", PasswordHash: string(hash)}
	store.admins["former"] = &domain.AdminCredential{Username: "former", PasswordHash: string(hash), Disabled: true}

	tokens := &fakeTokens{issueFn: func(p auth.Principal) (string, time.Time, error) {
		return "token-for-" + p.Subject, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
	}}
	return NewAuthService(&fakeAdmins{store: store}, tokens, testLogger()), store, tokens
}

func TestLogin_IssuesAdminToken(t *testing.T) {
	svc, _, tokens := newAuthFixture(t)

	var issued auth.Principal
	next := tokens.issueFn
	tokens.issueFn = func(p auth.Principal) (string, time.Time, error) {
		issued = p
		return next(p)
	}

	token, err := svc.Login(context.Background(), LoginCommand{Username: "ops", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "token-for-ops", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, auth.RoleAdmin, issued.Role)
	assert.Equal(t, "ops", issued.Subject)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "ops", "guess"},
		{"unknown user", "nobody", "s3cret-pass"},
		{"disabled account", "former", "s3cret-pass"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newAuthFixture(t)

			_, err := svc.Login(context.Background(), LoginCommand{Username: tt.username, Password: tt.password})
			appErr := requireStatus(t, err, http.StatusUnauthorized)
			assert.Equal(t, "invalid credentials", appErr.Message)
		})
	}
}

func TestLogin_IssueFailureIsInternal(t *testing.T) {
	svc, _, tokens := newAuthFixture(t)
	tokens.issueFn = func(auth.Principal) (string, time.Time, error) {
		return "", time.Time{}, errors.New("signing key unavailable")
	}

	_, err := svc.Login(context.Background(), LoginCommand{Username: "ops", Password: "s3cret-pass"})
	requireStatus(t, err, http.StatusInternalServerError)
}
