package auth

import (
	"context"
	"errors"

	apperrors "github.com/user/mockshop/internal/errors"
	"github.com/user/mockshop/internal/store"
)

const (
	msgBadCredentials = "Incorrect username or password"
	msgInvalidToken   = "Could not validate credentials"
)

// Authenticator resolves credentials and bearer tokens to shop users
type Authenticator struct {
	users  store.Store
	tokens *TokenIssuer
}

// NewAuthenticator creates an authenticator backed by users
func NewAuthenticator(users store.Store, tokens *TokenIssuer) *Authenticator {
	return &Authenticator{users: users, tokens: tokens}
}

// Login checks a username and password and returns a signed access token
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	user, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", apperrors.NewUnauthorizedError(msgBadCredentials, nil)
		}
		return "", err
	}
	if !VerifyPassword(user.HashedPassword, password) {
		return "", apperrors.NewUnauthorizedError(msgBadCredentials, nil)
	}
	return a.tokens.Issue(user)
}

// Authenticate resolves a bearer token to the user it was issued for
func (a *Authenticator) Authenticate(ctx context.Context, token string) (store.User, error) {
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return store.User{}, apperrors.NewUnauthorizedError(msgInvalidToken, err)
	}

	user, err := a.users.GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, apperrors.NewUnauthorizedError(msgInvalidToken, err)
		}
		return store.User{}, err
	}
	return user, nil
}
