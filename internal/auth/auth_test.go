package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/user/mockshop/internal/errors"
	"github.com/user/mockshop/internal/store"
)

func newTestAuthenticator(t *testing.T) (*Authenticator, *TokenIssuer) {
	t.Helper()
	hasher := NewHasher(bcrypt.MinCost)
	st, err := store.NewSeededMemoryStore(hasher.Hash, time.Now())
	require.NoError(t, err)

	issuer := NewTokenIssuer("test-secret", 30*time.Minute)
	return NewAuthenticator(st, issuer), issuer
}

func TestHasher_HashAndVerify(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	hashed, err := hasher.Hash("password123")
	require.NoError(t, err)
	require.NotEqual(t, "password123", hashed)

	require.True(t, VerifyPassword(hashed, "password123"))
	require.False(t, VerifyPassword(hashed, "password124"))
	require.False(t, VerifyPassword("not-a-hash", "password123"))
}

func TestNewHasher_InvalidCostFallsBack(t *testing.T) {
	require.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	require.Equal(t, bcrypt.DefaultCost, NewHasher(99).cost)
	require.Equal(t, 12, NewHasher(12).cost)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)

	token, err := issuer.Issue(store.User{ID: 1, Username: "admin", Role: store.RoleAdmin})
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Subject)
	require.Equal(t, "admin", claims.Role)
	require.NotNil(t, claims.ExpiresAt)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issued := time.Now().Add(-2 * time.Hour)
	issuer.now = func() time.Time { return issued }

	token, err := issuer.Issue(store.User{Username: "johndoe", Role: store.RoleUser})
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("one", time.Minute).Issue(store.User{Username: "johndoe"})
	require.NoError(t, err)

	_, err = NewTokenIssuer("two", time.Minute).Parse(token)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Minute).Parse(token)
	require.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		token, ok := BearerToken(tt.header)
		require.Equal(t, tt.ok, ok, "header %q", tt.header)
		require.Equal(t, tt.token, token, "header %q", tt.header)
	}
}

func TestAuthenticator_Login(t *testing.T) {
	a, issuer := newTestAuthenticator(t)
	ctx := context.Background()

	token, err := a.Login(ctx, "johndoe", "password123")
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "johndoe", claims.Subject)
	require.Equal(t, "user", claims.Role)

	for _, creds := range [][2]string{{"johndoe", "wrong"}, {"ghost", "password123"}} {
		_, err := a.Login(ctx, creds[0], creds[1])
		require.Error(t, err)

		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		require.Equal(t, http.StatusUnauthorized, appErr.Status())
		require.Equal(t, "Incorrect username or password", appErr.Message)
	}
}

func TestAuthenticator_Authenticate(t *testing.T) {
	a, issuer := newTestAuthenticator(t)
	ctx := context.Background()

	token, err := a.Login(ctx, "admin", "admin123")
	require.NoError(t, err)

	user, err := a.Authenticate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, 1, user.ID)
	require.True(t, user.IsAdmin())

	_, err = a.Authenticate(ctx, "garbage")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, appErr.Status())

	orphan, err := issuer.Issue(store.User{Username: "deleted", Role: store.RoleUser})
	require.NoError(t, err)
	_, err = a.Authenticate(ctx, orphan)
	appErr, ok = apperrors.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, appErr.Status())
}
