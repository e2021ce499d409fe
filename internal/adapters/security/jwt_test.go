package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pactline/contract-exchange/internal/domain"
)

const testSecret = "local-dev-secret"

func signHS256(t *testing.T, secret string, claims accessClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func validClaims(sub string) accessClaims {
	return accessClaims{
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Moore",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "pactline",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestResolveValidToken(t *testing.T) {
	t.Parallel()

	v, err := NewHS256Verifier(testSecret, "pactline")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	sub := uuid.NewString()
	raw := signHS256(t, testSecret, validClaims(sub))

	got, err := v.Resolve(context.Background(), raw)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.UserID != sub {
		t.Errorf("user id = %s, want %s", got.UserID, sub)
	}
	if got.Username != "alice" || got.Email != "alice@example.com" {
		t.Errorf("profile claims not carried: %+v", got)
	}
}

func TestResolveRejectsBadTokens(t *testing.T) {
	t.Parallel()

	v, err := NewHS256Verifier(testSecret, "pactline")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	expired := validClaims(uuid.NewString())
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongIssuer := validClaims(uuid.NewString())
	wrongIssuer.Issuer = "someone-else"

	noSubject := validClaims("")

	cases := []struct {
		name string
		raw  string
	}{
		{"garbage", "not.a.token"},
		{"wrong secret", signHS256(t, "other-secret", validClaims(uuid.NewString()))},
		{"expired", signHS256(t, testSecret, expired)},
		{"wrong issuer", signHS256(t, testSecret, wrongIssuer)},
		{"no subject", signHS256(t, testSecret, noSubject)},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := v.Resolve(context.Background(), tc.raw); !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("err = %v, want ErrUnauthenticated", err)
			}
		})
	}
}
