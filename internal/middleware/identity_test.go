package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories/memstore"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

var secret = []byte("test-secret")

func sign(t *testing.T, userID string, key []byte, expires time.Time) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID:           userID,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expires)},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

type fakeVerifier map[string]string

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	uid, ok := f[idToken]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &auth.Token{UID: uid}, nil
}

func TestRequireIdentity(t *testing.T) {
	store := memstore.New(1)
	linked := &models.User{Username: "linked", Email: "l@example.com", FirebaseUID: "fb-1"}
	if err := store.CreateUser(context.Background(), linked); err != nil {
		t.Fatal(err)
	}

	mw := RequireIdentity(
		JWTResolver{Secret: secret},
		FirebaseResolver{Verifier: fakeVerifier{"fb-token": "fb-1", "orphan": "fb-2"}, Users: store},
	)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, UserID(c))
	})

	future := time.Now().Add(time.Hour)
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"jwt", "Bearer " + sign(t, "u-1", secret, future), "u-1"},
		{"lowercase scheme", "bearer " + sign(t, "u-1", secret, future), "u-1"},
		{"firebase", "Bearer fb-token", linked.ID},
		{"missing header", "", ""},
		{"not bearer", "Basic abc", ""},
		{"expired jwt", "Bearer " + sign(t, "u-1", secret, time.Now().Add(-time.Hour)), ""},
		{"wrong key", "Bearer " + sign(t, "u-1", []byte("other"), future), ""},
		{"unlinked firebase user", "Bearer orphan", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(req, rec)

			err := handler(c)
			if tt.want == "" {
				if !apperr.Is(err, apperr.KindUnauthorized) {
					t.Fatalf("err = %v, want Unauthorized", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if rec.Body.String() != tt.want {
				t.Fatalf("caller = %q, want %q", rec.Body.String(), tt.want)
			}
		})
	}
}
