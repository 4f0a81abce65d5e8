package middleware

import (
	"context"
	"errors"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo.Context key holding the resolved caller id.
const UserIDKey = "userID"

// Resolver maps a bearer token to a caller id.
type Resolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// RequireIdentity rejects requests whose bearer token no resolver accepts.
// Resolvers are tried in order.
func RequireIdentity(resolvers ...Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return apperr.Unauthorized("Missing Authorization header")
			}
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return apperr.Unauthorized("Authorization header must be in Bearer format")
			}

			for _, r := range resolvers {
				userID, err := r.Resolve(c.Request().Context(), parts[1])
				if err == nil && userID != "" {
					c.Set(UserIDKey, userID)
					return next(c)
				}
			}
			return apperr.Unauthorized("Invalid or expired token")
		}
	}
}

// UserID returns the caller id set by RequireIdentity, or "".
func UserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}

// JWTResolver accepts HS256 tokens signed by the sign-in endpoint.
type JWTResolver struct {
	Secret []byte
}

func (r JWTResolver) Resolve(_ context.Context, tokenString string) (string, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return r.Secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.UserID == "" {
		return "", errors.New("invalid token")
	}
	return claims.UserID, nil
}

// TokenVerifier verifies Firebase ID tokens. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseResolver accepts Firebase ID tokens of users linked by Firebase UID.
type FirebaseResolver struct {
	Verifier TokenVerifier
	Users    repositories.UserRepository
}

func (r FirebaseResolver) Resolve(ctx context.Context, idToken string) (string, error) {
	token, err := r.Verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", err
	}
	user, err := r.Users.GetUserByFirebaseUID(ctx, token.UID)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}
