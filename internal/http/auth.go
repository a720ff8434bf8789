package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	applog "trainerworkload/internal/log"
)

// Claims extends jwt.RegisteredClaims with the caller's username.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type claimsKey struct{}

// BearerAuth validates HS256 bearer tokens. A nil *BearerAuth lets every
// request through.
type BearerAuth struct {
	key []byte
}

// NewBearerAuth returns nil when secret is empty.
func NewBearerAuth(secret string) *BearerAuth {
	if secret == "" {
		return nil
	}
	return &BearerAuth{key: []byte(secret)}
}

// NewToken signs an HS256 token for username valid for ttl.
func NewToken(secret, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ClaimsFromContext returns the claims of an authenticated request.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

func (a *BearerAuth) Wrap(next http.HandlerFunc) http.HandlerFunc {
	if a == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.verify(r.Header.Get("Authorization"))
		if err != nil {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).
				WarnContext(r.Context(), "Bearer token rejected", applog.FieldPath, r.URL.Path, applog.FieldError, err)
			w.Header().Set("WWW-Authenticate", `Bearer realm="workload"`)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	}
}

func (a *BearerAuth) verify(header string) (*Claims, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return nil, errors.New("missing bearer token")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(t *jwt.Token) (interface{}, error) {
		return a.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token expired")
		}
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
