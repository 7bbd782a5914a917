package host

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const accessKey contextKey = "access"

const (
	accessFull     = "rw"
	accessReadOnly = "ro"
)

// TokenClaims are the claims of a libSQL auth token. A is the access level:
// "rw" (or empty) for full access, "ro" for read-only.
type TokenClaims struct {
	jwt.RegisteredClaims
	A string `json:"a,omitempty"`
}

// NewToken signs an HS256 token with the given access level.
func NewToken(secret []byte, access string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{A: access})
	return token.SignedString(secret)
}

// authenticate rejects requests without a valid Bearer token with 401 and
// tokens carrying an unknown access level with 403. Without a secret every
// request has full access.
func (h *Host) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.secret) == 0 {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accessKey, accessFull)))
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var claims TokenClaims
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), &claims, func(token *jwt.Token) (interface{}, error) {
			return h.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
		if err != nil || !token.Valid {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		access := claims.A
		switch access {
		case "":
			access = accessFull
		case accessFull, accessReadOnly:
		default:
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accessKey, access)))
	})
}

func accessFromContext(ctx context.Context) string {
	access, _ := ctx.Value(accessKey).(string)
	return access
}
