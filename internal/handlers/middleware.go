package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/payledger/apiserver/internal/auth"
)

type contextKey string

const contextIdentityKey contextKey = "identity"

// requireOperation enforces the access gate for the named operation and
// injects the caller's identity into the request context.
func requireOperation(gate *auth.Gate, operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			identity, err := gate.Authorize(tokenString, operation)
			if err != nil {
				if errors.Is(err, auth.ErrDenied) {
					writeError(w, http.StatusForbidden, "insufficient role")
					return
				}
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextIdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFromContext(ctx context.Context) (auth.Identity, error) {
	identity, ok := ctx.Value(contextIdentityKey).(auth.Identity)
	if !ok || identity.Email == "" {
		return auth.Identity{}, errors.New("missing identity")
	}
	return identity, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
