package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/redblue/internal/api/apierr"
	"github.com/mcoot/redblue/internal/model"
	"github.com/mcoot/redblue/internal/services/auth"
)

type contextKey string

const identityContextKey contextKey = "identity"

// maxPeekBytes bounds how much of a body is read when looking for a token
const maxPeekBytes = 64 << 10

// Authenticator validates player and admin tokens
type Authenticator interface {
	ValidatePlayerToken(token string, gameID model.GameID) (*auth.PlayerIdentity, error)
	ValidateAdminToken(token string) error
}

// PlayerAuth requires a player token for the game named by the {id} path variable
func PlayerAuth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r, "token")
			if token == "" {
				apierr.WriteError(w, model.ErrUnauthorized)
				return
			}

			identity, err := authenticator.ValidatePlayerToken(token, model.GameID(mux.Vars(r)["id"]))
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminAuth requires an admin token
func AdminAuth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r, "admin_token")
			if token == "" {
				apierr.WriteError(w, model.ErrUnauthorized)
				return
			}
			if err := authenticator.ValidateAdminToken(token); err != nil {
				apierr.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ExtractToken looks for a token in the Authorization header, then the named
// query parameter, then the same field of a JSON body. The body stays readable.
func ExtractToken(r *http.Request, field string) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	if token := r.URL.Query().Get(field); token != "" {
		return token
	}

	return peekBodyField(r, field)
}

func peekBodyField(r *http.Request, field string) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil || len(data) == 0 {
		return ""
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return ""
	}
	var token string
	if raw, ok := fields[field]; ok {
		_ = json.Unmarshal(raw, &token)
	}
	return token
}

// GetIdentity returns the authenticated player from the request context
func GetIdentity(ctx context.Context) *auth.PlayerIdentity {
	identity, _ := ctx.Value(identityContextKey).(*auth.PlayerIdentity)
	return identity
}

// MustGetIdentity returns the authenticated player or panics
func MustGetIdentity(ctx context.Context) *auth.PlayerIdentity {
	identity := GetIdentity(ctx)
	if identity == nil {
		panic("no identity in context - auth middleware not applied?")
	}
	return identity
}
