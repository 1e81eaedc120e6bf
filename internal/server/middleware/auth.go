package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskledger/internal/auth"
)

// Auth validates the bearer token and stores the actor it names in the
// request context. Requests without a valid token are rejected with 401.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				writeProblem(w, http.StatusUnauthorized, "missing or invalid credentials")
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, tok)
			if err != nil {
				writeProblem(w, http.StatusUnauthorized, "missing or invalid credentials")
				return
			}

			actor, err := claims.Actor()
			if err != nil {
				log.Debug().Err(err).Msg("auth: token names no valid actor")
				writeProblem(w, http.StatusUnauthorized, "missing or invalid credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
