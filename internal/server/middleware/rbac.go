package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gosuda/taskledger/internal/domain"
)

// Require returns middleware that admits a request only when check accepts
// the actor in its context. It must be chained after Auth.
//
// Returns 401 Unauthorized when check reports domain.ErrUnauthorized (no
// identity in context) and 403 Forbidden for any other rejection.
func Require(check func(*domain.Actor) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := check(ActorFromContext(r.Context()))
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, domain.ErrUnauthorized):
				writeProblem(w, http.StatusUnauthorized, "authentication required")
			default:
				writeProblem(w, http.StatusForbidden, "insufficient permissions")
			}
		})
	}
}

// RequireLedgerAccess admits only actors allowed to read the audit ledger.
func RequireLedgerAccess() func(http.Handler) http.Handler {
	return Require(domain.CanViewLedger)
}

// writeProblem writes an RFC 9457 problem document, matching the error shape
// of the API handlers.
func writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
