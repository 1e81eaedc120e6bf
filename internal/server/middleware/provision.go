package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskledger/internal/domain"
)

// ActorProvisioner creates or refreshes the actor record behind a token.
// *postgres.Store satisfies this interface.
type ActorProvisioner interface {
	UpsertActor(ctx context.Context, a *domain.Actor) error
}

// ProvisionActor upserts the authenticated actor so that owner and ledger
// lookups resolve for identities issued outside this service. It must run
// after Auth. Tokens without an email claim are passed through untouched.
// Each identity is written once per distinct profile; a failed upsert is
// logged and retried on the next request without failing this one.
func ProvisionActor(p ActorProvisioner) func(http.Handler) http.Handler {
	var seen sync.Map // uuid.UUID -> domain.Actor

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, ok := profileFromContext(r.Context())
			if !ok || profile.Email == "" {
				next.ServeHTTP(w, r)
				return
			}
			if profile.Name == "" {
				profile.Name = profile.Email
			}

			if prev, ok := seen.Load(profile.ID); ok && sameProfile(prev.(domain.Actor), profile) {
				next.ServeHTTP(w, r)
				return
			}

			a := profile
			a.CreatedAt = domain.StoredTime(time.Now())
			if err := p.UpsertActor(r.Context(), &a); err != nil {
				log.Warn().Err(err).
					Str("actor_id", profile.ID.String()).
					Msg("auth: actor provisioning failed")
			} else {
				seen.Store(profile.ID, profile)
			}

			next.ServeHTTP(w, r)
		})
	}
}

func sameProfile(a, b domain.Actor) bool {
	return a.Name == b.Name && a.Email == b.Email && a.Role == b.Role
}
