package auth

import (
	"context"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"go.uber.org/zap"
)

// LoadIdentity verifies the request's token, if any, and stores the
// Identity in the context. Requests without a valid token continue
// anonymously; RequireSignedIn decides whether that is acceptable.
// A store failure during verification answers 500.
func (v *Verifier) LoadIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := v.TokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := v.Verify(r.Context(), token)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindServer {
				respond.Error(w, r, v.log, err)
				return
			}
			v.log.Debug("session rejected", zap.String("path", r.URL.Path), zap.Error(err))
			next.ServeHTTP(w, r.WithContext(withRejection(r.Context(), err)))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireSignedIn answers 401 unless LoadIdentity produced an Identity.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentIdentity(r); !ok {
			respond.Error(w, r, nil, unauthenticatedFor(r))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 when signed out and 403 when the identity's role
// is not one of allowed.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := CurrentIdentity(r)
			if !ok {
				respond.Error(w, r, nil, unauthenticatedFor(r))
				return
			}
			if _, has := set[id.Role]; !has {
				respond.Error(w, r, nil, apperr.Forbidden("You do not have permission to do that."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type rejectionKey struct{}

func withRejection(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, rejectionKey{}, err)
}

// unauthenticatedFor returns the reason the token was rejected, so a
// superseded session gets its specific message.
func unauthenticatedFor(r *http.Request) error {
	if err, ok := r.Context().Value(rejectionKey{}).(error); ok {
		return err
	}
	return apperr.Unauthenticated("Please sign in.")
}
