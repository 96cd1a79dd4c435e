package auth

import (
	"context"
	"net/http"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity is the verified actor of a request. Role and ClubID come from
// the users collection at request time, never from the token.
type Identity struct {
	ID        primitive.ObjectID
	Role      string
	ClubID    *primitive.ObjectID
	SessionID string
	Name      string
}

func (id Identity) IsAdmin() bool     { return id.Role == models.RoleAdmin }
func (id Identity) IsPresident() bool { return id.Role == models.RolePresident }
func (id Identity) IsNational() bool  { return id.Role == models.RoleNational }

type ctxKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by LoadIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// CurrentIdentity is FromContext for a request.
func CurrentIdentity(r *http.Request) (Identity, bool) {
	return FromContext(r.Context())
}
