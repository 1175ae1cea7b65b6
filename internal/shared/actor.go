package shared

import "context"

// Role identifies the department scope granted to an authenticated actor.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSales      Role = "sales"
	RoleWarehouse  Role = "warehouse"
	RoleFitting    Role = "fitting"
	RoleProduction Role = "production"
)

// Valid reports whether the role is one of the known department roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSales, RoleWarehouse, RoleFitting, RoleProduction:
		return true
	}
	return false
}

// Actor is the authenticated identity every core operation runs as.
// Authentication itself happens outside this service; the resolver only
// materialises the identity the auth collaborator established.
type Actor struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	Department string `json:"department"`
	// Location is the warehouse bucket credited when this actor accepts
	// production inward stock. Empty means the default warehouse.
	Location string `json:"location,omitempty"`
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*Actor)
	return actor
}
