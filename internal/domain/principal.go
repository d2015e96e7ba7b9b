package domain

import "context"

// Principal is the server-verified identity of the caller.
type Principal struct {
	UserID int64
	Role   UserRole
}

func (p Principal) IsAuthenticated() bool {
	return p.UserID > 0 && p.Role.Valid()
}

// CanReserve is the only authentication fact the reservation core consumes.
func (p Principal) CanReserve() bool {
	return p.IsAuthenticated()
}

func (p Principal) IsStaff() bool {
	return p.IsAuthenticated() && p.Role.IsStaff()
}

// MayAccess reports whether the principal may act on a resource owned by ownerID.
func (p Principal) MayAccess(ownerID int64) bool {
	return p.IsStaff() || (p.IsAuthenticated() && p.UserID == ownerID)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
