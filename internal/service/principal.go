package service

import "github.com/iliyamo/venue-booking/internal/model"

// Principal is the authenticated caller.  It is passed explicitly to every
// operation that checks ownership.
type Principal struct {
	UserID uint64
	Role   string
}

// Elevated reports whether the caller may bypass ownership checks.
func (p Principal) Elevated() bool { return p.Role == model.RoleAdmin }

// CanAccess reports whether the caller owns, or may act on behalf of, the
// user ownerID.
func (p Principal) CanAccess(ownerID uint64) bool {
	return p.Elevated() || (p.UserID != 0 && p.UserID == ownerID)
}
