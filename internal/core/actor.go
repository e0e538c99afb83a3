package core

import (
	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/store"
)

// Actor is the authenticated caller of an owner-scoped operation.
type Actor struct {
	UserID int64
	Role   string
}

func ActorFor(u *model.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

// System is the identity used by background jobs and the admin CLI.
var System = Actor{Role: model.RoleAdmin}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

func (a Actor) requireAdmin() error {
	if !a.IsAdmin() {
		return Forbidden("admin access required")
	}
	return nil
}

// canAccess reports whether the actor may touch a row owned by ownerID.
func (a Actor) canAccess(ownerID int64) bool {
	return a.IsAdmin() || a.UserID == ownerID
}

func (a Actor) authorize(ownerID int64) error {
	if !a.canAccess(ownerID) {
		return Forbidden("access denied")
	}
	return nil
}

// owner resolves the owner of a new row: zero means the caller, and only
// admins may create rows for someone else.
func (a Actor) owner(requested int64) (int64, error) {
	if requested == 0 {
		if a.UserID == 0 {
			return 0, InvalidInput("userId is required")
		}
		return a.UserID, nil
	}
	if err := a.authorize(requested); err != nil {
		return 0, err
	}
	return requested, nil
}

// scope narrows a list filter to the caller unless the caller is an admin.
// An admin may pass a specific owner.
func (a Actor) scope(userID *int64) (store.Filter, error) {
	if userID != nil {
		if err := a.authorize(*userID); err != nil {
			return store.Filter{}, err
		}
		return store.ByUser(*userID), nil
	}
	if a.IsAdmin() {
		return store.Filter{}, nil
	}
	return store.ByUser(a.UserID), nil
}
