// Package actor carries the acting identity into every mutating operation.
package actor

import (
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/google/uuid"
)

// Area groups operations that share a write policy.
type Area string

const (
	AreaUsers     Area = "users"
	AreaCatalog   Area = "catalog"
	AreaLeads     Area = "leads"
	AreaBlacklist Area = "blacklist"
	AreaOrders    Area = "orders"
	AreaShipping  Area = "shipping"
	AreaFinance   Area = "finance"
)

var writers = map[Area][]enums.UserRole{
	AreaUsers:     {enums.UserRoleAdmin},
	AreaCatalog:   {enums.UserRoleAdmin, enums.UserRoleManager},
	AreaLeads:     {enums.UserRoleAdmin, enums.UserRoleManager, enums.UserRoleCallCenter},
	AreaBlacklist: {enums.UserRoleAdmin, enums.UserRoleManager, enums.UserRoleCallCenter},
	AreaOrders:    {enums.UserRoleAdmin, enums.UserRoleManager, enums.UserRoleCallCenter, enums.UserRoleFulfillment},
	AreaShipping:  {enums.UserRoleAdmin, enums.UserRoleManager, enums.UserRoleFulfillment},
	AreaFinance:   {enums.UserRoleAdmin, enums.UserRoleManager, enums.UserRoleMarketing},
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func New(userID uuid.UUID, role enums.UserRole) Actor {
	return Actor{UserID: userID, Role: role}
}

// IsZero reports whether no identity was supplied.
func (a Actor) IsZero() bool {
	return a.UserID == uuid.Nil
}

// CanWrite reports whether the role may mutate the area.
func (a Actor) CanWrite(area Area) bool {
	for _, role := range writers[area] {
		if role == a.Role {
			return true
		}
	}
	return false
}

// Require fails with unauthorized for a missing identity and permission denied
// when the role may not mutate the area.
func (a Actor) Require(area Area) error {
	if a.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "acting user required")
	}
	if !a.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
	}
	if !a.CanWrite(area) {
		return pkgerrors.Newf(pkgerrors.CodeForbidden, "role %s may not modify %s", a.Role, area)
	}
	return nil
}

// Ref returns the user id as a nullable reference for audit columns.
func (a Actor) Ref() *uuid.UUID {
	if a.IsZero() {
		return nil
	}
	id := a.UserID
	return &id
}
