// Package identity models the authenticated caller as a closed set of roles.
//
// Handlers never compare role strings. They obtain an Identity from the
// request (see auth.CurrentIdentity) and ask it capability questions.
package identity

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the closed set of caller kinds.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleProvider
	RoleVolunteer
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole maps the wire form ("admin", "provider", "volunteer") to a Role.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "provider":
		return RoleProvider, nil
	case "volunteer":
		return RoleVolunteer, nil
	}
	return RoleUnknown, ErrUnknownRole
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleProvider:
		return "provider"
	case RoleVolunteer:
		return "volunteer"
	}
	return "unknown"
}

// Identity is the verified caller: the user id from the bearer credential and its role.
type Identity struct {
	UserID primitive.ObjectID
	Role   Role
	Name   string
}

// New builds an Identity from wire values. The id must be a valid ObjectID hex
// and the role must be known; anything else fails closed.
func New(idHex, role, name string) (Identity, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return Identity{}, err
	}
	r, err := ParseRole(role)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: id, Role: r, Name: name}, nil
}

// Valid reports whether the identity carries a real user and a known role.
func (i Identity) Valid() bool {
	return !i.UserID.IsZero() && i.Role != RoleUnknown
}

func (i Identity) IsAdmin() bool     { return i.Role == RoleAdmin }
func (i Identity) IsProvider() bool  { return i.Role == RoleProvider }
func (i Identity) IsVolunteer() bool { return i.Role == RoleVolunteer }

// Is reports whether the identity has any of the given roles.
func (i Identity) Is(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

/*─────────────────────────────────────────────────────────────────────────────*
| Capabilities                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// CanApply reports whether the caller may submit or register for opportunities.
func (i Identity) CanApply() bool { return i.IsVolunteer() }

// CanReviewApplications reports whether the caller may change application status.
// Ownership of the opportunity is checked separately.
func (i Identity) CanReviewApplications() bool { return i.IsProvider() }

// CanToggleCompletion reports whether the caller's role may set completion.
// Ownership of the entry or the opportunity is checked separately.
func (i Identity) CanToggleCompletion() bool { return i.IsVolunteer() || i.IsProvider() }

// CanWithdraw reports whether the caller may withdraw applications.
func (i Identity) CanWithdraw() bool { return i.IsVolunteer() }

// CanPostOpportunities reports whether the caller may create opportunities.
func (i Identity) CanPostOpportunities() bool { return i.IsProvider() }

// CanDeleteOpportunities reports whether the caller's role may delete opportunities.
// Providers must additionally own the opportunity.
func (i Identity) CanDeleteOpportunities() bool { return i.IsProvider() || i.IsAdmin() }

// CanSeeAllApplications reports whether the caller may list every application.
func (i Identity) CanSeeAllApplications() bool { return i.IsAdmin() }
