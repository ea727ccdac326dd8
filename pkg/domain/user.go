package domain

import (
	"fmt"
	"time"
)

type UserRole string

const (
	Admin  UserRole = "admin"
	Member UserRole = "member"
)

func (r UserRole) String() string {
	return string(r)
}

func AsUserRole(role string) (UserRole, error) {
	switch role {
	case string(Admin):
		return Admin, nil
	case string(Member):
		return Member, nil
	default:
		return "", fmt.Errorf("'%s' is not UserRole", role)
	}
}

type User struct {
	Id             string
	OrganisationId string
	Email          string

	// bcrypt hash. Empty for a user which has a pending invite.
	PasswordHash string

	Name string
	Role UserRole

	// present only while an invite is pending. Cleared on registration.
	InviteToken       *string
	InviteTokenExpiry *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// HasPendingInvite reports whether the user is a placeholder
// waiting for its invite to be redeemed.
func (u User) HasPendingInvite() bool {
	return u.InviteToken != nil
}

type UserUpdate struct {
	Name *string
	Role *UserRole
}

func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Role == nil
}

// Registration carries the details filled in when an invite is redeemed.
type Registration struct {
	Email        string
	Name         string
	PasswordHash string
}
