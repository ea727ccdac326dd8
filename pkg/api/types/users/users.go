package users

import (
	"github.com/datapress/datapress/pkg/api/types/misc/rfctime"
	"github.com/datapress/datapress/pkg/domain"
)

type Detail struct {
	Id             string           `json:"id"`
	OrganisationId string           `json:"organisationId"`
	Email          string           `json:"email"`
	Name           string           `json:"name,omitempty"`
	Role           string           `json:"role"`
	PendingInvite  bool             `json:"pendingInvite"`
	InviteExpiry   *rfctime.RFC3339 `json:"inviteExpiry,omitempty"`
	CreatedAt      rfctime.RFC3339  `json:"createdAt"`
	UpdatedAt      rfctime.RFC3339  `json:"updatedAt"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Id == o.Id &&
		d.OrganisationId == o.OrganisationId &&
		d.Email == o.Email &&
		d.Name == o.Name &&
		d.Role == o.Role &&
		d.PendingInvite == o.PendingInvite &&
		d.CreatedAt.Equal(o.CreatedAt) &&
		d.UpdatedAt.Equal(o.UpdatedAt)
}

func ComposeDetail(u domain.User) Detail {
	return Detail{
		Id:             u.Id,
		OrganisationId: u.OrganisationId,
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role.String(),
		PendingInvite:  u.HasPendingInvite(),
		InviteExpiry:   rfctime.Pointer(u.InviteTokenExpiry),
		CreatedAt:      rfctime.New(u.CreatedAt),
		UpdatedAt:      rfctime.New(u.UpdatedAt),
	}
}

type Change struct {
	Name *string `json:"name,omitempty"`
	Role *string `json:"role,omitempty"`
}

type InviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// InviteResponse carries the token out of band of the user record: in a
// deployment with a mailer it would be sent by email instead.
type InviteResponse struct {
	User        Detail          `json:"user"`
	InviteToken string          `json:"inviteToken"`
	ExpiresAt   rfctime.RFC3339 `json:"expiresAt"`
}

type RegisterRequest struct {
	InviteToken string `json:"inviteToken"`
	Name        string `json:"name"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	OrganisationName string `json:"organisationName"`
	OrganisationSlug string `json:"organisationSlug"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	Password         string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
	User  Detail `json:"user"`
}
