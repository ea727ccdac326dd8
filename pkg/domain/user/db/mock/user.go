package mock

import (
	"context"
	"errors"
	"time"

	"github.com/datapress/datapress/pkg/domain"
	dbmock "github.com/datapress/datapress/pkg/domain/internal/db/mock"
	kdb "github.com/datapress/datapress/pkg/domain/user/db"
)

type UserInterface struct {
	Impl struct {
		Find      func(ctx context.Context, organisationId string) ([]domain.User, error)
		Get       func(ctx context.Context, organisationId string, userId string) (domain.User, error)
		GetActive func(ctx context.Context, email string) (domain.User, error)
		Invite    func(ctx context.Context, organisationId string, email string, role domain.UserRole, token string, expiry time.Time) (domain.User, error)
		Redeem    func(ctx context.Context, token string, name string, passwordHash string) (domain.User, error)
		Update    func(ctx context.Context, organisationId string, userId string, delta domain.UserUpdate) (domain.User, error)
		Delete    func(ctx context.Context, organisationId string, userId string) error
	}

	Calls struct {
		Find      dbmock.CallLog[string]
		Get       dbmock.CallLog[struct{ OrganisationId, UserId string }]
		GetActive dbmock.CallLog[string]
		Invite    dbmock.CallLog[struct {
			OrganisationId string
			Email          string
			Role           domain.UserRole
		}]
		Redeem dbmock.CallLog[string]
		Update dbmock.CallLog[struct {
			OrganisationId string
			UserId         string
			Delta          domain.UserUpdate
		}]
		Delete dbmock.CallLog[struct{ OrganisationId, UserId string }]
	}
}

func NewUserInterface() *UserInterface {
	return &UserInterface{}
}

var _ kdb.Interface = &UserInterface{}

func (m *UserInterface) Find(ctx context.Context, organisationId string) ([]domain.User, error) {
	m.Calls.Find = append(m.Calls.Find, organisationId)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, organisationId)
	}

	panic(errors.New("it should not be called"))
}

func (m *UserInterface) Get(ctx context.Context, organisationId string, userId string) (domain.User, error) {
	m.Calls.Get = append(m.Calls.Get, struct{ OrganisationId, UserId string }{
		OrganisationId: organisationId, UserId: userId,
	})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, organisationId, userId)
	}

	panic(errors.New("it should not be called"))
}

func (m *UserInterface) GetActive(ctx context.Context, email string) (domain.User, error) {
	m.Calls.GetActive = append(m.Calls.GetActive, email)
	if m.Impl.GetActive != nil {
		return m.Impl.GetActive(ctx, email)
	}

	panic(errors.New("it should not be called"))
}

func (m *UserInterface) Invite(
	ctx context.Context,
	organisationId string, email string, role domain.UserRole,
	token string, expiry time.Time,
) (domain.User, error) {
	m.Calls.Invite = append(m.Calls.Invite, struct {
		OrganisationId string
		Email          string
		Role           domain.UserRole
	}{OrganisationId: organisationId, Email: email, Role: role})
	if m.Impl.Invite != nil {
		return m.Impl.Invite(ctx, organisationId, email, role, token, expiry)
	}

	panic(errors.New("it should not be called"))
}

func (m *UserInterface) Redeem(ctx context.Context, token string, name string, passwordHash string) (domain.User, error) {
	m.Calls.Redeem = append(m.Calls.Redeem, token)
	if m.Impl.Redeem != nil {
		return m.Impl.Redeem(ctx, token, name, passwordHash)
	}

	panic(errors.New("it should not be called"))
}

func (m *UserInterface) Update(
	ctx context.Context, organisationId string, userId string, delta domain.UserUpdate,
) (domain.User, error) {
	m.Calls.Update = append(m.Calls.Update, struct {
		OrganisationId string
		UserId         string
		Delta          domain.UserUpdate
	}{OrganisationId: organisationId, UserId: userId, Delta: delta})
	if m.Impl.Update != nil {
		return m.Impl.Update(ctx, organisationId, userId, delta)
	}

	panic(errors.New("it should not be called"))
}

func (m *UserInterface) Delete(ctx context.Context, organisationId string, userId string) error {
	m.Calls.Delete = append(m.Calls.Delete, struct{ OrganisationId, UserId string }{
		OrganisationId: organisationId, UserId: userId,
	})
	if m.Impl.Delete != nil {
		return m.Impl.Delete(ctx, organisationId, userId)
	}

	panic(errors.New("it should not be called"))
}
