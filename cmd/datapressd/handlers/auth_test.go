package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	handlers "github.com/datapress/datapress/cmd/datapressd/handlers"
	httptestutil "github.com/datapress/datapress/internal/testutils/http"
	"github.com/datapress/datapress/pkg/api/types/misc/rfctime"
	apiuser "github.com/datapress/datapress/pkg/api/types/users"
	"github.com/datapress/datapress/pkg/auth"
	"github.com/datapress/datapress/pkg/domain"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	orgmock "github.com/datapress/datapress/pkg/domain/organisation/db/mock"
	usermock "github.com/datapress/datapress/pkg/domain/user/db/mock"
	"github.com/datapress/datapress/pkg/utils/try"
)

func dummyIssuer() *auth.Issuer {
	return auth.NewIssuer([]byte("test-secret"), time.Hour)
}

func dummyUser(t *testing.T) domain.User {
	timestamp := try.To(rfctime.ParseRFC3339DateTime(
		"2025-09-01T08:00:00+00:00",
	)).OrFatal(t).Time()
	return domain.User{
		Id:             "user-1",
		OrganisationId: "org-1",
		Email:          "admin@example.com",
		Name:           "Admin",
		Role:           domain.Admin,
		CreatedAt:      timestamp,
		UpdatedAt:      timestamp,
	}
}

func TestSignupHandler(t *testing.T) {

	t.Run("it registers the organisation with its first admin and logs in", func(t *testing.T) {
		mockOrg := orgmock.NewOrganisationInterface()
		admin := dummyUser(t)
		mockOrg.Impl.Register = func(
			ctx context.Context, org domain.NewOrganisation, reg domain.Registration,
		) (domain.Organisation, domain.User, error) {
			return domain.Organisation{Id: "org-1", Name: org.Name, Slug: org.Slug}, admin, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/auth/signup",
			strings.NewReader(`{
				"organisationName": "Example Inc",
				"organisationSlug": "example",
				"email": "admin@example.com",
				"name": "Admin",
				"password": "open sesame"
			}`),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.SignupHandler(mockOrg, dummyIssuer())
		if err := testee(c); err != nil {
			t.Fatalf("it does not finish. error = %v", err)
		}

		if mockOrg.Calls.Register.Times() != 1 {
			t.Fatalf("Register should be called once, but %d", mockOrg.Calls.Register.Times())
		}
		{
			actual := mockOrg.Calls.Register[0]
			if actual.Org.Name != "Example Inc" || actual.Org.Slug != "example" {
				t.Errorf("unmatch: organisation: %+v", actual.Org)
			}
			if actual.Admin.Email != "admin@example.com" || actual.Admin.Name != "Admin" {
				t.Errorf("unmatch: admin: %+v", actual.Admin)
			}
			if err := bcrypt.CompareHashAndPassword(
				[]byte(actual.Admin.PasswordHash), []byte("open sesame"),
			); err != nil {
				t.Errorf("password hash does not verify: %v", err)
			}
		}

		if respRec.Result().StatusCode != http.StatusCreated {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusCreated)
		}

		resp := apiuser.TokenResponse{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not json: %v", err)
		}
		if !resp.User.Equal(apiuser.ComposeDetail(admin)) {
			t.Errorf("unmatch user: %+v", resp.User)
		}
		identity := try.To(dummyIssuer().Verify(resp.Token)).OrFatal(t)
		if identity.UserId != "user-1" || identity.OrganisationId != "org-1" ||
			identity.Role != domain.Admin {
			t.Errorf("token asserts a wrong identity: %+v", identity)
		}
	})

	t.Run("it returns error response", func(t *testing.T) {
		type when struct {
			body            string
			errorOnRegister error
		}
		type then struct {
			statusCode int
		}

		okBody := `{
			"organisationName": "Example Inc", "organisationSlug": "example",
			"email": "admin@example.com", "password": "open sesame"
		}`

		for name, testcase := range map[string]struct {
			when
			then
		}{
			"(Bad Request) when the slug is missing": {
				when{body: `{"organisationName": "Example Inc", "email": "a@example.com", "password": "x"}`},
				then{statusCode: http.StatusBadRequest},
			},
			"(Bad Request) when the email is not an address": {
				when{body: `{"organisationName": "n", "organisationSlug": "s", "email": "nope", "password": "x"}`},
				then{statusCode: http.StatusBadRequest},
			},
			"(Conflict) when the slug or email is taken": {
				when{body: okBody, errorOnRegister: domerr.ErrConflict},
				then{statusCode: http.StatusConflict},
			},
			"(Internal Server Error) when OrganisationInterface.Register cause error": {
				when{body: okBody, errorOnRegister: errors.New("dummy error")},
				then{statusCode: http.StatusInternalServerError},
			},
		} {
			t.Run(name, func(t *testing.T) {
				mockOrg := orgmock.NewOrganisationInterface()
				mockOrg.Impl.Register = func(
					ctx context.Context, org domain.NewOrganisation, reg domain.Registration,
				) (domain.Organisation, domain.User, error) {
					return domain.Organisation{}, domain.User{}, testcase.when.errorOnRegister
				}

				e := echo.New()
				c, _ := httptestutil.Post(
					e, "/api/auth/signup",
					strings.NewReader(testcase.when.body),
					httptestutil.ContentType("application/json"),
				)

				testee := handlers.SignupHandler(mockOrg, dummyIssuer())
				err := testee(c)
				if err == nil {
					t.Fatalf("no error but it is not expected result")
				}

				var echoErr *echo.HTTPError
				if !errors.As(err, &echoErr) {
					t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
				}
				if echoErr.Code != testcase.then.statusCode {
					t.Fatalf("unmatch error code:%d, expected:%d", echoErr.Code, testcase.then.statusCode)
				}
			})
		}
	})
}

func TestLoginHandler(t *testing.T) {

	t.Run("it exchanges good credentials for a token", func(t *testing.T) {
		hash := try.To(bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)).OrFatal(t)
		user := dummyUser(t)
		user.PasswordHash = string(hash)

		mockUser := usermock.NewUserInterface()
		mockUser.Impl.GetActive = func(ctx context.Context, email string) (domain.User, error) {
			return user, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/auth/login",
			strings.NewReader(`{"email": "admin@example.com", "password": "open sesame"}`),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.LoginHandler(mockUser, dummyIssuer())
		if err := testee(c); err != nil {
			t.Fatalf("it does not finish. error = %v", err)
		}

		if mockUser.Calls.GetActive[0] != "admin@example.com" {
			t.Errorf("unmatch email: %s", mockUser.Calls.GetActive[0])
		}

		if respRec.Result().StatusCode != http.StatusOK {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusOK)
		}

		resp := apiuser.TokenResponse{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not json: %v", err)
		}
		identity := try.To(dummyIssuer().Verify(resp.Token)).OrFatal(t)
		if identity.UserId != user.Id {
			t.Errorf("token asserts a wrong identity: %+v", identity)
		}
	})

	t.Run("it answers Unauthorized the same way for unknown email and wrong password", func(t *testing.T) {
		hash := try.To(bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)).OrFatal(t)

		for name, errorOnGetActive := range map[string]error{
			"unknown email":  domerr.ErrMissing,
			"wrong password": nil,
		} {
			t.Run(name, func(t *testing.T) {
				mockUser := usermock.NewUserInterface()
				mockUser.Impl.GetActive = func(ctx context.Context, email string) (domain.User, error) {
					if errorOnGetActive != nil {
						return domain.User{}, errorOnGetActive
					}
					user := dummyUser(t)
					user.PasswordHash = string(hash)
					return user, nil
				}

				e := echo.New()
				c, _ := httptestutil.Post(
					e, "/api/auth/login",
					strings.NewReader(`{"email": "admin@example.com", "password": "wrong"}`),
					httptestutil.ContentType("application/json"),
				)

				testee := handlers.LoginHandler(mockUser, dummyIssuer())
				err := testee(c)
				if err == nil {
					t.Fatalf("no error but it is not expected result")
				}

				var echoErr *echo.HTTPError
				if !errors.As(err, &echoErr) {
					t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
				}
				if echoErr.Code != http.StatusUnauthorized {
					t.Fatalf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusUnauthorized)
				}
			})
		}
	})
}

func TestRegisterHandler(t *testing.T) {

	t.Run("it redeems the invite and logs the new user in", func(t *testing.T) {
		mockUser := usermock.NewUserInterface()
		user := dummyUser(t)
		user.Role = domain.Member
		mockUser.Impl.Redeem = func(
			ctx context.Context, token string, name string, passwordHash string,
		) (domain.User, error) {
			return user, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/auth/register",
			strings.NewReader(`{"inviteToken": "invite-token-1", "name": "Member", "password": "open sesame"}`),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.RegisterHandler(mockUser, dummyIssuer())
		if err := testee(c); err != nil {
			t.Fatalf("it does not finish. error = %v", err)
		}

		if mockUser.Calls.Redeem[0] != "invite-token-1" {
			t.Errorf("unmatch invite token: %s", mockUser.Calls.Redeem[0])
		}

		if respRec.Result().StatusCode != http.StatusOK {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusOK)
		}

		resp := apiuser.TokenResponse{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not json: %v", err)
		}
		identity := try.To(dummyIssuer().Verify(resp.Token)).OrFatal(t)
		if identity.Role != domain.Member {
			t.Errorf("token asserts a wrong role: %s", identity.Role)
		}
	})

	t.Run("it returns error response", func(t *testing.T) {
		for name, testcase := range map[string]struct {
			body          string
			errorOnRedeem error
			statusCode    int
		}{
			"(Bad Request) when the token is missing": {
				body: `{"password": "x"}`, statusCode: http.StatusBadRequest,
			},
			"(Bad Request) when the token is unknown or expired": {
				body:          `{"inviteToken": "stale", "password": "x"}`,
				errorOnRedeem: domerr.ErrInvalidInviteToken,
				statusCode:    http.StatusBadRequest,
			},
			"(Internal Server Error) when UserInterface.Redeem cause error": {
				body:          `{"inviteToken": "t", "password": "x"}`,
				errorOnRedeem: errors.New("dummy error"),
				statusCode:    http.StatusInternalServerError,
			},
		} {
			t.Run(name, func(t *testing.T) {
				mockUser := usermock.NewUserInterface()
				mockUser.Impl.Redeem = func(
					ctx context.Context, token string, name string, passwordHash string,
				) (domain.User, error) {
					return domain.User{}, testcase.errorOnRedeem
				}

				e := echo.New()
				c, _ := httptestutil.Post(
					e, "/api/auth/register",
					strings.NewReader(testcase.body),
					httptestutil.ContentType("application/json"),
				)

				testee := handlers.RegisterHandler(mockUser, dummyIssuer())
				err := testee(c)
				if err == nil {
					t.Fatalf("no error but it is not expected result")
				}

				var echoErr *echo.HTTPError
				if !errors.As(err, &echoErr) {
					t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
				}
				if echoErr.Code != testcase.statusCode {
					t.Fatalf("unmatch error code:%d, expected:%d", echoErr.Code, testcase.statusCode)
				}
			})
		}
	})
}

func TestSessionHandler(t *testing.T) {

	t.Run("it returns the caller's user record", func(t *testing.T) {
		mockUser := usermock.NewUserInterface()
		user := dummyUser(t)
		mockUser.Impl.Get = func(ctx context.Context, organisationId string, userId string) (domain.User, error) {
			return user, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/auth/session")
		auth.Inject(c, domain.Identity{
			UserId: "user-1", OrganisationId: "org-1", Role: domain.Admin,
		})

		testee := handlers.SessionHandler(mockUser)
		if err := testee(c); err != nil {
			t.Fatalf("it does not finish. error = %v", err)
		}

		if mockUser.Calls.Get[0].OrganisationId != "org-1" || mockUser.Calls.Get[0].UserId != "user-1" {
			t.Errorf("unmatch: params for Get: %+v", mockUser.Calls.Get[0])
		}

		actual := apiuser.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: %v", err)
		}
		if expected := apiuser.ComposeDetail(user); !actual.Equal(expected) {
			t.Errorf("data does not match. (actual, expected) = \n(%+v, \n%+v)", actual, expected)
		}
	})

	t.Run("it returns Unauthorized when the user is gone", func(t *testing.T) {
		mockUser := usermock.NewUserInterface()
		mockUser.Impl.Get = func(ctx context.Context, organisationId string, userId string) (domain.User, error) {
			return domain.User{}, domerr.ErrMissing
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/auth/session")
		auth.Inject(c, dummyIdentity())

		testee := handlers.SessionHandler(mockUser)
		err := testee(c)
		if err == nil {
			t.Fatalf("no error but it is not expected result")
		}

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
		}
		if echoErr.Code != http.StatusUnauthorized {
			t.Fatalf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusUnauthorized)
		}
	})
}

func TestInviteUserHandler(t *testing.T) {

	t.Run("it creates a placeholder user and returns the token", func(t *testing.T) {
		mockUser := usermock.NewUserInterface()
		mockUser.Impl.Invite = func(
			ctx context.Context,
			organisationId string, email string, role domain.UserRole,
			token string, expiry time.Time,
		) (domain.User, error) {
			user := dummyUser(t)
			user.Id = "user-2"
			user.Email = email
			user.Role = role
			user.InviteToken = &token
			user.InviteTokenExpiry = &expiry
			return user, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/users/invite",
			strings.NewReader(`{"email": "member@example.com", "role": "member"}`),
			httptestutil.ContentType("application/json"),
		)
		auth.Inject(c, domain.Identity{
			UserId: "user-1", OrganisationId: "org-1", Role: domain.Admin,
		})

		testee := handlers.InviteUserHandler(mockUser, 48*time.Hour)
		if err := testee(c); err != nil {
			t.Fatalf("it does not finish. error = %v", err)
		}

		if mockUser.Calls.Invite.Times() != 1 {
			t.Fatalf("Invite should be called once, but %d", mockUser.Calls.Invite.Times())
		}
		{
			actual := mockUser.Calls.Invite[0]
			if actual.OrganisationId != "org-1" ||
				actual.Email != "member@example.com" || actual.Role != domain.Member {
				t.Errorf("unmatch: params for Invite: %+v", actual)
			}
		}

		if respRec.Result().StatusCode != http.StatusCreated {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusCreated)
		}

		resp := apiuser.InviteResponse{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not json: %v", err)
		}
		if resp.InviteToken == "" {
			t.Errorf("invite token should be in the response")
		}
		if !resp.User.PendingInvite {
			t.Errorf("the invited user should have a pending invite")
		}
	})

	t.Run("it returns error response", func(t *testing.T) {
		for name, testcase := range map[string]struct {
			body          string
			errorOnInvite error
			statusCode    int
		}{
			"(Bad Request) when the email is not an address": {
				body: `{"email": "nope", "role": "member"}`, statusCode: http.StatusBadRequest,
			},
			"(Bad Request) when the role is unknown": {
				body: `{"email": "member@example.com", "role": "owner"}`, statusCode: http.StatusBadRequest,
			},
			"(Conflict) when the email is already used": {
				body:          `{"email": "member@example.com", "role": "member"}`,
				errorOnInvite: domerr.ErrConflict,
				statusCode:    http.StatusConflict,
			},
		} {
			t.Run(name, func(t *testing.T) {
				mockUser := usermock.NewUserInterface()
				mockUser.Impl.Invite = func(
					ctx context.Context,
					organisationId string, email string, role domain.UserRole,
					token string, expiry time.Time,
				) (domain.User, error) {
					return domain.User{}, testcase.errorOnInvite
				}

				e := echo.New()
				c, _ := httptestutil.Post(
					e, "/api/users/invite",
					strings.NewReader(testcase.body),
					httptestutil.ContentType("application/json"),
				)
				auth.Inject(c, domain.Identity{
					UserId: "user-1", OrganisationId: "org-1", Role: domain.Admin,
				})

				testee := handlers.InviteUserHandler(mockUser, 48*time.Hour)
				err := testee(c)
				if err == nil {
					t.Fatalf("no error but it is not expected result")
				}

				var echoErr *echo.HTTPError
				if !errors.As(err, &echoErr) {
					t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
				}
				if echoErr.Code != testcase.statusCode {
					t.Fatalf("unmatch error code:%d, expected:%d", echoErr.Code, testcase.statusCode)
				}
			})
		}
	})
}
