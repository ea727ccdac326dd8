package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	apierr "github.com/datapress/datapress/pkg/api/types/errors"
	"github.com/datapress/datapress/pkg/api/types/misc/rfctime"
	apiuser "github.com/datapress/datapress/pkg/api/types/users"
	"github.com/datapress/datapress/pkg/auth"
	"github.com/datapress/datapress/pkg/domain"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	orgdb "github.com/datapress/datapress/pkg/domain/organisation/db"
	userdb "github.com/datapress/datapress/pkg/domain/user/db"
)

const bcryptCost = 10

// SignupHandler creates an organisation together with its first admin
// user and logs that user in.
func SignupHandler(dbOrg orgdb.Interface, issuer *auth.Issuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		req := apiuser.SignupRequest{}
		if err := c.Bind(&req); err != nil {
			return apierr.BadRequest("request body should be a json SignupRequest", err)
		}
		if req.OrganisationName == "" || req.OrganisationSlug == "" || req.Password == "" {
			return apierr.BadRequest(
				`"organisationName", "organisationSlug" and "password" are required`, nil,
			)
		}
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return apierr.BadRequest(`"email" should be an email address`, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		ctx := c.Request().Context()
		_, admin, err := dbOrg.Register(
			ctx,
			domain.NewOrganisation{Name: req.OrganisationName, Slug: req.OrganisationSlug},
			domain.Registration{Email: req.Email, Name: req.Name, PasswordHash: string(hash)},
		)
		if errors.Is(err, domerr.ErrConflict) {
			return apierr.Conflict(
				"organisation slug or email is already taken",
				apierr.WithError(err),
			)
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		token, err := issuer.Issue(admin)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, apiuser.TokenResponse{
			Token: token, User: apiuser.ComposeDetail(admin),
		})
	}
}

// LoginHandler exchanges email + password for a session token.
//
// An unknown email and a wrong password are answered identically.
func LoginHandler(dbUser userdb.Interface, issuer *auth.Issuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		req := apiuser.LoginRequest{}
		if err := c.Bind(&req); err != nil {
			return apierr.BadRequest("request body should be a json LoginRequest", err)
		}

		ctx := c.Request().Context()
		user, err := dbUser.GetActive(ctx, req.Email)
		if errors.Is(err, domerr.ErrMissing) {
			// burn comparable time so a missing account is not
			// detectable by latency.
			bcrypt.CompareHashAndPassword(
				[]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"),
				[]byte(req.Password),
			)
			return apierr.Unauthorized("email or password is wrong", nil)
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		if err := bcrypt.CompareHashAndPassword(
			[]byte(user.PasswordHash), []byte(req.Password),
		); err != nil {
			return apierr.Unauthorized("email or password is wrong", nil)
		}

		token, err := issuer.Issue(user)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiuser.TokenResponse{
			Token: token, User: apiuser.ComposeDetail(user),
		})
	}
}

// RegisterHandler redeems an invite token, turning the placeholder user
// into a registered one, and logs it in.
func RegisterHandler(dbUser userdb.Interface, issuer *auth.Issuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		req := apiuser.RegisterRequest{}
		if err := c.Bind(&req); err != nil {
			return apierr.BadRequest("request body should be a json RegisterRequest", err)
		}
		if req.InviteToken == "" || req.Password == "" {
			return apierr.BadRequest(`"inviteToken" and "password" are required`, nil)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		ctx := c.Request().Context()
		user, err := dbUser.Redeem(ctx, req.InviteToken, req.Name, string(hash))
		if errors.Is(err, domerr.ErrInvalidInviteToken) {
			return apierr.InvalidInviteToken()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		token, err := issuer.Issue(user)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiuser.TokenResponse{
			Token: token, User: apiuser.ComposeDetail(user),
		})
	}
}

// SessionHandler returns the caller's own user record.
func SessionHandler(dbUser userdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		identity := auth.From(c)
		ctx := c.Request().Context()

		user, err := dbUser.Get(ctx, identity.OrganisationId, identity.UserId)
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.Unauthorized("log in again", err)
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiuser.ComposeDetail(user))
	}
}

// InviteUserHandler creates a placeholder user holding a fresh invite
// token. Admin only.
func InviteUserHandler(dbUser userdb.Interface, inviteExpiry time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		req := apiuser.InviteRequest{}
		if err := c.Bind(&req); err != nil {
			return apierr.BadRequest("request body should be a json InviteRequest", err)
		}
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return apierr.BadRequest(`"email" should be an email address`, err)
		}
		role, err := domain.AsUserRole(req.Role)
		if err != nil {
			return apierr.BadRequest(`"role" should be "admin" or "member"`, err)
		}

		identity := auth.From(c)
		token := uuid.NewString()
		expiry := time.Now().Add(inviteExpiry)

		ctx := c.Request().Context()
		user, err := dbUser.Invite(
			ctx, identity.OrganisationId, req.Email, role, token, expiry,
		)
		if errors.Is(err, domerr.ErrConflict) {
			return apierr.Conflict(
				"a user with the email already exists", apierr.WithError(err),
			)
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		// the token travels in the response; a deployment with a mailer
		// would send it by email instead.
		return c.JSON(http.StatusCreated, apiuser.InviteResponse{
			User:        apiuser.ComposeDetail(user),
			InviteToken: token,
			ExpiresAt:   rfctime.New(expiry),
		})
	}
}
