// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mercato/mercato/internal/platform/apperr"
	"github.com/mercato/mercato/internal/platform/constants"
	"github.com/mercato/mercato/internal/platform/ctxutil"
	requestutil "github.com/mercato/mercato/internal/platform/request"
	"github.com/mercato/mercato/internal/platform/respond"
	"github.com/mercato/mercato/internal/platform/validate"
	"github.com/mercato/mercato/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the user lifecycle entry points (Registration, Login,
// Profile, Logout) plus the admin user directory.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// The auth gate is injected by the composition root rather than imported,
// keeping this package free of middleware dependencies.
//
// # Endpoints
//   - POST /register : Creates a new account and signs it in.
//   - POST /login    : Authenticates and returns a bearer token.
//   - GET  /profile  : Returns the authenticated user's profile.
//   - PUT  /profile  : Applies a partial profile update.
//   - POST /logout   : Revokes the presented token.
func (handler *Handler) Routes(requireUser func(http.Handler) http.Handler) chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/profile", handler.profile)
		r.Put("/profile", handler.updateProfile)
		r.Post("/logout", handler.logout)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type addressPayload struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zipCode"`
	Country string `json:"country"`
}

type updateProfileRequest struct {
	Name    *string         `json:"name"`
	Email   *string         `json:"email"`
	Address *addressPayload `json:"address"`
}

/*
Register handles the creation of a new user account.

POST /api/auth/register

Description: Validates input, checks for identity conflicts, persists a new
customer profile, and returns a signed bearer token so registration doubles
as first login.

Request:
  - Body: registerRequest (Name, Email, Password)

Response:
  - 201: Token and created user profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Email already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		PersonName(FieldName, input.Name).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		Password(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Register(request.Context(), RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, respond.Envelope{
		constants.FieldToken: session.Token,
		constants.FieldUser:  session.User,
	})
}

/*
Login authenticates a user and issues a bearer token.

POST /api/auth/login

Description: Verifies credentials and returns a signed token carrying the
user's ID as subject.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: Token and user profile
  - 401: ErrUnauthorized: Invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Envelope{
		constants.FieldToken: session.Token,
		constants.FieldUser:  session.User,
	})
}

/*
Profile returns the authenticated user's profile.

GET /api/auth/profile

Description: The user was already resolved by the auth gate; this handler
only shapes the response.

Response:
  - 200: User profile
  - 401: ErrUnauthorized: Missing or invalid token
*/
func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	user := UserFrom(request.Context())
	if user == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	respond.OK(writer, respond.Envelope{
		constants.FieldUser: user,
	})
}

/*
UpdateProfile applies a partial update to the authenticated user's profile.

PUT /api/auth/profile

Description: Omitted fields are left untouched. Email changes are re-checked
for uniqueness; address sub-fields are individually optional, with format
and length checks applied to whatever is provided.

Request:
  - Body: updateProfileRequest (Name?, Email?, Address?)

Response:
  - 200: Updated user profile
  - 400: ErrInvalidJSON: Validation failure
  - 409: ErrConflict: Email already registered
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	user := UserFrom(request.Context())
	if user == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.Name != nil {
		validator.Required(FieldName, *input.Name).PersonName(FieldName, *input.Name)
	}
	if input.Email != nil {
		validator.Required(FieldEmail, *input.Email).Email(FieldEmail, *input.Email)
	}
	if input.Address != nil {
		// Every sub-field is optional; only format and length are checked.
		validator.MaxLen(FieldStreet, input.Address.Street, 100).
			MaxLen(FieldCity, input.Address.City, 50).
			LettersAndSpaces(FieldCity, input.Address.City).
			MaxLen(FieldState, input.Address.State, 50).
			LettersAndSpaces(FieldState, input.Address.State).
			ZipCode(FieldZip, input.Address.Zip).
			MaxLen(FieldCountry, input.Address.Country, 50).
			LettersAndSpaces(FieldCountry, input.Address.Country)
	}

	if validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}

	updateInput := UpdateProfileInput{
		Name:  input.Name,
		Email: input.Email,
	}
	if input.Address != nil {
		updateInput.Address = &Address{
			Street:  input.Address.Street,
			City:    input.Address.City,
			State:   input.Address.State,
			Zip:     input.Address.Zip,
			Country: input.Address.Country,
		}
	}

	updated, err := handler.authService.UpdateProfile(request.Context(), user.ID, updateInput)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Envelope{
		constants.FieldUser: updated,
	})
}

/*
Logout revokes the presented token.

POST /api/auth/logout

Description: Places the token's identifier on the denylist for its remaining
lifetime. The operation is idempotent.

Response:
  - 204: No content
  - 401: ErrUnauthorized: Missing or invalid token
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	claims := ctxutil.GetTokenClaims(request.Context())

	if err := handler.authService.Logout(request.Context(), claims); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ListUsers returns a page of registered users.

GET /api/admin/users

Description: Admin-only directory listing, ordered newest first. Mounted by
the composition root behind the role gate.

Response:
  - 200: Users plus pagination metadata
  - 403: ErrForbidden: Caller is not an admin
*/
func (handler *Handler) ListUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	page, err := handler.authService.ListUsers(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, respond.Envelope{
		constants.FieldUsers: page.Users,
	}, page.Meta)
}

/*
GetUser returns a single account by ID.

GET /api/admin/users/{id}

Description: Admin-only account detail. Mounted by the composition root
behind the role gate.

Response:
  - 200: Account entity
  - 400: ErrInvalidJSON: Missing id parameter
  - 403: ErrForbidden: Caller is not an admin
  - 404: ErrNotFound: No account with that ID
*/
func (handler *Handler) GetUser(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")
	if id == "" {
		respond.Error(writer, request, validate.RequiredError("id", "User id is required"))
		return
	}

	user, err := handler.authService.GetUser(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Envelope{
		constants.FieldUser: user,
	})
}
