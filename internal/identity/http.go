// Copyright (c) 2026 SafHub. All rights reserved.

package identity

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safhub/safhub/internal/platform/apperr"
	"github.com/safhub/safhub/internal/platform/middleware"
	requestutil "github.com/safhub/safhub/internal/platform/request"
	"github.com/safhub/safhub/internal/platform/respond"
	"github.com/safhub/safhub/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the session endpoints consumed by the backend client.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the session routes.
//
// # Endpoints
//   - POST /signup                        : Creates an account.
//   - POST /token?grant_type=password     : Password sign-in.
//   - POST /token?grant_type=refresh_token: Rotates a refresh token.
//   - POST /verify                        : Confirms an email address.
//   - POST /logout?scope=global|local|others
//   - GET  /user                          : Current account.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/signup", handler.signUp)
	router.Post("/token", handler.token)
	router.Post("/verify", handler.verify)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Get("/user", handler.user)
	})

	return router
}

// # Request Payloads

type signUpRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Data     Metadata `json:"data"`
}

type tokenRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	RefreshToken string `json:"refresh_token"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

/*
signUp handles account creation.

POST /auth/v1/signup

Response:
  - 200: SignUpResult (session is null when confirmation is required)
  - 400: VALIDATION_ERROR
  - 409: CONFLICT: User already registered
*/
func (handler *Handler) signUp(writer http.ResponseWriter, request *http.Request) {
	var input signUpRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.SignUp(request.Context(), SignUpInput{
		Email:     input.Email,
		Password:  input.Password,
		Metadata:  input.Data,
		UserAgent: request.UserAgent(),
		IPAddress: middleware.RealIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
token issues sessions for the password and refresh_token grants.

POST /auth/v1/token?grant_type=password|refresh_token

Response:
  - 200: LoginSession
  - 400: Invalid login credentials / email_not_confirmed / unsupported grant
  - 401: Invalid refresh token
*/
func (handler *Handler) token(writer http.ResponseWriter, request *http.Request) {
	var input tokenRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var (
		session *LoginSession
		err     error
	)

	switch grantType := request.URL.Query().Get(FieldGrantType); grantType {
	case GrantPassword:
		validator := &validate.Validator{}
		validator.Required(FieldEmail, input.Email).Required(FieldPassword, input.Password)
		if err := validator.Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}

		session, err = handler.service.SignIn(request.Context(), SignInInput{
			Email:     input.Email,
			Password:  input.Password,
			UserAgent: request.UserAgent(),
			IPAddress: middleware.RealIP(request),
		})

	case GrantRefreshToken:
		if input.RefreshToken == "" {
			respond.Error(writer, request, validate.Invalid(GrantRefreshToken, "This field is required"))
			return
		}

		session, err = handler.service.RefreshSession(request.Context(), input.RefreshToken, request.UserAgent(), middleware.RealIP(request))

	default:
		respond.Error(writer, request, apperr.ValidationError("Unsupported grant type: "+grantType))
		return
	}

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
logout revokes sessions.

POST /auth/v1/logout?scope=global|local|others

Response:
  - 204: Sessions revoked
  - 404: session_not_found
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	scope := SignOutScope(request.URL.Query().Get(FieldScope))
	if scope == "" {
		scope = ScopeGlobal
	}
	validator := &validate.Validator{}
	validator.OneOf(FieldScope, string(scope), string(ScopeGlobal), string(ScopeLocal), string(ScopeOthers))
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.SignOut(request.Context(), claims, scope); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// user handles GET /auth/v1/user.
func (handler *Handler) user(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.GetUser(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// verify handles POST /auth/v1/verify.
func (handler *Handler) verify(writer http.ResponseWriter, request *http.Request) {
	var input verifyRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.Token == "" {
		respond.Error(writer, request, validate.Invalid(FieldToken, "This field is required"))
		return
	}

	if err := handler.service.VerifyEmail(request.Context(), input.Token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldMessage: "Email verified"})
}
