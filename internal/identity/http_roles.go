// Copyright (c) 2026 SafHub. All rights reserved.

package identity

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safhub/safhub/internal/platform/middleware"
	requestutil "github.com/safhub/safhub/internal/platform/request"
	"github.com/safhub/safhub/internal/platform/respond"
	"github.com/safhub/safhub/internal/platform/sec"
	"github.com/safhub/safhub/internal/platform/validate"
	"github.com/safhub/safhub/pkg/pagination"
	"github.com/safhub/safhub/pkg/query"
)

// RoleHandler exposes the user_roles row store.
type RoleHandler struct {
	service *RoleService
}

// NewRoleHandler constructs a new [RoleHandler].
func NewRoleHandler(service *RoleService) *RoleHandler {
	return &RoleHandler{service: service}
}

// Routes returns a [chi.Router] for /rest/v1/user_roles.
//
// # Endpoints
//   - GET  /         : Page through every row (admin).
//   - GET  /{userID} : Read a role row (self or admin).
//   - POST /         : Insert the caller's own row, once.
//   - PUT  /{userID} : Replace a row (admin).
//
// Admin routes are gated twice: the token's role claim first, then the
// stored role, so a demoted admin is refused before their token expires.
func (handler *RoleHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.With(middleware.RequireRole(sec.RoleAdmin)).Get("/", handler.list)
	router.Get("/{userID}", handler.get)
	router.Post("/", handler.insert)
	router.With(middleware.RequireRole(sec.RoleAdmin)).Put("/{userID}", handler.set)

	return router
}

type roleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

/*
list handles GET /rest/v1/user_roles.

Query Parameters:
  - role: string (repeatable or comma-separated; student, teacher, admin)
  - page: int
  - limit: int

Response:
  - 200: []RoleAssignment: Paginated list
*/
func (handler *RoleHandler) list(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	paginationParams := pagination.FromRequest(request)

	var filter RoleFilter
	for _, raw := range query.Values(request.URL.Query(), FieldRole) {
		filter.Roles = append(filter.Roles, sec.UserRole(raw))
	}

	assignments, total, err := handler.service.ListRoles(request.Context(), actorID, filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, assignments, pagination.NewMeta(paginationParams, total))
}

// get handles GET /rest/v1/user_roles/{userID}. 404 PGRST116 when absent.
func (handler *RoleHandler) get(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	assignment, err := handler.service.GetRole(request.Context(), actorID, requestutil.Param(request, "userID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, assignment)
}

// insert handles POST /rest/v1/user_roles. 409 23505 when a row exists.
func (handler *RoleHandler) insert(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input roleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUserID, input.UserID).Required(FieldRole, input.Role)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	assignment, err := handler.service.InsertRole(request.Context(), actorID, input.UserID, sec.UserRole(input.Role))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, assignment)
}

// set handles PUT /rest/v1/user_roles/{userID}.
func (handler *RoleHandler) set(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input roleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	assignment, err := handler.service.SetRole(request.Context(), actorID, requestutil.Param(request, "userID"), sec.UserRole(input.Role))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, assignment)
}
