// Copyright (c) 2026 SafHub. All rights reserved.

package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/safhub/safhub/internal/platform/sec"
)

const pathUserRoles = "/rest/v1/user_roles"

// RoleStore reads and writes user_roles rows as the signed-in user.
type RoleStore struct {
	client *Client
}

// Roles returns the user_roles accessor.
func (client *Client) Roles() *RoleStore {
	return &RoleStore{client: client}
}

// Get returns the role row of userID, or [ErrRoleNotFound].
func (store *RoleStore) Get(context context.Context, userID string) (*RoleRow, error) {
	token, err := store.client.accessToken(context)
	if err != nil {
		return nil, err
	}

	var row RoleRow
	err = store.client.do(context, call{
		method: http.MethodGet,
		path:   pathUserRoles + "/" + url.PathEscape(userID),
		token:  token,
	}, &row)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Insert creates the caller's own row. A row that already exists surfaces
// as a 23505 [APIError]; see [IsUniqueViolation].
func (store *RoleStore) Insert(context context.Context, userID string, role sec.UserRole) (*RoleRow, error) {
	token, err := store.client.accessToken(context)
	if err != nil {
		return nil, err
	}

	var row RoleRow
	err = store.client.do(context, call{
		method: http.MethodPost,
		path:   pathUserRoles,
		token:  token,
		body:   map[string]string{"user_id": userID, "role": string(role)},
	}, &row)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Set replaces another user's row. The backend accepts it from admins only.
func (store *RoleStore) Set(context context.Context, userID string, role sec.UserRole) (*RoleRow, error) {
	token, err := store.client.accessToken(context)
	if err != nil {
		return nil, err
	}

	var row RoleRow
	err = store.client.do(context, call{
		method: http.MethodPut,
		path:   pathUserRoles + "/" + url.PathEscape(userID),
		token:  token,
		body:   map[string]string{"role": string(role)},
	}, &row)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// List pages through every row. The backend accepts it from admins only.
func (store *RoleStore) List(context context.Context, params ListRolesParams) (*RolePage, error) {
	token, err := store.client.accessToken(context)
	if err != nil {
		return nil, err
	}

	query := make(map[string]string)
	if len(params.Roles) > 0 {
		roles := make([]string, len(params.Roles))
		for i, role := range params.Roles {
			roles[i] = string(role)
		}
		query["role"] = strings.Join(roles, ",")
	}
	if params.Page > 0 {
		query["page"] = strconv.Itoa(params.Page)
	}
	if params.Limit > 0 {
		query["limit"] = strconv.Itoa(params.Limit)
	}

	page := &RolePage{Rows: []RoleRow{}}
	err = store.client.do(context, call{
		method: http.MethodGet,
		path:   pathUserRoles,
		token:  token,
		query:  query,
		meta:   &page.Meta,
	}, &page.Rows)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// accessToken returns a fresh access token for row-store calls.
func (client *Client) accessToken(context context.Context) (string, error) {
	session, err := client.GetSession(context)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", ErrSessionMissing
	}
	return session.AccessToken, nil
}
