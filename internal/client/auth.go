// Copyright (c) 2026 SafHub. All rights reserved.

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// # Auth Endpoints

const (
	pathSignUp = "/auth/v1/signup"
	pathToken  = "/auth/v1/token"
	pathLogout = "/auth/v1/logout"
	pathUser   = "/auth/v1/user"
	pathVerify = "/auth/v1/verify"

	grantPassword     = "password"
	grantRefreshToken = "refresh_token"
)

/*
SignUp registers an account.

Description: When the backend returns a session it is persisted and
SIGNED_IN is emitted. When email confirmation is required the response
carries no session and nothing is persisted.
*/
func (client *Client) SignUp(context context.Context, params SignUpParams) (*SignUpResponse, error) {
	var response SignUpResponse
	if err := client.do(context, call{method: http.MethodPost, path: pathSignUp, body: params}, &response); err != nil {
		return nil, err
	}

	if response.Session != nil {
		if err := client.saveSession(context, response.Session); err != nil {
			return nil, err
		}
		client.emit(EventSignedIn, response.Session)
	}

	return &response, nil
}

// SignInWithPassword exchanges credentials for a session and emits SIGNED_IN.
func (client *Client) SignInWithPassword(context context.Context, email, password string) (*Session, error) {
	var session Session
	err := client.do(context, call{
		method: http.MethodPost,
		path:   pathToken,
		query:  map[string]string{"grant_type": grantPassword},
		body:   map[string]string{"email": email, "password": password},
	}, &session)
	if err != nil {
		return nil, err
	}

	if err := client.saveSession(context, &session); err != nil {
		return nil, err
	}
	client.emit(EventSignedIn, &session)

	return &session, nil
}

/*
SignOut revokes sessions on the backend and, unless scope is "others",
forgets the local session and emits SIGNED_OUT.

Returns:
  - ErrSessionMissing when the client never persisted a session
  - the backend error (e.g. session_not_found); the local session is
    removed regardless
*/
func (client *Client) SignOut(context context.Context, scope SignOutScope) error {
	session, err := client.loadSession(context)
	if err != nil {
		return err
	}
	if session == nil {
		session = client.lastPersisted()
	}
	if session == nil {
		return ErrSessionMissing
	}

	remoteErr := client.do(context, call{
		method: http.MethodPost,
		path:   pathLogout,
		token:  session.AccessToken,
		query:  map[string]string{"scope": string(scope)},
	}, nil)

	if scope != ScopeOthers {
		if err := client.removeSession(context); err != nil {
			client.logger.WarnContext(context, "auth_session_remove_failed", slog.Any("error", err))
		}
		client.emit(EventSignedOut, nil)
	}

	return remoteErr
}

/*
GetSession returns the persisted session, refreshing it first when the
access token has expired.

Returns:
  - (nil, nil) when signed out
  - the refresh error when rotation fails; the session is dropped and
    SIGNED_OUT is emitted
*/
func (client *Client) GetSession(context context.Context) (*Session, error) {
	session, err := client.loadSession(context)
	if err != nil || session == nil {
		return nil, err
	}

	if !session.IsExpired(client.now()) {
		return session, nil
	}

	return client.RefreshSession(context)
}

// RefreshSession rotates the refresh token and emits TOKEN_REFRESHED.
func (client *Client) RefreshSession(context context.Context) (*Session, error) {
	client.refreshMu.Lock()
	defer client.refreshMu.Unlock()

	current, err := client.loadSession(context)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrSessionMissing
	}

	var refreshed Session
	err = client.do(context, call{
		method: http.MethodPost,
		path:   pathToken,
		query:  map[string]string{"grant_type": grantRefreshToken},
		body:   map[string]string{"refresh_token": current.RefreshToken},
	}, &refreshed)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			_ = client.removeSession(context)
			client.emit(EventSignedOut, nil)
		}
		return nil, err
	}

	if err := client.saveSession(context, &refreshed); err != nil {
		return nil, err
	}
	client.emit(EventTokenRefreshed, &refreshed)

	return &refreshed, nil
}

// GetUser fetches the current account. A change against the persisted copy
// is saved and emitted as USER_UPDATED.
func (client *Client) GetUser(context context.Context) (*User, error) {
	session, err := client.GetSession(context)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionMissing
	}

	var user User
	err = client.do(context, call{method: http.MethodGet, path: pathUser, token: session.AccessToken}, &user)
	if err != nil {
		return nil, err
	}

	if session.User == nil || session.User.UserMetadata != user.UserMetadata || session.User.Email != user.Email {
		updated := *session
		updated.User = &user
		if err := client.saveSession(context, &updated); err != nil {
			return nil, err
		}
		client.emit(EventUserUpdated, &updated)
	}

	return &user, nil
}

// VerifyEmail confirms an address with the token mailed at sign-up.
func (client *Client) VerifyEmail(context context.Context, token string) error {
	return client.do(context, call{
		method: http.MethodPost,
		path:   pathVerify,
		body:   map[string]string{"token": token},
	}, nil)
}

// # Persistence

func (client *Client) loadSession(context context.Context) (*Session, error) {
	raw, found, err := client.storage.Get(context, client.storageKey)
	if err != nil {
		return nil, fmt.Errorf("client_session_load_failed: %w", err)
	}
	if !found || raw == "" {
		return nil, nil
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		// A corrupt entry is treated as signed out and cleared.
		client.logger.WarnContext(context, "auth_session_corrupt", slog.Any("error", err))
		_ = client.storage.Remove(context, client.storageKey)
		return nil, nil
	}
	return &session, nil
}

func (client *Client) saveSession(context context.Context, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("client_session_encode_failed: %w", err)
	}
	if err := client.storage.Set(context, client.storageKey, string(raw)); err != nil {
		return fmt.Errorf("client_session_save_failed: %w", err)
	}

	client.lastMu.Lock()
	client.lastSession = session
	client.lastMu.Unlock()
	return nil
}

func (client *Client) removeSession(context context.Context) error {
	client.lastMu.Lock()
	client.lastSession = nil
	client.lastMu.Unlock()

	if err := client.storage.Remove(context, client.storageKey); err != nil {
		return fmt.Errorf("client_session_remove_failed: %w", err)
	}
	return nil
}

func (client *Client) lastPersisted() *Session {
	client.lastMu.Lock()
	defer client.lastMu.Unlock()
	return client.lastSession
}
