// Copyright (c) 2026 SafHub. All rights reserved.

// Package requestutil reads auth payloads, path parameters and the caller's
// identity out of an incoming request.
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safhub/safhub/internal/platform/apperr"
	"github.com/safhub/safhub/internal/platform/ctxutil"
	"github.com/safhub/safhub/internal/platform/sec"
	"github.com/safhub/safhub/internal/platform/validate"
)

// maxBodyBytes caps request bodies. Credentials plus sign-up metadata fit
// in a fraction of it.
const maxBodyBytes = 64 << 10

// ErrBodyTooLarge is returned for bodies over 64 KiB.
var ErrBodyTooLarge = validate.Invalid("body", "Request body too large")

/*
DecodeJSON decodes a single JSON object from the body into target.

Returns:
  - error: validate.ErrInvalidJSON for an empty, malformed or trailing
    payload, ErrBodyTooLarge past the cap
*/
func DecodeJSON(request *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, request.Body, maxBodyBytes))

	if err := decoder.Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrBodyTooLarge
		}
		return validate.ErrInvalidJSON
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return validate.ErrInvalidJSON
	}
	return nil
}

// Param returns the chi path parameter name, or "".
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// RequiredClaims returns the verified token claims or a 401.
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {
	claims := ctxutil.Claims(request.Context())
	if claims == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return claims, nil
}

// RequiredUserID returns the caller's user ID or a 401.
func RequiredUserID(request *http.Request) (string, error) {
	claims, err := RequiredClaims(request)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
