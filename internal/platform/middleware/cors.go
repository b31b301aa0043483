// Copyright (c) 2026 SafHub. All rights reserved.

package middleware

import (
	"net/http"
	"strings"

	"github.com/safhub/safhub/internal/platform/constants"
)

// OriginPolicy decides which browser origins may call the API.
// [*config.Config] satisfies it.
type OriginPolicy interface {
	IsDevelopment() bool
	OriginSuffix() string
}

const (
	corsAllowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders  = "Accept, Authorization, Content-Type, X-Request-ID, " + constants.HeaderAPIKey
	corsExposeHeaders = "X-Request-ID, Retry-After"
)

// CORS admits every origin in development and only origins ending in the
// configured suffix otherwise. Preflights are answered with 204.
func CORS(policy OriginPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			origin := request.Header.Get(constants.HeaderOrigin)
			if origin == "" {
				next.ServeHTTP(writer, request)
				return
			}

			if originAllowed(policy, origin) {
				header := writer.Header()
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Methods", corsAllowMethods)
				header.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				header.Set("Access-Control-Expose-Headers", corsExposeHeaders)
				header.Set("Access-Control-Allow-Credentials", "true")
				header.Set("Access-Control-Max-Age", "300")
				header.Add("Vary", constants.HeaderOrigin)
			}

			if request.Method == http.MethodOptions {
				writer.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}

func originAllowed(policy OriginPolicy, origin string) bool {
	if policy.IsDevelopment() {
		return true
	}
	suffix := policy.OriginSuffix()
	return suffix != "" && strings.HasSuffix(origin, suffix)
}
