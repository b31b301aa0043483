// Copyright (c) 2026 SafHub. All rights reserved.

// Package query reads multi-valued URL query parameters.
package query

import (
	"net/url"
	"strings"
)

/*
Values returns every value of key, accepting both repeated parameters and
comma-separated lists, so "?role=admin&role=teacher" and "?role=admin,teacher"
are equivalent.

Blank entries are dropped and duplicates are kept once, in first-seen order.
*/
func Values(values url.Values, key string) []string {
	var (
		result []string
		seen   = make(map[string]struct{})
	)

	for _, raw := range values[key] {
		for _, part := range strings.Split(raw, ",") {
			clean := strings.TrimSpace(part)
			if clean == "" {
				continue
			}
			if _, ok := seen[clean]; ok {
				continue
			}
			seen[clean] = struct{}{}
			result = append(result, clean)
		}
	}

	return result
}
