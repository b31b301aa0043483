// Copyright (c) 2026 SafHub. All rights reserved.

// Package pagination parses page-based list parameters and builds the
// metadata block returned beside list payloads.
//
// # Clamping
//
// Requests never fail on bad paging input: a page below 1 becomes 1, a
// missing or unparsable limit becomes [DefaultLimit], and an oversized limit
// is capped at [MaxLimit].
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 25
	MaxLimit     = 100
)

// Params holds the parsed page (1-indexed) and limit.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// New clamps raw page and limit values into valid [Params].
func New(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	switch {
	case limit < 1:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

// Offset returns the SQL OFFSET for the page.
func (params Params) Offset() int {
	return (params.Page - 1) * params.Limit
}

// FromRequest reads the "page" and "limit" query parameters.
func FromRequest(request *http.Request) Params {
	query := request.URL.Query()
	return New(atoi(query.Get("page")), atoi(query.Get("limit")))
}

// atoi returns 0 for empty or malformed input; [New] then applies defaults.
func atoi(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// Meta accompanies a list payload.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewMeta builds the metadata for a page of params out of total rows.
func NewMeta(params Params, total int) Meta {
	totalPages := 0
	if params.Limit > 0 {
		totalPages = (total + params.Limit - 1) / params.Limit
	}
	return Meta{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
