// Copyright (c) 2026 SafHub. All rights reserved.

package query_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/safhub/safhub/pkg/query"
)

func TestValues(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"role=admin", []string{"admin"}},
		{"role=admin&role=teacher", []string{"admin", "teacher"}},
		{"role=admin,%20teacher,,admin", []string{"admin", "teacher"}},
		{"other=admin", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			values, err := url.ParseQuery(tt.raw)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, query.Values(values, "role"))
		})
	}
}
