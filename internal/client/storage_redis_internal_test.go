// Copyright (c) 2026 SafHub. All rights reserved.

package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeGlob(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain namespace", "safhub-identity:sb-", "safhub-identity:sb-"},
		{"empty", "", ""},
		{"star", "sb-*", `sb-\*`},
		{"question mark", "sb-?", `sb-\?`},
		{"character class", "sb-[ab]", `sb-\[ab\]`},
		{"backslash first", `sb-\*`, `sb-\\\*`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeGlob(tt.input))
		})
	}
}
