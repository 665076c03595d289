package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikePattern(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "%%"},
		{"PO-17", "%PO-17%"},
		{"50%", `%50\%%`},
		{"a_b", `%a\_b%`},
		{`c:\x`, `%c:\\x%`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LikePattern(tc.in), "input %q", tc.in)
	}
}
