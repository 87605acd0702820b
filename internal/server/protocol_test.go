package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsHTTP(t *testing.T) {
	tests := []struct {
		peek string
		want bool
	}{
		{"GET ", true},
		{"POST", true},
		{"HEAD", true},
		{"PUT ", true},
		{"", false},
		{"abc1", false},
		{"\n", false},
		{"GE", false},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, isHTTP([]byte(tt.peek)), "peek %q", tt.peek)
	}
}
