package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ABBEY ROAD", "Abbey Road"},
		{"the dark side of the moon", "The Dark Side Of The Moon"},
		{"oK Computer", "Ok Computer"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeTitle(tc.in), "input %q", tc.in)
	}
}
