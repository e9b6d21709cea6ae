package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUAPhone(t *testing.T) {
	tests := map[string]string{
		"+380 50 111 22 33": "+380501112233",
		"380501112233":      "+380501112233",
		"050-111-22-33":     "+380501112233",
		"501112233":         "+380501112233",
		" 12345 ":           "12345",
		"":                  "",
	}

	for input, want := range tests {
		assert.Equal(t, want, NormalizeUAPhone(input), input)
	}
}
