package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnv(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		setupEnv    map[string]string
		expected    string
		expectError bool
	}{
		{
			name:     "no references",
			value:    "markup/horse.json",
			expected: "markup/horse.json",
		},
		{
			name:     "required var set",
			value:    "${DATA_DIR}/images",
			setupEnv: map[string]string{"DATA_DIR": "/data"},
			expected: "/data/images",
		},
		{
			name:        "required var not set",
			value:       "${DATA_DIR}/images",
			expectError: true,
		},
		{
			name:        "required var empty",
			value:       "${DATA_DIR}",
			setupEnv:    map[string]string{"DATA_DIR": ""},
			expectError: true,
		},
		{
			name:     "default used when unset",
			value:    "${DATA_DIR:-/srv}/images",
			expected: "/srv/images",
		},
		{
			name:     "default ignored when set",
			value:    "${DATA_DIR:-/srv}/images",
			setupEnv: map[string]string{"DATA_DIR": "/data"},
			expected: "/data/images",
		},
		{
			name:     "empty default",
			value:    "images${SUFFIX:-}",
			expected: "images",
		},
		{
			name:     "nested reference",
			value:    "${OUTER}",
			setupEnv: map[string]string{"OUTER": "${INNER}/x", "INNER": "/in"},
			expected: "/in/x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, name := range []string{"DATA_DIR", "SUFFIX", "OUTER", "INNER"} {
				t.Setenv(name, "")
			}
			for k, v := range tt.setupEnv {
				t.Setenv(k, v)
			}

			got, err := ExpandEnv(tt.value)
			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
