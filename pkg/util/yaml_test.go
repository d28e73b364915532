package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalYAML(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		expected    map[string]any
		errContains string
	}{
		{
			name: "position keys",
			data: "position: {x: 1, y: 2, width: 30, height: 40}\n",
			expected: map[string]any{
				"position": map[string]any{
					"x": float64(1), "y": float64(2), "width": float64(30), "height": float64(40),
				},
			},
		},
		{
			name: "boolean words are strings",
			data: "n: no\non: off\nflags: [yes, y]\n",
			expected: map[string]any{
				"n":     "no",
				"on":    "off",
				"flags": []any{"yes", "y"},
			},
		},
		{
			name: "nested sequences of mappings",
			data: "marks:\n  - {entityId: horse, y: 5}\n  - {entityId: car}\n",
			expected: map[string]any{
				"marks": []any{
					map[string]any{"entityId": "horse", "y": float64(5)},
					map[string]any{"entityId": "car"},
				},
			},
		},
		{
			name:        "integer key",
			data:        "marks:\n  - 1: horse\n",
			errContains: "marks[0]: mapping key 1 is not a string",
		},
		{
			name:        "boolean key",
			data:        "true: 1\n",
			errContains: "document root: mapping key true is not a string",
		},
		{
			name:        "invalid yaml",
			data:        "a: [1, 2\n",
			errContains: "yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			err := UnmarshalYAML([]byte(tt.data), &got)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestUnmarshalYAML_StructTags(t *testing.T) {
	var got struct {
		TypeMeta
		Name string `json:"name"`
	}

	err := UnmarshalYAML([]byte("apiVersion: markcheck/v1alpha1\nkind: Task\nname: y\n"), &got)
	require.NoError(t, err)

	assert.Equal(t, APIVersionV1Alpha1, got.APIVersion)
	assert.Equal(t, "Task", got.Kind)
	assert.Equal(t, "y", got.Name)
}
