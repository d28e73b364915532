package task

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/markcheck/markcheck/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	basePath = "testdata"
)

func TestFromFile(t *testing.T) {
	tt := map[string]struct {
		file      string
		expected  *TaskConfig
		expectErr bool
	}{
		"task with premarkup": {
			file: "horse-premarkup.yaml",
			expected: &TaskConfig{
				TypeMeta: util.TypeMeta{
					APIVersion: util.APIVersionV1Alpha1,
					Kind:       KindTask,
				},
				Metadata: TaskMetadata{
					Name:   "horse detection",
					Labels: map[string]string{"project": "animals"},
				},
				Spec: TaskSpec{
					Task: RawTask{
						"title": "img1",
						"image": "https://storage.example.com/horse/001.JPG",
						"premarkup": map[string]any{
							"marks": []any{
								map[string]any{
									"type":     "bbox",
									"entityId": "horse",
									"position": map[string]any{
										"x":      float64(1),
										"y":      float64(2),
										"width":  float64(30),
										"height": float64(40),
									},
								},
							},
						},
					},
					Code: Code{"entities": []any{"horse"}},
				},
			},
		},
		"task without premarkup or code": {
			file: "no-premarkup.yaml",
			expected: &TaskConfig{
				TypeMeta: util.TypeMeta{Kind: KindTask},
				Metadata: TaskMetadata{Name: "plain image"},
				Spec: TaskSpec{
					Task: RawTask{"title": "img2"},
					Code: Code{},
				},
			},
		},
		"yaml 1.1 boolean words stay string keys": {
			file: "boolean-words.yaml",
			expected: &TaskConfig{
				TypeMeta: util.TypeMeta{Kind: KindTask},
				Metadata: TaskMetadata{Name: "boolean words"},
				Spec: TaskSpec{
					Task: RawTask{
						"title":   "img3",
						"y":       float64(3),
						"n":       float64(4),
						"on":      "yes",
						"answers": map[string]any{"yes": float64(1), "no": float64(0)},
					},
					Code: Code{},
				},
			},
		},
		"non-string mapping key": {
			file:      "int-key.yaml",
			expectErr: true,
		},
		"wrong kind": {
			file:      "wrong-kind.yaml",
			expectErr: true,
		},
		"missing name": {
			file:      "missing-name.yaml",
			expectErr: true,
		},
		"unknown api version": {
			file:      "bad-version.yaml",
			expectErr: true,
		},
		"missing file": {
			file:      "does-not-exist.yaml",
			expectErr: true,
		},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			got, err := FromFile(fmt.Sprintf("%s/%s", basePath, tc.file))
			if tc.expectErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)

			abs, err := filepath.Abs(basePath)
			require.NoError(t, err)
			assert.Equal(t, abs, got.BasePath())

			tc.expected.basePath = got.basePath
			assert.Equal(t, tc.expected, got)
		})
	}
}
