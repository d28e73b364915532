package markup

import (
	"path/filepath"
	"testing"

	"github.com/markcheck/markcheck/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"
)

func TestCheckFromFile(t *testing.T) {
	abs, err := filepath.Abs("testdata")
	require.NoError(t, err)

	tt := map[string]struct {
		file      string
		expected  CheckSpec
		expectErr bool
	}{
		"relative paths and defaults": {
			file: "check.yaml",
			expected: CheckSpec{
				MarkupFile:      filepath.Join(abs, "markup.json"),
				ImagesDir:       filepath.Join(abs, "images"),
				WrongCasesDir:   filepath.Join(abs, "wrong_cases"),
				ImagesLayout:    LayoutFlat,
				MinRelativeSize: ptr.To(0.01),
				UniqueFields:    []string{"task_id"},
			},
		},
		"absolute paths are kept": {
			file: "check-minimal.yaml",
			expected: CheckSpec{
				MarkupFile:    "/data/markup.json",
				ImagesDir:     "/data/images",
				WrongCasesDir: filepath.Join(abs, "out"),
			},
		},
		"unknown layout": {
			file:      "check-bad-layout.yaml",
			expectErr: true,
		},
		"missing markup file": {
			file:      "check-missing-markup.yaml",
			expectErr: true,
		},
		"wrong kind": {
			file:      "check-wrong-kind.yaml",
			expectErr: true,
		},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			got, err := CheckFromFile(filepath.Join("testdata", tc.file))
			if tc.expectErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, abs, got.BasePath())
			assert.Equal(t, KindCheck, got.Kind)
			assert.Equal(t, tc.expected, got.Spec)
		})
	}
}

func TestCheckFromFile_ExpandsEnv(t *testing.T) {
	t.Setenv("MARKCHECK_TEST_DATA", "/data")
	t.Setenv("MARKCHECK_TEST_IMAGES", "")

	got, err := CheckFromFile(filepath.Join("testdata", "check-env.yaml"))
	require.NoError(t, err)

	abs, err := filepath.Abs("testdata")
	require.NoError(t, err)
	assert.Equal(t, "/data/markup.json", got.Spec.MarkupFile)
	assert.Equal(t, filepath.Join(abs, "images"), got.Spec.ImagesDir)
}

func TestCheckFromFile_MissingEnv(t *testing.T) {
	t.Setenv("MARKCHECK_TEST_DATA", "")

	_, err := CheckFromFile(filepath.Join("testdata", "check-env.yaml"))
	assert.ErrorContains(t, err, "MARKCHECK_TEST_DATA")
}

func TestCheckSpec_Defaults(t *testing.T) {
	spec := CheckSpec{}

	assert.Equal(t, DefaultMinRelativeSize, spec.MinRelativeSizeOrDefault())
	assert.Equal(t, DefaultRelativeError, spec.RelativeErrorOrDefault())

	markup, images := spec.Layouts()
	assert.Equal(t, LayoutNested, markup)
	assert.Equal(t, LayoutNested, images)

	spec = CheckSpec{MinRelativeSize: ptr.To(0.0), ImagesLayout: LayoutFlat}
	assert.Equal(t, 0.0, spec.MinRelativeSizeOrDefault())
	_, images = spec.Layouts()
	assert.Equal(t, LayoutFlat, images)
}

func TestCheckConfig_ValidateJoinsErrors(t *testing.T) {
	cfg := &CheckConfig{
		TypeMeta: util.TypeMeta{Kind: KindCheck},
		Spec:     CheckSpec{UniqueFields: []string{""}},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name")
	assert.Contains(t, err.Error(), "MarkupFile")
	assert.Contains(t, err.Error(), "UniqueFields[0]")
}
