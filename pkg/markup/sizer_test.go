package markup

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeImage writes a blank PNG of the given size at dir/name.
func writeImage(t *testing.T, dir, name string, width, height int) string {
	t.Helper()

	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))

	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, width, height))))

	return p
}

func TestRestructure(t *testing.T) {
	tt := map[string]struct {
		name     string
		from, to Layout
		expected string
	}{
		"same layout":    {name: "horse/001.JPG", from: LayoutNested, to: LayoutNested, expected: "horse/001.JPG"},
		"nested to flat": {name: "horse/001.JPG", from: LayoutNested, to: LayoutFlat, expected: "horse_001.JPG"},
		"flat to nested": {name: "horse_001.JPG", from: LayoutFlat, to: LayoutNested, expected: "horse/001.JPG"},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, Restructure(tc.name, tc.from, tc.to))
		})
	}
}

func TestLayout_Validate(t *testing.T) {
	assert.NoError(t, LayoutNested.Validate())
	assert.NoError(t, LayoutFlat.Validate())
	assert.Error(t, Layout("tree").Validate())
}

func TestDirSizer(t *testing.T) {
	dir := t.TempDir()
	p := writeImage(t, dir, "horse_001.png", 64, 48)

	sizer, err := NewDirSizer(dir, LayoutNested, LayoutFlat)
	require.NoError(t, err)
	assert.Equal(t, p, sizer.Path("horse/001.png"))

	w, h, err := sizer.ImageSize("horse/001.png")
	require.NoError(t, err)
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)

	// served from cache once decoded
	require.NoError(t, os.Remove(p))
	w, h, err = sizer.ImageSize("horse/001.png")
	require.NoError(t, err)
	assert.Equal(t, [2]int{64, 48}, [2]int{w, h})

	_, _, err = sizer.ImageSize("horse/002.png")
	assert.Error(t, err)
}

func TestDirSizer_NotAnImage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.JPG"), []byte("not an image"), 0644))

	sizer, err := NewDirSizer(dir, LayoutNested, LayoutNested)
	require.NoError(t, err)

	_, _, err = sizer.ImageSize("a.JPG")
	assert.Error(t, err)
}
