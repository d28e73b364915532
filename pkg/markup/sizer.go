package markup

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultSizeCacheEntries = 4096

// ImageSizer reports the pixel dimensions of the image a markup file name
// refers to.
type ImageSizer interface {
	ImageSize(fileName string) (width, height int, err error)
}

type size struct {
	width, height int
}

// DirSizer reads image headers from an images directory. Sizes are cached, so
// a file is decoded once however many markers marked it.
type DirSizer struct {
	dir          string
	markupLayout Layout
	imagesLayout Layout
	cache        *lru.Cache[string, size]
}

var _ ImageSizer = &DirSizer{}

func NewDirSizer(dir string, markupLayout, imagesLayout Layout) (*DirSizer, error) {
	cache, err := lru.New[string, size](DefaultSizeCacheEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create image size cache: %w", err)
	}

	return &DirSizer{
		dir:          dir,
		markupLayout: markupLayout,
		imagesLayout: imagesLayout,
		cache:        cache,
	}, nil
}

// Path returns where the image for a markup file name lives on disk.
func (d *DirSizer) Path(fileName string) string {
	return filepath.Join(d.dir, filepath.FromSlash(Restructure(fileName, d.markupLayout, d.imagesLayout)))
}

func (d *DirSizer) ImageSize(fileName string) (int, int, error) {
	if s, ok := d.cache.Get(fileName); ok {
		return s.width, s.height, nil
	}

	f, err := os.Open(d.Path(fileName))
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image header: %w", err)
	}

	d.cache.Add(fileName, size{width: cfg.Width, height: cfg.Height})

	return cfg.Width, cfg.Height, nil
}

// StaticSizer serves sizes from a fixed table keyed by markup file name.
type StaticSizer map[string][2]int

func (s StaticSizer) ImageSize(fileName string) (int, int, error) {
	wh, ok := s[fileName]
	if !ok {
		return 0, 0, fmt.Errorf("no size known for '%s'", fileName)
	}
	return wh[0], wh[1], nil
}
