package markup

import (
	"fmt"
	"strings"
)

// Layout describes how image files are named: nested keeps directories
// ("horse/001.JPG"), flat joins them with underscores ("horse_001.JPG").
type Layout string

const (
	LayoutNested Layout = "nested"
	LayoutFlat   Layout = "flat"
)

func (l Layout) Validate() error {
	switch l {
	case LayoutNested, LayoutFlat:
		return nil
	default:
		return fmt.Errorf("unknown layout '%s': expected '%s' or '%s'", l, LayoutNested, LayoutFlat)
	}
}

// Restructure translates a file name from the from layout to the to layout.
// The flat to nested direction is lossy: every underscore becomes a separator.
func Restructure(name string, from, to Layout) string {
	if from == to {
		return name
	}
	if from == LayoutNested {
		return strings.ReplaceAll(name, "/", "_")
	}
	return strings.ReplaceAll(name, "_", "/")
}
