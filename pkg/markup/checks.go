package markup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	CheckFileToImage = "file_to_image"
	CheckImageToFile = "image_to_file"
	checkUniquePref  = "not_unique_"

	DefaultImageGlob = "**/*.JPG"
)

// CheckResult is the outcome of one consistency check. Cases lists the
// offending file names or field values.
type CheckResult struct {
	Name    string   `json:"name"`
	Passed  bool     `json:"passed"`
	Message string   `json:"message"`
	Cases   []string `json:"cases,omitempty"`
}

// CheckFilesHaveImages reports samples whose image is missing from imagesDir.
func CheckFilesHaveImages(samples []Sample, imagesDir string, markupLayout, imagesLayout Layout) (CheckResult, error) {
	res := CheckResult{Name: CheckFileToImage}

	for _, s := range samples {
		name := Restructure(s.FileName, markupLayout, imagesLayout)
		_, err := os.Stat(filepath.Join(imagesDir, filepath.FromSlash(name)))
		if errors.Is(err, fs.ErrNotExist) {
			res.Cases = append(res.Cases, name)
			continue
		}
		if err != nil {
			return res, fmt.Errorf("failed to stat image '%s': %w", name, err)
		}
	}

	res.Passed = len(res.Cases) == 0
	if res.Passed {
		res.Message = "every markup record has an image"
	} else {
		res.Message = fmt.Sprintf("%d markup records have no image", len(res.Cases))
	}

	return res, nil
}

// CheckImagesHaveMarkup reports images under imagesDir matching glob that no
// sample refers to. Image paths are taken relative to imagesDir and translated
// to the markup layout before matching.
func CheckImagesHaveMarkup(samples []Sample, imagesDir, glob string, markupLayout, imagesLayout Layout) (CheckResult, error) {
	res := CheckResult{Name: CheckImageToFile}
	if glob == "" {
		glob = DefaultImageGlob
	}

	known := make(map[string]bool, len(samples))
	for _, s := range samples {
		known[s.FileName] = true
	}

	matches, err := doublestar.Glob(os.DirFS(imagesDir), glob)
	if err != nil {
		return res, fmt.Errorf("invalid image glob %q: %w", glob, err)
	}

	for _, match := range matches {
		name := Restructure(match, imagesLayout, markupLayout)
		if !known[name] {
			res.Cases = append(res.Cases, name)
		}
	}

	res.Passed = len(res.Cases) == 0
	if res.Passed {
		res.Message = "every image has markup"
	} else {
		res.Message = fmt.Sprintf("%d images have no markup", len(res.Cases))
	}

	return res, nil
}

// CheckUniqueField reports repeated values of a top level sample field. Each
// repeat after the first occurrence is a case.
func CheckUniqueField(samples []Sample, field string) CheckResult {
	res := CheckResult{Name: checkUniquePref + field}
	seen := map[string]bool{}

	for _, s := range samples {
		v, ok := s.Field(field)
		if !ok {
			continue
		}
		if seen[v] {
			res.Cases = append(res.Cases, v)
			continue
		}
		seen[v] = true
	}

	res.Passed = len(res.Cases) == 0
	if res.Passed {
		res.Message = fmt.Sprintf("all values of %s are unique", field)
	} else {
		res.Message = fmt.Sprintf("%d repeated values of %s", len(res.Cases), field)
	}

	return res
}

// WriteCases writes the cases of a failed check to <dir>/<name>.txt, one per
// line, and returns the file path. Passed checks write nothing.
func WriteCases(dir string, res CheckResult) (string, error) {
	if res.Passed {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create wrong cases dir: %w", err)
	}

	p := filepath.Join(dir, res.Name+".txt")
	if err := os.WriteFile(p, []byte(strings.Join(res.Cases, "\n")+"\n"), 0644); err != nil {
		return "", fmt.Errorf("failed to write wrong cases: %w", err)
	}

	return p, nil
}
