package markup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/markcheck/markcheck/pkg/util"
	"k8s.io/utils/ptr"
)

const (
	KindCheck = "Check"
)

// CheckConfig describes where collected markup and its images live and how
// strictly to check them.
type CheckConfig struct {
	util.TypeMeta
	Metadata CheckMetadata `json:"metadata"`
	Spec     CheckSpec     `json:"spec"`

	basePath string
}

type CheckMetadata struct {
	Name string `json:"name" validate:"required"`
}

type CheckSpec struct {
	MarkupFile    string `json:"markupFile" validate:"required"`
	ImagesDir     string `json:"imagesDir" validate:"required"`
	WrongCasesDir string `json:"wrongCasesDir,omitempty"`
	MarkupLayout  Layout `json:"markupLayout,omitempty" validate:"omitempty,oneof=nested flat"`
	ImagesLayout  Layout `json:"imagesLayout,omitempty" validate:"omitempty,oneof=nested flat"`
	ImageGlob     string `json:"imageGlob,omitempty"`

	MinRelativeSize *float64 `json:"minRelativeSize,omitempty" validate:"omitempty,gte=0,lt=1"`
	RelativeError   *float64 `json:"relativeError,omitempty" validate:"omitempty,gt=0,lt=1"`

	UniqueFields []string `json:"uniqueFields,omitempty" validate:"dive,required"`
}

func (c *CheckConfig) UnmarshalJSON(data []byte) error {
	type Doppleganger CheckConfig

	tmp := (*Doppleganger)(c)
	return util.UnmarshalWithKind(data, tmp, KindCheck)
}

func (c *CheckConfig) BasePath() string {
	return c.basePath
}

func (c *CheckConfig) Validate() error {
	v := validator.New()

	var err error
	err = errors.Join(err, v.Struct(c.Metadata))
	err = errors.Join(err, v.Struct(c.Spec))

	return err
}

// MinRelativeSizeOrDefault returns the configured minimal relative box size or the
// default.
func (s *CheckSpec) MinRelativeSizeOrDefault() float64 {
	return ptr.Deref(s.MinRelativeSize, DefaultMinRelativeSize)
}

func (s *CheckSpec) RelativeErrorOrDefault() float64 {
	return ptr.Deref(s.RelativeError, DefaultRelativeError)
}

// Layouts returns the markup and image layouts, nested when unset.
func (s *CheckSpec) Layouts() (Layout, Layout) {
	markup, images := s.MarkupLayout, s.ImagesLayout
	if markup == "" {
		markup = LayoutNested
	}
	if images == "" {
		images = LayoutNested
	}
	return markup, images
}

func ReadCheck(data []byte, basePath string) (*CheckConfig, error) {
	cfg := &CheckConfig{}

	if err := util.UnmarshalYAML(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid check config: %w", err)
	}

	if cfg.Spec.WrongCasesDir == "" {
		cfg.Spec.WrongCasesDir = "wrong_cases"
	}

	for _, p := range []*string{&cfg.Spec.MarkupFile, &cfg.Spec.ImagesDir, &cfg.Spec.WrongCasesDir} {
		expanded, err := util.ExpandEnv(*p)
		if err != nil {
			return nil, fmt.Errorf("invalid check config: %w", err)
		}
		*p = expanded
		resolveFilePath(p, basePath)
	}
	cfg.basePath = basePath

	return cfg, nil
}

func resolveFilePath(filePath *string, basePath string) {
	if filePath == nil || *filePath == "" {
		return
	}

	// If the path is already absolute, leave it as-is
	if filepath.IsAbs(*filePath) {
		return
	}

	*filePath = filepath.Join(basePath, *filePath)
}

func CheckFromFile(path string) (*CheckConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file '%s' for check: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", path, err)
	}

	return ReadCheck(data, filepath.Dir(absPath))
}
