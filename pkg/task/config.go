package task

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/markcheck/markcheck/pkg/util"
)

const (
	KindTask = "Task"
)

// TaskConfig is a task file: a raw task and the code context it renders with.
type TaskConfig struct {
	util.TypeMeta
	Metadata TaskMetadata `json:"metadata"`
	Spec     TaskSpec     `json:"spec"`

	basePath string
}

type TaskMetadata struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
}

type TaskSpec struct {
	Task RawTask `json:"task"`
	Code Code    `json:"code,omitempty"`
}

func (t *TaskConfig) UnmarshalJSON(data []byte) error {
	type Doppleganger TaskConfig

	tmp := (*Doppleganger)(t)
	return util.UnmarshalWithKind(data, tmp, KindTask)
}

// BasePath is the directory of the file the config was read from.
func (t *TaskConfig) BasePath() string {
	return t.basePath
}

func (t *TaskConfig) Validate() error {
	var err error
	if t.Metadata.Name == "" {
		err = errors.Join(err, fmt.Errorf("metadata.name must be set"))
	}
	if t.Spec.Task == nil {
		err = errors.Join(err, fmt.Errorf("spec.task must be set"))
	}

	return err
}

func Read(data []byte, basePath string) (*TaskConfig, error) {
	cfg := &TaskConfig{}

	err := util.UnmarshalYAML(data, cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task '%s': %w", cfg.Metadata.Name, err)
	}

	if cfg.Spec.Code == nil {
		cfg.Spec.Code = Code{}
	}
	cfg.basePath = basePath

	return cfg, nil
}

func FromFile(path string) (*TaskConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file '%s' for task: %w", path, err)
	}

	// Convert to absolute path to ensure basePath is absolute
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", path, err)
	}

	return Read(data, filepath.Dir(absPath))
}
