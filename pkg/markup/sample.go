// Package markup checks and aggregates collected image markup: the per-marker
// results of image-marking tasks, as exported by the crowd platform.
package markup

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/markcheck/markcheck/pkg/task"
)

const (
	MarkTypeBBox = "bbox"

	LabelEmpty      = "empty"
	LabelBadQuality = "Bad_quality"
	LabelMistake    = "mistake"
)

type Position struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation,omitempty"`
}

// Center returns the rounded center point of the box.
func (p Position) Center() (float64, float64) {
	return math.RoundToEven(p.X + p.Width/2), math.RoundToEven(p.Y + p.Height/2)
}

// Mark is one box placed by a marker. Extra holds the mark's other fields,
// which are carried through unchanged.
type Mark struct {
	Type     string         `json:"type,omitempty"`
	EntityID string         `json:"entityId"`
	Position Position       `json:"position"`
	Extra    map[string]any `json:"-"`
}

func (m *Mark) UnmarshalJSON(data []byte) error {
	type plain Mark
	if err := json.Unmarshal(data, (*plain)(m)); err != nil {
		return err
	}

	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, k := range []string{"type", "entityId", "position"} {
		delete(fields, k)
	}

	m.Extra = nil
	if len(fields) > 0 {
		m.Extra = fields
	}

	return nil
}

func (m Mark) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.fields(m.Position))
}

// fields returns the mark as a JSON object with the given position value.
func (m Mark) fields(position any) map[string]any {
	out := make(map[string]any, len(m.Extra)+3)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Type != "" {
		out["type"] = m.Type
	}
	out["entityId"] = m.EntityID
	out["position"] = position

	return out
}

type Markup struct {
	Marks []Mark `json:"marks"`
}

// Sample is one marker's result for one image. Fields keeps every top level
// field of the exported record, including the typed ones.
type Sample struct {
	FileName string
	MarkerID string
	Result   *Markup
	Fields   map[string]any
}

type sampleJSON struct {
	FileName string  `json:"file_name"`
	MarkerID string  `json:"marker_id"`
	Result   *Markup `json:"result,omitempty"`
}

func (s *Sample) UnmarshalJSON(data []byte) error {
	typed := sampleJSON{}
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}

	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	s.FileName = typed.FileName
	s.MarkerID = typed.MarkerID
	s.Result = typed.Result
	s.Fields = fields

	return nil
}

func (s Sample) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Fields)+3)
	for k, v := range s.Fields {
		out[k] = v
	}
	out["file_name"] = s.FileName
	out["marker_id"] = s.MarkerID
	if s.Result != nil {
		out["result"] = s.Result
	} else {
		delete(out, "result")
	}

	return json.Marshal(out)
}

// Field returns a top level field of the exported record as a string key.
func (s Sample) Field(name string) (string, bool) {
	switch name {
	case "file_name":
		return s.FileName, true
	case "marker_id":
		return s.MarkerID, true
	}

	v, ok := s.Fields[name]
	if !ok || v == nil {
		return "", false
	}
	if str, ok := v.(string); ok {
		return str, true
	}
	return fmt.Sprint(v), true
}

// TaskResult converts the sample's markup into the result shape validated by
// prepared tasks. Fields of a mark beyond its box are passed through. A sample
// without a result yields a result without marks.
func (s Sample) TaskResult() task.Result {
	if s.Result == nil {
		return task.Result{}
	}

	marks := make([]any, 0, len(s.Result.Marks))
	for _, m := range s.Result.Marks {
		marks = append(marks, m.fields(map[string]any{
			"x":        m.Position.X,
			"y":        m.Position.Y,
			"width":    m.Position.Width,
			"height":   m.Position.Height,
			"rotation": m.Position.Rotation,
		}))
	}

	return task.Result{task.FieldMarks: marks}
}

// Load reads an exported markup file: a JSON array of samples.
func Load(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read markup file: %w", err)
	}

	var samples []Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse markup JSON: %w", err)
	}

	return samples, nil
}

// Save writes samples in the exported markup format.
func Save(path string, samples []Sample) error {
	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal markup: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write markup file: %w", err)
	}

	return nil
}
