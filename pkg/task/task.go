// Package task turns raw image-marking task descriptions into prepared tasks
// that carry the validator and result transformer a host installs.
package task

import (
	"context"
	"encoding/json"
	"reflect"
)

const (
	FieldPremarkup = "premarkup"
	FieldMarks     = "marks"

	// NoMarksMessage is reported to the user when a result has no marks.
	NoMarksMessage = "Разметьте изображение"
)

// RawTask is the unprepared exercise description supplied by the host.
type RawTask map[string]any

// Code is the opaque execution context the host renders a task with.
type Code map[string]any

// Result is produced by the user's interaction with a rendered task.
type Result map[string]any

// Verdict is the outcome of validating a Result. A failed verdict is an
// expected, user facing condition and never an error.
type Verdict struct {
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

type Validator func(Result) Verdict

type Transformer func(Result) Result

// PreparedTask is a raw task with premarkup resolved into Marks, plus the hooks
// the host installs for the lifetime of one render.
type PreparedTask struct {
	// Fields holds every raw task field except premarkup and marks.
	Fields map[string]any
	// Marks is never nil.
	Marks     []any
	Validate  Validator
	Transform Transformer
}

// Preparer normalizes a raw task into a PreparedTask.
type Preparer interface {
	Prepare(ctx context.Context, raw RawTask, code Code) (*PreparedTask, error)
}

// PreparerFunc adapts a function to the Preparer interface.
type PreparerFunc func(ctx context.Context, raw RawTask, code Code) (*PreparedTask, error)

func (f PreparerFunc) Prepare(ctx context.Context, raw RawTask, code Code) (*PreparedTask, error) {
	return f(ctx, raw, code)
}

// ImageMarkPreparer prepares image-marking tasks.
type ImageMarkPreparer struct{}

var _ Preparer = ImageMarkPreparer{}

// Prepare prepares raw with the image-marking rules.
func Prepare(ctx context.Context, raw RawTask, code Code) (*PreparedTask, error) {
	return ImageMarkPreparer{}.Prepare(ctx, raw, code)
}

// Prepare splits premarkup off raw, resolves its marks and attaches the
// image-marking validator and the identity transformer. raw is not modified.
// The only error it returns is ctx.Err().
func (ImageMarkPreparer) Prepare(ctx context.Context, raw RawTask, _ Code) (*PreparedTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields := make(map[string]any, len(raw))
	var premarkup any
	for k, v := range raw {
		switch k {
		case FieldPremarkup:
			premarkup = v
		case FieldMarks:
			// superseded by the resolved premarkup marks
		default:
			fields[k] = v
		}
	}

	return &PreparedTask{
		Fields:    fields,
		Marks:     premarkupMarks(premarkup),
		Validate:  ValidateMarks,
		Transform: Identity,
	}, nil
}

// ValidateMarks fails with NoMarksMessage when result has no marks. A missing
// or malformed marks field counts as no marks.
func ValidateMarks(result Result) Verdict {
	var marks any
	if result != nil {
		marks = result[FieldMarks]
	}

	if n, ok := sequenceLen(marks); !ok || n == 0 {
		return Verdict{Passed: false, Reason: NoMarksMessage}
	}

	return Verdict{Passed: true}
}

// Identity returns result unchanged.
func Identity(result Result) Result {
	return result
}

func premarkupMarks(premarkup any) []any {
	m, ok := asMap(premarkup)
	if !ok {
		return []any{}
	}

	marks, ok := AsSequence(m[FieldMarks])
	if !ok {
		return []any{}
	}

	return marks
}

// AsSequence reports whether v is an ordered sequence and returns it as []any.
// A []any is returned as is, sharing its backing array; other slice and array
// kinds are copied element by element. Strings and byte slices are not
// sequences of marks.
func AsSequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case nil:
		return nil, false
	case []any:
		if s == nil {
			return nil, false
		}
		return s, true
	case []byte, string:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return nil, false
		}
	case reflect.Array:
	default:
		return nil, false
	}

	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func sequenceLen(v any) (int, bool) {
	if s, ok := v.([]any); ok {
		return len(s), s != nil
	}
	s, ok := AsSequence(v)
	return len(s), ok
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, m != nil
	case RawTask:
		return m, m != nil
	case Result:
		return m, m != nil
	default:
		return nil, false
	}
}

// MarshalJSON flattens the prepared task into a single object. The hooks are
// not serialized.
func (p *PreparedTask) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Fields)+1)
	for k, v := range p.Fields {
		out[k] = v
	}

	marks := p.Marks
	if marks == nil {
		marks = []any{}
	}
	out[FieldMarks] = marks

	return json.Marshal(out)
}
