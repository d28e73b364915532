package markup

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/markcheck/markcheck/pkg/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestMarkup(t *testing.T) []Sample {
	t.Helper()

	samples, err := Load(filepath.Join("testdata", "markup.json"))
	require.NoError(t, err)
	require.Len(t, samples, 4)

	return samples
}

func TestLoad(t *testing.T) {
	samples := loadTestMarkup(t)

	first := samples[0]
	assert.Equal(t, "horse/001.JPG", first.FileName)
	assert.Equal(t, "m1", first.MarkerID)
	require.NotNil(t, first.Result)
	require.Len(t, first.Result.Marks, 2)
	assert.Equal(t, Mark{
		Type:     MarkTypeBBox,
		EntityID: "horse",
		Position: Position{X: 10, Y: 10, Width: 40, Height: 30},
	}, first.Result.Marks[0])
	assert.Equal(t, "t-1", first.Fields["task_id"])

	assert.Nil(t, samples[3].Result)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.json"))
	assert.Error(t, err)

	_, err = Load(filepath.Join("testdata", "..", "sample.go"))
	assert.Error(t, err)
}

func TestSaveRoundTripKeepsExtraFields(t *testing.T) {
	samples := loadTestMarkup(t)
	out := filepath.Join(t.TempDir(), "markup.json")

	require.NoError(t, Save(out, samples))

	reloaded, err := Load(out)
	require.NoError(t, err)
	require.Len(t, reloaded, len(samples))
	assert.Equal(t, "https://storage.example.com/horse/001.JPG", reloaded[0].Fields["image"])
	assert.Equal(t, samples[1].Result, reloaded[1].Result)
	assert.Nil(t, reloaded[3].Result)
}

func TestSample_MarshalDropsStaleResult(t *testing.T) {
	s := Sample{
		FileName: "a.JPG",
		MarkerID: "m1",
		Fields:   map[string]any{"result": map[string]any{"marks": []any{1}}, "extra": "x"},
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"file_name":"a.JPG","marker_id":"m1","extra":"x"}`, string(data))
}

func TestSample_Field(t *testing.T) {
	s := Sample{
		FileName: "a.JPG",
		MarkerID: "m1",
		Fields:   map[string]any{"task_id": "t-1", "row": float64(3), "empty": nil},
	}

	tt := map[string]struct {
		field    string
		expected string
		ok       bool
	}{
		"file name":    {field: "file_name", expected: "a.JPG", ok: true},
		"marker id":    {field: "marker_id", expected: "m1", ok: true},
		"string field": {field: "task_id", expected: "t-1", ok: true},
		"number field": {field: "row", expected: "3", ok: true},
		"null field":   {field: "empty"},
		"missing":      {field: "nope"},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			got, ok := s.Field(tc.field)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestSample_TaskResult(t *testing.T) {
	samples := loadTestMarkup(t)

	res := samples[1].TaskResult()
	marks, ok := res[task.FieldMarks].([]any)
	require.True(t, ok)
	require.Len(t, marks, 1)
	assert.Equal(t, "horse", marks[0].(map[string]any)["entityId"])
	assert.True(t, task.ValidateMarks(res).Passed)

	empty := samples[3].TaskResult()
	assert.False(t, task.ValidateMarks(empty).Passed)
}

func TestSample_TaskResultKeepsMarkFields(t *testing.T) {
	var samples []Sample
	err := json.Unmarshal([]byte(`[{
		"file_name": "a.JPG",
		"marker_id": "m1",
		"result": {"marks": [
			{"type": "bbox", "entityId": "car", "color": "red", "attrs": {"occluded": true},
			 "position": {"x": 1, "y": 2, "width": 3, "height": 4}}
		]}
	}]`), &samples)
	require.NoError(t, err)
	require.Len(t, samples, 1)

	mark := samples[0].Result.Marks[0]
	assert.Equal(t, "car", mark.EntityID)
	assert.Equal(t, map[string]any{"color": "red", "attrs": map[string]any{"occluded": true}}, mark.Extra)

	marks, ok := samples[0].TaskResult()[task.FieldMarks].([]any)
	require.True(t, ok)
	require.Len(t, marks, 1)
	got := marks[0].(map[string]any)
	assert.Equal(t, "red", got["color"])
	assert.Equal(t, map[string]any{"occluded": true}, got["attrs"])
	assert.Equal(t, "car", got["entityId"])
	assert.Equal(t, float64(2), got["position"].(map[string]any)["y"])

	kept, _ := FilterByLabel(samples)
	require.Len(t, kept, 1)
	assert.Equal(t, "red", kept[0].Result.Marks[0].Extra["color"])

	data, err := json.Marshal(samples[0].Result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"marks": [{"type": "bbox", "entityId": "car", "color": "red", "attrs": {"occluded": true},
		"position": {"x": 1, "y": 2, "width": 3, "height": 4}}]}`, string(data))
}
