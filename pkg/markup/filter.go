package markup

import (
	"fmt"
	"math"
	"sort"
)

const (
	ReasonAllMistakes = "all_mistakes"
)

// Rejection records a sample dropped by FilterByLabel.
type Rejection struct {
	FileName string `json:"filepath"`
	MarkerID string `json:"marker_id,omitempty"`
	Reason   string `json:"reason"`
}

// FilterByLabel drops unusable markup. An empty or Bad_quality mark discards
// the marks collected before it in the same sample and is reported with that
// label as the reason, once per file; correct marks after it are still kept.
// Mistake marks are removed. A sample left without marks is not kept and is
// rejected as all_mistakes when it carried a mistake. Samples without a result
// are skipped. The input samples are not modified.
func FilterByLabel(samples []Sample) ([]Sample, []Rejection) {
	kept := make([]Sample, 0, len(samples))
	var rejected []Rejection
	reported := map[string]bool{}

	for _, sample := range samples {
		if sample.Result == nil {
			continue
		}

		var (
			correct    []Mark
			gotMistake bool
		)
		for _, mark := range sample.Result.Marks {
			switch mark.EntityID {
			case LabelEmpty, LabelBadQuality:
				correct = nil
				if !reported[sample.FileName] {
					reported[sample.FileName] = true
					rejected = append(rejected, Rejection{
						FileName: sample.FileName,
						MarkerID: sample.MarkerID,
						Reason:   mark.EntityID,
					})
				}
			case LabelMistake:
				gotMistake = true
			default:
				correct = append(correct, mark)
			}
		}

		if len(correct) == 0 {
			if gotMistake {
				rejected = append(rejected, Rejection{
					FileName: sample.FileName,
					MarkerID: sample.MarkerID,
					Reason:   ReasonAllMistakes,
				})
			}
			continue
		}

		filtered := sample
		filtered.Result = &Markup{Marks: correct}
		kept = append(kept, filtered)
	}

	return kept, rejected
}

// Answer is one box a marker placed on an image.
type Answer struct {
	Label    string   `json:"label"`
	Position Position `json:"position"`
}

// Answers groups boxes by image file name, then by marker id.
type Answers map[string]map[string][]Answer

// Files returns the image file names in lexical order.
func (a Answers) Files() []string {
	files := make([]string, 0, len(a))
	for f := range a {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Markers returns the marker ids of file in lexical order.
func (a Answers) Markers(file string) []string {
	markers := make([]string, 0, len(a[file]))
	for m := range a[file] {
		markers = append(markers, m)
	}
	sort.Strings(markers)
	return markers
}

// BoxRejection records a box dropped for being too small.
type BoxRejection struct {
	FileName string   `json:"filepath"`
	MarkerID string   `json:"marker_id"`
	Position Position `json:"position"`
}

// FilterBySize keeps boxes whose width and height both exceed minRelative of
// the image's width and height. Every sample with a result gets an entry in the
// returned answers, even when all of its boxes are dropped.
func FilterBySize(samples []Sample, sizer ImageSizer, minRelative float64) (Answers, []BoxRejection, error) {
	answers := Answers{}
	var rejected []BoxRejection

	for _, sample := range samples {
		if sample.Result == nil {
			continue
		}

		byMarker, ok := answers[sample.FileName]
		if !ok {
			byMarker = map[string][]Answer{}
			answers[sample.FileName] = byMarker
		}
		if _, ok := byMarker[sample.MarkerID]; !ok {
			byMarker[sample.MarkerID] = []Answer{}
		}

		if len(sample.Result.Marks) == 0 {
			continue
		}

		width, height, err := sizer.ImageSize(sample.FileName)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get size of image '%s': %w", sample.FileName, err)
		}

		minWidth := math.RoundToEven(float64(width) * minRelative)
		minHeight := math.RoundToEven(float64(height) * minRelative)

		for _, mark := range sample.Result.Marks {
			if mark.Position.Width > minWidth && mark.Position.Height > minHeight {
				byMarker[sample.MarkerID] = append(byMarker[sample.MarkerID], Answer{
					Label:    mark.EntityID,
					Position: mark.Position,
				})
				continue
			}

			rejected = append(rejected, BoxRejection{
				FileName: sample.FileName,
				MarkerID: sample.MarkerID,
				Position: mark.Position,
			})
		}
	}

	return answers, rejected, nil
}
