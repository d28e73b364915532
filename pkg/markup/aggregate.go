package markup

import (
	"fmt"
	"math"
	"sort"
)

const (
	DefaultMinRelativeSize = 0.005
	DefaultRelativeError   = 0.01
)

// Row is one box assigned to a subtask: a consistent location on an image that
// several markers marked.
type Row struct {
	Subtask  string   `json:"subtask"`
	Task     string   `json:"task"`
	MarkerID string   `json:"marker_id"`
	Label    string   `json:"label"`
	Position Position `json:"position"`
}

type cluster struct {
	sumX, sumY float64
	members    []int
}

func (c *cluster) center() (float64, float64) {
	n := float64(len(c.members))
	return c.sumX / n, c.sumY / n
}

// GroupBySubtask clusters each image's box centers and keeps the clusters most
// markers agree on. The number of clusters kept is the most common number of
// boxes per marker; the distance threshold grows with the image diagonal times
// relativeError. Boxes outside the kept clusters are returned as inconsistent.
func GroupBySubtask(answers Answers, sizer ImageSizer, relativeError float64) ([]Row, []BoxRejection, error) {
	var rows []Row
	var inconsistent []BoxRejection

	for _, file := range answers.Files() {
		markers := answers.Markers(file)

		counts := make([]int, 0, len(markers))
		var (
			points  [][2]float64
			workers []string
			boxes   []Answer
		)
		for _, marker := range markers {
			counts = append(counts, len(answers[file][marker]))
			for _, a := range answers[file][marker] {
				x, y := a.Position.Center()
				points = append(points, [2]float64{x, y})
				workers = append(workers, marker)
				boxes = append(boxes, a)
			}
		}

		if len(points) == 0 {
			continue
		}

		width, height, err := sizer.ImageSize(file)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get size of image '%s': %w", file, err)
		}

		bandwidth := math.RoundToEven(math.Hypot(float64(width)*relativeError, float64(height)*relativeError))
		if bandwidth < 1 {
			bandwidth = 1
		}

		clusters := leaderClusters(points, bandwidth)
		keep := mostCommonCount(counts)

		subtaskOf := make(map[int]string, len(points))
		for rank, c := range clusters {
			for _, idx := range c.members {
				if rank < keep {
					subtaskOf[idx] = fmt.Sprintf("%s_%d", file, rank)
				}
			}
		}

		for i, box := range boxes {
			subtask, ok := subtaskOf[i]
			if !ok {
				inconsistent = append(inconsistent, BoxRejection{
					FileName: file,
					MarkerID: workers[i],
					Position: box.Position,
				})
				continue
			}

			rows = append(rows, Row{
				Subtask:  subtask,
				Task:     file,
				MarkerID: workers[i],
				Label:    box.Label,
				Position: box.Position,
			})
		}
	}

	return rows, inconsistent, nil
}

// leaderClusters assigns each point to the nearest existing cluster whose
// running center is within bandwidth, or starts a new one. Clusters are
// returned largest first; equal sizes keep creation order.
func leaderClusters(points [][2]float64, bandwidth float64) []*cluster {
	var clusters []*cluster

	for i, p := range points {
		var best *cluster
		bestDist := math.Inf(1)
		for _, c := range clusters {
			cx, cy := c.center()
			if d := math.Hypot(p[0]-cx, p[1]-cy); d <= bandwidth && d < bestDist {
				best, bestDist = c, d
			}
		}

		if best == nil {
			best = &cluster{}
			clusters = append(clusters, best)
		}
		best.sumX += p[0]
		best.sumY += p[1]
		best.members = append(best.members, i)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i].members) > len(clusters[j].members)
	})

	return clusters
}

// mostCommonCount returns the most frequent value, the smallest one on ties.
func mostCommonCount(counts []int) int {
	freq := map[int]int{}
	for _, c := range counts {
		freq[c]++
	}

	best, bestFreq := 0, 0
	for v, f := range freq {
		if f > bestFreq || (f == bestFreq && v < best) {
			best, bestFreq = v, f
		}
	}

	return best
}

// LabelVote is the aggregated label of one subtask.
type LabelVote struct {
	Subtask       string             `json:"subtask"`
	Label         string             `json:"aggregated_label"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// MajorityVote aggregates the labels markers gave each subtask. Probabilities
// are normalized vote counts; ties go to the lexically smallest label.
func MajorityVote(rows []Row) []LabelVote {
	votes := map[string]map[string]int{}
	for _, r := range rows {
		if votes[r.Subtask] == nil {
			votes[r.Subtask] = map[string]int{}
		}
		votes[r.Subtask][r.Label]++
	}

	subtasks := make([]string, 0, len(votes))
	for s := range votes {
		subtasks = append(subtasks, s)
	}
	sort.Strings(subtasks)

	out := make([]LabelVote, 0, len(subtasks))
	for _, s := range subtasks {
		labels := make([]string, 0, len(votes[s]))
		total := 0
		for l, n := range votes[s] {
			labels = append(labels, l)
			total += n
		}
		sort.Strings(labels)

		vote := LabelVote{
			Subtask:       s,
			Probabilities: make(map[string]float64, len(labels)),
		}
		bestCount := 0
		for _, l := range labels {
			n := votes[s][l]
			vote.Probabilities[l] = float64(n) / float64(total)
			if n > bestCount {
				vote.Label, bestCount = l, n
			}
		}

		out = append(out, vote)
	}

	return out
}

// ToSamples turns aggregated rows back into the exported markup format, one
// sample per image. Non-result fields are copied from the original sample of
// the first marker that contributed a row for that image.
func ToSamples(rows []Row, originals []Sample) []Sample {
	byKey := make(map[[2]string]Sample, len(originals))
	for _, s := range originals {
		byKey[[2]string{s.FileName, s.MarkerID}] = s
	}

	var order []string
	marks := map[string][]Mark{}
	firstMarker := map[string]string{}
	for _, r := range rows {
		if _, ok := marks[r.Task]; !ok {
			order = append(order, r.Task)
			firstMarker[r.Task] = r.MarkerID
		}
		marks[r.Task] = append(marks[r.Task], Mark{
			Type:     MarkTypeBBox,
			EntityID: r.Label,
			Position: r.Position,
		})
	}

	out := make([]Sample, 0, len(order))
	for _, file := range order {
		s := Sample{
			FileName: file,
			MarkerID: firstMarker[file],
			Fields:   map[string]any{},
		}
		if orig, ok := byKey[[2]string{file, firstMarker[file]}]; ok {
			for k, v := range orig.Fields {
				if k != "result" {
					s.Fields[k] = v
				}
			}
		}
		s.Result = &Markup{Marks: marks[file]}
		out = append(out, s)
	}

	return out
}
