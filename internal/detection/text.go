package detection

import (
	"math"
	"sort"
)

// textWindows are the sliding-window sizes tried, roughly one line of small,
// medium and large text.
var textWindows = []struct{ w, h int }{
	{100, 30},
	{150, 40},
	{200, 50},
	{80, 25},
}

// detectTextRegions finds regions likely to contain text.
//
// This is a heuristic: text has medium edge density (not too sparse, not too
// dense) and more horizontal edge runs than vertical ones. Overlapping
// candidate windows are merged and the result is sorted by confidence.
func detectTextRegions(edges *edgeMap, minConfidence float64) []shape {
	candidates := make([]shape, 0)

	for _, ws := range textWindows {
		if ws.w > edges.width || ws.h > edges.height {
			continue
		}
		stepX := ws.w / 2
		stepY := ws.h / 2

		for y := 0; y <= edges.height-ws.h; y += stepY {
			for x := 0; x <= edges.width-ws.w; x += stepX {
				edgeCount := 0
				for wy := 0; wy < ws.h; wy++ {
					for wx := 0; wx < ws.w; wx++ {
						if edges.at(x+wx, y+wy) {
							edgeCount++
						}
					}
				}

				density := float64(edgeCount) / float64(ws.w*ws.h)
				if density < 0.05 || density > 0.4 {
					continue
				}

				hs := horizontalScore(edges, x, y, ws.w, ws.h)
				confidence := hs * (1.0 - math.Abs(density-0.2)/0.2)
				if confidence < minConfidence {
					continue
				}

				candidates = append(candidates, shape{
					bounds:     Bounds{X1: x, Y1: y, X2: x + ws.w, Y2: y + ws.h},
					class:      ClassText,
					confidence: confidence,
				})
			}
		}
	}

	merged := mergeOverlapping(candidates)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].confidence > merged[j].confidence
	})

	return merged
}

// horizontalScore is the share of horizontal edge runs among all runs in the window.
func horizontalScore(edges *edgeMap, x, y, w, h int) float64 {
	horizontalRuns := 0
	verticalRuns := 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			if edges.at(col, row) {
				if !inRun {
					horizontalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			if edges.at(col, row) {
				if !inRun {
					verticalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontalRuns+verticalRuns == 0 {
		return 0
	}
	return float64(horizontalRuns) / float64(horizontalRuns+verticalRuns)
}

// mergeOverlapping folds each region into the first merged region it overlaps.
func mergeOverlapping(regions []shape) []shape {
	merged := make([]shape, 0, len(regions))

	for _, r := range regions {
		found := false
		for i := range merged {
			if overlaps(r.bounds, merged[i].bounds) {
				merged[i].bounds = union(r.bounds, merged[i].bounds)
				merged[i].confidence = math.Max(r.confidence, merged[i].confidence)
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, r)
		}
	}

	return merged
}

func overlaps(a, b Bounds) bool {
	return a.X1 < b.X2 && a.X2 > b.X1 && a.Y1 < b.Y2 && a.Y2 > b.Y1
}

func union(a, b Bounds) Bounds {
	return Bounds{
		X1: min(a.X1, b.X1),
		Y1: min(a.Y1, b.Y1),
		X2: max(a.X2, b.X2),
		Y2: max(a.Y2, b.Y2),
	}
}
