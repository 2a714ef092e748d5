package detection

import (
	"context"
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Classes reported by ShapeEngine.
const (
	ClassRectangle = 0
	ClassCircle    = 1
	ClassText      = 2
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner
type Bounds struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int
	Y int
}

// ShapeConfig tunes a ShapeEngine. Zero values select the defaults.
type ShapeConfig struct {
	// MaxDimension is the largest side analyzed; bigger images are scaled
	// down first and boxes scaled back up. Default 512.
	MaxDimension int

	// MinArea is the minimum bounding-box area, in analyzed pixels, for a
	// rectangle or circle. Default 100.
	MinArea int

	// Tolerance is the minimum rectangularity and roundness score (0 to 1).
	// Default 0.85.
	Tolerance float64

	// MinTextConfidence is the minimum text-region score. Default 0.5.
	MinTextConfidence float64

	// DisableText turns text-region detection off.
	DisableText bool
}

// ShapeEngine is a pure-Go detector for diagram-like images. It finds filled
// or outlined rectangles and circles, and regions that look like lines of text.
//
// It needs no model files or network access, which makes it the fallback
// detector and the one used in tests.
//
// # Algorithm
//
//  1. Grayscale: bild's effect.Grayscale
//  2. Edge Detection: gradient threshold against the right and lower neighbors
//  3. Contour Finding: 8-connected flood fill over edge pixels
//  4. Classification: each contour's bounding box is scored as a rectangle
//     (perimeter match plus edges at all four corners) and as a circle
//     (spread of distances from the box center)
//  5. Text: sliding windows with moderate, mostly horizontal edge density
type ShapeEngine struct {
	cfg ShapeConfig
}

// NewShapeEngine creates a ShapeEngine.
func NewShapeEngine(cfg ShapeConfig) *ShapeEngine {
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = 512
	}
	if cfg.MinArea <= 0 {
		cfg.MinArea = 100
	}
	if cfg.Tolerance <= 0 || cfg.Tolerance > 1 {
		cfg.Tolerance = 0.85
	}
	if cfg.MinTextConfidence <= 0 {
		cfg.MinTextConfidence = 0.5
	}
	return &ShapeEngine{cfg: cfg}
}

// ShapeLabels returns the label map of ShapeEngine's classes.
func ShapeLabels() LabelMap {
	return NewLabelMap(map[int]string{
		ClassRectangle: "rectangle",
		ClassCircle:    "circle",
		ClassText:      "text",
	})
}

// Name implements Engine.
func (e *ShapeEngine) Name() string { return "shapes" }

// Names implements Engine.
func (e *ShapeEngine) Names() LabelMap { return ShapeLabels() }

// Predict implements Engine.
func (e *ShapeEngine) Predict(ctx context.Context, img image.Image) (*RawOutput, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return NewRawOutput(nil), nil
	}

	src := img
	scale := 1.0
	if w, h := bounds.Dx(), bounds.Dy(); w > e.cfg.MaxDimension || h > e.cfg.MaxDimension {
		small := imaging.Fit(img, e.cfg.MaxDimension, e.cfg.MaxDimension, imaging.Box)
		scale = float64(w) / float64(small.Bounds().Dx())
		src = small
	}

	edges := detectEdges(src)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var dets []RawDetection
	for _, s := range classifyContours(edges, findContours(edges), e.cfg.MinArea, e.cfg.Tolerance) {
		dets = append(dets, s.raw(scale, bounds.Min))
	}

	if !e.cfg.DisableText {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, s := range detectTextRegions(edges, e.cfg.MinTextConfidence) {
			dets = append(dets, s.raw(scale, bounds.Min))
		}
	}

	return NewRawOutput(dets), nil
}

// shape is a classified region in analyzed-image coordinates.
type shape struct {
	bounds     Bounds
	class      int
	confidence float64
}

func (s shape) raw(scale float64, origin image.Point) RawDetection {
	return RawDetection{
		Box: [4]float64{
			float64(s.bounds.X1)*scale + float64(origin.X),
			float64(s.bounds.Y1)*scale + float64(origin.Y),
			float64(s.bounds.X2)*scale + float64(origin.X),
			float64(s.bounds.Y2)*scale + float64(origin.Y),
		},
		Class:      s.class,
		Confidence: math.Round(s.confidence*1000) / 1000,
	}
}

func (s shape) area() int {
	return (s.bounds.X2 - s.bounds.X1) * (s.bounds.Y2 - s.bounds.Y1)
}

// classifyContours scores every contour as a rectangle and as a circle and
// keeps the better match above tolerance. Rectangles come first sorted by
// area (largest first), then circles sorted by confidence.
func classifyContours(edges *edgeMap, contours [][]Point, minArea int, tolerance float64) []shape {
	rects := make([]shape, 0)
	circles := make([]shape, 0)

	for _, contour := range contours {
		if len(contour) < 4 {
			continue
		}

		b := contourBounds(contour)
		w, h := b.X2-b.X1, b.Y2-b.Y1
		if w*h < minArea {
			continue
		}

		rect := rectangularity(edges, contour, b)
		round := roundness(contour, b)

		switch {
		case rect >= tolerance && rect >= round:
			rects = append(rects, shape{bounds: b, class: ClassRectangle, confidence: rect})
		case round >= tolerance:
			circles = append(circles, shape{bounds: b, class: ClassCircle, confidence: round})
		}
	}

	sort.SliceStable(rects, func(i, j int) bool {
		return rects[i].area() > rects[j].area()
	})
	sort.SliceStable(circles, func(i, j int) bool {
		return circles[i].confidence > circles[j].confidence
	})

	return append(rects, circles...)
}

func contourBounds(contour []Point) Bounds {
	b := Bounds{X1: contour[0].X, Y1: contour[0].Y, X2: contour[0].X, Y2: contour[0].Y}
	for _, p := range contour[1:] {
		b.X1 = min(b.X1, p.X)
		b.Y1 = min(b.Y1, p.Y)
		b.X2 = max(b.X2, p.X)
		b.Y2 = max(b.Y2, p.Y)
	}
	return b
}

// rectangularity compares the contour length to the bounding-box perimeter:
// 1 - |contour_length - perimeter| / perimeter. A thin outline leaves edges on
// both sides of the stroke, so twice the perimeter is tried as well. A shape
// without edge pixels near all four box corners scores 0.
func rectangularity(edges *edgeMap, contour []Point, b Bounds) float64 {
	for _, c := range []Point{{b.X1, b.Y1}, {b.X2, b.Y1}, {b.X1, b.Y2}, {b.X2, b.Y2}} {
		if !edges.near(c, 2) {
			return 0
		}
	}
	perimeter := 2 * ((b.X2 - b.X1) + (b.Y2 - b.Y1))
	if perimeter == 0 {
		return 0
	}
	score := 0.0
	for _, p := range []int{perimeter, 2 * perimeter} {
		s := 1.0 - math.Abs(float64(len(contour)-p))/float64(p)
		score = math.Max(score, s)
	}
	return score
}

// roundness scores how evenly the contour sits around the box center.
// A square box is required; the score is 1 minus the largest deviation from
// the mean radius relative to that radius.
func roundness(contour []Point, b Bounds) float64 {
	w, h := float64(b.X2-b.X1), float64(b.Y2-b.Y1)
	if w == 0 || h == 0 {
		return 0
	}
	if aspect := w / h; aspect < 0.8 || aspect > 1.25 {
		return 0
	}

	cx := float64(b.X1+b.X2) / 2
	cy := float64(b.Y1+b.Y2) / 2

	dists := make([]float64, len(contour))
	mean := 0.0
	for i, p := range contour {
		dists[i] = math.Hypot(float64(p.X)-cx, float64(p.Y)-cy)
		mean += dists[i]
	}
	mean /= float64(len(contour))
	if mean < 1 {
		return 0
	}

	worst := 0.0
	for _, d := range dists {
		worst = math.Max(worst, math.Abs(d-mean))
	}
	return math.Max(1.0-worst/mean, 0)
}

// edgeMap is a binary edge image in analyzed-image coordinates.
type edgeMap struct {
	width, height int
	px            []bool
}

func (m *edgeMap) at(x, y int) bool {
	return m.px[y*m.width+x]
}

// near reports whether any edge pixel lies within r pixels of p.
func (m *edgeMap) near(p Point, r int) bool {
	for y := max(p.Y-r, 0); y <= min(p.Y+r, m.height-1); y++ {
		for x := max(p.X-r, 0); x <= min(p.X+r, m.width-1); x++ {
			if m.at(x, y) {
				return true
			}
		}
	}
	return false
}

// detectEdges performs simple gradient-based edge detection.
//
// Pixels where |current - neighbor| > 30 in grayscale, checking the right and
// lower neighbors, are marked as edges. Border pixels are never edges.
func detectEdges(img image.Image) *edgeMap {
	// Grayscale keeps RGBA layout with the luminance in every color channel.
	gray := effect.Grayscale(img)
	width, height := gray.Rect.Dx(), gray.Rect.Dy()
	m := &edgeMap{width: width, height: height, px: make([]bool, width*height)}
	const threshold = 30

	for y := 1; y < height-1; y++ {
		row := gray.Pix[y*gray.Stride:]
		next := gray.Pix[(y+1)*gray.Stride:]
		for x := 1; x < width-1; x++ {
			c := int(row[x*4])
			dx := abs(c - int(row[(x+1)*4]))
			dy := abs(c - int(next[x*4]))
			if dx > threshold || dy > threshold {
				m.px[y*width+x] = true
			}
		}
	}

	return m
}

// findContours groups edge pixels into 8-connected components.
// Components smaller than 10 pixels are discarded as noise.
func findContours(edges *edgeMap) [][]Point {
	visited := make([]bool, len(edges.px))
	contours := make([][]Point, 0)

	for y := 0; y < edges.height; y++ {
		for x := 0; x < edges.width; x++ {
			if edges.at(x, y) && !visited[y*edges.width+x] {
				contour := floodFill(edges, visited, x, y)
				if len(contour) >= 10 {
					contours = append(contours, contour)
				}
			}
		}
	}

	return contours
}

// floodFill collects the component containing (startX, startY) using an
// explicit stack.
func floodFill(edges *edgeMap, visited []bool, startX, startY int) []Point {
	contour := make([]Point, 0)
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= edges.width || p.Y < 0 || p.Y >= edges.height {
			continue
		}
		i := p.Y*edges.width + p.X
		if visited[i] || !edges.px[i] {
			continue
		}

		visited[i] = true
		contour = append(contour, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}

	return contour
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
