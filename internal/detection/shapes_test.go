package detection

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"
)

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// fillRect paints the inclusive rectangle (x1,y1)-(x2,y2) black.
func fillRect(img *image.RGBA, x1, y1, x2, y2 int) {
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			img.Set(x, y, color.Black)
		}
	}
}

// fillCircle paints a black disc.
func fillCircle(img *image.RGBA, cx, cy, radius int) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				img.Set(x, y, color.Black)
			}
		}
	}
}

// createRectangleImage creates an image with a one pixel rectangle outline
func createRectangleImage(width, height int, rectX1, rectY1, rectX2, rectY2 int) *image.RGBA {
	img := createTestImage(width, height, color.White)

	for x := rectX1; x <= rectX2; x++ {
		img.Set(x, rectY1, color.Black)
		img.Set(x, rectY2, color.Black)
	}
	for y := rectY1; y <= rectY2; y++ {
		img.Set(rectX1, y, color.Black)
		img.Set(rectX2, y, color.Black)
	}

	return img
}

// createCircleImage creates an image with a circle outline
func createCircleImage(width, height, cx, cy, radius int) *image.RGBA {
	img := createTestImage(width, height, color.White)

	// Draw circle outline using midpoint algorithm
	x := radius
	y := 0
	err := 0

	for x >= y {
		img.Set(cx+x, cy+y, color.Black)
		img.Set(cx+y, cy+x, color.Black)
		img.Set(cx-y, cy+x, color.Black)
		img.Set(cx-x, cy+y, color.Black)
		img.Set(cx-x, cy-y, color.Black)
		img.Set(cx-y, cy-x, color.Black)
		img.Set(cx+y, cy-x, color.Black)
		img.Set(cx+x, cy-y, color.Black)

		if err <= 0 {
			y += 1
			err += 2*y + 1
		}
		if err > 0 {
			x -= 1
			err -= 2*x + 1
		}
	}

	return img
}

func predictShapes(t *testing.T, img image.Image, cfg ShapeConfig) []RawDetection {
	t.Helper()
	cfg.DisableText = true
	out, err := NewShapeEngine(cfg).Predict(context.Background(), img)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if out == nil {
		t.Fatal("Predict returned nil output")
	}
	return out.Detections
}

func boxNear(got, want [4]float64, tol float64) bool {
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			return false
		}
	}
	return true
}

func TestShapeEngine_Shapes(t *testing.T) {
	filledRect := createTestImage(100, 100, color.White)
	fillRect(filledRect, 20, 20, 60, 50)

	filledCircle := createTestImage(100, 100, color.White)
	fillCircle(filledCircle, 50, 50, 20)

	tests := []struct {
		name  string
		img   image.Image
		class int
		box   [4]float64
	}{
		{"filled rectangle", filledRect, ClassRectangle, [4]float64{19, 19, 60, 50}},
		{"outlined rectangle", createRectangleImage(100, 100, 20, 20, 80, 80), ClassRectangle, [4]float64{19, 19, 80, 80}},
		{"filled circle", filledCircle, ClassCircle, [4]float64{29, 29, 70, 70}},
		{"outlined circle", createCircleImage(100, 100, 50, 50, 30), ClassCircle, [4]float64{19, 19, 80, 80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dets := predictShapes(t, tt.img, ShapeConfig{})
			if len(dets) != 1 {
				t.Fatalf("expected 1 detection, got %d: %+v", len(dets), dets)
			}
			d := dets[0]
			if d.Class != tt.class {
				t.Errorf("class: got %d, want %d", d.Class, tt.class)
			}
			if !boxNear(d.Box, tt.box, 1) {
				t.Errorf("box: got %v, want %v", d.Box, tt.box)
			}
			if d.Confidence < 0.85 || d.Confidence > 1 {
				t.Errorf("confidence out of range: %v", d.Confidence)
			}
		})
	}
}

func TestShapeEngine_MixedOrder(t *testing.T) {
	img := createTestImage(200, 120, color.White)
	fillRect(img, 20, 20, 90, 70)
	fillCircle(img, 150, 60, 25)

	dets := predictShapes(t, img, ShapeConfig{})
	if len(dets) != 2 {
		t.Fatalf("expected 2 detections, got %d", len(dets))
	}
	// Rectangles are reported before circles.
	if dets[0].Class != ClassRectangle || dets[1].Class != ClassCircle {
		t.Errorf("unexpected classes: %d, %d", dets[0].Class, dets[1].Class)
	}
}

func TestShapeEngine_MinArea(t *testing.T) {
	img := createTestImage(100, 100, color.White)
	fillRect(img, 40, 40, 50, 50)

	if dets := predictShapes(t, img, ShapeConfig{MinArea: 50}); len(dets) != 1 {
		t.Errorf("minArea=50: expected 1 detection, got %d", len(dets))
	}
	if dets := predictShapes(t, img, ShapeConfig{MinArea: 500}); len(dets) != 0 {
		t.Errorf("minArea=500: expected 0 detections, got %d", len(dets))
	}
}

func TestShapeEngine_EmptyImage(t *testing.T) {
	img := createTestImage(100, 100, color.White)

	out, err := NewShapeEngine(ShapeConfig{}).Predict(context.Background(), img)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if out.Status != StatusEmpty {
		t.Errorf("status: got %v, want empty", out.Status)
	}
	if len(out.Detections) != 0 {
		t.Errorf("expected 0 detections in empty image, got %d", len(out.Detections))
	}
}

func TestShapeEngine_ZeroSizeImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 0, 0))

	out, err := NewShapeEngine(ShapeConfig{}).Predict(context.Background(), img)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if out.Status != StatusEmpty {
		t.Errorf("status: got %v, want empty", out.Status)
	}
}

func TestShapeEngine_ScalesLargeImages(t *testing.T) {
	img := createTestImage(1024, 512, color.White)
	fillRect(img, 200, 100, 599, 399)

	dets := predictShapes(t, img, ShapeConfig{MaxDimension: 512})
	if len(dets) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(dets))
	}
	// Analyzed at half size; boxes come back in original coordinates.
	want := [4]float64{198, 98, 598, 398}
	if !boxNear(dets[0].Box, want, 4) {
		t.Errorf("box: got %v, want ~%v", dets[0].Box, want)
	}
}

func TestShapeEngine_OffsetBounds(t *testing.T) {
	base := createTestImage(200, 200, color.White)
	fillRect(base, 120, 120, 160, 150)
	sub := base.SubImage(image.Rect(100, 100, 200, 200))

	dets := predictShapes(t, sub, ShapeConfig{})
	if len(dets) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(dets))
	}
	if !boxNear(dets[0].Box, [4]float64{119, 119, 160, 150}, 1) {
		t.Errorf("box not in source coordinates: %v", dets[0].Box)
	}
}

func TestShapeEngine_Deterministic(t *testing.T) {
	img := createTestImage(200, 120, color.White)
	fillRect(img, 20, 20, 90, 70)
	fillCircle(img, 150, 60, 25)

	engine := NewShapeEngine(ShapeConfig{})
	first, err := engine.Predict(context.Background(), img)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	second, err := engine.Predict(context.Background(), img)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if len(first.Detections) != len(second.Detections) {
		t.Fatalf("detection counts differ: %d vs %d", len(first.Detections), len(second.Detections))
	}
	for i := range first.Detections {
		if first.Detections[i] != second.Detections[i] {
			t.Errorf("detection %d differs: %+v vs %+v", i, first.Detections[i], second.Detections[i])
		}
	}
}

func TestShapeEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewShapeEngine(ShapeConfig{}).Predict(ctx, createTestImage(50, 50, color.White))
	if err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestShapeLabels(t *testing.T) {
	labels := NewShapeEngine(ShapeConfig{}).Names()
	for class, want := range map[int]string{
		ClassRectangle: "rectangle",
		ClassCircle:    "circle",
		ClassText:      "text",
	} {
		got, err := labels.Lookup(class)
		if err != nil || got != want {
			t.Errorf("Lookup(%d): got %q, %v; want %q", class, got, err, want)
		}
	}
}

func TestDetectEdges_Border(t *testing.T) {
	img := createTestImage(10, 10, color.Black)
	img.Set(0, 0, color.White)

	edges := detectEdges(img)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if (x == 0 || y == 0 || x == 9 || y == 9) && edges.at(x, y) {
				t.Errorf("border pixel (%d,%d) marked as edge", x, y)
			}
		}
	}
}
