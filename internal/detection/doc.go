// Package detection turns object-detector output into normalized results.
//
// The package has two halves: the Adapter, which every request goes through,
// and the engines that do the actual detecting.
//
// # Adapter
//
// Adapter.Detect invokes an Engine once and converts its RawOutput into a
// Result:
//
//   - An engine that finds nothing, or returns a nil container, produces an
//     empty Result and no error.
//   - An engine error (or panic) produces an empty Result and the error. The
//     caller logs it and continues; detection failure never fails a request.
//   - Each detection's class index is resolved through the LabelMap. A
//     detection whose index cannot be resolved is dropped and logged; the
//     rest of the batch is kept.
//   - Boxes are reordered so x1 <= x2 and y1 <= y2, and confidences are
//     clamped to [0, 1].
//
// A Result carries the detections both as a slice of Detection and as the
// parallel Boxes, Labels and Confidences slices the JSON response needs. All
// four always have the same length and are never nil.
//
// # Engines
//
//   - RemoteEngine posts the image to an HTTP inference service (for
//     example a YOLO model) and reads back boxes, classes and scores.
//   - ShapeEngine is a pure-Go heuristic detector for diagrams: rectangles,
//     circles and text-like regions.
//
// Engines and label maps are built once at startup and shared read-only by
// all requests.
//
// # Label Maps
//
// LoadLabelMap reads a YOLO data.yaml style file. The names key may be a list
// (index = position) or a mapping of index to name:
//
//	names: [person, bicycle, car]
//
//	names:
//	  0: person
//	  1: bicycle
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
package detection
