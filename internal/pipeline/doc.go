// Package pipeline orchestrates one image analysis.
//
// An Analyzer runs object detection and OCR side by side, feeds both results
// to the follow-up generator, and merges everything into a Response with
// Assemble. Each stage reports an Outcome carrying either its value or the
// error together with a zero-value fallback, so a failing stage empties its
// own part of the Response and never the whole request.
//
// Which stages run depends on the Mode. With FeatureParity enabled every mode
// runs all stages, and the Mode only decides when the response reports an
// error.
package pipeline
