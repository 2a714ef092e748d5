// Package httpapi exposes the analysis pipeline over HTTP.
//
// Each analysis endpoint takes a multipart upload with the image in the
// "image" field and answers with a pipeline.Response:
//
//	POST /detect    object detection (alias: POST /caption)
//	POST /ocr       text extraction
//	POST /analyze   detection, OCR and follow-up questions
//
// Add ?annotate=true to get the image back with boxes drawn, as base64 PNG.
//
// A missing upload is a 400 with {"error":"No image uploaded"}. An upload that
// cannot be decoded, or a panic anywhere in the handler chain, is a 500 whose
// error starts with "Server error: ". Stage failures never change the status;
// they leave the affected fields empty.
//
// GET /health and GET /metrics are not rate limited.
package httpapi
