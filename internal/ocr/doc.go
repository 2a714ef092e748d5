// Package ocr extracts text from images.
//
// Adapter wraps an Engine and normalizes what it returns: surrounding
// whitespace is trimmed, and an empty string is a valid result meaning the
// image has no text. Engine failures come back as "" plus an error so the
// caller can log them and carry on; OCR failure never fails a request.
//
// The production engine lives in the tesseract subpackage and needs the
// Tesseract library installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
package ocr
