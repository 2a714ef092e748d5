// Package server implements the MCP (Model Context Protocol) server for image analysis.
//
// The server exposes the same analysis pipeline as the HTTP API to MCP clients,
// reading images from local paths instead of uploads.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load an image and report its dimensions
//   - image_forget: Drop an image from the cache
//   - image_detect_objects: Object detection
//   - image_ocr: Full-text OCR
//   - image_analyze: Detection, OCR and follow-up questions
//   - image_ocr_words: Word boxes (only when a word finder is configured)
//
// The analysis tools return the same JSON document as the HTTP endpoints.
//
// # Image Caching
//
// Images are decoded and normalized once per file and reused across tool
// calls until the file changes on disk. image_forget drops an entry to free
// memory.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A stage failure inside an analysis is not a tool error; the stage's fields
// are simply empty.
//
// # Usage
//
//	srv := server.New(analyzer, server.WithVersion(version))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err.Error())
//	}
//
// Logs go to stderr because stdout carries the protocol.
package server
