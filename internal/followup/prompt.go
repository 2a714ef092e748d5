// Package followup turns detected object names and OCR text into
// question/answer pairs generated by a language model.
package followup

import (
	"fmt"
	"strings"
)

// SystemMessage establishes the assistant's role for every completion.
const SystemMessage = "You are a helpful assistant that describes images for people who cannot see them. " +
	"You only use the information you are given about the image."

// NoObjects is embedded in the prompt when nothing was detected.
const NoObjects = "None"

// BuildPrompt returns the user message for a completion. The output depends
// only on its arguments.
func BuildPrompt(objectNames []string, ocrText string) string {
	objects := NoObjects
	if len(objectNames) > 0 {
		objects = strings.Join(objectNames, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Objects detected in the image: %s\n", objects)
	fmt.Fprintf(&sb, "Text found in the image: %s\n\n", ocrText)
	sb.WriteString("Based on this information, write exactly 3 follow-up questions a user might ask about the image, ")
	sb.WriteString("each with a short answer. Use exactly this format and nothing else:\n")
	sb.WriteString("- Question: <question>\n")
	sb.WriteString("  Answer: <answer>\n")
	return sb.String()
}
