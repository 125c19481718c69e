package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// PrintJSON outputs data as indented JSON to stdout.
func PrintJSON(data interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Truncate shortens a string to maxLen, appending an ellipsis when cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// confidenceBar renders a fixed-width bar proportional to a confidence
// score in [0, 1], e.g. confidenceBar(0.8, 10) -> "[########..]".
func confidenceBar(confidence float32, width int) string {
	switch {
	case confidence < 0:
		confidence = 0
	case confidence > 1:
		confidence = 1
	}
	filled := int(confidence*float32(width) + 0.5)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

// PrintResults renders query hits in rank order, each with a confidence
// bar rather than a bare numeric column, since confidence is a [0, 1]
// score and a bar reads faster at a glance than four decimal digits.
func PrintResults(results []QueryResult) {
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, r := range results {
		fmt.Printf("%2d. %s %.4f  %s\n", i+1, confidenceBar(r.Confidence, 10), r.Confidence, Truncate(r.Content, 70))
		fmt.Printf("    id: %s\n", r.ID)
	}
}

// PrintKeyValue prints label/value pairs in the given order, right-aligned
// on the longest label. Ordered pairs rather than a map since display
// order matters and map iteration order does not preserve it.
func PrintKeyValue(pairs [][2]string) {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}
	for _, p := range pairs {
		fmt.Printf("%-*s  %s\n", width+1, p[0]+":", p[1])
	}
}
