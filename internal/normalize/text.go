package normalize

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const lineColumn = "line"

// decodeText honours a UTF-8 or UTF-16 byte order mark and drops byte
// sequences that are not valid UTF-8.
func decodeText(data []byte) string {
	decoder := unicode.BOMOverride(encoding.Nop.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		out = data
	}
	return strings.ToValidUTF8(string(out), "")
}

// parseLines keeps every non-blank line, trimmed, as a row of the single
// column "line".
func parseLines(data []byte) ([]string, [][]any) {
	rows := make([][]any, 0)
	for _, line := range splitLines(decodeText(data)) {
		if line = strings.TrimSpace(line); line != "" {
			rows = append(rows, []any{line})
		}
	}
	return []string{lineColumn}, rows
}

func splitLines(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
			return true
		}
		return false
	})
}
