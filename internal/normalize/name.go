package normalize

import "strings"

// TableName derives a SQL-safe table name from a file name: the extension is
// dropped, every character outside [A-Za-z0-9_] becomes '_', and the result
// is lowercased. Applying it to its own output returns the same value.
func TableName(fileName string) string {
	stem := stripExtension(fileName)
	var b strings.Builder
	b.Grow(len(stem))
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// stripExtension removes the final ".ext" of the last path element. Leading
// dots of the base name never start an extension, so ".env" has none.
func stripExtension(name string) string {
	base := name[strings.LastIndex(name, "/")+1:]
	dot := strings.LastIndex(base, ".")
	if dot <= 0 || strings.Trim(base[:dot], ".") == "" {
		return name
	}
	return name[:len(name)-len(base)+dot]
}
