package store

import (
	"fmt"
	"strconv"
	"strings"
)

type columnKind int

const (
	kindText columnKind = iota
	kindInteger
	kindReal
)

// inferKinds picks, per column, the narrowest of integer, real and text that
// every non-nil cell parses as. Columns with only nil cells are text.
func inferKinds(columns int, rows [][]any) []columnKind {
	kinds := make([]columnKind, columns)
	for c := range kinds {
		kinds[c] = inferKind(rows, c)
	}
	return kinds
}

func inferKind(rows [][]any, column int) columnKind {
	kind := kindInteger
	seen := false
	for _, row := range rows {
		value, ok := cellText(row[column])
		if !ok {
			continue
		}
		seen = true
		if !isNumeric(value) {
			return kindText
		}
		if kind == kindInteger {
			if _, err := strconv.ParseInt(value, 10, 64); err == nil {
				continue
			}
			kind = kindReal
		}
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return kindText
		}
	}
	if !seen {
		return kindText
	}
	return kind
}

// isNumeric accepts plain decimal notation only, so that strings such as
// "NaN", "Inf", "1e5" or "0x1F" stay text.
func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
		case r == '.', r == '-', r == '+':
		default:
			return false
		}
	}
	return true
}

func cellText(value any) (string, bool) {
	switch typed := value.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(typed), true
	case []byte:
		return strings.TrimSpace(string(typed)), true
	default:
		return fmt.Sprint(typed), true
	}
}

func convertCell(value any, kind columnKind) (any, error) {
	text, ok := cellText(value)
	if !ok {
		return nil, nil
	}
	switch kind {
	case kindInteger:
		return strconv.ParseInt(text, 10, 64)
	case kindReal:
		return strconv.ParseFloat(text, 64)
	default:
		if raw, isString := value.(string); isString {
			return raw, nil
		}
		return text, nil
	}
}
