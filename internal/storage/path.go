package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

var (
	pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9._-]{0,127}$`)
	fileNameUnsafe       = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
)

// BuildUploadPath returns uploads/<table>/<unix-ms>-<file name> for the raw
// bytes of an uploaded file.
func BuildUploadPath(tableName, fileName string, at time.Time) (string, error) {
	if err := validatePathComponent(tableName, "table name"); err != nil {
		return "", err
	}
	return path.Join(
		"uploads",
		tableName,
		fmt.Sprintf("%d-%s", at.UTC().UnixMilli(), sanitizeFileName(fileName)),
	), nil
}

// BuildTableSnapshotPath returns tables/<table>/<unix-ms>.parquet.
func BuildTableSnapshotPath(tableName string, at time.Time) (string, error) {
	if err := validatePathComponent(tableName, "table name"); err != nil {
		return "", err
	}
	return path.Join(
		"tables",
		tableName,
		fmt.Sprintf("%d.parquet", at.UTC().UnixMilli()),
	), nil
}

func sanitizeFileName(name string) string {
	base := name[strings.LastIndexAny(name, `/\`)+1:]
	base = strings.TrimLeft(fileNameUnsafe.ReplaceAllString(base, "_"), ".")
	if base == "" {
		return "upload"
	}
	if len(base) > 128 {
		base = base[len(base)-128:]
	}
	return base
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
