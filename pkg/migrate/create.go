package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9]+`)

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s: forward DDL
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- %[1]s: reverse DDL
-- +goose StatementEnd
`

// sanitizeName turns a free form description into a snake_case file suffix.
func sanitizeName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	return strings.Trim(unsafeNameChars.ReplaceAllString(lowered, "_"), "_")
}

// CreateSQLMigration writes an empty goose migration named
// <YYYYMMDDHHMMSS>_<name>.sql into dir and returns its path. It refuses to
// create a second migration with the same suffix.
func CreateSQLMigration(dir, name string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("migration dir is required")
	}
	suffix := sanitizeName(name)
	if suffix == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	existing, err := filepath.Glob(filepath.Join(dir, "*_"+suffix+".sql"))
	if err != nil {
		return "", fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(existing) > 0 {
		return "", fmt.Errorf("migration %q already exists as %s", suffix, filepath.Base(existing[0]))
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", time.Now().UTC().Format("20060102150405"), suffix))
	if err := os.WriteFile(path, []byte(fmt.Sprintf(migrationTemplate, suffix)), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
