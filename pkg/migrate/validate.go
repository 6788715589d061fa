package migrate

import (
	"fmt"
	"io/fs"
	"regexp"
	"strings"
)

var migrationName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// goose annotations every migration must carry. StatementBegin/End must pair.
const (
	markUp    = "-- +goose Up"
	markDown  = "-- +goose Down"
	markBegin = "-- +goose StatementBegin"
	markEnd   = "-- +goose StatementEnd"
)

// ValidateDir checks every .sql file in dir for a YYYYMMDDHHMMSS_name.sql
// filename, a unique version and balanced goose annotations.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("migrations dir is required")
	}
	fsys, err := Migrations(dir)
	if err != nil {
		return err
	}
	return validateFS(fsys, dir)
}

func validateFS(fsys fs.FS, label string) error {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list %s: %w", label, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations found in %s", label)
	}

	versions := make(map[string]string, len(files))
	for _, name := range files {
		m := migrationName.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("%s: filename must look like YYYYMMDDHHMMSS_name.sql", name)
		}
		if prev, dup := versions[m[1]]; dup {
			return fmt.Errorf("%s: version %s already used by %s", name, m[1], prev)
		}
		versions[m[1]] = name

		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := checkAnnotations(string(raw)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func checkAnnotations(sql string) error {
	up := strings.Index(sql, markUp)
	down := strings.Index(sql, markDown)
	switch {
	case up < 0:
		return fmt.Errorf("missing %q", markUp)
	case down < 0:
		return fmt.Errorf("missing %q", markDown)
	case down < up:
		return fmt.Errorf("%q must come before %q", markUp, markDown)
	}
	if begins, ends := strings.Count(sql, markBegin), strings.Count(sql, markEnd); begins != ends {
		return fmt.Errorf("%d StatementBegin vs %d StatementEnd", begins, ends)
	}
	return nil
}
