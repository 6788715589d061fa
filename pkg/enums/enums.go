// Package enums holds the closed string sets persisted on orders, payments,
// shipments and notifications. Values match the database and the wire exactly.
package enums

import (
	"fmt"
	"slices"
	"strings"
)

type set[T ~string] []T

func (s set[T]) has(v T) bool {
	return slices.Contains(s, v)
}

func (s set[T]) parse(kind, raw string) (T, error) {
	if v := T(raw); s.has(v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}

// parseFold matches ignoring case and surrounding space, returning the
// canonical spelling.
func (s set[T]) parseFold(kind, raw string) (T, error) {
	trimmed := strings.TrimSpace(raw)
	for _, v := range s {
		if strings.EqualFold(string(v), trimmed) {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}
