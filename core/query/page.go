// Package query holds the base-filter and paging helpers shared by the job,
// lock and subscription managers.
package query

import (
	"slices"
	"strings"

	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/core/orcherr"
)

// DefaultPageSize is used when a request does not specify a size.
const DefaultPageSize = 100

// Comparator orders two items for one sortable column.
type Comparator[T any] func(a, b T) int

// Sorter maps the allow-listed sort fields of an entity to comparators.
type Sorter[T any] struct {
	Default string
	Fields  map[string]Comparator[T]
}

// Check rejects unknown sort fields and directions before any query runs.
func (s Sorter[T]) Check(origin string, req model.PageRequest) error {
	if req.SortField != "" {
		if _, ok := s.Fields[req.SortField]; !ok {
			return orcherr.InvalidParameter(origin, "Sortable field with reference '%s' is not available", req.SortField)
		}
	}
	switch strings.ToUpper(req.Direction) {
	case "", model.SortAsc, model.SortDesc:
	default:
		return orcherr.InvalidParameter(origin, "Invalid sort direction: %s", req.Direction)
	}
	if req.Page < 0 || req.Size < 0 {
		return orcherr.InvalidParameter(origin, "Page and size must not be negative")
	}
	return nil
}

// Paginate sorts items in place and returns the requested page.
func (s Sorter[T]) Paginate(items []T, req model.PageRequest) model.Page[T] {
	field := req.SortField
	if field == "" {
		field = s.Default
	}
	if cmp, ok := s.Fields[field]; ok {
		desc := strings.EqualFold(req.Direction, model.SortDesc)
		slices.SortStableFunc(items, func(a, b T) int {
			if desc {
				return cmp(b, a)
			}
			return cmp(a, b)
		})
	}
	size := req.Size
	if size == 0 {
		size = DefaultPageSize
	}
	// Division keeps huge page or size values from overflowing.
	if len(items) == 0 || req.Page > (len(items)-1)/size {
		return model.Page[T]{Items: []T{}, Total: len(items)}
	}
	start := req.Page * size
	end := start + min(size, len(items)-start)
	page := append([]T(nil), items[start:end]...)
	return model.Page[T]{Items: page, Count: len(page), Total: len(items)}
}

// Set builds a membership lookup for a secondary filter. A nil set means the
// criterion was not supplied.
func Set[K comparable](values []K) map[K]struct{} {
	if len(values) == 0 {
		return nil
	}
	m := make(map[K]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

// Match reports whether v satisfies the optional set.
func Match[K comparable](set map[K]struct{}, v K) bool {
	if set == nil {
		return true
	}
	_, ok := set[v]
	return ok
}
