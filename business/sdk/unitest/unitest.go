// Package unitest provides in-memory collaborators for business layer tests.
package unitest

import (
	"io"
	"sort"

	"github.com/nssmahe/portal/business/sdk/order"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/foundation/logger"
)

// Logger returns a logger that discards everything.
func Logger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "TEST", nil)
}

// paginate sorts items with the comparator for orderBy.Field and returns the
// requested page.
func paginate[T any](items []T, less map[string]func(a, b T) bool, orderBy order.By, pg page.Page) []T {
	if fn, exists := less[orderBy.Field]; exists {
		sort.SliceStable(items, func(i, j int) bool {
			if orderBy.Direction == order.DESC {
				return fn(items[j], items[i])
			}
			return fn(items[i], items[j])
		})
	}

	start := pg.Offset()
	if start > len(items) {
		start = len(items)
	}

	end := start + pg.RowsPerPage()
	if end > len(items) {
		end = len(items)
	}

	return items[start:end]
}
