package persistence

import (
	"strings"

	"github.com/merch/byom/internal/domain/shared"
)

// designSortColumns are the designs columns a listing may be ordered by.
// Anything else falls back to the newest first order.
var designSortColumns = map[string]struct{}{
	"id":           {},
	"name":         {},
	"status":       {},
	"merch_type":   {},
	"created_at":   {},
	"updated_at":   {},
	"submitted_at": {},
	"reviewed_at":  {},
}

// designOrder builds the ORDER BY expression for a design listing. Only
// whitelisted column names reach the SQL string.
func designOrder(filter shared.Filter) string {
	column := strings.TrimSpace(filter.OrderBy)
	if _, ok := designSortColumns[column]; !ok {
		column = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(filter.OrderDir), "asc") {
		dir = "ASC"
	}
	return column + " " + dir
}
