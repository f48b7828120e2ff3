package persistence

import (
	"strings"

	"gorm.io/gorm"

	"github.com/openmarket/backend/internal/domain/shared"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed
// fields. Returns the defaultField if the input is empty or not whitelisted.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// InventorySortFields contains allowed sort fields for inventory records
var InventorySortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"product_name": true,
	"unit_price":   true,
	"list_price":   true,
	"stock_qty":    true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"order_number": true,
	"status":       true,
	"total_amount": true,
	"delivered_at": true,
}

// ProxyOrderSortFields contains allowed sort fields for proxy orders
var ProxyOrderSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"product_name": true,
	"status":       true,
	"total_amount": true,
	"approved_at":  true,
	"delivered_at": true,
}

// StoreSortFields contains allowed sort fields for stores
var StoreSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"type":       true,
}

// applyFilter applies ordering and pagination from a shared.Filter. The sort
// column is checked against the allowed set before it reaches the query.
func applyFilter(query *gorm.DB, filter shared.Filter, allowedSortFields map[string]bool) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowedSortFields, "created_at")
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query
}
