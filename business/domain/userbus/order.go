package userbus

import "github.com/nssmahe/portal/business/sdk/order"

// DefaultOrderBy represents the default way we sort.
var DefaultOrderBy = order.NewBy(OrderByCreatedAt, order.DESC)

// Set of fields that the results can be ordered by.
const (
	OrderByID        = "a"
	OrderByName      = "b"
	OrderByEmail     = "c"
	OrderByStatus    = "d"
	OrderByCreatedAt = "e"
)
