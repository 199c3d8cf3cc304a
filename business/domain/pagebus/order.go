package pagebus

import "github.com/nssmahe/portal/business/sdk/order"

// DefaultOrderBy represents the default way we sort.
var DefaultOrderBy = order.NewBy(OrderByTitle, order.ASC)

// Set of fields that the results can be ordered by.
const (
	OrderByID        = "a"
	OrderByTitle     = "b"
	OrderBySlug      = "c"
	OrderByCreatedAt = "d"
)
