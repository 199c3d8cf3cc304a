package pageapp

import (
	"github.com/nssmahe/portal/business/domain/pagebus"
)

var orderByFields = map[string]string{
	"page_id":    pagebus.OrderByID,
	"title":      pagebus.OrderByTitle,
	"slug":       pagebus.OrderBySlug,
	"created_at": pagebus.OrderByCreatedAt,
}
