package tenantapp

import (
	"github.com/nssmahe/portal/business/domain/tenantbus"
)

var orderByFields = map[string]string{
	"tenant_id":  tenantbus.OrderByID,
	"name":       tenantbus.OrderByName,
	"slug":       tenantbus.OrderBySlug,
	"created_at": tenantbus.OrderByCreatedAt,
}
