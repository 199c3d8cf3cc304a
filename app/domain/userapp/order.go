package userapp

import (
	"github.com/nssmahe/portal/business/domain/userbus"
)

var orderByFields = map[string]string{
	"user_id":    userbus.OrderByID,
	"name":       userbus.OrderByName,
	"email":      userbus.OrderByEmail,
	"status":     userbus.OrderByStatus,
	"created_at": userbus.OrderByCreatedAt,
}
