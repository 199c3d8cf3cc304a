package userapp

import (
	"net/http"
	"net/mail"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/types/status"
)

type queryParams struct {
	Page     string
	Rows     string
	OrderBy  string
	ID       string
	Email    string
	Status   string
	TenantID string
}

func parseQueryParams(r *http.Request) queryParams {
	values := r.URL.Query()

	return queryParams{
		Page:     values.Get("page"),
		Rows:     values.Get("rows"),
		OrderBy:  values.Get("orderBy"),
		ID:       values.Get("user_id"),
		Email:    values.Get("email"),
		Status:   values.Get("status"),
		TenantID: values.Get("tenant_id"),
	}
}

func parseFilter(qp queryParams) (userbus.QueryFilter, error) {
	var fieldErrors errs.FieldErrors
	var filter userbus.QueryFilter

	if qp.ID != "" {
		id, err := uuid.Parse(qp.ID)
		switch err {
		case nil:
			filter.ID = &id
		default:
			fieldErrors.Add("user_id", err)
		}
	}

	if qp.Email != "" {
		addr, err := mail.ParseAddress(qp.Email)
		switch err {
		case nil:
			filter.Email = addr
		default:
			fieldErrors.Add("email", err)
		}
	}

	if qp.Status != "" {
		st, err := status.Parse(qp.Status)
		switch err {
		case nil:
			filter.Status = &st
		default:
			fieldErrors.Add("status", err)
		}
	}

	if qp.TenantID != "" {
		id, err := uuid.Parse(qp.TenantID)
		switch err {
		case nil:
			filter.TenantID = &id
		default:
			fieldErrors.Add("tenant_id", err)
		}
	}

	if fieldErrors != nil {
		return userbus.QueryFilter{}, fieldErrors.ToError()
	}

	return filter, nil
}
