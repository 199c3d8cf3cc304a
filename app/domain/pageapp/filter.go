package pageapp

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/business/domain/pagebus"
	"github.com/nssmahe/portal/business/types/slug"
)

type queryParams struct {
	Page     string
	Rows     string
	OrderBy  string
	TenantID string
	Slug     string
}

func parseQueryParams(r *http.Request) queryParams {
	values := r.URL.Query()

	return queryParams{
		Page:     values.Get("page"),
		Rows:     values.Get("rows"),
		OrderBy:  values.Get("orderBy"),
		TenantID: values.Get("tenant_id"),
		Slug:     values.Get("slug"),
	}
}

func parseFilter(qp queryParams) (pagebus.QueryFilter, error) {
	var fieldErrors errs.FieldErrors
	var filter pagebus.QueryFilter

	if qp.TenantID != "" {
		id, err := uuid.Parse(qp.TenantID)
		switch err {
		case nil:
			filter.TenantID = &id
		default:
			fieldErrors.Add("tenant_id", err)
		}
	}

	if qp.Slug != "" {
		s, err := slug.Parse(qp.Slug)
		switch err {
		case nil:
			filter.Slug = &s
		default:
			fieldErrors.Add("slug", err)
		}
	}

	if fieldErrors != nil {
		return pagebus.QueryFilter{}, fieldErrors.ToError()
	}

	return filter, nil
}
