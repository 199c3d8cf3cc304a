package tenantapp

import (
	"net/http"
	"strconv"

	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/sdk/where"
)

type queryParams struct {
	Page    string
	Rows    string
	OrderBy string
	Public  string
}

func parseQueryParams(r *http.Request) queryParams {
	values := r.URL.Query()

	return queryParams{
		Page:    values.Get("page"),
		Rows:    values.Get("rows"),
		OrderBy: values.Get("orderBy"),
		Public:  values.Get("public"),
	}
}

func parseFilter(qp queryParams) (where.Clause, error) {
	if qp.Public == "" {
		return where.All(), nil
	}

	public, err := strconv.ParseBool(qp.Public)
	if err != nil {
		return where.Clause{}, errs.NewFieldErrors("public", err)
	}

	return where.Equals(tenantbus.FieldPublic, public), nil
}
