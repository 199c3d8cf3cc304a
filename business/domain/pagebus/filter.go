package pagebus

import (
	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/slug"
)

// FieldSlug filters pages on their slug.
const FieldSlug = "slug"

// QueryFilter holds the available fields a query can be filtered on.
type QueryFilter struct {
	TenantID *uuid.UUID
	Slug     *slug.Slug
}

// Clause converts the filter into a where clause.
func (qf QueryFilter) Clause() where.Clause {
	var cs []where.Clause

	if qf.TenantID != nil {
		cs = append(cs, where.Equals(where.Tenant, *qf.TenantID))
	}

	if qf.Slug != nil {
		cs = append(cs, where.Equals(FieldSlug, *qf.Slug))
	}

	if len(cs) == 0 {
		return where.All()
	}

	return where.And(cs...)
}
