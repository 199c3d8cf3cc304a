package accessbus

import "github.com/nssmahe/portal/business/sdk/where"

type kind int

const (
	kindDenied kind = iota
	kindAllowedAll
	kindAllowedIf
)

// Grant is the outcome of an access decision.
type Grant struct {
	kind   kind
	clause where.Clause
}

// The two unconditional grants.
var (
	Denied     = Grant{kind: kindDenied}
	AllowedAll = Grant{kind: kindAllowedAll}
)

// AllowedIf returns a grant that allows the records matching c.
func AllowedIf(c where.Clause) Grant {
	return Grant{kind: kindAllowedIf, clause: c}
}

// IsDenied reports whether the grant can never allow a record.
func (g Grant) IsDenied() bool {
	switch g.kind {
	case kindDenied:
		return true
	case kindAllowedIf:
		return g.clause.IsNone()
	}
	return false
}

// IsAllowedAll reports whether the grant is unconditional.
func (g Grant) IsAllowedAll() bool {
	return g.kind == kindAllowedAll
}

// Allows evaluates the grant against a single record.
func (g Grant) Allows(r where.Record) bool {
	switch g.kind {
	case kindAllowedAll:
		return true
	case kindAllowedIf:
		return where.Match(g.clause, r)
	}
	return false
}

// Filter returns the row filter a find must apply. The boolean is false for
// AllowedAll, when no filter is needed.
func (g Grant) Filter() (where.Clause, bool) {
	switch g.kind {
	case kindAllowedAll:
		return where.All(), false
	case kindAllowedIf:
		return g.clause, true
	}
	return where.None(), true
}

// Narrow intersects the grant with c. It never widens the grant.
func (g Grant) Narrow(c where.Clause) Grant {
	switch g.kind {
	case kindAllowedAll:
		return AllowedIf(c)
	case kindAllowedIf:
		return AllowedIf(where.And(g.clause, c))
	}
	return Denied
}

// Scope combines the grant with a caller supplied filter for a find.
func (g Grant) Scope(filter where.Clause) where.Clause {
	c, ok := g.Filter()
	if !ok {
		return filter
	}

	if filter.IsAll() {
		return c
	}

	return where.And(c, filter)
}

// String renders the grant for logs.
func (g Grant) String() string {
	switch g.kind {
	case kindAllowedAll:
		return "ALLOWED_ALL"
	case kindAllowedIf:
		return "ALLOWED_IF " + g.clause.String()
	}
	return "DENIED"
}

// MarshalText provides support for logging and any marshal needs.
func (g Grant) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}
