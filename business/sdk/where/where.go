// Package where provides a small filter language shared by the access engine
// and the record stores. A Clause can be rendered to SQL for finds or
// evaluated in memory against a single record.
package where

import (
	"fmt"
	"time"
)

// Field names shared by every record type that carries tenant scoping.
const (
	ID           = "id"
	Tenant       = "tenant"
	TenantPublic = "tenant_public"
)

type op int

const (
	opAll op = iota
	opNone
	opEquals
	opIn
	opGreaterThan
	opAnd
	opOr
)

// Clause is a predicate over the fields of a record. The zero value matches
// every record.
type Clause struct {
	op      op
	field   string
	values  []any
	clauses []Clause
}

// All returns a clause that matches every record.
func All() Clause {
	return Clause{op: opAll}
}

// None returns a clause that matches no record.
func None() Clause {
	return Clause{op: opNone}
}

// Equals matches records where field equals value.
func Equals(field string, value any) Clause {
	return Clause{op: opEquals, field: field, values: []any{value}}
}

// In matches records where field equals any of values. An empty set matches
// no record.
func In[T any](field string, values []T) Clause {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}

	return Clause{op: opIn, field: field, values: vs}
}

// GreaterThan matches records where field is strictly greater than value.
func GreaterThan(field string, value any) Clause {
	return Clause{op: opGreaterThan, field: field, values: []any{value}}
}

// And matches records satisfying every clause.
func And(clauses ...Clause) Clause {
	return Clause{op: opAnd, clauses: clauses}
}

// Or matches records satisfying at least one clause.
func Or(clauses ...Clause) Clause {
	return Clause{op: opOr, clauses: clauses}
}

// IsAll reports whether the clause is the unconditional match.
func (c Clause) IsAll() bool {
	return c.op == opAll
}

// IsNone reports whether the clause can be proven to match nothing without
// looking at any record.
func (c Clause) IsNone() bool {
	switch c.op {
	case opNone:
		return true

	case opIn:
		return len(c.values) == 0

	case opAnd:
		for _, sub := range c.clauses {
			if sub.IsNone() {
				return true
			}
		}
		return false

	case opOr:
		for _, sub := range c.clauses {
			if !sub.IsNone() {
				return false
			}
		}
		return true
	}

	return false
}

// String renders a readable form of the clause for logs.
func (c Clause) String() string {
	switch c.op {
	case opAll:
		return "ALL"
	case opNone:
		return "NONE"
	case opEquals:
		return fmt.Sprintf("%s = %v", c.field, normalize(c.values[0]))
	case opIn:
		vs := make([]any, len(c.values))
		for i, v := range c.values {
			vs[i] = normalize(v)
		}
		return fmt.Sprintf("%s IN %v", c.field, vs)
	case opGreaterThan:
		return fmt.Sprintf("%s > %v", c.field, normalize(c.values[0]))
	case opAnd, opOr:
		sep := " AND "
		if c.op == opOr {
			sep = " OR "
		}
		s := "("
		for i, sub := range c.clauses {
			if i > 0 {
				s += sep
			}
			s += sub.String()
		}
		return s + ")"
	}

	return "?"
}

// MarshalText provides support for logging and any marshal needs.
func (c Clause) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// =============================================================================

// normalize reduces values to comparable primitives so that typed values such
// as uuid.UUID and the enumerations in business/types compare by their string
// form.
func normalize(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int, int64, float64:
		return x
	case time.Time:
		return x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case fmt.Stringer:
		return x.String()
	}

	return v
}
