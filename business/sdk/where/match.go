package where

import "time"

// Record exposes the values of a record's fields. Multi-valued fields, such as
// the set of tenants a user belongs to, return every value; a missing or null
// field returns none.
type Record interface {
	FieldValues(field string) []any
}

// Match evaluates the clause against a single record.
func Match(c Clause, r Record) bool {
	switch c.op {
	case opAll:
		return true

	case opNone:
		return false

	case opEquals:
		return anyValue(r.FieldValues(c.field), func(v any) bool {
			return equal(v, c.values[0])
		})

	case opIn:
		return anyValue(r.FieldValues(c.field), func(v any) bool {
			for _, want := range c.values {
				if equal(v, want) {
					return true
				}
			}
			return false
		})

	case opGreaterThan:
		return anyValue(r.FieldValues(c.field), func(v any) bool {
			return greater(v, c.values[0])
		})

	case opAnd:
		for _, sub := range c.clauses {
			if !Match(sub, r) {
				return false
			}
		}
		return true

	case opOr:
		for _, sub := range c.clauses {
			if Match(sub, r) {
				return true
			}
		}
		return false
	}

	return false
}

func anyValue(values []any, fn func(v any) bool) bool {
	for _, v := range values {
		if v == nil {
			continue
		}
		if fn(v) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	na, nb := normalize(a), normalize(b)
	if na == nil || nb == nil {
		return false
	}

	ta, aok := na.(time.Time)
	tb, bok := nb.(time.Time)
	if aok && bok {
		return ta.Equal(tb)
	}

	return na == nb
}

func greater(a, b any) bool {
	switch x := normalize(a).(type) {
	case time.Time:
		y, ok := normalize(b).(time.Time)
		return ok && x.After(y)
	case int:
		y, ok := normalize(b).(int)
		return ok && x > y
	case int64:
		y, ok := normalize(b).(int64)
		return ok && x > y
	case float64:
		y, ok := normalize(b).(float64)
		return ok && x > y
	case string:
		y, ok := normalize(b).(string)
		return ok && x > y
	}

	return false
}
