package where

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Column describes how a record field is stored. Expr is the column
// expression used in comparisons. When Subquery is set the field is
// multi-valued and the comparison is wrapped by it; the subquery must
// contain a single %s verb for the rendered comparison. Type is the postgres
// element type used to cast array parameters, text when empty.
type Column struct {
	Expr     string
	Subquery string
	Type     string
}

// Columns maps record fields to their storage.
type Columns map[string]Column

// SQL renders the clause as a boolean SQL expression using named parameters.
// The parameter values are added to data.
func SQL(c Clause, cols Columns, data map[string]any) (string, error) {
	r := renderer{cols: cols, data: data}
	return r.render(c)
}

type renderer struct {
	cols Columns
	data map[string]any
	n    int
}

func (r *renderer) param(v any) string {
	r.n++
	name := fmt.Sprintf("where_%d", r.n)
	for {
		if _, exists := r.data[name]; !exists {
			break
		}
		r.n++
		name = fmt.Sprintf("where_%d", r.n)
	}

	r.data[name] = v
	return ":" + name
}

func (r *renderer) column(field string) (Column, error) {
	col, exists := r.cols[field]
	if !exists {
		return Column{}, fmt.Errorf("unknown field %q", field)
	}
	return col, nil
}

func (r *renderer) render(c Clause) (string, error) {
	switch c.op {
	case opAll:
		return "TRUE", nil

	case opNone:
		return "FALSE", nil

	case opEquals, opGreaterThan:
		col, err := r.column(c.field)
		if err != nil {
			return "", err
		}

		operator := "="
		if c.op == opGreaterThan {
			operator = ">"
		}

		cmp := fmt.Sprintf("%s %s %s", col.Expr, operator, r.param(sqlValue(c.values[0])))
		return wrap(col, cmp), nil

	case opIn:
		if len(c.values) == 0 {
			return "FALSE", nil
		}

		col, err := r.column(c.field)
		if err != nil {
			return "", err
		}

		vs := make([]string, len(c.values))
		for i, v := range c.values {
			vs[i] = fmt.Sprint(normalize(v))
		}

		typ := col.Type
		if typ == "" {
			typ = "text"
		}

		cmp := fmt.Sprintf("%s = ANY(CAST(%s AS %s[]))", col.Expr, r.param(pq.Array(vs)), typ)
		return wrap(col, cmp), nil

	case opAnd, opOr:
		if len(c.clauses) == 0 {
			if c.op == opAnd {
				return "TRUE", nil
			}
			return "FALSE", nil
		}

		sep := " AND "
		if c.op == opOr {
			sep = " OR "
		}

		parts := make([]string, len(c.clauses))
		for i, sub := range c.clauses {
			s, err := r.render(sub)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}

		return "(" + strings.Join(parts, sep) + ")", nil
	}

	return "", fmt.Errorf("unknown clause operator %d", c.op)
}

func wrap(col Column, cmp string) string {
	if col.Subquery == "" {
		return cmp
	}
	return fmt.Sprintf(col.Subquery, cmp)
}

func sqlValue(v any) any {
	switch x := normalize(v).(type) {
	case time.Time:
		return x.UTC()
	default:
		return x
	}
}
