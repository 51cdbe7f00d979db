package query

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/propgraph/propgraph/pkg/errs"
	"github.com/propgraph/propgraph/pkg/model"
)

const (
	startDateKey = "startDate"
	endDateKey   = "endDate"
)

// Predicate is one WHERE clause with its bind arguments.
type Predicate struct {
	SQL  string
	Args []interface{}
}

// Build translates a sparse filter into predicates. Only keys present in the
// rule table (plus startDate/endDate) apply; nil, empty strings and empty
// lists are ignored. Predicates come out in key order.
func (r *Rules) Build(filter map[string]interface{}) ([]Predicate, error) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var preds []Predicate
	for _, key := range keys {
		value := filter[key]
		if isEmpty(value) {
			continue
		}

		if key == startDateKey || key == endDateKey {
			p, err := dateBound(key, value)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
			continue
		}

		field, ok := r.Fields[key]
		if !ok {
			continue
		}
		p, ok, err := field.predicate(key, value)
		if err != nil {
			return nil, err
		}
		if ok {
			preds = append(preds, p)
		}
	}
	return preds, nil
}

func (f Field) predicate(key string, value interface{}) (Predicate, bool, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		return rangeBound(f.Column, key, v)
	case []interface{}:
		return f.membership(key, v)
	case []string:
		items := make([]interface{}, len(v))
		for i, s := range v {
			items[i] = s
		}
		return f.membership(key, items)
	case string:
		if strings.Contains(v, ",") {
			parts := strings.Split(v, ",")
			items := make([]interface{}, 0, len(parts))
			for _, part := range parts {
				if part = strings.TrimSpace(part); part != "" {
					items = append(items, part)
				}
			}
			return f.membership(key, items)
		}
		if f.Kind == Search {
			return Predicate{
				SQL:  fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '\\'", f.Column),
				Args: []interface{}{escapeLike(strings.ToLower(strings.TrimSpace(v))) + "%"},
			}, true, nil
		}
	}

	arg, err := f.scalar(key, value)
	if err != nil {
		return Predicate{}, false, err
	}
	return Predicate{SQL: f.Column + " = ?", Args: []interface{}{arg}}, true, nil
}

func (f Field) membership(key string, values []interface{}) (Predicate, bool, error) {
	args := make([]interface{}, 0, len(values))
	for _, v := range values {
		if isEmpty(v) {
			continue
		}
		arg, err := f.scalar(key, v)
		if err != nil {
			return Predicate{}, false, err
		}
		args = append(args, arg)
	}
	if len(args) == 0 {
		return Predicate{}, false, nil
	}
	return Predicate{SQL: f.Column + " IN ?", Args: []interface{}{args}}, true, nil
}

// scalar prepares a single value for comparison with the column.
func (f Field) scalar(key string, value interface{}) (interface{}, error) {
	switch f.Kind {
	case ID:
		s, ok := value.(string)
		if !ok {
			return nil, errs.Invalid(key, "must be an id")
		}
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, errs.Invalid(key, "%q is not a valid id", s)
		}
		return id, nil
	case Range:
		if n, ok := number(value); ok {
			return n, nil
		}
		return nil, errs.Invalid(key, "must be a number")
	}

	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	s = strings.TrimSpace(s)
	if f.Enum != "" {
		if canonical, ok := model.Canonical(f.Enum, s); ok {
			return canonical, nil
		}
	}
	return s, nil
}

func rangeBound(column, key string, bounds map[string]interface{}) (Predicate, bool, error) {
	var clauses []string
	var args []interface{}
	for _, b := range []struct{ name, op string }{{"min", ">="}, {"max", "<="}} {
		raw, ok := bounds[b.name]
		if !ok || isEmpty(raw) {
			continue
		}
		n, ok := number(raw)
		if !ok {
			return Predicate{}, false, errs.Invalid(key, "%s must be a number", b.name)
		}
		clauses = append(clauses, fmt.Sprintf("%s %s ?", column, b.op))
		args = append(args, n)
	}
	if len(clauses) == 0 {
		return Predicate{}, false, nil
	}
	return Predicate{SQL: strings.Join(clauses, " AND "), Args: args}, true, nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// dateBound bounds created_at inclusively. A date-only endDate covers the
// whole day. Bounds are compared in UTC, the zone timestamps are stored in.
func dateBound(key string, value interface{}) (Predicate, error) {
	s, ok := value.(string)
	if !ok {
		return Predicate{}, errs.Invalid(key, "must be a date")
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		t = t.UTC()
		if key == startDateKey {
			return Predicate{SQL: createdColumn + " >= ?", Args: []interface{}{t}}, nil
		}
		if layout == "2006-01-02" {
			return Predicate{SQL: createdColumn + " < ?", Args: []interface{}{t.AddDate(0, 0, 1)}}, nil
		}
		return Predicate{SQL: createdColumn + " <= ?", Args: []interface{}{t}}, nil
	}
	return Predicate{}, errs.Invalid(key, "%q is not a date", s)
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsInf(f, 0) && !math.IsNaN(f)
	}
	return 0, false
}

func isEmpty(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []interface{}:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case map[string]interface{}:
		return len(x) == 0
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
