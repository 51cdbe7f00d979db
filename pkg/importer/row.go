package importer

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/propgraph/propgraph/pkg/errs"
)

// Row is one data row with its cells grouped by field. A field fed by
// several columns keeps every value in column order.
type Row struct {
	Number int
	fields map[string][]string
}

func newRow(number int, cells, headers []string, m *HeaderMap) (Row, bool) {
	row := Row{Number: number, fields: make(map[string][]string)}
	blank := true
	for i, header := range headers {
		field, ok := m.Lookup(header)
		if !ok {
			continue
		}
		value := strings.TrimSpace(cells[i])
		if value != "" {
			blank = false
		}
		row.fields[field] = append(row.fields[field], value)
	}
	return row, !blank
}

func (r Row) Text(field string) string {
	for _, v := range r.fields[field] {
		if v != "" {
			return v
		}
	}
	return ""
}

// List splits every column of field on commas and drops empty parts.
func (r Row) List(field string) []string {
	var out []string
	for _, v := range r.fields[field] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (r Row) Missing(required []string) []string {
	var missing []string
	for _, field := range required {
		if r.Text(field) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// reader coerces cells and accumulates every conversion failure of a row.
type reader struct {
	row  Row
	errs errs.ValidationErrors
}

func (r *reader) text(field string) string {
	return r.row.Text(field)
}

func (r *reader) list(field string) []string {
	return r.row.List(field)
}

func (r *reader) float(field string) float64 {
	raw := numeric(r.row.Text(field))
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		r.fail(field, "%q is not a number", r.row.Text(field))
		return 0
	}
	return f
}

func (r *reader) int(field string) int {
	f := r.float(field)
	if f != float64(int(f)) {
		r.fail(field, "%q is not a whole number", r.row.Text(field))
		return 0
	}
	return int(f)
}

func (r *reader) decimal(field string) decimal.Decimal {
	raw := numeric(r.row.Text(field))
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		r.fail(field, "%q is not a number", r.row.Text(field))
		return decimal.Zero
	}
	return d
}

func (r *reader) fail(field, format string, args ...interface{}) {
	r.errs = append(r.errs, errs.Invalid(field, format, args...).(*errs.ValidationError))
}

func (r *reader) err() error {
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs
}

var numericCleaner = strings.NewReplacer(",", "", " ", "", "%", "")

// numeric drops thousands separators and percent signs.
func numeric(raw string) string {
	return numericCleaner.Replace(strings.TrimSpace(raw))
}
