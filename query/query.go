// Package query turns an HTTP query string into a filtered, sorted,
// paginated and projected database query.
//
//	GET /api/v1/tours?duration[gte]=5&difficulty=easy&sort=-price,ratingsAverage&fields=name,price&page=2&limit=10
package query

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"natours/errs"
	"natours/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
	DefaultSort  = "-createdAt"
)

type Kind int

const (
	String Kind = iota
	Number
	Bool
	Time
)

type Field struct {
	Column string
	Kind   Kind
	// Repeatable fields may be given several times and then match any of
	// the values. Every other field keeps only its last value.
	Repeatable bool
}

// FieldMap lists the public (JSON) names a resource can be queried by
type FieldMap map[string]Field

var (
	reserved = map[string]bool{"page": true, "sort": true, "limit": true, "fields": true}

	operators = map[string]string{"gte": ">=", "gt": ">", "lte": "<=", "lt": "<"}

	filterKey = regexp.MustCompile(`^([A-Za-z0-9_.]+)(?:\[(gte|gt|lte|lt)\])?$`)
	fieldName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

type condition struct {
	column   string
	operator string
	values   []interface{}
}

type order struct {
	column string
	desc   bool
}

type Features struct {
	conditions []condition
	orders     []order
	fields     []string
	excluded   []string
	Page       int
	Limit      int
}

// Parse reads filters, sort, fields and pagination from values. Unknown
// fields are ignored, malformed values of known fields are rejected.
func Parse(values url.Values, fields FieldMap) (*Features, error) {
	f := &Features{Page: DefaultPage, Limit: DefaultLimit}
	for key, raw := range values {
		if reserved[key] || len(raw) == 0 {
			continue
		}
		m := filterKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		field, ok := fields[m[1]]
		if !ok {
			continue
		}
		if !field.Repeatable {
			raw = raw[len(raw)-1:]
		}
		cond := condition{column: field.Column, operator: "="}
		if m[2] != "" {
			cond.operator = operators[m[2]]
			// ranges make no sense with a list
			raw = raw[len(raw)-1:]
		}
		for _, r := range raw {
			v, err := convert(field.Kind, r)
			if err != nil {
				return nil, errs.InvalidID(m[1], r)
			}
			cond.values = append(cond.values, v)
		}
		f.conditions = append(f.conditions, cond)
	}

	sortBy := last(values, "sort")
	if sortBy == "" {
		sortBy = DefaultSort
	}
	for _, name := range utils.SplitList(sortBy) {
		desc := strings.HasPrefix(name, "-")
		if field, ok := fields[strings.TrimPrefix(name, "-")]; ok {
			f.orders = append(f.orders, order{column: field.Column, desc: desc})
		}
	}

	// "-name" hides a field; once a field is named the list is a selection
	// and exclusions are ignored
	for _, name := range utils.SplitList(last(values, "fields")) {
		if excluded := strings.TrimPrefix(name, "-"); excluded != name {
			if excluded != "id" && fieldName.MatchString(excluded) {
				f.excluded = append(f.excluded, excluded)
			}
			continue
		}
		if _, ok := fields[name]; ok || name == "id" {
			f.fields = append(f.fields, name)
		}
	}
	if len(f.fields) > 0 {
		f.excluded = nil
	}

	if page, err := strconv.Atoi(last(values, "page")); err == nil && page > 0 {
		f.Page = page
	}
	if limit, err := strconv.Atoi(last(values, "limit")); err == nil && limit > 0 {
		f.Limit = limit
	}
	return f, nil
}

// Skip is the number of documents before the current page
func (f *Features) Skip() int {
	return (f.Page - 1) * f.Limit
}

// Fields returns the requested projection, nil meaning everything
func (f *Features) Fields() []string {
	return f.fields
}

// Excluded returns the fields hidden with "-name"
func (f *Features) Excluded() []string {
	return f.excluded
}

// Apply adds filter, sort and pagination to tx
func (f *Features) Apply(tx *gorm.DB) *gorm.DB {
	tx = f.Filter(tx)
	for _, o := range f.orders {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: o.column}, Desc: o.desc})
	}
	// stable pages
	tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}})
	return tx.Offset(f.Skip()).Limit(f.Limit)
}

// Filter adds only the filter conditions to tx
func (f *Features) Filter(tx *gorm.DB) *gorm.DB {
	for _, c := range f.conditions {
		column := clause.Column{Table: clause.CurrentTable, Name: c.column}
		if len(c.values) > 1 {
			tx = tx.Where(clause.IN{Column: column, Values: c.values})
			continue
		}
		tx = tx.Where(clause.Expr{SQL: fmt.Sprintf("? %s ?", c.operator), Vars: []interface{}{column, c.values[0]}})
	}
	return tx
}

func convert(kind Kind, raw string) (interface{}, error) {
	switch kind {
	case Number:
		return strconv.ParseFloat(raw, 64)
	case Bool:
		return strconv.ParseBool(raw)
	case Time:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, nil
		}
		return time.Parse("2006-01-02", raw)
	}
	return raw, nil
}

func last(values url.Values, key string) string {
	v := values[key]
	if len(v) == 0 {
		return ""
	}
	return v[len(v)-1]
}
