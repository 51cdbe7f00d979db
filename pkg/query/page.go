package query

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/propgraph/propgraph/pkg/store/gormstore"
)

// Request is the list envelope: a sparse filter plus pagination and sort.
type Request struct {
	Filter    map[string]interface{} `json:"filter"`
	Page      int                    `json:"page"`
	Limit     int                    `json:"limit"`
	SortBy    string                 `json:"sortBy"`
	SortOrder string                 `json:"sortOrder"`
}

// Page is one page of results.
type Page[T any] struct {
	Data       []T   `json:"data"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int64 `json:"totalPages"`
	PageNumber int   `json:"pageNumber"`
}

// Clamp raises page and limit to at least 1 and caps limit at maxLimit when
// maxLimit is positive.
func (r *Request) Clamp(maxLimit int) {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = 1
	}
	if maxLimit > 0 && r.Limit > maxLimit {
		r.Limit = maxLimit
	}
}

// OrderClause returns the ORDER BY text. An empty sortBy sorts by creation
// time; an unknown one leaves only the id tiebreak.
func (r *Rules) OrderClause(sortBy, sortOrder string) string {
	direction := "DESC"
	if strings.EqualFold(strings.TrimSpace(sortOrder), "asc") {
		direction = "ASC"
	}
	if sortBy == "" {
		sortBy = "createdAt"
	}
	column := r.SortColumn(sortBy)
	if column == "" || column == "id" {
		return "id " + direction
	}
	return column + " " + direction + ", id " + direction
}

func Where(preds []Predicate) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, p := range preds {
			db = db.Where(p.SQL, p.Args...)
		}
		return db
	}
}

// List runs req against the collection described by rules.
func List[T any](ctx context.Context, db *gorm.DB, rules *Rules, req Request, maxLimit int) (*Page[T], error) {
	req.Clamp(maxLimit)

	preds, err := rules.Build(req.Filter)
	if err != nil {
		return nil, err
	}

	var total int64
	if len(preds) == 0 {
		total, err = gormstore.EstimateCount(ctx, db, rules.Table)
	} else {
		err = db.WithContext(ctx).Model(new(T)).Scopes(Where(preds)).Count(&total).Error
	}
	if err != nil {
		return nil, err
	}

	data := make([]T, 0, req.Limit)
	err = db.WithContext(ctx).
		Scopes(Where(preds)).
		Order(rules.OrderClause(req.SortBy, req.SortOrder)).
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&data).Error
	if err != nil {
		return nil, err
	}

	return &Page[T]{
		Data:       data,
		TotalCount: total,
		TotalPages: (total + int64(req.Limit) - 1) / int64(req.Limit),
		PageNumber: req.Page,
	}, nil
}
