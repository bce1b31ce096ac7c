package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

// ErrDuplicate is returned when an insert or update hits a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// whereClause accumulates positional conditions for list queries.
type whereClause struct {
	conditions []string
	args       []interface{}
}

func newWhere() *whereClause {
	return &whereClause{conditions: []string{"1=1"}}
}

// add appends a condition whose placeholder is written as $%[1]d.
func (w *whereClause) add(format string, value interface{}) {
	w.args = append(w.args, value)
	w.conditions = append(w.conditions, fmt.Sprintf(format, len(w.args)))
}

// search matches term case-insensitively against any of columns.
func (w *whereClause) search(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return
	}
	w.args = append(w.args, "%"+strings.ToLower(term)+"%")
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("LOWER(%s) LIKE $%d", col, len(w.args))
	}
	w.conditions = append(w.conditions, "("+strings.Join(parts, " OR ")+")")
}

func (w *whereClause) String() string {
	return "WHERE " + strings.Join(w.conditions, " AND ")
}

// orderClause resolves a user supplied sort against an allow list.
func orderClause(opts models.ListOptions, allowed map[string]string, fallbackKey string, fallbackOrder string) string {
	column, ok := allowed[opts.SortBy]
	if !ok {
		column = allowed[fallbackKey]
	}
	order := strings.ToUpper(opts.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = fallbackOrder
	}
	return fmt.Sprintf("ORDER BY %s %s", column, order)
}

// pageClause renders LIMIT/OFFSET after normalising opts.
func pageClause(opts *models.ListOptions, defaultSize int) string {
	opts.Normalize(defaultSize)
	return fmt.Sprintf("LIMIT %d OFFSET %d", opts.PageSize, opts.Offset())
}

// mapWriteError converts driver specific constraint errors.
func mapWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}
