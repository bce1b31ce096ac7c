package repository

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

func TestWhereClause(t *testing.T) {
	w := newWhere()
	w.add("e.role = $%[1]d", "DRIVER")
	w.search("Smith", "e.full_name", "e.email")

	assert.Equal(t, "WHERE 1=1 AND e.role = $1 AND (LOWER(e.full_name) LIKE $2 OR LOWER(e.email) LIKE $2)", w.String())
	assert.Equal(t, []interface{}{"DRIVER", "%smith%"}, w.args)
}

func TestOrderAndPageClause(t *testing.T) {
	allowed := map[string]string{"name": "s.name", "created_at": "s.created_at"}
	opts := models.ListOptions{SortBy: "drop table", SortOrder: "sideways", Page: 3, PageSize: 10}

	assert.Equal(t, "ORDER BY s.created_at DESC", orderClause(opts, allowed, "created_at", "DESC"))
	assert.Equal(t, "LIMIT 10 OFFSET 20", pageClause(&opts, 20))

	opts = models.ListOptions{SortBy: "name", SortOrder: "asc"}
	assert.Equal(t, "ORDER BY s.name ASC", orderClause(opts, allowed, "created_at", "DESC"))
	assert.Equal(t, "LIMIT 20 OFFSET 0", pageClause(&opts, 20))
}

func TestMapWriteError(t *testing.T) {
	err := mapWriteError("create vehicle", &pq.Error{Code: "23505"})
	assert.True(t, errors.Is(err, ErrDuplicate))

	err = mapWriteError("create vehicle", errors.New("timeout"))
	assert.False(t, errors.Is(err, ErrDuplicate))
	assert.EqualError(t, err, "create vehicle: timeout")
}
