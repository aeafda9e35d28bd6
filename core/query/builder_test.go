package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryBuilder_Filters(t *testing.T) {
	q := NewQueryBuilder().
		Where("kind").Eq("post").
		Where("views").Gte(10).
		Where("views").Lt(100).
		Where("author").In("ada", "bob").
		Build()

	require.NotNil(t, q.Where)
	assert.Equal(t, Condition{ComparisonOperatorEq: "post"}, q.Where["kind"])
	assert.Equal(t, Condition{
		ComparisonOperatorGte: 10,
		ComparisonOperatorLt:  100,
	}, q.Where["views"])
	assert.Equal(t, Condition{ComparisonOperatorIn: []any{"ada", "bob"}}, q.Where["author"])
}

func TestQueryBuilder_OrderPreservesSortKeySequence(t *testing.T) {
	q := NewQueryBuilder().
		OrderByAsc("group").
		OrderByDesc("score").
		Build()

	require.Len(t, q.OrderBy, 2)
	assert.Equal(t, SortConfiguration{Field: "group", Direction: SortDirectionAsc}, q.OrderBy[0])
	assert.Equal(t, SortConfiguration{Field: "score", Direction: SortDirectionDesc}, q.OrderBy[1])
}

func TestQueryBuilder_Pagination(t *testing.T) {
	q := NewQueryBuilder().Limit(25).Offset(50).Build()
	require.NotNil(t, q.Page)
	assert.Equal(t, 25, q.Page.Limit)
	require.NotNil(t, q.Page.Offset)
	assert.Equal(t, 50, *q.Page.Offset)

	q = NewQueryBuilder().Limit(25).After("rec-9").Build()
	require.NotNil(t, q.Page.Cursor)
	assert.Equal(t, "rec-9", *q.Page.Cursor)
}

func TestQueryBuilder_EmptyBuild(t *testing.T) {
	q := NewQueryBuilder().Build()
	assert.Nil(t, q.Where)
	assert.Nil(t, q.OrderBy)
	assert.Nil(t, q.Page)
}

func TestQueryBuilder_Reset(t *testing.T) {
	qb := NewQueryBuilder()
	qb.Where("kind").Eq("post")
	qb.Reset()

	assert.Nil(t, qb.Build().Where)
}

func TestByID(t *testing.T) {
	assert.Equal(t, Where{"id": {ComparisonOperatorEq: "p1"}}, ByID("p1"))
}
