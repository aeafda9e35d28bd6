package query

// QueryBuilder provides a fluent API for constructing Query values. It allows
// step-by-step construction of filters, sorting and pagination, culminating in
// a final Query object.
type QueryBuilder struct {
	query Query
}

// NewQueryBuilder creates a new, empty query builder instance.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// Build returns the constructed Query object.
func (qb *QueryBuilder) Build() *Query {
	q := qb.query
	return &q
}

// Reset clears all configurations, returning the builder to its initial state.
func (qb *QueryBuilder) Reset() *QueryBuilder {
	qb.query = Query{}
	return qb
}

// ConditionBuilder is used to build a single field condition. It is not
// intended to be used directly but is part of the fluent API.
type ConditionBuilder struct {
	parent *QueryBuilder
	field  string
}

// Where begins the construction of a filter condition for a specific field.
func (qb *QueryBuilder) Where(field string) *ConditionBuilder {
	return &ConditionBuilder{parent: qb, field: field}
}

func (cb *ConditionBuilder) addCondition(operator ComparisonOperator, value any) *QueryBuilder {
	if cb.parent.query.Where == nil {
		cb.parent.query.Where = Where{}
	}
	condition, ok := cb.parent.query.Where[cb.field]
	if !ok {
		condition = Condition{}
		cb.parent.query.Where[cb.field] = condition
	}
	condition[operator] = value
	return cb.parent
}

// Eq adds an equality condition to the query.
func (cb *ConditionBuilder) Eq(value any) *QueryBuilder {
	return cb.addCondition(ComparisonOperatorEq, value)
}

// Neq adds a not-equal condition to the query.
func (cb *ConditionBuilder) Neq(value any) *QueryBuilder {
	return cb.addCondition(ComparisonOperatorNeq, value)
}

// Lt adds a less-than condition to the query.
func (cb *ConditionBuilder) Lt(value any) *QueryBuilder {
	return cb.addCondition(ComparisonOperatorLt, value)
}

// Lte adds a less-than-or-equal condition to the query.
func (cb *ConditionBuilder) Lte(value any) *QueryBuilder {
	return cb.addCondition(ComparisonOperatorLte, value)
}

// Gt adds a greater-than condition to the query.
func (cb *ConditionBuilder) Gt(value any) *QueryBuilder {
	return cb.addCondition(ComparisonOperatorGt, value)
}

// Gte adds a greater-than-or-equal condition to the query.
func (cb *ConditionBuilder) Gte(value any) *QueryBuilder {
	return cb.addCondition(ComparisonOperatorGte, value)
}

// In adds a membership condition to the query.
func (cb *ConditionBuilder) In(values ...any) *QueryBuilder {
	return cb.addCondition(ComparisonOperatorIn, values)
}

// NotIn adds a negated membership condition to the query.
func (cb *ConditionBuilder) NotIn(values ...any) *QueryBuilder {
	return cb.addCondition(ComparisonOperatorNin, values)
}

// Contains adds a containment condition to the query.
func (cb *ConditionBuilder) Contains(value any) *QueryBuilder {
	return cb.addCondition(ComparisonOperatorContains, value)
}

// OrderByAsc appends an ascending sort key.
func (qb *QueryBuilder) OrderByAsc(field string) *QueryBuilder {
	qb.query.OrderBy = append(qb.query.OrderBy, SortConfiguration{Field: field, Direction: SortDirectionAsc})
	return qb
}

// OrderByDesc appends a descending sort key.
func (qb *QueryBuilder) OrderByDesc(field string) *QueryBuilder {
	qb.query.OrderBy = append(qb.query.OrderBy, SortConfiguration{Field: field, Direction: SortDirectionDesc})
	return qb
}

func (qb *QueryBuilder) page() *Page {
	if qb.query.Page == nil {
		qb.query.Page = &Page{}
	}
	return qb.query.Page
}

// Limit caps the number of records returned per page.
func (qb *QueryBuilder) Limit(limit int) *QueryBuilder {
	qb.page().Limit = limit
	return qb
}

// Offset starts the page at the given position in the result sequence.
func (qb *QueryBuilder) Offset(offset int) *QueryBuilder {
	qb.page().Offset = IntPtr(offset)
	return qb
}

// After starts the page immediately after the record with the given id.
func (qb *QueryBuilder) After(cursor string) *QueryBuilder {
	qb.page().Cursor = StringPtr(cursor)
	return qb
}
