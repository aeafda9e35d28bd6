// Package query defines the storage-agnostic query vocabulary shared by every
// data source: Where clauses, sort configurations and pagination options, plus
// pure in-memory implementations of filter, sort and paginate for backends
// whose underlying store only supports whole-collection scans.
package query

// ComparisonOperator defines the set of operators usable in a Where clause.
type ComparisonOperator string

// Supported comparison operators.
const (
	ComparisonOperatorEq       ComparisonOperator = "eq"
	ComparisonOperatorNeq      ComparisonOperator = "neq"
	ComparisonOperatorLt       ComparisonOperator = "lt"
	ComparisonOperatorLte      ComparisonOperator = "lte"
	ComparisonOperatorGt       ComparisonOperator = "gt"
	ComparisonOperatorGte      ComparisonOperator = "gte"
	ComparisonOperatorIn       ComparisonOperator = "in"
	ComparisonOperatorNin      ComparisonOperator = "nin"
	ComparisonOperatorContains ComparisonOperator = "contains"
)

// standardComparisonOperators is the set of operators Filter understands.
var standardComparisonOperators = map[ComparisonOperator]struct{}{
	ComparisonOperatorEq:       {},
	ComparisonOperatorNeq:      {},
	ComparisonOperatorLt:       {},
	ComparisonOperatorLte:      {},
	ComparisonOperatorGt:       {},
	ComparisonOperatorGte:      {},
	ComparisonOperatorIn:       {},
	ComparisonOperatorNin:      {},
	ComparisonOperatorContains: {},
}

// IsStandard checks whether an operator is one of the built-in operators.
func (c ComparisonOperator) IsStandard() bool {
	_, ok := standardComparisonOperators[c]
	return ok
}

// Condition maps comparison operators to the values they compare against.
// Multiple operators on the same field are combined with AND.
type Condition map[ComparisonOperator]any

// Where maps field names to conditions. Fields are combined with AND.
type Where map[string]Condition

// ByID builds a Where clause that identifies a record by primary id only.
// Update and Delete on every data source must accept such a clause.
func ByID(id string) Where {
	return Where{"id": {ComparisonOperatorEq: id}}
}

// SortDirection specifies the direction for sorting.
type SortDirection string

// Supported sort directions.
const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// SortConfiguration defines the sorting order for a specific field.
type SortConfiguration struct {
	Field     string        // The field to sort by.
	Direction SortDirection // The direction of the sort.
}

// OrderBy is an ordered multi-key sort specification. Earlier entries take
// precedence; fields not named do not affect order.
type OrderBy []SortConfiguration

// Page defines how query results should be paginated. Offset and Cursor are
// mutually exclusive; a cursor names the id of the last record of the previous
// page within the filtered, sorted sequence.
type Page struct {
	Limit  int     `json:",omitempty"`
	Offset *int    `json:",omitempty"`
	Cursor *string `json:",omitempty"`
}

// Query is the top-level structure handed to DataSource.Find.
type Query struct {
	Where   Where   `json:",omitempty"`
	OrderBy OrderBy `json:",omitempty"`
	Page    *Page   `json:",omitempty"`
}

// PageInfo describes the position of a page within the full result sequence.
type PageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	Total           int     `json:"total"`
	NextCursor      *string `json:"nextCursor,omitempty"`
}
