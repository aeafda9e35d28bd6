package query

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/asaidimu/go-loom/core/schema"
)

// PaginatedResponse is the envelope returned by paginated reads.
type PaginatedResponse struct {
	Data     []schema.Document `json:"data"`
	PageInfo PageInfo          `json:"pageInfo"`
}

// Match evaluates a single document against a Where clause. All field
// conditions and all operators on the same field must hold (conjunctive
// semantics). A document lacking a constrained field does not match.
func Match(doc schema.Document, where Where) (bool, error) {
	for field, condition := range where {
		fieldValue, ok := doc[field]
		if !ok {
			return false, nil
		}
		for operator, value := range condition {
			passes, err := evaluateCondition(fieldValue, operator, value)
			if err != nil {
				return false, fmt.Errorf("field %q: %w", field, err)
			}
			if !passes {
				return false, nil
			}
		}
	}
	return true, nil
}

// Filter returns the subsequence of documents satisfying every clause of the
// Where specification. A nil Where matches everything.
// PRODUCTION WARNING: filtering happens in-memory; backends that can push
// filters to the store should do so and only fall back to Filter.
func Filter(docs []schema.Document, where Where) ([]schema.Document, error) {
	if len(where) == 0 {
		return docs, nil
	}
	var out []schema.Document
	for _, doc := range docs {
		passes, err := Match(doc, where)
		if err != nil {
			return nil, err
		}
		if passes {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Sort performs a stable multi-key sort. Documents equal on all ordering keys
// retain their original relative order. The input slice is not modified.
func Sort(docs []schema.Document, orderBy OrderBy) []schema.Document {
	if len(orderBy) == 0 {
		return docs
	}
	out := make([]schema.Document, len(docs))
	copy(out, docs)
	sort.SliceStable(out, func(i, j int) bool {
		for _, cfg := range orderBy {
			cmp := compareValues(out[i][cfg.Field], out[j][cfg.Field])
			if cmp == 0 {
				continue
			}
			if cfg.Direction == SortDirectionDesc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return out
}

// Paginate slices a page out of an already filtered and sorted sequence and
// wraps it in a PaginatedResponse envelope. A nil page returns the whole
// sequence. A cursor names the id of the last record of the previous page;
// an unknown cursor starts from the beginning.
func Paginate(docs []schema.Document, page *Page) *PaginatedResponse {
	total := len(docs)
	if page == nil {
		return &PaginatedResponse{Data: docs, PageInfo: PageInfo{Total: total}}
	}

	start := 0
	if page.Cursor != nil {
		for i, doc := range docs {
			if doc.ID() == *page.Cursor {
				start = i + 1
				break
			}
		}
	} else if page.Offset != nil && *page.Offset > 0 {
		start = *page.Offset
	}
	if start > total {
		start = total
	}

	end := total
	if page.Limit > 0 && start+page.Limit < total {
		end = start + page.Limit
	}

	info := PageInfo{
		HasNextPage:     end < total,
		HasPreviousPage: start > 0,
		Total:           total,
	}
	data := docs[start:end]
	if info.HasNextPage && len(data) > 0 {
		if id := data[len(data)-1].ID(); id != "" {
			cursor := id
			info.NextCursor = &cursor
		}
	}
	return &PaginatedResponse{Data: data, PageInfo: info}
}

// Apply runs the full filter, sort, paginate pipeline for a query.
func Apply(docs []schema.Document, q *Query) (*PaginatedResponse, error) {
	if q == nil {
		return Paginate(docs, nil), nil
	}
	filtered, err := Filter(docs, q.Where)
	if err != nil {
		return nil, err
	}
	return Paginate(Sort(filtered, q.OrderBy), q.Page), nil
}

// evaluateCondition applies one operator to a document field value.
func evaluateCondition(fieldValue any, operator ComparisonOperator, value any) (bool, error) {
	switch operator {
	case ComparisonOperatorEq:
		return equalValues(fieldValue, value), nil
	case ComparisonOperatorNeq:
		return !equalValues(fieldValue, value), nil
	case ComparisonOperatorLt, ComparisonOperatorLte, ComparisonOperatorGt, ComparisonOperatorGte:
		cmp, ok := orderedCompare(fieldValue, value)
		if !ok {
			return false, fmt.Errorf("unsupported types for %s comparison: %T and %T", operator, fieldValue, value)
		}
		switch operator {
		case ComparisonOperatorLt:
			return cmp < 0, nil
		case ComparisonOperatorLte:
			return cmp <= 0, nil
		case ComparisonOperatorGt:
			return cmp > 0, nil
		default:
			return cmp >= 0, nil
		}
	case ComparisonOperatorIn:
		members, err := valueList(value)
		if err != nil {
			return false, err
		}
		return containsValue(members, fieldValue), nil
	case ComparisonOperatorNin:
		members, err := valueList(value)
		if err != nil {
			return false, err
		}
		return !containsValue(members, fieldValue), nil
	case ComparisonOperatorContains:
		if s, ok := fieldValue.(string); ok {
			sub, ok := value.(string)
			if !ok {
				return false, fmt.Errorf("contains on a string field requires a string value, got %T", value)
			}
			return strings.Contains(s, sub), nil
		}
		members, err := valueList(fieldValue)
		if err != nil {
			return false, fmt.Errorf("contains requires a string or list field, got %T", fieldValue)
		}
		return containsValue(members, value), nil
	default:
		return false, fmt.Errorf("unsupported comparison operator: %s", operator)
	}
}

// equalValues compares two values, treating all numeric types as equivalent.
func equalValues(a, b any) bool {
	if fa, okA := ToFloat64(a); okA {
		if fb, okB := ToFloat64(b); okB {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// orderedCompare returns -1, 0 or 1 for values with a defined ordering
// (numbers and strings), and ok=false otherwise.
func orderedCompare(a, b any) (int, bool) {
	if fa, okA := ToFloat64(a); okA {
		if fb, okB := ToFloat64(b); okB {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	if sa, okA := a.(string); okA {
		if sb, okB := b.(string); okB {
			return strings.Compare(sa, sb), true
		}
	}
	return 0, false
}

// compareValues is the total ordering used by Sort. Nil sorts first, booleans
// order false before true, and incomparable values are treated as equal so
// stability decides their order.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if ba, okA := a.(bool); okA {
		if bb, okB := b.(bool); okB {
			switch {
			case ba == bb:
				return 0
			case bb:
				return -1
			default:
				return 1
			}
		}
	}
	if cmp, ok := orderedCompare(a, b); ok {
		return cmp
	}
	return 0
}

// valueList normalizes a membership operand into a []any slice.
func valueList(value any) ([]any, error) {
	if items, ok := value.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("membership operator requires a list value, got %T", value)
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, nil
}

func containsValue(items []any, value any) bool {
	for _, item := range items {
		if equalValues(item, value) {
			return true
		}
	}
	return false
}
