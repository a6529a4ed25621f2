package repo

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

// Op is the closed set of filter operators. Anything outside this set is
// rejected before a query is built, so an invalid operator can never reach
// the database.
type Op string

const (
	OpEq    Op = "eq"
	OpNeq   Op = "neq"
	OpGt    Op = "gt"
	OpGte   Op = "gte"
	OpLt    Op = "lt"
	OpLte   Op = "lte"
	OpLike  Op = "like"
	OpILike Op = "ilike"
	OpIn    Op = "in"
	OpIs    Op = "is"
)

var columnPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Filter is one predicate of the query DSL: column, operator, value.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Eq matches rows where column equals value.
func Eq(column string, value any) Filter { return Filter{Column: column, Op: OpEq, Value: value} }

// Neq matches rows where column differs from value.
func Neq(column string, value any) Filter { return Filter{Column: column, Op: OpNeq, Value: value} }

// Gt matches rows where column is strictly greater than value.
func Gt(column string, value any) Filter { return Filter{Column: column, Op: OpGt, Value: value} }

// Gte matches rows where column is greater than or equal to value.
func Gte(column string, value any) Filter { return Filter{Column: column, Op: OpGte, Value: value} }

// Lt matches rows where column is strictly less than value.
func Lt(column string, value any) Filter { return Filter{Column: column, Op: OpLt, Value: value} }

// Lte matches rows where column is less than or equal to value.
func Lte(column string, value any) Filter { return Filter{Column: column, Op: OpLte, Value: value} }

// Like matches rows where column matches the SQL pattern, case sensitive.
func Like(column, pattern string) Filter {
	return Filter{Column: column, Op: OpLike, Value: pattern}
}

// ILike matches rows where column matches the SQL pattern, case insensitive.
func ILike(column, pattern string) Filter {
	return Filter{Column: column, Op: OpILike, Value: pattern}
}

// In matches rows where column equals any of the provided values.
func In(column string, values any) Filter { return Filter{Column: column, Op: OpIn, Value: values} }

// IsNull matches rows where column is NULL.
func IsNull(column string) Filter { return Filter{Column: column, Op: OpIs, Value: nil} }

// Is matches column against nil (IS NULL) or a boolean (IS TRUE / IS FALSE).
func Is(column string, value any) Filter { return Filter{Column: column, Op: OpIs, Value: value} }

// Validate rejects malformed filters before any SQL is generated.
func (f Filter) Validate() error {
	if !columnPattern.MatchString(f.Column) {
		return fmt.Errorf("invalid filter column %q", f.Column)
	}
	switch f.Op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		if f.Value == nil {
			return fmt.Errorf("filter %s on %q requires a value", f.Op, f.Column)
		}
	case OpLike, OpILike:
		if _, ok := f.Value.(string); !ok {
			return fmt.Errorf("filter %s on %q requires a string pattern", f.Op, f.Column)
		}
	case OpIn:
		kind := reflect.ValueOf(f.Value).Kind()
		if kind != reflect.Slice && kind != reflect.Array {
			return fmt.Errorf("filter in on %q requires a slice of values", f.Column)
		}
	case OpIs:
		if f.Value != nil {
			if _, ok := f.Value.(bool); !ok {
				return fmt.Errorf("filter is on %q accepts nil or a boolean", f.Column)
			}
		}
	default:
		return fmt.Errorf("unknown filter operator %q", f.Op)
	}
	return nil
}

// Sort orders results by a single column.
type Sort struct {
	Column    string
	Ascending bool
}

// Validate rejects sorts on unsafe column names.
func (s Sort) Validate() error {
	if !columnPattern.MatchString(s.Column) {
		return fmt.Errorf("invalid sort column %q", s.Column)
	}
	return nil
}

// Page requests a zero-based page of Limit rows, translated to the offset
// range [Number*Limit, Number*Limit+Limit-1].
type Page struct {
	Number int
	Limit  int
}

// Options bundles the DSL inputs accepted by FindAll.
type Options struct {
	Filters   []Filter
	Sorts     []Sort
	Page      *Page
	WithCount bool
}

// ApplyFilters attaches every filter as a WHERE clause. The returned query is
// untouched when any filter fails validation.
func ApplyFilters(tx *gorm.DB, filters []Filter) (*gorm.DB, error) {
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}
	for _, f := range filters {
		tx = applyFilter(tx, f)
	}
	return tx, nil
}

func applyFilter(tx *gorm.DB, f Filter) *gorm.DB {
	col := f.Column
	switch f.Op {
	case OpEq:
		return tx.Where(col+" = ?", f.Value)
	case OpNeq:
		return tx.Where(col+" <> ?", f.Value)
	case OpGt:
		return tx.Where(col+" > ?", f.Value)
	case OpGte:
		return tx.Where(col+" >= ?", f.Value)
	case OpLt:
		return tx.Where(col+" < ?", f.Value)
	case OpLte:
		return tx.Where(col+" <= ?", f.Value)
	case OpLike:
		return tx.Where(col+" LIKE ?", f.Value)
	case OpILike:
		// Postgres has a native ILIKE; sqlite (used by fixtures) does not.
		if tx.Dialector != nil && tx.Dialector.Name() == "postgres" {
			return tx.Where(col+" ILIKE ?", f.Value)
		}
		pattern := strings.ToLower(f.Value.(string))
		return tx.Where("LOWER("+col+") LIKE ?", pattern)
	case OpIn:
		return tx.Where(col+" IN ?", f.Value)
	case OpIs:
		switch v := f.Value.(type) {
		case nil:
			return tx.Where(col + " IS NULL")
		case bool:
			if v {
				return tx.Where(col + " IS TRUE")
			}
			return tx.Where(col + " IS FALSE")
		}
	}
	return tx
}

func applySorts(tx *gorm.DB, sorts []Sort) (*gorm.DB, error) {
	for _, s := range sorts {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		direction := "DESC"
		if s.Ascending {
			direction = "ASC"
		}
		tx = tx.Order(s.Column + " " + direction)
	}
	return tx, nil
}
