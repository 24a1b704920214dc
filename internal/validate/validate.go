// Package validate implements the per-query checks that must pass
// before a statement is allowed anywhere near a backend.
package validate

import (
	"github.com/pkg/errors"

	"github.com/K0n4ta13/tesebada/internal/ast"
	"github.com/K0n4ta13/tesebada/internal/schema"
)

// Error reports a validation failure. It is always safe to show
// directly to the user.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

func errf(format string, args ...interface{}) error {
	return errors.WithStack(&Error{msg: errors.Errorf(format, args...).Error()})
}

// Query runs the full set of per-statement checks from spec.md §4.3, in
// the order listed there: table exists; fields/columns exist; (for
// INSERT) row arities match the column count; WHERE column exists.
func Query(cat *schema.Catalog, q ast.Query) error {
	table, err := lookupTable(cat, q.Table)
	if err != nil {
		return err
	}

	switch q.Kind {
	case ast.KindSelect:
		if err := checkFields(table, q.Fields); err != nil {
			return err
		}
		return checkFilter(table, q.Filter)

	case ast.KindInsert:
		if err := checkFields(table, q.Columns); err != nil {
			return err
		}
		for _, row := range q.Values {
			if len(row) != len(q.Columns) {
				return errf("expected %d values found %d", len(q.Columns), len(row))
			}
		}
		return nil

	case ast.KindUpdate:
		if err := checkAssignments(table, q.Assignments); err != nil {
			return err
		}
		return checkFilter(table, q.Filter)

	case ast.KindDelete:
		return checkFilter(table, q.Filter)

	default:
		return errf("unknown statement kind")
	}
}

func lookupTable(cat *schema.Catalog, name string) (*schema.Table, error) {
	table, ok := cat.Tables[name]
	if !ok {
		return nil, errf("table %q not found", name)
	}
	return table, nil
}

// checkFields validates a SELECT field list or INSERT column list.
// "*" is permitted, but only as the sole name left unresolved: if the
// set of requested names absent from the table is empty, or contains
// exactly the single element "*", the list passes. This reproduces the
// reference implementation's check_fields exactly, including the case
// where "*" appears alongside real field names that do resolve.
func checkFields(table *schema.Table, fields []string) error {
	var missing []string
	for _, f := range fields {
		if !table.HasField(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if len(missing) == 1 && missing[0] == "*" {
		return nil
	}
	return errf("missing fields %v in table %q", missing, table.Name)
}

func checkAssignments(table *schema.Table, assignments []ast.Assignment) error {
	var missing []string
	for _, a := range assignments {
		if !table.HasField(a.Column) {
			missing = append(missing, a.Column)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return errf("missing fields %v in table %q", missing, table.Name)
}

func checkFilter(table *schema.Table, filter *ast.Where) error {
	if filter == nil {
		return nil
	}
	if !table.HasField(filter.Column) {
		return errf("field %q not found in where clause", filter.Column)
	}
	return nil
}
