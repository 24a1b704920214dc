// Package relational translates validated queries into SQL text for the
// postgres fragments and executes that text over a pgx transaction,
// grounded on the reference implementation's postgres.rs.
package relational

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/K0n4ta13/tesebada/internal/ast"
	"github.com/K0n4ta13/tesebada/internal/idalloc"
	"github.com/K0n4ta13/tesebada/internal/schema"
)

// Form wraps the generated SQL text. There are never bind parameters:
// the coordinator inlines every literal directly into the statement,
// matching the reference implementation.
type Form struct {
	SQL string
}

func (Form) isNativeForm() {}

// Translator builds Form values for one fragment. ids allocates the
// synthetic IdCliente values INSERT statements need at translation
// time, before any SQL is ever sent.
type Translator struct {
	IDs *idalloc.Allocator
}

// Translate builds the Form for q against fragment, dispatching on q.Kind.
func (t Translator) Translate(q ast.Query, fragment *schema.Fragment) (Form, error) {
	switch q.Kind {
	case ast.KindSelect:
		return t.translateSelect(q, fragment)
	case ast.KindInsert:
		return t.translateInsert(q, fragment)
	case ast.KindUpdate:
		return t.translateUpdate(q, fragment)
	case ast.KindDelete:
		return t.translateDelete(q, fragment)
	default:
		return Form{}, errors.Errorf("unsupported statement kind %v", q.Kind)
	}
}

func (t Translator) translateSelect(q ast.Query, fragment *schema.Fragment) (Form, error) {
	realFields := "*"
	if len(q.Fields) != 1 || q.Fields[0] != "*" {
		names := make([]string, len(q.Fields))
		for i, f := range q.Fields {
			info, ok := fragment.Fields[f]
			if !ok {
				return Form{}, errors.Errorf("field %q not mapped in fragment %q", f, fragment.Name)
			}
			names[i] = info.Name
		}
		realFields = strings.Join(names, ",")
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", realFields, fragment.Name)

	if q.Filter != nil {
		info, ok := fragment.Fields[q.Filter.Column]
		if !ok {
			return Form{}, errors.Errorf("field %q not mapped in fragment %q", q.Filter.Column, fragment.Name)
		}
		sql += fmt.Sprintf(" WHERE %s %s '%s'", info.Name, q.Filter.Op, q.Filter.Value)
	}

	return Form{SQL: sql}, nil
}

func (t Translator) translateInsert(q ast.Query, fragment *schema.Fragment) (Form, error) {
	idInfo, ok := fragment.Fields[schema.IDField]
	if !ok {
		return Form{}, errors.Errorf("fragment %q does not map %s", fragment.Name, schema.IDField)
	}

	realColumns := []string{idInfo.Name}
	for _, c := range q.Columns {
		if c == schema.IDField {
			continue
		}
		info, ok := fragment.Fields[c]
		if !ok {
			return Form{}, errors.Errorf("field %q not mapped in fragment %q", c, fragment.Name)
		}
		realColumns = append(realColumns, info.Name)
	}

	rowsSQL := make([]string, len(q.Values))
	for r, row := range q.Values {
		rowValues := []string{strconv.FormatUint(t.IDs.Next(), 10)}
		for i, col := range q.Columns {
			if col == schema.IDField {
				continue
			}
			info := fragment.Fields[col]
			val := row[i]
			if info.Type == schema.TypeString {
				val = "'" + val + "'"
			}
			rowValues = append(rowValues, val)
		}
		rowsSQL[r] = "(" + strings.Join(rowValues, ",") + ")"
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		fragment.Name, strings.Join(realColumns, ","), strings.Join(rowsSQL, ","))

	return Form{SQL: sql}, nil
}

// translateUpdate reproduces the reference implementation's own quirk:
// assignment values are inlined bare, with no quoting even for string
// fields. spec.md §9 documents this as a preserved bug, not a gap to
// fix.
func (t Translator) translateUpdate(q ast.Query, fragment *schema.Fragment) (Form, error) {
	assigns := make([]string, len(q.Assignments))
	for i, a := range q.Assignments {
		info, ok := fragment.Fields[a.Column]
		if !ok {
			return Form{}, errors.Errorf("field %q not mapped in fragment %q", a.Column, fragment.Name)
		}
		assigns[i] = fmt.Sprintf("%s = %s", info.Name, a.Value)
	}

	sql := fmt.Sprintf("UPDATE %s SET %s", fragment.Name, strings.Join(assigns, ","))

	if q.Filter != nil {
		info, ok := fragment.Fields[q.Filter.Column]
		if !ok {
			return Form{}, errors.Errorf("field %q not mapped in fragment %q", q.Filter.Column, fragment.Name)
		}
		sql += fmt.Sprintf(" WHERE %s %s %s", info.Name, q.Filter.Op, q.Filter.Value)
	}

	return Form{SQL: sql}, nil
}

func (t Translator) translateDelete(q ast.Query, fragment *schema.Fragment) (Form, error) {
	sql := fmt.Sprintf("DELETE FROM %s", fragment.Name)

	if q.Filter != nil {
		info, ok := fragment.Fields[q.Filter.Column]
		if !ok {
			return Form{}, errors.Errorf("field %q not mapped in fragment %q", q.Filter.Column, fragment.Name)
		}
		sql += fmt.Sprintf(" WHERE %s %s %s", info.Name, q.Filter.Op, q.Filter.Value)
	}

	return Form{SQL: sql}, nil
}

// Execute runs form against an open pgx transaction. For SELECT, rows
// are coerced into ast.Value per the fragment's declared field types,
// falling back to Null on any scan error exactly as the reference
// implementation does. For writes, the affected row count is reported
// on q.Kind's Result but the transaction is left open: the caller
// commits or rolls back after the router's 2PC handshake completes.
func Execute(ctx context.Context, tx pgx.Tx, q ast.Query, fragment *schema.Fragment, form Form) (ast.Result, error) {
	switch q.Kind {
	case ast.KindSelect:
		return executeSelect(ctx, tx, q, fragment, form)
	default:
		tag, err := tx.Exec(ctx, form.SQL)
		if err != nil {
			return ast.Result{}, errors.Wrap(err, "failed to execute query")
		}
		return ast.Result{Kind: q.Kind, N: tag.RowsAffected()}, nil
	}
}

func executeSelect(ctx context.Context, tx pgx.Tx, q ast.Query, fragment *schema.Fragment, form Form) (ast.Result, error) {
	rows, err := tx.Query(ctx, form.SQL)
	if err != nil {
		return ast.Result{}, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	// pgx returns columns in the physical order the database chose for
	// them (the SQL text itself may say plain "SELECT *"), so the field
	// each column decodes against must come from the column's own name,
	// never from a positional zip against q.Fields/fragment.Fields.
	columns := columnFields(fragment, rows.FieldDescriptions())

	var results [][]ast.Value
	for rows.Next() {
		raw, err := rows.Values()
		if err != nil {
			return ast.Result{}, errors.Wrap(err, "failed to read row")
		}

		row := make([]ast.Value, len(raw))
		for i, v := range raw {
			fieldName := ""
			if i < len(columns) {
				fieldName = columns[i]
			}
			row[i] = coerce(fragment, fieldName, v)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return ast.Result{}, errors.Wrap(err, "failed while reading rows")
	}

	return ast.Result{Kind: ast.KindSelect, Rows: results}, nil
}

// columnFields maps each column pgx actually returned, in order, to the
// logical field name it belongs to in fragment, matching a column to a
// field by lower-cased physical name exactly as the reference
// implementation's postgres.rs::execute does (`v.name.to_lowercase() ==
// col_name`). A column with no matching fragment field maps to "",
// which coerce treats as Null.
func columnFields(fragment *schema.Fragment, descs []pgconn.FieldDescription) []string {
	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = logicalFieldFor(fragment, string(d.Name))
	}
	return names
}

func logicalFieldFor(fragment *schema.Fragment, columnName string) string {
	lower := strings.ToLower(columnName)
	for ref, info := range fragment.Fields {
		if strings.ToLower(info.Name) == lower {
			return ref
		}
	}
	return ""
}

func coerce(fragment *schema.Fragment, field string, raw interface{}) ast.Value {
	info, ok := fragment.Fields[field]
	if !ok || raw == nil {
		return ast.NullValue
	}

	switch info.Type {
	case schema.TypeInt:
		switch v := raw.(type) {
		case int32:
			return ast.IntValue(int64(v))
		case int64:
			return ast.IntValue(v)
		default:
			return ast.NullValue
		}
	case schema.TypeFloat:
		if v, ok := raw.(float64); ok {
			return ast.FloatValue(v)
		}
		return ast.NullValue
	case schema.TypeBool:
		if v, ok := raw.(bool); ok {
			return ast.BoolValue(v)
		}
		return ast.NullValue
	case schema.TypeString:
		if v, ok := raw.(string); ok {
			return ast.StrValue(v)
		}
		return ast.NullValue
	default:
		return ast.NullValue
	}
}
