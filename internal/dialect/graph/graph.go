// Package graph translates validated queries into Cypher statements
// for the neo4j fragments, grounded on the reference implementation's
// neo4j.rs.
package graph

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/pkg/errors"

	"github.com/K0n4ta13/tesebada/internal/ast"
	"github.com/K0n4ta13/tesebada/internal/idalloc"
	"github.com/K0n4ta13/tesebada/internal/schema"
)

// Form wraps the generated Cypher text. As with the relational
// dialect, every literal is inlined; there are no bound parameters.
type Form struct {
	Cypher string
}

func (Form) isNativeForm() {}

// Translator builds Form values for one fragment. Wildcard supplies,
// per table, the fixed field order a "*" select expands to
// — Cypher has no native row-shape introspection, so that order has
// to be known up front, exactly as the reference implementation's own
// wildcard map works.
type Translator struct {
	IDs      *idalloc.Allocator
	Wildcard map[string][]string // table name -> ordered logical field names
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

// SelectedFields returns the logical field names a Select will return
// in order, expanding "*" via Wildcard. Execute's caller needs this to
// know which declared type governs each returned column.
func (t Translator) SelectedFields(q ast.Query) []string {
	if len(q.Fields) == 1 && q.Fields[0] == "*" {
		return t.Wildcard[q.Table]
	}
	return q.Fields
}

func (t Translator) translateSelect(q ast.Query, fragment *schema.Fragment) (Form, error) {
	fields := t.SelectedFields(q)
	realFields := make([]string, len(fields))
	for i, f := range fields {
		info, ok := fragment.Fields[f]
		if !ok {
			return Form{}, errors.Errorf("field %q not mapped in fragment %q", f, fragment.Name)
		}
		realFields[i] = "n." + info.Name
	}

	var cypher string
	if q.Filter != nil {
		info, ok := fragment.Fields[q.Filter.Column]
		if !ok {
			return Form{}, errors.Errorf("field %q not mapped in fragment %q", q.Filter.Column, fragment.Name)
		}
		value := q.Filter.Value
		if info.Type == schema.TypeString {
			value = `"` + value + `"`
		}
		cypher = fmt.Sprintf("MATCH (n:%s) WHERE n.%s = %s RETURN %s",
			fragment.Name, info.Name, value, strings.Join(realFields, ", "))
	} else {
		cypher = fmt.Sprintf("MATCH (n:%s) RETURN %s", fragment.Name, strings.Join(realFields, ", "))
	}

	return Form{Cypher: cypher}, nil
}

func (t Translator) translateInsert(q ast.Query, fragment *schema.Fragment) (Form, error) {
	idInfo, ok := fragment.Fields[schema.IDField]
	if !ok {
		return Form{}, errors.Errorf("fragment %q does not map %s", fragment.Name, schema.IDField)
	}

	nodes := make([]string, len(q.Values))
	for r, row := range q.Values {
		parts := []string{fmt.Sprintf("%s: %d", idInfo.Name, t.IDs.Next())}
		for i, col := range q.Columns {
			if col == schema.IDField {
				continue
			}
			info, ok := fragment.Fields[col]
			if !ok {
				return Form{}, errors.Errorf("field %q not mapped in fragment %q", col, fragment.Name)
			}
			val := row[i]
			if info.Type == schema.TypeString {
				parts = append(parts, fmt.Sprintf("%s: '%s'", info.Name, val))
			} else {
				parts = append(parts, fmt.Sprintf("%s: %s", info.Name, val))
			}
		}
		nodes[r] = "{" + strings.Join(parts, ", ") + "}"
	}

	cypher := fmt.Sprintf(
		"UNWIND [%s] AS row CREATE (n:%s) SET n = row RETURN count(n) as affected_rows",
		strings.Join(nodes, ", "), fragment.Name)

	return Form{Cypher: cypher}, nil
}

func (t Translator) translateUpdate(q ast.Query, fragment *schema.Fragment) (Form, error) {
	assigns := make([]string, len(q.Assignments))
	for i, a := range q.Assignments {
		info, ok := fragment.Fields[a.Column]
		if !ok {
			return Form{}, errors.Errorf("field %q not mapped in fragment %q", a.Column, fragment.Name)
		}
		if info.Type == schema.TypeString {
			assigns[i] = fmt.Sprintf("n.%s = '%s'", info.Name, a.Value)
		} else {
			assigns[i] = fmt.Sprintf("n.%s = %s", info.Name, a.Value)
		}
	}

	var cypher string
	if q.Filter != nil {
		info, ok := fragment.Fields[q.Filter.Column]
		if !ok {
			return Form{}, errors.Errorf("field %q not mapped in fragment %q", q.Filter.Column, fragment.Name)
		}
		value := q.Filter.Value
		if info.Type == schema.TypeString {
			value = `"` + value + `"`
		}
		cypher = fmt.Sprintf("MATCH (n:%s) WHERE n.%s = %s SET %s",
			fragment.Name, info.Name, value, strings.Join(assigns, ", "))
	} else {
		cypher = fmt.Sprintf("MATCH (n:%s) SET %s", fragment.Name, strings.Join(assigns, ", "))
	}
	cypher += " RETURN count(n) as affected_rows"

	return Form{Cypher: cypher}, nil
}

func (t Translator) translateDelete(q ast.Query, fragment *schema.Fragment) (Form, error) {
	cypher := fmt.Sprintf("MATCH (n:%s)", fragment.Name)

	if q.Filter != nil {
		info, ok := fragment.Fields[q.Filter.Column]
		if !ok {
			return Form{}, errors.Errorf("field %q not mapped in fragment %q", q.Filter.Column, fragment.Name)
		}
		value := q.Filter.Value
		if info.Type == schema.TypeString {
			value = `"` + value + `"`
		}
		cypher += fmt.Sprintf(" WHERE n.%s %s %s", info.Name, q.Filter.Op, value)
	}
	cypher += " DELETE n RETURN count(n) as affected_rows"

	return Form{Cypher: cypher}, nil
}

// Execute runs form against an open neo4j.ExplicitTransaction. For
// SELECT, columns are coerced per the fragment's declared field
// types in fieldOrder's order, falling back to Null on any read
// error just like the reference implementation. For writes, the
// single affected_rows column is summed across returned records.
func Execute(ctx context.Context, tx neo4j.ExplicitTransaction, q ast.Query, fragment *schema.Fragment, fieldOrder []string, form Form) (ast.Result, error) {
	result, err := tx.Run(ctx, form.Cypher, nil)
	if err != nil {
		return ast.Result{}, errors.Wrap(err, "failed to execute query")
	}

	if q.Kind == ast.KindSelect {
		var results [][]ast.Value
		for result.Next(ctx) {
			record := result.Record()
			row := make([]ast.Value, len(fieldOrder))
			for i, logicalField := range fieldOrder {
				info := fragment.Fields[logicalField]
				raw, _ := record.Get("n." + info.Name)
				row[i] = coerce(info.Type, raw)
			}
			results = append(results, row)
		}
		if err := result.Err(); err != nil {
			return ast.Result{}, errors.Wrap(err, "failed while reading rows")
		}
		return ast.Result{Kind: ast.KindSelect, Rows: results}, nil
	}

	var affected int64
	for result.Next(ctx) {
		if v, ok := result.Record().Get("affected_rows"); ok {
			if n, ok := v.(int64); ok {
				affected += n
			}
		}
	}
	if err := result.Err(); err != nil {
		return ast.Result{}, errors.Wrap(err, "failed while reading rows")
	}

	return ast.Result{Kind: q.Kind, N: affected}, nil
}

func coerce(fieldType schema.FieldType, raw interface{}) ast.Value {
	if raw == nil {
		return ast.NullValue
	}
	switch fieldType {
	case schema.TypeInt:
		// Read as a 32-bit integer, then widened; anything outside the
		// int32 range is Null.
		switch v := raw.(type) {
		case int64:
			if v < math.MinInt32 || v > math.MaxInt32 {
				return ast.NullValue
			}
			return ast.IntValue(v)
		default:
			return ast.NullValue
		}
	case schema.TypeFloat:
		// float64 first, then an unsigned 32-bit integer widened to
		// float64; anything else is Null.
		switch v := raw.(type) {
		case float64:
			return ast.FloatValue(v)
		case int64:
			if v < 0 || v > math.MaxUint32 {
				return ast.NullValue
			}
			return ast.FloatValue(float64(v))
		default:
			return ast.NullValue
		}
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
