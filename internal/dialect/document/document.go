// Package document translates validated queries into MongoDB filter,
// projection, and update documents and executes them over a
// session-scoped transaction, grounded on the reference
// implementation's mongo.rs.
package document

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/K0n4ta13/tesebada/internal/ast"
	"github.com/K0n4ta13/tesebada/internal/idalloc"
	"github.com/K0n4ta13/tesebada/internal/schema"
)

// Form is the sum of the four shapes a translated query can take. Only
// the fields relevant to Kind are populated.
type Form struct {
	Kind Kind

	// Select
	Filter     bson.D
	Projection bson.D

	// Insert
	Docs []bson.D

	// Update reuses Filter above, plus:
	Update bson.D

	// Delete reuses Filter above.
}

func (Form) isNativeForm() {}

// Kind mirrors ast.Kind but is kept distinct since a Form's shape,
// not its statement kind alone, determines how Execute dispatches.
type Kind int

const (
	KindSelect Kind = iota
	KindInsert
	KindUpdate
	KindDelete
)

// Translator builds Form values for one fragment.
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
	projection := bson.D{}
	if !(len(q.Fields) == 1 && q.Fields[0] == "*") {
		for _, f := range q.Fields {
			info, ok := fragment.Fields[f]
			if !ok {
				return Form{}, errors.Errorf("field %q not mapped in fragment %q", f, fragment.Name)
			}
			projection = append(projection, bson.E{Key: info.Name, Value: 1})
		}
	}

	filter, err := filterDoc(q.Filter, fragment)
	if err != nil {
		return Form{}, err
	}

	return Form{Kind: KindSelect, Filter: filter, Projection: projection}, nil
}

func (t Translator) translateInsert(q ast.Query, fragment *schema.Fragment) (Form, error) {
	idInfo, ok := fragment.Fields[schema.IDField]
	if !ok {
		return Form{}, errors.Errorf("fragment %q does not map %s", fragment.Name, schema.IDField)
	}

	docs := make([]bson.D, len(q.Values))
	for r, row := range q.Values {
		doc := bson.D{{Key: idInfo.Name, Value: strconv.FormatUint(t.IDs.Next(), 10)}}
		for i, col := range q.Columns {
			if col == schema.IDField {
				continue
			}
			info, ok := fragment.Fields[col]
			if !ok {
				return Form{}, errors.Errorf("field %q not mapped in fragment %q", col, fragment.Name)
			}
			doc = append(doc, bson.E{Key: info.Name, Value: row[i]})
		}
		docs[r] = doc
	}

	return Form{Kind: KindInsert, Docs: docs}, nil
}

func (t Translator) translateUpdate(q ast.Query, fragment *schema.Fragment) (Form, error) {
	set := bson.D{}
	for _, a := range q.Assignments {
		info, ok := fragment.Fields[a.Column]
		if !ok {
			return Form{}, errors.Errorf("field %q not mapped in fragment %q", a.Column, fragment.Name)
		}
		set = append(set, bson.E{Key: info.Name, Value: a.Value})
	}

	filter, err := filterDoc(q.Filter, fragment)
	if err != nil {
		return Form{}, err
	}

	return Form{Kind: KindUpdate, Filter: filter, Update: bson.D{{Key: "$set", Value: set}}}, nil
}

func (t Translator) translateDelete(q ast.Query, fragment *schema.Fragment) (Form, error) {
	filter, err := filterDoc(q.Filter, fragment)
	if err != nil {
		return Form{}, err
	}
	return Form{Kind: KindDelete, Filter: filter}, nil
}

func filterDoc(w *ast.Where, fragment *schema.Fragment) (bson.D, error) {
	if w == nil {
		return bson.D{}, nil
	}
	info, ok := fragment.Fields[w.Column]
	if !ok {
		return nil, errors.Errorf("field %q not mapped in fragment %q", w.Column, fragment.Name)
	}
	return bson.D{{Key: info.Name, Value: w.Value}}, nil
}

// Execute runs form against collectionName using ctx. For writes, the
// caller passes a session context whose transaction it has already
// started, and commits or rolls it back once the router's 2PC
// handshake completes; the document worker runs SELECT with no session.
// fragment supplies the field-name-to-type mapping Select read-back
// coercion needs; it is unused for writes.
func Execute(ctx context.Context, db *mongo.Database, collectionName string, fragment *schema.Fragment, form Form) (ast.Result, error) {
	collection := db.Collection(collectionName)

	switch form.Kind {
	case KindSelect:
		findOpts := options.Find()
		if len(form.Projection) > 0 {
			findOpts.SetProjection(form.Projection)
		}
		cursor, err := collection.Find(ctx, form.Filter, findOpts)
		if err != nil {
			return ast.Result{}, errors.Wrap(err, "failed to execute query")
		}
		defer cursor.Close(ctx)

		fieldsByName := fieldTypesByName(fragment)

		var results [][]ast.Value
		for cursor.Next(ctx) {
			var raw bson.D
			if err := cursor.Decode(&raw); err != nil {
				return ast.Result{}, errors.Wrap(err, "failed to decode row")
			}
			results = append(results, decodeRow(raw, fieldsByName))
		}
		if err := cursor.Err(); err != nil {
			return ast.Result{}, errors.Wrap(err, "failed while reading rows")
		}

		return ast.Result{Kind: ast.KindSelect, Rows: results}, nil

	case KindInsert:
		docs := make([]interface{}, len(form.Docs))
		for i, d := range form.Docs {
			docs[i] = d
		}
		res, err := collection.InsertMany(ctx, docs)
		if err != nil {
			return ast.Result{}, errors.Wrap(err, "failed to execute query")
		}
		return ast.Result{Kind: ast.KindInsert, N: int64(len(res.InsertedIDs))}, nil

	case KindUpdate:
		res, err := collection.UpdateMany(ctx, form.Filter, form.Update)
		if err != nil {
			return ast.Result{}, errors.Wrap(err, "failed to execute query")
		}
		return ast.Result{Kind: ast.KindUpdate, N: res.ModifiedCount}, nil

	case KindDelete:
		res, err := collection.DeleteMany(ctx, form.Filter)
		if err != nil {
			return ast.Result{}, errors.Wrap(err, "failed to execute query")
		}
		return ast.Result{Kind: ast.KindDelete, N: res.DeletedCount}, nil

	default:
		return ast.Result{}, errors.Errorf("unsupported form kind %v", form.Kind)
	}
}

func fieldTypesByName(fragment *schema.Fragment) map[string]schema.FieldType {
	byName := make(map[string]schema.FieldType, len(fragment.Fields))
	for _, info := range fragment.Fields {
		byName[info.Name] = info.Type
	}
	return byName
}

// decodeRow coerces a raw Mongo document into ast.Values, dropping
// _id and falling back to Null wherever the stored representation
// doesn't match the field's declared type. int and float are stored
// as strings (translateInsert never types them), so both are
// recovered via a string parse with a Null fallback, exactly as the
// reference implementation does; bool and string are read natively.
func decodeRow(raw bson.D, fieldsByName map[string]schema.FieldType) []ast.Value {
	var row []ast.Value
	for _, e := range raw {
		if e.Key == "_id" {
			continue
		}
		row = append(row, decodeValue(fieldsByName[e.Key], e.Value))
	}
	return row
}

func decodeValue(fieldType schema.FieldType, v interface{}) ast.Value {
	switch fieldType {
	case schema.TypeInt:
		if s, ok := v.(string); ok {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return ast.IntValue(n)
			}
		}
		return ast.NullValue
	case schema.TypeFloat:
		if s, ok := v.(string); ok {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return ast.FloatValue(f)
			}
		}
		return ast.NullValue
	case schema.TypeBool:
		if b, ok := v.(bool); ok {
			return ast.BoolValue(b)
		}
		return ast.NullValue
	case schema.TypeString:
		if s, ok := v.(string); ok {
			return ast.StrValue(s)
		}
		return ast.NullValue
	default:
		return ast.NullValue
	}
}
