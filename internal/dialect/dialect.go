// Package dialect declares the contract every backend-specific
// translator implements: turn a validated ast.Query plus the fragment
// it will run against into that backend's native request shape, then
// later turn that backend's native response rows back into ast.Value.
package dialect

import (
	"context"

	"github.com/K0n4ta13/tesebada/internal/ast"
	"github.com/K0n4ta13/tesebada/internal/schema"
)

// NativeForm is the translated, backend-ready form of a query. Each
// dialect package defines its own concrete Form type (SQL text, a
// Mongo filter/update pair, a Cypher statement) with a method of the
// same name; because that method is unexported, those Form types do
// not satisfy this interface, and the workers use them directly.
type NativeForm interface {
	isNativeForm()
}

// Translator describes turning a validated query into the native form
// for one fragment. Translators never touch a connection; they are
// pure functions of (query, fragment). The dialect packages' Translate
// methods return their own Form type, so they do not implement this
// interface.
type Translator interface {
	Translate(q ast.Query, fragment *schema.Fragment) (NativeForm, error)
}

// Executor describes running an already-translated form against an
// open, backend-specific transaction handle and reporting the result
// in the coordinator's own ast.Result shape. The dialect packages do
// not implement it: each exposes a package-level Execute function
// whose parameters are typed per backend (pgx.Tx, *mongo.Database,
// neo4j.ExplicitTransaction).
type Executor interface {
	Execute(ctx context.Context, tx interface{}, form NativeForm) (ast.Result, error)
}
