package validate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/K0n4ta13/tesebada/internal/ast"
	"github.com/K0n4ta13/tesebada/internal/schema"
)

func testCatalog(t *testing.T) *schema.Catalog {
	t.Helper()
	cat, err := schema.Compile(schema.Document{
		Tables: []schema.TableDoc{
			{
				Name: "Clientes",
				Fields: []schema.FieldDoc{
					{Name: "IdCliente", Type: "int"},
					{Name: "Nombre", Type: "string"},
					{Name: "Estado", Type: "string"},
				},
				Fragments: []schema.FragmentDoc{
					{
						Name:       "clientes",
						Connection: "postgres://localhost/norte",
						Manager:    "postgres",
						Zone:       "Norte",
						Fields: []schema.FragmentField{
							{Name: "id_cliente", Reference: "IdCliente", Type: "int"},
							{Name: "nombre", Reference: "Nombre", Type: "string"},
							{Name: "estado", Reference: "Estado", Type: "string"},
						},
					},
				},
			},
		},
	})
	require.NoError(t, err)
	return cat
}

func TestQueryRejectsUnknownTable(t *testing.T) {
	cat := testCatalog(t)
	err := Query(cat, ast.Query{Kind: ast.KindSelect, Table: "Facturas", Fields: []string{"*"}})
	require.Error(t, err)
}

func TestQuerySelectAcceptsStar(t *testing.T) {
	cat := testCatalog(t)
	err := Query(cat, ast.Query{Kind: ast.KindSelect, Table: "Clientes", Fields: []string{"*"}})
	require.NoError(t, err)
}

func TestQuerySelectRejectsUnknownField(t *testing.T) {
	cat := testCatalog(t)
	err := Query(cat, ast.Query{Kind: ast.KindSelect, Table: "Clientes", Fields: []string{"Telefono"}})
	require.Error(t, err)
}

func TestQuerySelectRejectsUnknownFilterColumn(t *testing.T) {
	cat := testCatalog(t)
	err := Query(cat, ast.Query{
		Kind:   ast.KindSelect,
		Table:  "Clientes",
		Fields: []string{"*"},
		Filter: &ast.Where{Column: "Telefono", Op: "=", Value: "123"},
	})
	require.Error(t, err)
}

func TestQueryInsertChecksRowArity(t *testing.T) {
	cat := testCatalog(t)
	err := Query(cat, ast.Query{
		Kind:    ast.KindInsert,
		Table:   "Clientes",
		Columns: []string{"Nombre", "Estado"},
		Values:  [][]string{{"Ana"}},
	})
	require.Error(t, err)
}

func TestQueryInsertAcceptsMatchingArity(t *testing.T) {
	cat := testCatalog(t)
	err := Query(cat, ast.Query{
		Kind:    ast.KindInsert,
		Table:   "Clientes",
		Columns: []string{"Nombre", "Estado"},
		Values:  [][]string{{"Ana", "Norte"}, {"Beto", "Sur"}},
	})
	require.NoError(t, err)
}

func TestQueryUpdateRejectsUnknownAssignmentColumn(t *testing.T) {
	cat := testCatalog(t)
	err := Query(cat, ast.Query{
		Kind:        ast.KindUpdate,
		Table:       "Clientes",
		Assignments: []ast.Assignment{{Column: "Telefono", Value: "123"}},
	})
	require.Error(t, err)
}

func TestQueryDeleteRequiresKnownFilterColumn(t *testing.T) {
	cat := testCatalog(t)
	err := Query(cat, ast.Query{
		Kind:   ast.KindDelete,
		Table:  "Clientes",
		Filter: &ast.Where{Column: "Estado", Op: "=", Value: "Norte"},
	})
	require.NoError(t, err)

	err = Query(cat, ast.Query{
		Kind:   ast.KindDelete,
		Table:  "Clientes",
		Filter: &ast.Where{Column: "Telefono", Op: "=", Value: "123"},
	})
	require.Error(t, err)
}

func TestQueryDeleteWithoutFilterIsBroadcast(t *testing.T) {
	cat := testCatalog(t)
	err := Query(cat, ast.Query{Kind: ast.KindDelete, Table: "Clientes"})
	require.NoError(t, err)
}
