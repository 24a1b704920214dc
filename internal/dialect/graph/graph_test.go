package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/K0n4ta13/tesebada/internal/ast"
	"github.com/K0n4ta13/tesebada/internal/idalloc"
	"github.com/K0n4ta13/tesebada/internal/schema"
)

func testFragment() *schema.Fragment {
	return &schema.Fragment{
		Name:       "Cliente",
		Manager:    schema.ManagerNeo4j,
		Connection: "bolt://localhost:7687",
		Zone:       schema.ZoneSur,
		Fields: map[string]schema.FragmentFieldInfo{
			"IdCliente": {Name: "id_cliente", Type: schema.TypeInt},
			"Nombre":    {Name: "nombre", Type: schema.TypeString},
			"Estado":    {Name: "estado", Type: schema.TypeString},
		},
	}
}

func newTranslator(t *testing.T) Translator {
	t.Helper()
	ids, err := idalloc.Load("/nonexistent/path")
	require.NoError(t, err)
	return Translator{
		IDs:      ids,
		Wildcard: map[string][]string{"Clientes": {"IdCliente", "Nombre", "Estado"}},
	}
}

func TestTranslateSelectWildcardExpandsViaWildcardMap(t *testing.T) {
	tr := newTranslator(t)
	q := ast.Query{Kind: ast.KindSelect, Table: "Clientes", Fields: []string{"*"}}

	form, err := tr.Translate(q, testFragment())
	require.NoError(t, err)
	require.Equal(t, "MATCH (n:Cliente) RETURN n.id_cliente, n.nombre, n.estado", form.Cypher)
}

func TestTranslateSelectQuotesStringFilterWithDoubleQuotes(t *testing.T) {
	tr := newTranslator(t)
	q := ast.Query{
		Kind:   ast.KindSelect,
		Table:  "Clientes",
		Fields: []string{"Nombre"},
		Filter: &ast.Where{Column: "Estado", Op: "=", Value: "Oaxaca"},
	}

	form, err := tr.Translate(q, testFragment())
	require.NoError(t, err)
	require.Equal(t, `MATCH (n:Cliente) WHERE n.estado = "Oaxaca" RETURN n.nombre`, form.Cypher)
}

func TestTranslateInsertQuotesPropertyStringsWithSingleQuotes(t *testing.T) {
	tr := newTranslator(t)
	q := ast.Query{
		Kind:    ast.KindInsert,
		Table:   "Clientes",
		Columns: []string{"Nombre"},
		Values:  [][]string{{"Ana"}},
	}

	form, err := tr.Translate(q, testFragment())
	require.NoError(t, err)
	require.Contains(t, form.Cypher, "nombre: 'Ana'")
	require.Contains(t, form.Cypher, "CREATE (n:Cliente)")
	require.Contains(t, form.Cypher, "RETURN count(n) as affected_rows")
}

func TestTranslateUpdateReturnsAffectedRows(t *testing.T) {
	tr := newTranslator(t)
	q := ast.Query{
		Kind:        ast.KindUpdate,
		Table:       "Clientes",
		Assignments: []ast.Assignment{{Column: "Nombre", Value: "Ana"}},
	}

	form, err := tr.Translate(q, testFragment())
	require.NoError(t, err)
	require.Equal(t, "MATCH (n:Cliente) SET n.nombre = 'Ana' RETURN count(n) as affected_rows", form.Cypher)
}

func TestTranslateDeleteWithFilter(t *testing.T) {
	tr := newTranslator(t)
	q := ast.Query{
		Kind:   ast.KindDelete,
		Table:  "Clientes",
		Filter: &ast.Where{Column: "Estado", Op: "=", Value: "Oaxaca"},
	}

	form, err := tr.Translate(q, testFragment())
	require.NoError(t, err)
	require.Equal(t, `MATCH (n:Cliente) WHERE n.estado = "Oaxaca" DELETE n RETURN count(n) as affected_rows`, form.Cypher)
}
