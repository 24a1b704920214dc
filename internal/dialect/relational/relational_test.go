package relational

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/K0n4ta13/tesebada/internal/ast"
	"github.com/K0n4ta13/tesebada/internal/idalloc"
	"github.com/K0n4ta13/tesebada/internal/schema"
)

func testFragment() *schema.Fragment {
	return &schema.Fragment{
		Name:       "clientes",
		Manager:    schema.ManagerPostgres,
		Connection: "postgres://localhost/norte",
		Zone:       schema.ZoneNorte,
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
	return Translator{IDs: ids}
}

func TestTranslateSelectWildcard(t *testing.T) {
	tr := newTranslator(t)
	q := ast.Query{Kind: ast.KindSelect, Table: "Clientes", Fields: []string{"*"}}

	form, err := tr.Translate(q, testFragment())
	require.NoError(t, err)
	require.Equal(t, "SELECT * FROM clientes", form.SQL)
}

func TestTranslateSelectWithFilter(t *testing.T) {
	tr := newTranslator(t)
	q := ast.Query{
		Kind:   ast.KindSelect,
		Table:  "Clientes",
		Fields: []string{"Nombre"},
		Filter: &ast.Where{Column: "Estado", Op: "=", Value: "Jalisco"},
	}

	form, err := tr.Translate(q, testFragment())
	require.NoError(t, err)
	require.Equal(t, "SELECT nombre FROM clientes WHERE estado = 'Jalisco'", form.SQL)
}

func TestTranslateInsertSkipsSuppliedID(t *testing.T) {
	tr := newTranslator(t)
	q := ast.Query{
		Kind:    ast.KindInsert,
		Table:   "Clientes",
		Columns: []string{"IdCliente", "Nombre", "Estado"},
		Values:  [][]string{{"99", "Ana", "Sonora"}},
	}

	form, err := tr.Translate(q, testFragment())
	require.NoError(t, err)
	require.Contains(t, form.SQL, "INSERT INTO clientes (id_cliente,nombre,estado) VALUES")
	require.NotContains(t, form.SQL, "99")
	require.Contains(t, form.SQL, "'Ana'")
	require.Contains(t, form.SQL, "'Sonora'")
}

func TestTranslateUpdateDoesNotQuoteStrings(t *testing.T) {
	tr := newTranslator(t)
	q := ast.Query{
		Kind:        ast.KindUpdate,
		Table:       "Clientes",
		Assignments: []ast.Assignment{{Column: "Nombre", Value: "Ana"}},
		Filter:      &ast.Where{Column: "IdCliente", Op: "=", Value: "1"},
	}

	form, err := tr.Translate(q, testFragment())
	require.NoError(t, err)
	require.Equal(t, "UPDATE clientes SET nombre = Ana WHERE id_cliente = 1", form.SQL)
}

func TestTranslateDelete(t *testing.T) {
	tr := newTranslator(t)
	q := ast.Query{
		Kind:   ast.KindDelete,
		Table:  "Clientes",
		Filter: &ast.Where{Column: "Estado", Op: "=", Value: "Sonora"},
	}

	form, err := tr.Translate(q, testFragment())
	require.NoError(t, err)
	require.Equal(t, "DELETE FROM clientes WHERE estado = Sonora", form.SQL)
}

func TestTranslateUnknownFieldErrors(t *testing.T) {
	tr := newTranslator(t)
	q := ast.Query{Kind: ast.KindSelect, Table: "Clientes", Fields: []string{"NoExiste"}}

	_, err := tr.Translate(q, testFragment())
	require.Error(t, err)
}
