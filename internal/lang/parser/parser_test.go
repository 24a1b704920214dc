package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/K0n4ta13/tesebada/internal/ast"
)

func TestParseSelectStar(t *testing.T) {
	q, err := Parse("SELECT * FROM Clientes;")
	require.NoError(t, err)
	require.Equal(t, ast.Query{
		Kind:   ast.KindSelect,
		Table:  "Clientes",
		Fields: []string{"*"},
	}, q)
}

func TestParseSelectWithFieldsAndWhere(t *testing.T) {
	q, err := Parse("SELECT Nombre, Estado FROM Clientes WHERE Estado = 'Norte';")
	require.NoError(t, err)
	require.Equal(t, []string{"Nombre", "Estado"}, q.Fields)
	require.Equal(t, &ast.Where{Column: "Estado", Op: "=", Value: "Norte"}, q.Filter)
}

func TestParseSelectWithZoneClause(t *testing.T) {
	q, err := Parse("SELECT * FROM Clientes ZONE = ['Norte', 'Sur'];")
	require.NoError(t, err)
	require.Equal(t, []string{"Norte", "Sur"}, q.Zones)
	require.Nil(t, q.Filter)
}

func TestParseInsertMultiRow(t *testing.T) {
	q, err := Parse("INSERT INTO Clientes (Nombre, Estado) VALUES ('Ana', 'Norte'), ('Beto', 'Sur');")
	require.NoError(t, err)
	require.Equal(t, ast.KindInsert, q.Kind)
	require.Equal(t, []string{"Nombre", "Estado"}, q.Columns)
	require.Equal(t, [][]string{{"Ana", "Norte"}, {"Beto", "Sur"}}, q.Values)
}

func TestParseInsertWithBoolLiterals(t *testing.T) {
	q, err := Parse("INSERT INTO Clientes (Activo) VALUES (true);")
	require.NoError(t, err)
	require.Equal(t, [][]string{{"true"}}, q.Values)
}

func TestParseUpdateWithWhere(t *testing.T) {
	q, err := Parse("UPDATE Clientes SET Nombre = 'Ana' WHERE IdCliente = 1;")
	require.NoError(t, err)
	require.Equal(t, []ast.Assignment{{Column: "Nombre", Value: "Ana"}}, q.Assignments)
	require.Equal(t, &ast.Where{Column: "IdCliente", Op: "=", Value: "1"}, q.Filter)
}

func TestParseUpdateMultipleAssignments(t *testing.T) {
	q, err := Parse("UPDATE Clientes SET Nombre = 'Ana', Estado = 'Sur';")
	require.NoError(t, err)
	require.Equal(t, []ast.Assignment{
		{Column: "Nombre", Value: "Ana"},
		{Column: "Estado", Value: "Sur"},
	}, q.Assignments)
}

func TestParseDeleteWithWhere(t *testing.T) {
	q, err := Parse("DELETE FROM Clientes WHERE Estado = 'Centro';")
	require.NoError(t, err)
	require.Equal(t, ast.KindDelete, q.Kind)
	require.Equal(t, "Clientes", q.Table)
	require.Equal(t, &ast.Where{Column: "Estado", Op: "=", Value: "Centro"}, q.Filter)
}

func TestParseMissingSemicolonErrors(t *testing.T) {
	_, err := Parse("SELECT * FROM Clientes")
	require.Error(t, err)
}

func TestParseUnknownLeadingKeywordErrors(t *testing.T) {
	_, err := Parse("DROP Clientes;")
	require.Error(t, err)
}

func TestParseInvalidFilterColumnErrors(t *testing.T) {
	_, err := Parse("SELECT * FROM Clientes WHERE 1 = 'Norte';")
	require.Error(t, err)
}
