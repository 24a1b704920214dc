package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validDoc() Document {
	return Document{
		Tables: []TableDoc{
			{
				Name: "Clientes",
				Fields: []FieldDoc{
					{Name: "IdCliente", Type: "int"},
					{Name: "Nombre", Type: "string"},
					{Name: "Estado", Type: "string"},
				},
				Fragments: []FragmentDoc{
					{
						Name:       "clientes",
						Connection: "postgres://localhost/norte",
						Manager:    "postgres",
						Zone:       "Norte",
						Fields: []FragmentField{
							{Name: "id_cliente", Reference: "IdCliente", Type: "int"},
							{Name: "nombre", Reference: "Nombre", Type: "string"},
							{Name: "estado", Reference: "Estado", Type: "string"},
						},
					},
				},
			},
		},
	}
}

func TestCompileValidDocument(t *testing.T) {
	cat, err := Compile(validDoc())
	require.NoError(t, err)

	table, ok := cat.Tables["Clientes"]
	require.True(t, ok)
	require.True(t, table.HasField("Nombre"))
	require.False(t, table.HasField("Telefono"))

	require.Len(t, table.Fragments, 1)
	frag := table.Fragments[0]
	require.Equal(t, "clientes", frag.Name)
	require.Equal(t, ManagerPostgres, frag.Manager)
	require.Equal(t, ZoneNorte, frag.Zone)
	require.Equal(t, "id_cliente", frag.Fields["IdCliente"].Name)
}

func TestCompileRejectsTableWithoutIDField(t *testing.T) {
	doc := validDoc()
	doc.Tables[0].Fields = doc.Tables[0].Fields[1:]
	_, err := Compile(doc)
	require.Error(t, err)
	require.IsType(t, &ConfigError{}, errCause(err))
}

func TestCompileRejectsUnknownFieldType(t *testing.T) {
	doc := validDoc()
	doc.Tables[0].Fields[1].Type = "blob"
	_, err := Compile(doc)
	require.Error(t, err)
}

func TestCompileRejectsUnknownManager(t *testing.T) {
	doc := validDoc()
	doc.Tables[0].Fragments[0].Manager = "sqlite"
	_, err := Compile(doc)
	require.Error(t, err)
}

func TestCompileRejectsUnknownZone(t *testing.T) {
	doc := validDoc()
	doc.Tables[0].Fragments[0].Zone = "Oeste"
	_, err := Compile(doc)
	require.Error(t, err)
}

func TestCompileRejectsFragmentMissingIDMapping(t *testing.T) {
	doc := validDoc()
	doc.Tables[0].Fragments[0].Fields = doc.Tables[0].Fragments[0].Fields[1:]
	_, err := Compile(doc)
	require.Error(t, err)
}

func TestCompileRejectsFragmentFieldMismatch(t *testing.T) {
	doc := validDoc()
	doc.Tables[0].Fragments[0].Fields = append(doc.Tables[0].Fragments[0].Fields, FragmentField{
		Name: "extra", Reference: "NoSuchField", Type: "string",
	})
	_, err := Compile(doc)
	require.Error(t, err)
}

func errCause(err error) error {
	type causer interface{ Cause() error }
	for {
		c, ok := err.(causer)
		if !ok {
			return err
		}
		err = c.Cause()
	}
}
