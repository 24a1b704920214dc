package router_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/K0n4ta13/tesebada/internal/ast"
	"github.com/K0n4ta13/tesebada/internal/coordtest"
	"github.com/K0n4ta13/tesebada/internal/schema"
)

func testCatalog() *schema.Catalog {
	fields := []schema.Field{
		{Name: "IdCliente", Type: schema.TypeInt},
		{Name: "Nombre", Type: schema.TypeString},
		{Name: "Estado", Type: schema.TypeString},
	}

	mkFragment := func(name string, zone schema.Zone, manager schema.Manager) *schema.Fragment {
		return &schema.Fragment{
			Name:       name,
			Manager:    manager,
			Connection: "conn://" + string(zone),
			Zone:       zone,
			Fields: map[string]schema.FragmentFieldInfo{
				"IdCliente": {Name: "id_cliente", Type: schema.TypeInt},
				"Nombre":    {Name: "nombre", Type: schema.TypeString},
				"Estado":    {Name: "estado", Type: schema.TypeString},
			},
		}
	}

	table := &schema.Table{
		Name:   "Clientes",
		Fields: fields,
		Fragments: []*schema.Fragment{
			mkFragment("clientes_norte", schema.ZoneNorte, schema.ManagerPostgres),
			mkFragment("clientes_centro", schema.ZoneCentro, schema.ManagerMongo),
			mkFragment("clientes_sur", schema.ZoneSur, schema.ManagerNeo4j),
		},
	}

	return &schema.Catalog{Tables: map[string]*schema.Table{"Clientes": table}}
}

func TestInsertPartitionsRowsAcrossAllZones(t *testing.T) {
	fx := coordtest.NewFixture(testCatalog())
	defer fx.Close()

	q := ast.Query{
		Kind:    ast.KindInsert,
		Table:   "Clientes",
		Columns: []string{"Nombre", "Estado"},
		Values: [][]string{
			{"Ana", "Sonora"},     // Norte
			{"Beto", "Jalisco"},   // Centro
			{"Caro", "Oaxaca"},    // Sur
			{"Dani", "Chihuahua"}, // Norte
		},
	}

	result, err := fx.Coordinator.Execute(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, int64(4), result.N)

	require.Len(t, fx.Backends["clientes_norte"].Committed, 1)
	require.Len(t, fx.Backends["clientes_norte"].Committed[0].Values, 2)
	require.Len(t, fx.Backends["clientes_centro"].Committed[0].Values, 1)
	require.Len(t, fx.Backends["clientes_sur"].Committed[0].Values, 1)
}

func TestInsertUnknownStateErrors(t *testing.T) {
	fx := coordtest.NewFixture(testCatalog())
	defer fx.Close()

	q := ast.Query{
		Kind:    ast.KindInsert,
		Table:   "Clientes",
		Columns: []string{"Nombre", "Estado"},
		Values:  [][]string{{"Ana", "Atlantis"}},
	}

	_, err := fx.Coordinator.Execute(context.Background(), q)
	require.Error(t, err)
}

func TestSelectNarrowsByExplicitZone(t *testing.T) {
	fx := coordtest.NewFixture(testCatalog())
	defer fx.Close()
	fx.Backends["clientes_norte"].SelectRow = [][]ast.Value{{ast.StrValue("Ana")}}

	q := ast.Query{Kind: ast.KindSelect, Table: "Clientes", Fields: []string{"Nombre"}, Zones: []string{"Norte"}}

	result, err := fx.Coordinator.Execute(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	// A SELECT never reaches the commit phase: every participant,
	// including the one that answered, rolls back.
	require.Equal(t, 1, fx.Backends["clientes_norte"].Rolled)
	require.Empty(t, fx.Backends["clientes_centro"].Committed)
}

func TestSelectNarrowsByImplicitEstadoFilter(t *testing.T) {
	fx := coordtest.NewFixture(testCatalog())
	defer fx.Close()
	fx.Backends["clientes_centro"].SelectRow = [][]ast.Value{{ast.StrValue("Beto")}}

	q := ast.Query{
		Kind:   ast.KindSelect,
		Table:  "Clientes",
		Fields: []string{"Nombre"},
		Filter: &ast.Where{Column: "Estado", Op: "=", Value: "Jalisco"},
	}

	result, err := fx.Coordinator.Execute(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, [][]ast.Value{{ast.StrValue("Beto")}}, result.Rows)
}

func TestSelectBroadcastsWithoutZoneOrFilter(t *testing.T) {
	fx := coordtest.NewFixture(testCatalog())
	defer fx.Close()
	fx.Backends["clientes_norte"].SelectRow = [][]ast.Value{{ast.StrValue("Ana")}}
	fx.Backends["clientes_centro"].SelectRow = [][]ast.Value{{ast.StrValue("Beto")}}
	fx.Backends["clientes_sur"].SelectRow = [][]ast.Value{{ast.StrValue("Caro")}}

	q := ast.Query{Kind: ast.KindSelect, Table: "Clientes", Fields: []string{"Nombre"}}

	result, err := fx.Coordinator.Execute(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)
}

func TestUpdateAbortsEverythingWhenOneFragmentFails(t *testing.T) {
	fx := coordtest.NewFixture(testCatalog())
	defer fx.Close()
	fx.Backends["clientes_sur"].Fail = true

	q := ast.Query{
		Kind:        ast.KindUpdate,
		Table:       "Clientes",
		Assignments: []ast.Assignment{{Column: "Nombre", Value: "Ana"}},
	}

	_, err := fx.Coordinator.Execute(context.Background(), q)
	require.Error(t, err)
	require.Empty(t, fx.Backends["clientes_norte"].Committed)
	require.Empty(t, fx.Backends["clientes_centro"].Committed)
}

func TestDeleteTimesOutAndAbortsAll(t *testing.T) {
	fx := coordtest.NewFixture(testCatalog())
	defer fx.Close()
	fx.Coordinator.Timeout = 50 * time.Millisecond
	fx.Backends["clientes_norte"].Hang = true

	q := ast.Query{Kind: ast.KindDelete, Table: "Clientes"}

	_, err := fx.Coordinator.Execute(context.Background(), q)
	require.Error(t, err)
}
