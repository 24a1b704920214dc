// Package zonemap holds the static, process-wide mapping from Mexican
// state names to the coordinator's three geographic zones. The mapping
// is closed: a state absent from all three sets has no zone.
package zonemap

import "github.com/K0n4ta13/tesebada/internal/schema"

var norte = map[string]struct{}{
	"Baja California":     {},
	"Baja California Sur": {},
	"Sonora":              {},
	"Chihuahua":           {},
	"Coahuila de Zaragoza": {},
	"Nuevo León":           {},
	"Tamaulipas":           {},
	"Durango":              {},
	"Sinaloa":              {},
}

var centro = map[string]struct{}{
	"Aguascalientes":       {},
	"Zacatecas":            {},
	"San Luis Potosí":      {},
	"Nayarit":              {},
	"Jalisco":              {},
	"Colima":               {},
	"Michoacán de Ocampo":  {},
	"Guanajuato":           {},
	"Querétaro":            {},
	"Hidalgo":              {},
	"México":               {},
	"Ciudad de México":     {},
	"Tlaxcala":             {},
	"Puebla":               {},
	"Morelos":              {},
}

var sur = map[string]struct{}{
	"Guerrero":                         {},
	"Oaxaca":                           {},
	"Chiapas":                          {},
	"Veracruz de Ignacio de la Llave":  {},
	"Tabasco":                          {},
	"Campeche":                         {},
	"Yucatán":                          {},
	"Quintana Roo":                     {},
}

// Lookup maps a state literal to its zone. ok is false when the state
// is not a member of any of the three closed sets.
func Lookup(estado string) (zone schema.Zone, ok bool) {
	if _, found := norte[estado]; found {
		return schema.ZoneNorte, true
	}
	if _, found := centro[estado]; found {
		return schema.ZoneCentro, true
	}
	if _, found := sur[estado]; found {
		return schema.ZoneSur, true
	}
	return "", false
}

// EstadoColumn is the logical column name the router inspects to
// partition INSERT rows and to resolve an implicit WHERE-based zone
// restriction.
const EstadoColumn = "Estado"
