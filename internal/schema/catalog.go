// Copyright 2023 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"github.com/pkg/errors"
)

// FieldType is one of the four semantic field types the language knows
// about.
type FieldType int

const (
	TypeInt FieldType = iota
	TypeFloat
	TypeBool
	TypeString
)

// ParseFieldType maps a configuration string onto a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	switch s {
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "bool":
		return TypeBool, nil
	case "string":
		return TypeString, nil
	default:
		return 0, errors.Errorf("unknown field type %q", s)
	}
}

// Manager identifies which backend driver a fragment lives on.
type Manager int

const (
	ManagerPostgres Manager = iota
	ManagerMongo
	ManagerNeo4j
)

// ParseManager maps a configuration string onto a Manager.
func ParseManager(s string) (Manager, error) {
	switch s {
	case "postgres":
		return ManagerPostgres, nil
	case "mongo":
		return ManagerMongo, nil
	case "neo4j":
		return ManagerNeo4j, nil
	default:
		return 0, errors.Errorf("unknown backend manager %q", s)
	}
}

func (m Manager) String() string {
	switch m {
	case ManagerPostgres:
		return "postgres"
	case ManagerMongo:
		return "mongo"
	case ManagerNeo4j:
		return "neo4j"
	default:
		return "unknown"
	}
}

// Zone is one of the three closed geographic partitions.
type Zone string

const (
	ZoneNorte  Zone = "Norte"
	ZoneCentro Zone = "Centro"
	ZoneSur    Zone = "Sur"
)

// ParseZone validates s against the closed set of zone labels.
func ParseZone(s string) (Zone, error) {
	switch Zone(s) {
	case ZoneNorte, ZoneCentro, ZoneSur:
		return Zone(s), nil
	default:
		return "", errors.Errorf("unknown zone %q", s)
	}
}

// IDField is the synthetic primary key every logical table must carry.
const IDField = "IdCliente"

// Field is one logical column of a table, in declaration order.
type Field struct {
	Name string
	Type FieldType
}

// FragmentFieldInfo is the compiled form of FragmentField: a logical
// field's backend-local name and declared type, within one fragment.
type FragmentFieldInfo struct {
	Name string
	Type FieldType
}

// Fragment is one physical shard of a Table. Name is the real
// table/collection/label the backend stores it under, used directly in
// every generated SQL/Cypher statement and Mongo collection lookup.
// Connection is the backend's connection URL, used only to decide
// which physical connections the wiring layer opens and shares across
// fragments — it never appears in generated query text.
type Fragment struct {
	Name       string
	Manager    Manager
	Connection string
	Zone       Zone
	// Fields maps logical field name (the reference) to its
	// backend-local name/type within this fragment.
	Fields map[string]FragmentFieldInfo
}

// Table is one logical table: its ordered field list plus every
// fragment that shards it.
type Table struct {
	Name      string
	Fields    []Field
	fieldSet  map[string]FieldType
	Fragments []*Fragment
}

// HasField reports whether name is a declared field of the table.
func (t *Table) HasField(name string) bool {
	_, ok := t.fieldSet[name]
	return ok
}

// FieldType returns the declared type of name and whether it exists.
func (t *Table) FieldType(name string) (FieldType, bool) {
	ft, ok := t.fieldSet[name]
	return ft, ok
}

// Catalog is the fully validated, immutable schema for the process
// lifetime. It is safe to read concurrently from any goroutine.
type Catalog struct {
	Tables map[string]*Table
}

// ConfigError marks a failure that should abort startup before the
// REPL ever runs: a malformed or internally inconsistent schema.toml.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

func configErrorf(format string, args ...interface{}) error {
	return errors.WithStack(&ConfigError{msg: errors.Errorf(format, args...).Error()})
}

// Compile validates doc against the invariants in spec.md §3.1 and
// returns the immutable Catalog, or a *ConfigError describing the
// first violation found.
func Compile(doc Document) (*Catalog, error) {
	cat := &Catalog{Tables: make(map[string]*Table, len(doc.Tables))}

	for _, td := range doc.Tables {
		if td.Name == "" {
			return nil, configErrorf("table with empty name")
		}
		table := &Table{Name: td.Name, fieldSet: make(map[string]FieldType, len(td.Fields))}

		hasID := false
		for _, fd := range td.Fields {
			ft, err := ParseFieldType(fd.Type)
			if err != nil {
				return nil, configErrorf("table %q field %q: %s", td.Name, fd.Name, err)
			}
			if fd.Name == IDField {
				hasID = true
			}
			table.Fields = append(table.Fields, Field{Name: fd.Name, Type: ft})
			table.fieldSet[fd.Name] = ft
		}
		if !hasID {
			return nil, configErrorf("table %q does not declare a %s field", td.Name, IDField)
		}

		for _, frd := range td.Fragments {
			manager, err := ParseManager(frd.Manager)
			if err != nil {
				return nil, configErrorf("table %q fragment %q: %s", td.Name, frd.Name, err)
			}
			zone, err := ParseZone(frd.Zone)
			if err != nil {
				return nil, configErrorf("table %q fragment %q: %s", td.Name, frd.Name, err)
			}

			fragment := &Fragment{
				Name:       frd.Name,
				Manager:    manager,
				Connection: frd.Connection,
				Zone:       zone,
				Fields:     make(map[string]FragmentFieldInfo, len(frd.Fields)),
			}

			references := make(map[string]struct{}, len(frd.Fields))
			for _, ffd := range frd.Fields {
				ft, err := ParseFieldType(ffd.Type)
				if err != nil {
					return nil, configErrorf("table %q fragment %q field %q: %s", td.Name, frd.Name, ffd.Reference, err)
				}
				references[ffd.Reference] = struct{}{}
				fragment.Fields[ffd.Reference] = FragmentFieldInfo{Name: ffd.Name, Type: ft}
			}

			if !sameKeys(references, table.fieldSet) {
				return nil, configErrorf(
					"table %q fragment %q: fragment field references do not match table fields",
					td.Name, frd.Name)
			}
			if _, ok := fragment.Fields[IDField]; !ok {
				return nil, configErrorf("table %q fragment %q does not map %s", td.Name, frd.Name, IDField)
			}

			table.Fragments = append(table.Fragments, fragment)
		}

		cat.Tables[td.Name] = table
	}

	return cat, nil
}

func sameKeys(a map[string]struct{}, b map[string]FieldType) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
