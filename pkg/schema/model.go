// Package schema parses semi-structured schema dumps into an in-memory model
// and renders them back as DDL-like text for prompt construction.
package schema

import (
	"fmt"
	"strings"
)

// Normalized column types. Unrecognized source types pass through uppercased,
// and parameterized types (DECIMAL(10,2)) keep their precision text, so Type
// is a plain string rather than a closed enum.
const (
	TypeInt       = "INT"
	TypeBigInt    = "BIGINT"
	TypeString    = "STRING"
	TypeDouble    = "DOUBLE"
	TypeFloat     = "FLOAT"
	TypeBoolean   = "BOOLEAN"
	TypeDate      = "DATE"
	TypeTimestamp = "TIMESTAMP"
	TypeBinary    = "BINARY"
	TypeTinyInt   = "TINYINT"
	TypeSmallInt  = "SMALLINT"
	TypeDecimal   = "DECIMAL"
	TypeArray     = "ARRAY"
	TypeMap       = "MAP"
	TypeStruct    = "STRUCT"
)

// Column is a single parsed column. Immutable once created.
type Column struct {
	Name string
	Type string
}

// Table holds columns in declaration order. Column names should be unique
// within one table; nothing enforces uniqueness across tables.
type Table struct {
	Name    string
	Columns []Column
}

// Model maps table names to tables, preserving insertion order so rendering
// is deterministic. Built fresh per request; never mutated after parsing.
type Model struct {
	names  []string
	tables map[string]*Table
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{tables: make(map[string]*Table)}
}

// AddTable registers a table name if not already present and returns it.
func (m *Model) AddTable(name string) *Table {
	if t, ok := m.tables[name]; ok {
		return t
	}
	t := &Table{Name: name}
	m.tables[name] = t
	m.names = append(m.names, name)
	return t
}

// AddColumn appends a column to the named table, creating the table if needed.
func (m *Model) AddColumn(table, column, colType string) {
	t := m.AddTable(table)
	t.Columns = append(t.Columns, Column{Name: column, Type: colType})
}

// Table returns the named table, or nil if absent.
func (m *Model) Table(name string) *Table {
	return m.tables[name]
}

// TableNames returns table names in insertion order.
func (m *Model) TableNames() []string {
	return m.names
}

// Tables returns all tables in insertion order.
func (m *Model) Tables() []*Table {
	out := make([]*Table, 0, len(m.names))
	for _, name := range m.names {
		out = append(out, m.tables[name])
	}
	return out
}

// Len returns the number of tables.
func (m *Model) Len() int {
	return len(m.names)
}

// IsEmpty reports whether the model has no tables. Callers must treat an
// empty model as a hard failure before issuing any remote calls.
func (m *Model) IsEmpty() bool {
	return len(m.names) == 0
}

// DDL renders the model as CREATE-like table blocks:
//
//	TABLE employees (
//	    emp_id INT,
//	    name STRING
//	);
//
/// Known limitation: this output round-trips through the generic pair
// strategies of Parse, not through the tree-indented ones.
func (m *Model) DDL() string {
	var sb strings.Builder
	for _, t := range m.Tables() {
		sb.WriteString("TABLE ")
		sb.WriteString(t.Name)
		sb.WriteString(" (\n")
		cols := make([]string, 0, len(t.Columns))
		for _, col := range t.Columns {
			cols = append(cols, "    "+col.Name+" "+col.Type)
		}
		sb.WriteString(strings.Join(cols, ",\n"))
		sb.WriteString("\n);\n\n")
	}
	return strings.TrimSpace(sb.String())
}

// ContextInfo renders a plain table/column listing for prompts. Identifiers
// are echoed exactly as parsed; the prompt must never normalize them.
func (m *Model) ContextInfo() string {
	var sb strings.Builder
	for _, t := range m.Tables() {
		fmt.Fprintf(&sb, "TABLE %s:\n", t.Name)
		for _, col := range t.Columns {
			fmt.Fprintf(&sb, "  - %s (%s)\n", col.Name, col.Type)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
