package store

import (
	"fmt"
	"strings"
)

// ColumnType is the storage type of a column. Both backends map it to a
// native type of the same name.
type ColumnType string

const (
	ColumnText    ColumnType = "TEXT"
	ColumnInteger ColumnType = "INTEGER"
)

// Column describes one column of a bulk-loaded table.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Table describes a bulk-loaded table and its lookup index.
type Table struct {
	Name         string
	Columns      []Column
	IndexName    string
	IndexColumns []string
}

var (
	AliasTable = Table{
		Name: "alias",
		Columns: []Column{
			{Name: "protein_id", Type: ColumnText},
			{Name: "alias", Type: ColumnText},
			{Name: "source", Type: ColumnText},
		},
		IndexName:    "idx_alias",
		IndexColumns: []string{"protein_id", "alias"},
	}

	EvidenceTable = Table{
		Name: "evidence",
		Columns: []Column{
			{Name: "protein1", Type: ColumnText},
			{Name: "protein2", Type: ColumnText},
			{Name: "neighborhood", Type: ColumnInteger},
			{Name: "fusion", Type: ColumnInteger},
			{Name: "cooccurence", Type: ColumnInteger},
			{Name: "coexpression", Type: ColumnInteger},
			{Name: "experimental", Type: ColumnInteger},
			{Name: "database", Type: ColumnInteger},
			{Name: "textmining", Type: ColumnInteger},
			{Name: "combined_score", Type: ColumnInteger},
		},
		IndexName:    "idx_evidence",
		IndexColumns: []string{"protein1", "combined_score"},
	}

	ActionsTable = Table{
		Name: "actions",
		Columns: []Column{
			{Name: "item_id_a", Type: ColumnText},
			{Name: "item_id_b", Type: ColumnText},
			{Name: "mode", Type: ColumnText},
			{Name: "action", Type: ColumnText, Nullable: true},
			{Name: "is_directional", Type: ColumnInteger},
			{Name: "a_is_acting", Type: ColumnInteger},
			{Name: "score", Type: ColumnInteger},
		},
		IndexName:    "idx_actions",
		IndexColumns: []string{"item_id_a", "score"},
	}
)

// ColumnNames returns the column names of t in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Identifiers are always double-quoted: "database" and "action" are
// keywords in at least one of the supported dialects.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuotedColumns returns the quoted, comma-separated column list of t.
func (t Table) QuotedColumns() string {
	quoted := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		quoted[i] = quoteIdent(c.Name)
	}
	return strings.Join(quoted, ", ")
}

// DropSQL returns the statement dropping t.
func (t Table) DropSQL() string {
	return "DROP TABLE IF EXISTS " + quoteIdent(t.Name)
}

// CreateSQL returns the statement creating t without its index.
func (t Table) CreateSQL() string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		def := quoteIdent(c.Name) + " " + string(c.Type)
		if !c.Nullable {
			def += " NOT NULL"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(t.Name), strings.Join(defs, ", "))
}

// IndexSQL returns the statement creating the lookup index of t.
func (t Table) IndexSQL() string {
	cols := make([]string, len(t.IndexColumns))
	for i, c := range t.IndexColumns {
		cols[i] = quoteIdent(c)
	}
	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		quoteIdent(t.IndexName), quoteIdent(t.Name), strings.Join(cols, ", "),
	)
}

// InsertSQL returns a single-row insert statement for t. placeholder
// renders the i-th (1-based) bind parameter of the target dialect.
func (t Table) InsertSQL(placeholder func(i int) string) string {
	params := make([]string, len(t.Columns))
	for i := range t.Columns {
		params[i] = placeholder(i + 1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(t.Name), t.QuotedColumns(), strings.Join(params, ", "),
	)
}
