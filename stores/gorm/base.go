//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/panyam/humans"
)

// reference makes a join column a foreign key to the id of another table
type reference struct {
	column string
	table  string
}

type table struct {
	name  string
	model any
	refs  []reference
}

// Base is the schema registry shared by the builders of one application.
// Builders run once at start-up; a Base is read-only afterwards.
type Base struct {
	tables []table
	names  map[string]bool
}

func NewBase() *Base {
	return &Base{names: map[string]bool{}}
}

func (b *Base) register(name string, model any, refs ...reference) error {
	if b.names[name] {
		return fmt.Errorf("%w: %s", humans.ErrTableRegistered, name)
	}
	b.names[name] = true
	b.tables = append(b.tables, table{name: name, model: model, refs: refs})
	slog.Debug("registered table", "table", name)
	return nil
}

// Tables returns the registered table names in registration order
func (b *Base) Tables() []string {
	names := make([]string, len(b.tables))
	for i, t := range b.tables {
		names[i] = t.name
	}
	return names
}

// HasTable reports whether a table with this name is registered
func (b *Base) HasTable(name string) bool {
	return b.names[name]
}

// Migrate creates or updates every registered table. Join tables are
// created with foreign keys to the tables they link, deleting links when
// either side is deleted.
func (b *Base) Migrate(ctx context.Context, db *gorm.DB) error {
	for _, t := range b.tables {
		tx := db.WithContext(ctx)
		if len(t.refs) > 0 && !tx.Migrator().HasTable(t.name) {
			if err := createLinkTable(tx, t); err != nil {
				return fmt.Errorf("failed to create %s: %w", t.name, err)
			}
		}
		if err := tx.Table(t.name).AutoMigrate(t.model); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", t.name, err)
		}
		slog.Info("migrated table", "table", t.name)
	}
	return nil
}

// createLinkTable issues the CREATE TABLE for a join table. GORM names
// constraint targets after model types, so references to per-schema table
// names are built here.
func createLinkTable(tx *gorm.DB, t table) error {
	stmt := &gorm.Statement{DB: tx}
	if err := stmt.ParseWithSpecialTableName(t.model, t.name); err != nil {
		return err
	}

	var (
		sql  strings.Builder
		vars = []any{clause.Table{Name: t.name}}
		keys = make([]any, 0, len(stmt.Schema.PrimaryFields))
	)
	sql.WriteString("CREATE TABLE ? (")
	for _, field := range stmt.Schema.PrimaryFields {
		sql.WriteString("? ?,")
		vars = append(vars, clause.Column{Name: field.DBName}, tx.Migrator().FullDataTypeOf(field))
		keys = append(keys, clause.Column{Name: field.DBName})
	}
	sql.WriteString("PRIMARY KEY ?")
	vars = append(vars, keys)

	for _, ref := range t.refs {
		sql.WriteString(",CONSTRAINT ? FOREIGN KEY ? REFERENCES ?? ON DELETE CASCADE")
		vars = append(vars,
			clause.Table{Name: "fk_" + t.name + "_" + ref.column},
			[]any{clause.Column{Name: ref.column}},
			clause.Table{Name: ref.table},
			[]any{clause.Column{Name: "id"}})
	}
	sql.WriteString(")")
	return tx.Exec(sql.String(), vars...).Error
}
