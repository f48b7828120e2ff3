package persistence

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"

	"github.com/openmarket/backend/internal/domain/inventory"
	"github.com/openmarket/backend/internal/domain/order"
	"github.com/openmarket/backend/internal/domain/proxy"
	"github.com/openmarket/backend/internal/domain/store"
)

// Every column GORM writes for a model must exist in that model's migrated
// table, or inserts fail only at runtime against a real database. This
// guards the DDL against model drift without needing Postgres.
func TestMigrationsCoverModelColumns(t *testing.T) {
	tables := migrationTables(t)

	models := []interface{}{
		&store.Store{},
		&inventory.InventoryRecord{},
		&order.Order{},
		&order.Line{},
		&order.Requirement{},
		&proxy.ProxyOrder{},
	}

	cache := &sync.Map{}
	for _, model := range models {
		s, err := schema.Parse(model, cache, schema.NamingStrategy{})
		require.NoError(t, err)

		body, ok := tables[s.Table]
		require.True(t, ok, "no CREATE TABLE for %s in migrations", s.Table)

		for _, column := range s.DBNames {
			pattern := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(column) + `\s`)
			require.True(t, pattern.MatchString(body),
				"table %s is missing column %s", s.Table, column)
		}
	}
}

// migrationTables returns table name -> CREATE TABLE body for all up
// migrations
func migrationTables(t *testing.T) map[string]string {
	t.Helper()
	dir := filepath.Join("..", "..", "..", "migrations")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var ddl strings.Builder
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		require.NoError(t, err)
		ddl.Write(data)
		ddl.WriteString("\n")
	}

	tables := make(map[string]string)
	chunks := strings.Split(strings.ToLower(ddl.String()), "create table if not exists ")
	for _, chunk := range chunks[1:] {
		end := strings.Index(chunk, ");")
		require.Greater(t, end, 0, "unterminated CREATE TABLE near %q", chunk[:40])
		name := chunk[:strings.IndexAny(chunk, " (\n")]
		tables[name] = chunk[:end]
	}
	return tables
}
