package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adwall/config"
)

func TestSplitStatements(t *testing.T) {
	script := `-- comment
CREATE TABLE a (
    id INT
);

-- another
INSERT INTO a VALUES (1);
;
SELECT 1`
	got := SplitStatements(script)
	require.Len(t, got, 3)
	assert.Equal(t, "CREATE TABLE a (\n    id INT\n)", got[0])
	assert.Equal(t, "INSERT INTO a VALUES (1)", got[1])
	assert.Equal(t, "SELECT 1", got[2])
}

func TestEmbeddedMigrationsSplitIntoStatements(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	var all []string
	for _, e := range entries {
		data, err := migrationsFS.ReadFile("migrations/" + e.Name())
		require.NoError(t, err)
		all = append(all, SplitStatements(string(data))...)
	}
	for _, stmt := range all {
		assert.False(t, strings.HasSuffix(stmt, ";"), stmt)
	}
	joined := strings.Join(all, "\n")
	for _, table := range []string{"ad_type", "form_config", "ad", "video"} {
		assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, joined, "ON DELETE CASCADE")
}

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 3306, User: "u", Password: "p", DBName: "adwall"}
	assert.Equal(t, "u:p@tcp(db:3306)/adwall?charset=utf8mb4&parseTime=true&loc=Local&clientFoundRows=true", DSN(cfg, true))
	assert.True(t, strings.HasPrefix(DSN(cfg, false), "u:p@tcp(db:3306)/?"))
}
