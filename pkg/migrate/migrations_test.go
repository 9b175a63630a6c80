package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/citypulse-backend/pkg/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestTriggerHistoryMigrationContainsCooldownIndexes(t *testing.T) {
	content := readMigration(t, "*_create_trigger_history.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS trigger_history",
		"CREATE INDEX IF NOT EXISTS idx_trigger_history_user_type_at ON trigger_history (user_id, trigger_type, triggered_at)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_trigger_cooldowns_user_type ON trigger_cooldowns (user_id, trigger_type)",
		"DROP TABLE IF EXISTS trigger_cooldowns",
	}
	for _, sub := range checks {
		assert.Contains(t, content, sub)
	}
}

func TestNotificationHistoryMigrationContainsColumns(t *testing.T) {
	content := readMigration(t, "*_create_notification_history.sql")

	for _, column := range []string{"trigger_condition", "location_info", "status", "sent_at", "read_at"} {
		assert.Contains(t, content, column)
	}
}

func TestTriggerStrategyStatesMigrationKeysByType(t *testing.T) {
	content := readMigration(t, "*_create_trigger_strategy_states.sql")

	assert.Contains(t, content, "CREATE TABLE IF NOT EXISTS trigger_strategy_states")
	assert.Contains(t, content, "trigger_type TEXT PRIMARY KEY")
	assert.Contains(t, content, "DROP TABLE IF EXISTS trigger_strategy_states")
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Rain Index!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_rain_index.sql"))
	require.NoError(t, migrate.ValidateDir(dir))
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, migrate.ValidateDir(dir))
}

func TestDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", migrate.Dialect("sqlite"))
	assert.Equal(t, "postgres", migrate.Dialect("postgres"))
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no migration matching %s", pattern)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}
