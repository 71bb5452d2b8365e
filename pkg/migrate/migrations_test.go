package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/codcrm-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.NotEmptyf(t, matches, "no %s migration found", suffix)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func assertContainsAll(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestLeadsMigrationKeepsCallNotesWeak(t *testing.T) {
	content := readMigration(t, "create_leads")
	assertContainsAll(t, content, []string{
		"CREATE TABLE IF NOT EXISTS call_notes",
		"FOREIGN KEY (lead_id) REFERENCES leads(id) ON DELETE CASCADE",
		"FOREIGN KEY (assigned_to) REFERENCES users(id) ON DELETE SET NULL",
		"CHECK (duration_seconds >= 0)",
	})
	assert.NotContains(t, content, "FOREIGN KEY (agent_id)")
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	assertContainsAll(t, readMigration(t, "create_orders"), []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_number ON orders (number)",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CHECK (quantity >= 1)",
		"CHECK (discount >= 0 AND discount <= quantity * unit_price)",
		"DROP TABLE IF EXISTS orders",
	})
}

func TestShippingMigrationContainsConstraints(t *testing.T) {
	assertContainsAll(t, readMigration(t, "create_shipping"), []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_shipments_order_id ON shipments (order_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_shipments_tracking_number ON shipments (tracking_number)",
		"FOREIGN KEY (bordereau_id) REFERENCES bordereaux(id) ON DELETE SET NULL",
		"FOREIGN KEY (shipment_id) REFERENCES shipments(id) ON DELETE CASCADE",
		"FOREIGN KEY (bordereau_id) REFERENCES bordereaux(id) ON DELETE CASCADE",
	})
}

func TestFinanceMigrationHasNoStoredCostPerLead(t *testing.T) {
	content := readMigration(t, "create_finance")
	assertContainsAll(t, content, []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_daily_ad_spend_key ON daily_ad_spends (date, platform, campaign)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_blacklists_phone ON blacklists (phone)",
		"CHECK (cod_fee_percent >= 0 AND cod_fee_percent <= 100)",
	})
	assert.NotContains(t, content, "cost_per_lead")
	assert.NotContains(t, content, "FOREIGN KEY (order_id)")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

	path, err := migrate.CreateSQLMigration(dir, "Add Courier Zones!", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20240601123000_add_courier_zones.sql"), path)
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "add courier zones", now)
	assert.Error(t, err)

	_, err = migrate.CreateSQLMigration(dir, "!!!", now)
	assert.Error(t, err)
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, migrate.ValidateDir(dir))

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000_init.sql"), []byte("-- +goose Up\n"), 0o644))
	assert.Error(t, migrate.ValidateDir(dir))
}
