package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func sqliteConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "logging:\n  level: error\ndatabase:\n  driver: sqlite\n  sqlite:\n    path: " + filepath.Join(dir, "sales.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSay_Memory(t *testing.T) {
	out, err := run(t, "", "--memory", "--config", sqliteConfig(t), "say", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "BiasharaBot")
}

func TestChat_KeepsStateAcrossLines(t *testing.T) {
	stdin := "sale 2 soap @50\nsummary\n\nexit\nsale 1 soap @50\n"
	out, err := run(t, stdin, "--memory", "--config", sqliteConfig(t), "chat")
	require.NoError(t, err)

	assert.Contains(t, out, "2 soap @ 50 = KES 100")
	assert.Contains(t, out, "KES 100\n")
	// nothing after "exit" is read
	assert.Equal(t, 1, strings.Count(out, "Sale recorded"))
}

func TestRestockThenSay_PersistsInSQLite(t *testing.T) {
	cfg := sqliteConfig(t)

	out, err := run(t, "", "--config", cfg, "restock", "Soap", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "Restocked soap: +10 items (now 10)")

	out, err = run(t, "", "--config", cfg, "say", "sale", "7", "soap", "@50")
	require.NoError(t, err)
	assert.Contains(t, out, "LOW STOCK ALERT: soap has only 3 left!")

	out, err = run(t, "", "--config", cfg, "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "KES 350")
	assert.Contains(t, out, "soap: 3")
}

func TestRestock_InvalidQuantity(t *testing.T) {
	_, err := run(t, "", "--memory", "restock", "soap", "-2")
	assert.Error(t, err)
	_, err = run(t, "", "--memory", "restock", "soap")
	assert.Error(t, err)
}

func TestDashboard_InvalidDate(t *testing.T) {
	_, err := run(t, "", "--memory", "--config", sqliteConfig(t), "dashboard", "--date", "14/10/2026")
	assert.Error(t, err)
}

func TestReport_EmailNotEnabled(t *testing.T) {
	_, err := run(t, "", "--memory", "--config", sqliteConfig(t), "report", "--email")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report_email")
}

func TestCatalogCheck(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(good, []byte("intents:\n  - patterns: [hujambo]\n    response: Sijambo!\n"), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte(`{"intents":[{"patterns":[],"response":"x"}]}`), 0o600))

	out, err := run(t, "", "catalog", "check", good)
	require.NoError(t, err)
	assert.Contains(t, out, "1 intents")

	_, err = run(t, "", "catalog", "check", bad)
	assert.Error(t, err)
}
