package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer

	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--catalog-source=embedded", "--quote-store=file", "--data-dir=" + dataDir, "--log-level=warn"}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestProductsCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, t.TempDir(), "products", "--search", "MICROSCOPE")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "ms-002"))
	assert.True(t, strings.HasPrefix(lines[2], "ms-001"))
	assert.Equal(t, "Showing 2 of 30 products", lines[3])
}

func TestUnknownSortIsRejected(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()

	_, err := run(t, dir, "products", "--sort", "nme-asc")
	assert.ErrorContains(t, err, "unknown sort option")

	_, err = run(t, dir, "categories", "--sort", "nme-asc")
	assert.ErrorContains(t, err, "unknown sort option")

	out, err := run(t, dir, "products", "--sort", "none")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 30 of 30 products")
}

func TestCategoriesCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, t.TempDir(), "categories", "--category", "laboratory", "--featured")

	require.NoError(t, err)
	assert.Contains(t, out, "centrifuges")
	assert.Contains(t, out, "Laboratory")
	assert.NotContains(t, out, "lab-glassware")
	assert.Contains(t, out, "Showing 3 of 17 categories")
}

func TestCategoryCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()

	out, err := run(t, dir, "category", "ecg-machines", "--subcategory", "Portable ECG")
	require.NoError(t, err)
	assert.Contains(t, out, "ECG Machines")
	assert.Contains(t, out, "Main category: Medical")
	assert.Contains(t, out, "ecg-002")
	assert.NotContains(t, out, "ecg-001")
	assert.Contains(t, out, "Showing 1 of 3 products")

	_, err = run(t, dir, "category", "veterinary")
	assert.ErrorContains(t, err, "unknown category")
}

func TestQuoteCommandsPersistBetweenRuns(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()

	_, err := run(t, dir, "quote", "add", "ecg-001")
	require.NoError(t, err)
	_, err = run(t, dir, "quote", "add", "ecg-001")
	require.NoError(t, err)
	_, err = run(t, dir, "quote", "add", "pm-001")
	require.NoError(t, err)

	out, err := run(t, dir, "quote", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Total items: 3")
	assert.Contains(t, out, "Request: CardioMax 12-Channel ECG (x2), VitalWatch Pro Bedside Monitor (x1)")

	out, err = run(t, dir, "quote", "set", "ecg-001", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Total items: 1")

	_, err = run(t, dir, "quote", "set", "pm-001", "many")
	assert.ErrorContains(t, err, "invalid quantity")

	_, err = run(t, dir, "quote", "add", "nope")
	assert.ErrorContains(t, err, "unknown product")

	out, err = run(t, dir, "quote", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "empty")
}

func TestImportAndCheckCommands(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	target := filepath.Join(dir, "export", "catalog.json")

	out, err := run(t, dir, "import", "--to", "file", "--out", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Products: 30")
	_, err = os.Stat(target)
	require.NoError(t, err)

	out, err = run(t, dir, "--catalog-source=file", "--catalog-path="+target, "check", "--strict")
	require.NoError(t, err)
	assert.Contains(t, out, "No integrity issues")

	_, err = run(t, dir, "import", "--to", "s3")
	assert.ErrorContains(t, err, "unknown import target")
}

func TestCorruptQuoteFileDoesNotBreakCommands(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.json"), []byte("{not json"), 0o644))

	out, err := run(t, dir, "products", "--search", "microscope")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 2 of 30 products")

	out, err = run(t, dir, "quote", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "empty")

	out, err = run(t, dir, "quote", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "empty")

	out, err = run(t, dir, "quote", "add", "pm-001")
	require.NoError(t, err)
	assert.Contains(t, out, "Total items: 1")

	data, err := os.ReadFile(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "pm-001")
}
