package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/stockroom/internal/product"
)

// InventoryFileName is the file name used by WriteInventory.
const InventoryFileName = "inventory.csv"

// MustProduct builds a product or fails the test.
func MustProduct(t testing.TB, id int64, name string, quantity int64, price float64) product.Product {
	t.Helper()
	p, err := product.New(id, name, quantity, price)
	require.NoError(t, err)
	return p
}

// WriteInventory writes content to a fresh inventory file in a temporary
// directory and returns its path.
func WriteInventory(t testing.TB, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), InventoryFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ReadFile returns the content of path or fails the test.
func ReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
