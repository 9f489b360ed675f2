package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost:9100", cfg.Server.Address)
	assert.Equal(t, "development", cfg.Log.Env)
	assert.Equal(t, "info", cfg.Log.Level)

	ids, err := cfg.Printer.VendorIDs()
	require.NoError(t, err)
	assert.Contains(t, ids, uint16(0x04B8), "Epson is in the default allow-list")
	assert.Len(t, ids, 5)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  address: ":9200"
log:
  env: production
  level: warn
printer:
  vendors:
    - "0x04b8"
    - "0x1234"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9200", cfg.Server.Address)
	assert.Equal(t, "production", cfg.Log.Env)
	assert.Equal(t, "warn", cfg.Log.Level)

	ids, err := cfg.Printer.VendorIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x04B8, 0x1234}, ids)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestVendorIDs(t *testing.T) {
	testCases := []struct {
		name    string
		vendors []string
		want    []uint16
		wantErr bool
	}{
		{"HexPrefix", []string{"0x04B8"}, []uint16{0x04B8}, false},
		{"BareHex", []string{"0519"}, []uint16{0x0519}, false},
		{"Whitespace", []string{" 0x1504 "}, []uint16{0x1504}, false},
		{"NotHex", []string{"epson"}, nil, true},
		{"TooLarge", []string{"0x10000"}, nil, true},
		{"Empty", nil, []uint16{}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ids, err := PrinterConfig{Vendors: tc.vendors}.VendorIDs()
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids)
		})
	}
}
