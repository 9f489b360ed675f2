// Package config loads service configuration from environment variables
// and an optional YAML file via Viper.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config groups the service configuration.
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Printer PrinterConfig
}

// ServerConfig is the TCP job server configuration.
type ServerConfig struct {
	Address string
}

// LogConfig controls log output format and verbosity.
type LogConfig struct {
	Env   string // development -> console writer; anything else -> JSON
	Level string // trace, debug, info, warn, error
}

// PrinterConfig holds the USB vendor-ID allow-list as hex strings. The
// list is data, not code: new printer models are added by configuration,
// not recompilation.
type PrinterConfig struct {
	Vendors []string
}

// defaultVendors are the USB vendor IDs of the major ESC/POS printer
// manufacturers.
var defaultVendors = []string{
	"0x04b8", // Epson
	"0x0519", // Star Micronics
	"0x1504", // Bixolon
	"0x1d90", // Citizen
	"0x0fe6", // Rongta / generic POS clones
}

// VendorIDs parses the configured allow-list into numeric vendor IDs.
func (c PrinterConfig) VendorIDs() ([]uint16, error) {
	ids := make([]uint16, 0, len(c.Vendors))
	for _, v := range c.Vendors {
		s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(v)), "0x")
		id, err := strconv.ParseUint(s, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid vendor id %q: %w", v, err)
		}
		ids = append(ids, uint16(id))
	}
	return ids, nil
}

// Load reads configuration from environment variables (PRINTSRV_ prefix)
// and, when path is non-empty, a YAML file. Environment wins over file,
// file wins over defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PRINTSRV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", "localhost:9100")
	v.SetDefault("log.env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("printer.vendors", defaultVendors)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Address: v.GetString("server.address"),
		},
		Log: LogConfig{
			Env:   v.GetString("log.env"),
			Level: v.GetString("log.level"),
		},
		Printer: PrinterConfig{
			Vendors: v.GetStringSlice("printer.vendors"),
		},
	}

	if _, err := cfg.Printer.VendorIDs(); err != nil {
		return nil, err
	}
	return cfg, nil
}
