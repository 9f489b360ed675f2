package main

import (
	"flag"
	"os"

	"github.com/salonkit/thermal-print-server/config"
	"github.com/salonkit/thermal-print-server/logging"
	"github.com/salonkit/thermal-print-server/printer"
	"github.com/salonkit/thermal-print-server/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Env, cfg.Log.Level)

	vendors, err := cfg.Printer.VendorIDs()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid vendor allow-list")
	}

	transport := printer.NewUSBTransport(printer.FirstMatch, log)
	defer transport.Close()

	session := printer.NewSession(transport, vendors, log)
	defer session.Disconnect()

	srv := server.New(session, cfg.Server.Address, log)
	log.Info().Str("address", cfg.Server.Address).Msg("starting print server")
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
