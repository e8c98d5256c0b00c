package main

import (
	"flag"
	"log"

	"github.com/unklstewy/airscope/pkg/config"
)

// airscope is the interactive terminal radar scope: it polls the
// configured feeds, fuses their reports, and renders the merged picture
// on a pannable, zoomable map.
func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if len(cfg.EnabledSources()) == 0 {
		log.Fatal("Error: no enabled sources configured")
	}

	app := NewApp(cfg, *configPath)
	if err := app.Run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
