package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unklstewy/airscope/internal/db"
	"github.com/unklstewy/airscope/pkg/config"
	"github.com/unklstewy/airscope/pkg/feed"
	"github.com/unklstewy/airscope/pkg/fusion"
	"github.com/unklstewy/airscope/pkg/geo"
)

// Collector continuously fetches aircraft data from all configured
// sources, fuses it, and stores the merged tracks in the database. This
// runs as a background service, so multiple display clients can share
// the same data without hitting API rate limits.
func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	flag.Parse()

	log.Println("===========================================")
	log.Println("  airscope track collector")
	log.Println("===========================================")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	sources := cfg.EnabledSources()
	if len(sources) == 0 {
		log.Fatal("Error: no enabled sources configured")
	}

	observer := geo.Point{Latitude: cfg.Observer.Latitude, Longitude: cfg.Observer.Longitude}
	log.Printf("Configuration loaded from: %s", *configPath)
	log.Printf("Observer: %s at %.4f, %.4f", cfg.Observer.Name, observer.Latitude, observer.Longitude)
	log.Printf("Sources: %d enabled", len(sources))
	for _, src := range sources {
		log.Printf("  ✓ %s (priority %d): %s", src.Name, src.Priority, src.BaseURL)
	}
	log.Printf("Search radius: %.0f nm, update interval: %d seconds",
		cfg.Feed.SearchRadiusNM, cfg.Feed.UpdateIntervalSeconds)

	log.Println("Connecting to database...")
	database, err := db.ReconnectWithRetry(cfg.Database, 0, time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("✓ Database schema initialized")

	repo := db.NewTrackRepository(database, observer)

	// One worker and one snapshot cell per source.
	fusionSources := make([]fusion.SourceConfig, 0, len(sources))
	cells := make([]*feed.Cell, 0, len(sources))
	interval := time.Duration(cfg.Feed.UpdateIntervalSeconds) * time.Second
	for _, src := range sources {
		fusionSources = append(fusionSources, fusion.SourceConfig{
			Name:     src.Name,
			Endpoint: src.BaseURL,
			Enabled:  src.Enabled,
			Priority: src.Priority,
			ReceiverLocation: geo.Point{
				Latitude:  src.ReceiverLatitude,
				Longitude: src.ReceiverLongitude,
			},
		})

		cell := &feed.Cell{}
		cells = append(cells, cell)
		client := feed.NewClient(src.Name, src.BaseURL, src.RequestsPerSecond)
		if src.APIKey != "" {
			client.SetAPIKey(src.APIKey)
		}
		worker := feed.NewWorker(client, cell, observer, cfg.Feed.SearchRadiusNM, interval)
		go worker.Run(ctx)
	}

	merger := fusion.NewMerger(fusionSources)

	// FetchedAt of the newest snapshot already merged per cell; store
	// ticks and fetches are not in lockstep.
	fetched := make([]time.Time, len(cells))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	storeTicker := time.NewTicker(interval)
	defer storeTicker.Stop()
	cleanupTicker := time.NewTicker(10 * time.Minute)
	defer cleanupTicker.Stop()

	log.Println("Collector running, press Ctrl+C to stop")

	for {
		select {
		case <-sigCh:
			log.Println("Shutting down...")
			cancel()
			return

		case <-storeTicker.C:
			now := time.Now().UTC()
			for i, cell := range cells {
				snap := cell.Get()
				if snap.Status != feed.StatusConnected || !snap.FetchedAt.After(fetched[i]) {
					continue
				}
				fetched[i] = snap.FetchedAt
				for _, r := range snap.Reports {
					merger.Merge(snap.Source, r, snap.FetchedAt)
				}
			}

			stored := 0
			for _, ft := range merger.Tracks() {
				if err := repo.UpsertTrack(ctx, ft, now); err != nil {
					log.Printf("Failed to store track %s: %v", ft.ICAO, err)
					continue
				}
				stored++
			}
			log.Printf("Stored %d tracks (%d fused)", stored, merger.Len())

		case <-cleanupTicker.C:
			if err := database.CleanupOldData(ctx, time.Hour, 24*time.Hour); err != nil {
				log.Printf("Cleanup failed: %v", err)
			}
		}
	}
}
