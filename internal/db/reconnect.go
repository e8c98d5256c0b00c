package db

import (
	"context"
	"log"
	"time"

	"github.com/unklstewy/airscope/pkg/config"
)

// ReconnectWithRetry attempts to connect to the database with exponential
// backoff. This provides resilience against temporary database outages.
//
// maxRetries of 0 retries forever. The backoff doubles per attempt,
// capped at 60 seconds.
func ReconnectWithRetry(cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration) (*DB, error) {
	delay := initialDelay
	attempt := 0

	for {
		attempt++
		log.Printf("Database connection attempt %d...", attempt)

		db, err := Connect(cfg)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			pingErr := db.PingContext(ctx)
			cancel()
			if pingErr == nil {
				log.Println("Database connected")
				return db, nil
			}
			db.Close()
			err = pingErr
		}

		if maxRetries > 0 && attempt >= maxRetries {
			log.Printf("Failed to connect after %d attempts", attempt)
			return nil, err
		}

		log.Printf("Connection failed: %v (retry in %v)", err, delay)
		time.Sleep(delay)

		delay *= 2
		if delay > 60*time.Second {
			delay = 60 * time.Second
		}
	}
}
