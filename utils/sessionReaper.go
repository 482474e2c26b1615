package utils

import (
	"log"
	"time"

	"lms/config"

	"github.com/robfig/cron/v3"
)

// SessionSweeper closes idle playback sessions and refreshes expiring sources
type SessionSweeper interface {
	Sweep(ttl, expirySlack time.Duration) int
}

// InitializeSessionReaper sets up the playback session sweep scheduler
func InitializeSessionReaper(manager SessionSweeper) *cron.Cron {
	log.Println("[SESSION-REAPER] Initializing session reaper...")

	c := cron.New()

	// Run every minute to close idle sessions and refresh expiring signed URLs
	c.AddFunc("@every 1m", func() {
		ttl := time.Duration(config.AppConfig.SessionIdleTTLMin) * time.Minute
		slack := time.Duration(config.AppConfig.SourceExpirySlackSec) * time.Second

		closed := manager.Sweep(ttl, slack)
		if closed > 0 {
			log.Printf("[SESSION-REAPER] closed %d idle sessions", closed)
		}
	})

	c.Start()
	log.Println("[SESSION-REAPER] Session reaper started - runs every minute")
	return c
}
