package server

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Purger drops expired cache rows.
type Purger interface {
	PurgeExpired(now time.Time) (int64, error)
}

// purgeSchedule runs the cache purge at the top of every hour.
const purgeSchedule = "@hourly"

// startMaintenance runs the hourly cache purge. The returned function stops
// the scheduler and waits for a running job.
func (s *Server) startMaintenance() (func(), error) {
	if s.cache == nil {
		return func() {}, nil
	}
	c := cron.New()
	if _, err := c.AddFunc(purgeSchedule, s.purgeCache); err != nil {
		return nil, fmt.Errorf("schedule cache purge: %w", err)
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}

func (s *Server) purgeCache() {
	n, err := s.cache.PurgeExpired(s.now())
	if err != nil {
		s.logger.Error("cache purge failed", "err", err)
		return
	}
	if n > 0 {
		s.logger.Info("purged expired cache entries", "count", n)
	}
}
