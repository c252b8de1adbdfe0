package scheduler

import (
	"context"
	"time"

	"github.com/phantomcommerce/phantom-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const refreshTimeout = 30 * time.Second

// CacheRefresher reloads the catalog snapshot used by search.
type CacheRefresher interface {
	RefreshCache(ctx context.Context) error
}

// CatalogScheduler keeps the search cache warm on a cron schedule.
type CatalogScheduler struct {
	cron      *cron.Cron
	refresher CacheRefresher
	schedule  string
}

// NewCatalogScheduler accepts standard cron specs and descriptors such as
// "@every 5m".
func NewCatalogScheduler(refresher CacheRefresher, schedule string) *CatalogScheduler {
	return &CatalogScheduler{
		cron:      cron.New(),
		refresher: refresher,
		schedule:  schedule,
	}
}

// Start warms the cache once and then schedules the periodic refresh.
func (s *CatalogScheduler) Start() error {
	s.refresh()

	_, err := s.cron.AddFunc(s.schedule, s.refresh)
	if err != nil {
		logger.Error("Failed to add cron job for catalog refresh", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Catalog scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

// Stop waits for a running refresh to finish.
func (s *CatalogScheduler) Stop() {
	logger.Info("Stopping catalog scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Catalog scheduler stopped")
}

func (s *CatalogScheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	// RefreshCache logs its own failures.
	_ = s.refresher.RefreshCache(ctx)
}
