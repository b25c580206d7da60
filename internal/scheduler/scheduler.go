package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/weatherdemo/resilient-forecast/internal/forecast"
)

// Warmer periodically pre-fetches forecasts for the registered cities so
// interactive requests land on a warm cache. Cities whose fault rules
// make them fail simply log their exhaustion; the warmer never aborts.
type Warmer struct {
	scheduler *gocron.Scheduler
	service   *forecast.Service
	cities    []string
	interval  time.Duration
	log       *slog.Logger
}

// New creates a Warmer over the given cities.
func New(cities []string, interval time.Duration, service *forecast.Service, log *slog.Logger) *Warmer {
	s := gocron.NewScheduler(time.UTC)
	if log == nil {
		log = slog.Default()
	}
	return &Warmer{
		scheduler: s,
		service:   service,
		cities:    cities,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the periodic warm job and starts the underlying
// scheduler. A zero interval or empty city list disables warming.
func (w *Warmer) Start() error {
	if w.interval <= 0 || len(w.cities) == 0 {
		w.log.Info("cache warmer disabled")
		return nil
	}

	_, err := w.scheduler.Every(w.interval).Do(w.warm)
	if err != nil {
		return err
	}

	w.scheduler.StartAsync()
	return nil
}

// warm runs one warming pass: every city is fetched concurrently so a
// city whose fault rules exhaust its retries only logs, it never stops
// the others from landing in the cache.
func (w *Warmer) warm() {
	w.log.Debug("running cache warm job", "cities", len(w.cities))

	var wg sync.WaitGroup
	for _, city := range w.cities {
		wg.Add(1)
		go func(city string) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if _, err := w.service.Fetch(ctx, city); err != nil {
				w.log.Warn("cache warm failed", "city", city, "error", err)
			}
		}(city)
	}
	wg.Wait()
}

// Stop stops the scheduler and cancels any future jobs.
func (w *Warmer) Stop() {
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
}
