package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/obsmine/weather-obs-pipeline/internal/pipeline"
)

// Scheduler periodically runs the pipeline for every configured
// location so the cache stays a recent last-known-good snapshot even
// when nobody is querying the API.
type Scheduler struct {
	scheduler *gocron.Scheduler
	pipeline  *pipeline.Pipeline
	locations []pipeline.Location
	days      int
	interval  time.Duration
}

// New creates a new Scheduler refreshing `days` of lookback per location.
func New(locations []pipeline.Location, interval time.Duration, days int, p *pipeline.Pipeline) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		pipeline:  p,
		locations: locations,
		days:      days,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		log.Println("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running cache refresh job")

		// Locations run in sequence: each pipeline pass is a single
		// bounded network call, and the cache assumes one writer per
		// location at a time.
		for _, loc := range s.locations {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			if _, err := s.pipeline.Run(ctx, loc, s.days); err != nil {
				log.Printf("scheduler: refresh failed for %s: %v", loc.Name, err)
			}
			cancel()
		}
		log.Println("scheduler: completed cache refresh job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
