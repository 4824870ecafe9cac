package ui

import "github.com/bamsammich/ferry/internal/stats"

// quietPresenter consumes events but produces no output.
type quietPresenter struct {
	stats *stats.Collector
}

func (p *quietPresenter) Run(events <-chan Event) error {
	for range events {
		// Counters live on the collector; presenters only read them.
	}
	return nil
}

func (p *quietPresenter) Summary() string {
	return ""
}
