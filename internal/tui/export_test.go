package tui

import "time"

// StartedAt sets the time the run started, as SyncStarted would.
func (m StatsModel) StartedAt(t time.Time) StatsModel {
	m.started = t

	return m
}
