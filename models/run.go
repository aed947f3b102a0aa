package models

import "time"

// Run is one processed assignment, as kept in the run history.
type Run struct {
	ID        string
	Source    string
	StartedAt time.Time
	Duration  time.Duration
	Total     int
	Failed    int
	Errors    []string
}

// RunStats summarises the run history.
type RunStats struct {
	Runs      int
	Exercises int
	Failed    int
}
