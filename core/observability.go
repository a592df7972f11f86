package core

import "time"

// FunctionCallRecord captures one function invocation during a CallFunction pass.
type FunctionCallRecord struct {
	Name      string
	TaskIndex int
	TaskInfo  string
	Manager   string
	Division  Division
	Priority  int
	ID        int
	Frame     uint64
	StartedAt time.Time
	Duration  time.Duration
	Panicked  bool
}

// DivisionStats is the per-division part of TaskManagerStats.
type DivisionStats struct {
	Division   Division
	Priorities int
	Functions  int
	Disabled   int
	Delayed    int
}

// TaskManagerStats is the snapshot published by each arrangement pass.
type TaskManagerStats struct {
	Name      string
	Frame     uint64
	Tasks     int
	Divisions []DivisionStats
	UpdatedAt time.Time
}

// Functions returns the live function count across all divisions.
func (s TaskManagerStats) Functions() int {
	n := 0
	for _, d := range s.Divisions {
		n += d.Functions
	}
	return n
}
