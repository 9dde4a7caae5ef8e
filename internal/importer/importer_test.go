package importer

import (
	"testing"

	"github.com/pvlab-dev/pvlab/internal/api"
)

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{api.ImportPending, false},
		{api.ImportProcessing, false},
		{api.ImportCompleted, true},
		{api.ImportFailed, true},
		{api.ImportPartial, true},
		{"weird-future-status", false},
	}
	for _, tt := range tests {
		if got := IsTerminal(tt.status); got != tt.want {
			t.Errorf("IsTerminal(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestCanRetry(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{api.ImportPending, false},
		{api.ImportProcessing, false},
		{api.ImportCompleted, false},
		{api.ImportFailed, true},
		{api.ImportPartial, true},
	}
	for _, tt := range tests {
		if got := CanRetry(tt.status); got != tt.want {
			t.Errorf("CanRetry(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name        string
		job         api.ImportJob
		percent     int
		determinate bool
	}{
		{
			name:        "pending is indeterminate",
			job:         api.ImportJob{Status: api.ImportPending, TotalRecords: 100},
			determinate: false,
		},
		{
			name:        "processing is indeterminate even with counts",
			job:         api.ImportJob{Status: api.ImportProcessing, TotalRecords: 100, SuccessRecords: 40},
			determinate: false,
		},
		{
			name:        "completed all records",
			job:         api.ImportJob{Status: api.ImportCompleted, TotalRecords: 200, SuccessRecords: 200},
			percent:     100,
			determinate: true,
		},
		{
			name:        "partial rounds to nearest",
			job:         api.ImportJob{Status: api.ImportPartial, TotalRecords: 3, SuccessRecords: 2},
			percent:     67,
			determinate: true,
		},
		{
			name:        "failed before any record",
			job:         api.ImportJob{Status: api.ImportFailed, TotalRecords: 0},
			percent:     0,
			determinate: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			percent, determinate := ProgressPercent(tt.job)
			if determinate != tt.determinate {
				t.Fatalf("determinate = %v, want %v", determinate, tt.determinate)
			}
			if determinate && percent != tt.percent {
				t.Errorf("percent = %d, want %d", percent, tt.percent)
			}
		})
	}
}

func TestCompletedWithFailures(t *testing.T) {
	clean := api.ImportJob{Status: api.ImportCompleted, TotalRecords: 10, SuccessRecords: 10}
	if CompletedWithFailures(clean) {
		t.Error("clean completion flagged as having failures")
	}

	dropped := api.ImportJob{Status: api.ImportCompleted, TotalRecords: 10, SuccessRecords: 8, FailedRecords: 2}
	if !CompletedWithFailures(dropped) {
		t.Error("completion with failed records not flagged")
	}

	// Partial is a distinct backend-declared outcome, never remapped.
	partial := api.ImportJob{Status: api.ImportPartial, TotalRecords: 10, SuccessRecords: 8, FailedRecords: 2}
	if CompletedWithFailures(partial) {
		t.Error("partial misreported as completed-with-failures")
	}
}
