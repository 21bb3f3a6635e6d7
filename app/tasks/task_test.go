package tasks

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		retryCount int
		expected   time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{20, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("retry_%d", tt.retryCount), func(t *testing.T) {
			if got := retryDelay(tt.retryCount); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestPermanent(t *testing.T) {
	base := errors.New("missing credentials")

	if Permanent(nil) != nil {
		t.Error("Expected nil for nil error")
	}

	wrapped := fmt.Errorf("build failed: %w", Permanent(base))
	if !IsPermanent(wrapped) {
		t.Error("Expected wrapped permanent error to be detected")
	}
	if !errors.Is(wrapped, base) {
		t.Error("Expected permanent error to unwrap to its cause")
	}
	if IsPermanent(base) {
		t.Error("Expected plain error not to be permanent")
	}
}

func TestTaskRetryAccounting(t *testing.T) {
	task := NewTask(TaskTypeRunJob, "founder")

	if task.ID == "" {
		t.Error("Expected task ID to be set")
	}
	if task.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i+1)
		}
		task.IncrementRetryCount()
	}

	if task.CanRetry() {
		t.Error("Expected retries to be exhausted")
	}
}
