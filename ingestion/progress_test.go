package ingestion

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Basic(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10)

	tracker.Start()
	assert.True(t, tracker.started, "should be started")

	tracker.Observe(50, 50, 100)
	tracker.Observe(100, 100, 100)

	elapsed := tracker.Elapsed()
	assert.Greater(t, elapsed, time.Duration(0), "elapsed time should be positive")

	output := buf.String()
	assert.Contains(t, output, "100/100", "should show completion")
	assert.Contains(t, output, "100.0%", "should show 100%")
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10)

	tracker.Start()
	tracker.Observe(75, 75, 100)
	tracker.Finish(98, 100)

	output := buf.String()
	assert.Contains(t, output, "98/100", "finish should report final counts")
	assert.Contains(t, output, "100.0%", "finish should show 100%")
	assert.Contains(t, output, "\n", "finish should print newline")
}

func TestProgressTracker_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10)

	tracker.Start()
	tracker.Finish(0, 0)

	output := buf.String()
	assert.Contains(t, output, "0/0", "should handle zero total")
}

func TestProgressTracker_Rate(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100)

	tracker.Start()
	time.Sleep(50 * time.Millisecond)
	tracker.Observe(10, 100, 1000)
	time.Sleep(50 * time.Millisecond)

	tracker.Finish(1000, 1000)

	output := buf.String()
	assert.Contains(t, output, "materials/s", "should show rate")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10)

	// Should not panic when not started
	tracker.Observe(10, 10, 100)
	tracker.Finish(100, 100)

	output := buf.String()
	assert.Equal(t, "", output, "should have no output when not started")
}

func TestProgressTracker_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100) // Report every 100 records

	tracker.Start()

	// First update under interval - should not print
	buf.Reset()
	tracker.Observe(5, 50, 1000)
	assert.Equal(t, "", buf.String(), "should not print under interval")

	// Update to exactly interval - should print
	buf.Reset()
	tracker.Observe(10, 100, 1000)
	assert.True(t, len(buf.String()) > 0, "should print at interval")

	// Next update under interval again - should not print
	buf.Reset()
	tracker.Observe(15, 150, 1000)
	assert.Equal(t, "", buf.String(), "should not print under interval")

	// Update beyond interval - should print
	buf.Reset()
	tracker.Observe(25, 250, 1000)
	assert.True(t, len(buf.String()) > 0, "should print beyond interval")
}

func TestProgressTracker_FormattedOutput(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 1000)

	tracker.Start()
	tracker.Observe(50, 2500, 5000)
	time.Sleep(10 * time.Millisecond)
	tracker.Observe(100, 5000, 5000)

	output := buf.String()

	// Check format contains expected elements
	lines := strings.Split(strings.TrimSpace(output), "\r")
	if len(lines) > 0 {
		lastLine := lines[len(lines)-1]
		assert.Contains(t, lastLine, "/", "should have progress fraction")
		assert.Contains(t, lastLine, "%", "should have percentage")
	}
}
