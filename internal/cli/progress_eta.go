// Package cli provides progress tracking with ETA estimation.
package cli

import (
	"fmt"
	"time"
)

// maxETA caps the estimate shown to the user.
const maxETA = 24 * time.Hour

// ProgressWithETA extends ProgressState with time estimation capabilities.
// Reductions report progress once per layer, so the rate is smoothed across
// layer barriers rather than derived from a single step.
type ProgressWithETA struct {
	*ProgressState
	startTime    time.Time
	lastUpdate   time.Time
	lastProgress float64
	progressRate float64 // smoothed progress per second
}

// NewProgressWithETA creates a new progress tracker with ETA calculation.
//
// Parameters:
//   - numReducers: The number of reducers being tracked.
//
// Returns:
//   - *ProgressWithETA: A new progress tracker with ETA support.
func NewProgressWithETA(numReducers int) *ProgressWithETA {
	now := time.Now()
	return &ProgressWithETA{
		ProgressState: NewProgressState(numReducers),
		startTime:     now,
		lastUpdate:    now,
	}
}

// UpdateWithETA updates progress for a specific reducer and calculates ETA.
// It uses exponential smoothing for the progress rate.
//
// Parameters:
//   - index: The index of the reducer (0 to numReducers-1).
//   - value: The new progress value (0.0 to 1.0).
//
// Returns:
//   - progress: The current average progress (0.0 to 1.0).
//   - eta: The estimated time remaining, or 0 if the reduction started recently.
func (p *ProgressWithETA) UpdateWithETA(index int, value float64) (progress float64, eta time.Duration) {
	p.Update(index, value)
	progress = p.CalculateAverage()

	now := time.Now()
	elapsed := now.Sub(p.startTime)

	if elapsed < 100*time.Millisecond || progress <= 0.001 {
		p.lastUpdate = now
		p.lastProgress = progress
		return progress, 0
	}

	if sinceUpdate := now.Sub(p.lastUpdate).Seconds(); sinceUpdate > 0.05 {
		if delta := progress - p.lastProgress; delta > 0 {
			instantRate := delta / sinceUpdate
			if p.progressRate > 0 {
				p.progressRate = 0.7*p.progressRate + 0.3*instantRate
			} else {
				p.progressRate = progress / elapsed.Seconds()
			}
		}
		p.lastUpdate = now
		p.lastProgress = progress
	}

	return progress, p.estimate(progress)
}

// GetETA calculates the current ETA without updating progress.
//
// Returns:
//   - time.Duration: The estimated time remaining based on current progress rate.
func (p *ProgressWithETA) GetETA() time.Duration {
	return p.estimate(p.CalculateAverage())
}

func (p *ProgressWithETA) estimate(progress float64) time.Duration {
	if p.progressRate <= 0 || progress >= 1.0 {
		return 0
	}
	eta := time.Duration((1.0 - progress) / p.progressRate * float64(time.Second))
	return min(eta, maxETA)
}

// FormatETA formats a duration into a human-readable ETA string.
//
// Parameters:
//   - eta: The duration to format.
//
// Returns:
//   - string: A formatted string like "< 1s", "2m30s", "1h15m".
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		minutes := int(eta.Minutes())
		if seconds := int(eta.Seconds()) % 60; seconds > 0 {
			return fmt.Sprintf("%dm%ds", minutes, seconds)
		}
		return fmt.Sprintf("%dm", minutes)
	}
	hours := int(eta.Hours())
	if minutes := int(eta.Minutes()) % 60; minutes > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	return fmt.Sprintf("%dh", hours)
}

// FormatProgressBarWithETA generates a formatted progress string with ETA.
//
// Parameters:
//   - progress: The normalized progress value (0.0 to 1.0).
//   - eta: The estimated time remaining.
//   - width: The width of the progress bar in characters.
//
// Returns:
//   - string: A formatted string like "45.00% [████░░░░] ETA: 2m30s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("%6.2f%% [%s] ETA: %s", progress*100, progressBar(progress, width), FormatETA(eta))
}
