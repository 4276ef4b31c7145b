// Package progress draws a terminal progress bar for long running commands.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const barWidth = 40

// Bar renders done/total progress on a single terminal line.
type Bar struct {
	out   io.Writer
	label string

	mu        sync.Mutex
	done      int
	total     int
	startTime time.Time
	lastPrint time.Time
	finished  bool
}

// New creates a bar that writes to out.
func New(out io.Writer, label string) *Bar {
	now := time.Now()
	return &Bar{out: out, label: label, startTime: now, lastPrint: now}
}

// Set records progress. The line is redrawn at most every 500ms, and always
// once done reaches total.
func (b *Bar) Set(done, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.done, b.total = done, total
	now := time.Now()
	if now.Sub(b.lastPrint) > 500*time.Millisecond || done >= total {
		b.render()
		b.lastPrint = now
	}
}

// Finish ends the line. It does nothing if nothing was drawn.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finished || b.total == 0 {
		return
	}
	b.render()
	fmt.Fprintln(b.out)
	b.finished = true
}

func (b *Bar) render() {
	if b.finished || b.total <= 0 {
		return
	}

	done := min(b.done, b.total)
	elapsed := time.Since(b.startTime)

	var eta time.Duration
	if done > 0 {
		eta = elapsed / time.Duration(done) * time.Duration(b.total-done)
	}

	filled := barWidth * done / b.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(b.out, "\r%s [%s] %d/%d (%.1f%%) - Elapsed: %s - ETA: %s   ",
		b.label,
		bar,
		done,
		b.total,
		float64(done)/float64(b.total)*100,
		formatDuration(elapsed),
		formatDuration(eta),
	)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
