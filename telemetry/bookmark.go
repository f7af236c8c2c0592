package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSplitStorm         BookmarkType = "split_storm"
	BookmarkCapPressure        BookmarkType = "cap_pressure"
	BookmarkPopulationRecovery BookmarkType = "population_recovery"
	BookmarkPopulationCrash    BookmarkType = "population_crash"
	BookmarkStablePopulation   BookmarkType = "stable_population"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	SimTime     float64      `csv:"sim_time"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"sim_time", b.SimTime,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentMin          int // minimum population in recent history
	recentPeak         int // peak population in recent history
	stableWindowsCount int // consecutive windows with a stable population
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable population detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
		recentMin:   -1,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Split storm: split births > 2x rolling average
		if b := bd.checkSplitStorm(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Cap pressure: evictions > 2x rolling average
		if b := bd.checkCapPressure(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Recovery: was <= 3, now >= 3x that
		if b := bd.checkRecovery(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Crash: dropped >30% from recent peak
		if b := bd.checkCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Stable: low variance over 5+ windows
		if b := bd.checkStable(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.Count < bd.recentMin || bd.recentMin < 0 {
		bd.recentMin = stats.Count
	}
	if stats.Count > bd.recentPeak {
		bd.recentPeak = stats.Count
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkSplitStorm(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.SplitBirths
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.SplitBirths) > avg*2.0 && stats.SplitBirths >= 5 {
		return &Bookmark{
			Type:        BookmarkSplitStorm,
			SimTime:     stats.SimTimeSec,
			Description: fmt.Sprintf("%d splits is %.1fx average (%.1f)", stats.SplitBirths, float64(stats.SplitBirths)/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkCapPressure(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 || stats.Evictions < 5 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Evictions
	}
	avg := float64(total) / float64(len(history))

	if float64(stats.Evictions) > avg*2.0 {
		return &Bookmark{
			Type:        BookmarkCapPressure,
			SimTime:     stats.SimTimeSec,
			Description: fmt.Sprintf("%d evictions against an average of %.1f", stats.Evictions, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkRecovery(stats WindowStats) *Bookmark {
	if bd.recentMin < 0 || bd.recentMin > 3 {
		return nil
	}

	threshold := bd.recentMin * 3
	if stats.Count >= threshold && stats.Count >= 6 {
		// Reset the minimum after triggering
		oldMin := bd.recentMin
		bd.recentMin = stats.Count

		return &Bookmark{
			Type:        BookmarkPopulationRecovery,
			SimTime:     stats.SimTimeSec,
			Description: fmt.Sprintf("Population recovered from %d to %d", oldMin, stats.Count),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkCrash(stats WindowStats) *Bookmark {
	if bd.recentPeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Count)/float64(bd.recentPeak)
	if dropPercent > 0.30 && stats.Count < bd.recentPeak-10 {
		// Reset peak after crash
		oldPeak := bd.recentPeak
		bd.recentPeak = stats.Count

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			SimTime:     stats.SimTimeSec,
			Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Count),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStable(stats WindowStats) *Bookmark {
	if stats.Count < 10 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	// Check variance in recent windows
	var sum float64
	for _, h := range history[len(history)-4:] {
		sum += float64(h.Count)
	}
	mean := sum / 4

	var variance float64
	for _, h := range history[len(history)-4:] {
		d := float64(h.Count) - mean
		variance += d * d
	}
	variance /= 4

	if mean > 0 && variance/(mean*mean) < 0.04 { // CV^2 < 0.04 means CV < 0.2
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStablePopulation,
			SimTime:     stats.SimTimeSec,
			Description: fmt.Sprintf("Stable population around %d bubbles over 5+ windows", stats.Count),
		}
	}

	return nil
}
