package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExtinction BookmarkType = "extinction"
	BookmarkRegrowth   BookmarkType = "regrowth"
	BookmarkStable     BookmarkType = "stable_pattern"
)

// Thresholds for bookmark detection.
const (
	woundFraction    = 0.8  // window minimum below this share of the peak counts as a wound
	regrowthFraction = 0.95 // alive back above this share of the pre-wound peak counts as regrown
	stableCV2        = 0.0004
	stableWindows    = 5
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Step        uint64       `csv:"step" json:"step"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"step", b.Step,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in a run: the pattern dying
// out, regrowing after damage, or settling.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	alivePeak          int  // highest alive count seen while undamaged
	lastAlive          int  // alive count at the previous window end
	wounded            bool // damage pushed alive well below the peak
	woundedFrom        int  // peak at the time of the wound
	stableWindowsCount int  // consecutive windows with a steady alive count
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkExtinction(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkRegrowth(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkStable(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	bd.lastAlive = stats.Alive
	if stats.DamageEvents == 0 && stats.Resets == 0 && stats.AliveMax > bd.alivePeak {
		bd.alivePeak = stats.AliveMax
	}
	if stats.Resets > 0 {
		bd.alivePeak = stats.AliveMax
		bd.wounded = false
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

func (bd *BookmarkDetector) checkExtinction(stats WindowStats) *Bookmark {
	if stats.Alive > 0 || bd.lastAlive == 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkExtinction,
		Step:        stats.WindowEndStep,
		Description: fmt.Sprintf("Pattern died out from %d living cells", bd.lastAlive),
	}
}

func (bd *BookmarkDetector) checkRegrowth(stats WindowStats) *Bookmark {
	if bd.alivePeak == 0 {
		return nil
	}

	if !bd.wounded && stats.DamageEvents > 0 && float64(stats.AliveMin) < float64(bd.alivePeak)*woundFraction {
		bd.wounded = true
		bd.woundedFrom = bd.alivePeak
	}
	if !bd.wounded || stats.Alive == 0 {
		return nil
	}

	if float64(stats.Alive) >= float64(bd.woundedFrom)*regrowthFraction {
		bd.wounded = false
		return &Bookmark{
			Type:        BookmarkRegrowth,
			Step:        stats.WindowEndStep,
			Description: fmt.Sprintf("Regrew to %d living cells after damage (peak %d)", stats.Alive, bd.woundedFrom),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStable(stats WindowStats) *Bookmark {
	if stats.Alive == 0 || stats.DamageEvents > 0 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	// Variance over the most recently added windows
	recent := make([]WindowStats, 0, 4)
	for i := 1; i <= 4; i++ {
		idx := (bd.historyIdx - i + bd.historySize) % bd.historySize
		recent = append(recent, bd.history[idx])
	}

	var sum float64
	for _, h := range recent {
		sum += float64(h.Alive)
	}
	mean := sum / 4

	var variance float64
	for _, h := range recent {
		d := float64(h.Alive) - mean
		variance += d * d
	}
	variance /= 4

	cv2 := 0.0
	if mean > 0 {
		cv2 = variance / (mean * mean)
	} else {
		cv2 = 1
	}

	if cv2 < stableCV2 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == stableWindows {
		return &Bookmark{
			Type:        BookmarkStable,
			Step:        stats.WindowEndStep,
			Description: fmt.Sprintf("Pattern steady at %d living cells over %d+ windows", stats.Alive, stableWindows),
		}
	}
	return nil
}
