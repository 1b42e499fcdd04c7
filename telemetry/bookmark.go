package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkHuntSurge        BookmarkType = "hunt_surge"
	BookmarkPredatorRecovery BookmarkType = "predator_recovery"
	BookmarkPreyCrash        BookmarkType = "prey_crash"
	BookmarkPlantDieback     BookmarkType = "plant_dieback"
	BookmarkStableEcosystem  BookmarkType = "stable_ecosystem"
)

// Bookmark marks an interesting moment of a run.
type Bookmark struct {
	Type        BookmarkType `csv:"type"        json:"type"`
	Tick        int          `csv:"tick"        json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// stableWindows is how many consecutive calm windows make a stable ecosystem.
const stableWindows = 5

// BookmarkDetector detects interesting moments from successive windows.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recentPredMin   int
	recentPreyPeak  int
	recentPlantPeak int
	stableCount     int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 4 {
		historySize = 4
	}
	return &BookmarkDetector{
		history:       make([]WindowStats, historySize),
		historySize:   historySize,
		recentPredMin: -1,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		for _, check := range []func(WindowStats) *Bookmark{
			bd.checkHuntSurge,
			bd.checkPredatorRecovery,
			bd.checkPreyCrash,
			bd.checkPlantDieback,
		} {
			if b := check(stats); b != nil {
				bookmarks = append(bookmarks, *b)
			}
		}
	}

	bd.addToHistory(stats)

	// The stability check looks at the window just added.
	if b := bd.checkStableEcosystem(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.recentPredMin < 0 || stats.Predators < bd.recentPredMin {
		bd.recentPredMin = stats.Predators
	}
	if stats.Prey > bd.recentPreyPeak {
		bd.recentPreyPeak = stats.Prey
	}
	if stats.Plants > bd.recentPlantPeak {
		bd.recentPlantPeak = stats.Plants
	}

	return bookmarks
}

// Reset forgets all history.
func (bd *BookmarkDetector) Reset() {
	*bd = *NewBookmarkDetector(bd.historySize)
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n of the newest windows, oldest first.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	var ordered []WindowStats
	if bd.historyFull {
		ordered = append(ordered, bd.history[bd.historyIdx:]...)
		ordered = append(ordered, bd.history[:bd.historyIdx]...)
	} else {
		ordered = bd.history[:bd.historyIdx]
	}
	if len(ordered) > n {
		ordered = ordered[len(ordered)-n:]
	}
	return ordered
}

func (bd *BookmarkDetector) checkHuntSurge(stats WindowStats) *Bookmark {
	history := bd.recent(bd.historySize)
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Kills
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.Kills) > avg*2 && stats.Kills >= 3 {
		return &Bookmark{
			Type:        BookmarkHuntSurge,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d kills is %.1fx the average (%.1f)", stats.Kills, float64(stats.Kills)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPredatorRecovery(stats WindowStats) *Bookmark {
	if bd.recentPredMin <= 0 || bd.recentPredMin > 2 {
		return nil
	}

	if stats.Predators >= bd.recentPredMin*3 && stats.Predators >= 6 {
		oldMin := bd.recentPredMin
		bd.recentPredMin = stats.Predators
		return &Bookmark{
			Type:        BookmarkPredatorRecovery,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Predators recovered from %d to %d", oldMin, stats.Predators),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPreyCrash(stats WindowStats) *Bookmark {
	if bd.recentPreyPeak == 0 {
		return nil
	}

	drop := 1.0 - float64(stats.Prey)/float64(bd.recentPreyPeak)
	if drop > 0.30 && stats.Prey <= bd.recentPreyPeak-5 {
		oldPeak := bd.recentPreyPeak
		bd.recentPreyPeak = stats.Prey
		return &Bookmark{
			Type:        BookmarkPreyCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Prey crashed %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Prey),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPlantDieback(stats WindowStats) *Bookmark {
	if bd.recentPlantPeak == 0 {
		return nil
	}

	drop := 1.0 - float64(stats.Plants)/float64(bd.recentPlantPeak)
	if drop > 0.50 {
		oldPeak := bd.recentPlantPeak
		bd.recentPlantPeak = stats.Plants
		return &Bookmark{
			Type:        BookmarkPlantDieback,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Live plants fell from %d to %d", oldPeak, stats.Plants),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStableEcosystem(stats WindowStats) *Bookmark {
	if stats.Prey < 5 || stats.Predators < 1 {
		bd.stableCount = 0
		return nil
	}

	window := bd.recent(4)
	if len(window) < 4 {
		return nil
	}

	prey := make([]float64, len(window))
	pred := make([]float64, len(window))
	for i, h := range window {
		prey[i] = float64(h.Prey)
		pred[i] = float64(h.Predators)
	}

	// Coefficient of variation below 20% for both populations.
	if calm(prey) && calm(pred) {
		bd.stableCount++
	} else {
		bd.stableCount = 0
	}

	if bd.stableCount == stableWindows {
		return &Bookmark{
			Type:        BookmarkStableEcosystem,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stable ecosystem with %d prey and %d predators", stats.Prey, stats.Predators),
		}
	}
	return nil
}

func calm(values []float64) bool {
	s := Summarize(values)
	if s.Mean == 0 {
		return false
	}
	return s.Std/s.Mean < 0.2
}
