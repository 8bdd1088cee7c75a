// Package progress converts raw session performance into persistent
// progression (experience, level, best distance) and throttles outbound
// score sync against the shared room store.
package progress

import (
	"fmt"
	"strconv"

	"github.com/neonrush/rush-engine/engine/sim"
	"github.com/neonrush/rush-engine/engine/store"
)

// Persisted local keys. The values are numeric strings; the contract is the
// key-value store interface, not the encoding.
const (
	KeyHighScore = "neon_rush_highscore"
	KeyTotalXP   = "neon_rush_total_xp"
	KeyLevel     = "neon_rush_level"
)

// XPPerLevel is the flat experience cost of each level
const XPPerLevel = 1000

// ExperienceFor normalizes a session's performance into experience
func ExperienceFor(sc sim.Score) int {
	return int((sc.Distance + float64(sc.Pickups)) / 2)
}

// LevelFor derives the level implied by a cumulative experience total
func LevelFor(totalXP int) int {
	return totalXP/XPPerLevel + 1
}

// Tracker holds the player's persistent progression, loaded from and written
// through the key-value store.
type Tracker struct {
	TotalXP int
	Level   int
	Best    float64

	kv store.KeyValue
}

// NewTracker loads persisted progression. Missing or garbled values fall
// back to zero rather than failing startup.
func NewTracker(kv store.KeyValue) (*Tracker, error) {
	t := &Tracker{kv: kv, Level: 1}
	if v, ok, err := kv.Get(KeyHighScore); err != nil {
		return nil, fmt.Errorf("load progression: %w", err)
	} else if ok {
		if best, err := strconv.ParseFloat(v, 64); err == nil {
			t.Best = best
		}
	}
	if v, ok, err := kv.Get(KeyTotalXP); err != nil {
		return nil, fmt.Errorf("load progression: %w", err)
	} else if ok {
		if xp, err := strconv.Atoi(v); err == nil {
			t.TotalXP = xp
			t.Level = LevelFor(xp)
		}
	}
	return t, nil
}

// RecordSession merges a final score into the persistent progression and
// returns the experience earned. Best distance only moves upward.
func (t *Tracker) RecordSession(final sim.Score) (int, error) {
	earned := ExperienceFor(final)
	t.TotalXP += earned
	t.Level = LevelFor(t.TotalXP)

	if err := t.kv.Set(KeyTotalXP, strconv.Itoa(t.TotalXP)); err != nil {
		return earned, fmt.Errorf("persist xp: %w", err)
	}
	if err := t.kv.Set(KeyLevel, strconv.Itoa(t.Level)); err != nil {
		return earned, fmt.Errorf("persist level: %w", err)
	}
	if final.Distance > t.Best {
		t.Best = final.Distance
		if err := t.kv.Set(KeyHighScore, strconv.FormatFloat(t.Best, 'f', -1, 64)); err != nil {
			return earned, fmt.Errorf("persist best: %w", err)
		}
	}
	return earned, nil
}
