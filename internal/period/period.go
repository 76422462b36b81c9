package period

import (
	"fmt"
	"time"
)

// Key identifies one betting period of one game/duration/timeline.
type Key struct {
	GameType string `json:"game_type"`
	Duration int    `json:"duration"` // seconds
	Timeline string `json:"timeline"`
	PeriodID string `json:"period_id"`
}

// String renders the canonical storage key, e.g. "fiveD:60:default:2026083100123".
func (k Key) String() string {
	return fmt.Sprintf("%s:%d:%s:%s", k.GameType, k.Duration, k.Timeline, k.PeriodID)
}

// Window is a period key together with its lifecycle instants. Betting
// freezes at FreezeAt; the result is due at EndAt.
type Window struct {
	Key      Key
	StartAt  time.Time
	FreezeAt time.Time
	EndAt    time.Time
}

// Current computes the window containing now. Windows are aligned to epoch
// multiples of the duration; the period ID is the UTC date plus the
// window's sequence number within that day, matching what the game-loop
// subsystem announces.
func Current(gameType string, duration int, timeline string, freezeOffset time.Duration, now time.Time) Window {
	d := time.Duration(duration) * time.Second
	start := now.UTC().Truncate(d)
	end := start.Add(d)

	midnight := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	seq := int(start.Sub(midnight)/d) + 1

	return Window{
		Key: Key{
			GameType: gameType,
			Duration: duration,
			Timeline: timeline,
			PeriodID: fmt.Sprintf("%s%05d", start.Format("20060102"), seq),
		},
		StartAt:  start,
		FreezeAt: end.Add(-freezeOffset),
		EndAt:    end,
	}
}
