package events

// ResultEvent is the settlement hand-off payload: everything the payout
// subsystem needs to settle a period without a second lookup.
type ResultEvent struct {
	GameType  string   `json:"game_type"`
	Duration  int      `json:"duration"`
	Timeline  string   `json:"timeline"`
	PeriodID  string   `json:"period_id"`
	Result    string   `json:"result"` // canonical combination key, e.g. "07345"
	Digits    [5]uint8 `json:"digits"`
	Sum       uint8    `json:"sum"`
	Parity    string   `json:"parity"`
	Size      string   `json:"size"`
	Mode      string   `json:"mode"` // protection mode that produced the result
	Liability int64    `json:"liability"`
	Timestamp int64    `json:"timestamp"`
}
