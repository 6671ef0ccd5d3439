package engine

import (
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/AaronLay10/ScratchyEngine/internal/events"
	"github.com/AaronLay10/ScratchyEngine/internal/storage/postgres"
)

// RunRewardSource is the ledger source for completion rewards.
const RunRewardSource = "run"

// Progress is a learner's accumulated coins and solved puzzles.
// DailyCompleted holds the days (YYYY-MM-DD) whose daily challenge was
// completed.
type Progress struct {
	Coins          int      `json:"coins"`
	Solved         []string `json:"solved"`
	DailyCompleted []string `json:"daily_completed,omitempty"`
}

// IsSolved reports whether puzzleID is in the solved set.
func (p *Progress) IsSolved(puzzleID string) bool {
	return slices.Contains(p.Solved, puzzleID)
}

// CompletedDaily reports whether the daily challenge of day was completed.
func (p *Progress) CompletedDaily(day string) bool {
	return slices.Contains(p.DailyCompleted, day)
}

func (p *Progress) markSolved(puzzleID string) {
	if p.IsSolved(puzzleID) {
		return
	}
	p.Solved = append(p.Solved, puzzleID)
	sort.Strings(p.Solved)
}

func (p *Progress) markDaily(day string) {
	if p.CompletedDaily(day) {
		return
	}
	p.DailyCompleted = append(p.DailyCompleted, day)
	sort.Strings(p.DailyCompleted)
}

func (p Progress) clone() Progress {
	return Progress{
		Coins:          p.Coins,
		Solved:         append([]string{}, p.Solved...),
		DailyCompleted: append([]string(nil), p.DailyCompleted...),
	}
}

// DayKey is the calendar day of t in local time, as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Local().Format(time.DateOnly)
}

// DailyFunc picks the daily challenge for a moment; PuzzleSet.Daily is one.
type DailyFunc func(t time.Time) (*Puzzle, bool)

func isDaily(daily DailyFunc, puzzleID string, t time.Time) bool {
	if daily == nil {
		return false
	}
	p, ok := daily(t.Local())
	return ok && p.ID == puzzleID
}

// RewardHistory is the persisted coins ledger; the Postgres client
// implements it.
type RewardHistory interface {
	TotalCoins() (int, error)
	AllRewards(exclude string) ([]postgres.RewardRow, error)
}

// RestoreProgress rebuilds progress from the reward ledger: coins from its
// total, solved puzzles from every non-run source, daily completions from
// puzzle rewards paid on the day that puzzle was the daily challenge.
// Returns the number of puzzle rewards replayed, and nil progress if src
// is nil or the ledger is empty.
func RestoreProgress(src RewardHistory, daily DailyFunc) (*Progress, int, error) {
	if src == nil {
		return nil, 0, nil
	}

	coins, err := src.TotalCoins()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to sum rewards: %w", err)
	}
	rows, err := src.AllRewards(RunRewardSource)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load rewards: %w", err)
	}
	if coins == 0 && len(rows) == 0 {
		return nil, 0, nil
	}

	p := &Progress{Coins: coins, Solved: []string{}}
	for _, row := range rows {
		p.markSolved(row.Source)
		if isDaily(daily, row.Source, row.Timestamp) {
			p.markDaily(DayKey(row.Timestamp))
		}
	}
	return p, len(rows), nil
}

// EmitStartupRestore emits the system.startup_restore event.
func EmitStartupRestore(restored int, p *Progress, playgroundID string) {
	fields := map[string]interface{}{
		"restored":      restored,
		"playground_id": playgroundID,
	}
	if p != nil {
		fields["coins"] = p.Coins
		fields["solved"] = len(p.Solved)
	}
	events.Emit("info", "system.startup_restore", "", fields)
}

// KV is the key/value store progress is saved to between sessions.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
}

// Ledger records granted coins.
type Ledger interface {
	AppendReward(ts time.Time, source string, coins int) error
}

// Tracker owns the live progress and hands out reward callbacks that
// update it. A puzzle pays on its first solve only; the daily challenge
// pays once per day.
type Tracker struct {
	mu       sync.Mutex
	progress Progress
	kv       KV
	key      string
	ledger   Ledger
	daily    DailyFunc
	now      func() time.Time

	ledgerErrLogged bool
}

// NewTracker loads saved progress from kv under key. kv and ledger may be
// nil.
func NewTracker(kv KV, key string, ledger Ledger) (*Tracker, error) {
	t := &Tracker{kv: kv, key: key, ledger: ledger, now: time.Now}
	if kv == nil {
		return t, nil
	}

	raw, ok, err := kv.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if ok {
		if err := json.Unmarshal(raw, &t.progress); err != nil {
			return nil, fmt.Errorf("failed to decode progress: %w", err)
		}
	}
	return t, nil
}

// SetDaily tells the tracker which puzzle is the daily challenge.
func (t *Tracker) SetDaily(daily DailyFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.daily = daily
}

// SetClock overrides the time source that decides the current day.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// Seed replaces empty progress with restored progress. Saved progress
// wins over restored.
func (t *Tracker) Seed(p *Progress) {
	if p == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.progress.Coins != 0 || len(t.progress.Solved) != 0 {
		return
	}
	t.progress = p.clone()
	t.saveLocked()
}

// Snapshot returns a copy of the current progress.
func (t *Tracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress.clone()
}

// CanClaim reports whether solving puzzleID now would pay its reward.
func (t *Tracker) CanClaim(puzzleID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.claimableLocked(puzzleID, t.now())
	return ok
}

// claimableLocked returns the day to record when puzzleID is today's daily
// challenge, and whether a reward is due at all.
func (t *Tracker) claimableLocked(puzzleID string, now time.Time) (day string, ok bool) {
	if isDaily(t.daily, puzzleID, now) {
		day = DayKey(now)
		return day, !t.progress.CompletedDaily(day)
	}
	return "", !t.progress.IsSolved(puzzleID)
}

// RunReward returns the completion reward callback.
func (t *Tracker) RunReward() RewardFunc {
	return func(coins int) { t.grant(RunRewardSource, coins) }
}

// PuzzleReward returns the callback for a correct check of puzzleID.
func (t *Tracker) PuzzleReward(puzzleID string) RewardFunc {
	return func(coins int) { t.claim(puzzleID, coins) }
}

func (t *Tracker) claim(puzzleID string, coins int) {
	t.mu.Lock()
	day, ok := t.claimableLocked(puzzleID, t.now())
	if !ok {
		t.mu.Unlock()
		reason := "already_solved"
		if day != "" {
			reason = "daily_already_completed"
		}
		events.Emit("info", "reward.declined", "", map[string]interface{}{
			"source": puzzleID,
			"reason": reason,
		})
		return
	}
	t.progress.markSolved(puzzleID)
	if day != "" {
		t.progress.markDaily(day)
	}
	t.mu.Unlock()

	t.grant(puzzleID, coins)
}

func (t *Tracker) grant(source string, coins int) {
	if coins < 0 {
		coins = 0
	}

	t.mu.Lock()
	t.progress.Coins += coins
	total := t.progress.Coins
	t.saveLocked()
	t.mu.Unlock()

	t.appendLedger(source, coins)

	events.Emit("info", "reward.granted", "", map[string]interface{}{
		"source": source,
		"coins":  coins,
		"total":  total,
	})
}

// appendLedger logs the first failure of a streak only.
func (t *Tracker) appendLedger(source string, coins int) {
	if t.ledger == nil {
		return
	}
	err := t.ledger.AppendReward(t.now().UTC(), source, coins)

	t.mu.Lock()
	first := err != nil && !t.ledgerErrLogged
	t.ledgerErrLogged = err != nil
	t.mu.Unlock()

	if first {
		log.Printf("reward ledger append failed: %v", err)
	}
}

func (t *Tracker) saveLocked() {
	if t.kv == nil {
		return
	}
	raw, err := json.Marshal(t.progress)
	if err != nil {
		log.Printf("progress encode failed: %v", err)
		return
	}
	if err := t.kv.Put(t.key, raw); err != nil {
		log.Printf("progress save failed: %v", err)
	}
}
